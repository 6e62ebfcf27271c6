package domain

import (
	"strings"
	"time"
)

// Profile is the reconciled view of a user's descriptive attributes. All
// string fields are optional; an authenticated user with no stored profile is
// represented by a Profile with only UserID set.
type Profile struct {
	UserID    string    `json:"userId,omitempty"`
	Firstname string    `json:"firstname,omitempty"`
	Lastname  string    `json:"lastname,omitempty"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Position  string    `json:"position,omitempty"`
	Company   string    `json:"company,omitempty"`
	Industry  string    `json:"industry,omitempty"`
	URL       string    `json:"url,omitempty"`
	About     string    `json:"about,omitempty"`
	Avatar    string    `json:"avatar,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
	UpdatedAt time.Time `json:"updatedAt,omitzero"`
}

// Complete reports whether the profile satisfies the completeness invariant:
// both firstname and lastname non-empty after trimming.
func (p Profile) Complete() bool {
	return strings.TrimSpace(p.Firstname) != "" && strings.TrimSpace(p.Lastname) != ""
}

// Merge returns a copy of p with every non-empty field of overlay written on
// top. Empty overlay fields never erase existing values.
func (p Profile) Merge(overlay Profile) Profile {
	out := p
	overwrite(&out.UserID, overlay.UserID)
	overwrite(&out.Firstname, overlay.Firstname)
	overwrite(&out.Lastname, overlay.Lastname)
	overwrite(&out.Email, overlay.Email)
	overwrite(&out.Phone, overlay.Phone)
	overwrite(&out.Position, overlay.Position)
	overwrite(&out.Company, overlay.Company)
	overwrite(&out.Industry, overlay.Industry)
	overwrite(&out.URL, overlay.URL)
	overwrite(&out.About, overlay.About)
	overwrite(&out.Avatar, overlay.Avatar)
	if !overlay.CreatedAt.IsZero() {
		out.CreatedAt = overlay.CreatedAt
	}
	if !overlay.UpdatedAt.IsZero() {
		out.UpdatedAt = overlay.UpdatedAt
	}
	return out
}

// Scalars returns the cookie-visible scalar fields keyed by cookie name,
// omitting empty values.
func (p Profile) Scalars() map[string]string {
	fields := map[string]string{
		"userId":    p.UserID,
		"firstname": p.Firstname,
		"lastname":  p.Lastname,
		"email":     p.Email,
		"phone":     p.Phone,
		"position":  p.Position,
		"company":   p.Company,
		"industry":  p.Industry,
		"url":       p.URL,
		"about":     p.About,
		"avatar":    p.Avatar,
	}
	for k, v := range fields {
		if strings.TrimSpace(v) == "" {
			delete(fields, k)
		}
	}
	return fields
}

func overwrite(dst *string, src string) {
	if strings.TrimSpace(src) != "" {
		*dst = src
	}
}

// CookieProjection is the client-owned subset of a Profile carried in request
// cookies. It is the least trusted reconciliation tier.
type CookieProjection struct {
	Firstname string
	Lastname  string
	Email     string
	Referral  string
	Complete  bool
}

// Profile lifts the projection into a Profile value for merging.
func (c CookieProjection) Profile() Profile {
	return Profile{
		Firstname: c.Firstname,
		Lastname:  c.Lastname,
		Email:     c.Email,
	}
}

// ProfileSubmission is the validated client payload for profile updates.
// Validation tags are enforced once at the boundary; internal layers only see
// submissions that passed.
type ProfileSubmission struct {
	Firstname string `json:"firstname" validate:"required,max=100"`
	Lastname  string `json:"lastname" validate:"required,max=100"`
	Email     string `json:"email" validate:"omitempty,email"`
	Phone     string `json:"phone" validate:"omitempty,e164"`
	Position  string `json:"position" validate:"omitempty,max=100"`
	Company   string `json:"company" validate:"omitempty,max=100"`
	Industry  string `json:"industry" validate:"omitempty,max=100"`
	URL       string `json:"url" validate:"omitempty,url,max=255"`
	About     string `json:"about" validate:"omitempty,max=2000"`
}

// Trim normalizes whitespace on every field before validation.
func (s *ProfileSubmission) Trim() {
	s.Firstname = strings.TrimSpace(s.Firstname)
	s.Lastname = strings.TrimSpace(s.Lastname)
	s.Email = strings.TrimSpace(s.Email)
	s.Phone = strings.TrimSpace(s.Phone)
	s.Position = strings.TrimSpace(s.Position)
	s.Company = strings.TrimSpace(s.Company)
	s.Industry = strings.TrimSpace(s.Industry)
	s.URL = strings.TrimSpace(s.URL)
	s.About = strings.TrimSpace(s.About)
}

// Profile converts the submission into a Profile owned by userID.
func (s ProfileSubmission) Profile(userID string) Profile {
	return Profile{
		UserID:    userID,
		Firstname: s.Firstname,
		Lastname:  s.Lastname,
		Email:     s.Email,
		Phone:     s.Phone,
		Position:  s.Position,
		Company:   s.Company,
		Industry:  s.Industry,
		URL:       s.URL,
		About:     s.About,
	}
}
