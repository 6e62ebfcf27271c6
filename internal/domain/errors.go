package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTenantNotFound signals that no portal is configured for a hostname.
	ErrTenantNotFound = errors.New("portal: tenant not found")
	// ErrUserNotFound signals that the identity provider has no such user.
	ErrUserNotFound = errors.New("portal: user not found")
	// ErrForbidden indicates an identity mismatch between cookie and payload.
	ErrForbidden = errors.New("portal: forbidden")
)

// Auth error codes carried by AuthError.
const (
	AuthCodeNoToken      = "no_token"
	AuthCodeExpiredToken = "expired_token"
	AuthCodeInvalidToken = "invalid_token"
)

// AuthError describes a missing, expired, or invalid bearer credential.
type AuthError struct {
	Code    string
	Message string
}

func (e *AuthError) Error() string {
	if e.Message == "" {
		return "auth: " + e.Code
	}
	return "auth: " + e.Code + ": " + e.Message
}

// NewAuthError builds an AuthError with the given code.
func NewAuthError(code, message string) *AuthError {
	return &AuthError{Code: code, Message: message}
}

// ValidationError enumerates every field that failed shape checks. Handlers
// render it as a 400 with the per-field detail map.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	return "validation failed: " + strings.Join(keys, ", ")
}

// UpstreamError wraps an identity provider or token endpoint failure. Detail
// preserves the upstream body for operator diagnosis; it is never returned to
// end users verbatim.
type UpstreamError struct {
	Op     string
	Detail string
	Err    error
}

func (e *UpstreamError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Detail)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Op
}

func (e *UpstreamError) Unwrap() error { return e.Err }
