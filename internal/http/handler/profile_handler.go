package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/streamly/portal/internal/adapter/idp"
	"github.com/streamly/portal/internal/domain"
	"github.com/streamly/portal/internal/http/middleware"
)

// TokenExchanger is the identity-provider token surface the callback needs.
type TokenExchanger interface {
	ExchangeCode(ctx context.Context, code string) (*idp.Tokens, error)
	FetchUserInfo(ctx context.Context, accessToken string) (*idp.UserInfo, error)
}

// ProfileAPI is the reconciliation engine surface the handlers depend on.
type ProfileAPI interface {
	Reconcile(ctx context.Context, userID string, cookies domain.CookieProjection) domain.Profile
	Update(ctx context.Context, userID string, submission domain.ProfileSubmission) (domain.Profile, error)
}

// ProfileHandler serves the OAuth callback and the profile read/update
// endpoints.
type ProfileHandler struct {
	Tokens    TokenExchanger
	Profiles  ProfileAPI
	RelayHost string
	CookieTTL time.Duration
	Logger    *zap.Logger
}

// NewProfileHandler creates the profile handler set.
func NewProfileHandler(tokens TokenExchanger, profiles ProfileAPI, relayHost string, cookieTTL time.Duration, logger *zap.Logger) *ProfileHandler {
	if logger == nil {
		logger = zap.L()
	}
	if cookieTTL <= 0 {
		cookieTTL = 30 * 24 * time.Hour
	}
	return &ProfileHandler{
		Tokens:    tokens,
		Profiles:  profiles,
		RelayHost: relayHost,
		CookieTTL: cookieTTL,
		Logger:    logger,
	}
}

// Callback completes the provider redirect flow: it exchanges the code,
// derives the identity cookie set from the reconciled profile, and redirects
// into the portal UI. When invoked on the shared relay host it forwards the
// whole query to the originating tenant instead.
func (h *ProfileHandler) Callback(c *gin.Context) {
	code := strings.TrimSpace(c.Query("code"))
	if code == "" {
		c.String(http.StatusBadRequest, "Missing code")
		return
	}
	rawState := strings.TrimSpace(c.Query("state"))
	if rawState == "" {
		c.String(http.StatusBadRequest, "Missing state")
		return
	}

	state := domain.DecodeAuthState(rawState)

	if h.RelayHost != "" && strings.Contains(c.Request.Host, h.RelayHost) {
		if state.Domain == "" {
			c.String(http.StatusBadRequest, "State carries no portal domain")
			return
		}
		c.Redirect(http.StatusFound, "https://"+state.Domain+"/api/profile?"+c.Request.URL.RawQuery)
		return
	}

	ctx := c.Request.Context()
	tokens, err := h.Tokens.ExchangeCode(ctx, code)
	if err != nil {
		h.respondUpstream(c, err)
		return
	}
	info, err := h.Tokens.FetchUserInfo(ctx, tokens.AccessToken)
	if err != nil {
		h.respondUpstream(c, err)
		return
	}

	cookies := readCookieProjection(c)
	profile := h.Profiles.Reconcile(ctx, info.Sub, cookies)
	profile = profile.Merge(domain.Profile{
		UserID:    info.Sub,
		Firstname: info.GivenName,
		Lastname:  info.FamilyName,
		Email:     info.Email,
		Avatar:    info.Picture,
	})

	referral := state.Referral
	if referral == "" {
		referral = strings.TrimSpace(c.Query("referral"))
	}
	setProfileCookies(c, profile, referral, h.CookieTTL)

	if profile.Complete() {
		c.Redirect(http.StatusFound, "/")
		return
	}
	c.Redirect(http.StatusFound, "/?profile=complete")
}

// GetUser returns the merged profile view for the request identity.
func (h *ProfileHandler) GetUser(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": domain.AuthCodeNoToken})
		return
	}

	profile := h.Profiles.Reconcile(c.Request.Context(), userID, readCookieProjection(c))
	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

// UpdateUser validates the submitted metadata and runs the write fan-out.
func (h *ProfileHandler) UpdateUser(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": domain.AuthCodeNoToken})
		return
	}

	var req struct {
		Metadata *domain.ProfileSubmission `json:"metadata"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Metadata == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing metadata"})
		return
	}

	// The identity cookie and the bearer subject must agree.
	if cookieID, err := c.Cookie("userId"); err == nil {
		if trimmed := strings.TrimSpace(cookieID); trimmed != "" && trimmed != userID {
			h.respondUpdateError(c, domain.ErrForbidden)
			return
		}
	}

	profile, err := h.Profiles.Update(c.Request.Context(), userID, *req.Metadata)
	if err != nil {
		h.respondUpdateError(c, err)
		return
	}

	setProfileCookies(c, profile, "", h.CookieTTL)
	c.JSON(http.StatusOK, gin.H{"success": true, "profile": profile})
}

func (h *ProfileHandler) respondUpdateError(c *gin.Context, err error) {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": validationErr.Fields})
		return
	}
	if errors.Is(err, domain.ErrForbidden) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Identity mismatch"})
		return
	}
	if errors.Is(err, domain.ErrUserNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	var upstreamErr *domain.UpstreamError
	if errors.As(err, &upstreamErr) {
		h.respondUpstream(c, err)
		return
	}
	h.Logger.Error("profile update failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}

func (h *ProfileHandler) respondUpstream(c *gin.Context, err error) {
	// Upstream detail stays in the logs; clients get a generic message.
	h.Logger.Error("identity provider call failed", zap.Error(err))
	c.JSON(http.StatusBadGateway, gin.H{"error": "Identity provider unavailable"})
}
