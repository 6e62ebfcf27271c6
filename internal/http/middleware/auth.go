package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/streamly/portal/internal/domain"
)

const userIDKey = "userID"

// BearerVerifier validates a bearer credential and yields the token subject.
type BearerVerifier interface {
	VerifyHeader(ctx context.Context, header string) (string, error)
}

// Auth attaches the authenticated user identity to the gin context.
type Auth struct {
	Verifier BearerVerifier
}

// RequireUser enforces a valid bearer token and stores its subject.
func (m *Auth) RequireUser(c *gin.Context) {
	subject, err := m.Verifier.VerifyHeader(c.Request.Context(), c.GetHeader("Authorization"))
	if err != nil {
		abortUnauthorized(c, err)
		return
	}
	c.Set(userIDKey, subject)
	c.Next()
}

// OptionalUser accepts either a bearer token or a userId cookie as the
// request identity. Requests carrying neither are rejected.
func (m *Auth) OptionalUser(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if strings.TrimSpace(header) != "" {
		subject, err := m.Verifier.VerifyHeader(c.Request.Context(), header)
		if err != nil {
			abortUnauthorized(c, err)
			return
		}
		c.Set(userIDKey, subject)
		c.Next()
		return
	}

	if userID, err := c.Cookie("userId"); err == nil && strings.TrimSpace(userID) != "" {
		c.Set(userIDKey, strings.TrimSpace(userID))
		c.Next()
		return
	}

	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":             domain.AuthCodeNoToken,
		"error_description": "No identity supplied.",
	})
}

// GetUserID exposes the authenticated user id to handlers.
func GetUserID(c *gin.Context) (string, bool) {
	value, ok := c.Get(userIDKey)
	if !ok {
		return "", false
	}
	userID, ok := value.(string)
	return userID, ok && userID != ""
}

func abortUnauthorized(c *gin.Context, err error) {
	var authErr *domain.AuthError
	code := domain.AuthCodeInvalidToken
	if errors.As(err, &authErr) {
		code = authErr.Code
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":             code,
		"error_description": "Invalid or missing access token.",
	})
}
