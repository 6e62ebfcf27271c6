package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/streamly/portal/internal/domain"
)

type staticVerifier struct {
	subject string
	err     error
}

func (v staticVerifier) VerifyHeader(context.Context, string) (string, error) {
	return v.subject, v.err
}

func authRouter(v staticVerifier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	auth := &Auth{Verifier: v}

	echo := func(c *gin.Context) {
		userID, _ := GetUserID(c)
		c.String(http.StatusOK, userID)
	}
	r.GET("/required", auth.RequireUser, echo)
	r.GET("/optional", auth.OptionalUser, echo)
	return r
}

func TestRequireUserValidToken(t *testing.T) {
	r := authRouter(staticVerifier{subject: "u1"})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/required", nil)
	req.Header.Set("Authorization", "Bearer token")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "u1", w.Body.String())
}

func TestRequireUserRejectsWithAuthCode(t *testing.T) {
	cases := map[string]string{
		domain.AuthCodeNoToken:      domain.AuthCodeNoToken,
		domain.AuthCodeExpiredToken: domain.AuthCodeExpiredToken,
		domain.AuthCodeInvalidToken: domain.AuthCodeInvalidToken,
	}
	for name, code := range cases {
		t.Run(name, func(t *testing.T) {
			r := authRouter(staticVerifier{err: domain.NewAuthError(code, "nope")})

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/required", nil))

			require.Equal(t, http.StatusUnauthorized, w.Code)
			require.Contains(t, w.Body.String(), code)
		})
	}
}

func TestOptionalUserPrefersBearer(t *testing.T) {
	r := authRouter(staticVerifier{subject: "bearer-user"})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/optional", nil)
	req.Header.Set("Authorization", "Bearer token")
	req.AddCookie(&http.Cookie{Name: "userId", Value: "cookie-user"})
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "bearer-user", w.Body.String())
}

func TestOptionalUserFallsBackToCookie(t *testing.T) {
	r := authRouter(staticVerifier{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/optional", nil)
	req.AddCookie(&http.Cookie{Name: "userId", Value: " u1 "})
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "u1", w.Body.String())
}

func TestOptionalUserRejectsBadBearerEvenWithCookie(t *testing.T) {
	r := authRouter(staticVerifier{err: domain.NewAuthError(domain.AuthCodeExpiredToken, "expired")})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/optional", nil)
	req.Header.Set("Authorization", "Bearer stale")
	req.AddCookie(&http.Cookie{Name: "userId", Value: "u1"})
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Contains(t, w.Body.String(), domain.AuthCodeExpiredToken)
}

func TestOptionalUserNoIdentity(t *testing.T) {
	r := authRouter(staticVerifier{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/optional", nil))

	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Contains(t, w.Body.String(), domain.AuthCodeNoToken)
}
