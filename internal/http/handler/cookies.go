package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/streamly/portal/internal/domain"
)

const nonceCookie = "auth_nonce"

// readCookieProjection parses the client-owned profile subset from request
// cookies.
func readCookieProjection(c *gin.Context) domain.CookieProjection {
	cookie := func(name string) string {
		v, err := c.Cookie(name)
		if err != nil {
			return ""
		}
		return strings.TrimSpace(v)
	}

	complete, _ := strconv.ParseBool(cookie("profileComplete"))
	return domain.CookieProjection{
		Firstname: cookie("firstname"),
		Lastname:  cookie("lastname"),
		Email:     cookie("email"),
		Referral:  cookie("referral"),
		Complete:  complete,
	}
}

// setProfileCookies derives the outgoing cookie set from the final merged
// record: one cookie per present scalar field plus the completeness flag.
// Cookies must stay readable by the browser UI, so HttpOnly is off.
func setProfileCookies(c *gin.Context, profile domain.Profile, referral string, ttl time.Duration) {
	expires := time.Now().Add(ttl)
	set := func(name, value string) {
		http.SetCookie(c.Writer, &http.Cookie{
			Name:     name,
			Value:    value,
			Path:     "/",
			Expires:  expires,
			Secure:   true,
			HttpOnly: false,
			SameSite: http.SameSiteLaxMode,
		})
	}

	for name, value := range profile.Scalars() {
		set(name, value)
	}
	set("profileComplete", strconv.FormatBool(profile.Complete()))
	if strings.TrimSpace(referral) != "" {
		set("referral", referral)
	}

	clearCookie(c, nonceCookie)
}

func clearCookie(c *gin.Context, name string) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}
