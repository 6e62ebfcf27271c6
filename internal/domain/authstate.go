package domain

import (
	"encoding/base64"
	"encoding/json"
	"strings"
)

// AuthState is the opaque value round-tripped through the identity provider's
// redirect flow. Modern clients encode it as base64 JSON; older portal pages
// still send the colon-delimited "domain:referral" form.
type AuthState struct {
	Domain   string `json:"domain"`
	Referral string `json:"referral,omitempty"`
	Nonce    string `json:"nonce,omitempty"`

	// Legacy is true when the value only decoded via the delimited fallback.
	Legacy bool `json:"-"`
}

// DecodeAuthState tries the structured base64-JSON decode first and falls
// back to the legacy colon-delimited form. It never fails: an undecodable
// value yields a state with an empty domain.
func DecodeAuthState(raw string) AuthState {
	if payload, ok := decodeBase64(raw); ok {
		var st AuthState
		if err := json.Unmarshal(payload, &st); err == nil && strings.TrimSpace(st.Domain) != "" {
			st.Domain = strings.TrimSpace(st.Domain)
			return st
		}
	}

	host, referral, _ := strings.Cut(raw, ":")
	return AuthState{
		Domain:   strings.TrimSpace(host),
		Referral: referral,
		Legacy:   true,
	}
}

func decodeBase64(raw string) ([]byte, bool) {
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding, base64.RawURLEncoding} {
		if b, err := enc.DecodeString(raw); err == nil {
			return b, true
		}
	}
	return nil, false
}
