package token

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	gojose "github.com/go-jose/go-jose/v4"
	gojwt "github.com/go-jose/go-jose/v4/jwt"

	"github.com/streamly/portal/internal/domain"
)

const keysetTTL = time.Hour

// Verifier validates end-user bearer tokens against the identity provider's
// published JWKS, discovered once via the OIDC configuration document and
// refreshed hourly.
type Verifier struct {
	endpoint   string
	httpClient *http.Client
	now        func() time.Time

	mu        sync.Mutex
	issuer    string
	keyset    *gojose.JSONWebKeySet
	fetchedAt time.Time
}

// NewVerifier constructs a verifier for the provider endpoint.
func NewVerifier(endpoint string, client *http.Client) *Verifier {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Verifier{
		endpoint:   strings.TrimRight(endpoint, "/"),
		httpClient: client,
		now:        time.Now,
	}
}

// VerifyHeader extracts and validates the bearer token from an Authorization
// header value, returning the token subject. Failures are AuthErrors with
// no_token, expired_token, or invalid_token codes.
func (v *Verifier) VerifyHeader(ctx context.Context, header string) (string, error) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", domain.NewAuthError(domain.AuthCodeNoToken, "missing or invalid Authorization header")
	}
	return v.Verify(ctx, strings.TrimSpace(parts[1]))
}

// Verify validates a raw bearer token and returns its subject.
func (v *Verifier) Verify(ctx context.Context, raw string) (string, error) {
	issuer, keyset, err := v.keys(ctx)
	if err != nil {
		return "", fmt.Errorf("load provider keys: %w", err)
	}

	parsed, err := gojwt.ParseSigned(raw, []gojose.SignatureAlgorithm{gojose.RS256})
	if err != nil {
		return "", domain.NewAuthError(domain.AuthCodeInvalidToken, "token malformed")
	}

	var claims gojwt.Claims
	if err := parsed.Claims(keyset, &claims); err != nil {
		return "", domain.NewAuthError(domain.AuthCodeInvalidToken, "signature verification failed")
	}

	if err := claims.Validate(gojwt.Expected{Issuer: issuer, Time: v.now()}); err != nil {
		if errors.Is(err, gojwt.ErrExpired) {
			return "", domain.NewAuthError(domain.AuthCodeExpiredToken, "token expired")
		}
		return "", domain.NewAuthError(domain.AuthCodeInvalidToken, "claims validation failed")
	}

	if claims.Subject == "" {
		return "", domain.NewAuthError(domain.AuthCodeInvalidToken, "token has no subject")
	}
	return claims.Subject, nil
}

func (v *Verifier) keys(ctx context.Context) (string, *gojose.JSONWebKeySet, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.keyset != nil && v.now().Sub(v.fetchedAt) < keysetTTL {
		return v.issuer, v.keyset, nil
	}

	var discovery struct {
		Issuer  string `json:"issuer"`
		JWKSURI string `json:"jwks_uri"`
	}
	if err := v.fetchJSON(ctx, v.endpoint+"/.well-known/openid-configuration", &discovery); err != nil {
		return "", nil, fmt.Errorf("oidc discovery: %w", err)
	}

	var keyset gojose.JSONWebKeySet
	if err := v.fetchJSON(ctx, discovery.JWKSURI, &keyset); err != nil {
		return "", nil, fmt.Errorf("fetch jwks: %w", err)
	}

	v.issuer = discovery.Issuer
	v.keyset = &keyset
	v.fetchedAt = v.now()
	return v.issuer, v.keyset, nil
}

func (v *Verifier) fetchJSON(ctx context.Context, url string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := v.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("status=%d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	return json.Unmarshal(body, dest)
}
