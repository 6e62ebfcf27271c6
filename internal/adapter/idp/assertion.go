package idp

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"strings"
	"sync"
	"time"

	gojose "github.com/go-jose/go-jose/v4"
	gojwt "github.com/go-jose/go-jose/v4/jwt"
)

const (
	assertionTTL = 5 * time.Minute
	// Regenerate this long before the cached assertion actually expires.
	assertionSkew = 30 * time.Second
)

// AssertionSource issues short-lived signed admin assertions for privileged
// identity-provider calls. One instance is constructed per process and shared
// by reference; a race on regeneration at worst wastes one signing operation.
type AssertionSource struct {
	projectID string
	signer    gojose.Signer
	now       func() time.Time

	mu        sync.Mutex
	cached    string
	expiresAt time.Time
}

// NewAssertionSource parses the PEM private key from configuration and builds
// an RS256 signer carrying the admin key id. Missing key material is a fatal
// configuration error.
func NewAssertionSource(projectID, keyID, privateKeyPEM string) (*AssertionSource, error) {
	if projectID == "" || keyID == "" {
		return nil, fmt.Errorf("admin assertion: project id or key id missing")
	}
	key, err := parsePrivateKey(privateKeyPEM)
	if err != nil {
		return nil, err
	}

	signer, err := gojose.NewSigner(
		gojose.SigningKey{Algorithm: gojose.RS256, Key: key},
		(&gojose.SignerOptions{}).WithType("JWT").WithHeader("kid", keyID),
	)
	if err != nil {
		return nil, fmt.Errorf("admin assertion: new signer: %w", err)
	}

	return &AssertionSource{
		projectID: projectID,
		signer:    signer,
		now:       time.Now,
	}, nil
}

// Token returns a valid admin assertion, reusing the cached one until 30
// seconds before expiry.
func (s *AssertionSource) Token() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	if s.cached != "" && s.expiresAt.Add(-assertionSkew).After(now) {
		return s.cached, nil
	}

	exp := now.Add(assertionTTL)
	claims := gojwt.Claims{
		Audience: gojwt.Audience{s.projectID},
		IssuedAt: gojwt.NewNumericDate(now),
		Expiry:   gojwt.NewNumericDate(exp),
	}

	token, err := gojwt.Signed(s.signer).Claims(claims).Serialize()
	if err != nil {
		return "", fmt.Errorf("admin assertion: sign: %w", err)
	}

	s.cached = token
	s.expiresAt = exp
	return token, nil
}

func parsePrivateKey(raw string) (*rsa.PrivateKey, error) {
	cleaned := strings.TrimSpace(strings.ReplaceAll(raw, `\n`, "\n"))
	if cleaned == "" {
		return nil, fmt.Errorf("admin assertion: private key not configured")
	}
	block, _ := pem.Decode([]byte(cleaned))
	if block == nil {
		return nil, fmt.Errorf("admin assertion: invalid PEM")
	}

	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("admin assertion: parse private key: %w", err)
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("admin assertion: key is not RSA")
	}
	return key, nil
}
