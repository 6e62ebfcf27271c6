package idp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/streamly/portal/internal/domain"
)

// Tokens models the identity provider's token endpoint response.
type Tokens struct {
	AccessToken  string
	RefreshToken string
	IDToken      string
	TokenType    string
	ExpiresIn    int64
}

// UserInfo is the normalized userinfo record.
type UserInfo struct {
	Sub        string `json:"sub"`
	Email      string `json:"email"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	Name       string `json:"name"`
	Picture    string `json:"picture"`
}

// TokenClient performs the OAuth code exchange and userinfo calls against the
// identity provider's public endpoints.
type TokenClient struct {
	httpClient   *http.Client
	endpoint     string
	clientID     string
	clientSecret string
	redirectURI  string
}

// NewTokenClient constructs the default token client. The redirect URI is
// fixed to the portal's /api/profile callback.
func NewTokenClient(client *http.Client, endpoint, clientID, clientSecret, baseURL string) *TokenClient {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &TokenClient{
		httpClient:   client,
		endpoint:     strings.TrimRight(endpoint, "/"),
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURI:  strings.TrimRight(baseURL, "/") + "/api/profile",
	}
}

// ExchangeCode posts an authorization-code grant to the token endpoint.
func (c *TokenClient) ExchangeCode(ctx context.Context, code string) (*Tokens, error) {
	data := url.Values{}
	data.Set("grant_type", "authorization_code")
	data.Set("code", code)
	data.Set("client_id", c.clientID)
	data.Set("client_secret", c.clientSecret)
	data.Set("redirect_uri", c.redirectURI)

	return c.tokenRequest(ctx, data)
}

// RefreshTokens exchanges a refresh token for a fresh token set.
func (c *TokenClient) RefreshTokens(ctx context.Context, refreshToken string) (*Tokens, error) {
	data := url.Values{}
	data.Set("grant_type", "refresh_token")
	data.Set("refresh_token", refreshToken)
	data.Set("client_id", c.clientID)
	data.Set("client_secret", c.clientSecret)

	return c.tokenRequest(ctx, data)
}

func (c *TokenClient) tokenRequest(ctx context.Context, data url.Values) (*Tokens, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/oauth2/token", strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &domain.UpstreamError{Op: "token exchange", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &domain.UpstreamError{Op: "token exchange", Err: err}
	}
	if resp.StatusCode >= 300 {
		return nil, &domain.UpstreamError{
			Op:     "token exchange",
			Detail: fmt.Sprintf("status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(body))),
		}
	}

	var raw struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		IDToken      string `json:"id_token"`
		TokenType    string `json:"token_type"`
		ExpiresIn    int64  `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &domain.UpstreamError{Op: "token exchange", Err: fmt.Errorf("decode response: %w", err)}
	}

	return &Tokens{
		AccessToken:  raw.AccessToken,
		RefreshToken: raw.RefreshToken,
		IDToken:      raw.IDToken,
		TokenType:    raw.TokenType,
		ExpiresIn:    raw.ExpiresIn,
	}, nil
}

// FetchUserInfo loads the userinfo endpoint record for an access token.
func (c *TokenClient) FetchUserInfo(ctx context.Context, accessToken string) (*UserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/oauth2/userinfo", nil)
	if err != nil {
		return nil, fmt.Errorf("build userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &domain.UpstreamError{Op: "userinfo", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &domain.UpstreamError{Op: "userinfo", Err: err}
	}
	if resp.StatusCode >= 300 {
		return nil, &domain.UpstreamError{
			Op:     "userinfo",
			Detail: fmt.Sprintf("status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(body))),
		}
	}

	var info UserInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, &domain.UpstreamError{Op: "userinfo", Err: fmt.Errorf("decode response: %w", err)}
	}
	return &info, nil
}
