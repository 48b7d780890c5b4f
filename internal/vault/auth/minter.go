// Package auth mints short-lived bearer tokens from a service-account key
// via the signed-assertion OAuth2 exchange. Tokens are not cached or
// refreshed; callers mint per sync and respect the returned expiry.
package auth

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"veopm/internal/services"
)

const (
	defaultTokenURI = "https://oauth2.googleapis.com/token"
	scope           = "https://www.googleapis.com/auth/cloud-platform"
	grantType       = "urn:ietf:params:oauth:grant-type:jwt-bearer"
	tokenLifetime   = time.Hour
)

// ServiceAccountKey is the long-lived credential document.
type ServiceAccountKey struct {
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
	TokenURI    string `json:"token_uri"`

	rsaKey *rsa.PrivateKey
}

// ParseKey decodes a service-account key document and imports its RSA key.
func ParseKey(data []byte) (*ServiceAccountKey, error) {
	var key ServiceAccountKey
	if err := json.Unmarshal(data, &key); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "auth", "parse key", "invalid key document", err)
	}
	if strings.TrimSpace(key.ClientEmail) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "auth", "parse key", "key document has no client_email", nil)
	}
	if strings.TrimSpace(key.TokenURI) == "" {
		key.TokenURI = defaultTokenURI
	}

	rsaKey, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(key.PrivateKey))
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "auth", "parse key", "invalid private key", err)
	}
	key.rsaKey = rsaKey
	return &key, nil
}

// LoadKey reads and parses a service-account key file.
func LoadKey(path string) (*ServiceAccountKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "auth", "load key", path, err)
	}
	return ParseKey(data)
}

// Token is a minted bearer token. Callers must treat it as invalid once
// ExpiresIn seconds have elapsed since minting.
type Token struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Minter exchanges signed assertions for bearer tokens.
type Minter struct {
	key        *ServiceAccountKey
	httpClient *http.Client
	now        func() time.Time
}

// Option customizes the minter.
type Option func(*Minter)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(m *Minter) {
		if client != nil {
			m.httpClient = client
		}
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(now func() time.Time) Option {
	return func(m *Minter) {
		if now != nil {
			m.now = now
		}
	}
}

// NewMinter constructs a minter for the given key.
func NewMinter(key *ServiceAccountKey, opts ...Option) *Minter {
	minter := &Minter{
		key:        key,
		httpClient: &http.Client{},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(minter)
	}
	return minter
}

// Mint signs a fresh assertion and exchanges it for a bearer token.
func (m *Minter) Mint(ctx context.Context) (*Token, error) {
	assertion, err := m.signAssertion()
	if err != nil {
		return nil, err
	}

	form := url.Values{}
	form.Set("grant_type", grantType)
	form.Set("assertion", assertion)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.key.TokenURI, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, services.Wrap(services.ErrAuthExchange, "auth", "mint", "build request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrAuthExchange, "auth", "mint", "token endpoint unreachable", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, services.Wrap(services.ErrAuthExchange, "auth", "mint", "read response", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, services.Wrap(services.ErrAuthExchange, "auth", "mint", providerDetail(body), nil)
	}

	var token Token
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, services.Wrap(services.ErrAuthExchange, "auth", "mint", "decode response", err)
	}
	if token.AccessToken == "" {
		return nil, services.Wrap(services.ErrAuthExchange, "auth", "mint", "response carried no access token", nil)
	}
	return &token, nil
}

// signAssertion builds the RS256 three-part assertion over the key's
// identity, the cloud-platform scope, and a one-hour validity window.
func (m *Minter) signAssertion() (string, error) {
	now := m.now().UTC()
	claims := jwt.MapClaims{
		"iss":   m.key.ClientEmail,
		"scope": scope,
		"aud":   m.key.TokenURI,
		"iat":   now.Unix(),
		"exp":   now.Add(tokenLifetime).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(m.key.rsaKey)
	if err != nil {
		return "", services.Wrap(services.ErrAuthExchange, "auth", "sign assertion", "", err)
	}
	return signed, nil
}

func providerDetail(body []byte) string {
	var decoded struct {
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	if err := json.Unmarshal(body, &decoded); err == nil && decoded.Error != "" {
		if decoded.ErrorDescription != "" {
			return decoded.Error + ": " + decoded.ErrorDescription
		}
		return decoded.Error
	}
	trimmed := strings.TrimSpace(string(body))
	if len(trimmed) > 200 {
		trimmed = trimmed[:200]
	}
	return trimmed
}
