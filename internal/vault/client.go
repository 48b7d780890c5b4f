// Package vault implements the object store layer: primitive get/put/list
// against the storage JSON API, project-level save/load/install built on
// top of them, and the shared world registry merge.
package vault

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"veopm/internal/config"
	"veopm/internal/services"
	"veopm/internal/vault/auth"
)

// TokenSource supplies bearer tokens for vault calls.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// MinterSource mints a fresh token per call; nothing is cached.
type MinterSource struct {
	Minter *auth.Minter
}

func (s MinterSource) Token(ctx context.Context) (string, error) {
	token, err := s.Minter.Mint(ctx)
	if err != nil {
		return "", err
	}
	return token.AccessToken, nil
}

// StaticTokenSource returns a fixed token (useful for tests).
type StaticTokenSource string

func (s StaticTokenSource) Token(context.Context) (string, error) {
	return string(s), nil
}

// Client performs object operations against one bucket.
type Client struct {
	bucket     string
	apiBase    string
	uploadBase string
	publicBase string
	httpClient *http.Client
	tokens     TokenSource
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithPublicBase overrides the base used to build public object URLs.
func WithPublicBase(base string) Option {
	return func(c *Client) {
		c.publicBase = strings.TrimRight(base, "/")
	}
}

// NewClient constructs a vault client from the configuration section.
func NewClient(cfg config.Vault, tokens TokenSource, opts ...Option) *Client {
	client := &Client{
		bucket:     cfg.Bucket,
		apiBase:    strings.TrimRight(cfg.APIBase, "/"),
		uploadBase: strings.TrimRight(cfg.UploadBase, "/"),
		publicBase: "https://storage.googleapis.com",
		httpClient: &http.Client{},
		tokens:     tokens,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Get downloads an object. The second return reports presence: an absent
// object is not an error.
func (c *Client) Get(ctx context.Context, path string) ([]byte, bool, error) {
	endpoint := fmt.Sprintf("%s/%s/o/%s?alt=media", c.apiBase, c.bucket, url.QueryEscape(path))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, false, services.Wrap(services.ErrVaultTransport, "vault", "get", path, err)
	}
	if err := c.authorize(ctx, req); err != nil {
		return nil, false, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, false, services.Wrap(services.ErrVaultTransport, "vault", "get", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, false, nil
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, services.Wrap(services.ErrVaultTransport, "vault", "get", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, false, transportError("get", path, resp.StatusCode, body)
	}
	return body, true, nil
}

// Put uploads raw bytes and returns the object's public URL.
func (c *Client) Put(ctx context.Context, path string, data []byte, mimeType string) (string, error) {
	endpoint := fmt.Sprintf("%s/%s/o?uploadType=media&name=%s", c.uploadBase, c.bucket, url.QueryEscape(path))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return "", services.Wrap(services.ErrVaultTransport, "vault", "put", path, err)
	}
	req.Header.Set("Content-Type", mimeType)
	if err := c.authorize(ctx, req); err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrVaultTransport, "vault", "put", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", services.Wrap(services.ErrVaultTransport, "vault", "put", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", transportError("put", path, resp.StatusCode, body)
	}
	return c.PublicURL(path), nil
}

// PutJSON serializes a value and uploads it as application/json.
func (c *Client) PutJSON(ctx context.Context, path string, value any) (string, error) {
	encoded, err := json.Marshal(value)
	if err != nil {
		return "", services.Wrap(services.ErrVaultTransport, "vault", "put", "encode "+path, err)
	}
	return c.Put(ctx, path, encoded, "application/json")
}

// PutBase64 decodes a base64 payload and uploads the raw bytes.
func (c *Client) PutBase64(ctx context.Context, path, encoded, mimeType string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "vault", "put", "invalid base64 payload for "+path, err)
	}
	return c.Put(ctx, path, data, mimeType)
}

// List returns the child names directly under a prefix.
func (c *Client) List(ctx context.Context, prefix string) ([]string, error) {
	endpoint := fmt.Sprintf("%s/%s/o?prefix=%s&delimiter=%s",
		c.apiBase, c.bucket, url.QueryEscape(prefix), url.QueryEscape("/"))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrVaultTransport, "vault", "list", prefix, err)
	}
	if err := c.authorize(ctx, req); err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrVaultTransport, "vault", "list", prefix, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, services.Wrap(services.ErrVaultTransport, "vault", "list", prefix, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, transportError("list", prefix, resp.StatusCode, body)
	}

	var decoded struct {
		Prefixes []string `json:"prefixes"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, services.Wrap(services.ErrVaultTransport, "vault", "list", "decode listing", err)
	}

	names := make([]string, 0, len(decoded.Prefixes))
	for _, p := range decoded.Prefixes {
		name := strings.TrimSuffix(strings.TrimPrefix(p, prefix), "/")
		if name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

// PublicURL returns the unauthenticated URL for an object path.
func (c *Client) PublicURL(path string) string {
	return fmt.Sprintf("%s/%s/%s", c.publicBase, c.bucket, path)
}

func (c *Client) authorize(ctx context.Context, req *http.Request) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return nil
}

func transportError(operation, path string, status int, body []byte) error {
	var decoded struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	detail := strings.TrimSpace(string(body))
	if err := json.Unmarshal(body, &decoded); err == nil && decoded.Error.Message != "" {
		detail = decoded.Error.Message
	}
	if len(detail) > 200 {
		detail = detail[:200]
	}
	message := fmt.Sprintf("%s: status %d", path, status)
	if detail != "" {
		message += ": " + detail
	}
	return services.Wrap(services.ErrVaultTransport, "vault", operation, message, nil)
}
