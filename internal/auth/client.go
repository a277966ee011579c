package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

const (
	defaultTimeout                  = 10 * time.Second
	defaultInvalidCredentials       = "Invalid credentials."
	responseBodyReadLimit     int64 = 4096
)

// Backend authenticates a username and password pair.
type Backend interface {
	Login(ctx context.Context, username, password string) (*User, string, error)
}

// Client calls the REST login endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	tokenTTL   time.Duration
}

type ClientOption func(*Client)

func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTokenTTL asks the backend for credentials valid for ttl.
func WithTokenTTL(ttl time.Duration) ClientOption {
	return func(c *Client) {
		c.tokenTTL = ttl
	}
}

func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, fmt.Errorf("auth base url is required")
	}
	if _, err := url.ParseRequestURI(trimmed); err != nil {
		return nil, fmt.Errorf("invalid auth base url: %w", err)
	}
	client := &Client{
		baseURL:    trimmed,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

type loginRequest struct {
	Username      string `json:"username"`
	Password      string `json:"password"`
	ExpiresInMins int    `json:"expiresInMins,omitempty"`
}

type loginResponse struct {
	User
	AccessToken string `json:"accessToken"`
	Token       string `json:"token"`
	Message     string `json:"message"`
}

// Login implements Backend. Rejected credentials map to UNAUTHORIZED.
func (c *Client) Login(ctx context.Context, username, password string) (*User, string, error) {
	if c == nil {
		return nil, "", pkgerrors.New(pkgerrors.CodeDependency, "auth client not configured")
	}
	payload, err := json.Marshal(loginRequest{
		Username:      username,
		Password:      password,
		ExpiresInMins: int(c.tokenTTL / time.Minute),
	})
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode login request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/login", bytes.NewReader(payload))
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build login request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute login request")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read login response")
	}

	var decoded loginResponse
	decodeErr := json.Unmarshal(body, &decoded)

	switch {
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized:
		msg := strings.TrimSpace(decoded.Message)
		if decodeErr != nil || msg == "" {
			msg = defaultInvalidCredentials
		}
		return nil, "", pkgerrors.New(pkgerrors.CodeUnauthorized, msg)
	case resp.StatusCode != http.StatusOK:
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), "login request failed")
	case decodeErr != nil:
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, decodeErr, "decode login response")
	}

	token := decoded.AccessToken
	if token == "" {
		token = decoded.Token
	}
	if token == "" || decoded.ID == 0 {
		return nil, "", pkgerrors.New(pkgerrors.CodeDependency, "login response missing identity or credential")
	}
	user := decoded.User
	return &user, token, nil
}
