// Package authapi is the REST client for the external authentication
// service. It knows the wire shapes and status-code mapping and nothing
// about client state; internal/auth owns what happens with the results.
package authapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/hlms/hlms-client/internal/models"
	"github.com/hlms/hlms-client/pkg/httpclient"
	"github.com/hlms/hlms-client/pkg/logger"
	"go.uber.org/zap"
)

var (
	// ErrInvalidCredentials maps a 401 from the login endpoint.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrDuplicateEmail maps a 409 from the register endpoint.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrServer maps any other non-success response.
	ErrServer = errors.New("auth service error")
	// ErrNetwork maps transport-level failures.
	ErrNetwork = errors.New("network error")
)

// Client talks to the auth service described in the deployment config.
type Client struct {
	baseURL string
	http    httpclient.Client
}

// NewClient creates an auth API client rooted at baseURL.
func NewClient(baseURL string, http httpclient.Client) *Client {
	return &Client{baseURL: baseURL, http: http}
}

// Login exchanges credentials for a user and token via POST /auth/login.
func (c *Client) Login(ctx context.Context, email, password string) (*models.AuthPayload, error) {
	req := models.LoginRequest{Email: email, Password: password}
	return c.postForPayload(ctx, "/auth/login", req, "", func(status int) error {
		if status == http.StatusUnauthorized {
			return ErrInvalidCredentials
		}
		return fmt.Errorf("%w: unexpected status %d", ErrServer, status)
	})
}

// Register creates an account via POST /auth/register.
func (c *Client) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthPayload, error) {
	return c.postForPayload(ctx, "/auth/register", req, "", func(status int) error {
		if status == http.StatusConflict {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("%w: unexpected status %d", ErrServer, status)
	})
}

// Logout invalidates the token server-side via POST /auth/logout.
// The session is torn down locally regardless of the outcome here.
func (c *Client) Logout(ctx context.Context, token string) error {
	resp, err := c.post(ctx, "/auth/logout", nil, token)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: unexpected status %d", ErrServer, resp.StatusCode)
	}
	return nil
}

func (c *Client) postForPayload(ctx context.Context, path string, body interface{}, token string, mapStatus func(int) error) (*models.AuthPayload, error) {
	resp, err := c.post(ctx, path, body, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.Warn("Auth service rejected request",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode))
		return nil, mapStatus(resp.StatusCode)
	}

	var payload models.AuthPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: malformed response body: %v", ErrServer, err)
	}
	if payload.Token == "" || payload.User == nil {
		return nil, fmt.Errorf("%w: incomplete auth payload", ErrServer)
	}
	return &payload, nil
}

func (c *Client) post(ctx context.Context, path string, body interface{}, token string) (*http.Response, error) {
	var buf io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		buf = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return c.http.Do(req)
}

func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 4096))
	_ = body.Close()
}
