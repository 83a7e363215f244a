// Package remoteapi authenticates portal logins against the remote exam
// content API.
package remoteapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	apperrors "github.com/louisbranch/ieltsportal/internal/platform/errors"
	"github.com/louisbranch/ieltsportal/internal/services/portal/authz"
	"github.com/louisbranch/ieltsportal/internal/services/portal/session"
)

const loginPath = "/auth/login"

// LoginResponse mirrors the remote login JSON response.
type LoginResponse struct {
	Token string      `json:"token"`
	User  *RemoteUser `json:"user"`
}

// RemoteUser is the user object returned by the remote API.
type RemoteUser struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	IsActive  bool   `json:"isActive"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// Client calls the remote API.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a client for baseURL. A nil client uses
// http.DefaultClient.
func NewClient(baseURL string, client *http.Client) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("remote api url is required")
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Client{baseURL: baseURL, client: client}, nil
}

// Login posts credentials to the remote login endpoint.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResponse, error) {
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return LoginResponse{}, fmt.Errorf("encode login request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+loginPath, bytes.NewReader(body))
	if err != nil {
		return LoginResponse{}, fmt.Errorf("build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return LoginResponse{}, apperrors.Wrap(apperrors.CodeRemoteUnavailable, "remote api is unavailable", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden,
		resp.StatusCode == http.StatusBadRequest, resp.StatusCode == http.StatusNotFound:
		return LoginResponse{}, withDetail(session.ErrInvalidCredentials, resp.Body)
	case resp.StatusCode != http.StatusOK:
		return LoginResponse{}, apperrors.New(apperrors.CodeRemoteUnavailable, "remote login returned "+resp.Status)
	}

	var result LoginResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return LoginResponse{}, apperrors.Wrap(apperrors.CodeRemoteUnavailable, "decode login response", err)
	}
	if strings.TrimSpace(result.Token) == "" {
		return LoginResponse{}, apperrors.New(apperrors.CodeRemoteUnavailable, "login succeeded without an auth token")
	}
	if result.User == nil {
		return LoginResponse{}, apperrors.New(apperrors.CodeRemoteUnavailable, "login succeeded without a user")
	}
	return result, nil
}

// Authenticate implements session.Authenticator. The remote role label is
// passed through unchanged for the manager to normalize.
func (c *Client) Authenticate(ctx context.Context, email, password string) (session.Principal, error) {
	result, err := c.Login(ctx, email, password)
	if err != nil {
		return session.Principal{}, err
	}
	user := result.User
	return session.Principal{
		ID:          user.ID,
		DisplayName: strings.TrimSpace(user.FirstName + " " + user.LastName),
		Email:       user.Email,
		Role:        authz.Role(user.Role),
		Active:      user.IsActive,
	}, nil
}

var _ session.Authenticator = (*Client)(nil)

// withDetail attaches the remote "detail" message when the body carries one.
func withDetail(base *apperrors.Error, body io.Reader) error {
	var payload errorResponse
	if err := json.NewDecoder(io.LimitReader(body, 1<<16)).Decode(&payload); err != nil || payload.Detail == "" {
		return base
	}
	return apperrors.WithMetadata(base.Code, base.Message, map[string]string{"detail": payload.Detail})
}
