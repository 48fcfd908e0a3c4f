// Package client is the Go consumer of the auth service. It keeps the
// current token pair in a Session and makes refresh transparent: any call
// made through the client retries once with a fresh access token when the
// backend answers 401.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotAuthenticated = errors.New("not authenticated")

	errNotReplayable = errors.New("request body can not be replayed")
)

// APIError is a non-2xx response decoded from the service error shape
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d message=%q", e.StatusCode, e.Message)
}

// TokenPair mirrors the json the auth endpoints return
type TokenPair struct {
	AccessToken            string    `json:"accessToken"`
	AccessTokenExpiration  time.Time `json:"accessTokenExpiration"`
	RefreshToken           string    `json:"refreshToken"`
	RefreshTokenExpiration time.Time `json:"refreshTokenExpiration"`
}

type Profile struct {
	ID          uuid.UUID  `json:"id"`
	UserName    string     `json:"userName"`
	Email       string     `json:"email"`
	Roles       []string   `json:"roles"`
	LastLoginAt *time.Time `json:"lastLoginAt"`
}

type SessionInfo struct {
	CreatedAt       time.Time  `json:"createdAt"`
	ExpiresAt       time.Time  `json:"expiresAt"`
	RevokedAt       *time.Time `json:"revokedAt"`
	Rotated         bool       `json:"rotated"`
	RemoteIPAddress string     `json:"remoteIpAddress"`
	Active          bool       `json:"active"`
}

type Client struct {
	baseURL string
	session *Session

	// http goes through authTransport: bearer decoration plus the single
	// refresh-and-retry cycle
	http *http.Client

	// plain skips the interceptor. The auth endpoints themselves must not
	// trigger recursive refresh attempts
	plain *http.Client
}

func New(baseURL string) *Client {
	session := NewSession()

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		session: session,
		plain:   &http.Client{},
	}
	c.http = &http.Client{
		Transport: &authTransport{
			base:      http.DefaultTransport,
			session:   session,
			refresher: c,
		},
	}

	return c
}

// Session exposes the token holder, mostly to Subscribe on the
// authenticated flag
func (c *Client) Session() *Session {
	return c.session
}

func (c *Client) Register(ctx context.Context, userName string, email string, password string) error {
	body := map[string]string{"userName": userName, "email": email, "password": password}
	return c.postJSON(ctx, c.plain, "/api/auth/register", body, nil)
}

// Login stores the issued pair on success and flips the session to
// authenticated
func (c *Client) Login(ctx context.Context, userName string, password string) error {
	body := map[string]string{"userName": userName, "password": password}

	var pair TokenPair
	if err := c.postJSON(ctx, c.plain, "/api/auth/login", body, &pair); err != nil {
		return err
	}

	c.storePair(pair)
	return nil
}

// Refresh exchanges the stored refresh token for a new pair.
// Fails with ErrNotAuthenticated if there is nothing to exchange
func (c *Client) Refresh(ctx context.Context) error {
	refresh := c.session.RefreshToken()
	if refresh == "" {
		return ErrNotAuthenticated
	}

	var pair TokenPair
	err := c.postJSON(ctx, c.plain, "/api/auth/refresh", map[string]string{"refreshToken": refresh}, &pair)
	if err != nil {
		return err
	}

	c.storePair(pair)
	return nil
}

// Logout clears the local session first and only then asks the server to
// revoke the refresh token. A failed revoke never resurrects the session:
// local state always wins
func (c *Client) Logout(ctx context.Context) {
	refresh := c.session.RefreshToken()
	c.session.Clear()

	if refresh == "" {
		return
	}

	// Best effort, the outcome is deliberately ignored
	_ = c.postJSON(ctx, c.plain, "/api/auth/revoke", map[string]string{"refreshToken": refresh}, nil)
}

func (c *Client) Profile(ctx context.Context) (Profile, error) {
	var profile Profile
	err := c.getJSON(ctx, "/api/auth/profile", &profile)
	return profile, err
}

func (c *Client) Sessions(ctx context.Context) ([]SessionInfo, error) {
	var sessions []SessionInfo
	err := c.getJSON(ctx, "/api/auth/sessions", &sessions)
	return sessions, err
}

func (c *Client) storePair(pair TokenPair) {
	c.session.SetPair(pair.AccessToken, pair.AccessTokenExpiration, pair.RefreshToken, pair.RefreshTokenExpiration)
}

func (c *Client) postJSON(ctx context.Context, httpClient *http.Client, path string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("error while encoding request. Err: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(httpClient, req, out)
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}

	return c.do(c.http, req, out)
}

func (c *Client) do(httpClient *http.Client, req *http.Request, out any) error {
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close() // nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("error while decoding response. Err: %w", err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	var errResp struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil {
		apiErr.Message = errResp.Message
	}

	return apiErr
}
