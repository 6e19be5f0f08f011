// Package client is the terminal-side counterpart of the HTTP API: a typed
// client, the on-disk session and the commands cmd/portal runs.
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

	"github.com/geocoder89/authportal/internal/domain/user"
)

const DefaultBaseURL = "http://localhost:5000/api"

// APIError is a non-2xx answer. Message is the server's message verbatim.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.Status)
	}
	return e.Message
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

type AuthResponse struct {
	Message string    `json:"message"`
	Token   string    `json:"token"`
	User    user.View `json:"user"`
}

type verifyResponse struct {
	Valid bool      `json:"valid"`
	User  user.View `json:"user"`
}

type updateResponse struct {
	Message string    `json:"message"`
	User    user.View `json:"user"`
}

type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

func New(baseURL string, hc *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

// WithToken returns a copy of c that sends token as a bearer credential.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

func (c *Client) SignUp(ctx context.Context, fullName, email, password, confirm string) (AuthResponse, error) {
	var out AuthResponse
	err := c.do(ctx, http.MethodPost, "/auth/signup", map[string]string{
		"fullName":        fullName,
		"email":           email,
		"password":        password,
		"confirmPassword": confirm,
	}, &out)
	return out, err
}

func (c *Client) SignIn(ctx context.Context, email, password string) (AuthResponse, error) {
	var out AuthResponse
	err := c.do(ctx, http.MethodPost, "/auth/signin", map[string]string{
		"email":    email,
		"password": password,
	}, &out)
	return out, err
}

func (c *Client) Verify(ctx context.Context) (user.View, error) {
	var out verifyResponse
	if err := c.do(ctx, http.MethodGet, "/auth/verify", nil, &out); err != nil {
		return user.View{}, err
	}
	return out.User, nil
}

func (c *Client) Profile(ctx context.Context) (user.View, error) {
	var out user.View
	err := c.do(ctx, http.MethodGet, "/profile", nil, &out)
	return out, err
}

// UpdateProfile sends fields as the PUT body. Keys left out are untouched
// server side.
func (c *Client) UpdateProfile(ctx context.Context, fields map[string]any) (string, user.View, error) {
	var out updateResponse
	if err := c.do(ctx, http.MethodPut, "/profile", fields, &out); err != nil {
		return "", user.View{}, err
	}
	return out.Message, out.User, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var payload struct {
			Message string `json:"message"`
			Code    string `json:"code"`
		}
		if json.Unmarshal(raw, &payload) == nil {
			apiErr.Message = payload.Message
			apiErr.Code = payload.Code
		}
		return apiErr
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
