// Package backend provides the HTTP client for the enrollment backend.
//
// A successful registration is two sequential calls: create the user, then
// create a course order carrying the returned user id. An order is never
// created without a prior successful user creation.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/promibe/poshbot/internal/models"
)

// DefaultTimeout bounds each backend call so a stalled network never hangs
// the session indefinitely.
const DefaultTimeout = 10 * time.Second

// ErrUnreachable marks failures where the request never reached the server,
// as opposed to a server-side rejection.
var ErrUnreachable = errors.New("backend unreachable")

// StatusError is a server-side rejection: the request arrived but the
// backend answered with a non-2xx status.
type StatusError struct {
	StatusCode int
	Detail     string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("backend rejected request: %d %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("backend rejected request: status %d", e.StatusCode)
}

// Client talks to the enrollment backend API.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// WithHTTPClient substitutes the underlying HTTP client (used in tests).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// NewClient creates a backend client for the given base URL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	slog.Debug("Created backend client", "base_url", c.baseURL)
	return c
}

// CreateUser posts a normalized profile to the backend and returns the new
// user id.
func (c *Client) CreateUser(ctx context.Context, profile models.NormalizedProfile) (int64, error) {
	req := models.CreateUserRequest{
		Name:          profile.Name,
		DOB:           profile.DOB.Format("2006-01-02"),
		Qualification: profile.Qualification,
		PhoneNumber:   profile.PhoneNumber,
		Email:         profile.Email,
	}
	var resp models.CreateUserResponse
	if err := c.post(ctx, "/users", req, &resp); err != nil {
		slog.Error("Backend CreateUser failed", "error", err)
		return 0, fmt.Errorf("create user: %w", err)
	}
	slog.Info("Backend CreateUser succeeded", "user_id", resp.UserID)
	return resp.UserID, nil
}

// CreateOrder posts a course order for an existing user and returns the new
// order id. The user id must come from a successful CreateUser call.
func (c *Client) CreateOrder(ctx context.Context, userID int64, courseName string) (int64, error) {
	req := models.CreateOrderRequest{UserID: userID, OrderDetails: courseName}
	var resp models.CreateOrderResponse
	if err := c.post(ctx, "/orders", req, &resp); err != nil {
		slog.Error("Backend CreateOrder failed", "error", err, "user_id", userID)
		return 0, fmt.Errorf("create order: %w", err)
	}
	slog.Info("Backend CreateOrder succeeded", "order_id", resp.OrderID, "user_id", userID)
	return resp.OrderID, nil
}

// post sends a JSON payload, distinguishing transport failures (wrapped
// ErrUnreachable) from server rejections (*StatusError), and decodes a 2xx
// response body into out.
func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail := readErrorDetail(resp.Body)
		return &StatusError{StatusCode: resp.StatusCode, Detail: detail}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// readErrorDetail extracts the detail message from an error body, falling
// back to the raw text when it is not the expected JSON shape.
func readErrorDetail(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil {
		return ""
	}
	var er models.ErrorResponse
	if err := json.Unmarshal(raw, &er); err == nil && er.Detail != "" {
		return er.Detail
	}
	return strings.TrimSpace(string(raw))
}
