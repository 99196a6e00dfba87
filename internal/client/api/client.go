// Package api is a typed client of the Michi backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"michi/internal/models"
)

// DefaultTimeout bounds every backend request.
const DefaultTimeout = 30 * time.Second

// Error is a non-2xx backend response
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned %d", e.Status)
	}
	return e.Message
}

// IsUnauthorized reports whether err is a 401 from the backend
func IsUnauthorized(err error) bool {
	return StatusOf(err) == http.StatusUnauthorized
}

// StatusOf returns the HTTP status carried by err, or 0
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// LoginResult is the body of a successful login
type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// RobotUpdate is an administrator robot patch; nil fields are left unchanged
type RobotUpdate struct {
	RobotName    *string   `json:"robotName,omitempty"`
	OwnerUserIDs *[]string `json:"ownerUserIds,omitempty"`
}

// UserUpdate is an administrator user patch; nil fields are left unchanged
type UserUpdate struct {
	UserName *string `json:"userName,omitempty"`
	Password *string `json:"password,omitempty"`
}

// Health is the backend health report
type Health struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// Client talks to the backend on behalf of one session
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a client for baseURL. A non-positive timeout uses DefaultTimeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// WithToken returns a copy of the client that sends token as a bearer credential
func (c *Client) WithToken(token string) *Client {
	clone := *c
	clone.token = token
	return &clone
}

// Token returns the bearer token the client sends
func (c *Client) Token() string {
	return c.token
}

// Register creates an account
func (c *Client) Register(ctx context.Context, userName, password string) error {
	body := map[string]string{"userName": userName, "password": password}
	return c.do(ctx, http.MethodPost, "/register", body, nil)
}

// Login exchanges credentials for a bearer token
func (c *Client) Login(ctx context.Context, userName, password string) (*LoginResult, error) {
	body := map[string]string{"username": userName, "password": password}
	var result LoginResult
	if err := c.do(ctx, http.MethodPost, "/login", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Me returns the caller's profile
func (c *Client) Me(ctx context.Context) (*models.UserResponse, error) {
	var out struct {
		User models.UserResponse `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/me", nil, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// Health checks backend liveness
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var out Health
	if err := c.do(ctx, http.MethodGet, "/health", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MyRobots lists robots owned by the caller
func (c *Client) MyRobots(ctx context.Context) ([]models.Robot, error) {
	var out []models.Robot
	if err := c.do(ctx, http.MethodGet, "/robots/mine", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ClaimRobot adds the caller to the owners of robotID
func (c *Client) ClaimRobot(ctx context.Context, robotID string) (*models.Robot, error) {
	var out models.Robot
	body := map[string]string{"robotId": robotID}
	if err := c.do(ctx, http.MethodPost, "/robots/claim", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RenameRobot changes the display name of an owned robot
func (c *Client) RenameRobot(ctx context.Context, id, name string) (*models.Robot, error) {
	var out models.Robot
	body := map[string]string{"robotName": name}
	if err := c.do(ctx, http.MethodPut, "/robots/"+url.PathEscape(id)+"/name", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ReleaseRobot removes the caller from a robot's owners
func (c *Client) ReleaseRobot(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/robots/"+url.PathEscape(id)+"/ownership", nil, nil)
}

// ListRobots lists every robot (administrator)
func (c *Client) ListRobots(ctx context.Context) ([]models.Robot, error) {
	var out []models.Robot
	if err := c.do(ctx, http.MethodGet, "/admin/robots", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateRobot registers a robot (administrator)
func (c *Client) CreateRobot(ctx context.Context, robotID, robotName string) (*models.Robot, error) {
	var out models.Robot
	body := map[string]string{"robotId": robotID, "robotName": robotName}
	if err := c.do(ctx, http.MethodPost, "/admin/robots", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateRobot patches a robot (administrator)
func (c *Client) UpdateRobot(ctx context.Context, id string, update RobotUpdate) (*models.Robot, error) {
	var out models.Robot
	if err := c.do(ctx, http.MethodPut, "/admin/robots/"+url.PathEscape(id), update, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteRobot removes a robot (administrator)
func (c *Client) DeleteRobot(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/admin/robots/"+url.PathEscape(id), nil, nil)
}

// ListUsers lists every account (administrator)
func (c *Client) ListUsers(ctx context.Context) ([]models.UserResponse, error) {
	var out []models.UserResponse
	if err := c.do(ctx, http.MethodGet, "/admin/users", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateUser adds an account (administrator)
func (c *Client) CreateUser(ctx context.Context, userName, password string) (*models.UserResponse, error) {
	var out models.UserResponse
	body := map[string]string{"userName": userName, "password": password}
	if err := c.do(ctx, http.MethodPost, "/admin/users", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateUser patches an account (administrator)
func (c *Client) UpdateUser(ctx context.Context, id string, update UserUpdate) (*models.UserResponse, error) {
	var out models.UserResponse
	if err := c.do(ctx, http.MethodPut, "/admin/users/"+url.PathEscape(id), update, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteUser removes an account (administrator)
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/admin/users/"+url.PathEscape(id), nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &Error{Status: resp.StatusCode}
		var msg struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(data, &msg) == nil {
			apiErr.Message = msg.Message
		}
		return apiErr
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
