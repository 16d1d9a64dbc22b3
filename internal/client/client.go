// Package client is a typed client for the RepLog REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/claude/replog/internal/models"
	"github.com/google/uuid"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.Status == status
}

// LoginResult is the answer to a successful login.
type LoginResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

// ShareResult is the answer to a successful share.
type ShareResult struct {
	Success       bool            `json:"success"`
	Message       string          `json:"message"`
	SharedProgram *models.Program `json:"shared_program"`
}

// Client talks to a RepLog server over HTTP.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// New creates a client for the server at baseURL.
func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// SetToken sets the bearer token sent with every request.
func (c *Client) SetToken(token string) {
	c.token = token
}

// Token returns the current bearer token.
func (c *Client) Token() string {
	return c.token
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, body, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var rdr io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("client: marshal %s: %w", path, err)
		}
		rdr = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, rdr)
	if err != nil {
		return fmt.Errorf("client: create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("client: %s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("client: read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		msg := strings.TrimSpace(string(data))
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("client: decode %s: %w", path, err)
	}
	return nil
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, in models.RegisterInput) (*models.User, error) {
	var u models.User
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/register", nil, in, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Login authenticates and stores the returned token on the client.
func (c *Client) Login(ctx context.Context, in models.LoginInput) (*LoginResult, error) {
	var res LoginResult
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/login", nil, in, &res); err != nil {
		return nil, err
	}
	c.token = res.Token
	return &res, nil
}

// Me returns the authenticated user.
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var u models.User
	if err := c.do(ctx, http.MethodGet, "/api/v1/me", nil, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) ListPrograms(ctx context.Context) ([]models.Program, error) {
	var ps []models.Program
	if err := c.do(ctx, http.MethodGet, "/api/v1/programs", nil, nil, &ps); err != nil {
		return nil, err
	}
	return ps, nil
}

func (c *Client) GetProgram(ctx context.Context, id uuid.UUID) (*models.Program, error) {
	var p models.Program
	if err := c.do(ctx, http.MethodGet, "/api/v1/programs/"+id.String(), nil, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) CreateProgram(ctx context.Context, in models.ProgramInput) (*models.Program, error) {
	var p models.Program
	if err := c.do(ctx, http.MethodPost, "/api/v1/programs", nil, in, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) UpdateProgram(ctx context.Context, id uuid.UUID, in models.ProgramInput) (*models.Program, error) {
	var p models.Program
	if err := c.do(ctx, http.MethodPut, "/api/v1/programs/"+id.String(), nil, in, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) DeleteProgram(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/programs/"+id.String(), nil, nil, nil)
}

// ShareProgram copies a program into the account registered under email.
func (c *Client) ShareProgram(ctx context.Context, id uuid.UUID, email string) (*ShareResult, error) {
	var res ShareResult
	body := map[string]string{"email": email}
	if err := c.do(ctx, http.MethodPost, "/api/v1/programs/"+id.String()+"/share", nil, body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) ListWorkouts(ctx context.Context, f models.WorkoutFilter) ([]models.Workout, error) {
	params := url.Values{}
	if f.ProgramID != nil {
		params.Set("program_id", f.ProgramID.String())
	}
	if f.Completed != nil {
		params.Set("completed", strconv.FormatBool(*f.Completed))
	}
	if f.Limit > 0 {
		params.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.Offset > 0 {
		params.Set("offset", strconv.Itoa(f.Offset))
	}

	var ws []models.Workout
	if err := c.do(ctx, http.MethodGet, "/api/v1/workouts", params, nil, &ws); err != nil {
		return nil, err
	}
	return ws, nil
}

func (c *Client) GetWorkout(ctx context.Context, id uuid.UUID) (*models.Workout, error) {
	var w models.Workout
	if err := c.do(ctx, http.MethodGet, "/api/v1/workouts/"+id.String(), nil, nil, &w); err != nil {
		return nil, err
	}
	return &w, nil
}

// CreateWorkout persists a workout and its sets in one request.
func (c *Client) CreateWorkout(ctx context.Context, in models.WorkoutInput) (*models.Workout, error) {
	var w models.Workout
	if err := c.do(ctx, http.MethodPost, "/api/v1/workouts", nil, in, &w); err != nil {
		return nil, err
	}
	return &w, nil
}

// LatestCompletedWorkout returns the most recent completed workout of a
// program, or nil when there is none.
func (c *Client) LatestCompletedWorkout(ctx context.Context, programID uuid.UUID) (*models.Workout, error) {
	completed := true
	ws, err := c.ListWorkouts(ctx, models.WorkoutFilter{ProgramID: &programID, Completed: &completed, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(ws) == 0 {
		return nil, nil
	}
	return &ws[0], nil
}

// ExerciseHistory returns logged sets whose exercise name contains name.
func (c *Client) ExerciseHistory(ctx context.Context, name string, limit int) ([]models.ExerciseSet, error) {
	params := url.Values{}
	params.Set("name", name)
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	var sets []models.ExerciseSet
	if err := c.do(ctx, http.MethodGet, "/api/v1/exercises/history", params, nil, &sets); err != nil {
		return nil, err
	}
	return sets, nil
}
