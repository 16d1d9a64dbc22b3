package mcp

import (
	"context"
	"errors"
	"net/http"

	"github.com/claude/replog/internal/client"
	"github.com/claude/replog/internal/models"
	"github.com/claude/replog/internal/storage"
	"github.com/google/uuid"
)

// HTTPClient implements DataSource by calling the RepLog REST API.
// Used for stdio MCP mode where the binary runs locally and data lives on
// the server. The API scopes every call to the client's token, so the
// userID arguments are ignored.
type HTTPClient struct {
	api *client.Client
}

// Compile-time check: HTTPClient satisfies DataSource.
var _ DataSource = (*HTTPClient)(nil)

// NewHTTPClient wraps an authenticated API client.
func NewHTTPClient(api *client.Client) *HTTPClient {
	return &HTTPClient{api: api}
}

func (c *HTTPClient) ListPrograms(ctx context.Context, _ uuid.UUID) ([]models.Program, error) {
	return c.api.ListPrograms(ctx)
}

func (c *HTTPClient) GetProgram(ctx context.Context, id, _ uuid.UUID) (*models.Program, error) {
	p, err := c.api.GetProgram(ctx, id)
	if client.IsStatus(err, http.StatusNotFound) {
		return nil, errors.Join(err, storage.ErrNotFound)
	}
	return p, err
}

func (c *HTTPClient) ListWorkouts(ctx context.Context, _ uuid.UUID, f models.WorkoutFilter) ([]models.Workout, error) {
	return c.api.ListWorkouts(ctx, f)
}

func (c *HTTPClient) QueryExerciseHistory(ctx context.Context, _ uuid.UUID, exercise string, limit int) ([]models.ExerciseSet, error) {
	return c.api.ExerciseHistory(ctx, exercise, limit)
}
