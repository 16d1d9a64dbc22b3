package mcp

import (
	"context"

	"github.com/claude/replog/internal/models"
	"github.com/claude/replog/internal/storage"
	"github.com/google/uuid"
)

// DataSource abstracts the data layer for MCP tools. Both *storage.DB (local)
// and HTTPClient (remote via REST API) satisfy this interface.
type DataSource interface {
	ListPrograms(ctx context.Context, userID uuid.UUID) ([]models.Program, error)
	GetProgram(ctx context.Context, id, userID uuid.UUID) (*models.Program, error)
	ListWorkouts(ctx context.Context, userID uuid.UUID, f models.WorkoutFilter) ([]models.Workout, error)
	QueryExerciseHistory(ctx context.Context, userID uuid.UUID, exercise string, limit int) ([]models.ExerciseSet, error)
}

// Compile-time check: *storage.DB satisfies DataSource.
var _ DataSource = (*storage.DB)(nil)
