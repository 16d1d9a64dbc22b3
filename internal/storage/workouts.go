package storage

import (
	"context"
	"fmt"

	"github.com/claude/replog/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const defaultWorkoutLimit = 50

// CreateWorkout inserts a workout and all of its sets in one transaction.
// The referenced program must belong to the user, otherwise ErrNotFound.
func (db *DB) CreateWorkout(ctx context.Context, userID uuid.UUID, in models.WorkoutInput) (*models.Workout, error) {
	w := models.Workout{
		ID:          uuid.New(),
		UserID:      userID,
		ProgramID:   in.ProgramID,
		Notes:       in.Notes,
		Completed:   in.IsCompleted(),
		DurationSec: in.DurationSec,
		Sets:        in.ToSets(),
	}

	err := pgx.BeginFunc(ctx, db.Pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`SELECT name FROM programs WHERE id = $1 AND user_id = $2`,
			in.ProgramID, userID).Scan(&w.ProgramName)
		if err != nil {
			return fmt.Errorf("checking program: %w", notFound(err))
		}

		err = tx.QueryRow(ctx,
			`INSERT INTO workouts (id, user_id, program_id, notes, completed, duration_sec)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 RETURNING date`,
			w.ID, w.UserID, w.ProgramID, w.Notes, w.Completed, w.DurationSec,
		).Scan(&w.Date)
		if err != nil {
			return fmt.Errorf("inserting workout: %w", err)
		}

		return insertWorkoutSets(ctx, tx, w.ID, w.Sets)
	})
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// ListWorkouts returns a user's workouts, newest first, with their sets.
func (db *DB) ListWorkouts(ctx context.Context, userID uuid.UUID, f models.WorkoutFilter) ([]models.Workout, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = defaultWorkoutLimit
	}
	offset := max(f.Offset, 0)

	rows, err := db.Pool.Query(ctx,
		`SELECT w.id, w.user_id, w.program_id, p.name, w.date, w.notes, w.completed, w.duration_sec
		 FROM workouts w
		 JOIN programs p ON p.id = w.program_id
		 WHERE w.user_id = $1
		   AND ($2::uuid IS NULL OR w.program_id = $2)
		   AND ($3::boolean IS NULL OR w.completed = $3)
		 ORDER BY w.date DESC
		 LIMIT $4 OFFSET $5`,
		userID, f.ProgramID, f.Completed, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("querying workouts: %w", err)
	}
	defer rows.Close()

	workouts, err := scanWorkoutRows(rows)
	if err != nil {
		return nil, err
	}
	if len(workouts) == 0 {
		return []models.Workout{}, nil
	}

	ids := make([]uuid.UUID, len(workouts))
	for i, w := range workouts {
		ids[i] = w.ID
	}
	sets, err := db.setsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range workouts {
		workouts[i].Sets = sets[workouts[i].ID]
	}
	return workouts, nil
}

// GetWorkout retrieves a single workout of the user's, with its sets.
func (db *DB) GetWorkout(ctx context.Context, workoutID, userID uuid.UUID) (*models.Workout, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT w.id, w.user_id, w.program_id, p.name, w.date, w.notes, w.completed, w.duration_sec
		 FROM workouts w
		 JOIN programs p ON p.id = w.program_id
		 WHERE w.id = $1 AND w.user_id = $2`,
		workoutID, userID)

	var w models.Workout
	err := row.Scan(&w.ID, &w.UserID, &w.ProgramID, &w.ProgramName, &w.Date, &w.Notes, &w.Completed, &w.DurationSec)
	if err != nil {
		return nil, fmt.Errorf("querying workout: %w", notFound(err))
	}

	sets, err := db.setsFor(ctx, []uuid.UUID{w.ID})
	if err != nil {
		return nil, err
	}
	w.Sets = sets[w.ID]
	return &w, nil
}

func scanWorkoutRows(rows pgx.Rows) ([]models.Workout, error) {
	var result []models.Workout
	for rows.Next() {
		var w models.Workout
		if err := rows.Scan(&w.ID, &w.UserID, &w.ProgramID, &w.ProgramName, &w.Date,
			&w.Notes, &w.Completed, &w.DurationSec); err != nil {
			return nil, fmt.Errorf("scanning workout: %w", err)
		}
		result = append(result, w)
	}
	return result, rows.Err()
}
