package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/claude/replog/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

func insertWorkoutSets(ctx context.Context, tx pgx.Tx, workoutID uuid.UUID, sets []models.WorkoutSet) error {
	if len(sets) == 0 {
		return nil
	}

	query := `INSERT INTO workout_sets (workout_id, exercise_name, set_number, reps, weight, completed) VALUES `
	args := make([]any, 0, len(sets)*6)
	valueStrings := make([]string, 0, len(sets))

	for i, s := range sets {
		base := i * 6
		valueStrings = append(valueStrings, fmt.Sprintf(
			"($%d,$%d,$%d,$%d,$%d,$%d)",
			base+1, base+2, base+3, base+4, base+5, base+6,
		))
		args = append(args, workoutID, s.ExerciseName, s.SetNumber, s.Reps, s.Weight, s.Completed)
	}

	query += strings.Join(valueStrings, ",")
	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("inserting workout sets: %w", err)
	}
	return nil
}

// setsFor loads the sets of several workouts. Sets keep the order they were
// logged in within an exercise (by set number).
func (db *DB) setsFor(ctx context.Context, workoutIDs []uuid.UUID) (map[uuid.UUID][]models.WorkoutSet, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT workout_id, exercise_name, set_number, reps, weight, completed
		 FROM workout_sets
		 WHERE workout_id = ANY($1)
		 ORDER BY workout_id, set_number ASC, exercise_name ASC`,
		workoutIDs)
	if err != nil {
		return nil, fmt.Errorf("querying workout sets: %w", err)
	}
	defer rows.Close()

	result := make(map[uuid.UUID][]models.WorkoutSet, len(workoutIDs))
	for _, id := range workoutIDs {
		result[id] = []models.WorkoutSet{}
	}
	for rows.Next() {
		var wid uuid.UUID
		var s models.WorkoutSet
		if err := rows.Scan(&wid, &s.ExerciseName, &s.SetNumber, &s.Reps, &s.Weight, &s.Completed); err != nil {
			return nil, fmt.Errorf("scanning workout set: %w", err)
		}
		result[wid] = append(result[wid], s)
	}
	return result, rows.Err()
}

// QueryExerciseHistory returns the user's sets for an exercise (partial,
// case-insensitive match), newest workout first.
func (db *DB) QueryExerciseHistory(ctx context.Context, userID uuid.UUID, exercise string, limit int) ([]models.ExerciseSet, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := db.Pool.Query(ctx,
		`SELECT w.id, w.date, p.name, s.exercise_name, s.set_number, s.reps, s.weight, s.completed
		 FROM workout_sets s
		 JOIN workouts w ON w.id = s.workout_id
		 JOIN programs p ON p.id = w.program_id
		 WHERE w.user_id = $1 AND s.exercise_name ILIKE '%' || $2 || '%'
		 ORDER BY w.date DESC, s.exercise_name ASC, s.set_number ASC
		 LIMIT $3`,
		userID, exercise, limit)
	if err != nil {
		return nil, fmt.Errorf("querying exercise history: %w", err)
	}
	defer rows.Close()

	result := []models.ExerciseSet{}
	for rows.Next() {
		var e models.ExerciseSet
		if err := rows.Scan(&e.WorkoutID, &e.Date, &e.ProgramName, &e.ExerciseName,
			&e.SetNumber, &e.Reps, &e.Weight, &e.Completed); err != nil {
			return nil, fmt.Errorf("scanning exercise set: %w", err)
		}
		result = append(result, e)
	}
	return result, rows.Err()
}
