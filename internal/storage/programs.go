package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/claude/replog/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const programColumns = `id, user_id, name, description, created_at, shared_by_id, shared_by_name`

// ListPrograms returns a user's programs, newest first, with exercises in order.
func (db *DB) ListPrograms(ctx context.Context, userID uuid.UUID) ([]models.Program, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+programColumns+` FROM programs WHERE user_id = $1 ORDER BY created_at DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("querying programs: %w", err)
	}
	defer rows.Close()

	var programs []models.Program
	for rows.Next() {
		p, err := scanProgram(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning program: %w", err)
		}
		programs = append(programs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(programs) == 0 {
		return []models.Program{}, nil
	}

	ids := make([]uuid.UUID, len(programs))
	for i, p := range programs {
		ids[i] = p.ID
	}
	byProgram, err := db.exercisesFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range programs {
		programs[i].Exercises = byProgram[programs[i].ID]
	}
	return programs, nil
}

// GetProgram returns one of the user's programs. A program owned by someone
// else is reported as ErrNotFound.
func (db *DB) GetProgram(ctx context.Context, id, userID uuid.UUID) (*models.Program, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT `+programColumns+` FROM programs WHERE id = $1 AND user_id = $2`,
		id, userID)
	p, err := scanProgram(row)
	if err != nil {
		return nil, fmt.Errorf("querying program: %w", notFound(err))
	}
	byProgram, err := db.exercisesFor(ctx, []uuid.UUID{p.ID})
	if err != nil {
		return nil, err
	}
	p.Exercises = byProgram[p.ID]
	return &p, nil
}

// CreateProgram inserts a program and its exercises in one transaction.
// prov is set when the program is a shared copy.
func (db *DB) CreateProgram(ctx context.Context, userID uuid.UUID, in models.ProgramInput, prov *models.Provenance) (*models.Program, error) {
	p := models.Program{
		ID:          uuid.New(),
		UserID:      userID,
		Name:        in.Name,
		Description: in.Description,
		Exercises:   in.ToExercises(),
	}
	if prov != nil {
		id, name := prov.SharedByID, prov.SharedByName
		p.SharedByID = &id
		p.SharedByName = &name
	}

	err := pgx.BeginFunc(ctx, db.Pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO programs (id, user_id, name, description, shared_by_id, shared_by_name)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 RETURNING created_at`,
			p.ID, p.UserID, p.Name, p.Description, p.SharedByID, p.SharedByName,
		).Scan(&p.CreatedAt)
		if err != nil {
			return fmt.Errorf("inserting program: %w", err)
		}
		return insertExercises(ctx, tx, p.ID, p.Exercises)
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProgram replaces a program's name, description and full exercise
// list. Existing exercises are deleted and the new list inserted with
// positions 0..n-1, all in one transaction.
func (db *DB) UpdateProgram(ctx context.Context, id, userID uuid.UUID, in models.ProgramInput) (*models.Program, error) {
	var p models.Program
	err := pgx.BeginFunc(ctx, db.Pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx,
			`UPDATE programs SET name = $3, description = $4
			 WHERE id = $1 AND user_id = $2
			 RETURNING `+programColumns,
			id, userID, in.Name, in.Description)
		var err error
		p, err = scanProgram(row)
		if err != nil {
			return fmt.Errorf("updating program: %w", notFound(err))
		}

		if _, err := tx.Exec(ctx, `DELETE FROM exercises WHERE program_id = $1`, id); err != nil {
			return fmt.Errorf("deleting exercises: %w", err)
		}
		p.Exercises = in.ToExercises()
		return insertExercises(ctx, tx, id, p.Exercises)
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// DeleteProgram removes one of the user's programs. Exercises and workouts
// go with it through ON DELETE CASCADE.
func (db *DB) DeleteProgram(ctx context.Context, id, userID uuid.UUID) error {
	tag, err := db.Pool.Exec(ctx,
		`DELETE FROM programs WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("deleting program: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func insertExercises(ctx context.Context, tx pgx.Tx, programID uuid.UUID, exercises []models.Exercise) error {
	if len(exercises) == 0 {
		return nil
	}

	query := `INSERT INTO exercises (id, program_id, name, sets, reps, position) VALUES `
	args := make([]any, 0, len(exercises)*6)
	valueStrings := make([]string, 0, len(exercises))

	for i, ex := range exercises {
		base := i * 6
		valueStrings = append(valueStrings, fmt.Sprintf(
			"($%d,$%d,$%d,$%d,$%d,$%d)",
			base+1, base+2, base+3, base+4, base+5, base+6,
		))
		args = append(args, ex.ID, programID, ex.Name, ex.Sets, ex.Reps, ex.Position)
	}

	query += strings.Join(valueStrings, ",")
	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("inserting exercises: %w", err)
	}
	return nil
}

func (db *DB) exercisesFor(ctx context.Context, programIDs []uuid.UUID) (map[uuid.UUID][]models.Exercise, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT program_id, id, name, sets, reps, position
		 FROM exercises
		 WHERE program_id = ANY($1)
		 ORDER BY program_id, position ASC`,
		programIDs)
	if err != nil {
		return nil, fmt.Errorf("querying exercises: %w", err)
	}
	defer rows.Close()

	result := make(map[uuid.UUID][]models.Exercise, len(programIDs))
	for _, id := range programIDs {
		result[id] = []models.Exercise{}
	}
	for rows.Next() {
		var pid uuid.UUID
		var ex models.Exercise
		if err := rows.Scan(&pid, &ex.ID, &ex.Name, &ex.Sets, &ex.Reps, &ex.Position); err != nil {
			return nil, fmt.Errorf("scanning exercise: %w", err)
		}
		result[pid] = append(result[pid], ex)
	}
	return result, rows.Err()
}

func scanProgram(row pgx.Row) (models.Program, error) {
	var p models.Program
	err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.Description, &p.CreatedAt, &p.SharedByID, &p.SharedByName)
	return p, err
}
