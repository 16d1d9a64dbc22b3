package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Program is a named, ordered template of exercises owned by one user.
type Program struct {
	ID           uuid.UUID  `json:"id"`
	UserID       uuid.UUID  `json:"user_id"`
	Name         string     `json:"name"`
	Description  *string    `json:"description,omitempty"`
	Exercises    []Exercise `json:"exercises"`
	CreatedAt    time.Time  `json:"created_at"`
	SharedByID   *uuid.UUID `json:"shared_by_id,omitempty"`
	SharedByName *string    `json:"shared_by_name,omitempty"`
}

// Exercise is one entry of a program. Position is zero-based and dense
// within its program.
type Exercise struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Sets     int       `json:"sets"`
	Reps     int       `json:"reps"`
	Position int       `json:"position"`
}

// ExerciseInput is a client-supplied exercise. Its position is implied by
// its index in ProgramInput.Exercises.
type ExerciseInput struct {
	Name string `json:"name"`
	Sets int    `json:"sets"`
	Reps int    `json:"reps"`
}

// ProgramInput is the body of program create and update requests.
type ProgramInput struct {
	Name        string          `json:"name"`
	Description *string         `json:"description,omitempty"`
	Exercises   []ExerciseInput `json:"exercises"`
}

// Normalize trims names and drops an all-blank description.
func (in *ProgramInput) Normalize() {
	in.Name = strings.TrimSpace(in.Name)
	if in.Description != nil {
		d := strings.TrimSpace(*in.Description)
		if d == "" {
			in.Description = nil
		} else {
			in.Description = &d
		}
	}
	for i := range in.Exercises {
		in.Exercises[i].Name = strings.TrimSpace(in.Exercises[i].Name)
	}
}

// Validate reports the first problem with the input, or nil.
func (in ProgramInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}
	if len(in.Exercises) == 0 {
		return &ValidationError{Field: "exercises", Message: "at least one exercise is required"}
	}
	for i, ex := range in.Exercises {
		if strings.TrimSpace(ex.Name) == "" {
			return &ValidationError{Field: fieldAt("exercises", i, "name"), Message: "exercise name is required"}
		}
		if ex.Sets <= 0 {
			return &ValidationError{Field: fieldAt("exercises", i, "sets"), Message: "sets must be positive"}
		}
		if ex.Reps <= 0 {
			return &ValidationError{Field: fieldAt("exercises", i, "reps"), Message: "reps must be positive"}
		}
	}
	return nil
}

// ToExercises converts the input list into exercises with positions 0..n-1
// in submitted order.
func (in ProgramInput) ToExercises() []Exercise {
	out := make([]Exercise, len(in.Exercises))
	for i, ex := range in.Exercises {
		out[i] = Exercise{
			ID:       uuid.New(),
			Name:     ex.Name,
			Sets:     ex.Sets,
			Reps:     ex.Reps,
			Position: i,
		}
	}
	return out
}

// CopyInput returns an input that reproduces p's name, description and
// exercises. Used when sharing a program.
func (p Program) CopyInput() ProgramInput {
	in := ProgramInput{Name: p.Name}
	if p.Description != nil {
		d := *p.Description
		in.Description = &d
	}
	in.Exercises = make([]ExerciseInput, len(p.Exercises))
	for i, ex := range p.Exercises {
		in.Exercises[i] = ExerciseInput{Name: ex.Name, Sets: ex.Sets, Reps: ex.Reps}
	}
	return in
}

// Provenance records who shared a program copy.
type Provenance struct {
	SharedByID   uuid.UUID
	SharedByName string
}
