package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Workout is one logged execution of a program.
type Workout struct {
	ID          uuid.UUID    `json:"id"`
	UserID      uuid.UUID    `json:"user_id"`
	ProgramID   uuid.UUID    `json:"program_id"`
	ProgramName string       `json:"program_name"`
	Date        time.Time    `json:"date"`
	Notes       *string      `json:"notes,omitempty"`
	Completed   bool         `json:"completed"`
	DurationSec *int         `json:"duration_sec,omitempty"`
	Sets        []WorkoutSet `json:"sets"`
}

// WorkoutSet is the actual performance of one set. ExerciseName is copied
// from the program at logging time so history survives program edits.
type WorkoutSet struct {
	ExerciseName string  `json:"exercise_name"`
	SetNumber    int     `json:"set_number"`
	Reps         int     `json:"reps"`
	Weight       float64 `json:"weight"`
	Completed    bool    `json:"completed"`
}

// FindSet returns the set matching exercise name and set number.
func (w *Workout) FindSet(exerciseName string, setNumber int) (WorkoutSet, bool) {
	if w == nil {
		return WorkoutSet{}, false
	}
	for _, s := range w.Sets {
		if s.ExerciseName == exerciseName && s.SetNumber == setNumber {
			return s, true
		}
	}
	return WorkoutSet{}, false
}

// ExerciseSet is a logged set together with the workout it belongs to.
type ExerciseSet struct {
	WorkoutID   uuid.UUID `json:"workout_id"`
	Date        time.Time `json:"date"`
	ProgramName string    `json:"program_name"`
	WorkoutSet
}

// WorkoutSetInput is a client-supplied set. A missing Completed means true.
type WorkoutSetInput struct {
	ExerciseName string  `json:"exercise_name"`
	SetNumber    int     `json:"set_number"`
	Reps         int     `json:"reps"`
	Weight       float64 `json:"weight"`
	Completed    *bool   `json:"completed,omitempty"`
}

// WorkoutInput is the body of a workout create request.
type WorkoutInput struct {
	ProgramID   uuid.UUID         `json:"program_id"`
	Sets        []WorkoutSetInput `json:"sets"`
	Notes       *string           `json:"notes,omitempty"`
	Completed   *bool             `json:"completed,omitempty"`
	DurationSec *int              `json:"duration_sec,omitempty"`
}

// Validate reports the first problem with the input, or nil.
func (in WorkoutInput) Validate() error {
	if in.ProgramID == uuid.Nil {
		return &ValidationError{Field: "program_id", Message: "program_id is required"}
	}
	if len(in.Sets) == 0 {
		return &ValidationError{Field: "sets", Message: "at least one set is required"}
	}
	if in.DurationSec != nil && *in.DurationSec < 0 {
		return &ValidationError{Field: "duration_sec", Message: "duration must not be negative"}
	}
	seen := make(map[string]bool, len(in.Sets))
	for i, s := range in.Sets {
		if strings.TrimSpace(s.ExerciseName) == "" {
			return &ValidationError{Field: fieldAt("sets", i, "exercise_name"), Message: "exercise name is required"}
		}
		if s.SetNumber < 1 {
			return &ValidationError{Field: fieldAt("sets", i, "set_number"), Message: "set number must be at least 1"}
		}
		if s.Reps < 0 {
			return &ValidationError{Field: fieldAt("sets", i, "reps"), Message: "reps must not be negative"}
		}
		if s.Weight < 0 {
			return &ValidationError{Field: fieldAt("sets", i, "weight"), Message: "weight must not be negative"}
		}
		key := fmt.Sprintf("%s#%d", s.ExerciseName, s.SetNumber)
		if seen[key] {
			return &ValidationError{Field: fieldAt("sets", i, "set_number"), Message: "duplicate set number for " + s.ExerciseName}
		}
		seen[key] = true
	}
	return nil
}

// IsCompleted resolves the workout completed flag, defaulting to true.
func (in WorkoutInput) IsCompleted() bool {
	if in.Completed == nil {
		return true
	}
	return *in.Completed
}

// ToSets resolves per-set defaults.
func (in WorkoutInput) ToSets() []WorkoutSet {
	out := make([]WorkoutSet, len(in.Sets))
	for i, s := range in.Sets {
		completed := true
		if s.Completed != nil {
			completed = *s.Completed
		}
		out[i] = WorkoutSet{
			ExerciseName: s.ExerciseName,
			SetNumber:    s.SetNumber,
			Reps:         s.Reps,
			Weight:       s.Weight,
			Completed:    completed,
		}
	}
	return out
}

// SetInputs converts sets into create-request inputs with explicit
// completed flags.
func SetInputs(sets []WorkoutSet) []WorkoutSetInput {
	out := make([]WorkoutSetInput, len(sets))
	for i, s := range sets {
		completed := s.Completed
		out[i] = WorkoutSetInput{
			ExerciseName: s.ExerciseName,
			SetNumber:    s.SetNumber,
			Reps:         s.Reps,
			Weight:       s.Weight,
			Completed:    &completed,
		}
	}
	return out
}

// WorkoutFilter narrows a workout listing.
type WorkoutFilter struct {
	ProgramID *uuid.UUID
	Completed *bool
	Limit     int
	Offset    int
}
