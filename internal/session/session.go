package session

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/claude/replog/internal/models"
	"github.com/google/uuid"
)

// State is the lifecycle position of a Session.
type State int

const (
	StateUninitialized State = iota
	StateFresh
	StateInProgress
	StateSubmitted
	StateDiscarded
)

func (s State) String() string {
	switch s {
	case StateFresh:
		return "fresh"
	case StateInProgress:
		return "in progress"
	case StateSubmitted:
		return "submitted"
	case StateDiscarded:
		return "discarded"
	default:
		return "uninitialized"
	}
}

// Field names an editable field of a set.
type Field string

const (
	FieldReps      Field = "reps"
	FieldWeight    Field = "weight"
	FieldCompleted Field = "completed"
)

// ParseField maps user text onto a Field.
func ParseField(s string) (Field, error) {
	switch f := Field(strings.ToLower(strings.TrimSpace(s))); f {
	case FieldReps, FieldWeight, FieldCompleted:
		return f, nil
	}
	return "", fmt.Errorf("unknown field %q (want reps, weight or completed)", s)
}

var (
	ErrNoSets     = errors.New("workout has no sets")
	ErrZeroWeight = errors.New("some sets have zero weight")
	ErrClosed     = errors.New("session is closed")
	ErrIndex      = errors.New("set index out of range")
)

// Session is one workout in progress for one program.
type Session struct {
	m        *Manager
	program  models.Program
	state    State
	resumed  bool
	sets     []models.WorkoutSet
	notes    string
	previous *models.Workout

	startedAt time.Time
	savedAt   time.Time
	// startSaved is false until the start time is in the store.
	startSaved bool
}

func (s *Session) ProgramID() uuid.UUID      { return s.program.ID }
func (s *Session) ProgramName() string       { return s.program.Name }
func (s *Session) State() State              { return s.state }
func (s *Session) Resumed() bool             { return s.resumed }
func (s *Session) Notes() string             { return s.notes }
func (s *Session) StartedAt() time.Time      { return s.startedAt }
func (s *Session) SavedAt() time.Time        { return s.savedAt }
func (s *Session) Sets() []models.WorkoutSet { return slices.Clone(s.sets) }

// reset builds the fresh set list: target sets per exercise, target reps,
// zero weight, not completed.
func (s *Session) reset() {
	sets := []models.WorkoutSet{}
	for _, ex := range s.program.Exercises {
		for n := 1; n <= ex.Sets; n++ {
			sets = append(sets, models.WorkoutSet{
				ExerciseName: ex.Name,
				SetNumber:    n,
				Reps:         ex.Reps,
			})
		}
	}
	s.sets = sets
	s.notes = ""
	s.savedAt = time.Time{}
	s.resumed = false
	s.state = StateFresh
}

// ParseInput converts user text for field into a value for RecordSet.
// Empty text is 0.
func ParseInput(field Field, text string) (float64, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, nil
	}
	if field == FieldCompleted {
		b, err := strconv.ParseBool(text)
		if err != nil {
			return 0, fmt.Errorf("invalid completed value %q", text)
		}
		if b {
			return 1, nil
		}
		return 0, nil
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid %s value %q", field, text)
	}
	return v, nil
}

// RecordSet sets one field of the set at index and saves the draft.
// Reps and weight clamp at 0; completed is value != 0.
func (s *Session) RecordSet(ctx context.Context, index int, field Field, value float64) error {
	if err := s.check(index); err != nil {
		return err
	}
	set := &s.sets[index]
	switch field {
	case FieldReps:
		set.Reps = int(math.Round(math.Max(value, 0)))
	case FieldWeight:
		set.Weight = math.Max(value, 0)
	case FieldCompleted:
		set.Completed = value != 0
	default:
		return fmt.Errorf("unknown field %q", field)
	}
	return s.persist(ctx)
}

func (s *Session) IncrementReps(ctx context.Context, index int) error {
	return s.stepReps(ctx, index, 1)
}

func (s *Session) DecrementReps(ctx context.Context, index int) error {
	return s.stepReps(ctx, index, -1)
}

func (s *Session) IncrementWeight(ctx context.Context, index int) error {
	return s.stepWeight(ctx, index, s.m.weightStep)
}

func (s *Session) DecrementWeight(ctx context.Context, index int) error {
	return s.stepWeight(ctx, index, -s.m.weightStep)
}

func (s *Session) stepReps(ctx context.Context, index, delta int) error {
	if err := s.check(index); err != nil {
		return err
	}
	return s.RecordSet(ctx, index, FieldReps, float64(s.sets[index].Reps+delta))
}

func (s *Session) stepWeight(ctx context.Context, index int, delta float64) error {
	if err := s.check(index); err != nil {
		return err
	}
	return s.RecordSet(ctx, index, FieldWeight, s.sets[index].Weight+delta)
}

// ToggleCompleted flips the completed flag of the set at index.
func (s *Session) ToggleCompleted(ctx context.Context, index int) error {
	if err := s.check(index); err != nil {
		return err
	}
	v := 1.0
	if s.sets[index].Completed {
		v = 0
	}
	return s.RecordSet(ctx, index, FieldCompleted, v)
}

// SetNotes replaces the workout notes and saves the draft.
func (s *Session) SetNotes(ctx context.Context, notes string) error {
	if s.closed() {
		return ErrClosed
	}
	s.notes = notes
	return s.persist(ctx)
}

// Previous returns the set with the same exercise and set number from the
// last completed workout of this program.
func (s *Session) Previous(index int) (models.WorkoutSet, bool) {
	if index < 0 || index >= len(s.sets) {
		return models.WorkoutSet{}, false
	}
	return s.previous.FindSet(s.sets[index].ExerciseName, s.sets[index].SetNumber)
}

// CopyPrevious overwrites reps and weight of the set at index with the
// matching set of the previous workout. The completed flag is kept. It
// reports false, and changes nothing, when there is no match.
func (s *Session) CopyPrevious(ctx context.Context, index int) (bool, error) {
	if err := s.check(index); err != nil {
		return false, err
	}
	prev, ok := s.Previous(index)
	if !ok {
		return false, nil
	}
	s.sets[index].Reps = prev.Reps
	s.sets[index].Weight = prev.Weight
	return true, s.persist(ctx)
}

// Elapsed is the wall-clock time since the session start record.
func (s *Session) Elapsed() time.Duration {
	return s.m.clock.Since(s.startedAt)
}

// FormatDuration renders d as "1h 2m", "3m 4s" or "5s".
func FormatDuration(d time.Duration) string {
	secs := int(max(d, 0) / time.Second)
	h, m, sec := secs/3600, secs%3600/60, secs%60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh %dm", h, m)
	case m > 0:
		return fmt.Sprintf("%dm %ds", m, sec)
	default:
		return fmt.Sprintf("%ds", sec)
	}
}

// HasProgress reports whether any set is completed or carries weight.
func (s *Session) HasProgress() bool {
	for _, set := range s.sets {
		if set.Completed || set.Weight > 0 {
			return true
		}
	}
	return false
}

// Cancel leaves the session. With keep the draft stays resumable;
// otherwise the draft and start time are deleted.
func (s *Session) Cancel(ctx context.Context, keep bool) error {
	if s.closed() {
		return ErrClosed
	}
	if keep {
		return nil
	}
	if err := s.m.DiscardDraft(ctx, s.program.ID); err != nil {
		return fmt.Errorf("discarding draft: %w", err)
	}
	s.state = StateDiscarded
	return nil
}

// Discard deletes the draft and start time, then starts over with a fresh
// set list. The new start time is stored with the first change.
func (s *Session) Discard(ctx context.Context) error {
	if s.closed() {
		return ErrClosed
	}
	if err := s.m.DiscardDraft(ctx, s.program.ID); err != nil {
		return fmt.Errorf("discarding draft: %w", err)
	}
	s.reset()
	s.startedAt = s.m.clock.Now()
	s.startSaved = false
	return nil
}

// Submit creates the workout on the server. Any zero-weight set needs
// confirmZeroWeight. On failure the draft is kept so the call can be
// retried; on success it is deleted.
func (s *Session) Submit(ctx context.Context, confirmZeroWeight bool) (*models.Workout, error) {
	if s.closed() {
		return nil, ErrClosed
	}
	if len(s.sets) == 0 {
		return nil, ErrNoSets
	}
	if !confirmZeroWeight && slices.ContainsFunc(s.sets, func(set models.WorkoutSet) bool { return set.Weight == 0 }) {
		return nil, ErrZeroWeight
	}

	completed := true
	duration := int(s.Elapsed() / time.Second)
	in := models.WorkoutInput{
		ProgramID:   s.program.ID,
		Sets:        models.SetInputs(s.sets),
		Completed:   &completed,
		DurationSec: &duration,
	}
	if notes := strings.TrimSpace(s.notes); notes != "" {
		in.Notes = &notes
	}

	w, err := s.m.backend.CreateWorkout(ctx, in)
	if err != nil {
		s.m.log.WarnContext(ctx, "submitting workout", "program_id", s.program.ID, "error", err)
		return nil, fmt.Errorf("submitting workout: %w", err)
	}

	s.state = StateSubmitted
	s.m.clear(ctx, s.program.ID)
	s.m.log.InfoContext(ctx, "workout submitted", "program_id", s.program.ID, "workout_id", w.ID, "sets", len(w.Sets))
	return w, nil
}

// Tick sends the elapsed time once a second until ctx is done.
func (s *Session) Tick(ctx context.Context) <-chan time.Duration {
	out := make(chan time.Duration)
	ticker := s.m.clock.NewTicker(time.Second)
	go func() {
		defer ticker.Stop()
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.Chan():
				select {
				case out <- s.Elapsed():
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

func (s *Session) closed() bool {
	return s.state == StateSubmitted || s.state == StateDiscarded
}

func (s *Session) check(index int) error {
	if s.closed() {
		return ErrClosed
	}
	if index < 0 || index >= len(s.sets) {
		return fmt.Errorf("%w: %d", ErrIndex, index)
	}
	return nil
}

// persist writes the full draft stamped with the current time, storing the
// start time first if it is not stored yet.
func (s *Session) persist(ctx context.Context) error {
	if !s.startSaved {
		if err := s.m.store.SaveStart(ctx, s.program.ID, s.startedAt); err != nil {
			return fmt.Errorf("recording start time: %w", err)
		}
		s.startSaved = true
	}
	s.savedAt = s.m.clock.Now()
	s.state = StateInProgress
	err := s.m.store.SaveDraft(ctx, &Draft{
		ProgramID: s.program.ID,
		Sets:      slices.Clone(s.sets),
		Notes:     s.notes,
		SavedAt:   s.savedAt,
	})
	if err != nil {
		return fmt.Errorf("saving draft: %w", err)
	}
	return nil
}
