// Package session runs an in-progress workout on the client: it builds the
// working set list from a program, autosaves it as a draft on every change,
// resumes or expires drafts, and submits the finished workout.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/claude/replog/internal/client"
	"github.com/claude/replog/internal/models"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// DefaultWeightStep is the weight increment used when none is configured.
const DefaultWeightStep = 5.0

// Backend is the server side of a session: the previous workout for
// CopyPrevious and the create call for Submit.
type Backend interface {
	LatestCompletedWorkout(ctx context.Context, programID uuid.UUID) (*models.Workout, error)
	CreateWorkout(ctx context.Context, in models.WorkoutInput) (*models.Workout, error)
}

var _ Backend = (*client.Client)(nil)

// Manager creates sessions and maintains the draft store.
type Manager struct {
	store      Store
	backend    Backend
	clock      clockwork.Clock
	log        *slog.Logger
	weightStep float64
}

// NewManager returns a Manager. A nil clock means the real clock and a
// non-positive weightStep means DefaultWeightStep.
func NewManager(store Store, backend Backend, clock clockwork.Clock, log *slog.Logger, weightStep float64) *Manager {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if weightStep <= 0 {
		weightStep = DefaultWeightStep
	}
	return &Manager{store: store, backend: backend, clock: clock, log: log, weightStep: weightStep}
}

// Start opens a session for program. A draft saved less than DraftTTL ago
// is resumed with its stored start time; an expired or unreadable one is
// deleted and a fresh session is built from the program's exercises. A
// fresh session starts now and stores nothing until its first change.
func (m *Manager) Start(ctx context.Context, program *models.Program) (*Session, error) {
	now := m.clock.Now()
	s := &Session{m: m, program: *program}

	d, err := m.store.LoadDraft(ctx, program.ID)
	switch {
	case errors.Is(err, ErrNoRecord):
	case err != nil:
		m.log.WarnContext(ctx, "discarding unreadable draft", "program_id", program.ID, "error", err)
		m.clear(ctx, program.ID)
	case IsExpired(d, now):
		m.log.InfoContext(ctx, "discarding expired draft", "program_id", program.ID, "saved_at", d.SavedAt)
		m.clear(ctx, program.ID)
	default:
		s.sets = d.Sets
		s.notes = d.Notes
		s.savedAt = d.SavedAt
		s.resumed = true
		s.state = StateInProgress
	}

	if !s.resumed {
		s.reset()
	}

	if s.resumed {
		started, err := m.store.LoadStart(ctx, program.ID)
		switch {
		case err == nil:
			s.startedAt = started
			s.startSaved = true
		case errors.Is(err, ErrNoRecord):
			s.startedAt = s.savedAt
		default:
			m.log.WarnContext(ctx, "resetting unreadable start time", "program_id", program.ID, "error", err)
			s.startedAt = s.savedAt
		}
	} else {
		// A fresh session is not stored until its first change, so a start
		// time left without a draft is stale.
		if err := m.store.DeleteStart(ctx, program.ID); err != nil {
			m.log.WarnContext(ctx, "deleting stale start time", "program_id", program.ID, "error", err)
		}
		s.startedAt = now
	}

	prev, err := m.backend.LatestCompletedWorkout(ctx, program.ID)
	if err != nil {
		m.log.WarnContext(ctx, "loading previous workout", "program_id", program.ID, "error", err)
		prev = nil
	}
	s.previous = prev

	m.log.DebugContext(ctx, "session started", "program_id", program.ID, "resumed", s.resumed, "sets", len(s.sets))
	return s, nil
}

// Resumable is a draft that can be picked up again.
type Resumable struct {
	ProgramID uuid.UUID
	SavedAt   time.Time
}

// Resumable lists resumable drafts, most recently saved first. Expired
// drafts are deleted along with their start times, as are start times
// older than DraftTTL that have no draft. Unreadable drafts are logged and
// left out.
func (m *Manager) Resumable(ctx context.Context) ([]Resumable, error) {
	ids, err := m.store.ListDrafts(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing drafts: %w", err)
	}

	now := m.clock.Now()
	result := []Resumable{}
	drafts := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		drafts[id] = true
		d, err := m.store.LoadDraft(ctx, id)
		if errors.Is(err, ErrNoRecord) {
			continue
		}
		if err != nil {
			m.log.WarnContext(ctx, "skipping unreadable draft", "program_id", id, "error", err)
			continue
		}
		if IsExpired(d, now) {
			m.log.InfoContext(ctx, "pruning expired draft", "program_id", id, "saved_at", d.SavedAt)
			m.clear(ctx, id)
			continue
		}
		result = append(result, Resumable{ProgramID: id, SavedAt: d.SavedAt})
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].SavedAt.After(result[j].SavedAt)
	})

	m.pruneStarts(ctx, drafts, now)
	return result, nil
}

// pruneStarts deletes start times older than DraftTTL that have no draft.
func (m *Manager) pruneStarts(ctx context.Context, drafts map[uuid.UUID]bool, now time.Time) {
	ids, err := m.store.ListStarts(ctx)
	if err != nil {
		m.log.WarnContext(ctx, "listing start times", "error", err)
		return
	}
	for _, id := range ids {
		if drafts[id] {
			continue
		}
		started, err := m.store.LoadStart(ctx, id)
		if errors.Is(err, ErrNoRecord) || (err == nil && now.Sub(started) < DraftTTL) {
			continue
		}
		m.log.DebugContext(ctx, "pruning orphaned start time", "program_id", id)
		if err := m.store.DeleteStart(ctx, id); err != nil {
			m.log.WarnContext(ctx, "deleting start time", "program_id", id, "error", err)
		}
	}
}

// DiscardDraft deletes the draft and start time of a program without
// opening a session.
func (m *Manager) DiscardDraft(ctx context.Context, programID uuid.UUID) error {
	if err := m.store.DeleteDraft(ctx, programID); err != nil {
		return err
	}
	return m.store.DeleteStart(ctx, programID)
}

// clear is DiscardDraft for cleanup paths, where failures are only logged.
func (m *Manager) clear(ctx context.Context, programID uuid.UUID) {
	if err := m.DiscardDraft(ctx, programID); err != nil {
		m.log.WarnContext(ctx, "deleting draft", "program_id", programID, "error", err)
	}
}
