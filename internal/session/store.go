package session

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/claude/replog/internal/models"
	"github.com/google/uuid"
)

// DraftTTL is how long an untouched draft stays resumable.
const DraftTTL = 24 * time.Hour

// ErrNoRecord is returned by a Store when a key has no stored value.
var ErrNoRecord = errors.New("no record")

// Draft is the client-local state of an unfinished workout.
type Draft struct {
	ProgramID uuid.UUID           `json:"program_id"`
	Sets      []models.WorkoutSet `json:"sets"`
	Notes     string              `json:"notes"`
	SavedAt   time.Time           `json:"saved_at"`
}

// IsExpired reports whether d was last saved DraftTTL or more before now.
func IsExpired(d *Draft, now time.Time) bool {
	return now.Sub(d.SavedAt) >= DraftTTL
}

// Store persists drafts and session start times, each keyed by program id.
// Load methods return ErrNoRecord when nothing is stored; any other error
// means the stored value could not be read.
type Store interface {
	LoadDraft(ctx context.Context, programID uuid.UUID) (*Draft, error)
	SaveDraft(ctx context.Context, d *Draft) error
	DeleteDraft(ctx context.Context, programID uuid.UUID) error
	ListDrafts(ctx context.Context) ([]uuid.UUID, error)

	LoadStart(ctx context.Context, programID uuid.UUID) (time.Time, error)
	SaveStart(ctx context.Context, programID uuid.UUID, at time.Time) error
	DeleteStart(ctx context.Context, programID uuid.UUID) error
	ListStarts(ctx context.Context) ([]uuid.UUID, error)
}

// MemoryStore is a map-backed Store.
type MemoryStore struct {
	mu     sync.Mutex
	drafts map[uuid.UUID]Draft
	starts map[uuid.UUID]time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		drafts: make(map[uuid.UUID]Draft),
		starts: make(map[uuid.UUID]time.Time),
	}
}

func (m *MemoryStore) LoadDraft(_ context.Context, programID uuid.UUID) (*Draft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.drafts[programID]
	if !ok {
		return nil, ErrNoRecord
	}
	d.Sets = slices.Clone(d.Sets)
	return &d, nil
}

func (m *MemoryStore) SaveDraft(_ context.Context, d *Draft) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *d
	cp.Sets = slices.Clone(d.Sets)
	m.drafts[d.ProgramID] = cp
	return nil
}

func (m *MemoryStore) DeleteDraft(_ context.Context, programID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.drafts, programID)
	return nil
}

func (m *MemoryStore) ListDrafts(_ context.Context) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]uuid.UUID, 0, len(m.drafts))
	for id := range m.drafts {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *MemoryStore) LoadStart(_ context.Context, programID uuid.UUID) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	at, ok := m.starts[programID]
	if !ok {
		return time.Time{}, ErrNoRecord
	}
	return at, nil
}

func (m *MemoryStore) SaveStart(_ context.Context, programID uuid.UUID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.starts[programID] = at
	return nil
}

func (m *MemoryStore) DeleteStart(_ context.Context, programID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.starts, programID)
	return nil
}

func (m *MemoryStore) ListStarts(_ context.Context) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]uuid.UUID, 0, len(m.starts))
	for id := range m.starts {
		ids = append(ids, id)
	}
	return ids, nil
}
