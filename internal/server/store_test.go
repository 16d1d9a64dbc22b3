package server

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/claude/replog/internal/models"
	"github.com/claude/replog/internal/storage"
	"github.com/google/uuid"
)

// memStore is an in-memory Store for handler tests.
type memStore struct {
	mu       sync.Mutex
	users    map[uuid.UUID]*models.User
	programs map[uuid.UUID]*models.Program
	workouts map[uuid.UUID]*models.Workout
	pingErr  error
	now      time.Time
}

var _ Store = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{
		users:    map[uuid.UUID]*models.User{},
		programs: map[uuid.UUID]*models.Program{},
		workouts: map[uuid.UUID]*models.Workout{},
		now:      time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC),
	}
}

// tick returns a strictly increasing timestamp so ordering is deterministic.
func (m *memStore) tick() time.Time {
	m.now = m.now.Add(time.Minute)
	return m.now
}

func (m *memStore) Ping(context.Context) error { return m.pingErr }

func (m *memStore) CreateUser(_ context.Context, email, name, hash string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return nil, storage.ErrEmailTaken
		}
	}
	u := &models.User{ID: uuid.New(), Email: email, Name: name, PasswordHash: hash, CreatedAt: m.tick()}
	m.users[u.ID] = u
	cp := *u
	return &cp, nil
}

func (m *memStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (m *memStore) GetUserByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memStore) ListPrograms(_ context.Context, userID uuid.UUID) ([]models.Program, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Program{}
	for _, p := range m.programs {
		if p.UserID == userID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memStore) GetProgram(_ context.Context, id, userID uuid.UUID) (*models.Program, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.programs[id]
	if !ok || p.UserID != userID {
		return nil, storage.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memStore) CreateProgram(_ context.Context, userID uuid.UUID, in models.ProgramInput, prov *models.Provenance) (*models.Program, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := &models.Program{
		ID:          uuid.New(),
		UserID:      userID,
		Name:        in.Name,
		Description: in.Description,
		Exercises:   in.ToExercises(),
		CreatedAt:   m.tick(),
	}
	if prov != nil {
		id, name := prov.SharedByID, prov.SharedByName
		p.SharedByID, p.SharedByName = &id, &name
	}
	m.programs[p.ID] = p
	cp := *p
	return &cp, nil
}

func (m *memStore) UpdateProgram(_ context.Context, id, userID uuid.UUID, in models.ProgramInput) (*models.Program, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.programs[id]
	if !ok || p.UserID != userID {
		return nil, storage.ErrNotFound
	}
	p.Name, p.Description, p.Exercises = in.Name, in.Description, in.ToExercises()
	cp := *p
	return &cp, nil
}

func (m *memStore) DeleteProgram(_ context.Context, id, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.programs[id]
	if !ok || p.UserID != userID {
		return storage.ErrNotFound
	}
	delete(m.programs, id)
	for wid, w := range m.workouts {
		if w.ProgramID == id {
			delete(m.workouts, wid)
		}
	}
	return nil
}

func (m *memStore) CreateWorkout(_ context.Context, userID uuid.UUID, in models.WorkoutInput) (*models.Workout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.programs[in.ProgramID]
	if !ok || p.UserID != userID {
		return nil, errors.Join(errors.New("checking program"), storage.ErrNotFound)
	}
	w := &models.Workout{
		ID:          uuid.New(),
		UserID:      userID,
		ProgramID:   p.ID,
		ProgramName: p.Name,
		Date:        m.tick(),
		Notes:       in.Notes,
		Completed:   in.IsCompleted(),
		DurationSec: in.DurationSec,
		Sets:        in.ToSets(),
	}
	m.workouts[w.ID] = w
	cp := *w
	return &cp, nil
}

func (m *memStore) ListWorkouts(_ context.Context, userID uuid.UUID, f models.WorkoutFilter) ([]models.Workout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Workout{}
	for _, w := range m.workouts {
		if w.UserID != userID {
			continue
		}
		if f.ProgramID != nil && w.ProgramID != *f.ProgramID {
			continue
		}
		if f.Completed != nil && w.Completed != *f.Completed {
			continue
		}
		out = append(out, *w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	if f.Offset >= len(out) {
		return []models.Workout{}, nil
	}
	out = out[f.Offset:]
	if f.Limit > 0 && f.Limit < len(out) {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *memStore) GetWorkout(_ context.Context, id, userID uuid.UUID) (*models.Workout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.workouts[id]
	if !ok || w.UserID != userID {
		return nil, storage.ErrNotFound
	}
	cp := *w
	return &cp, nil
}

func (m *memStore) QueryExerciseHistory(_ context.Context, userID uuid.UUID, exercise string, limit int) ([]models.ExerciseSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.ExerciseSet{}
	for _, w := range m.workouts {
		if w.UserID != userID {
			continue
		}
		for _, s := range w.Sets {
			if strings.Contains(strings.ToLower(s.ExerciseName), strings.ToLower(exercise)) {
				out = append(out, models.ExerciseSet{WorkoutID: w.ID, Date: w.Date, ProgramName: w.ProgramName, WorkoutSet: s})
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].SetNumber < out[j].SetNumber
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
