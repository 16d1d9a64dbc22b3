package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/claude/replog/internal/apperr"
	"github.com/claude/replog/internal/models"
	"github.com/google/uuid"
)

const (
	maxWorkoutLimit = 200
	maxHistoryLimit = 1000
)

func (s *Server) handleListWorkouts(w http.ResponseWriter, r *http.Request) {
	f, err := parseWorkoutFilter(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	workouts, err := s.store.ListWorkouts(r.Context(), userID(r), f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, workouts)
}

func (s *Server) handleGetWorkout(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "workout")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	wo, err := s.store.GetWorkout(r.Context(), id, userID(r))
	if err != nil {
		s.writeError(w, r, notFoundAs(err, "workout not found"))
		return
	}
	writeJSON(w, http.StatusOK, wo)
}

func (s *Server) handleCreateWorkout(w http.ResponseWriter, r *http.Request) {
	var in models.WorkoutInput
	if err := decodeJSON(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := in.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}

	wo, err := s.store.CreateWorkout(r.Context(), userID(r), in)
	if err != nil {
		s.writeError(w, r, notFoundAs(err, "program not found"))
		return
	}

	s.metrics.WorkoutsLogged.Inc()
	s.metrics.SetsLogged.Add(float64(len(wo.Sets)))
	s.log.InfoContext(r.Context(), "workout logged",
		"workout_id", wo.ID, "program_id", wo.ProgramID, "sets", len(wo.Sets))
	writeJSON(w, http.StatusCreated, wo)
}

func parseWorkoutFilter(r *http.Request) (models.WorkoutFilter, error) {
	var f models.WorkoutFilter
	q := r.URL.Query()

	if v := q.Get("program_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return f, apperr.Validation("invalid program_id")
		}
		f.ProgramID = &id
	}
	if v := q.Get("completed"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, apperr.Validation("completed must be true or false")
		}
		f.Completed = &b
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return f, apperr.Validation("limit must be a positive integer")
		}
		f.Limit = min(n, maxWorkoutLimit)
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return f, apperr.Validation("offset must be a non-negative integer")
		}
		f.Offset = n
	}
	return f, nil
}

const defaultHistoryLimit = 100

func (s *Server) handleExerciseHistory(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		s.writeError(w, r, apperr.Validation("name parameter required"))
		return
	}
	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			s.writeError(w, r, apperr.Validation("limit must be a positive integer"))
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	sets, err := s.store.QueryExerciseHistory(r.Context(), userID(r), name, limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sets)
}
