package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/claude/replog/internal/apperr"
	"github.com/claude/replog/internal/models"
	"github.com/claude/replog/internal/storage"
)

func (s *Server) handleListPrograms(w http.ResponseWriter, r *http.Request) {
	programs, err := s.store.ListPrograms(r.Context(), userID(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, programs)
}

func (s *Server) handleGetProgram(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "program")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := s.store.GetProgram(r.Context(), id, userID(r))
	if err != nil {
		s.writeError(w, r, notFoundAs(err, "program not found"))
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleCreateProgram(w http.ResponseWriter, r *http.Request) {
	in, err := decodeProgramInput(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := s.store.CreateProgram(r.Context(), userID(r), in, nil)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.metrics.ProgramsCreated.Inc()
	s.log.InfoContext(r.Context(), "program created", "program_id", p.ID, "exercises", len(p.Exercises))
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleUpdateProgram(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "program")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	in, err := decodeProgramInput(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := s.store.UpdateProgram(r.Context(), id, userID(r), in)
	if err != nil {
		s.writeError(w, r, notFoundAs(err, "program not found"))
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeleteProgram(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "program")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.DeleteProgram(r.Context(), id, userID(r)); err != nil {
		s.writeError(w, r, notFoundAs(err, "program not found"))
		return
	}
	s.log.InfoContext(r.Context(), "program deleted", "program_id", id)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type shareRequest struct {
	Email string `json:"email"`
}

type shareResponse struct {
	Success       bool            `json:"success"`
	Message       string          `json:"message"`
	SharedProgram *models.Program `json:"shared_program"`
}

// handleShareProgram copies one of the caller's programs into the account
// of the user with the given email, recording who shared it.
func (s *Server) handleShareProgram(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "program")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req shareRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	email := models.NormalizeEmail(req.Email)
	if email == "" {
		s.writeError(w, r, apperr.Validation("email is required"))
		return
	}

	ctx := r.Context()
	uid := userID(r)

	program, err := s.store.GetProgram(ctx, id, uid)
	if err != nil {
		s.writeError(w, r, notFoundAs(err, "program not found"))
		return
	}

	recipient, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		s.writeError(w, r, notFoundAs(err, "user not found"))
		return
	}
	if recipient.ID == uid {
		s.writeError(w, r, apperr.Validation("cannot share a program with yourself"))
		return
	}

	sharer, err := s.store.GetUserByID(ctx, uid)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			err = fmt.Errorf("sharer %s vanished: %w", uid, err)
		}
		s.writeError(w, r, apperr.Internal("loading sharer", err))
		return
	}

	copied, err := s.store.CreateProgram(ctx, recipient.ID, program.CopyInput(), &models.Provenance{
		SharedByID:   sharer.ID,
		SharedByName: sharer.DisplayName(),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.metrics.ProgramsShared.Inc()
	s.metrics.ProgramsCreated.Inc()
	s.log.InfoContext(ctx, "program shared",
		"program_id", program.ID, "copy_id", copied.ID, "recipient_id", recipient.ID)
	writeJSON(w, http.StatusOK, shareResponse{
		Success:       true,
		Message:       "Program shared with " + recipient.Email,
		SharedProgram: copied,
	})
}

func decodeProgramInput(r *http.Request) (models.ProgramInput, error) {
	var in models.ProgramInput
	if err := decodeJSON(r, &in); err != nil {
		return in, err
	}
	in.Normalize()
	if err := in.Validate(); err != nil {
		return in, err
	}
	return in, nil
}
