package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/me/diegobridge/internal/completion"
	"github.com/me/diegobridge/pkg/model"
)

func (s *Server) handleBuildCompleted(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	guid := chi.URLParam(r, "guid")

	body, ok := s.readCallback(w, r, reqID)
	if !ok {
		return
	}
	outcome, err := s.staging.Handle(r.Context(), guid, body)
	s.respondOutcome(w, reqID, "Build", guid, outcome, err)
}

func (s *Server) handleTaskCompleted(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	guid := chi.URLParam(r, "guid")

	body, ok := s.readCallback(w, r, reqID)
	if !ok {
		return
	}
	outcome, err := s.tasks.Handle(r.Context(), guid, body)
	s.respondOutcome(w, reqID, "Task", guid, outcome, err)
}

func (s *Server) readCallback(w http.ResponseWriter, r *http.Request, reqID string) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxCallbackBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, reqID, model.NewTooLargeError(tooLarge.Limit))
			return nil, false
		}
		respondError(w, reqID, model.NewValidationError("Unreadable callback body: "+err.Error()))
		return nil, false
	}
	return body, true
}

// respondOutcome maps a completion result onto the response envelope.
// Recorded failures are successful callbacks.
func (s *Server) respondOutcome(w http.ResponseWriter, reqID, entity, guid string, outcome *completion.Outcome, err error) {
	var invalid *completion.InvalidCallbackPayloadError
	var transition *model.InvalidTransitionError
	switch {
	case err == nil:
		respondOK(w, reqID, outcome)
	case errors.As(err, &invalid):
		respondError(w, reqID, model.NewValidationError(completion.MalformedMessage,
			model.FieldError{Field: invalid.Field, Message: invalid.Reason}))
	case errors.Is(err, completion.ErrBuildNotFound), errors.Is(err, completion.ErrTaskNotFound):
		respondError(w, reqID, model.NewNotFoundError(entity, guid))
	case errors.As(err, &transition):
		respondError(w, reqID, model.NewConflictError(transition.Error()))
	default:
		s.logger.Error("callback failed", "entity", entity, "guid", guid, "error", err)
		respondError(w, reqID, model.NewInternalError(err))
	}
}
