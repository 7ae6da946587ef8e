package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/me/diegobridge/pkg/model"
)

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	opts := listOptions(r)

	tasks, total, err := s.store.ListTasks(r.Context(), opts)
	if err != nil {
		respondError(w, reqID, model.NewInternalError(err))
		return
	}

	respondList(w, reqID, tasks, opts.Page(total))
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	task, err := s.store.GetTask(r.Context(), id)
	if err != nil {
		respondError(w, reqID, model.NewInternalError(err))
		return
	}
	if task == nil {
		respondError(w, reqID, model.NewNotFoundError("Task", id))
		return
	}
	respondOK(w, reqID, task)
}
