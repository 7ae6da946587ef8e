package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/me/diegobridge/pkg/model"
)

func defaultPage() model.ListOptions {
	return model.ListOptions{Limit: 1}
}

// listOptions reads the limit, offset, state and app_guid query parameters.
func listOptions(r *http.Request) model.ListOptions {
	opts := model.DefaultListOptions()
	q := r.URL.Query()
	if v, err := strconv.Atoi(q.Get("limit")); err == nil {
		opts.Limit = v
	}
	if v, err := strconv.Atoi(q.Get("offset")); err == nil {
		opts.Offset = v
	}
	opts.State = q.Get("state")
	opts.AppGUID = q.Get("app_guid")
	opts.Clamp()
	return opts
}

func (s *Server) handleListBuilds(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	opts := listOptions(r)

	builds, total, err := s.store.ListBuilds(r.Context(), opts)
	if err != nil {
		respondError(w, reqID, model.NewInternalError(err))
		return
	}

	respondList(w, reqID, builds, opts.Page(total))
}

func (s *Server) handleGetBuild(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	build, err := s.store.GetBuild(r.Context(), id)
	if err != nil {
		respondError(w, reqID, model.NewInternalError(err))
		return
	}
	if build == nil {
		respondError(w, reqID, model.NewNotFoundError("Build", id))
		return
	}
	respondOK(w, reqID, build)
}

func (s *Server) handleGetBuildDroplet(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	droplet, err := s.store.GetDropletByBuild(r.Context(), id)
	if err != nil {
		respondError(w, reqID, model.NewInternalError(err))
		return
	}
	if droplet == nil {
		respondError(w, reqID, model.NewNotFoundError("Droplet for build", id))
		return
	}
	respondOK(w, reqID, droplet)
}
