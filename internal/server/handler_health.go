package server

import (
	"context"
	"net/http"
	"runtime"
	"time"
)

type healthResponse struct {
	Status    string `json:"status"`
	GoVersion string `json:"go_version"`
	Uptime    string `json:"uptime"`
	Store     string `json:"store"`
	BBS       string `json:"bbs"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	resp := healthResponse{
		Status:    "healthy",
		GoVersion: runtime.Version(),
		Uptime:    time.Since(s.startTime).Round(time.Second).String(),
		Store:     "ok",
		BBS:       "not_configured",
	}

	if _, _, err := s.store.ListTasks(r.Context(), defaultPage()); err != nil {
		resp.Status = "degraded"
		resp.Store = "error: " + err.Error()
	}
	if s.bbs != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		ok, err := s.bbs.Ping(ctx)
		switch {
		case err != nil:
			resp.Status = "degraded"
			resp.BBS = "unreachable: " + err.Error()
		case !ok:
			resp.Status = "degraded"
			resp.BBS = "unavailable"
		default:
			resp.BBS = "available"
		}
	}
	respondOK(w, reqID, resp)
}
