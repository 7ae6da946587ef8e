package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/me/diegobridge/pkg/model"
)

// requestID generates an identifier for requests that arrive without a
// platform request id.
func requestID() string {
	return "req_" + uuid.New().String()[:8]
}

// errorStatus maps each API error code to its HTTP status.
var errorStatus = map[model.ErrorCode]int{
	model.ErrValidation: http.StatusBadRequest,
	model.ErrNotFound:   http.StatusNotFound,
	model.ErrConflict:   http.StatusConflict,
	model.ErrTooLarge:   http.StatusRequestEntityTooLarge,
	model.ErrInternal:   http.StatusInternalServerError,
}

// statusFor returns the HTTP status for apiErr. Unknown codes are
// server errors.
func statusFor(apiErr *model.APIError) int {
	if status, ok := errorStatus[apiErr.Code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// respondOK wraps data, usually a build, task or completion outcome.
func respondOK(w http.ResponseWriter, reqID string, data any) {
	writeEnvelope(w, http.StatusOK, model.Response{RequestID: reqID, Data: data})
}

// respondList wraps one page of a build or task listing.
func respondList(w http.ResponseWriter, reqID string, data any, pg *model.Pagination) {
	writeEnvelope(w, http.StatusOK, model.Response{RequestID: reqID, Data: data, Pagination: pg})
}

// respondError writes apiErr with the status its code maps to.
func respondError(w http.ResponseWriter, reqID string, apiErr *model.APIError) {
	writeEnvelope(w, statusFor(apiErr), model.Response{RequestID: reqID, Error: apiErr})
}

func writeEnvelope(w http.ResponseWriter, status int, resp model.Response) {
	resp.Timestamp = time.Now().UTC()
	resp.Status = "ok"
	if resp.Error != nil {
		resp.Status = "error"
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}
