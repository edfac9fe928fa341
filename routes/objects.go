package routes

import (
	"context"
	"errors"
	"net/http"

	"vodforge/job"
	"vodforge/lease"
	"vodforge/logger"
)

// ObjectsResponse is returned once an object has been converted.
type ObjectsResponse struct {
	URL  string `json:"url"`
	Path string `json:"path"`
}

// ErrorResponse carries the message of a failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ObjectsHandler converts the stored object named by ?objectId= and blocks
// until the job has finished.
func (h *Handlers) ObjectsHandler(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("objectId")
	id, err := job.SanitizeID(raw)
	if err != nil {
		logger.Warnf("Rejected object request: %v", err)
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "missing or invalid objectId"})
		return
	}

	logger.Infof("Conversion requested for %s from %s", id, r.RemoteAddr)

	// The job runs to completion even if the client goes away.
	ctx := context.WithoutCancel(r.Context())
	result, err := h.Jobs.Run(ctx, id, h.Source())
	switch {
	case errors.Is(err, lease.ErrBusy):
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: err.Error()})
		return
	case errors.Is(err, job.ErrInvalidID):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	case err != nil:
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, ObjectsResponse{URL: result.SourceURL, Path: result.SourcePath})
}
