package routes

import (
	"fmt"
	"net/http"

	"vodforge/job"
	"vodforge/logger"
	"vodforge/models"
)

// JobStatusResponse represents the job status response
type JobStatusResponse struct {
	ObjectID string       `json:"objectId"`
	Phase    models.Phase `json:"phase"`
}

// StatusHandler returns the phase of a job by object id
func (h *Handlers) StatusHandler(w http.ResponseWriter, r *http.Request) {
	id, err := job.SanitizeID(r.URL.Query().Get("objectId"))
	if err != nil {
		logger.Warn("Missing objectId parameter in status request")
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "missing objectId"})
		return
	}

	phase, ok := h.Status.Get(id)
	if !ok {
		logger.Debugf("Job not found: %s", id)
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: fmt.Sprintf("job %s not found", id)})
		return
	}

	writeJSON(w, http.StatusOK, JobStatusResponse{ObjectID: id, Phase: phase})
}
