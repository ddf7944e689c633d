package api

import (
	"net/http"
	"strings"

	service "github.com/okian/outwit/internal/app"
	"github.com/okian/outwit/internal/domain/model"
	"github.com/okian/outwit/pkg/logger"
)

type recomputeRequest struct {
	EpisodeID *int64 `json:"episode_id"`
	// RequestID, when set, queues the run and answers 202.
	RequestID string `json:"request_id"`
}

// RecomputeHandler rebuilds the score cache on demand.
type RecomputeHandler struct {
	scoring ScoringDependencies
	jobs    JobDependencies
	logger  logger.Logger
}

// NewRecomputeHandler creates a new recompute handler.
func NewRecomputeHandler(scoring ScoringDependencies, jobs JobDependencies, log logger.Logger) *RecomputeHandler {
	return &RecomputeHandler{scoring: scoring, jobs: jobs, logger: log}
}

// HandleRecompute handles POST /recompute requests.
func (h *RecomputeHandler) HandleRecompute(w http.ResponseWriter, r *http.Request) {
	var req recomputeRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err)
		return
	}
	if req.EpisodeID != nil && *req.EpisodeID <= 0 {
		writeFieldError(w, "episode_id", ErrBadRequest)
		return
	}

	ctx := r.Context()
	if id := strings.TrimSpace(req.RequestID); id != "" {
		if h.jobs.SeenAndRecord(ctx, id) {
			writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", RequestID: id, Duplicate: true})
			return
		}
		if err := h.jobs.Enqueue(ctx, model.Job{ID: id, Kind: model.JobRecompute, EpisodeID: req.EpisodeID}); err != nil {
			h.jobs.Unrecord(ctx, id)
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", RequestID: id})
		return
	}

	res, err := h.scoring.Recompute(ctx, service.Scope{EpisodeID: req.EpisodeID})
	if err != nil {
		h.logger.Error(ctx, "recompute request failed", logger.Error(err))
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newRecomputeResponse(res))
}
