package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	service "github.com/okian/outwit/internal/app"
	"github.com/okian/outwit/internal/domain/model"
	"github.com/okian/outwit/internal/domain/points"
	"github.com/okian/outwit/pkg/logger"
)

// finalizeRequest mirrors the OpenAPI schema for POST /episodes/{id}/finalize.
type finalizeRequest struct {
	RequestID    string               `json:"request_id"`
	Events       []eventRequest       `json:"events"`
	Eliminations []eliminationRequest `json:"eliminations"`
}

type eventRequest struct {
	CastawayID int64            `json:"castaway_id"`
	Kind       points.EventKind `json:"kind"`
}

type eliminationRequest struct {
	CastawayID int64            `json:"castaway_id"`
	Placement  points.Placement `json:"placement"`
	BootOrder  int              `json:"boot_order"`
}

func (f *finalizeRequest) validate() (field string, err error) {
	if strings.TrimSpace(f.RequestID) == "" {
		return "request_id", errors.New("missing request_id")
	}
	for i, ev := range f.Events {
		if ev.CastawayID <= 0 {
			return fmt.Sprintf("events[%d].castaway_id", i), errors.New("must be a positive integer")
		}
		if !ev.Kind.Valid() {
			return fmt.Sprintf("events[%d].kind", i), errors.New("missing kind")
		}
	}
	for i, el := range f.Eliminations {
		if el.CastawayID <= 0 {
			return fmt.Sprintf("eliminations[%d].castaway_id", i), errors.New("must be a positive integer")
		}
		if el.Placement == points.PlacementNone {
			return fmt.Sprintf("eliminations[%d].placement", i), errors.New("missing placement")
		}
		if el.BootOrder < 0 {
			return fmt.Sprintf("eliminations[%d].boot_order", i), errors.New("must not be negative")
		}
	}
	return "", nil
}

func (f *finalizeRequest) job(episodeID int64) model.Job {
	job := model.Job{ID: f.RequestID, Kind: model.JobFinalize, EpisodeID: &episodeID}
	for _, ev := range f.Events {
		job.Events = append(job.Events, model.CastawayEvent{EpisodeID: episodeID, CastawayID: ev.CastawayID, Kind: ev.Kind})
	}
	for _, el := range f.Eliminations {
		job.Eliminations = append(job.Eliminations, model.Elimination{CastawayID: el.CastawayID, Placement: el.Placement, BootOrder: el.BootOrder})
	}
	return job
}

// FinalizeHandler accepts episode results for asynchronous finalization.
type FinalizeHandler struct {
	deps   JobDependencies
	logger logger.Logger
}

// NewFinalizeHandler creates a new finalize handler.
func NewFinalizeHandler(deps JobDependencies, log logger.Logger) *FinalizeHandler {
	return &FinalizeHandler{deps: deps, logger: log}
}

// HandleFinalize handles POST /episodes/{id}/finalize requests. The work is
// queued and acknowledged with 202; a repeated request_id is acknowledged
// without queueing again.
func (h *FinalizeHandler) HandleFinalize(w http.ResponseWriter, r *http.Request) {
	episodeID, err := pathInt64(r, "id")
	if err != nil {
		writeFieldError(w, "id", err)
		return
	}
	var req finalizeRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err)
		return
	}
	if field, err := req.validate(); err != nil {
		writeFieldError(w, field, err)
		return
	}

	ctx := r.Context()
	if h.deps.SeenAndRecord(ctx, req.RequestID) {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", RequestID: req.RequestID, Duplicate: true})
		return
	}
	if err := h.deps.Enqueue(ctx, req.job(episodeID)); err != nil {
		// Forget the id so the client can retry it.
		h.deps.Unrecord(ctx, req.RequestID)
		if errors.Is(err, service.ErrBackpressure) {
			h.logger.Warn(ctx, "finalize rejected", logger.String("request_id", req.RequestID), logger.Error(err))
		}
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", RequestID: req.RequestID})
}
