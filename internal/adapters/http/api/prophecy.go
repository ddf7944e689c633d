package api

import (
	"net/http"
)

type resolveRequest struct {
	// Outcome null clears an earlier resolution.
	Outcome *bool `json:"outcome"`
}

// ProphecyHandler resolves prophecy questions.
type ProphecyHandler struct {
	deps ScoringDependencies
}

// NewProphecyHandler creates a new prophecy handler.
func NewProphecyHandler(deps ScoringDependencies) *ProphecyHandler {
	return &ProphecyHandler{deps: deps}
}

// HandleResolve handles POST /prophecy/{id}/resolve requests.
func (h *ProphecyHandler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	questionID, err := pathInt64(r, "id")
	if err != nil {
		writeFieldError(w, "id", err)
		return
	}
	var req resolveRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err)
		return
	}
	res, err := h.deps.ResolveProphecy(r.Context(), int(questionID), req.Outcome)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newRecomputeResponse(res))
}
