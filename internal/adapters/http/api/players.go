package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/okian/outwit/internal/domain/picks"
)

// PlayersHandler handles per-player requests.
type PlayersHandler struct {
	scoring ScoringDependencies
	reads   ReadDependencies
}

// NewPlayersHandler creates a new players handler.
func NewPlayersHandler(scoring ScoringDependencies, reads ReadDependencies) *PlayersHandler {
	return &PlayersHandler{scoring: scoring, reads: reads}
}

func playerID(r *http.Request) (string, error) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		return "", errors.New("missing player id")
	}
	return id, nil
}

// HandleSubmitPicks handles POST /players/{id}/picks requests.
func (h *PlayersHandler) HandleSubmitPicks(w http.ResponseWriter, r *http.Request) {
	id, err := playerID(r)
	if err != nil {
		writeFieldError(w, "id", err)
		return
	}
	var sub picks.Submission
	if err := decodeBody(w, r, &sub); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err)
		return
	}
	if err := h.scoring.SubmitPicks(r.Context(), id, sub); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ackResponse{Status: "saved"})
}

// HandleGetScore handles GET /players/{id}/score requests.
func (h *PlayersHandler) HandleGetScore(w http.ResponseWriter, r *http.Request) {
	id, err := playerID(r)
	if err != nil {
		writeFieldError(w, "id", err)
		return
	}
	detail, err := h.reads.PlayerScore(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}
