// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	service "github.com/okian/outwit/internal/app"
	"github.com/okian/outwit/internal/domain/model"
	"github.com/okian/outwit/internal/domain/picks"
	"github.com/okian/outwit/internal/domain/types"
	"github.com/okian/outwit/pkg/logger"
)

const maxBodyBytes = 1 << 20

// JobDependencies accepts asynchronous work keyed by a client request id.
type JobDependencies interface {
	SeenAndRecord(ctx context.Context, id string) bool
	Unrecord(ctx context.Context, id string)
	Enqueue(ctx context.Context, job model.Job) error
}

// ScoringDependencies runs the season operations.
type ScoringDependencies interface {
	Recompute(ctx context.Context, scope service.Scope) (service.RecomputeResult, error)
	SubmitPicks(ctx context.Context, playerID string, sub picks.Submission) error
	ResolveProphecy(ctx context.Context, questionID int, outcome *bool) (service.RecomputeResult, error)
}

// ReadDependencies exposes leaderboard data.
type ReadDependencies interface {
	Leaderboard(ctx context.Context, limit int) ([]types.Entry, error)
	PlayerScore(ctx context.Context, playerID string) (types.PlayerDetail, error)
}

// Dependencies required by HTTP handlers. *service.Service satisfies it.
type Dependencies interface {
	JobDependencies
	ScoringDependencies
	ReadDependencies
	StatsProvider
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	finalizeHandler    *FinalizeHandler
	recomputeHandler   *RecomputeHandler
	prophecyHandler    *ProphecyHandler
	playersHandler     *PlayersHandler
	leaderboardHandler *LeaderboardHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, log logger.Logger) *Server {
	if log == nil {
		log = logger.Discard()
	}
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(deps),
		finalizeHandler:    NewFinalizeHandler(deps, log),
		recomputeHandler:   NewRecomputeHandler(deps, deps, log),
		prophecyHandler:    NewProphecyHandler(deps),
		playersHandler:     NewPlayersHandler(deps, deps),
		leaderboardHandler: NewLeaderboardHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("POST /recompute", MetricsMiddleware(s.recomputeHandler.HandleRecompute, "recompute"))
	mux.HandleFunc("POST /players/{id}/picks", MetricsMiddleware(s.playersHandler.HandleSubmitPicks, "picks"))
	mux.HandleFunc("GET /players/{id}/score", MetricsMiddleware(s.playersHandler.HandleGetScore, "score"))
	mux.HandleFunc("POST /episodes/{id}/finalize", MetricsMiddleware(s.finalizeHandler.HandleFinalize, "finalize"))
	mux.HandleFunc("POST /prophecy/{id}/resolve", MetricsMiddleware(s.prophecyHandler.HandleResolve, "prophecy"))
	mux.HandleFunc("GET /leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
}

type ackResponse struct {
	Status    string `json:"status"`
	RequestID string `json:"request_id,omitempty"`
	Duplicate bool   `json:"duplicate"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

type recomputeResponse struct {
	RunID      string `json:"run_id"`
	EpisodeID  *int64 `json:"episode_id"`
	Players    int    `json:"players"`
	DurationMS int64  `json:"duration_ms"`
}

func newRecomputeResponse(res service.RecomputeResult) recomputeResponse { //nolint:gocritic // hugeParam
	return recomputeResponse{
		RunID:      res.RunID.String(),
		EpisodeID:  res.Scope.EpisodeID,
		Players:    res.Players,
		DurationMS: res.Duration.Milliseconds(),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

func writeFieldError(w http.ResponseWriter, field string, err error) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Code: codeValidationFailed, Field: field, Message: err.Error()})
}

// decodeBody reads a JSON body into v. An empty body leaves v untouched.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return nil
}

func pathInt64(r *http.Request, name string) (int64, error) {
	raw := r.PathValue(name)
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer, got %q", ErrBadRequest, name, raw)
	}
	return n, nil
}
