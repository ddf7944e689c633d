package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/okian/outwit/internal/domain/model"
	"github.com/okian/outwit/internal/domain/points"
	"github.com/okian/outwit/internal/domain/scoring"
	"github.com/okian/outwit/pkg/logger"
	"github.com/okian/outwit/pkg/metrics"
)

// Scope names what triggered a recompute. Every run rebuilds from the full
// history regardless; EpisodeID is recorded for logs and metrics only.
type Scope struct {
	EpisodeID *int64
}

func (sc Scope) label() string {
	if sc.EpisodeID == nil {
		return metrics.ScopeAll
	}
	return metrics.ScopeEpisode
}

// RecomputeResult describes a finished run.
type RecomputeResult struct {
	RunID      uuid.UUID
	Scope      Scope
	Players    int
	Duration   time.Duration
	FinishedAt time.Time
}

// Recompute rebuilds the score cache for every player from the season
// sources. Rows are computed in memory and swapped in with one atomic store
// write, so a failed run leaves the previous cache in place. Running it twice
// over unchanged sources yields identical cache contents.
func (s *Service) Recompute(ctx context.Context, scope Scope) (RecomputeResult, error) {
	s.recomputeMu.Lock()
	defer s.recomputeMu.Unlock()

	res := RecomputeResult{RunID: uuid.New(), Scope: scope}
	start := time.Now()
	fields := []logger.Field{logger.String("run_id", res.RunID.String()), logger.String("scope", scope.label())}
	if scope.EpisodeID != nil {
		fields = append(fields, logger.Int64("episode_id", *scope.EpisodeID))
	}

	if s.recomputeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.recomputeTimeout)
		defer cancel()
	}

	fail := func(stage string, err error) (RecomputeResult, error) {
		metrics.RecordRecompute(scope.label(), metrics.ResultFailure, time.Since(start))
		metrics.RecordErrorByComponent("recompute", stage)
		s.logger.Error(ctx, "recompute failed", append(fields, logger.String("stage", stage), logger.Error(err))...)
		return RecomputeResult{}, fmt.Errorf("%w: %s: %w", ErrRecomputeFailed, stage, err)
	}

	season, err := s.store.Snapshot(ctx)
	if err != nil {
		return fail("read", err)
	}

	scores := BuildScores(s.calculator, season)

	// A cancelled run must not write.
	if err := ctx.Err(); err != nil {
		return fail("cancelled", err)
	}
	if err := s.store.ReplaceScores(ctx, scores); err != nil {
		return fail("write", err)
	}

	res.Players = len(scores)
	res.Duration = time.Since(start)
	res.FinishedAt = s.now()
	s.lastRun.Store(&res)

	metrics.RecordRecompute(scope.label(), metrics.ResultSuccess, res.Duration)
	metrics.UpdatePlayersScored(res.Players)
	s.logger.Info(ctx, "recompute finished", append(fields,
		logger.Int("players", res.Players),
		logger.Duration("took", res.Duration),
	)...)
	return res, nil
}

// BuildScores computes one cache row per player, ordered by player id.
// Players without picks or answers score zero in those buckets.
func BuildScores(calc *scoring.Calculator, season model.Season) []model.PlayerScore {
	episodeNumber := scoring.EpisodeNumbers(season.Episodes)

	placements := make(map[int64]points.Placement, len(season.Castaways))
	for _, c := range season.Castaways {
		placements[c.ID] = c.Placement
	}

	// Only events for picked castaways can score, so index them once.
	eventsByCastaway := make(map[int64][]model.CastawayEvent)
	for _, ev := range season.Events {
		eventsByCastaway[ev.CastawayID] = append(eventsByCastaway[ev.CastawayID], ev)
	}

	picksByPlayer := make(map[string]model.Picks, len(season.Picks))
	for _, p := range season.Picks {
		picksByPlayer[p.PlayerID] = p
	}
	answersByPlayer := make(map[string][]model.ProphecyAnswer)
	for _, a := range season.Answers {
		answersByPlayer[a.PlayerID] = append(answersByPlayer[a.PlayerID], a)
	}

	scores := make([]model.PlayerScore, 0, len(season.Players))
	for _, player := range season.Players {
		row := model.PlayerScore{PlayerID: player.ID, DisplayName: player.DisplayName}

		if p, ok := picksByPlayer[player.ID]; ok {
			var trioEvents []model.CastawayEvent
			for _, id := range p.Trio {
				trioEvents = append(trioEvents, eventsByCastaway[id]...)
			}
			row.TrioDetail = calc.TrioBreakdown(p.Trio, trioEvents, episodeNumber)
			for _, cs := range row.TrioDetail {
				row.Trio += cs.Points
			}
			// Unknown castaways are still in the game as far as scoring goes.
			row.Icky = calc.IckyPoints(placements[p.Icky])
		}
		row.Prophecy = calc.ProphecyPoints(answersByPlayer[player.ID], season.Outcomes)
		row.Total = row.Trio + row.Icky + row.Prophecy
		scores = append(scores, row)
	}
	return scores
}
