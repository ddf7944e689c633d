package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/outwit/internal/adapters/repository"
	"github.com/okian/outwit/internal/domain/model"
	"github.com/okian/outwit/internal/domain/picks"
	"github.com/okian/outwit/internal/domain/points"
	"github.com/okian/outwit/internal/domain/ranking"
	"github.com/okian/outwit/internal/domain/types"
	"github.com/okian/outwit/pkg/logger"
	"github.com/okian/outwit/pkg/metrics"
)

// FinalizeRequest closes an episode: the events it produced and the
// castaways who left the game in it.
type FinalizeRequest struct {
	EpisodeID    int64
	Events       []model.CastawayEvent
	Eliminations []model.Elimination
}

// FinalizeEpisode logs the episode's events, applies eliminations, marks the
// episode finalized and recomputes. Re-finalizing the same episode with the
// same events is a no-op for scores.
func (s *Service) FinalizeEpisode(ctx context.Context, req FinalizeRequest) (RecomputeResult, error) { //nolint:gocritic // hugeParam
	if err := s.checkFinalize(ctx, &req); err != nil {
		return RecomputeResult{}, err
	}

	err := s.store.FinalizeEpisode(ctx, req.EpisodeID, req.Events, req.Eliminations)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return RecomputeResult{}, fmt.Errorf("%w: %w", ErrUnknownEpisode, err)
	case err != nil:
		metrics.RecordErrorByComponent("store", "finalize")
		return RecomputeResult{}, fmt.Errorf("finalize episode %d: %w", req.EpisodeID, err)
	}
	metrics.RecordEpisodeFinalized(len(req.Events))
	s.logger.Info(ctx, "episode finalized",
		logger.Int64("episode_id", req.EpisodeID),
		logger.Int("events", len(req.Events)),
		logger.Int("eliminations", len(req.Eliminations)),
	)

	episodeID := req.EpisodeID
	return s.Recompute(ctx, Scope{EpisodeID: &episodeID})
}

// checkFinalize validates a request against the stored season and fills in
// omitted event episode ids.
func (s *Service) checkFinalize(ctx context.Context, req *FinalizeRequest) error {
	if _, err := s.store.Episode(ctx, req.EpisodeID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: %d", ErrUnknownEpisode, req.EpisodeID)
		}
		return fmt.Errorf("read episode %d: %w", req.EpisodeID, err)
	}

	season, err := s.store.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("read season: %w", err)
	}
	known := make(map[int64]struct{}, len(season.Castaways))
	for _, c := range season.Castaways {
		known[c.ID] = struct{}{}
	}

	events := make([]model.CastawayEvent, len(req.Events))
	for i, ev := range req.Events {
		if ev.EpisodeID == 0 {
			ev.EpisodeID = req.EpisodeID
		}
		switch {
		case ev.EpisodeID != req.EpisodeID:
			return fmt.Errorf("%w: event %d belongs to episode %d", ErrInvalidEvent, i, ev.EpisodeID)
		case !ev.Kind.Valid():
			return fmt.Errorf("%w: event %d has unknown kind", ErrInvalidEvent, i)
		}
		if _, ok := known[ev.CastawayID]; !ok {
			return fmt.Errorf("%w: %d", ErrUnknownCastaway, ev.CastawayID)
		}
		events[i] = ev
	}
	req.Events = events

	for _, el := range req.Eliminations {
		if _, ok := known[el.CastawayID]; !ok {
			return fmt.Errorf("%w: %d", ErrUnknownCastaway, el.CastawayID)
		}
		if el.Placement == points.PlacementNone {
			return fmt.Errorf("%w: elimination of castaway %d has no placement", ErrInvalidEvent, el.CastawayID)
		}
	}
	return nil
}

// SubmitPicks validates a submission and replaces the player's picks and
// prophecy answers. Scores change on the next recompute.
func (s *Service) SubmitPicks(ctx context.Context, playerID string, sub picks.Submission) error { //nolint:gocritic // hugeParam
	valid, err := picks.Validate(sub)
	if err != nil {
		metrics.RecordSubmission(metrics.ResultInvalid)
		metrics.RecordValidationFailure(picks.RuleName(err))
		return err
	}

	if _, err := s.store.Player(ctx, playerID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			metrics.RecordSubmission(metrics.ResultInvalid)
			return fmt.Errorf("%w: %s", ErrUnknownPlayer, playerID)
		}
		metrics.RecordSubmission(metrics.ResultFailure)
		return fmt.Errorf("read player %s: %w", playerID, err)
	}

	if err := s.store.SavePicks(ctx, valid.Picks(playerID), valid.ProphecyAnswers(playerID)); err != nil {
		metrics.RecordSubmission(metrics.ResultFailure)
		metrics.RecordErrorByComponent("store", "save_picks")
		return fmt.Errorf("save picks for %s: %w", playerID, err)
	}
	metrics.RecordSubmission(metrics.ResultSuccess)
	s.logger.Info(ctx, "picks saved", logger.String("player_id", playerID))
	return nil
}

// ResolveProphecy sets the outcome of a question, or clears it when outcome
// is nil, and recomputes.
func (s *Service) ResolveProphecy(ctx context.Context, questionID int, outcome *bool) (RecomputeResult, error) {
	if questionID < points.FirstQuestion || questionID > points.LastQuestion {
		return RecomputeResult{}, fmt.Errorf("%w: %d", ErrInvalidQuestion, questionID)
	}

	o := model.ProphecyOutcome{QuestionID: questionID, Outcome: outcome}
	if outcome != nil {
		o.ResolvedAt = s.now().UTC()
	}
	if err := s.store.SetProphecyOutcome(ctx, o); err != nil {
		metrics.RecordErrorByComponent("store", "prophecy_outcome")
		return RecomputeResult{}, fmt.Errorf("resolve question %d: %w", questionID, err)
	}
	metrics.RecordProphecyResolved()
	s.logger.Info(ctx, "prophecy resolved",
		logger.Int("question_id", questionID),
		logger.Bool("resolved", outcome != nil),
	)
	return s.Recompute(ctx, Scope{})
}

// Leaderboard ranks every cached score and returns the top limit rows.
// A zero limit returns everything; limits above the configured maximum are
// clamped.
func (s *Service) Leaderboard(ctx context.Context, limit int) ([]types.Entry, error) {
	if limit < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}
	if limit == 0 || limit > s.maxLeaderboard {
		limit = s.maxLeaderboard
	}

	ranked, err := s.ranked(ctx)
	if err != nil {
		return nil, err
	}
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	out := make([]types.Entry, len(ranked))
	for i, r := range ranked {
		out[i] = types.FromRanked(r)
	}
	return out, nil
}

// PlayerScore returns one player's ranked row with its trio breakdown.
func (s *Service) PlayerScore(ctx context.Context, playerID string) (types.PlayerDetail, error) {
	if _, err := s.store.Player(ctx, playerID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return types.PlayerDetail{}, fmt.Errorf("%w: %s", ErrUnknownPlayer, playerID)
		}
		return types.PlayerDetail{}, fmt.Errorf("read player %s: %w", playerID, err)
	}

	row, err := s.store.Score(ctx, playerID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return types.PlayerDetail{}, fmt.Errorf("%w: %s", ErrNotScored, playerID)
	case err != nil:
		return types.PlayerDetail{}, fmt.Errorf("read score %s: %w", playerID, err)
	}

	ranked, err := s.ranked(ctx)
	if err != nil {
		return types.PlayerDetail{}, err
	}
	for _, r := range ranked {
		if r.PlayerID == playerID {
			return types.PlayerDetail{Entry: types.FromRanked(r), Trio: types.TrioDetail(row.TrioDetail)}, nil
		}
	}
	// The cache was replaced between the two reads.
	return types.PlayerDetail{}, fmt.Errorf("%w: %s", ErrNotScored, playerID)
}

func (s *Service) ranked(ctx context.Context) ([]ranking.Ranked, error) {
	rows, err := s.store.Scores(ctx)
	if err != nil {
		metrics.RecordErrorByComponent("store", "read_scores")
		return nil, fmt.Errorf("read scores: %w", err)
	}
	standings := make([]ranking.Standing, len(rows))
	for i, r := range rows {
		standings[i] = ranking.Standing{
			PlayerID:    r.PlayerID,
			DisplayName: r.DisplayName,
			Trio:        r.Trio,
			Icky:        r.Icky,
			Prophecy:    r.Prophecy,
			Total:       r.Total,
		}
	}
	return ranking.Rank(standings), nil
}
