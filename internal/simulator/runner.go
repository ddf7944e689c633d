package simulator

import (
	"context"
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/okian/outwit/internal/domain/model"
	"github.com/okian/outwit/pkg/logger"
)

// Run plays a scripted season against the server at cfg.BaseURL. The server
// must have been seeded with season and nothing else: no picks, events or
// outcomes beyond what the season carries.
func Run(ctx context.Context, cfg *Config, season model.Season) (*Stats, error) { //nolint:gocritic // hugeParam
	stats := &Stats{StartTime: time.Now()}
	log := cfg.log()

	sc, err := GenerateScenario(gofakeit.New(cfg.Seed), season)
	if err != nil {
		return stats, err
	}
	log.Info(ctx, "starting season simulation",
		logger.String("base_url", cfg.BaseURL),
		logger.Any("seed", cfg.Seed),
		logger.Int("players", len(sc.Picks)),
		logger.Int("episodes", len(sc.Episodes)),
		logger.Int("workers", cfg.Workers),
	)

	c := newClient(cfg.BaseURL, cfg.Timeout)
	if err := submitPicks(ctx, c, cfg, &sc, stats); err != nil {
		return stats, fmt.Errorf("submit picks: %w", err)
	}

	// Episodes go in order; each waits for its worker so eliminations land
	// before the next episode's events.
	var jobs int64
	for i, ep := range sc.Episodes {
		requestID := fmt.Sprintf("sim-%d-episode-%d", cfg.Seed, ep.ID)
		if _, err := finalize(ctx, c, ep, requestID); err != nil {
			return stats, err
		}
		jobs++
		if err := waitProcessed(ctx, c, jobs, cfg.Wait); err != nil {
			return stats, fmt.Errorf("finalize episode %d: %w", ep.ID, err)
		}
		stats.EpisodesFinalized++

		if i == 0 {
			dup, err := finalize(ctx, c, ep, requestID)
			if err != nil {
				return stats, err
			}
			if !dup {
				return stats, fmt.Errorf("%w: replayed request %s was not a duplicate", ErrMismatch, requestID)
			}
			stats.DuplicatesAcked++
		}
		if cfg.Verbose {
			log.Info(ctx, "episode finalized", logger.Int64("episode_id", ep.ID), logger.Int("events", len(ep.Events)))
		}
	}

	for _, o := range sc.Outcomes {
		if err := resolve(ctx, c, o); err != nil {
			return stats, err
		}
		stats.ProphecyResolved++
	}

	if err := recompute(ctx, c); err != nil {
		return stats, fmt.Errorf("recompute: %w", err)
	}
	got, err := leaderboard(ctx, c)
	if err != nil {
		return stats, err
	}
	stats.LeaderboardEntries = len(got)
	stats.Duration = time.Since(stats.StartTime)

	if err := verify(got, ExpectedLeaderboard(Played(season, sc))); err != nil {
		return stats, err
	}
	log.Info(ctx, "season simulation passed",
		logger.Int("picks", stats.PicksSubmitted),
		logger.Int("episodes", stats.EpisodesFinalized),
		logger.Int("leaderboard_rows", stats.LeaderboardEntries),
		logger.Duration("took", stats.Duration),
	)
	return stats, nil
}
