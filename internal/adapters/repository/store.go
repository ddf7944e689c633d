// Package repository persists the season sources and the score cache.
package repository

import (
	"context"

	"github.com/okian/outwit/internal/domain/model"
)

// SeasonReader reads scoring sources.
type SeasonReader interface {
	// Snapshot returns every source in one consistent read.
	Snapshot(ctx context.Context) (model.Season, error)

	// Player returns ErrNotFound if the player is unknown.
	Player(ctx context.Context, id string) (model.Player, error)

	// Episode returns ErrNotFound if the episode is unknown.
	Episode(ctx context.Context, id int64) (model.Episode, error)
}

// SeasonWriter mutates scoring sources.
type SeasonWriter interface {
	// Seed upserts everything in s. Existing rows with the same keys are overwritten.
	Seed(ctx context.Context, s model.Season) error

	// SavePicks replaces a player's picks and every prophecy answer they gave.
	SavePicks(ctx context.Context, p model.Picks, answers []model.ProphecyAnswer) error

	// FinalizeEpisode upserts events on (episode, castaway, kind), applies
	// eliminations and marks the episode finalized, all or nothing.
	FinalizeEpisode(ctx context.Context, episodeID int64, events []model.CastawayEvent, eliminations []model.Elimination) error

	// SetProphecyOutcome stores or clears the outcome of one question.
	SetProphecyOutcome(ctx context.Context, o model.ProphecyOutcome) error
}

// ScoreCache holds derived player scores.
type ScoreCache interface {
	// ReplaceScores swaps the whole cache atomically. On error the previous
	// cache is left untouched.
	ReplaceScores(ctx context.Context, scores []model.PlayerScore) error

	// Scores returns every cached row ordered by player id.
	Scores(ctx context.Context) ([]model.PlayerScore, error)

	// Score returns ErrNotFound if the player has no cached row.
	Score(ctx context.Context, playerID string) (model.PlayerScore, error)
}

// Store is everything the application needs from persistence.
type Store interface {
	SeasonReader
	SeasonWriter
	ScoreCache
	Close() error
}
