// Package simulator generates fake seasons and plays them against a running
// outwit server, then checks the served leaderboard against an offline
// recompute of the same season.
package simulator

import (
	"time"

	"github.com/okian/outwit/pkg/logger"
)

// Config holds configuration for a simulated season.
type Config struct {
	BaseURL string        // Base URL of the service
	Seed    uint64        // Faker seed; the same seed replays the same season
	Workers int           // Concurrent pick submitters
	Timeout time.Duration // HTTP request timeout
	Wait    time.Duration // How long to wait for queued finalize jobs
	Verbose bool
	Logger  logger.Logger // nil discards
}

func (c *Config) log() logger.Logger {
	if c.Logger == nil {
		return logger.Discard()
	}
	return c.Logger
}

// Roster sizes a generated season file.
type Roster struct {
	Episodes int // Castaways are Episodes+2 so the finale has three left
	Players  int
}

// Stats holds run statistics.
type Stats struct {
	PicksSubmitted     int
	PicksFailed        int
	EpisodesFinalized  int
	DuplicatesAcked    int
	ProphecyResolved   int
	LeaderboardEntries int
	StartTime          time.Time
	Duration           time.Duration
}
