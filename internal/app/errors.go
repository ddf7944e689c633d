package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrRecomputeFailed = errors.New("recompute failed")
	ErrUnknownPlayer   = errors.New("unknown player")
	ErrUnknownEpisode  = errors.New("unknown episode")
	ErrUnknownCastaway = errors.New("unknown castaway")
	ErrInvalidEvent    = errors.New("invalid event")
	ErrInvalidQuestion = errors.New("prophecy question out of range")
	ErrInvalidLimit    = errors.New("invalid leaderboard limit")
	ErrNotScored       = errors.New("player has no cached score yet")
	ErrInvalidJob      = errors.New("invalid job")
	ErrNotStarted      = errors.New("service not started")
	ErrBackpressure    = errors.New("job queue is full")
)
