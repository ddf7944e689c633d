package simulator

import "errors"

var (
	// ErrBadSeason indicates the season cannot be scripted.
	ErrBadSeason = errors.New("season cannot be simulated")
	// ErrUnexpectedStatus indicates the server answered with an unexpected status.
	ErrUnexpectedStatus = errors.New("unexpected status")
	// ErrMismatch indicates the served leaderboard differs from the offline one.
	ErrMismatch = errors.New("leaderboard mismatch")
	// ErrTimeout indicates queued jobs did not finish in time.
	ErrTimeout = errors.New("timed out waiting for jobs")
)
