package model

import "time"

// JobKind names the work a queued job performs.
type JobKind string

// Job kinds.
const (
	JobFinalize  JobKind = "finalize"
	JobRecompute JobKind = "recompute"
)

// Job is a unit of asynchronous commissioner work. ID is the caller's
// request id and is used for deduplication.
type Job struct {
	ID           string
	Kind         JobKind
	EpisodeID    *int64
	Events       []CastawayEvent
	Eliminations []Elimination
	EnqueuedAt   time.Time
}
