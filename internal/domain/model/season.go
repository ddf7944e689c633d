// Package model contains domain models passed between layers.
package model

import (
	"time"

	"github.com/okian/outwit/internal/domain/points"
)

// Castaway is a contestant. Placement stays PlacementNone while active.
type Castaway struct {
	ID        int64
	Name      string
	Tribe     string
	Active    bool
	BootOrder int // 0 while active
	Placement points.Placement
}

// Episode is one aired episode of the season.
type Episode struct {
	ID        int64
	Number    int
	Finalized bool
	IsMerge   bool
	IsFinale  bool
}

// CastawayEvent is an immutable fact logged when an episode is finalized.
// (EpisodeID, CastawayID, Kind) is unique; logging it again overwrites.
type CastawayEvent struct {
	EpisodeID  int64
	CastawayID int64
	Kind       points.EventKind
}

// Key returns the upsert key of the event.
func (e CastawayEvent) Key() EventKey {
	return EventKey{EpisodeID: e.EpisodeID, CastawayID: e.CastawayID, Kind: e.Kind}
}

// EventKey identifies an event for upserts.
type EventKey struct {
	EpisodeID  int64
	CastawayID int64
	Kind       points.EventKind
}

// Elimination records a castaway leaving the game in a finalized episode.
type Elimination struct {
	CastawayID int64
	Placement  points.Placement
	BootOrder  int
}

// Player is a league member who can submit picks.
type Player struct {
	ID          string
	DisplayName string
}

// Picks is a player's trusted trio and icky pick.
type Picks struct {
	PlayerID string
	Trio     [3]int64
	Icky     int64
}

// ProphecyAnswer is one player's yes/no prediction for a question.
type ProphecyAnswer struct {
	PlayerID   string
	QuestionID int
	Answer     bool
}

// ProphecyOutcome is the resolution of a question. A nil Outcome is pending.
type ProphecyOutcome struct {
	QuestionID int
	Outcome    *bool
	ResolvedAt time.Time
}

// Resolved reports whether the outcome has been decided.
func (o ProphecyOutcome) Resolved() bool { return o.Outcome != nil }

// Season is the full set of scoring sources at one point in time.
type Season struct {
	Castaways []Castaway
	Episodes  []Episode
	Events    []CastawayEvent
	Players   []Player
	Picks     []Picks
	Answers   []ProphecyAnswer
	Outcomes  []ProphecyOutcome
}
