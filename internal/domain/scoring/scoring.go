// Package scoring turns raw events, picks and prophecy answers into point
// totals. Every function here is pure: no I/O, no clock, no shared state.
package scoring

import (
	"github.com/okian/outwit/internal/domain/model"
	"github.com/okian/outwit/internal/domain/points"
)

// EpisodeNumberFunc resolves an episode id to its sequential number.
// The bool is false for unknown episodes.
type EpisodeNumberFunc func(episodeID int64) (int, bool)

// EpisodeNumbers builds an EpisodeNumberFunc over a set of episodes.
func EpisodeNumbers(episodes []model.Episode) EpisodeNumberFunc {
	byID := make(map[int64]int, len(episodes))
	for _, ep := range episodes {
		byID[ep.ID] = ep.Number
	}
	return func(id int64) (int, bool) {
		n, ok := byID[id]
		return n, ok
	}
}

// Option applies a configuration option to the Calculator.
type Option func(*Calculator)

// WithTables replaces the standard scoring tables.
func WithTables(t *points.Tables) Option {
	return func(c *Calculator) {
		if t != nil {
			c.tables = t
		}
	}
}

// Calculator evaluates every scoring bucket against one set of tables.
type Calculator struct {
	tables *points.Tables
}

// NewCalculator creates a calculator over the standard tables unless an
// option supplies others.
func NewCalculator(opts ...Option) *Calculator {
	c := &Calculator{tables: points.Standard()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Tables returns the tables the calculator scores with.
func (c *Calculator) Tables() *points.Tables { return c.tables }

// CastawayPoints sums the points one castaway earned across events.
// Events for other castaways are ignored. Survived episodes score by the
// episode's phase; an episode the resolver does not know counts as number 0.
func (c *Calculator) CastawayPoints(castawayID int64, events []model.CastawayEvent, episodeNumber EpisodeNumberFunc) int {
	total := 0
	for _, ev := range events {
		if ev.CastawayID != castawayID {
			continue
		}
		total += c.eventValue(ev, episodeNumber)
	}
	return total
}

func (c *Calculator) eventValue(ev model.CastawayEvent, episodeNumber EpisodeNumberFunc) int {
	if ev.Kind != points.EventSurvivedEpisode {
		return c.tables.Event(ev.Kind)
	}
	n := 0
	if episodeNumber != nil {
		if num, ok := episodeNumber(ev.EpisodeID); ok {
			n = num
		}
	}
	return c.tables.SurvivalPoints(n)
}

// TrioPoints sums CastawayPoints over a player's three trusted castaways.
func (c *Calculator) TrioPoints(trio [3]int64, events []model.CastawayEvent, episodeNumber EpisodeNumberFunc) int {
	total := 0
	for _, s := range c.TrioBreakdown(trio, events, episodeNumber) {
		total += s.Points
	}
	return total
}

// TrioBreakdown returns each trio member's points, in trio order.
func (c *Calculator) TrioBreakdown(trio [3]int64, events []model.CastawayEvent, episodeNumber EpisodeNumberFunc) []model.CastawayScore {
	out := make([]model.CastawayScore, len(trio))
	for i, id := range trio {
		out[i] = model.CastawayScore{
			CastawayID: id,
			Points:     c.CastawayPoints(id, events, episodeNumber),
		}
	}
	return out
}

// IckyPoints scores an icky pick by the castaway's terminal placement.
func (c *Calculator) IckyPoints(p points.Placement) int {
	return c.tables.Icky(p)
}

// ProphecyPoints awards each answer its question's tier when a resolved
// outcome matches it. Pending or missing outcomes award nothing.
func (c *Calculator) ProphecyPoints(answers []model.ProphecyAnswer, outcomes []model.ProphecyOutcome) int {
	if len(answers) == 0 {
		return 0
	}
	resolved := make(map[int]bool, len(outcomes))
	for _, o := range outcomes {
		if o.Outcome != nil {
			resolved[o.QuestionID] = *o.Outcome
		} else {
			delete(resolved, o.QuestionID)
		}
	}
	total := 0
	for _, a := range answers {
		outcome, ok := resolved[a.QuestionID]
		if ok && outcome == a.Answer {
			total += c.tables.ProphecyTier(a.QuestionID)
		}
	}
	return total
}
