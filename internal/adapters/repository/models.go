package repository

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/okian/outwit/internal/domain/model"
	"github.com/okian/outwit/internal/domain/points"
)

// Castaway is the castaways table row.
type Castaway struct {
	bun.BaseModel `bun:"table:castaways,alias:c"`

	ID        int64  `bun:"id,pk"`
	Name      string `bun:"name,notnull"`
	Tribe     string `bun:"tribe,notnull"`
	Active    bool   `bun:"active,notnull"`
	BootOrder int    `bun:"boot_order,notnull"`
	Placement string `bun:"placement,notnull"`
}

// Episode is the episodes table row.
type Episode struct {
	bun.BaseModel `bun:"table:episodes,alias:e"`

	ID        int64 `bun:"id,pk"`
	Number    int   `bun:"number,notnull,unique"`
	Finalized bool  `bun:"finalized,notnull"`
	IsMerge   bool  `bun:"is_merge,notnull"`
	IsFinale  bool  `bun:"is_finale,notnull"`
}

// CastawayEvent is one logged event. The primary key is the upsert key.
type CastawayEvent struct {
	bun.BaseModel `bun:"table:castaway_events,alias:ce"`

	EpisodeID  int64  `bun:"episode_id,pk"`
	CastawayID int64  `bun:"castaway_id,pk"`
	Kind       string `bun:"kind,pk"`
}

// Player is a league member.
type Player struct {
	bun.BaseModel `bun:"table:players,alias:p"`

	ID          string `bun:"id,pk"`
	DisplayName string `bun:"display_name,notnull"`
}

// Picks holds a player's trio and icky pick.
type Picks struct {
	bun.BaseModel `bun:"table:picks,alias:pk"`

	PlayerID string `bun:"player_id,pk"`
	Trio1    int64  `bun:"trio_castaway_1,notnull"`
	Trio2    int64  `bun:"trio_castaway_2,notnull"`
	Trio3    int64  `bun:"trio_castaway_3,notnull"`
	Icky     int64  `bun:"icky_castaway,notnull"`
}

// ProphecyAnswer is one player's answer to one question.
type ProphecyAnswer struct {
	bun.BaseModel `bun:"table:prophecy_answers,alias:pa"`

	PlayerID   string `bun:"player_id,pk"`
	QuestionID int    `bun:"question_id,pk"`
	Answer     bool   `bun:"answer,notnull"`
}

// ProphecyOutcome is the resolution of a question. A NULL outcome is pending.
type ProphecyOutcome struct {
	bun.BaseModel `bun:"table:prophecy_outcomes,alias:po"`

	QuestionID int       `bun:"question_id,pk"`
	Outcome    *bool     `bun:"outcome"`
	ResolvedAt time.Time `bun:"resolved_at,nullzero"`
}

// PlayerScore is one score cache row.
type PlayerScore struct {
	bun.BaseModel `bun:"table:player_scores,alias:ps"`

	PlayerID    string `bun:"player_id,pk"`
	DisplayName string `bun:"display_name,notnull"`
	Trio        int    `bun:"trio_points,notnull"`
	Icky        int    `bun:"icky_points,notnull"`
	Prophecy    int    `bun:"prophecy_points,notnull"`
	Total       int    `bun:"total_points,notnull"`
}

// PlayerScoreTrio is the per-castaway breakdown of a cached score.
type PlayerScoreTrio struct {
	bun.BaseModel `bun:"table:player_score_trio,alias:pst"`

	PlayerID   string `bun:"player_id,pk"`
	Slot       int    `bun:"slot,pk"`
	CastawayID int64  `bun:"castaway_id,notnull"`
	Points     int    `bun:"points,notnull"`
}

func castawayFromModel(c model.Castaway) Castaway {
	return Castaway{
		ID:        c.ID,
		Name:      c.Name,
		Tribe:     c.Tribe,
		Active:    c.Active,
		BootOrder: c.BootOrder,
		Placement: c.Placement.String(),
	}
}

func (c Castaway) toModel() (model.Castaway, error) {
	placement, err := points.ParsePlacement(c.Placement)
	if err != nil {
		return model.Castaway{}, err
	}
	return model.Castaway{
		ID:        c.ID,
		Name:      c.Name,
		Tribe:     c.Tribe,
		Active:    c.Active,
		BootOrder: c.BootOrder,
		Placement: placement,
	}, nil
}

func episodeFromModel(e model.Episode) Episode {
	return Episode{ID: e.ID, Number: e.Number, Finalized: e.Finalized, IsMerge: e.IsMerge, IsFinale: e.IsFinale}
}

func (e Episode) toModel() model.Episode {
	return model.Episode{ID: e.ID, Number: e.Number, Finalized: e.Finalized, IsMerge: e.IsMerge, IsFinale: e.IsFinale}
}

func eventFromModel(ev model.CastawayEvent) CastawayEvent {
	return CastawayEvent{EpisodeID: ev.EpisodeID, CastawayID: ev.CastawayID, Kind: ev.Kind.String()}
}

func (ev CastawayEvent) toModel() (model.CastawayEvent, error) {
	kind, err := points.ParseEventKind(ev.Kind)
	if err != nil {
		return model.CastawayEvent{}, err
	}
	return model.CastawayEvent{EpisodeID: ev.EpisodeID, CastawayID: ev.CastawayID, Kind: kind}, nil
}

func picksFromModel(p model.Picks) Picks {
	return Picks{PlayerID: p.PlayerID, Trio1: p.Trio[0], Trio2: p.Trio[1], Trio3: p.Trio[2], Icky: p.Icky}
}

func (p Picks) toModel() model.Picks {
	return model.Picks{PlayerID: p.PlayerID, Trio: [3]int64{p.Trio1, p.Trio2, p.Trio3}, Icky: p.Icky}
}

func outcomeFromModel(o model.ProphecyOutcome) ProphecyOutcome {
	return ProphecyOutcome{QuestionID: o.QuestionID, Outcome: o.Outcome, ResolvedAt: o.ResolvedAt}
}

func (o ProphecyOutcome) toModel() model.ProphecyOutcome {
	return model.ProphecyOutcome{QuestionID: o.QuestionID, Outcome: o.Outcome, ResolvedAt: o.ResolvedAt}
}
