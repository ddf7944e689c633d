// Package types contains the read shapes the API returns.
package types

import (
	"github.com/okian/outwit/internal/domain/model"
	"github.com/okian/outwit/internal/domain/ranking"
)

// Entry is one leaderboard row.
type Entry struct {
	Rank           int    `json:"rank"`
	IsTied         bool   `json:"is_tied"`
	PlayerID       string `json:"player_id"`
	DisplayName    string `json:"display_name"`
	TotalPoints    int    `json:"total_points"`
	TrioPoints     int    `json:"trio_points"`
	IckyPoints     int    `json:"icky_points"`
	ProphecyPoints int    `json:"prophecy_points"`
}

// CastawayPoints is one trio member's contribution.
type CastawayPoints struct {
	CastawayID int64 `json:"castaway_id"`
	Points     int   `json:"points"`
}

// PlayerDetail is a leaderboard row with its trio breakdown.
type PlayerDetail struct {
	Entry
	Trio []CastawayPoints `json:"trio"`
}

// FromRanked converts a ranked standing to its API shape.
func FromRanked(r ranking.Ranked) Entry {
	return Entry{
		Rank:           r.Rank,
		IsTied:         r.IsTied,
		PlayerID:       r.PlayerID,
		DisplayName:    r.DisplayName,
		TotalPoints:    r.Total,
		TrioPoints:     r.Trio,
		IckyPoints:     r.Icky,
		ProphecyPoints: r.Prophecy,
	}
}

// TrioDetail converts cached castaway scores to their API shape.
func TrioDetail(scores []model.CastawayScore) []CastawayPoints {
	out := make([]CastawayPoints, len(scores))
	for i, s := range scores {
		out[i] = CastawayPoints{CastawayID: s.CastawayID, Points: s.Points}
	}
	return out
}
