package simulator

import (
	"fmt"

	"github.com/google/go-cmp/cmp"

	service "github.com/okian/outwit/internal/app"
	"github.com/okian/outwit/internal/domain/model"
	"github.com/okian/outwit/internal/domain/ranking"
	"github.com/okian/outwit/internal/domain/scoring"
	"github.com/okian/outwit/internal/domain/types"
)

// Played returns season as it should look on the server once sc has been
// fully applied.
func Played(season model.Season, sc Scenario) model.Season { //nolint:gocritic // hugeParam
	out := season
	out.Castaways = append([]model.Castaway(nil), season.Castaways...)
	out.Episodes = append([]model.Episode(nil), season.Episodes...)

	index := make(map[int64]int, len(out.Castaways))
	for i, c := range out.Castaways {
		index[c.ID] = i
	}
	finalized := make(map[int64]bool, len(sc.Episodes))
	for _, ep := range sc.Episodes {
		finalized[ep.ID] = true
		out.Events = append(out.Events, ep.Events...)
		for _, el := range ep.Eliminations {
			c := &out.Castaways[index[el.CastawayID]]
			c.Active = false
			c.Placement = el.Placement
			c.BootOrder = el.BootOrder
		}
	}
	for i := range out.Episodes {
		out.Episodes[i].Finalized = out.Episodes[i].Finalized || finalized[out.Episodes[i].ID]
	}
	out.Picks = append(out.Picks, sc.Picks...)
	out.Answers = append(out.Answers, sc.Answers...)
	out.Outcomes = append(out.Outcomes, sc.Outcomes...)
	return out
}

// ExpectedLeaderboard scores season offline with the default point tables.
func ExpectedLeaderboard(season model.Season) []types.Entry { //nolint:gocritic // hugeParam
	rows := service.BuildScores(scoring.NewCalculator(), season)
	standings := make([]ranking.Standing, len(rows))
	for i, r := range rows {
		standings[i] = ranking.Standing{
			PlayerID:    r.PlayerID,
			DisplayName: r.DisplayName,
			Trio:        r.Trio,
			Icky:        r.Icky,
			Prophecy:    r.Prophecy,
			Total:       r.Total,
		}
	}
	ranked := ranking.Rank(standings)
	out := make([]types.Entry, len(ranked))
	for i, r := range ranked {
		out[i] = types.FromRanked(r)
	}
	return out
}

// verify compares the served rows with the head of the expected leaderboard.
func verify(got, want []types.Entry) error {
	if len(got) > len(want) {
		return fmt.Errorf("%w: server returned %d rows for %d players", ErrMismatch, len(got), len(want))
	}
	if diff := cmp.Diff(want[:len(got)], got); diff != "" {
		return fmt.Errorf("%w (-want +got):\n%s", ErrMismatch, diff)
	}
	return nil
}
