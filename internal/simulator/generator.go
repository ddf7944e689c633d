package simulator

import (
	"fmt"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/okian/outwit/internal/adapters/repository"
	"github.com/okian/outwit/internal/domain/model"
	"github.com/okian/outwit/internal/domain/points"
)

// Episode is one scripted finalize call.
type Episode struct {
	ID           int64
	Events       []model.CastawayEvent
	Eliminations []model.Elimination
}

// Scenario is everything the simulator sends after the season is seeded.
type Scenario struct {
	Picks    []model.Picks
	Answers  []model.ProphecyAnswer
	Episodes []Episode
	Outcomes []model.ProphecyOutcome
}

// scoredKinds are the events a script may log besides survival and exits.
var scoredKinds = []points.EventKind{
	points.EventIdolFound,
	points.EventAdvantageFound,
	points.EventIdolPlayedCorrectly,
	points.EventIdolPlayedIncorrectly,
	points.EventAdvantagePlayed,
	points.EventShotInTheDarkSuccess,
	points.EventShotInTheDarkFailed,
	points.EventIndividualImmunityWin,
	points.EventIndividualRewardWin,
	points.EventTribalImmunityWin,
	points.EventTribalRewardWin,
}

// GenerateRoster builds a season file with fake names.
func GenerateRoster(f *gofakeit.Faker, r Roster) repository.SeedFile {
	var out repository.SeedFile
	tribes := []string{f.Color(), f.Color()}
	for i := 0; i < r.Episodes+2; i++ {
		out.Castaways = append(out.Castaways, repository.SeedCastaway{
			ID:    int64(i + 1),
			Name:  f.FirstName(),
			Tribe: tribes[i%len(tribes)],
		})
	}
	merge := r.Episodes/2 + 1
	for i := 1; i <= r.Episodes; i++ {
		out.Episodes = append(out.Episodes, repository.SeedEpisode{
			ID:     int64(100 + i),
			Number: i,
			Merge:  i == merge,
			Finale: i == r.Episodes,
		})
	}
	for i := 1; i <= r.Players; i++ {
		out.Players = append(out.Players, repository.SeedPlayer{
			ID:          fmt.Sprintf("p%03d", i),
			DisplayName: f.FirstName() + " " + f.LastName(),
		})
	}
	return out
}

// GenerateScenario scripts picks, one exit per episode and a three-way
// finale, and an outcome for every prophecy question. The season's
// castaways must all be active and number at least episodes+2.
func GenerateScenario(f *gofakeit.Faker, season model.Season) (Scenario, error) { //nolint:gocritic // hugeParam
	if len(season.Episodes) == 0 {
		return Scenario{}, fmt.Errorf("%w: no episodes", ErrBadSeason)
	}
	if len(season.Castaways) < len(season.Episodes)+2 {
		return Scenario{}, fmt.Errorf("%w: %d castaways cannot fill %d episodes", ErrBadSeason, len(season.Castaways), len(season.Episodes))
	}
	var sc Scenario

	ids := make([]int64, len(season.Castaways))
	for i, c := range season.Castaways {
		ids[i] = c.ID
	}
	for _, p := range season.Players {
		pool := append([]int64(nil), ids...)
		f.ShuffleAnySlice(pool)
		sc.Picks = append(sc.Picks, model.Picks{PlayerID: p.ID, Trio: [3]int64{pool[0], pool[1], pool[2]}, Icky: pool[3]})
		for q := points.FirstQuestion; q <= points.LastQuestion; q++ {
			sc.Answers = append(sc.Answers, model.ProphecyAnswer{PlayerID: p.ID, QuestionID: q, Answer: f.Bool()})
		}
	}

	active := append([]int64(nil), ids...)
	f.ShuffleAnySlice(active)
	merged := false
	boot := 0
	for i, ep := range season.Episodes {
		merged = merged || ep.IsMerge
		script := Episode{ID: ep.ID}
		for _, id := range active {
			if f.Number(0, 3) == 0 {
				kind := scoredKinds[f.Number(0, len(scoredKinds)-1)]
				script.Events = append(script.Events, model.CastawayEvent{EpisodeID: ep.ID, CastawayID: id, Kind: kind})
			}
		}

		last := i == len(season.Episodes)-1
		if last {
			final := []points.Placement{points.PlacementThird, points.PlacementRunnerUp, points.PlacementWinner}
			for j, id := range active[:3] {
				boot++
				script.Eliminations = append(script.Eliminations, model.Elimination{CastawayID: id, Placement: final[j], BootOrder: boot})
				script.Events = append(script.Events, model.CastawayEvent{EpisodeID: ep.ID, CastawayID: id, Kind: points.EventMadeFinalThree})
			}
			winner := active[2]
			script.Events = append(script.Events, model.CastawayEvent{EpisodeID: ep.ID, CastawayID: winner, Kind: points.EventSoleSurvivor})
			active = active[3:]
		} else {
			out := active[0]
			active = active[1:]
			boot++
			placement, kind := points.PlacementPreMerge, points.EventVotedOut
			switch {
			case i == 0:
				placement, kind = points.PlacementFirstBoot, points.EventFirstBoot
			case merged:
				placement = points.PlacementJury
			}
			script.Eliminations = append(script.Eliminations, model.Elimination{CastawayID: out, Placement: placement, BootOrder: boot})
			script.Events = append(script.Events, model.CastawayEvent{EpisodeID: ep.ID, CastawayID: out, Kind: kind})
			for _, id := range active {
				script.Events = append(script.Events, model.CastawayEvent{EpisodeID: ep.ID, CastawayID: id, Kind: points.EventSurvivedEpisode})
			}
		}
		sc.Episodes = append(sc.Episodes, script)
	}

	for q := points.FirstQuestion; q <= points.LastQuestion; q++ {
		outcome := f.Bool()
		sc.Outcomes = append(sc.Outcomes, model.ProphecyOutcome{QuestionID: q, Outcome: &outcome})
	}
	return sc, nil
}
