package service_test

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"

	"github.com/okian/outwit/internal/adapters/repository"
	"github.com/okian/outwit/internal/domain/model"
	"github.com/okian/outwit/internal/domain/picks"
	"github.com/okian/outwit/internal/domain/points"
)

// A small season: five castaways, two episodes, four players.
const (
	epOne   int64 = 10 // episode number 1
	epSeven int64 = 11 // episode number 7
)

func seedSeason(ctx context.Context, st repository.SeasonWriter) error {
	return st.Seed(ctx, model.Season{
		Castaways: []model.Castaway{
			{ID: 1, Name: "Ana", Tribe: "Luvu", Active: true},
			{ID: 2, Name: "Ben", Tribe: "Luvu", Active: true},
			{ID: 3, Name: "Cyd", Tribe: "Yase", Active: true},
			{ID: 4, Name: "Dov", Tribe: "Yase", Active: true},
			{ID: 5, Name: "Eli", Tribe: "Soka", Active: true},
		},
		Episodes: []model.Episode{
			{ID: epOne, Number: 1},
			{ID: epSeven, Number: 7, IsMerge: true},
		},
		Players: []model.Player{
			{ID: "alice", DisplayName: "Alice"},
			{ID: "bob", DisplayName: "Bob"},
			{ID: "carol", DisplayName: "Carol"},
			{ID: "dave", DisplayName: "Dave"},
		},
	})
}

// submission builds a picks payload answering every question with answer.
func submission(t1, t2, t3, icky int64, answer bool) picks.Submission {
	num := func(n int64) json.RawMessage { return json.RawMessage(strconv.FormatInt(n, 10)) }
	s := picks.Submission{
		Trio1:    num(t1),
		Trio2:    num(t2),
		Trio3:    num(t3),
		Icky:     num(icky),
		Prophecy: make(map[string]json.RawMessage, points.QuestionCount),
	}
	for q := points.FirstQuestion; q <= points.LastQuestion; q++ {
		s.Prophecy[strconv.Itoa(q)] = json.RawMessage(strconv.FormatBool(answer))
	}
	return s
}

// episodeOne is the first finalize of the fixture season:
// Ana finds an idol and survives, Ben's tribe wins immunity, Dov is the first boot.
func episodeOne() []model.CastawayEvent {
	return []model.CastawayEvent{
		{CastawayID: 1, Kind: points.EventIdolFound},
		{CastawayID: 1, Kind: points.EventSurvivedEpisode},
		{CastawayID: 2, Kind: points.EventTribalImmunityWin},
		{CastawayID: 4, Kind: points.EventFirstBoot},
	}
}

func firstBoot() []model.Elimination {
	return []model.Elimination{{CastawayID: 4, Placement: points.PlacementFirstBoot, BootOrder: 1}}
}

// faultyStore fails selected calls and can hold Snapshot until released.
type faultyStore struct {
	repository.Store

	mu           sync.Mutex
	failSnapshot error
	failReplace  error
	gate         chan struct{}
	entered      chan struct{}
}

func (f *faultyStore) Snapshot(ctx context.Context) (model.Season, error) {
	f.mu.Lock()
	err, gate, entered := f.failSnapshot, f.gate, f.entered
	f.mu.Unlock()
	if gate != nil {
		entered <- struct{}{}
		select {
		case <-gate:
		case <-ctx.Done():
			return model.Season{}, ctx.Err()
		}
	}
	if err != nil {
		return model.Season{}, err
	}
	return f.Store.Snapshot(ctx)
}

func (f *faultyStore) ReplaceScores(ctx context.Context, scores []model.PlayerScore) error {
	f.mu.Lock()
	err := f.failReplace
	f.mu.Unlock()
	if err != nil {
		return err
	}
	return f.Store.ReplaceScores(ctx, scores)
}
