package repository

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/okian/outwit/internal/domain/model"
)

// MemoryStore is an in-process Store guarded by a single RWMutex.
// Reads return copies so callers never alias internal state.
type MemoryStore struct {
	mu        sync.RWMutex
	castaways map[int64]model.Castaway
	episodes  map[int64]model.Episode
	events    map[model.EventKey]model.CastawayEvent
	players   map[string]model.Player
	picks     map[string]model.Picks
	answers   map[string]map[int]bool
	outcomes  map[int]model.ProphecyOutcome
	scores    []model.PlayerScore
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		castaways: make(map[int64]model.Castaway),
		episodes:  make(map[int64]model.Episode),
		events:    make(map[model.EventKey]model.CastawayEvent),
		players:   make(map[string]model.Player),
		picks:     make(map[string]model.Picks),
		answers:   make(map[string]map[int]bool),
		outcomes:  make(map[int]model.ProphecyOutcome),
	}
}

func (s *MemoryStore) Snapshot(ctx context.Context) (model.Season, error) {
	if err := ctx.Err(); err != nil {
		return model.Season{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	season := model.Season{
		Castaways: slices.Collect(maps.Values(s.castaways)),
		Episodes:  slices.Collect(maps.Values(s.episodes)),
		Events:    slices.Collect(maps.Values(s.events)),
		Players:   slices.Collect(maps.Values(s.players)),
		Picks:     slices.Collect(maps.Values(s.picks)),
		Outcomes:  make([]model.ProphecyOutcome, 0, len(s.outcomes)),
	}
	for _, o := range s.outcomes {
		season.Outcomes = append(season.Outcomes, copyOutcome(o))
	}
	for playerID, byQuestion := range s.answers {
		for q, a := range byQuestion {
			season.Answers = append(season.Answers, model.ProphecyAnswer{PlayerID: playerID, QuestionID: q, Answer: a})
		}
	}
	sortSeason(&season)
	return season, nil
}

func (s *MemoryStore) Player(_ context.Context, id string) (model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.players[id]
	if !ok {
		return model.Player{}, fmt.Errorf("player %q: %w", id, ErrNotFound)
	}
	return p, nil
}

func (s *MemoryStore) Episode(_ context.Context, id int64) (model.Episode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ep, ok := s.episodes[id]
	if !ok {
		return model.Episode{}, fmt.Errorf("episode %d: %w", id, ErrNotFound)
	}
	return ep, nil
}

func (s *MemoryStore) Seed(ctx context.Context, season model.Season) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range season.Castaways {
		s.castaways[c.ID] = c
	}
	for _, ep := range season.Episodes {
		s.episodes[ep.ID] = ep
	}
	for _, ev := range season.Events {
		s.events[ev.Key()] = ev
	}
	for _, p := range season.Players {
		s.players[p.ID] = p
	}
	for _, p := range season.Picks {
		s.picks[p.PlayerID] = p
	}
	for _, a := range season.Answers {
		if s.answers[a.PlayerID] == nil {
			s.answers[a.PlayerID] = make(map[int]bool)
		}
		s.answers[a.PlayerID][a.QuestionID] = a.Answer
	}
	for _, o := range season.Outcomes {
		s.outcomes[o.QuestionID] = copyOutcome(o)
	}
	return nil
}

func (s *MemoryStore) SavePicks(ctx context.Context, p model.Picks, answers []model.ProphecyAnswer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	byQuestion := make(map[int]bool, len(answers))
	for _, a := range answers {
		byQuestion[a.QuestionID] = a.Answer
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.picks[p.PlayerID] = p
	s.answers[p.PlayerID] = byQuestion
	return nil
}

func (s *MemoryStore) FinalizeEpisode(ctx context.Context, episodeID int64, events []model.CastawayEvent, eliminations []model.Elimination) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	ep, ok := s.episodes[episodeID]
	if !ok {
		return fmt.Errorf("episode %d: %w", episodeID, ErrNotFound)
	}
	for _, e := range eliminations {
		if _, ok := s.castaways[e.CastawayID]; !ok {
			return fmt.Errorf("castaway %d: %w", e.CastawayID, ErrNotFound)
		}
	}

	for _, ev := range events {
		s.events[ev.Key()] = ev
	}
	for _, e := range eliminations {
		c := s.castaways[e.CastawayID]
		c.Active = false
		c.Placement = e.Placement
		c.BootOrder = e.BootOrder
		s.castaways[c.ID] = c
	}
	ep.Finalized = true
	s.episodes[episodeID] = ep
	return nil
}

func (s *MemoryStore) SetProphecyOutcome(ctx context.Context, o model.ProphecyOutcome) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outcomes[o.QuestionID] = copyOutcome(o)
	return nil
}

func (s *MemoryStore) ReplaceScores(ctx context.Context, scores []model.PlayerScore) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	next := copyScores(scores)
	slices.SortFunc(next, func(a, b model.PlayerScore) int { return cmp.Compare(a.PlayerID, b.PlayerID) })

	s.mu.Lock()
	s.scores = next
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Scores(_ context.Context) ([]model.PlayerScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyScores(s.scores), nil
}

func (s *MemoryStore) Score(_ context.Context, playerID string) (model.PlayerScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := slices.BinarySearchFunc(s.scores, playerID, func(ps model.PlayerScore, id string) int {
		return cmp.Compare(ps.PlayerID, id)
	})
	if !ok {
		return model.PlayerScore{}, fmt.Errorf("score for %q: %w", playerID, ErrNotFound)
	}
	return copyScores(s.scores[i : i+1])[0], nil
}

func (s *MemoryStore) Close() error { return nil }

func copyScores(in []model.PlayerScore) []model.PlayerScore {
	out := make([]model.PlayerScore, len(in))
	for i, ps := range in {
		ps.TrioDetail = slices.Clone(ps.TrioDetail)
		out[i] = ps
	}
	return out
}

func copyOutcome(o model.ProphecyOutcome) model.ProphecyOutcome {
	if o.Outcome != nil {
		v := *o.Outcome
		o.Outcome = &v
	}
	return o
}

// sortSeason puts every slice in key order so snapshots compare equal
// regardless of map iteration.
func sortSeason(s *model.Season) {
	slices.SortFunc(s.Castaways, func(a, b model.Castaway) int { return cmp.Compare(a.ID, b.ID) })
	slices.SortFunc(s.Episodes, func(a, b model.Episode) int {
		return cmp.Or(cmp.Compare(a.Number, b.Number), cmp.Compare(a.ID, b.ID))
	})
	slices.SortFunc(s.Events, func(a, b model.CastawayEvent) int {
		return cmp.Or(
			cmp.Compare(a.EpisodeID, b.EpisodeID),
			cmp.Compare(a.CastawayID, b.CastawayID),
			cmp.Compare(a.Kind, b.Kind),
		)
	})
	slices.SortFunc(s.Players, func(a, b model.Player) int { return cmp.Compare(a.ID, b.ID) })
	slices.SortFunc(s.Picks, func(a, b model.Picks) int { return cmp.Compare(a.PlayerID, b.PlayerID) })
	slices.SortFunc(s.Answers, func(a, b model.ProphecyAnswer) int {
		return cmp.Or(cmp.Compare(a.PlayerID, b.PlayerID), cmp.Compare(a.QuestionID, b.QuestionID))
	})
	slices.SortFunc(s.Outcomes, func(a, b model.ProphecyOutcome) int { return cmp.Compare(a.QuestionID, b.QuestionID) })
}
