package repository

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/okian/outwit/internal/domain/model"
	"github.com/okian/outwit/internal/domain/points"
)

// SeedFile is the YAML layout of a season seed.
type SeedFile struct {
	Castaways []SeedCastaway `yaml:"castaways"`
	Episodes  []SeedEpisode  `yaml:"episodes"`
	Players   []SeedPlayer   `yaml:"players"`
	Outcomes  []SeedOutcome  `yaml:"prophecy_outcomes,omitempty"`
}

// SeedCastaway is a castaway entry. An empty placement means still in the game.
type SeedCastaway struct {
	ID        int64            `yaml:"id"`
	Name      string           `yaml:"name"`
	Tribe     string           `yaml:"tribe,omitempty"`
	Placement points.Placement `yaml:"placement,omitempty"`
	BootOrder int              `yaml:"boot_order,omitempty"`
}

// SeedEpisode is an episode entry.
type SeedEpisode struct {
	ID     int64 `yaml:"id"`
	Number int   `yaml:"number"`
	Merge  bool  `yaml:"merge,omitempty"`
	Finale bool  `yaml:"finale,omitempty"`
}

// SeedPlayer is a league member entry.
type SeedPlayer struct {
	ID          string `yaml:"id"`
	DisplayName string `yaml:"display_name"`
}

// SeedOutcome pre-resolves a prophecy question.
type SeedOutcome struct {
	Question int  `yaml:"question"`
	Outcome  bool `yaml:"outcome"`
}

// LoadSeedFile reads and validates a season seed from path.
func LoadSeedFile(path string) (model.Season, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return model.Season{}, fmt.Errorf("read seed file %s: %w", path, err)
	}
	return ParseSeed(bytes.NewReader(b))
}

// ParseSeed decodes and validates a season seed.
func ParseSeed(r io.Reader) (model.Season, error) {
	var f SeedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && err != io.EOF {
		return model.Season{}, fmt.Errorf("%w: %v", ErrInvalidSeed, err)
	}
	if err := f.validate(); err != nil {
		return model.Season{}, err
	}
	return f.Season(), nil
}

// WriteSeed encodes f as YAML.
func WriteSeed(w io.Writer, f SeedFile) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return fmt.Errorf("encode seed: %w", err)
	}
	return enc.Close()
}

func (f SeedFile) validate() error {
	castaways := make(map[int64]bool, len(f.Castaways))
	for _, c := range f.Castaways {
		if c.ID <= 0 {
			return fmt.Errorf("%w: castaway id %d must be positive", ErrInvalidSeed, c.ID)
		}
		if castaways[c.ID] {
			return fmt.Errorf("%w: duplicate castaway id %d", ErrInvalidSeed, c.ID)
		}
		castaways[c.ID] = true
	}

	ids := make(map[int64]bool, len(f.Episodes))
	numbers := make(map[int]bool, len(f.Episodes))
	for _, e := range f.Episodes {
		if e.ID <= 0 || e.Number <= 0 {
			return fmt.Errorf("%w: episode %d must have a positive id and number", ErrInvalidSeed, e.ID)
		}
		if ids[e.ID] || numbers[e.Number] {
			return fmt.Errorf("%w: duplicate episode id %d or number %d", ErrInvalidSeed, e.ID, e.Number)
		}
		ids[e.ID] = true
		numbers[e.Number] = true
	}

	players := make(map[string]bool, len(f.Players))
	for _, p := range f.Players {
		if p.ID == "" {
			return fmt.Errorf("%w: player id must not be empty", ErrInvalidSeed)
		}
		if players[p.ID] {
			return fmt.Errorf("%w: duplicate player id %q", ErrInvalidSeed, p.ID)
		}
		players[p.ID] = true
	}

	for _, o := range f.Outcomes {
		if o.Question < points.FirstQuestion || o.Question > points.LastQuestion {
			return fmt.Errorf("%w: prophecy question %d out of range", ErrInvalidSeed, o.Question)
		}
	}
	return nil
}

// Season converts the file to domain models.
func (f SeedFile) Season() model.Season {
	var s model.Season
	for _, c := range f.Castaways {
		s.Castaways = append(s.Castaways, model.Castaway{
			ID:        c.ID,
			Name:      c.Name,
			Tribe:     c.Tribe,
			Active:    c.Placement == points.PlacementNone,
			BootOrder: c.BootOrder,
			Placement: c.Placement,
		})
	}
	for _, e := range f.Episodes {
		s.Episodes = append(s.Episodes, model.Episode{ID: e.ID, Number: e.Number, IsMerge: e.Merge, IsFinale: e.Finale})
	}
	for _, p := range f.Players {
		s.Players = append(s.Players, model.Player{ID: p.ID, DisplayName: p.DisplayName})
	}
	for _, o := range f.Outcomes {
		outcome := o.Outcome
		s.Outcomes = append(s.Outcomes, model.ProphecyOutcome{QuestionID: o.Question, Outcome: &outcome})
	}
	return s
}

// ApplySeedFile loads path into st.
func ApplySeedFile(ctx context.Context, st SeasonWriter, path string) (model.Season, error) {
	season, err := LoadSeedFile(path)
	if err != nil {
		return model.Season{}, err
	}
	if err := st.Seed(ctx, season); err != nil {
		return model.Season{}, fmt.Errorf("apply seed %s: %w", path, err)
	}
	return season, nil
}
