package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/okian/outwit/internal/domain/model"
	"github.com/okian/outwit/pkg/logger"
)

// BunStore is a Store backed by a SQL database through bun.
type BunStore struct {
	db         *bun.DB
	log        logger.Logger
	snapshotTx *sql.TxOptions
}

var _ Store = (*BunStore)(nil)

// NewBunStore wraps an open bun database. The schema is expected to exist;
// see the migrations package.
func NewBunStore(db *bun.DB, opts ...Option) *BunStore {
	s := &BunStore{db: db, log: logger.Discard()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OpenPostgres connects to Postgres with pgdriver and verifies the connection.
func OpenPostgres(ctx context.Context, dsn string, opts ...Option) (*BunStore, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	if err := sqldb.PingContext(ctx); err != nil {
		_ = sqldb.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	db := bun.NewDB(sqldb, pgdialect.New())
	opts = append([]Option{WithSnapshotTxOptions(&sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})}, opts...)
	return NewBunStore(db, opts...), nil
}

// DB exposes the underlying handle for migrations.
func (s *BunStore) DB() *bun.DB { return s.db }

func (s *BunStore) Close() error { return s.db.Close() }

func (s *BunStore) Snapshot(ctx context.Context) (model.Season, error) {
	var season model.Season
	err := s.db.RunInTx(ctx, s.snapshotTx, func(ctx context.Context, tx bun.Tx) error {
		var err error
		season, err = readSeason(ctx, tx)
		return err
	})
	if err != nil {
		return model.Season{}, fmt.Errorf("failed to read season snapshot: %w", err)
	}
	return season, nil
}

func readSeason(ctx context.Context, tx bun.Tx) (model.Season, error) {
	var (
		season    model.Season
		castaways []Castaway
		episodes  []Episode
		events    []CastawayEvent
		players   []Player
		picks     []Picks
		answers   []ProphecyAnswer
		outcomes  []ProphecyOutcome
	)

	if err := tx.NewSelect().Model(&castaways).Order("id ASC").Scan(ctx); err != nil {
		return season, fmt.Errorf("castaways: %w", err)
	}
	if err := tx.NewSelect().Model(&episodes).Order("number ASC", "id ASC").Scan(ctx); err != nil {
		return season, fmt.Errorf("episodes: %w", err)
	}
	if err := tx.NewSelect().Model(&events).Order("episode_id ASC", "castaway_id ASC").Scan(ctx); err != nil {
		return season, fmt.Errorf("events: %w", err)
	}
	if err := tx.NewSelect().Model(&players).Order("id ASC").Scan(ctx); err != nil {
		return season, fmt.Errorf("players: %w", err)
	}
	if err := tx.NewSelect().Model(&picks).Order("player_id ASC").Scan(ctx); err != nil {
		return season, fmt.Errorf("picks: %w", err)
	}
	if err := tx.NewSelect().Model(&answers).Order("player_id ASC", "question_id ASC").Scan(ctx); err != nil {
		return season, fmt.Errorf("prophecy answers: %w", err)
	}
	if err := tx.NewSelect().Model(&outcomes).Order("question_id ASC").Scan(ctx); err != nil {
		return season, fmt.Errorf("prophecy outcomes: %w", err)
	}

	for _, c := range castaways {
		m, err := c.toModel()
		if err != nil {
			return season, fmt.Errorf("castaway %d: %w", c.ID, err)
		}
		season.Castaways = append(season.Castaways, m)
	}
	for _, e := range episodes {
		season.Episodes = append(season.Episodes, e.toModel())
	}
	for _, ev := range events {
		m, err := ev.toModel()
		if err != nil {
			return season, fmt.Errorf("event %d/%d: %w", ev.EpisodeID, ev.CastawayID, err)
		}
		season.Events = append(season.Events, m)
	}
	for _, p := range players {
		season.Players = append(season.Players, model.Player{ID: p.ID, DisplayName: p.DisplayName})
	}
	for _, p := range picks {
		season.Picks = append(season.Picks, p.toModel())
	}
	for _, a := range answers {
		season.Answers = append(season.Answers, model.ProphecyAnswer{PlayerID: a.PlayerID, QuestionID: a.QuestionID, Answer: a.Answer})
	}
	for _, o := range outcomes {
		season.Outcomes = append(season.Outcomes, o.toModel())
	}
	// Kinds are stored by name, so restore catalog order in Go.
	sortSeason(&season)
	return season, nil
}

func (s *BunStore) Player(ctx context.Context, id string) (model.Player, error) {
	var p Player
	err := s.db.NewSelect().Model(&p).Where("id = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Player{}, fmt.Errorf("player %q: %w", id, ErrNotFound)
		}
		return model.Player{}, fmt.Errorf("failed to fetch player %q: %w", id, err)
	}
	return model.Player{ID: p.ID, DisplayName: p.DisplayName}, nil
}

func (s *BunStore) Episode(ctx context.Context, id int64) (model.Episode, error) {
	var e Episode
	err := s.db.NewSelect().Model(&e).Where("id = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Episode{}, fmt.Errorf("episode %d: %w", id, ErrNotFound)
		}
		return model.Episode{}, fmt.Errorf("failed to fetch episode %d: %w", id, err)
	}
	return e.toModel(), nil
}

func (s *BunStore) Seed(ctx context.Context, season model.Season) error {
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if len(season.Castaways) > 0 {
			rows := make([]Castaway, len(season.Castaways))
			for i, c := range season.Castaways {
				rows[i] = castawayFromModel(c)
			}
			if _, err := tx.NewInsert().Model(&rows).
				On("CONFLICT (id) DO UPDATE").
				Set("name = EXCLUDED.name, tribe = EXCLUDED.tribe, active = EXCLUDED.active").
				Set("boot_order = EXCLUDED.boot_order, placement = EXCLUDED.placement").
				Exec(ctx); err != nil {
				return fmt.Errorf("castaways: %w", err)
			}
		}
		if len(season.Episodes) > 0 {
			rows := make([]Episode, len(season.Episodes))
			for i, e := range season.Episodes {
				rows[i] = episodeFromModel(e)
			}
			if _, err := tx.NewInsert().Model(&rows).
				On("CONFLICT (id) DO UPDATE").
				Set("number = EXCLUDED.number, finalized = EXCLUDED.finalized").
				Set("is_merge = EXCLUDED.is_merge, is_finale = EXCLUDED.is_finale").
				Exec(ctx); err != nil {
				return fmt.Errorf("episodes: %w", err)
			}
		}
		if err := upsertEvents(ctx, tx, season.Events); err != nil {
			return err
		}
		if len(season.Players) > 0 {
			rows := make([]Player, len(season.Players))
			for i, p := range season.Players {
				rows[i] = Player{ID: p.ID, DisplayName: p.DisplayName}
			}
			if _, err := tx.NewInsert().Model(&rows).
				On("CONFLICT (id) DO UPDATE").
				Set("display_name = EXCLUDED.display_name").
				Exec(ctx); err != nil {
				return fmt.Errorf("players: %w", err)
			}
		}
		for _, p := range season.Picks {
			var answers []model.ProphecyAnswer
			for _, a := range season.Answers {
				if a.PlayerID == p.PlayerID {
					answers = append(answers, a)
				}
			}
			if err := savePicks(ctx, tx, p, answers); err != nil {
				return err
			}
		}
		for _, o := range season.Outcomes {
			if err := upsertOutcome(ctx, tx, o); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to seed season: %w", err)
	}
	return nil
}

func (s *BunStore) SavePicks(ctx context.Context, p model.Picks, answers []model.ProphecyAnswer) error {
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return savePicks(ctx, tx, p, answers)
	})
	if err != nil {
		return fmt.Errorf("failed to save picks for %q: %w", p.PlayerID, err)
	}
	return nil
}

func savePicks(ctx context.Context, tx bun.Tx, p model.Picks, answers []model.ProphecyAnswer) error {
	row := picksFromModel(p)
	if _, err := tx.NewInsert().Model(&row).
		On("CONFLICT (player_id) DO UPDATE").
		Set("trio_castaway_1 = EXCLUDED.trio_castaway_1").
		Set("trio_castaway_2 = EXCLUDED.trio_castaway_2").
		Set("trio_castaway_3 = EXCLUDED.trio_castaway_3").
		Set("icky_castaway = EXCLUDED.icky_castaway").
		Exec(ctx); err != nil {
		return fmt.Errorf("picks: %w", err)
	}
	if _, err := tx.NewDelete().Model((*ProphecyAnswer)(nil)).Where("player_id = ?", p.PlayerID).Exec(ctx); err != nil {
		return fmt.Errorf("clear prophecy answers: %w", err)
	}
	if len(answers) == 0 {
		return nil
	}
	rows := make([]ProphecyAnswer, len(answers))
	for i, a := range answers {
		rows[i] = ProphecyAnswer{PlayerID: p.PlayerID, QuestionID: a.QuestionID, Answer: a.Answer}
	}
	if _, err := tx.NewInsert().Model(&rows).Exec(ctx); err != nil {
		return fmt.Errorf("prophecy answers: %w", err)
	}
	return nil
}

func (s *BunStore) FinalizeEpisode(ctx context.Context, episodeID int64, events []model.CastawayEvent, eliminations []model.Elimination) error {
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().Model((*Episode)(nil)).
			Set("finalized = ?", true).
			Where("id = ?", episodeID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("mark finalized: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("episode %d: %w", episodeID, ErrNotFound)
		}

		if err := upsertEvents(ctx, tx, events); err != nil {
			return err
		}

		for _, e := range eliminations {
			res, err := tx.NewUpdate().Model((*Castaway)(nil)).
				Set("active = ?", false).
				Set("placement = ?", e.Placement.String()).
				Set("boot_order = ?", e.BootOrder).
				Where("id = ?", e.CastawayID).
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("eliminate castaway %d: %w", e.CastawayID, err)
			}
			if n, _ := res.RowsAffected(); n == 0 {
				return fmt.Errorf("castaway %d: %w", e.CastawayID, ErrNotFound)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to finalize episode %d: %w", episodeID, err)
	}
	return nil
}

func upsertEvents(ctx context.Context, tx bun.Tx, events []model.CastawayEvent) error {
	if len(events) == 0 {
		return nil
	}
	rows := make([]CastawayEvent, len(events))
	for i, ev := range events {
		rows[i] = eventFromModel(ev)
	}
	// Every column is part of the key, so an existing row already holds the values.
	if _, err := tx.NewInsert().Model(&rows).
		On("CONFLICT (episode_id, castaway_id, kind) DO NOTHING").
		Exec(ctx); err != nil {
		return fmt.Errorf("events: %w", err)
	}
	return nil
}

func (s *BunStore) SetProphecyOutcome(ctx context.Context, o model.ProphecyOutcome) error {
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return upsertOutcome(ctx, tx, o)
	})
	if err != nil {
		return fmt.Errorf("failed to set outcome for question %d: %w", o.QuestionID, err)
	}
	return nil
}

func upsertOutcome(ctx context.Context, tx bun.Tx, o model.ProphecyOutcome) error {
	row := outcomeFromModel(o)
	if _, err := tx.NewInsert().Model(&row).
		On("CONFLICT (question_id) DO UPDATE").
		Set("outcome = EXCLUDED.outcome, resolved_at = EXCLUDED.resolved_at").
		Exec(ctx); err != nil {
		return fmt.Errorf("prophecy outcome %d: %w", o.QuestionID, err)
	}
	return nil
}

func (s *BunStore) ReplaceScores(ctx context.Context, scores []model.PlayerScore) error {
	rows := make([]PlayerScore, 0, len(scores))
	var detail []PlayerScoreTrio
	for _, ps := range scores {
		rows = append(rows, PlayerScore{
			PlayerID:    ps.PlayerID,
			DisplayName: ps.DisplayName,
			Trio:        ps.Trio,
			Icky:        ps.Icky,
			Prophecy:    ps.Prophecy,
			Total:       ps.Total,
		})
		for slot, cs := range ps.TrioDetail {
			detail = append(detail, PlayerScoreTrio{
				PlayerID:   ps.PlayerID,
				Slot:       slot + 1,
				CastawayID: cs.CastawayID,
				Points:     cs.Points,
			})
		}
	}

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*PlayerScoreTrio)(nil)).Where("1 = 1").Exec(ctx); err != nil {
			return fmt.Errorf("clear trio detail: %w", err)
		}
		if _, err := tx.NewDelete().Model((*PlayerScore)(nil)).Where("1 = 1").Exec(ctx); err != nil {
			return fmt.Errorf("clear scores: %w", err)
		}
		if len(rows) > 0 {
			if _, err := tx.NewInsert().Model(&rows).Exec(ctx); err != nil {
				return fmt.Errorf("insert scores: %w", err)
			}
		}
		if len(detail) > 0 {
			if _, err := tx.NewInsert().Model(&detail).Exec(ctx); err != nil {
				return fmt.Errorf("insert trio detail: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to replace score cache: %w", err)
	}
	s.log.Debug(ctx, "score cache replaced", logger.Int("players", len(rows)))
	return nil
}

func (s *BunStore) Scores(ctx context.Context) ([]model.PlayerScore, error) {
	var rows []PlayerScore
	if err := s.db.NewSelect().Model(&rows).Order("player_id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to fetch scores: %w", err)
	}
	var detail []PlayerScoreTrio
	if err := s.db.NewSelect().Model(&detail).Order("player_id ASC", "slot ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to fetch trio detail: %w", err)
	}

	byPlayer := make(map[string][]model.CastawayScore, len(rows))
	for _, d := range detail {
		byPlayer[d.PlayerID] = append(byPlayer[d.PlayerID], model.CastawayScore{CastawayID: d.CastawayID, Points: d.Points})
	}
	out := make([]model.PlayerScore, len(rows))
	for i, r := range rows {
		out[i] = r.toModel(byPlayer[r.PlayerID])
	}
	return out, nil
}

func (s *BunStore) Score(ctx context.Context, playerID string) (model.PlayerScore, error) {
	var row PlayerScore
	err := s.db.NewSelect().Model(&row).Where("player_id = ?", playerID).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.PlayerScore{}, fmt.Errorf("score for %q: %w", playerID, ErrNotFound)
		}
		return model.PlayerScore{}, fmt.Errorf("failed to fetch score for %q: %w", playerID, err)
	}
	var detail []PlayerScoreTrio
	if err := s.db.NewSelect().Model(&detail).Where("player_id = ?", playerID).Order("slot ASC").Scan(ctx); err != nil {
		return model.PlayerScore{}, fmt.Errorf("failed to fetch trio detail for %q: %w", playerID, err)
	}
	trio := make([]model.CastawayScore, 0, len(detail))
	for _, d := range detail {
		trio = append(trio, model.CastawayScore{CastawayID: d.CastawayID, Points: d.Points})
	}
	return row.toModel(trio), nil
}

func (r PlayerScore) toModel(trio []model.CastawayScore) model.PlayerScore {
	return model.PlayerScore{
		PlayerID:    r.PlayerID,
		DisplayName: r.DisplayName,
		Trio:        r.Trio,
		Icky:        r.Icky,
		Prophecy:    r.Prophecy,
		Total:       r.Total,
		TrioDetail:  trio,
	}
}
