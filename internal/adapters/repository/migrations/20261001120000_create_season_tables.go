package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/okian/outwit/internal/adapters/repository"
)

var seasonModels = []any{
	(*repository.Castaway)(nil),
	(*repository.Episode)(nil),
	(*repository.CastawayEvent)(nil),
	(*repository.Player)(nil),
	(*repository.Picks)(nil),
	(*repository.ProphecyAnswer)(nil),
	(*repository.ProphecyOutcome)(nil),
}

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			for _, m := range seasonModels {
				if _, err := tx.NewCreateTable().Model(m).IfNotExists().Exec(ctx); err != nil {
					return fmt.Errorf("create table for %T: %w", m, err)
				}
			}
			if _, err := tx.NewCreateIndex().
				Model((*repository.CastawayEvent)(nil)).
				Index("idx_castaway_events_castaway_id").
				Column("castaway_id").
				IfNotExists().
				Exec(ctx); err != nil {
				return fmt.Errorf("create events index: %w", err)
			}
			return nil
		})
	}, func(ctx context.Context, db *bun.DB) error {
		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			for i := len(seasonModels) - 1; i >= 0; i-- {
				if _, err := tx.NewDropTable().Model(seasonModels[i]).IfExists().Exec(ctx); err != nil {
					return fmt.Errorf("drop table for %T: %w", seasonModels[i], err)
				}
			}
			return nil
		})
	})
}
