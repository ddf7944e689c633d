package migrations

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/okian/outwit/internal/adapters/repository"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		if _, err := db.NewCreateTable().Model((*repository.PlayerScore)(nil)).IfNotExists().Exec(ctx); err != nil {
			return err
		}
		if _, err := db.NewCreateTable().Model((*repository.PlayerScoreTrio)(nil)).IfNotExists().Exec(ctx); err != nil {
			return err
		}
		_, err := db.NewCreateIndex().
			Model((*repository.PlayerScore)(nil)).
			Index("idx_player_scores_total_points").
			ColumnExpr("total_points DESC").
			IfNotExists().
			Exec(ctx)
		return err
	}, func(ctx context.Context, db *bun.DB) error {
		if _, err := db.NewDropTable().Model((*repository.PlayerScoreTrio)(nil)).IfExists().Exec(ctx); err != nil {
			return err
		}
		_, err := db.NewDropTable().Model((*repository.PlayerScore)(nil)).IfExists().Exec(ctx)
		return err
	})
}
