package migrations

import (
	"context"
	"fmt"

	"github.com/castellan/castellan/internal/database/types"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		models := []any{
			(*types.GuildConfig)(nil),
			(*types.Warning)(nil),
			(*types.ModerationLog)(nil),
		}

		for _, model := range models {
			_, err := db.NewCreateTable().
				Model(model).
				IfNotExists().
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("failed to create table for %T: %w", model, err)
			}
		}

		// Warning counts and listings are always scoped to one (guild, user)
		_, err := db.NewCreateIndex().
			Model((*types.Warning)(nil)).
			Index("warnings_guild_user_idx").
			Column("guild_id", "user_id").
			IfNotExists().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create warnings index: %w", err)
		}

		_, err = db.NewCreateIndex().
			Model((*types.ModerationLog)(nil)).
			Index("moderation_logs_guild_idx").
			Column("guild_id", "created_at").
			IfNotExists().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create moderation logs index: %w", err)
		}

		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		models := []any{
			(*types.ModerationLog)(nil),
			(*types.Warning)(nil),
			(*types.GuildConfig)(nil),
		}

		for _, model := range models {
			_, err := db.NewDropTable().
				Model(model).
				IfExists().
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("failed to drop table for %T: %w", model, err)
			}
		}

		return nil
	})
}
