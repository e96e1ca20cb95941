package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/castellan/castellan/internal/database/dbretry"
	"github.com/castellan/castellan/internal/database/types"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// GuildConfigModel handles database operations for per-guild configuration.
type GuildConfigModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewGuildConfig creates a new guild config model instance.
func NewGuildConfig(db *bun.DB, logger *zap.Logger) *GuildConfigModel {
	return &GuildConfigModel{
		db:     db,
		logger: logger.Named("db_guild_config"),
	}
}

// Get retrieves the configuration for a guild. Guilds without a stored row
// get the documented defaults; malformed rows are normalized instead of
// failing message processing.
func (m *GuildConfigModel) Get(ctx context.Context, guildID uint64) (*types.GuildConfig, error) {
	config, err := dbretry.Operation(ctx, func(ctx context.Context) (*types.GuildConfig, error) {
		var config types.GuildConfig

		err := m.db.NewSelect().
			Model(&config).
			Where("guild_id = ?", guildID).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return types.NewGuildConfig(guildID), nil
			}

			return nil, fmt.Errorf("failed to get guild config: %w", err)
		}

		return &config, nil
	})
	if err != nil {
		return nil, err
	}

	config.Normalize()

	return config, nil
}

// Upsert writes the whole configuration row atomically so concurrent readers
// never observe a half-updated record.
func (m *GuildConfigModel) Upsert(ctx context.Context, config *types.GuildConfig) error {
	config.Normalize()
	config.UpdatedAt = time.Now()

	err := dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := m.db.NewInsert().
			Model(config).
			On("CONFLICT (guild_id) DO UPDATE").
			Set("automod_enabled = EXCLUDED.automod_enabled").
			Set("profanity_filter = EXCLUDED.profanity_filter").
			Set("spam_detection = EXCLUDED.spam_detection").
			Set("blacklist_words = EXCLUDED.blacklist_words").
			Set("thresholds = EXCLUDED.thresholds").
			Set("max_warnings = EXCLUDED.max_warnings").
			Set("timeout_duration = EXCLUDED.timeout_duration").
			Set("escalation_policy = EXCLUDED.escalation_policy").
			Set("immune_roles = EXCLUDED.immune_roles").
			Set("moderator_roles = EXCLUDED.moderator_roles").
			Set("log_channel_id = EXCLUDED.log_channel_id").
			Set("welcome_channel_id = EXCLUDED.welcome_channel_id").
			Set("welcome_message = EXCLUDED.welcome_message").
			Set("welcome_enabled = EXCLUDED.welcome_enabled").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to upsert guild config: %w", err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	m.logger.Debug("Saved guild config", zap.Uint64("guildID", config.GuildID))

	return nil
}

// Ensure creates the default configuration row for a guild if none exists.
// Used when the bot joins a new guild.
func (m *GuildConfigModel) Ensure(ctx context.Context, guildID uint64) error {
	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := m.db.NewInsert().
			Model(types.NewGuildConfig(guildID)).
			On("CONFLICT (guild_id) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to ensure guild config: %w", err)
		}

		return nil
	})
}
