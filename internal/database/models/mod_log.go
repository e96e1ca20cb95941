package models

import (
	"context"
	"fmt"
	"time"

	"github.com/castellan/castellan/internal/database/dbretry"
	"github.com/castellan/castellan/internal/database/types"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// ModLogModel handles database operations for the moderation audit log.
type ModLogModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewModLog creates a new moderation log model instance.
func NewModLog(db *bun.DB, logger *zap.Logger) *ModLogModel {
	return &ModLogModel{
		db:     db,
		logger: logger.Named("db_mod_log"),
	}
}

// Append stores one audit entry.
func (m *ModLogModel) Append(ctx context.Context, entry *types.ModerationLog) error {
	entry.Reason = types.TruncateReason(entry.Reason)

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	err := dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := m.db.NewInsert().Model(entry).Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to append moderation log: %w", err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	m.logger.Debug("Logged moderation action",
		zap.Uint64("guildID", entry.GuildID),
		zap.Uint64("userID", entry.UserID),
		zap.String("action", string(entry.Action)))

	return nil
}

// Recent returns the latest audit entries for a guild.
func (m *ModLogModel) Recent(ctx context.Context, guildID uint64, limit int) ([]*types.ModerationLog, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]*types.ModerationLog, error) {
		var entries []*types.ModerationLog

		err := m.db.NewSelect().
			Model(&entries).
			Where("guild_id = ?", guildID).
			Order("created_at DESC", "id DESC").
			Limit(limit).
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get moderation logs: %w", err)
		}

		return entries, nil
	})
}
