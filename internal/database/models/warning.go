package models

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/castellan/castellan/internal/database/dbretry"
	"github.com/castellan/castellan/internal/database/types"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// WarningModel handles database operations for the append-only warning ledger.
type WarningModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewWarning creates a new warning model instance.
func NewWarning(db *bun.DB, logger *zap.Logger) *WarningModel {
	return &WarningModel{
		db:     db,
		logger: logger.Named("db_warning"),
	}
}

// Append records a warning and returns it together with the user's warning
// count after the insert. Insert and count run in one serializable
// transaction: two concurrent appends for the same user can never both
// observe the same count, so an escalation entry keyed to one count fires
// exactly once. The losing transaction aborts with a serialization failure
// (40001), which dbretry retries.
func (m *WarningModel) Append(
	ctx context.Context, guildID, userID, moderatorID uint64, reason string,
) (*types.Warning, int, error) {
	warning := &types.Warning{
		GuildID:     guildID,
		UserID:      userID,
		ModeratorID: moderatorID,
		Reason:      types.TruncateReason(reason),
		CreatedAt:   time.Now(),
	}

	txOpts := &sql.TxOptions{Isolation: sql.LevelSerializable}

	var count int

	err := dbretry.NoResult(ctx, func(ctx context.Context) error {
		warning.ID = 0

		return m.db.RunInTx(ctx, txOpts, func(ctx context.Context, tx bun.Tx) error {
			if _, err := tx.NewInsert().Model(warning).Exec(ctx); err != nil {
				return fmt.Errorf("failed to insert warning: %w", err)
			}

			c, err := tx.NewSelect().
				Model((*types.Warning)(nil)).
				Where("guild_id = ? AND user_id = ?", guildID, userID).
				Count(ctx)
			if err != nil {
				return fmt.Errorf("failed to count warnings: %w", err)
			}

			count = c

			return nil
		})
	})
	if err != nil {
		return nil, 0, err
	}

	m.logger.Debug("Appended warning",
		zap.Uint64("guildID", guildID),
		zap.Uint64("userID", userID),
		zap.Int64("warningID", warning.ID),
		zap.Int("count", count))

	return warning, count, nil
}

// List returns a user's warnings, most recent first.
func (m *WarningModel) List(ctx context.Context, guildID, userID uint64) ([]*types.Warning, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]*types.Warning, error) {
		var warnings []*types.Warning

		err := m.db.NewSelect().
			Model(&warnings).
			Where("guild_id = ? AND user_id = ?", guildID, userID).
			Order("created_at DESC", "id DESC").
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list warnings: %w", err)
		}

		return warnings, nil
	})
}

// Count returns a user's current warning count.
func (m *WarningModel) Count(ctx context.Context, guildID, userID uint64) (int, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (int, error) {
		count, err := m.db.NewSelect().
			Model((*types.Warning)(nil)).
			Where("guild_id = ? AND user_id = ?", guildID, userID).
			Count(ctx)
		if err != nil {
			return 0, fmt.Errorf("failed to count warnings: %w", err)
		}

		return count, nil
	})
}

// Remove deletes a single warning by id. Returns false when the warning does
// not exist, so a second call for the same id reports true then false.
func (m *WarningModel) Remove(ctx context.Context, warningID int64) (bool, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (bool, error) {
		res, err := m.db.NewDelete().
			Model((*types.Warning)(nil)).
			Where("id = ?", warningID).
			Exec(ctx)
		if err != nil {
			return false, fmt.Errorf("failed to remove warning: %w", err)
		}

		rows, err := res.RowsAffected()
		if err != nil {
			return false, fmt.Errorf("failed to read affected rows: %w", err)
		}

		return rows > 0, nil
	})
}

// Clear deletes all warnings for a user in a guild.
func (m *WarningModel) Clear(ctx context.Context, guildID, userID uint64) error {
	err := dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := m.db.NewDelete().
			Model((*types.Warning)(nil)).
			Where("guild_id = ? AND user_id = ?", guildID, userID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to clear warnings: %w", err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	m.logger.Debug("Cleared warnings",
		zap.Uint64("guildID", guildID),
		zap.Uint64("userID", userID))

	return nil
}
