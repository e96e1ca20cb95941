package database

import (
	"github.com/castellan/castellan/internal/database/models"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// Repository provides access to all database models.
type Repository struct {
	guildConfig *models.GuildConfigModel
	warning     *models.WarningModel
	modLog      *models.ModLogModel
}

// NewRepository creates a new repository instance with all models.
func NewRepository(db *bun.DB, logger *zap.Logger) *Repository {
	return &Repository{
		guildConfig: models.NewGuildConfig(db, logger),
		warning:     models.NewWarning(db, logger),
		modLog:      models.NewModLog(db, logger),
	}
}

// GuildConfig returns the guild config model.
func (r *Repository) GuildConfig() *models.GuildConfigModel {
	return r.guildConfig
}

// Warning returns the warning model.
func (r *Repository) Warning() *models.WarningModel {
	return r.warning
}

// ModLog returns the moderation log model.
func (r *Repository) ModLog() *models.ModLogModel {
	return r.modLog
}
