package types

import (
	"time"
)

// MaxReasonLength bounds warning and log reasons before they are persisted.
const MaxReasonLength = 512

// Warning is one entry in the append-only warning ledger. Rows are never
// mutated; they are only created, listed and deleted.
type Warning struct {
	ID          int64     `bun:",pk,autoincrement"` // Monotonically assigned identifier
	GuildID     uint64    `bun:",notnull"`
	UserID      uint64    `bun:",notnull"`
	ModeratorID uint64    `bun:",notnull"` // Bot's own ID for automod warnings
	Reason      string    `bun:",notnull"`
	CreatedAt   time.Time `bun:",notnull"`
}

// ModAction identifies the kind of a moderation audit entry.
type ModAction string

const (
	ModActionWarn      ModAction = "warn"
	ModActionAutoWarn  ModAction = "auto_warn"
	ModActionUnwarn    ModAction = "unwarn"
	ModActionTimeout   ModAction = "timeout"
	ModActionUntimeout ModAction = "untimeout"
	ModActionKick      ModAction = "kick"
	ModActionBan       ModAction = "ban"
	ModActionUnban     ModAction = "unban"
	ModActionPurge     ModAction = "purge"
)

// ModerationLog is one row of the per-guild audit log.
type ModerationLog struct {
	ID          int64     `bun:",pk,autoincrement"`
	GuildID     uint64    `bun:",notnull"`
	UserID      uint64    `bun:",nullzero"` // Zero for actions without a single target (purge)
	ModeratorID uint64    `bun:",notnull"`
	Action      ModAction `bun:",notnull"`
	Reason      string    `bun:",nullzero"`
	Duration    int       `bun:",nullzero"` // Seconds, for timeouts
	CreatedAt   time.Time `bun:",notnull"`
}

// TruncateReason bounds a reason string to MaxReasonLength runes.
func TruncateReason(reason string) string {
	runes := []rune(reason)
	if len(runes) <= MaxReasonLength {
		return reason
	}

	return string(runes[:MaxReasonLength])
}
