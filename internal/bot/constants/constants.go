// Package constants defines shared values used across the bot handlers.
package constants

import "time"

// Slash command names.
const (
	WarnCommandName       = "warn"
	WarningsCommandName   = "warnings"
	UnwarnCommandName     = "unwarn"
	ClearWarnsCommandName = "clearwarns"
	TimeoutCommandName    = "timeout"
	UntimeoutCommandName  = "untimeout"
	KickCommandName       = "kick"
	BanCommandName        = "ban"
	UnbanCommandName      = "unban"
	PurgeCommandName      = "purge"
	ModLogsCommandName    = "modlogs"
	ConfigCommandName     = "config"
)

// Embed colors per action category.
const (
	ColorInfo    = 0x5865F2
	ColorSuccess = 0x57F287
	ColorWarn    = 0xFEE75C
	ColorTimeout = 0xE67E22
	ColorBan     = 0xED4245
	ColorError   = 0x992D22
)

const (
	// MaxTimeoutDuration is the longest timeout Discord accepts.
	MaxTimeoutDuration = 28 * 24 * time.Hour

	// MaxPurgeCount is the most messages one purge request may delete.
	MaxPurgeCount = 100

	// MaxBanDeleteDays is the longest message deletion window on a ban.
	MaxBanDeleteDays = 7

	// ModLogPageSize is how many audit entries one embed shows.
	ModLogPageSize = 10

	// WarningListPageSize is how many warnings one embed shows.
	WarningListPageSize = 10
)

// DefaultReason is used when a moderator omits the reason option.
const DefaultReason = "No reason provided"
