package types

import (
	"strings"
	"time"
)

// ActionKind identifies an automatic escalation action configured for a
// warning count.
type ActionKind string

const (
	ActionKindNone    ActionKind = "none"
	ActionKindTimeout ActionKind = "timeout"
	ActionKindBan     ActionKind = "ban"
)

// SpamThresholds bundles the limits used by the spam, mention and emoji checks.
type SpamThresholds struct {
	MessagesPerMinute int `json:"messages_per_minute"`
	DuplicateMessages int `json:"duplicate_messages"`
	MentionLimit      int `json:"mention_limit"`
	EmojiLimit        int `json:"emoji_limit"`
}

// GuildConfig holds the per-guild moderation settings. One row per guild;
// the whole row is read and written atomically so the engine always sees a
// consistent snapshot.
type GuildConfig struct {
	GuildID          uint64             `bun:",pk"`                 // Discord guild ID
	AutomodEnabled   bool               `bun:",notnull"`            // Master switch for the rule engine
	ProfanityFilter  bool               `bun:",notnull"`            // Toggle for the blacklist check
	SpamDetection    bool               `bun:",notnull"`            // Toggle for rate/duplicate checks
	BlacklistWords   []string           `bun:",type:jsonb"`         // Lowercased words, declaration order preserved
	Thresholds       SpamThresholds     `bun:",type:jsonb,notnull"` // Spam/mention/emoji limits
	MaxWarnings      int                `bun:",notnull"`            // Shown to users in alert embeds
	TimeoutDuration  int                `bun:",notnull"`            // Escalation timeout length in seconds
	EscalationPolicy map[int]ActionKind `bun:",type:jsonb"`         // Exact warning count -> action
	ImmuneRoles      []string           `bun:",type:jsonb"`         // Role names exempt from automod
	ModeratorRoles   []string           `bun:",type:jsonb"`         // Role names allowed to use mod commands
	LogChannelID     uint64             `bun:",nullzero"`           // Channel for moderation log embeds
	WelcomeChannelID uint64             `bun:",nullzero"`           // Channel for welcome messages
	WelcomeMessage   string             `bun:",nullzero"`
	WelcomeEnabled   bool               `bun:",notnull"`
	UpdatedAt        time.Time          `bun:",notnull"`
}

// Defaults documented in the error-handling design: used for guilds without a
// stored config and as the fallback when a stored row is malformed.
const (
	DefaultMaxWarnings       = 3
	DefaultTimeoutDuration   = 300
	DefaultMessagesPerMinute = 10
	DefaultDuplicateMessages = 3
	DefaultMentionLimit      = 5
	DefaultEmojiLimit        = 10
)

// NewGuildConfig returns the default configuration for a guild.
func NewGuildConfig(guildID uint64) *GuildConfig {
	return &GuildConfig{
		GuildID:         guildID,
		AutomodEnabled:  true,
		ProfanityFilter: true,
		SpamDetection:   true,
		Thresholds: SpamThresholds{
			MessagesPerMinute: DefaultMessagesPerMinute,
			DuplicateMessages: DefaultDuplicateMessages,
			MentionLimit:      DefaultMentionLimit,
			EmojiLimit:        DefaultEmojiLimit,
		},
		MaxWarnings:     DefaultMaxWarnings,
		TimeoutDuration: DefaultTimeoutDuration,
		UpdatedAt:       time.Now(),
	}
}

// Normalize repairs a config loaded from storage so the engine never operates
// on zero or negative thresholds, and keeps blacklist matching case-insensitive
// by lowercasing the stored words.
func (c *GuildConfig) Normalize() {
	if c.Thresholds.MessagesPerMinute <= 0 {
		c.Thresholds.MessagesPerMinute = DefaultMessagesPerMinute
	}

	if c.Thresholds.DuplicateMessages <= 0 {
		c.Thresholds.DuplicateMessages = DefaultDuplicateMessages
	}

	if c.Thresholds.MentionLimit <= 0 {
		c.Thresholds.MentionLimit = DefaultMentionLimit
	}

	if c.Thresholds.EmojiLimit <= 0 {
		c.Thresholds.EmojiLimit = DefaultEmojiLimit
	}

	if c.MaxWarnings <= 0 {
		c.MaxWarnings = DefaultMaxWarnings
	}

	if c.TimeoutDuration <= 0 {
		c.TimeoutDuration = DefaultTimeoutDuration
	}

	for i, word := range c.BlacklistWords {
		c.BlacklistWords[i] = strings.ToLower(word)
	}
}

// HasImmuneRole reports whether any of the given role names is configured as
// immune to auto-moderation.
func (c *GuildConfig) HasImmuneRole(roleNames []string) bool {
	for _, immune := range c.ImmuneRoles {
		for _, name := range roleNames {
			if name == immune {
				return true
			}
		}
	}

	return false
}
