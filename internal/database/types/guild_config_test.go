package types

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	cfg := &GuildConfig{
		GuildID:        1,
		BlacklistWords: []string{"MiXeD", "lower"},
		Thresholds:     SpamThresholds{MessagesPerMinute: -1},
	}

	cfg.Normalize()

	assert.Equal(t, DefaultMessagesPerMinute, cfg.Thresholds.MessagesPerMinute)
	assert.Equal(t, DefaultDuplicateMessages, cfg.Thresholds.DuplicateMessages)
	assert.Equal(t, DefaultMentionLimit, cfg.Thresholds.MentionLimit)
	assert.Equal(t, DefaultEmojiLimit, cfg.Thresholds.EmojiLimit)
	assert.Equal(t, DefaultMaxWarnings, cfg.MaxWarnings)
	assert.Equal(t, DefaultTimeoutDuration, cfg.TimeoutDuration)
	assert.Equal(t, []string{"mixed", "lower"}, cfg.BlacklistWords)
}

func TestHasImmuneRole(t *testing.T) {
	t.Parallel()

	cfg := NewGuildConfig(1)
	cfg.ImmuneRoles = []string{"Trusted", "Staff"}

	assert.True(t, cfg.HasImmuneRole([]string{"Member", "Staff"}))
	assert.False(t, cfg.HasImmuneRole([]string{"Member"}))
	assert.False(t, cfg.HasImmuneRole(nil))
}

func TestTruncateReason(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "short", TruncateReason("short"))

	long := strings.Repeat("a", MaxReasonLength+50)
	assert.Len(t, TruncateReason(long), MaxReasonLength)
}
