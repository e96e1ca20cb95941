package automod

import (
	"strings"
	"testing"

	"github.com/castellan/castellan/internal/database/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckProfanity(t *testing.T) {
	t.Parallel()

	cfg := types.NewGuildConfig(1)
	cfg.BlacklistWords = []string{"alpha", "beta"}

	t.Run("case insensitive", func(t *testing.T) {
		t.Parallel()

		v := checkProfanity(cfg, &Message{Content: "some ALPHA here"})
		require.NotNil(t, v)
		assert.Equal(t, RuleProfanity, v.Rule)
		assert.Contains(t, v.Message, "alpha")
	})

	t.Run("substring match", func(t *testing.T) {
		t.Parallel()

		v := checkProfanity(cfg, &Message{Content: "xxbetaxx"})
		require.NotNil(t, v)
		assert.Contains(t, v.Message, "beta")
	})

	t.Run("declaration order wins", func(t *testing.T) {
		t.Parallel()

		v := checkProfanity(cfg, &Message{Content: "beta then alpha"})
		require.NotNil(t, v)
		assert.Contains(t, v.Message, "alpha")
	})

	t.Run("clean", func(t *testing.T) {
		t.Parallel()

		assert.Nil(t, checkProfanity(cfg, &Message{Content: "nothing wrong"}))
	})
}

func TestCheckSpamPrecedence(t *testing.T) {
	t.Parallel()

	cfg := types.NewGuildConfig(1)
	cfg.Thresholds.MessagesPerMinute = 5
	cfg.Thresholds.DuplicateMessages = 3

	// Both thresholds exceeded: the rate rule wins.
	v := checkSpam(cfg, RateState{MessageCount: 6, DuplicateCount: 5})
	require.NotNil(t, v)
	assert.Equal(t, RuleSpamRate, v.Rule)

	// Rate at the limit is clean; duplicates at the limit are not.
	v = checkSpam(cfg, RateState{MessageCount: 5, DuplicateCount: 3})
	require.NotNil(t, v)
	assert.Equal(t, RuleSpamDupes, v.Rule)

	assert.Nil(t, checkSpam(cfg, RateState{MessageCount: 5, DuplicateCount: 2}))
}

func TestCountEmoji(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    int
	}{
		{name: "plain text", content: "hello world", want: 0},
		{name: "unicode emoji", content: "nice 😀😀 work 🚀", want: 3},
		{name: "custom emoji", content: "<:pepe:123456> and <a:dance:789>", want: 2},
		{name: "mixed", content: "😀 <:pepe:123456> ☀", want: 3},
		{name: "malformed custom token", content: "<:broken:> text", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, countEmoji(tt.content))
		})
	}
}

func TestCheckEmojiBoundary(t *testing.T) {
	t.Parallel()

	cfg := types.NewGuildConfig(1)
	cfg.Thresholds.EmojiLimit = 3

	atLimit := strings.Repeat("😀", 3)
	assert.Nil(t, checkEmoji(cfg, &Message{Content: atLimit}))

	overLimit := strings.Repeat("😀", 4)
	v := checkEmoji(cfg, &Message{Content: overLimit})
	require.NotNil(t, v)
	assert.Equal(t, RuleEmoji, v.Rule)
}

func TestCheckZalgoBoundary(t *testing.T) {
	t.Parallel()

	// U+0301 is a combining acute accent.
	atLimit := "h" + strings.Repeat("́", 10)
	assert.Nil(t, checkZalgo(&Message{Content: atLimit}))

	overLimit := "h" + strings.Repeat("́", 11)
	v := checkZalgo(&Message{Content: overLimit})
	require.NotNil(t, v)
	assert.Equal(t, RuleZalgo, v.Rule)
}

func TestCheckMentionsBoundary(t *testing.T) {
	t.Parallel()

	cfg := types.NewGuildConfig(1)
	cfg.Thresholds.MentionLimit = 4

	assert.Nil(t, checkMentions(cfg, &Message{Mentions: 2, RoleMentions: 2}))

	v := checkMentions(cfg, &Message{Mentions: 3, RoleMentions: 2})
	require.NotNil(t, v)
	assert.Equal(t, RuleMentions, v.Rule)
}
