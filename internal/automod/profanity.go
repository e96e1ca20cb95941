package automod

import (
	"fmt"
	"strings"

	"github.com/castellan/castellan/internal/database/types"
)

// checkProfanity matches the message content against the guild's blacklist.
// Matching is a case-insensitive substring search; the first word in
// declaration order wins.
func checkProfanity(cfg *types.GuildConfig, msg *Message) *Violation {
	content := strings.ToLower(msg.Content)

	for _, word := range cfg.BlacklistWords {
		if word != "" && strings.Contains(content, word) {
			return &Violation{
				Rule:    RuleProfanity,
				Message: fmt.Sprintf("Profanity detected: %s", word),
			}
		}
	}

	return nil
}
