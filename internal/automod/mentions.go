package automod

import (
	"fmt"

	"github.com/castellan/castellan/internal/database/types"
)

// checkMentions flags messages mentioning more users and roles than the
// configured limit allows. Runs whenever automod is enabled; there is no
// individual toggle for this check.
func checkMentions(cfg *types.GuildConfig, msg *Message) *Violation {
	total := msg.Mentions + msg.RoleMentions
	if total > cfg.Thresholds.MentionLimit {
		return &Violation{
			Rule: RuleMentions,
			Message: fmt.Sprintf("Excessive mentions: %d mentions (limit: %d)",
				total, cfg.Thresholds.MentionLimit),
		}
	}

	return nil
}
