package automod

import (
	"fmt"

	"github.com/castellan/castellan/internal/database/types"
)

// checkSpam evaluates the tracker snapshot for this message. The rate check
// is strict greater-than and takes precedence over the duplicate check, which
// is inclusive.
func checkSpam(cfg *types.GuildConfig, state RateState) *Violation {
	if state.MessageCount > cfg.Thresholds.MessagesPerMinute {
		return &Violation{
			Rule:    RuleSpamRate,
			Message: fmt.Sprintf("Spam detected: %d messages in 1 minute", state.MessageCount),
		}
	}

	if state.DuplicateCount >= cfg.Thresholds.DuplicateMessages {
		return &Violation{
			Rule:    RuleSpamDupes,
			Message: fmt.Sprintf("Duplicate message spam: %d identical messages", state.DuplicateCount),
		}
	}

	return nil
}
