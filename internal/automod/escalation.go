package automod

import (
	"time"

	"github.com/castellan/castellan/internal/database/types"
)

// Decision is the escalation outcome for a warning count. It is a closed
// variant: exactly one of the three action kinds, with Duration set only for
// timeouts.
type Decision struct {
	Action   types.ActionKind
	Duration time.Duration
}

// Decide maps a user's cumulative warning count to an automatic action.
//
// The policy is keyed by exact count: an entry at count 3 fires when the user
// reaches exactly 3 warnings and never again afterwards. Policies must
// enumerate every triggering count explicitly. The count passed in must
// already include the warning that triggered the lookup.
func Decide(warningCount int, cfg *types.GuildConfig) Decision {
	action, ok := cfg.EscalationPolicy[warningCount]
	if !ok {
		return Decision{Action: types.ActionKindNone}
	}

	switch action {
	case types.ActionKindTimeout:
		return Decision{
			Action:   types.ActionKindTimeout,
			Duration: time.Duration(cfg.TimeoutDuration) * time.Second,
		}
	case types.ActionKindBan:
		return Decision{Action: types.ActionKindBan}
	case types.ActionKindNone:
		return Decision{Action: types.ActionKindNone}
	default:
		// Unknown kinds in stored policy degrade to no action rather than
		// failing the pipeline.
		return Decision{Action: types.ActionKindNone}
	}
}
