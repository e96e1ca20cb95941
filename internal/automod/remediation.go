package automod

import (
	"context"
	"errors"
	"time"

	"github.com/castellan/castellan/internal/database/types"
	"go.uber.org/zap"
)

// RemediationOutcome reports what the executor actually managed to do.
type RemediationOutcome struct {
	Action   types.ActionKind
	Degraded bool
	// ActionNote carries a human-readable failure description for the alert
	// embed, e.g. "Could not timeout user (missing permissions)".
	ActionNote string
}

// Executor performs decided remediation against the chat gateway. Sub-actions
// are best-effort and independently fail-soft: a refused timeout never stops
// the audit entry, and a missing message never fails the pipeline.
type Executor struct {
	gateway      Gateway
	audit        AuditLog
	logger       *zap.Logger
	callTimeout  time.Duration
	banRetention time.Duration
}

// NewExecutor creates a remediation executor.
func NewExecutor(
	gateway Gateway, audit AuditLog, callTimeout, banRetention time.Duration, logger *zap.Logger,
) *Executor {
	return &Executor{
		gateway:      gateway,
		audit:        audit,
		logger:       logger.Named("remediation"),
		callTimeout:  callTimeout,
		banRetention: banRetention,
	}
}

// Apply deletes the offending message, executes the escalation decision and
// appends one audit entry. It never returns an error; failures downgrade the
// outcome instead.
func (e *Executor) Apply(
	ctx context.Context, decision Decision, msg *Message, violation *Violation, moderatorID uint64,
) RemediationOutcome {
	outcome := RemediationOutcome{Action: decision.Action}

	// The offending message is always deleted, independent of escalation.
	if err := e.call(ctx, func(ctx context.Context) error {
		return e.gateway.DeleteMessage(ctx, msg.ChannelID, msg.ID)
	}); err != nil && !errors.Is(err, ErrNotFound) {
		outcome.Degraded = true

		e.logger.Warn("Failed to delete message",
			zap.Uint64("guildID", msg.GuildID),
			zap.Uint64("messageID", msg.ID),
			zap.Error(err))
	}

	reason := "Auto-mod: " + violation.Message

	switch decision.Action {
	case types.ActionKindTimeout:
		until := time.Now().Add(decision.Duration)

		err := e.call(ctx, func(ctx context.Context) error {
			return e.gateway.TimeoutMember(ctx, msg.GuildID, msg.UserID, until, reason)
		})
		if err != nil && !errors.Is(err, ErrNotFound) {
			outcome.Degraded = true
			outcome.ActionNote = "Could not timeout user (missing permissions)"

			e.logger.Warn("Failed to timeout member",
				zap.Uint64("guildID", msg.GuildID),
				zap.Uint64("userID", msg.UserID),
				zap.Error(err))
		}
	case types.ActionKindBan:
		err := e.call(ctx, func(ctx context.Context) error {
			return e.gateway.BanMember(ctx, msg.GuildID, msg.UserID, e.banRetention, reason)
		})
		if err != nil && !errors.Is(err, ErrNotFound) {
			outcome.Degraded = true
			outcome.ActionNote = "Could not ban user (missing permissions)"

			e.logger.Warn("Failed to ban member",
				zap.Uint64("guildID", msg.GuildID),
				zap.Uint64("userID", msg.UserID),
				zap.Error(err))
		}
	case types.ActionKindNone:
	}

	e.appendAudit(ctx, decision, msg, violation, moderatorID)

	return outcome
}

// appendAudit records the handled violation. Audit failures are logged, never
// propagated.
func (e *Executor) appendAudit(
	ctx context.Context, decision Decision, msg *Message, violation *Violation, moderatorID uint64,
) {
	entry := &types.ModerationLog{
		GuildID:     msg.GuildID,
		UserID:      msg.UserID,
		ModeratorID: moderatorID,
		Action:      types.ModActionAutoWarn,
		Reason:      violation.Message,
	}

	switch decision.Action {
	case types.ActionKindTimeout:
		entry.Action = types.ModActionTimeout
		entry.Duration = int(decision.Duration / time.Second)
	case types.ActionKindBan:
		entry.Action = types.ModActionBan
	case types.ActionKindNone:
	}

	if err := e.audit.Append(ctx, entry); err != nil {
		e.logger.Error("Failed to append audit entry",
			zap.Uint64("guildID", msg.GuildID),
			zap.Uint64("userID", msg.UserID),
			zap.Error(err))
	}
}

// call runs one gateway sub-action under the executor's per-call timeout.
func (e *Executor) call(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, e.callTimeout)
	defer cancel()

	return fn(ctx)
}
