package automod

import (
	"context"

	"github.com/castellan/castellan/internal/database/types"
	"go.uber.org/zap"
)

// ConfigSource provides per-guild moderation configuration.
type ConfigSource interface {
	Get(ctx context.Context, guildID uint64) (*types.GuildConfig, error)
}

// WarningLedger records warnings and reports the user's total after each
// append.
type WarningLedger interface {
	Append(
		ctx context.Context, guildID, userID, moderatorID uint64, reason string,
	) (*types.Warning, int, error)
}

// AuditLog records moderation actions for later review.
type AuditLog interface {
	Append(ctx context.Context, entry *types.ModerationLog) error
}

// Alert describes a handled violation for guild-facing notification.
type Alert struct {
	Message      *Message
	Violation    Violation
	WarningCount int
	MaxWarnings  int
	Action       types.ActionKind
	Degraded     bool
	ActionNote   string
}

// Notifier posts violation alerts to the guild. Implementations are
// best-effort; the engine never inspects their result.
type Notifier interface {
	ViolationAlert(ctx context.Context, cfg *types.GuildConfig, alert Alert)
}

// Options configures engine behavior that is not per-guild.
type Options struct {
	// BotID identifies the bot itself so its own messages bypass moderation
	// and automatic warnings are attributed to it.
	BotID uint64
}

// Engine runs the auto-moderation pipeline for incoming messages.
type Engine struct {
	configs  ConfigSource
	warnings WarningLedger
	tracker  Tracker
	executor *Executor
	notifier Notifier
	logger   *zap.Logger
	botID    uint64
}

// NewEngine creates the moderation engine. notifier may be nil.
func NewEngine(
	configs ConfigSource, warnings WarningLedger, tracker Tracker, executor *Executor,
	notifier Notifier, opts Options, logger *zap.Logger,
) *Engine {
	return &Engine{
		configs:  configs,
		warnings: warnings,
		tracker:  tracker,
		executor: executor,
		notifier: notifier,
		logger:   logger.Named("automod"),
		botID:    opts.BotID,
	}
}

// ProcessMessage evaluates one message end to end: bypass gate, rule checks,
// warning escalation and remediation. A non-nil error is always a
// *StorageError; every other failure mode is absorbed into the outcome.
func (e *Engine) ProcessMessage(ctx context.Context, msg *Message) (Outcome, error) {
	if msg.IsBot || msg.UserID == e.botID || msg.GuildID == 0 {
		return Outcome{Kind: OutcomeBypassed}, nil
	}

	cfg, err := e.configs.Get(ctx, msg.GuildID)
	if err != nil {
		// Config fetch failures fall back to defaults so moderation keeps
		// running with conservative settings.
		e.logger.Warn("Falling back to default guild config",
			zap.Uint64("guildID", msg.GuildID),
			zap.Error(err))

		cfg = types.NewGuildConfig(msg.GuildID)
	}

	if !cfg.AutomodEnabled || msg.IsAdmin || cfg.HasImmuneRole(msg.RoleNames) {
		return Outcome{Kind: OutcomeBypassed}, nil
	}

	violation, err := e.evaluate(ctx, cfg, msg)
	if err != nil {
		return Outcome{}, err
	}

	if violation == nil {
		return Outcome{Kind: OutcomeClean}, nil
	}

	return e.handleViolation(ctx, cfg, msg, violation)
}

// evaluate runs the rule checks in fixed order and returns the first
// violation. The rate tracker is only consulted, and only mutated, when spam
// detection is enabled and no earlier rule fired.
func (e *Engine) evaluate(
	ctx context.Context, cfg *types.GuildConfig, msg *Message,
) (*Violation, error) {
	if cfg.ProfanityFilter {
		if v := checkProfanity(cfg, msg); v != nil {
			return v, nil
		}
	}

	if cfg.SpamDetection {
		state, err := e.tracker.Track(ctx, msg.GuildID, msg.UserID, msg.Content, msg.Timestamp)
		if err != nil {
			return nil, &StorageError{Err: err}
		}

		if v := checkSpam(cfg, state); v != nil {
			return v, nil
		}
	}

	if v := checkMentions(cfg, msg); v != nil {
		return v, nil
	}

	if v := checkEmoji(cfg, msg); v != nil {
		return v, nil
	}

	return checkZalgo(msg), nil
}

// handleViolation appends the warning, decides escalation and applies
// remediation. The warning append happens before any gateway call so a
// storage failure leaves the platform untouched.
func (e *Engine) handleViolation(
	ctx context.Context, cfg *types.GuildConfig, msg *Message, violation *Violation,
) (Outcome, error) {
	_, count, err := e.warnings.Append(
		ctx, msg.GuildID, msg.UserID, e.botID, "Auto-moderation: "+violation.Message,
	)
	if err != nil {
		return Outcome{}, &StorageError{Err: err}
	}

	decision := Decide(count, cfg)
	result := e.executor.Apply(ctx, decision, msg, violation, e.botID)

	e.logger.Info("Handled violation",
		zap.Uint64("guildID", msg.GuildID),
		zap.Uint64("userID", msg.UserID),
		zap.String("rule", violation.Rule),
		zap.Int("warningCount", count),
		zap.String("action", string(result.Action)),
		zap.Bool("degraded", result.Degraded))

	if e.notifier != nil {
		e.notifier.ViolationAlert(ctx, cfg, Alert{
			Message:      msg,
			Violation:    *violation,
			WarningCount: count,
			MaxWarnings:  cfg.MaxWarnings,
			Action:       result.Action,
			Degraded:     result.Degraded,
			ActionNote:   result.ActionNote,
		})
	}

	return Outcome{
		Kind:     OutcomeViolated,
		Rule:     violation.Rule,
		Action:   result.Action,
		Degraded: result.Degraded,
	}, nil
}
