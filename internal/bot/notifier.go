package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/castellan/castellan/internal/automod"
	"github.com/castellan/castellan/internal/bot/constants"
	"github.com/castellan/castellan/internal/database/types"
	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"
	"go.uber.org/zap"
)

// notifier posts guild-facing embeds: violation alerts in the offending
// channel, mirrored audit embeds in the configured log channel, and welcome
// messages. All sends are best-effort.
type notifier struct {
	client bot.Client
	logger *zap.Logger
}

func newNotifier(client bot.Client, logger *zap.Logger) *notifier {
	return &notifier{
		client: client,
		logger: logger.Named("notifier"),
	}
}

// ViolationAlert implements automod.Notifier.
func (n *notifier) ViolationAlert(ctx context.Context, cfg *types.GuildConfig, alert automod.Alert) {
	embed := discord.NewEmbedBuilder().
		SetTitle("Auto-Moderation").
		SetDescription(alert.Violation.Message).
		SetColor(violationColor(alert.Action)).
		AddField("User", fmt.Sprintf("<@%d>", alert.Message.UserID), true).
		AddField("Warnings", fmt.Sprintf("%d/%d", alert.WarningCount, alert.MaxWarnings), true).
		SetTimestamp(time.Now())

	if alert.Action != types.ActionKindNone {
		embed.AddField("Action", string(alert.Action), true)
	}

	if alert.ActionNote != "" {
		embed.AddField("Note", alert.ActionNote, false)
	}

	message := discord.NewMessageCreateBuilder().SetEmbeds(embed.Build()).Build()

	n.send(ctx, alert.Message.ChannelID, message)

	if cfg.LogChannelID != 0 && cfg.LogChannelID != alert.Message.ChannelID {
		n.send(ctx, cfg.LogChannelID, message)
	}
}

// LogAction mirrors a moderation command into the guild's log channel.
func (n *notifier) LogAction(ctx context.Context, cfg *types.GuildConfig, entry *types.ModerationLog) {
	if cfg.LogChannelID == 0 {
		return
	}

	embed := discord.NewEmbedBuilder().
		SetTitle(actionTitle(entry.Action)).
		SetColor(actionColor(entry.Action)).
		AddField("Moderator", fmt.Sprintf("<@%d>", entry.ModeratorID), true).
		SetTimestamp(time.Now())

	if entry.UserID != 0 {
		embed.AddField("User", fmt.Sprintf("<@%d>", entry.UserID), true)
	}

	if entry.Reason != "" {
		embed.AddField("Reason", entry.Reason, false)
	}

	if entry.Duration > 0 {
		embed.AddField("Duration", (time.Duration(entry.Duration) * time.Second).String(), true)
	}

	n.send(ctx, cfg.LogChannelID, discord.NewMessageCreateBuilder().SetEmbeds(embed.Build()).Build())
}

// Welcome greets a new member in the configured welcome channel.
func (n *notifier) Welcome(ctx context.Context, cfg *types.GuildConfig, userID uint64) {
	if !cfg.WelcomeEnabled || cfg.WelcomeChannelID == 0 {
		return
	}

	text := cfg.WelcomeMessage
	if text == "" {
		text = "Welcome to the server, {user}!"
	}

	text = replaceUserPlaceholder(text, userID)

	n.send(ctx, cfg.WelcomeChannelID,
		discord.NewMessageCreateBuilder().SetContent(text).Build())
}

// NotifyUser DMs the target about an action taken against them. Failures are
// expected (closed DMs, shared-guild requirements) and only logged.
func (n *notifier) NotifyUser(ctx context.Context, guildID, userID uint64, title, reason string) {
	guildName := "the server"
	if guild, ok := n.client.Caches().Guild(snowflake.ID(guildID)); ok {
		guildName = guild.Name
	}

	channel, err := n.client.Rest().CreateDMChannel(snowflake.ID(userID), rest.WithCtx(ctx))
	if err != nil {
		n.logger.Debug("Failed to open DM channel",
			zap.Uint64("userID", userID),
			zap.Error(err))

		return
	}

	embed := discord.NewEmbedBuilder().
		SetTitle(title).
		SetDescription(fmt.Sprintf("Server: %s", guildName)).
		SetColor(constants.ColorInfo).
		SetTimestamp(time.Now())

	if reason != "" {
		embed.AddField("Reason", reason, false)
	}

	n.send(ctx, uint64(channel.ID()),
		discord.NewMessageCreateBuilder().SetEmbeds(embed.Build()).Build())
}

func (n *notifier) send(ctx context.Context, channelID uint64, message discord.MessageCreate) {
	_, err := n.client.Rest().CreateMessage(snowflake.ID(channelID), message, rest.WithCtx(ctx))
	if err != nil {
		n.logger.Warn("Failed to send notification",
			zap.Uint64("channelID", channelID),
			zap.Error(err))
	}
}

func replaceUserPlaceholder(text string, userID uint64) string {
	return strings.ReplaceAll(text, "{user}", fmt.Sprintf("<@%d>", userID))
}

func violationColor(action types.ActionKind) int {
	switch action {
	case types.ActionKindTimeout:
		return constants.ColorTimeout
	case types.ActionKindBan:
		return constants.ColorBan
	case types.ActionKindNone:
		return constants.ColorWarn
	default:
		return constants.ColorWarn
	}
}

func actionTitle(action types.ModAction) string {
	switch action {
	case types.ModActionWarn, types.ModActionAutoWarn:
		return "Member Warned"
	case types.ModActionUnwarn:
		return "Warning Removed"
	case types.ModActionTimeout:
		return "Member Timed Out"
	case types.ModActionUntimeout:
		return "Timeout Removed"
	case types.ModActionKick:
		return "Member Kicked"
	case types.ModActionBan:
		return "Member Banned"
	case types.ModActionUnban:
		return "Member Unbanned"
	case types.ModActionPurge:
		return "Messages Purged"
	default:
		return "Moderation Action"
	}
}

func actionColor(action types.ModAction) int {
	switch action {
	case types.ModActionWarn, types.ModActionAutoWarn:
		return constants.ColorWarn
	case types.ModActionTimeout:
		return constants.ColorTimeout
	case types.ModActionKick, types.ModActionBan:
		return constants.ColorBan
	case types.ModActionUnwarn, types.ModActionUntimeout, types.ModActionUnban:
		return constants.ColorSuccess
	case types.ModActionPurge:
		return constants.ColorInfo
	default:
		return constants.ColorInfo
	}
}
