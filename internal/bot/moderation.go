package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/castellan/castellan/internal/automod"
	"github.com/castellan/castellan/internal/bot/constants"
	"github.com/castellan/castellan/internal/database/types"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"go.uber.org/zap"
)

// optionReason returns the reason option or the documented default.
func optionReason(data discord.SlashCommandInteractionData) string {
	if reason, ok := data.OptString("reason"); ok && reason != "" {
		return reason
	}

	return constants.DefaultReason
}

// logModAction persists an audit entry and mirrors it to the log channel.
// Audit failures degrade to a log line so commands still report success.
func (b *Bot) logModAction(
	ctx context.Context, cfg *types.GuildConfig, entry *types.ModerationLog,
) {
	if err := b.db.Model().ModLog().Append(ctx, entry); err != nil {
		b.logger.Error("Failed to append audit entry",
			zap.Uint64("guildID", entry.GuildID),
			zap.String("action", string(entry.Action)),
			zap.Error(err))
	}

	b.notifier.LogAction(ctx, cfg, entry)
}

// respondGatewayError turns a gateway error into a user-facing message.
func (b *Bot) respondGatewayError(event *events.ApplicationCommandInteractionCreate, err error) {
	switch {
	case errors.Is(err, automod.ErrForbidden):
		b.respondError(event, "I do not have permission to do that.")
	case errors.Is(err, automod.ErrNotFound):
		b.respondError(event, "Target not found. They may have already left.")
	default:
		b.respondError(event, "The request failed. Please try again later.")
	}
}

// checkTarget rejects actions against members whose highest role is equal to
// or above the moderator's. Targets no longer in the guild (unban, bans by
// ID) have no resolved member and pass.
func (b *Bot) checkTarget(
	event *events.ApplicationCommandInteractionCreate, data discord.SlashCommandInteractionData,
) bool {
	target, ok := data.OptMember("user")
	if !ok {
		return true
	}

	if !b.canTarget(*event.GuildID(), event.Member(), target) {
		b.respondError(event, "You cannot moderate a member with an equal or higher role.")
		return false
	}

	return true
}

func (b *Bot) handleWarn(
	ctx context.Context, event *events.ApplicationCommandInteractionCreate,
	data discord.SlashCommandInteractionData, cfg *types.GuildConfig,
) {
	if !b.checkTarget(event, data) {
		return
	}

	guildID := uint64(*event.GuildID())
	userID := uint64(data.Snowflake("user"))
	moderatorID := uint64(event.User().ID)
	reason := optionReason(data)

	_, count, err := b.db.Model().Warning().Append(ctx, guildID, userID, moderatorID, reason)
	if err != nil {
		b.respondError(event, "Failed to record the warning. Please try again later.")
		return
	}

	// Manual warnings feed the same escalation policy as automatic ones.
	decision := automod.Decide(count, cfg)
	escalationNote := ""

	switch decision.Action {
	case types.ActionKindTimeout:
		err = b.gateway.TimeoutMember(ctx, guildID, userID, time.Now().Add(decision.Duration), reason)
		if err != nil && !errors.Is(err, automod.ErrNotFound) {
			escalationNote = "Escalation timeout could not be applied."
		} else {
			escalationNote = fmt.Sprintf("Escalation: timed out for %s.", decision.Duration)
		}
	case types.ActionKindBan:
		err = b.gateway.BanMember(ctx, guildID, userID, 0, reason)
		if err != nil && !errors.Is(err, automod.ErrNotFound) {
			escalationNote = "Escalation ban could not be applied."
		} else {
			escalationNote = "Escalation: banned."
		}
	case types.ActionKindNone:
	}

	b.logModAction(ctx, cfg, &types.ModerationLog{
		GuildID:     guildID,
		UserID:      userID,
		ModeratorID: moderatorID,
		Action:      types.ModActionWarn,
		Reason:      reason,
	})

	b.notifier.NotifyUser(ctx, guildID, userID, "You have been warned", reason)

	embed := discord.NewEmbedBuilder().
		SetTitle("Member Warned").
		SetDescription(fmt.Sprintf("<@%d> has been warned. (%d/%d)", userID, count, cfg.MaxWarnings)).
		SetColor(constants.ColorWarn).
		AddField("Reason", reason, false)

	if escalationNote != "" {
		embed.AddField("Escalation", escalationNote, false)
	}

	b.respond(event, embed.Build())
}

func (b *Bot) handleWarnings(
	ctx context.Context, event *events.ApplicationCommandInteractionCreate,
	data discord.SlashCommandInteractionData,
) {
	guildID := uint64(*event.GuildID())
	userID := uint64(data.Snowflake("user"))

	warnings, err := b.db.Model().Warning().List(ctx, guildID, userID)
	if err != nil {
		b.respondError(event, "Failed to load warnings. Please try again later.")
		return
	}

	embed := discord.NewEmbedBuilder().
		SetTitle("Warnings").
		SetDescription(fmt.Sprintf("<@%d> has %d warning(s).", userID, len(warnings))).
		SetColor(constants.ColorInfo)

	for i, warning := range warnings {
		if i >= constants.WarningListPageSize {
			break
		}

		embed.AddField(
			fmt.Sprintf("#%d • %s", warning.ID, warning.CreatedAt.Format("2006-01-02 15:04")),
			warning.Reason,
			false,
		)
	}

	b.respond(event, embed.Build())
}

func (b *Bot) handleUnwarn(
	ctx context.Context, event *events.ApplicationCommandInteractionCreate,
	data discord.SlashCommandInteractionData, cfg *types.GuildConfig,
) {
	warningID := int64(data.Int("id"))

	removed, err := b.db.Model().Warning().Remove(ctx, warningID)
	if err != nil {
		b.respondError(event, "Failed to remove the warning. Please try again later.")
		return
	}

	if !removed {
		b.respondError(event, fmt.Sprintf("Warning #%d does not exist.", warningID))
		return
	}

	b.logModAction(ctx, cfg, &types.ModerationLog{
		GuildID:     uint64(*event.GuildID()),
		ModeratorID: uint64(event.User().ID),
		Action:      types.ModActionUnwarn,
		Reason:      fmt.Sprintf("Removed warning #%d", warningID),
	})

	b.respond(event, discord.NewEmbedBuilder().
		SetDescription(fmt.Sprintf("Warning #%d removed.", warningID)).
		SetColor(constants.ColorSuccess).
		Build())
}

func (b *Bot) handleClearWarns(
	ctx context.Context, event *events.ApplicationCommandInteractionCreate,
	data discord.SlashCommandInteractionData, cfg *types.GuildConfig,
) {
	guildID := uint64(*event.GuildID())
	userID := uint64(data.Snowflake("user"))

	if err := b.db.Model().Warning().Clear(ctx, guildID, userID); err != nil {
		b.respondError(event, "Failed to clear warnings. Please try again later.")
		return
	}

	b.logModAction(ctx, cfg, &types.ModerationLog{
		GuildID:     guildID,
		UserID:      userID,
		ModeratorID: uint64(event.User().ID),
		Action:      types.ModActionUnwarn,
		Reason:      "Cleared all warnings",
	})

	b.respond(event, discord.NewEmbedBuilder().
		SetDescription(fmt.Sprintf("All warnings for <@%d> cleared.", userID)).
		SetColor(constants.ColorSuccess).
		Build())
}

func (b *Bot) handleTimeout(
	ctx context.Context, event *events.ApplicationCommandInteractionCreate,
	data discord.SlashCommandInteractionData, cfg *types.GuildConfig,
) {
	if !b.checkTarget(event, data) {
		return
	}

	guildID := uint64(*event.GuildID())
	userID := uint64(data.Snowflake("user"))
	reason := optionReason(data)

	duration := time.Duration(data.Int("minutes")) * time.Minute
	if duration > constants.MaxTimeoutDuration {
		duration = constants.MaxTimeoutDuration
	}

	err := b.gateway.TimeoutMember(ctx, guildID, userID, time.Now().Add(duration), reason)
	if err != nil {
		b.respondGatewayError(event, err)
		return
	}

	b.logModAction(ctx, cfg, &types.ModerationLog{
		GuildID:     guildID,
		UserID:      userID,
		ModeratorID: uint64(event.User().ID),
		Action:      types.ModActionTimeout,
		Reason:      reason,
		Duration:    int(duration / time.Second),
	})

	b.notifier.NotifyUser(ctx, guildID, userID,
		fmt.Sprintf("You have been timed out for %s", duration), reason)

	b.respond(event, discord.NewEmbedBuilder().
		SetTitle("Member Timed Out").
		SetDescription(fmt.Sprintf("<@%d> has been timed out for %s.", userID, duration)).
		SetColor(constants.ColorTimeout).
		AddField("Reason", reason, false).
		Build())
}

func (b *Bot) handleUntimeout(
	ctx context.Context, event *events.ApplicationCommandInteractionCreate,
	data discord.SlashCommandInteractionData, cfg *types.GuildConfig,
) {
	guildID := uint64(*event.GuildID())
	userID := uint64(data.Snowflake("user"))
	reason := optionReason(data)

	if err := b.gateway.RemoveTimeout(ctx, guildID, userID, reason); err != nil {
		b.respondGatewayError(event, err)
		return
	}

	b.logModAction(ctx, cfg, &types.ModerationLog{
		GuildID:     guildID,
		UserID:      userID,
		ModeratorID: uint64(event.User().ID),
		Action:      types.ModActionUntimeout,
		Reason:      reason,
	})

	b.respond(event, discord.NewEmbedBuilder().
		SetDescription(fmt.Sprintf("Timeout removed for <@%d>.", userID)).
		SetColor(constants.ColorSuccess).
		Build())
}

func (b *Bot) handleKick(
	ctx context.Context, event *events.ApplicationCommandInteractionCreate,
	data discord.SlashCommandInteractionData, cfg *types.GuildConfig,
) {
	if !b.checkTarget(event, data) {
		return
	}

	guildID := uint64(*event.GuildID())
	userID := uint64(data.Snowflake("user"))
	reason := optionReason(data)

	// DM before the kick; afterwards the bot shares no guild with them.
	b.notifier.NotifyUser(ctx, guildID, userID, "You have been kicked", reason)

	if err := b.gateway.KickMember(ctx, guildID, userID, reason); err != nil {
		b.respondGatewayError(event, err)
		return
	}

	b.logModAction(ctx, cfg, &types.ModerationLog{
		GuildID:     guildID,
		UserID:      userID,
		ModeratorID: uint64(event.User().ID),
		Action:      types.ModActionKick,
		Reason:      reason,
	})

	b.respond(event, discord.NewEmbedBuilder().
		SetTitle("Member Kicked").
		SetDescription(fmt.Sprintf("<@%d> has been kicked.", userID)).
		SetColor(constants.ColorBan).
		AddField("Reason", reason, false).
		Build())
}

func (b *Bot) handleBan(
	ctx context.Context, event *events.ApplicationCommandInteractionCreate,
	data discord.SlashCommandInteractionData, cfg *types.GuildConfig,
) {
	guildID := uint64(*event.GuildID())
	userID := uint64(data.Snowflake("user"))
	reason := optionReason(data)

	deleteDays, _ := data.OptInt("delete_days")
	retention := time.Duration(deleteDays) * 24 * time.Hour

	if !b.checkTarget(event, data) {
		return
	}

	// DM before the ban; afterwards the bot shares no guild with them.
	b.notifier.NotifyUser(ctx, guildID, userID, "You have been banned", reason)

	if err := b.gateway.BanMember(ctx, guildID, userID, retention, reason); err != nil {
		b.respondGatewayError(event, err)
		return
	}

	b.logModAction(ctx, cfg, &types.ModerationLog{
		GuildID:     guildID,
		UserID:      userID,
		ModeratorID: uint64(event.User().ID),
		Action:      types.ModActionBan,
		Reason:      reason,
	})

	b.respond(event, discord.NewEmbedBuilder().
		SetTitle("Member Banned").
		SetDescription(fmt.Sprintf("<@%d> has been banned.", userID)).
		SetColor(constants.ColorBan).
		AddField("Reason", reason, false).
		Build())
}

func (b *Bot) handleUnban(
	ctx context.Context, event *events.ApplicationCommandInteractionCreate,
	data discord.SlashCommandInteractionData, cfg *types.GuildConfig,
) {
	guildID := uint64(*event.GuildID())
	userID := uint64(data.Snowflake("user"))
	reason := optionReason(data)

	if err := b.gateway.UnbanMember(ctx, guildID, userID, reason); err != nil {
		b.respondGatewayError(event, err)
		return
	}

	b.logModAction(ctx, cfg, &types.ModerationLog{
		GuildID:     guildID,
		UserID:      userID,
		ModeratorID: uint64(event.User().ID),
		Action:      types.ModActionUnban,
		Reason:      reason,
	})

	b.respond(event, discord.NewEmbedBuilder().
		SetDescription(fmt.Sprintf("<@%d> has been unbanned.", userID)).
		SetColor(constants.ColorSuccess).
		Build())
}

func (b *Bot) handlePurge(
	ctx context.Context, event *events.ApplicationCommandInteractionCreate,
	data discord.SlashCommandInteractionData, cfg *types.GuildConfig,
) {
	guildID := uint64(*event.GuildID())
	channelID := uint64(event.ChannelID())
	count := data.Int("count")

	var userID uint64
	if target, ok := data.OptSnowflake("user"); ok {
		userID = uint64(target)
	}

	deleted, err := b.gateway.PurgeMessages(ctx, channelID, count, userID, "Purge requested")
	if err != nil {
		b.respondGatewayError(event, err)
		return
	}

	b.logModAction(ctx, cfg, &types.ModerationLog{
		GuildID:     guildID,
		ModeratorID: uint64(event.User().ID),
		Action:      types.ModActionPurge,
		Reason:      fmt.Sprintf("Deleted %d message(s) in <#%d>", deleted, channelID),
	})

	b.respond(event, discord.NewEmbedBuilder().
		SetDescription(fmt.Sprintf("Deleted %d message(s).", deleted)).
		SetColor(constants.ColorSuccess).
		Build())
}

func (b *Bot) handleModLogs(
	ctx context.Context, event *events.ApplicationCommandInteractionCreate,
) {
	guildID := uint64(*event.GuildID())

	entries, err := b.db.Model().ModLog().Recent(ctx, guildID, constants.ModLogPageSize)
	if err != nil {
		b.respondError(event, "Failed to load moderation logs. Please try again later.")
		return
	}

	embed := discord.NewEmbedBuilder().
		SetTitle("Recent Moderation Actions").
		SetColor(constants.ColorInfo)

	if len(entries) == 0 {
		embed.SetDescription("No moderation actions recorded yet.")
	}

	for _, entry := range entries {
		target := "-"
		if entry.UserID != 0 {
			target = fmt.Sprintf("<@%d>", entry.UserID)
		}

		embed.AddField(
			fmt.Sprintf("%s • %s", entry.Action, entry.CreatedAt.Format("2006-01-02 15:04")),
			fmt.Sprintf("Target: %s • Moderator: <@%d>\n%s", target, entry.ModeratorID, entry.Reason),
			false,
		)
	}

	b.respond(event, embed.Build())
}
