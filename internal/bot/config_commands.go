package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/castellan/castellan/internal/bot/constants"
	"github.com/castellan/castellan/internal/database/types"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
)

// handleConfig dispatches the /config subcommands. Every mutating subcommand
// loads, changes and upserts the whole configuration row.
func (b *Bot) handleConfig(
	ctx context.Context, event *events.ApplicationCommandInteractionCreate,
	data discord.SlashCommandInteractionData, cfg *types.GuildConfig,
) {
	sub := ""
	if data.SubCommandName != nil {
		sub = *data.SubCommandName
	}

	switch sub {
	case "view":
		b.respond(event, configEmbed(cfg))
		return
	case "automod":
		cfg.AutomodEnabled = data.Bool("enabled")
	case "profanity":
		cfg.ProfanityFilter = data.Bool("enabled")
	case "spam":
		cfg.SpamDetection = data.Bool("enabled")
	case "blacklist-add":
		word := strings.ToLower(strings.TrimSpace(data.String("word")))
		if word == "" {
			b.respondError(event, "The word cannot be empty.")
			return
		}

		for _, existing := range cfg.BlacklistWords {
			if existing == word {
				b.respondError(event, "That word is already blacklisted.")
				return
			}
		}

		cfg.BlacklistWords = append(cfg.BlacklistWords, word)
	case "blacklist-remove":
		word := strings.ToLower(strings.TrimSpace(data.String("word")))
		if !removeString(&cfg.BlacklistWords, word) {
			b.respondError(event, "That word is not blacklisted.")
			return
		}
	case "thresholds":
		if v, ok := data.OptInt("messages_per_minute"); ok {
			cfg.Thresholds.MessagesPerMinute = v
		}

		if v, ok := data.OptInt("duplicates"); ok {
			cfg.Thresholds.DuplicateMessages = v
		}

		if v, ok := data.OptInt("mentions"); ok {
			cfg.Thresholds.MentionLimit = v
		}

		if v, ok := data.OptInt("emojis"); ok {
			cfg.Thresholds.EmojiLimit = v
		}
	case "warnings":
		if v, ok := data.OptInt("max"); ok {
			cfg.MaxWarnings = v
		}

		if v, ok := data.OptInt("timeout_seconds"); ok {
			cfg.TimeoutDuration = v
		}
	case "escalation":
		count := data.Int("count")
		action := types.ActionKind(data.String("action"))

		if action == types.ActionKindNone {
			delete(cfg.EscalationPolicy, count)
		} else {
			if cfg.EscalationPolicy == nil {
				cfg.EscalationPolicy = make(map[int]types.ActionKind)
			}

			cfg.EscalationPolicy[count] = action
		}
	case "logchannel":
		if channelID, ok := data.OptSnowflake("channel"); ok {
			cfg.LogChannelID = uint64(channelID)
		} else {
			cfg.LogChannelID = 0
		}
	case "welcome":
		if enabled, ok := data.OptBool("enabled"); ok {
			cfg.WelcomeEnabled = enabled
		}

		if channelID, ok := data.OptSnowflake("channel"); ok {
			cfg.WelcomeChannelID = uint64(channelID)
		}

		if message, ok := data.OptString("message"); ok {
			cfg.WelcomeMessage = message
		}
	case "immunerole-add":
		name, ok := b.optionRoleName(event, data)
		if !ok {
			return
		}

		cfg.ImmuneRoles = appendUnique(cfg.ImmuneRoles, name)
	case "immunerole-remove":
		name, ok := b.optionRoleName(event, data)
		if !ok {
			return
		}

		if !removeString(&cfg.ImmuneRoles, name) {
			b.respondError(event, "That role is not exempt.")
			return
		}
	case "modrole-add":
		name, ok := b.optionRoleName(event, data)
		if !ok {
			return
		}

		cfg.ModeratorRoles = appendUnique(cfg.ModeratorRoles, name)
	case "modrole-remove":
		name, ok := b.optionRoleName(event, data)
		if !ok {
			return
		}

		if !removeString(&cfg.ModeratorRoles, name) {
			b.respondError(event, "That role is not a moderator role.")
			return
		}
	default:
		b.respondError(event, "Unknown configuration subcommand.")
		return
	}

	if err := b.db.Model().GuildConfig().Upsert(ctx, cfg); err != nil {
		b.respondError(event, "Failed to save the configuration. Please try again later.")
		return
	}

	b.respond(event, discord.NewEmbedBuilder().
		SetDescription("Configuration updated.").
		SetColor(constants.ColorSuccess).
		Build())
}

// optionRoleName resolves the role option to its name through the cache.
func (b *Bot) optionRoleName(
	event *events.ApplicationCommandInteractionCreate, data discord.SlashCommandInteractionData,
) (string, bool) {
	roleID := data.Snowflake("role")

	role, ok := b.client.Caches().Role(*event.GuildID(), roleID)
	if !ok {
		b.respondError(event, "Could not resolve that role. Please try again.")
		return "", false
	}

	return role.Name, true
}

func configEmbed(cfg *types.GuildConfig) discord.Embed {
	onOff := func(enabled bool) string {
		if enabled {
			return "on"
		}

		return "off"
	}

	embed := discord.NewEmbedBuilder().
		SetTitle("Auto-Moderation Configuration").
		SetColor(constants.ColorInfo).
		AddField("Automod", onOff(cfg.AutomodEnabled), true).
		AddField("Profanity filter", onOff(cfg.ProfanityFilter), true).
		AddField("Spam detection", onOff(cfg.SpamDetection), true).
		AddField("Thresholds", fmt.Sprintf(
			"%d msgs/min • %d duplicates • %d mentions • %d emojis",
			cfg.Thresholds.MessagesPerMinute,
			cfg.Thresholds.DuplicateMessages,
			cfg.Thresholds.MentionLimit,
			cfg.Thresholds.EmojiLimit,
		), false).
		AddField("Warnings", fmt.Sprintf(
			"max %d • timeout %ds", cfg.MaxWarnings, cfg.TimeoutDuration,
		), true).
		AddField("Blacklisted words", fmt.Sprintf("%d", len(cfg.BlacklistWords)), true)

	if len(cfg.EscalationPolicy) > 0 {
		var lines []string
		for count, action := range cfg.EscalationPolicy {
			lines = append(lines, fmt.Sprintf("%d warnings: %s", count, action))
		}

		embed.AddField("Escalation", strings.Join(lines, "\n"), false)
	}

	if cfg.LogChannelID != 0 {
		embed.AddField("Log channel", fmt.Sprintf("<#%d>", cfg.LogChannelID), true)
	}

	if cfg.WelcomeEnabled && cfg.WelcomeChannelID != 0 {
		embed.AddField("Welcome channel", fmt.Sprintf("<#%d>", cfg.WelcomeChannelID), true)
	}

	if len(cfg.ImmuneRoles) > 0 {
		embed.AddField("Immune roles", strings.Join(cfg.ImmuneRoles, ", "), false)
	}

	if len(cfg.ModeratorRoles) > 0 {
		embed.AddField("Moderator roles", strings.Join(cfg.ModeratorRoles, ", "), false)
	}

	return embed.Build()
}

func appendUnique(list []string, value string) []string {
	for _, existing := range list {
		if existing == value {
			return list
		}
	}

	return append(list, value)
}

func removeString(list *[]string, value string) bool {
	for i, existing := range *list {
		if existing == value {
			*list = append((*list)[:i], (*list)[i+1:]...)
			return true
		}
	}

	return false
}
