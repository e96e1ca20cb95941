package bot

import (
	"github.com/castellan/castellan/internal/bot/constants"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/json"
)

func intPtr(v int) *int { return &v }

// commandDefinitions returns every slash command the bot registers globally.
// Moderation commands default to members with the moderate-members permission;
// runtime checks additionally honor the configured moderator roles.
func commandDefinitions() []discord.ApplicationCommandCreate {
	modPerms := json.NewNullablePtr(discord.PermissionModerateMembers)
	adminPerms := json.NewNullablePtr(discord.PermissionManageGuild)

	userOption := discord.ApplicationCommandOptionUser{
		Name:        "user",
		Description: "The target user",
		Required:    true,
	}
	reasonOption := discord.ApplicationCommandOptionString{
		Name:        "reason",
		Description: "Reason for the action",
	}

	return []discord.ApplicationCommandCreate{
		discord.SlashCommandCreate{
			Name:                     constants.WarnCommandName,
			Description:              "Warn a user",
			DefaultMemberPermissions: modPerms,
			Options: []discord.ApplicationCommandOption{
				userOption,
				reasonOption,
			},
		},
		discord.SlashCommandCreate{
			Name:                     constants.WarningsCommandName,
			Description:              "List a user's warnings",
			DefaultMemberPermissions: modPerms,
			Options: []discord.ApplicationCommandOption{
				userOption,
			},
		},
		discord.SlashCommandCreate{
			Name:                     constants.UnwarnCommandName,
			Description:              "Remove a single warning by its ID",
			DefaultMemberPermissions: modPerms,
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionInt{
					Name:        "id",
					Description: "Warning ID from /warnings",
					Required:    true,
					MinValue:    intPtr(1),
				},
			},
		},
		discord.SlashCommandCreate{
			Name:                     constants.ClearWarnsCommandName,
			Description:              "Clear all warnings for a user",
			DefaultMemberPermissions: modPerms,
			Options: []discord.ApplicationCommandOption{
				userOption,
			},
		},
		discord.SlashCommandCreate{
			Name:                     constants.TimeoutCommandName,
			Description:              "Timeout a user",
			DefaultMemberPermissions: modPerms,
			Options: []discord.ApplicationCommandOption{
				userOption,
				discord.ApplicationCommandOptionInt{
					Name:        "minutes",
					Description: "Timeout length in minutes",
					Required:    true,
					MinValue:    intPtr(1),
					MaxValue:    intPtr(40320),
				},
				reasonOption,
			},
		},
		discord.SlashCommandCreate{
			Name:                     constants.UntimeoutCommandName,
			Description:              "Remove a user's timeout",
			DefaultMemberPermissions: modPerms,
			Options: []discord.ApplicationCommandOption{
				userOption,
				reasonOption,
			},
		},
		discord.SlashCommandCreate{
			Name:                     constants.KickCommandName,
			Description:              "Kick a user from the server",
			DefaultMemberPermissions: modPerms,
			Options: []discord.ApplicationCommandOption{
				userOption,
				reasonOption,
			},
		},
		discord.SlashCommandCreate{
			Name:                     constants.BanCommandName,
			Description:              "Ban a user from the server",
			DefaultMemberPermissions: modPerms,
			Options: []discord.ApplicationCommandOption{
				userOption,
				discord.ApplicationCommandOptionInt{
					Name:        "delete_days",
					Description: "Days of messages to delete (0-7)",
					MinValue:    intPtr(0),
					MaxValue:    intPtr(constants.MaxBanDeleteDays),
				},
				reasonOption,
			},
		},
		discord.SlashCommandCreate{
			Name:                     constants.UnbanCommandName,
			Description:              "Unban a user",
			DefaultMemberPermissions: modPerms,
			Options: []discord.ApplicationCommandOption{
				userOption,
				reasonOption,
			},
		},
		discord.SlashCommandCreate{
			Name:                     constants.PurgeCommandName,
			Description:              "Delete recent messages from this channel",
			DefaultMemberPermissions: modPerms,
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionInt{
					Name:        "count",
					Description: "Number of messages to delete",
					Required:    true,
					MinValue:    intPtr(1),
					MaxValue:    intPtr(constants.MaxPurgeCount),
				},
				discord.ApplicationCommandOptionUser{
					Name:        "user",
					Description: "Only delete messages from this user",
				},
			},
		},
		discord.SlashCommandCreate{
			Name:                     constants.ModLogsCommandName,
			Description:              "Show recent moderation actions",
			DefaultMemberPermissions: modPerms,
		},
		discord.SlashCommandCreate{
			Name:                     constants.ConfigCommandName,
			Description:              "Configure auto-moderation for this server",
			DefaultMemberPermissions: adminPerms,
			Options:                  configSubcommands(),
		},
	}
}

func configSubcommands() []discord.ApplicationCommandOption {
	enabledOption := discord.ApplicationCommandOptionBool{
		Name:        "enabled",
		Description: "Turn the feature on or off",
		Required:    true,
	}
	wordOption := discord.ApplicationCommandOptionString{
		Name:        "word",
		Description: "The blacklisted word",
		Required:    true,
	}
	roleOption := discord.ApplicationCommandOptionRole{
		Name:        "role",
		Description: "The target role",
		Required:    true,
	}

	return []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionSubCommand{
			Name:        "view",
			Description: "Show the current configuration",
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "automod",
			Description: "Enable or disable auto-moderation",
			Options:     []discord.ApplicationCommandOption{enabledOption},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "profanity",
			Description: "Enable or disable the word blacklist check",
			Options:     []discord.ApplicationCommandOption{enabledOption},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "spam",
			Description: "Enable or disable spam detection",
			Options:     []discord.ApplicationCommandOption{enabledOption},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "blacklist-add",
			Description: "Add a word to the blacklist",
			Options:     []discord.ApplicationCommandOption{wordOption},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "blacklist-remove",
			Description: "Remove a word from the blacklist",
			Options:     []discord.ApplicationCommandOption{wordOption},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "thresholds",
			Description: "Adjust spam, mention and emoji limits",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionInt{
					Name:        "messages_per_minute",
					Description: "Messages allowed per minute",
					MinValue:    intPtr(1),
				},
				discord.ApplicationCommandOptionInt{
					Name:        "duplicates",
					Description: "Identical messages allowed in a row",
					MinValue:    intPtr(1),
				},
				discord.ApplicationCommandOptionInt{
					Name:        "mentions",
					Description: "Mentions allowed per message",
					MinValue:    intPtr(1),
				},
				discord.ApplicationCommandOptionInt{
					Name:        "emojis",
					Description: "Emojis allowed per message",
					MinValue:    intPtr(1),
				},
			},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "warnings",
			Description: "Adjust warning limits and timeout length",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionInt{
					Name:        "max",
					Description: "Warning count shown as the limit in alerts",
					MinValue:    intPtr(1),
				},
				discord.ApplicationCommandOptionInt{
					Name:        "timeout_seconds",
					Description: "Length of escalation timeouts in seconds",
					MinValue:    intPtr(60),
				},
			},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "escalation",
			Description: "Set the action taken at an exact warning count",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionInt{
					Name:        "count",
					Description: "Warning count that triggers the action",
					Required:    true,
					MinValue:    intPtr(1),
				},
				discord.ApplicationCommandOptionString{
					Name:        "action",
					Description: "Action to take at that count",
					Required:    true,
					Choices: []discord.ApplicationCommandOptionChoiceString{
						{Name: "none", Value: "none"},
						{Name: "timeout", Value: "timeout"},
						{Name: "ban", Value: "ban"},
					},
				},
			},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "logchannel",
			Description: "Set or clear the moderation log channel",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionChannel{
					Name:        "channel",
					Description: "Log channel; omit to disable logging",
				},
			},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "welcome",
			Description: "Configure welcome messages",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionBool{
					Name:        "enabled",
					Description: "Turn welcome messages on or off",
				},
				discord.ApplicationCommandOptionChannel{
					Name:        "channel",
					Description: "Channel for welcome messages",
				},
				discord.ApplicationCommandOptionString{
					Name:        "message",
					Description: "Welcome text; {user} mentions the new member",
				},
			},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "immunerole-add",
			Description: "Exempt a role from auto-moderation",
			Options:     []discord.ApplicationCommandOption{roleOption},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "immunerole-remove",
			Description: "Remove a role's auto-moderation exemption",
			Options:     []discord.ApplicationCommandOption{roleOption},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "modrole-add",
			Description: "Allow a role to use moderation commands",
			Options:     []discord.ApplicationCommandOption{roleOption},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "modrole-remove",
			Description: "Remove a role's moderation command access",
			Options:     []discord.ApplicationCommandOption{roleOption},
		},
	}
}
