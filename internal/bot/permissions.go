package bot

import (
	"github.com/castellan/castellan/internal/database/types"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"
)

// memberRoleNames resolves a member's role IDs to role names through the role
// cache. Uncached roles are skipped.
func (b *Bot) memberRoleNames(guildID snowflake.ID, roleIDs []snowflake.ID) []string {
	names := make([]string, 0, len(roleIDs))

	for _, roleID := range roleIDs {
		if role, ok := b.client.Caches().Role(guildID, roleID); ok {
			names = append(names, role.Name)
		}
	}

	return names
}

// memberIsAdmin computes the member's combined role permissions, including the
// @everyone role, and checks for administrator.
func (b *Bot) memberIsAdmin(guildID snowflake.ID, roleIDs []snowflake.ID) bool {
	var perms discord.Permissions

	if everyone, ok := b.client.Caches().Role(guildID, guildID); ok {
		perms = perms.Add(everyone.Permissions)
	}

	for _, roleID := range roleIDs {
		if role, ok := b.client.Caches().Role(guildID, roleID); ok {
			perms = perms.Add(role.Permissions)
		}
	}

	return perms.Has(discord.PermissionAdministrator)
}

// canModerate reports whether the interaction member may use moderation
// commands: administrator or moderate-members permission, or one of the
// guild's configured moderator roles.
func (b *Bot) canModerate(
	cfg *types.GuildConfig, guildID snowflake.ID, member *discord.ResolvedMember,
) bool {
	if member == nil {
		return false
	}

	if member.Permissions.Has(discord.PermissionAdministrator) ||
		member.Permissions.Has(discord.PermissionModerateMembers) {
		return true
	}

	for _, name := range b.memberRoleNames(guildID, member.RoleIDs) {
		for _, modRole := range cfg.ModeratorRoles {
			if name == modRole {
				return true
			}
		}
	}

	return false
}

// highestRolePosition returns the highest cached role position among the
// given roles. The @everyone role sits at position 0.
func (b *Bot) highestRolePosition(guildID snowflake.ID, roleIDs []snowflake.ID) int {
	highest := 0

	for _, roleID := range roleIDs {
		if role, ok := b.client.Caches().Role(guildID, roleID); ok && role.Position > highest {
			highest = role.Position
		}
	}

	return highest
}

// canTarget enforces role hierarchy: a moderator may only act on members
// whose highest role sits strictly below their own. Administrators bypass
// the check.
func (b *Bot) canTarget(
	guildID snowflake.ID, moderator *discord.ResolvedMember, target discord.ResolvedMember,
) bool {
	if moderator == nil {
		return false
	}

	if moderator.Permissions.Has(discord.PermissionAdministrator) {
		return true
	}

	return b.highestRolePosition(guildID, moderator.RoleIDs) >
		b.highestRolePosition(guildID, target.RoleIDs)
}

// isGuildAdmin reports whether the interaction member may change guild
// configuration.
func isGuildAdmin(member *discord.ResolvedMember) bool {
	if member == nil {
		return false
	}

	return member.Permissions.Has(discord.PermissionAdministrator) ||
		member.Permissions.Has(discord.PermissionManageGuild)
}
