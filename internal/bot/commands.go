// Package bot adapts platform interactions to ticket actions.
package bot

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const (
	CommandSetup  = "setup"
	CommandTicket = "ticket"
	CommandAdd    = "add"

	OptionCategory    = "category"
	OptionSupportRole = "support_role"
	OptionLogChannel  = "log_channel"
	OptionUser        = "user"
)

// Commands returns the slash commands the bot serves.
func Commands() []*discordgo.ApplicationCommand {
	var adminOnly int64 = discordgo.PermissionAdministrator
	guildOnly := false
	return []*discordgo.ApplicationCommand{
		{
			Name:                     CommandSetup,
			Description:              "Set up the ticket system",
			DefaultMemberPermissions: &adminOnly,
			DMPermission:             &guildOnly,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:         discordgo.ApplicationCommandOptionChannel,
					Name:         OptionCategory,
					Description:  "Category to hold the ticket channel",
					ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildCategory},
				},
				{
					Type:        discordgo.ApplicationCommandOptionRole,
					Name:        OptionSupportRole,
					Description: "Role notified about and allowed to manage tickets",
				},
				{
					Type:         discordgo.ApplicationCommandOptionChannel,
					Name:         OptionLogChannel,
					Description:  "Channel receiving ticket audit entries",
					ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
				},
			},
		},
		{
			Name:         CommandTicket,
			Description:  "Create a support ticket",
			DMPermission: &guildOnly,
		},
		{
			Name:         CommandAdd,
			Description:  "Add a user to the current ticket",
			DMPermission: &guildOnly,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        OptionUser,
					Description: "User to add",
					Required:    true,
				},
			},
		},
	}
}

// CommandRegistrar is the part of a session that syncs commands.
type CommandRegistrar interface {
	ApplicationCommandBulkOverwrite(appID string, guildID string, commands []*discordgo.ApplicationCommand, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error)
}

// RegisterCommands replaces the application's global commands.
func RegisterCommands(ctx context.Context, registrar CommandRegistrar, applicationID string, logger *zap.Logger) error {
	if applicationID == "" {
		return fmt.Errorf("application id is required to sync commands")
	}
	registered, err := registrar.ApplicationCommandBulkOverwrite(applicationID, "", Commands(), discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("sync commands: %w", err)
	}
	logger.Info("commands synced", zap.Int("count", len(registered)))
	return nil
}
