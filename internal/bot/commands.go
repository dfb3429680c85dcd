package bot

import (
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"
)

const (
	cmdRestart      = "restart"
	cmdCancel       = "cancel"
	cmdForceRestart = "force-restart"
	cmdStatus       = "status"
)

// Commands returns the slash commands to register. The status command is
// left out when status reporting is disabled.
func Commands(gameName string, statusEnabled bool) []*discordgo.ApplicationCommand {
	cmds := []*discordgo.ApplicationCommand{
		{
			Name:        cmdRestart,
			Description: fmt.Sprintf("Start a vote to restart the %s server", gameName),
		},
		{
			Name:        cmdCancel,
			Description: "Cancel an ongoing restart vote",
		},
		{
			Name:        cmdForceRestart,
			Description: fmt.Sprintf("Force restart the %s server (Admin only)", gameName),
		},
	}
	if statusEnabled {
		cmds = append(cmds, &discordgo.ApplicationCommand{
			Name:        cmdStatus,
			Description: "Show current server status and resource usage",
		})
	}
	return cmds
}

// Register replaces the application's command set with cmds. Discord treats a
// bulk overwrite as an upsert, so registering on every start is safe. An empty
// guildID registers global commands.
func Register(s Session, appID, guildID string, cmds []*discordgo.ApplicationCommand) error {
	log.Println("Registering slash commands...")
	created, err := s.ApplicationCommandBulkOverwrite(appID, guildID, cmds)
	if err != nil {
		return fmt.Errorf("register commands: %w", err)
	}
	log.Printf("Slash commands registered successfully! (%d commands)", len(created))
	return nil
}
