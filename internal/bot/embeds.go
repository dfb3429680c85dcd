package bot

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/reedfamily/reedbot/internal/remote"
	"github.com/reedfamily/reedbot/internal/stats"
)

const (
	colorGreen  = 0x00ff00
	colorOrange = 0xff9900
	colorRed    = 0xff0000
)

func newEmbed(title, description string, color int) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       color,
		Timestamp:   time.Now().Format(time.RFC3339),
	}
}

func voteEmbed(timeout time.Duration) *discordgo.MessageEmbed {
	return newEmbed("Server Restart Vote",
		fmt.Sprintf("Server restart initiated.\nThe server will restart in %d seconds unless canceled with `/cancel`.", int(timeout.Seconds())),
		colorOrange)
}

func votePassedEmbed() *discordgo.MessageEmbed {
	return newEmbed("Server Restart", "Restart vote passed! Restarting server now...", colorGreen)
}

func canceledEmbed() *discordgo.MessageEmbed {
	return newEmbed("Restart Canceled", "The server restart has been canceled.", colorGreen)
}

func forceEmbed() *discordgo.MessageEmbed {
	return newEmbed("Force Restart", "Force restarting the server...", colorRed)
}

func statusEmbed(gameName string, snap remote.Snapshot, maxRAMGB float64) *discordgo.MessageEmbed {
	u := stats.Compute(snap, maxRAMGB)

	description := fmt.Sprintf("Current State: **%s**", snap.State)
	if snap.IsSuspended {
		description += " (SUSPENDED)"
	}
	color := colorOrange
	if snap.Running() {
		color = colorGreen
	}

	e := newEmbed(gameName+" Server Status", description, color)
	e.Fields = []*discordgo.MessageEmbedField{
		{Name: "RAM Usage", Value: u.RAM(), Inline: true},
		{Name: "CPU Usage", Value: u.CPU(), Inline: true},
		{Name: "Disk Usage", Value: u.Disk(), Inline: true},
		{Name: "Network", Value: u.Network(), Inline: true},
	}
	if players, ok := u.PlayerCount(); ok && snap.Running() {
		e.Fields = append(e.Fields, &discordgo.MessageEmbedField{Name: "Players", Value: players, Inline: true})
	}
	return e
}
