package bot

import (
	"context"
	"log"
	"sync"

	"github.com/bwmarrin/discordgo"
)

// interactionReporter shows restart progress by editing the reply to the
// slash command that started the vote.
type interactionReporter struct {
	session     Session
	interaction *discordgo.Interaction
}

func (r *interactionReporter) VotePassed(ctx context.Context) error {
	embeds := []*discordgo.MessageEmbed{votePassedEmbed()}
	_, err := r.session.InteractionResponseEdit(r.interaction, &discordgo.WebhookEdit{Embeds: &embeds}, discordgo.WithContext(ctx))
	return err
}

func (r *interactionReporter) Progress(ctx context.Context, msg string) error {
	_, err := r.session.InteractionResponseEdit(r.interaction, &discordgo.WebhookEdit{Content: &msg}, discordgo.WithContext(ctx))
	return err
}

// channelReporter shows restart progress in a message it posts to a channel.
// It is used for votes that did not come from a slash command.
type channelReporter struct {
	session   Session
	channelID string

	mu        sync.Mutex
	messageID string
}

func (r *channelReporter) open(ctx context.Context, embed *discordgo.MessageEmbed) error {
	msg, err := r.session.ChannelMessageSendEmbed(r.channelID, embed, discordgo.WithContext(ctx))
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.messageID = msg.ID
	r.mu.Unlock()
	return nil
}

func (r *channelReporter) message() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.messageID
}

func (r *channelReporter) VotePassed(ctx context.Context) error {
	if id := r.message(); id != "" {
		_, err := r.session.ChannelMessageEditEmbed(r.channelID, id, votePassedEmbed(), discordgo.WithContext(ctx))
		return err
	}
	return r.open(ctx, votePassedEmbed())
}

func (r *channelReporter) Progress(ctx context.Context, msg string) error {
	id := r.message()
	if id == "" {
		if err := r.open(ctx, votePassedEmbed()); err != nil {
			return err
		}
		id = r.message()
	}
	_, err := r.session.ChannelMessageEdit(r.channelID, id, msg, discordgo.WithContext(ctx))
	return err
}

// logReporter is used when there is no channel to report to.
type logReporter struct {
	origin string
}

func (r *logReporter) VotePassed(context.Context) error {
	log.Printf("restart (%s): vote passed", r.origin)
	return nil
}

func (r *logReporter) Progress(_ context.Context, msg string) error {
	log.Printf("restart (%s): %s", r.origin, msg)
	return nil
}
