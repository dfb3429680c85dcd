// Package bot routes Discord slash commands to the restart manager and the
// remote controller.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"

	"github.com/reedfamily/reedbot/internal/game"
	"github.com/reedfamily/reedbot/internal/metrics"
	"github.com/reedfamily/reedbot/internal/remote"
	"github.com/reedfamily/reedbot/internal/restart"
)

type Options struct {
	MaxRAMGB        float64
	StatusEnabled   bool
	AnnounceChannel string
}

type Dispatcher struct {
	session Session
	manager *restart.Manager
	ctrl    remote.Controller
	game    game.Adapter
	opts    Options

	// ctx bounds interaction handling and is canceled by Close.
	ctx    context.Context
	cancel context.CancelFunc
}

func NewDispatcher(s Session, manager *restart.Manager, ctrl remote.Controller, adapter game.Adapter, opts Options) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		session: s,
		manager: manager,
		ctrl:    ctrl,
		game:    adapter,
		opts:    opts,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Close aborts waits in commands still being handled, such as the pause
// between kill and start of a force restart.
func (d *Dispatcher) Close() {
	d.cancel()
}

// Commands returns the command set this dispatcher answers.
func (d *Dispatcher) Commands() []*discordgo.ApplicationCommand {
	return Commands(d.game.DisplayName(), d.opts.StatusEnabled)
}

// OnInteraction is the discordgo handler for interaction events.
func (d *Dispatcher) OnInteraction(_ *discordgo.Session, ic *discordgo.InteractionCreate) {
	d.Handle(d.ctx, ic.Interaction)
}

// Handle answers one interaction. It never panics; every failure is logged
// and counted.
func (d *Dispatcher) Handle(ctx context.Context, i *discordgo.Interaction) {
	if i == nil || i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	name := i.ApplicationCommandData().Name

	var err error
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		if err != nil {
			log.Printf("bot: /%s from %s: %v", name, invoker(i), err)
		}
		metrics.RecordCommand(name, err == nil)
	}()

	switch name {
	case cmdRestart:
		err = d.handleRestart(i)
	case cmdCancel:
		err = d.handleCancel(ctx, i)
	case cmdForceRestart:
		err = d.handleForceRestart(ctx, i)
	case cmdStatus:
		if !d.opts.StatusEnabled {
			return
		}
		err = d.handleStatus(ctx, i)
	default:
		log.Printf("bot: ignoring unknown command /%s", name)
	}
}

func (d *Dispatcher) handleRestart(i *discordgo.Interaction) error {
	id, err := d.manager.Begin(&interactionReporter{session: d.session, interaction: i})
	if errors.Is(err, restart.ErrInProgress) {
		return d.reply(i, "A restart is already in progress!")
	}
	if err != nil {
		return err
	}
	log.Printf("bot: restart vote %s started by %s", id, invoker(i))

	if err := d.replyEmbed(i, voteEmbed(d.manager.VoteTimeout())); err != nil {
		// Nobody saw the vote, so nobody can cancel it.
		d.manager.Cancel()
		return fmt.Errorf("announce vote: %w", err)
	}
	return nil
}

func (d *Dispatcher) handleCancel(ctx context.Context, i *discordgo.Interaction) error {
	id, err := d.manager.Cancel()
	switch {
	case errors.Is(err, restart.ErrNoSession):
		return d.reply(i, "There is no restart in progress to cancel!")
	case errors.Is(err, restart.ErrAlreadyRunning):
		return d.reply(i, "The restart is already underway and can no longer be canceled.")
	case err != nil:
		return err
	}
	log.Printf("bot: restart vote %s canceled by %s", id, invoker(i))

	replyErr := d.replyEmbed(i, canceledEmbed())
	d.manager.AnnounceCancel(ctx)
	return replyErr
}

func (d *Dispatcher) handleForceRestart(ctx context.Context, i *discordgo.Interaction) error {
	log.Printf("bot: force restart requested by %s", invoker(i))
	if err := d.replyEmbed(i, forceEmbed()); err != nil {
		return err
	}

	if err := d.manager.ForceRestart(ctx); err != nil {
		return errors.Join(err, d.editContent(i, "Force restart interrupted: "+err.Error()))
	}
	return d.editContent(i, "Server has been force restarted!")
}

func (d *Dispatcher) handleStatus(ctx context.Context, i *discordgo.Interaction) error {
	err := d.session.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
	if err != nil {
		return fmt.Errorf("defer reply: %w", err)
	}

	snap, ok := d.ctrl.Resources(ctx)
	if !ok {
		return d.editContent(i, "Failed to get server status. The server might be offline.")
	}

	embed, err := d.renderStatus(snap)
	if err != nil {
		log.Printf("bot: rendering status: %v", err)
		return d.editContent(i, "Failed to get server status due to an error.")
	}
	embeds := []*discordgo.MessageEmbed{embed}
	_, err = d.session.InteractionResponseEdit(i, &discordgo.WebhookEdit{Embeds: &embeds})
	return err
}

func (d *Dispatcher) renderStatus(snap remote.Snapshot) (embed *discordgo.MessageEmbed, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return statusEmbed(d.game.DisplayName(), snap, d.opts.MaxRAMGB), nil
}

// StartVote opens a restart vote that did not come from a slash command. The
// vote is announced in the announce channel when one is configured.
func (d *Dispatcher) StartVote(ctx context.Context, origin string) (string, error) {
	var rep restart.Reporter = &logReporter{origin: origin}
	var ch *channelReporter
	if d.opts.AnnounceChannel != "" {
		ch = &channelReporter{session: d.session, channelID: d.opts.AnnounceChannel}
		rep = ch
	}

	id, err := d.manager.Begin(rep)
	if err != nil {
		return "", err
	}
	log.Printf("bot: restart vote %s started by %s", id, origin)

	if ch != nil {
		if err := ch.open(ctx, voteEmbed(d.manager.VoteTimeout())); err != nil {
			log.Printf("bot: announce vote %s: %v", id, err)
		}
	}
	return id, nil
}

// CancelVote cancels a pending vote on behalf of origin.
func (d *Dispatcher) CancelVote(ctx context.Context, origin string) (string, error) {
	id, err := d.manager.Cancel()
	if err != nil {
		return id, err
	}
	log.Printf("bot: restart vote %s canceled by %s", id, origin)

	if d.opts.AnnounceChannel != "" {
		if _, err := d.session.ChannelMessageSendEmbed(d.opts.AnnounceChannel, canceledEmbed(), discordgo.WithContext(ctx)); err != nil {
			log.Printf("bot: announce cancel %s: %v", id, err)
		}
	}
	d.manager.AnnounceCancel(ctx)
	return id, nil
}

func (d *Dispatcher) reply(i *discordgo.Interaction, content string) error {
	return d.session.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: content},
	})
}

func (d *Dispatcher) replyEmbed(i *discordgo.Interaction, embed *discordgo.MessageEmbed) error {
	return d.session.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Embeds: []*discordgo.MessageEmbed{embed}},
	})
}

func (d *Dispatcher) editContent(i *discordgo.Interaction, content string) error {
	_, err := d.session.InteractionResponseEdit(i, &discordgo.WebhookEdit{Content: &content})
	return err
}

func invoker(i *discordgo.Interaction) string {
	switch {
	case i.Member != nil && i.Member.User != nil:
		return i.Member.User.Username
	case i.User != nil:
		return i.User.Username
	default:
		return "unknown user"
	}
}
