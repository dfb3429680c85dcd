// Package server wires the bot together from configuration.
package server

import (
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"
	"github.com/go-chi/chi/v5"

	"github.com/reedfamily/reedbot/internal/api"
	"github.com/reedfamily/reedbot/internal/auth"
	"github.com/reedfamily/reedbot/internal/bot"
	"github.com/reedfamily/reedbot/internal/clock"
	"github.com/reedfamily/reedbot/internal/config"
	"github.com/reedfamily/reedbot/internal/docker"
	"github.com/reedfamily/reedbot/internal/game"
	"github.com/reedfamily/reedbot/internal/metrics"
	"github.com/reedfamily/reedbot/internal/panel"
	"github.com/reedfamily/reedbot/internal/rcon"
	"github.com/reedfamily/reedbot/internal/remote"
	"github.com/reedfamily/reedbot/internal/restart"
	"github.com/reedfamily/reedbot/internal/scheduler"
	"github.com/reedfamily/reedbot/internal/stats"

	// Register game adapters
	_ "github.com/reedfamily/reedbot/internal/game/minecraft"
	_ "github.com/reedfamily/reedbot/internal/game/vintagestory"
)

type Server struct {
	cfg       *config.Config
	discord   *discordgo.Session
	manager   *restart.Manager
	bot       *bot.Dispatcher
	collector *stats.Collector
	scheduler *scheduler.Scheduler
	router    chi.Router
	closeCtrl func() error
}

func New(cfg *config.Config) (*Server, error) {
	adapter, err := game.Get(cfg.Game)
	if err != nil {
		return nil, err
	}

	ctrl, closeCtrl, err := newController(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.RCONAddr != "" {
		ctrl = rcon.WithPlayers(ctrl, adapter, rcon.Dial(cfg.RCONAddr, cfg.RCONPassword))
	}
	ctrl = metrics.Instrument(ctrl)

	timing := restart.DefaultTimings()
	timing.Vote = cfg.VoteTimeout
	timing.StopTimeout = cfg.StopTimeout
	manager := restart.NewManager(ctrl, adapter, clock.Real{}, timing)

	dg, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		closeCtrl()
		return nil, fmt.Errorf("discord session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuilds

	collector := stats.NewCollector(ctrl, dg, cfg.MaxRAMGB, cfg.StatusInterval)
	dispatcher := bot.NewDispatcher(dg, manager, ctrl, adapter, bot.Options{
		MaxRAMGB:        cfg.MaxRAMGB,
		StatusEnabled:   cfg.StatusEnabled,
		AnnounceChannel: cfg.AnnounceChannel,
	})

	dg.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		log.Printf("Logged in as %s#%s", r.User.Username, r.User.Discriminator)
		if err := bot.Register(s, r.User.ID, cfg.GuildID, dispatcher.Commands()); err != nil {
			log.Printf("server: %v", err)
		}
		if cfg.StatusEnabled {
			collector.Start()
		}
	})
	dg.AddHandler(dispatcher.OnInteraction)

	s := &Server{
		cfg:       cfg,
		discord:   dg,
		manager:   manager,
		bot:       dispatcher,
		collector: collector,
		closeCtrl: closeCtrl,
	}

	if cfg.RestartCron != "" {
		expr, err := scheduler.Parse(cfg.RestartCron)
		if err != nil {
			closeCtrl()
			return nil, fmt.Errorf("REEDBOT_RESTART_CRON: %w", err)
		}
		s.scheduler = scheduler.New(expr, dispatcher.StartVote)
	}

	if cfg.ListenAddr != "" {
		routes := api.Routes{
			Stats:   api.NewStatsHandler(ctrl, collector, cfg.MaxRAMGB),
			Restart: api.NewRestartHandler(dispatcher, manager),
		}
		if cfg.AdminTokenHash != "" {
			routes.Auth, err = auth.NewService(cfg.AdminTokenHash)
			if err != nil {
				closeCtrl()
				return nil, fmt.Errorf("REEDBOT_ADMIN_TOKEN_HASH: %w", err)
			}
		}
		s.router = api.NewRouter(routes)
	}

	return s, nil
}

func newController(cfg *config.Config) (remote.Controller, func() error, error) {
	switch cfg.Backend {
	case config.BackendDocker:
		cli, err := docker.NewClient()
		if err != nil {
			return nil, nil, fmt.Errorf("docker client: %w", err)
		}
		log.Printf("Managing container %s via Docker", cfg.Container)
		return docker.NewController(cli, cfg.Container), cli.Close, nil
	default:
		log.Printf("Managing server %s via %s", cfg.ServerID, cfg.APIURL)
		return panel.NewClient(cfg.APIURL, cfg.ServerID, cfg.APIKey, cfg.HTTPTimeout), func() error { return nil }, nil
	}
}

// Open connects to the Discord gateway and starts the scheduler.
func (s *Server) Open() error {
	if err := s.discord.Open(); err != nil {
		return fmt.Errorf("open discord gateway: %w", err)
	}
	if s.scheduler != nil {
		s.scheduler.Start()
	}
	log.Println("Bot is running")
	return nil
}

// Router returns the ops HTTP router, or nil when REEDBOT_LISTEN is empty.
func (s *Server) Router() chi.Router {
	return s.router
}

func (s *Server) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
	s.collector.Stop()
	s.bot.Close()
	s.manager.Close()
	if err := s.discord.Close(); err != nil {
		log.Printf("server: close discord: %v", err)
	}
	if err := s.closeCtrl(); err != nil {
		log.Printf("server: close controller: %v", err)
	}
}
