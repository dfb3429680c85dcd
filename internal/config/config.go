package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendPanel  = "panel"
	BackendDocker = "docker"
)

type Config struct {
	DiscordToken    string
	GuildID         string
	AnnounceChannel string
	StatusEnabled   bool
	StatusInterval  time.Duration
	VoteTimeout     time.Duration
	StopTimeout     time.Duration
	MaxRAMGB        float64
	Game            string
	Backend         string
	APIURL          string
	ServerID        string
	APIKey          string
	HTTPTimeout     time.Duration
	Container       string
	RCONAddr        string
	RCONPassword    string
	RestartCron     string
	ListenAddr      string
	AdminTokenHash  string
}

// Load reads the configuration from the environment, after merging in a
// .env file from the working directory when one exists.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv reads the configuration from the process environment only.
func FromEnv() (*Config, error) {
	var errs []error

	cfg := &Config{
		DiscordToken:    os.Getenv("DISCORD_TOKEN"),
		GuildID:         os.Getenv("REEDBOT_GUILD_ID"),
		AnnounceChannel: os.Getenv("REEDBOT_ANNOUNCE_CHANNEL"),
		Game:            envOr("REEDBOT_GAME", "minecraft"),
		Backend:         envOr("REEDBOT_BACKEND", BackendPanel),
		APIURL:          envOr("REEDBOT_API_URL", "https://mc.bloom.host/api"),
		ServerID:        envOr("REEDBOT_SERVER_ID", "0b2bfe5d"),
		APIKey:          os.Getenv("PTERODACTYL_API_KEY"),
		Container:       os.Getenv("REEDBOT_CONTAINER"),
		RCONAddr:        os.Getenv("REEDBOT_RCON_ADDR"),
		RCONPassword:    os.Getenv("REEDBOT_RCON_PASSWORD"),
		RestartCron:     os.Getenv("REEDBOT_RESTART_CRON"),
		ListenAddr:      envOr("REEDBOT_LISTEN", ":8080"),
		AdminTokenHash:  os.Getenv("REEDBOT_ADMIN_TOKEN_HASH"),
	}

	var err error
	if cfg.StatusEnabled, err = envBool("REEDBOT_STATUS_ENABLED", true); err != nil {
		errs = append(errs, err)
	}
	if cfg.StatusInterval, err = envDuration("REEDBOT_STATUS_INTERVAL", time.Minute); err != nil {
		errs = append(errs, err)
	}
	if cfg.VoteTimeout, err = envDuration("REEDBOT_VOTE_TIMEOUT", time.Minute); err != nil {
		errs = append(errs, err)
	}
	if cfg.StopTimeout, err = envDuration("REEDBOT_STOP_TIMEOUT", 0); err != nil {
		errs = append(errs, err)
	}
	if cfg.HTTPTimeout, err = envDuration("REEDBOT_HTTP_TIMEOUT", 15*time.Second); err != nil {
		errs = append(errs, err)
	}
	if cfg.MaxRAMGB, err = envFloat("REEDBOT_MAX_RAM_GB", 12); err != nil {
		errs = append(errs, err)
	}

	if cfg.DiscordToken == "" {
		errs = append(errs, errors.New("DISCORD_TOKEN is required"))
	}
	switch cfg.Backend {
	case BackendPanel:
		if cfg.APIKey == "" {
			errs = append(errs, errors.New("PTERODACTYL_API_KEY is required for the panel backend"))
		}
	case BackendDocker:
		if cfg.Container == "" {
			errs = append(errs, errors.New("REEDBOT_CONTAINER is required for the docker backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("REEDBOT_BACKEND: unknown backend %q", cfg.Backend))
	}
	if cfg.MaxRAMGB <= 0 {
		errs = append(errs, errors.New("REEDBOT_MAX_RAM_GB must be positive"))
	}
	if cfg.VoteTimeout <= 0 {
		errs = append(errs, errors.New("REEDBOT_VOTE_TIMEOUT must be positive"))
	}
	if cfg.StatusInterval <= 0 {
		errs = append(errs, errors.New("REEDBOT_STATUS_INTERVAL must be positive"))
	}
	if cfg.RestartCron != "" && cfg.AnnounceChannel == "" {
		errs = append(errs, errors.New("REEDBOT_RESTART_CRON needs REEDBOT_ANNOUNCE_CHANNEL"))
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback, fmt.Errorf("%s: invalid boolean %q", key, v)
	}
	return b, nil
}

func envFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback, fmt.Errorf("%s: invalid number %q", key, v)
	}
	return f, nil
}

// envDuration accepts Go durations ("90s", "2m") or a bare number of seconds.
func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback, fmt.Errorf("%s: invalid duration %q", key, v)
	}
	return d, nil
}
