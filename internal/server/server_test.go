package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/reedfamily/reedbot/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		DiscordToken:   "token",
		StatusEnabled:  true,
		StatusInterval: time.Minute,
		VoteTimeout:    time.Minute,
		MaxRAMGB:       12,
		Game:           "minecraft",
		Backend:        config.BackendPanel,
		APIURL:         "http://127.0.0.1:1/api",
		ServerID:       "abc",
		APIKey:         "key",
		HTTPTimeout:    time.Second,
		ListenAddr:     ":0",
	}
}

func TestNewRejectsUnknownGame(t *testing.T) {
	cfg := testConfig()
	cfg.Game = "tetris"
	_, err := New(cfg)
	require.ErrorContains(t, err, "unknown game")
}

func TestNewRejectsBadCron(t *testing.T) {
	cfg := testConfig()
	cfg.RestartCron = "every day"
	_, err := New(cfg)
	require.ErrorContains(t, err, "REEDBOT_RESTART_CRON")
}

func TestNewWithoutListenHasNoRouter(t *testing.T) {
	cfg := testConfig()
	cfg.ListenAddr = ""
	s, err := New(cfg)
	require.NoError(t, err)
	require.Nil(t, s.Router())
}

func TestRouterMountsRestartOnlyWithHash(t *testing.T) {
	s, err := New(testConfig())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/restart", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	require.NoError(t, err)
	cfg := testConfig()
	cfg.AdminTokenHash = string(hash)
	s, err = New(cfg)
	require.NoError(t, err)

	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/restart", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
