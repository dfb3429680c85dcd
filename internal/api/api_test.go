package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/reedfamily/reedbot/internal/auth"
	"github.com/reedfamily/reedbot/internal/remote"
	"github.com/reedfamily/reedbot/internal/restart"
)

type fakeController struct {
	snap remote.Snapshot
	ok   bool
}

func (f *fakeController) SendCommand(context.Context, string) remote.Result { return remote.Result{} }

func (f *fakeController) SetPower(context.Context, remote.Signal) remote.Result {
	return remote.Result{}
}

func (f *fakeController) Resources(context.Context) (remote.Snapshot, bool) { return f.snap, f.ok }

type fakePresence struct {
	latest     string
	ch         chan string
	subscribed chan struct{}
}

func (p *fakePresence) Latest() string { return p.latest }

func (p *fakePresence) Subscribe() chan string {
	close(p.subscribed)
	return p.ch
}

func (p *fakePresence) Unsubscribe(chan string) {}

type fakeVotes struct {
	startErr  error
	cancelErr error
	origins   []string
}

func (v *fakeVotes) StartVote(_ context.Context, origin string) (string, error) {
	v.origins = append(v.origins, origin)
	return "vote-1", v.startErr
}

func (v *fakeVotes) CancelVote(_ context.Context, origin string) (string, error) {
	v.origins = append(v.origins, origin)
	return "vote-1", v.cancelErr
}

func (v *fakeVotes) Info() restart.Info { return restart.Info{ID: "vote-1", Active: true} }

type fixture struct {
	ctrl     *fakeController
	presence *fakePresence
	votes    *fakeVotes
	router   http.Handler
}

func newFixture(t *testing.T, withAuth bool) *fixture {
	f := &fixture{
		ctrl:     &fakeController{},
		presence: &fakePresence{ch: make(chan string, 1), subscribed: make(chan struct{})},
		votes:    &fakeVotes{},
	}
	rt := Routes{
		Stats:   NewStatsHandler(f.ctrl, f.presence, 12),
		Restart: NewRestartHandler(f.votes, f.votes),
	}
	if withAuth {
		hash, err := bcrypt.GenerateFromPassword([]byte("token"), bcrypt.MinCost)
		require.NoError(t, err)
		rt.Auth, err = auth.NewService(string(hash))
		require.NoError(t, err)
	}
	f.router = NewRouter(rt)
	return f
}

func (f *fixture) do(method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	f := newFixture(t, false)
	rec := f.do(http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestMetricsExposed(t *testing.T) {
	f := newFixture(t, false)
	rec := f.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestStatus(t *testing.T) {
	f := newFixture(t, false)

	rec := f.do(http.MethodGet, "/api/v1/status", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	f.ctrl.snap = remote.Snapshot{State: remote.StateRunning, MemoryBytes: 3 * 1024 * 1024 * 1024}
	f.ctrl.ok = true
	rec = f.do(http.MethodGet, "/api/v1/status", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Snapshot remote.Snapshot `json:"snapshot"`
		Usage    struct {
			RAMUsedGB  float64 `json:"ram_used_gb"`
			RAMPercent float64 `json:"ram_percent"`
		} `json:"usage"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, remote.StateRunning, body.Snapshot.State)
	require.Equal(t, 3.0, body.Usage.RAMUsedGB)
	require.Equal(t, 25.0, body.Usage.RAMPercent)
}

func TestRestartRoutesNeedAuth(t *testing.T) {
	f := newFixture(t, true)

	require.Equal(t, http.StatusUnauthorized, f.do(http.MethodPost, "/api/v1/restart", "").Code)
	require.Equal(t, http.StatusUnauthorized, f.do(http.MethodPost, "/api/v1/restart", "nope").Code)
	require.Equal(t, http.StatusUnauthorized, f.do(http.MethodPost, "/api/v1/cancel", "").Code)
	require.Empty(t, f.votes.origins)

	rec := f.do(http.MethodPost, "/api/v1/restart", "token")
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.JSONEq(t, `{"id":"vote-1"}`, rec.Body.String())
	require.True(t, strings.HasPrefix(f.votes.origins[0], "api "))

	rec = f.do(http.MethodGet, "/api/v1/restart", "token")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"id":"vote-1","active":true,"running":false}`, rec.Body.String())
}

func TestRestartRoutesHiddenWithoutAuth(t *testing.T) {
	f := newFixture(t, false)
	require.Equal(t, http.StatusNotFound, f.do(http.MethodPost, "/api/v1/restart", "token").Code)
}

func TestRestartConflicts(t *testing.T) {
	f := newFixture(t, true)

	f.votes.startErr = restart.ErrInProgress
	require.Equal(t, http.StatusConflict, f.do(http.MethodPost, "/api/v1/restart", "token").Code)

	f.votes.cancelErr = restart.ErrNoSession
	require.Equal(t, http.StatusNotFound, f.do(http.MethodPost, "/api/v1/cancel", "token").Code)

	f.votes.cancelErr = restart.ErrAlreadyRunning
	require.Equal(t, http.StatusConflict, f.do(http.MethodPost, "/api/v1/cancel", "token").Code)

	f.votes.cancelErr = nil
	rec := f.do(http.MethodPost, "/api/v1/cancel", "token")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"id":"vote-1"}`, rec.Body.String())
}

func TestPresenceLive(t *testing.T) {
	f := newFixture(t, false)
	f.presence.latest = "Server Offline"

	srv := httptest.NewServer(f.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/presence/live"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var msg presenceMessage
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, "Server Offline", msg.Text)

	<-f.presence.subscribed
	f.presence.ch <- "RAM: 4.00GB/12GB (33%)"
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, "RAM: 4.00GB/12GB (33%)", msg.Text)
}
