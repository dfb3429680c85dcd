// Package restart owns the restart vote session and the restart workflows.
package restart

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/reedfamily/reedbot/internal/clock"
	"github.com/reedfamily/reedbot/internal/game"
	"github.com/reedfamily/reedbot/internal/metrics"
	"github.com/reedfamily/reedbot/internal/remote"
)

var (
	ErrInProgress     = errors.New("a restart is already in progress")
	ErrNoSession      = errors.New("no restart in progress")
	ErrAlreadyRunning = errors.New("restart already underway")
)

// Reporter receives the user-visible progress of one restart.
type Reporter interface {
	// VotePassed is called when the vote timer fires, before any remote call.
	VotePassed(ctx context.Context) error
	// Progress replaces the current progress line.
	Progress(ctx context.Context, msg string) error
}

type Timings struct {
	Vote         time.Duration
	SaveWait     time.Duration
	PollInterval time.Duration
	// StopTimeout bounds the wait for the server to stop. Zero waits forever.
	StopTimeout time.Duration
	KillWait    time.Duration
}

func DefaultTimings() Timings {
	return Timings{
		Vote:         60 * time.Second,
		SaveWait:     10 * time.Second,
		PollInterval: 2 * time.Second,
		KillWait:     5 * time.Second,
	}
}

// Manager holds the single restart session. A session exists from the
// moment a vote starts until the vote is canceled or the workflow it
// triggered finishes.
type Manager struct {
	ctrl   remote.Controller
	game   game.Adapter
	clock  clock.Clock
	timing Timings

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	session *session
}

type session struct {
	id    string
	timer clock.Timer
	fired bool
}

// Info describes the current session for display.
type Info struct {
	ID      string `json:"id,omitempty"`
	Active  bool   `json:"active"`
	Running bool   `json:"running"`
}

func NewManager(ctrl remote.Controller, adapter game.Adapter, clk clock.Clock, timing Timings) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		ctrl:   ctrl,
		game:   adapter,
		clock:  clk,
		timing: timing,
		ctx:    ctx,
		cancel: cancel,
	}
}

func (m *Manager) VoteTimeout() time.Duration { return m.timing.Vote }

// Begin opens a session and arms the vote timer. When the timer fires the
// restart workflow runs and reports through rep.
func (m *Manager) Begin(rep Reporter) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session != nil {
		return "", ErrInProgress
	}

	id := uuid.NewString()
	s := &session{id: id}
	s.timer = m.clock.AfterFunc(m.timing.Vote, func() { m.fire(id, rep) })
	m.session = s
	metrics.RestartInProgress.Set(1)

	log.Printf("restart %s: vote started, restarting in %s", id, m.timing.Vote)
	return id, nil
}

// Cancel stops a pending vote. It fails with ErrNoSession when nothing is
// pending and ErrAlreadyRunning once the workflow has started.
func (m *Manager) Cancel() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.session
	if s == nil {
		return "", ErrNoSession
	}
	if s.fired {
		return s.id, ErrAlreadyRunning
	}
	s.timer.Stop()
	m.session = nil
	metrics.RestartInProgress.Set(0)

	log.Printf("restart %s: vote canceled", s.id)
	return s.id, nil
}

// AnnounceCancel tells players a pending restart was called off.
func (m *Manager) AnnounceCancel(ctx context.Context) remote.Result {
	return m.ctrl.SendCommand(ctx, m.game.Broadcast("Server restart has been canceled."))
}

func (m *Manager) Info() Info {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return Info{}
	}
	return Info{ID: m.session.id, Active: true, Running: m.session.fired}
}

func (m *Manager) Active() bool {
	return m.Info().Active
}

// Close aborts any running workflow at its next wait.
func (m *Manager) Close() {
	m.cancel()
}

func (m *Manager) fire(id string, rep Reporter) {
	m.mu.Lock()
	s := m.session
	if s == nil || s.id != id || s.fired {
		m.mu.Unlock()
		return
	}
	s.fired = true
	m.mu.Unlock()

	defer m.finish(id)

	log.Printf("restart %s: vote passed", id)
	if err := rep.VotePassed(m.ctx); err != nil {
		log.Printf("restart %s: announce vote result: %v", id, err)
	}

	err := m.Run(m.ctx, rep)
	metrics.RecordRestart("vote", err == nil)
	if err == nil {
		log.Printf("restart %s: done", id)
	}
}

func (m *Manager) finish(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session != nil && m.session.id == id {
		m.session = nil
		metrics.RestartInProgress.Set(0)
	}
}
