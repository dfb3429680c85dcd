package api

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/reedfamily/reedbot/internal/remote"
	"github.com/reedfamily/reedbot/internal/stats"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Presence is the source of presence lines, normally a *stats.Collector.
type Presence interface {
	Latest() string
	Subscribe() chan string
	Unsubscribe(ch chan string)
}

type StatsHandler struct {
	ctrl     remote.Controller
	presence Presence
	maxRAMGB float64
}

func NewStatsHandler(ctrl remote.Controller, presence Presence, maxRAMGB float64) *StatsHandler {
	return &StatsHandler{ctrl: ctrl, presence: presence, maxRAMGB: maxRAMGB}
}

type statusResponse struct {
	Snapshot remote.Snapshot `json:"snapshot"`
	Usage    stats.Usage     `json:"usage"`
}

// Status fetches a fresh snapshot from the server.
func (h *StatsHandler) Status(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.ctrl.Resources(r.Context())
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "server status unavailable")
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{
		Snapshot: snap,
		Usage:    stats.Compute(snap, h.maxRAMGB),
	})
}

type presenceMessage struct {
	Text string `json:"text"`
}

// Live pushes every presence line the collector publishes over a WebSocket.
func (h *StatsHandler) Live(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("api: presence websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	ch := h.presence.Subscribe()
	defer h.presence.Unsubscribe(ch)

	// Send latest immediately if available
	if latest := h.presence.Latest(); latest != "" {
		if err := conn.WriteJSON(presenceMessage{Text: latest}); err != nil {
			return
		}
	}

	// Read from client to detect disconnect
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case text, ok := <-ch:
			if !ok {
				return
			}
			if err := conn.WriteJSON(presenceMessage{Text: text}); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
