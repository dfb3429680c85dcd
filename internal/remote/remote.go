// Package remote defines the contract between the bot and whatever hosts the
// managed game server.
package remote

import "context"

// Lifecycle states reported by the host.
const (
	StateRunning  = "running"
	StateStarting = "starting"
	StateStopping = "stopping"
	StateOffline  = "offline"
)

type Signal string

const (
	SignalStart Signal = "start"
	SignalStop  Signal = "stop"
	SignalKill  Signal = "kill"
)

// Snapshot is a point-in-time report of the managed server.
type Snapshot struct {
	State          string  `json:"current_state"`
	IsSuspended    bool    `json:"is_suspended"`
	MemoryBytes    int64   `json:"memory_bytes"`
	CPUAbsolute    float64 `json:"cpu_absolute"`
	DiskBytes      int64   `json:"disk_bytes"`
	NetworkRxBytes int64   `json:"network_rx_bytes"`
	NetworkTxBytes int64   `json:"network_tx_bytes"`
	OnlinePlayers  *int    `json:"online_players,omitempty"`
	MaxPlayers     *int    `json:"max_players,omitempty"`
}

func (s Snapshot) Running() bool { return s.State == StateRunning }

// Result is the outcome of a fire-and-forget remote call. A failed Result has
// already been logged by the client that produced it.
type Result struct {
	Err error
}

func (r Result) OK() bool { return r.Err == nil }

func Failed(err error) Result { return Result{Err: err} }

// Controller drives the managed server. Implementations never panic or
// return transport errors to the caller: failures are logged and folded into
// the returned Result, or into ok=false for Resources.
type Controller interface {
	SendCommand(ctx context.Context, command string) Result
	Resources(ctx context.Context) (snap Snapshot, ok bool)
	SetPower(ctx context.Context, signal Signal) Result
}
