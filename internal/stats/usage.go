package stats

import (
	"fmt"
	"math"
	"strconv"

	"github.com/reedfamily/reedbot/internal/remote"
)

const (
	bytesPerMB = 1024 * 1024
	bytesPerGB = 1024 * bytesPerMB
)

// Usage is a snapshot converted to display units. RAMUsedGB is rounded to two
// decimals and RAMPercent is derived from that rounded value, so the two
// always agree on screen.
type Usage struct {
	State       string  `json:"state"`
	Suspended   bool    `json:"suspended"`
	RAMUsedGB   float64 `json:"ram_used_gb"`
	RAMMaxGB    float64 `json:"ram_max_gb"`
	RAMPercent  float64 `json:"ram_percent"`
	CPUPercent  float64 `json:"cpu_percent"`
	DiskUsedGB  float64 `json:"disk_used_gb"`
	NetworkRxMB float64 `json:"network_rx_mb"`
	NetworkTxMB float64 `json:"network_tx_mb"`
	Players     *int    `json:"players,omitempty"`
	MaxPlayers  *int    `json:"max_players,omitempty"`
}

func Compute(snap remote.Snapshot, maxRAMGB float64) Usage {
	ramGB := round(float64(snap.MemoryBytes)/bytesPerGB, 2)
	return Usage{
		State:       snap.State,
		Suspended:   snap.IsSuspended,
		RAMUsedGB:   ramGB,
		RAMMaxGB:    maxRAMGB,
		RAMPercent:  round(ramGB/maxRAMGB*100, 0),
		CPUPercent:  round(snap.CPUAbsolute, 1),
		DiskUsedGB:  round(float64(snap.DiskBytes)/bytesPerGB, 2),
		NetworkRxMB: round(float64(snap.NetworkRxBytes)/bytesPerMB, 2),
		NetworkTxMB: round(float64(snap.NetworkTxBytes)/bytesPerMB, 2),
		Players:     snap.OnlinePlayers,
		MaxPlayers:  snap.MaxPlayers,
	}
}

// RAMCompact renders "4.00GB/12GB (33%)".
func (u Usage) RAMCompact() string {
	return fmt.Sprintf("%.2fGB/%sGB (%.0f%%)", u.RAMUsedGB, formatMax(u.RAMMaxGB), u.RAMPercent)
}

// RAM renders "4.00 GB / 12 GB (33%)".
func (u Usage) RAM() string {
	return fmt.Sprintf("%.2f GB / %s GB (%.0f%%)", u.RAMUsedGB, formatMax(u.RAMMaxGB), u.RAMPercent)
}

func (u Usage) CPU() string {
	return fmt.Sprintf("%.1f%%", u.CPUPercent)
}

func (u Usage) Disk() string {
	return fmt.Sprintf("%.2f GB", u.DiskUsedGB)
}

func (u Usage) Network() string {
	return fmt.Sprintf("↓ %.2f MB / ↑ %.2f MB", u.NetworkRxMB, u.NetworkTxMB)
}

// PlayerCount renders "3 / 20", with "Unknown" for a missing or zero maximum.
// ok is false when the online count is unknown.
func (u Usage) PlayerCount() (string, bool) {
	if u.Players == nil {
		return "", false
	}
	max := "Unknown"
	if u.MaxPlayers != nil && *u.MaxPlayers != 0 {
		max = strconv.Itoa(*u.MaxPlayers)
	}
	return fmt.Sprintf("%d / %s", *u.Players, max), true
}

// PresenceText is the bot's activity line for a poll result.
func PresenceText(snap remote.Snapshot, ok bool, maxRAMGB float64) string {
	switch {
	case !ok:
		return "Server Offline"
	case !snap.Running():
		return "Server " + snap.State
	default:
		return "RAM: " + Compute(snap, maxRAMGB).RAMCompact()
	}
}

func formatMax(gb float64) string {
	return strconv.FormatFloat(gb, 'f', -1, 64)
}

// round rounds half away from zero, so ties such as 12.25 go up to 12.3
// where %.Nf alone would round half to even.
func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	if v < 0 {
		return -math.Floor(-v*p+0.5) / p
	}
	return math.Floor(v*p+0.5) / p
}
