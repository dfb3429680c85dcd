// Package metrics holds the bot's Prometheus collectors.
package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/reedfamily/reedbot/internal/remote"
)

var (
	CommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reedbot_commands_total",
			Help: "Slash commands handled, by command and outcome",
		},
		[]string{"command", "outcome"},
	)

	RemoteCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reedbot_remote_calls_total",
			Help: "Calls made to the server host, by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	RestartsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reedbot_restarts_total",
			Help: "Restart workflows run, by kind (vote, force) and result",
		},
		[]string{"kind", "result"},
	)

	RestartInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "reedbot_restart_in_progress",
			Help: "1 while a restart vote or workflow is active",
		},
	)

	ServerMemoryBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "reedbot_server_memory_bytes",
			Help: "Memory used by the managed server at the last poll",
		},
	)

	ServerCPUPercent = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "reedbot_server_cpu_percent",
			Help: "CPU used by the managed server at the last poll",
		},
	)

	ServerUp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "reedbot_server_up",
			Help: "1 when the managed server reported running at the last poll",
		},
	)
)

func outcome(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}

// RecordCommand counts one handled slash command.
func RecordCommand(command string, ok bool) {
	CommandsTotal.WithLabelValues(command, outcome(ok)).Inc()
}

// RecordRestart counts one finished restart of the given kind.
func RecordRestart(kind string, ok bool) {
	RestartsTotal.WithLabelValues(kind, outcome(ok)).Inc()
}

// ObserveSnapshot updates the server gauges from a poll. An unavailable
// snapshot marks the server down and leaves usage gauges untouched.
func ObserveSnapshot(snap remote.Snapshot, ok bool) {
	if !ok {
		ServerUp.Set(0)
		return
	}
	if snap.Running() {
		ServerUp.Set(1)
	} else {
		ServerUp.Set(0)
	}
	ServerMemoryBytes.Set(float64(snap.MemoryBytes))
	ServerCPUPercent.Set(snap.CPUAbsolute)
}

// Instrument wraps a controller so every call is counted.
func Instrument(c remote.Controller) remote.Controller {
	return &instrumented{next: c}
}

type instrumented struct {
	next remote.Controller
}

func (i *instrumented) SendCommand(ctx context.Context, command string) remote.Result {
	res := i.next.SendCommand(ctx, command)
	RemoteCallsTotal.WithLabelValues("command", outcome(res.OK())).Inc()
	return res
}

func (i *instrumented) Resources(ctx context.Context) (remote.Snapshot, bool) {
	snap, ok := i.next.Resources(ctx)
	RemoteCallsTotal.WithLabelValues("resources", outcome(ok)).Inc()
	ObserveSnapshot(snap, ok)
	return snap, ok
}

func (i *instrumented) SetPower(ctx context.Context, signal remote.Signal) remote.Result {
	res := i.next.SetPower(ctx, signal)
	RemoteCallsTotal.WithLabelValues("power_"+string(signal), outcome(res.OK())).Inc()
	return res
}
