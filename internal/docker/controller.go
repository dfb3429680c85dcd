package docker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/reedfamily/reedbot/internal/remote"
)

// Controller manages one game server running in a local container.
type Controller struct {
	client    *Client
	container string
}

func NewController(c *Client, container string) *Controller {
	return &Controller{client: c, container: container}
}

func (c *Controller) SendCommand(ctx context.Context, command string) remote.Result {
	if err := c.client.WriteStdin(ctx, c.container, command); err != nil {
		log.Printf("docker: send command %q: %v", command, err)
		return remote.Failed(err)
	}
	return remote.Result{}
}

func (c *Controller) SetPower(ctx context.Context, signal remote.Signal) remote.Result {
	var err error
	switch signal {
	case remote.SignalStart:
		err = c.client.StartContainer(ctx, c.container)
	case remote.SignalStop:
		err = c.client.StopContainer(ctx, c.container)
	case remote.SignalKill:
		err = c.client.KillContainer(ctx, c.container)
	default:
		err = fmt.Errorf("unknown signal %q", signal)
	}
	if err != nil {
		log.Printf("docker: set power state to %s: %v", signal, err)
		return remote.Failed(err)
	}
	return remote.Result{}
}

func (c *Controller) Resources(ctx context.Context) (remote.Snapshot, bool) {
	info, err := c.client.InspectContainer(ctx, c.container)
	if err != nil {
		log.Printf("docker: inspect %s: %v", c.container, err)
		return remote.Snapshot{}, false
	}
	if info.ContainerJSONBase == nil || info.State == nil {
		log.Printf("docker: inspect %s: no state reported", c.container)
		return remote.Snapshot{}, false
	}

	snap := remote.Snapshot{State: lifecycleState(info.State.Status)}
	if info.SizeRw != nil {
		snap.DiskBytes = *info.SizeRw
	}
	if !snap.Running() {
		return snap, true
	}

	usage, err := c.fetchStats(ctx)
	if err != nil {
		log.Printf("docker: stats %s: %v", c.container, err)
		return remote.Snapshot{}, false
	}
	snap.MemoryBytes = int64(usage.MemoryStats.Usage)
	snap.CPUAbsolute = calculateCPUPercent(usage)
	for _, n := range usage.Networks {
		snap.NetworkRxBytes += int64(n.RxBytes)
		snap.NetworkTxBytes += int64(n.TxBytes)
	}
	return snap, true
}

func (c *Controller) fetchStats(ctx context.Context) (dockerStatsJSON, error) {
	var stats dockerStatsJSON
	body, err := c.client.ContainerStatsOnce(ctx, c.container)
	if err != nil {
		return stats, err
	}
	defer body.Close()

	if err := json.NewDecoder(body).Decode(&stats); err != nil {
		return stats, fmt.Errorf("decode stats: %w", err)
	}
	return stats, nil
}

// lifecycleState maps a container status onto the panel vocabulary.
func lifecycleState(status string) string {
	switch status {
	case "running":
		return remote.StateRunning
	case "restarting":
		return remote.StateStarting
	case "removing", "paused":
		return remote.StateStopping
	default:
		return remote.StateOffline
	}
}

// Docker stats JSON structures
type dockerStatsJSON struct {
	CPUStats    cpuStats                `json:"cpu_stats"`
	PreCPUStats cpuStats                `json:"precpu_stats"`
	MemoryStats memoryStats             `json:"memory_stats"`
	Networks    map[string]networkStats `json:"networks"`
}

type cpuStats struct {
	CPUUsage struct {
		TotalUsage uint64 `json:"total_usage"`
	} `json:"cpu_usage"`
	SystemCPUUsage uint64 `json:"system_cpu_usage"`
	OnlineCPUs     uint64 `json:"online_cpus"`
}

type memoryStats struct {
	Usage uint64 `json:"usage"`
}

type networkStats struct {
	RxBytes uint64 `json:"rx_bytes"`
	TxBytes uint64 `json:"tx_bytes"`
}

func calculateCPUPercent(stats dockerStatsJSON) float64 {
	if stats.CPUStats.CPUUsage.TotalUsage < stats.PreCPUStats.CPUUsage.TotalUsage ||
		stats.CPUStats.SystemCPUUsage <= stats.PreCPUStats.SystemCPUUsage {
		return 0
	}
	cpuDelta := float64(stats.CPUStats.CPUUsage.TotalUsage - stats.PreCPUStats.CPUUsage.TotalUsage)
	systemDelta := float64(stats.CPUStats.SystemCPUUsage - stats.PreCPUStats.SystemCPUUsage)

	cpus := float64(stats.CPUStats.OnlineCPUs)
	if cpus == 0 {
		cpus = 1
	}

	return (cpuDelta / systemDelta) * cpus * 100.0
}
