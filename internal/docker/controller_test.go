package docker

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"testing"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/stretchr/testify/require"

	"github.com/reedfamily/reedbot/internal/remote"
)

type fakeEngine struct {
	status string
	sizeRw int64
	stats  string
	err    error
	calls  []string
	stdin  chan string
}

func (f *fakeEngine) ContainerStart(_ context.Context, id string, _ container.StartOptions) error {
	f.calls = append(f.calls, "start "+id)
	return f.err
}

func (f *fakeEngine) ContainerStop(_ context.Context, id string, opts container.StopOptions) error {
	f.calls = append(f.calls, "stop "+id)
	return f.err
}

func (f *fakeEngine) ContainerKill(_ context.Context, id, signal string) error {
	f.calls = append(f.calls, "kill "+id+" "+signal)
	return f.err
}

func (f *fakeEngine) ContainerInspectWithRaw(_ context.Context, id string, getSize bool) (types.ContainerJSON, []byte, error) {
	if f.err != nil {
		return types.ContainerJSON{}, nil, f.err
	}
	size := f.sizeRw
	return types.ContainerJSON{
		ContainerJSONBase: &types.ContainerJSONBase{
			State:  &types.ContainerState{Status: f.status},
			SizeRw: &size,
		},
	}, nil, nil
}

func (f *fakeEngine) ContainerStats(_ context.Context, id string, stream bool) (container.StatsResponseReader, error) {
	return container.StatsResponseReader{Body: io.NopCloser(strings.NewReader(f.stats))}, nil
}

func (f *fakeEngine) ContainerAttach(_ context.Context, id string, _ container.AttachOptions) (types.HijackedResponse, error) {
	if f.err != nil {
		return types.HijackedResponse{}, f.err
	}
	client, server := net.Pipe()
	go func() {
		line, _ := bufio.NewReader(server).ReadString('\n')
		f.stdin <- line
		server.Close()
	}()
	return types.HijackedResponse{Conn: client, Reader: bufio.NewReader(client)}, nil
}

func (f *fakeEngine) Close() error { return nil }

const runningStats = `{
	"cpu_stats": {"cpu_usage": {"total_usage": 400}, "system_cpu_usage": 2000, "online_cpus": 4},
	"precpu_stats": {"cpu_usage": {"total_usage": 200}, "system_cpu_usage": 1000},
	"memory_stats": {"usage": 4294967296},
	"networks": {"eth0": {"rx_bytes": 100, "tx_bytes": 50}, "eth1": {"rx_bytes": 1, "tx_bytes": 2}}
}`

func TestResourcesRunning(t *testing.T) {
	eng := &fakeEngine{status: "running", sizeRw: 2147483648, stats: runningStats}
	ctrl := NewController(&Client{cli: eng}, "mc")

	snap, ok := ctrl.Resources(context.Background())
	require.True(t, ok)
	require.Equal(t, remote.StateRunning, snap.State)
	require.Equal(t, int64(4294967296), snap.MemoryBytes)
	require.Equal(t, int64(2147483648), snap.DiskBytes)
	require.Equal(t, int64(101), snap.NetworkRxBytes)
	require.Equal(t, int64(52), snap.NetworkTxBytes)
	require.InDelta(t, 80.0, snap.CPUAbsolute, 0.001)
}

func TestResourcesStopped(t *testing.T) {
	eng := &fakeEngine{status: "exited"}
	ctrl := NewController(&Client{cli: eng}, "mc")

	snap, ok := ctrl.Resources(context.Background())
	require.True(t, ok)
	require.Equal(t, remote.StateOffline, snap.State)
	require.Zero(t, snap.MemoryBytes)
}

func TestResourcesInspectFailure(t *testing.T) {
	eng := &fakeEngine{err: errors.New("no such container")}
	ctrl := NewController(&Client{cli: eng}, "mc")

	_, ok := ctrl.Resources(context.Background())
	require.False(t, ok)
}

func TestSetPower(t *testing.T) {
	eng := &fakeEngine{}
	ctrl := NewController(&Client{cli: eng}, "mc")

	require.True(t, ctrl.SetPower(context.Background(), remote.SignalStop).OK())
	require.True(t, ctrl.SetPower(context.Background(), remote.SignalKill).OK())
	require.True(t, ctrl.SetPower(context.Background(), remote.SignalStart).OK())
	require.False(t, ctrl.SetPower(context.Background(), remote.Signal("hibernate")).OK())
	require.Equal(t, []string{"stop mc", "kill mc SIGKILL", "start mc"}, eng.calls)

	eng.err = errors.New("daemon down")
	require.False(t, ctrl.SetPower(context.Background(), remote.SignalStart).OK())
}

func TestSendCommandWritesStdin(t *testing.T) {
	eng := &fakeEngine{stdin: make(chan string, 1)}
	ctrl := NewController(&Client{cli: eng}, "mc")

	require.True(t, ctrl.SendCommand(context.Background(), "save-all").OK())
	require.Equal(t, "save-all\n", <-eng.stdin)
}

func TestLifecycleState(t *testing.T) {
	require.Equal(t, remote.StateRunning, lifecycleState("running"))
	require.Equal(t, remote.StateStarting, lifecycleState("restarting"))
	require.Equal(t, remote.StateStopping, lifecycleState("paused"))
	require.Equal(t, remote.StateOffline, lifecycleState("created"))
	require.Equal(t, remote.StateOffline, lifecycleState("dead"))
}
