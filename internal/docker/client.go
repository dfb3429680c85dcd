package docker

import (
	"context"
	"fmt"
	"io"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
)

// Engine is the subset of the Docker Engine API the bot drives.
type Engine interface {
	ContainerStart(ctx context.Context, containerID string, options container.StartOptions) error
	ContainerStop(ctx context.Context, containerID string, options container.StopOptions) error
	ContainerKill(ctx context.Context, containerID, signal string) error
	ContainerInspectWithRaw(ctx context.Context, containerID string, getSize bool) (types.ContainerJSON, []byte, error)
	ContainerStats(ctx context.Context, containerID string, stream bool) (container.StatsResponseReader, error)
	ContainerAttach(ctx context.Context, containerID string, options container.AttachOptions) (types.HijackedResponse, error)
	Close() error
}

type Client struct {
	cli Engine
}

func NewClient() (*Client, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("docker client: %w", err)
	}
	return &Client{cli: cli}, nil
}

func (c *Client) Close() error {
	return c.cli.Close()
}

func (c *Client) StartContainer(ctx context.Context, id string) error {
	return c.cli.ContainerStart(ctx, id, container.StartOptions{})
}

func (c *Client) StopContainer(ctx context.Context, id string) error {
	timeout := 30
	return c.cli.ContainerStop(ctx, id, container.StopOptions{Timeout: &timeout})
}

func (c *Client) KillContainer(ctx context.Context, id string) error {
	return c.cli.ContainerKill(ctx, id, "SIGKILL")
}

// InspectContainer returns the container description including its writable
// layer size.
func (c *Client) InspectContainer(ctx context.Context, id string) (*types.ContainerJSON, error) {
	resp, _, err := c.cli.ContainerInspectWithRaw(ctx, id, true)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// ContainerStatsOnce returns a single stats snapshot (non-streaming).
func (c *Client) ContainerStatsOnce(ctx context.Context, id string) (io.ReadCloser, error) {
	resp, err := c.cli.ContainerStats(ctx, id, false)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// WriteStdin attaches to the container's main process and writes one line to
// its stdin, which is how a server console inside a container is driven.
func (c *Client) WriteStdin(ctx context.Context, id, line string) error {
	attach, err := c.cli.ContainerAttach(ctx, id, container.AttachOptions{
		Stream: true,
		Stdin:  true,
	})
	if err != nil {
		return fmt.Errorf("attach: %w", err)
	}
	defer attach.Close()

	if _, err := attach.Conn.Write([]byte(line + "\n")); err != nil {
		return fmt.Errorf("write stdin: %w", err)
	}
	return nil
}
