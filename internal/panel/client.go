// Package panel talks to a Pterodactyl-compatible panel through its client API.
package panel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/reedfamily/reedbot/internal/remote"
)

const acceptHeader = "Application/vnd.pterodactyl.v1+json"

// Client is a remote.Controller for one server on a panel.
type Client struct {
	baseURL  string
	serverID string
	apiKey   string
	http     *http.Client
}

func NewClient(baseURL, serverID, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		serverID: serverID,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: timeout},
	}
}

type resourcesResponse struct {
	Attributes struct {
		CurrentState string `json:"current_state"`
		IsSuspended  bool   `json:"is_suspended"`
		Resources    struct {
			MemoryBytes    int64   `json:"memory_bytes"`
			CPUAbsolute    float64 `json:"cpu_absolute"`
			DiskBytes      int64   `json:"disk_bytes"`
			NetworkRxBytes int64   `json:"network_rx_bytes"`
			NetworkTxBytes int64   `json:"network_tx_bytes"`
			OnlinePlayers  *int    `json:"online_players"`
			MaxPlayers     *int    `json:"max_players"`
		} `json:"resources"`
	} `json:"attributes"`
}

func (c *Client) SendCommand(ctx context.Context, command string) remote.Result {
	err := c.do(ctx, http.MethodPost, "command", map[string]string{"command": command}, nil)
	if err != nil {
		log.Printf("panel: send command %q: %v", command, err)
		return remote.Failed(err)
	}
	return remote.Result{}
}

func (c *Client) Resources(ctx context.Context) (remote.Snapshot, bool) {
	var resp resourcesResponse
	if err := c.do(ctx, http.MethodGet, "resources", nil, &resp); err != nil {
		log.Printf("panel: get resources: %v", err)
		return remote.Snapshot{}, false
	}

	a := resp.Attributes
	return remote.Snapshot{
		State:          a.CurrentState,
		IsSuspended:    a.IsSuspended,
		MemoryBytes:    a.Resources.MemoryBytes,
		CPUAbsolute:    a.Resources.CPUAbsolute,
		DiskBytes:      a.Resources.DiskBytes,
		NetworkRxBytes: a.Resources.NetworkRxBytes,
		NetworkTxBytes: a.Resources.NetworkTxBytes,
		OnlinePlayers:  a.Resources.OnlinePlayers,
		MaxPlayers:     a.Resources.MaxPlayers,
	}, true
}

func (c *Client) SetPower(ctx context.Context, signal remote.Signal) remote.Result {
	err := c.do(ctx, http.MethodPost, "power", map[string]string{"signal": string(signal)}, nil)
	if err != nil {
		log.Printf("panel: set power state to %s: %v", signal, err)
		return remote.Failed(err)
	}
	return remote.Result{}
}

func (c *Client) do(ctx context.Context, method, endpoint string, body, out any) error {
	url := fmt.Sprintf("%s/client/servers/%s/%s", c.baseURL, c.serverID, endpoint)

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", acceptHeader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: status %d: %s", method, endpoint, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", endpoint, err)
	}
	return nil
}
