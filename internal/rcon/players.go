// Package rcon fills in player counts over the game's remote console when
// the server host does not report them.
package rcon

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gorcon/rcon"

	"github.com/reedfamily/reedbot/internal/game"
	"github.com/reedfamily/reedbot/internal/remote"
)

// Execer runs one console command and returns its output.
type Execer func(ctx context.Context, command string) (string, error)

// Dial returns an Execer that opens a fresh RCON connection per command.
func Dial(addr, password string) Execer {
	return func(ctx context.Context, command string) (string, error) {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		deadline := 5 * time.Second
		if d, ok := ctx.Deadline(); ok && time.Until(d) < deadline {
			deadline = time.Until(d)
		}
		conn, err := rcon.Dial(addr, password, rcon.SetDialTimeout(deadline), rcon.SetDeadline(deadline))
		if err != nil {
			return "", fmt.Errorf("rcon connection failed: %w", err)
		}
		defer conn.Close()

		return conn.Execute(command)
	}
}

// WithPlayers decorates a controller so running snapshots without player
// counts get them from the game's player list command.
func WithPlayers(next remote.Controller, adapter game.Adapter, exec Execer) remote.Controller {
	return &players{Controller: next, adapter: adapter, exec: exec}
}

type players struct {
	remote.Controller
	adapter game.Adapter
	exec    Execer
}

func (p *players) Resources(ctx context.Context) (remote.Snapshot, bool) {
	snap, ok := p.Controller.Resources(ctx)
	if !ok || !snap.Running() || snap.OnlinePlayers != nil {
		return snap, ok
	}

	out, err := p.exec(ctx, p.adapter.PlayerCommand())
	if err != nil {
		log.Printf("rcon: player list: %v", err)
		return snap, ok
	}
	online, max, parsed := p.adapter.ParsePlayers(out)
	if !parsed {
		log.Printf("rcon: unrecognised player list %q", out)
		return snap, ok
	}
	snap.OnlinePlayers = &online
	snap.MaxPlayers = &max
	return snap, ok
}
