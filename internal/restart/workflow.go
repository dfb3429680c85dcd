package restart

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/reedfamily/reedbot/internal/metrics"
	"github.com/reedfamily/reedbot/internal/remote"
)

// Run performs a graceful restart: announce, save, wait, stop, wait until
// the server is down, start. Steps run strictly in order and the first error
// ends the run; the error is reported through rep before it is returned.
func (m *Manager) Run(ctx context.Context, rep Reporter) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		if err != nil {
			log.Printf("restart: %v", err)
			if rerr := rep.Progress(context.WithoutCancel(ctx), "Error during restart: "+err.Error()); rerr != nil {
				log.Printf("restart: report failure: %v", rerr)
			}
		}
	}()

	progress := func(msg string) error {
		if err := rep.Progress(ctx, msg); err != nil {
			return fmt.Errorf("report progress: %w", err)
		}
		return nil
	}

	m.ctrl.SendCommand(ctx, m.game.Broadcast(fmt.Sprintf("Server will restart in %d seconds!", int(m.timing.SaveWait.Seconds()))))

	if err := progress("Saving the world..."); err != nil {
		return err
	}
	// Best effort: a failed save must not block the restart.
	m.ctrl.SendCommand(ctx, m.game.SaveCommand())

	if err := m.clock.Sleep(ctx, m.timing.SaveWait); err != nil {
		return err
	}

	if err := progress("Stopping the server..."); err != nil {
		return err
	}
	m.ctrl.SetPower(ctx, remote.SignalStop)

	if err := progress("Waiting for server to stop..."); err != nil {
		return err
	}
	if err := m.waitForStop(ctx); err != nil {
		return err
	}

	if err := progress("Starting the server back up..."); err != nil {
		return err
	}
	m.ctrl.SetPower(ctx, remote.SignalStart)

	return progress("Server has been restarted successfully!")
}

// waitForStop polls until the server reports offline or stopping, or stops
// answering at all.
func (m *Manager) waitForStop(ctx context.Context) error {
	var waited int
	for {
		snap, ok := m.ctrl.Resources(ctx)
		if err := m.clock.Sleep(ctx, m.timing.PollInterval); err != nil {
			return err
		}
		if !ok {
			log.Println("restart: resources unavailable, treating server as stopped")
			return nil
		}
		if snap.State == remote.StateOffline || snap.State == remote.StateStopping {
			return nil
		}

		waited++
		if m.timing.StopTimeout > 0 && m.timing.PollInterval*time.Duration(waited) >= m.timing.StopTimeout {
			return fmt.Errorf("server still %s after %s", snap.State, m.timing.StopTimeout)
		}
	}
}

// ForceRestart kills and restarts the server without saving. It does not
// look at or change the vote session.
func (m *Manager) ForceRestart(ctx context.Context) error {
	m.ctrl.SendCommand(ctx, m.game.Broadcast("SERVER IS BEING FORCE RESTARTED!"))
	m.ctrl.SetPower(ctx, remote.SignalKill)

	if err := m.clock.Sleep(ctx, m.timing.KillWait); err != nil {
		metrics.RecordRestart("force", false)
		return err
	}

	res := m.ctrl.SetPower(ctx, remote.SignalStart)
	metrics.RecordRestart("force", res.OK())
	return nil
}
