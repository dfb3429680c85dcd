// Package scheduler opens restart votes on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/reedfamily/reedbot/internal/restart"
)

// Trigger opens a restart vote and returns its session id.
type Trigger func(ctx context.Context, origin string) (string, error)

type Scheduler struct {
	expr    *Expr
	trigger Trigger
	now     func() time.Time
	cancel  context.CancelFunc
	done    chan struct{}
}

func New(expr *Expr, trigger Trigger) *Scheduler {
	return &Scheduler{
		expr:    expr,
		trigger: trigger,
		now:     time.Now,
	}
}

func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		// Wake on each minute boundary.
		for {
			now := s.now()
			wait := now.Truncate(time.Minute).Add(time.Minute).Sub(now)

			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
				s.tick(ctx, s.now())
			}
		}
	}()

	if next := s.expr.Next(s.now()); !next.IsZero() {
		log.Printf("scheduler: started, restart vote on %q, next at %s", s.expr, next.Format(time.RFC1123))
	} else {
		log.Printf("scheduler: started, but %q never fires", s.expr)
	}
}

func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
		<-s.done
	}
}

func (s *Scheduler) tick(ctx context.Context, now time.Time) {
	if !s.expr.Matches(now) {
		return
	}

	id, err := s.trigger(ctx, "schedule")
	switch {
	case errors.Is(err, restart.ErrInProgress):
		log.Println("scheduler: restart already in progress, skipping")
	case err != nil:
		log.Printf("scheduler: start vote: %v", err)
	default:
		log.Printf("scheduler: restart vote %s opened", id)
	}
}
