package stats

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/reedfamily/reedbot/internal/remote"
)

const statusErrorText = "Status Error"

// Publisher shows a line of text as the bot's presence.
type Publisher interface {
	UpdateWatchStatus(idle int, name string) error
}

// Collector polls the managed server on an interval and republishes its
// state as the bot's presence. Subscribers receive every published line.
type Collector struct {
	ctrl      remote.Controller
	publisher Publisher
	maxRAMGB  float64
	interval  time.Duration

	mu        sync.RWMutex
	latest    string
	listeners []chan string

	cancel context.CancelFunc
}

func NewCollector(ctrl remote.Controller, publisher Publisher, maxRAMGB float64, interval time.Duration) *Collector {
	return &Collector{
		ctrl:      ctrl,
		publisher: publisher,
		maxRAMGB:  maxRAMGB,
		interval:  interval,
	}
}

// Start begins polling. The first poll runs immediately. Calling Start on a
// running collector only triggers an extra poll.
func (c *Collector) Start() {
	c.mu.Lock()
	if c.cancel != nil {
		c.mu.Unlock()
		go c.collect(context.Background())
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.mu.Unlock()

	go func() {
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()

		// Run immediately on start
		c.collect(ctx)

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.collect(ctx)
			}
		}
	}()

	log.Printf("Presence reporter started (%s interval)", c.interval)
}

func (c *Collector) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

// collect runs one poll and publishes its presence line.
func (c *Collector) collect(ctx context.Context) string {
	text, err := c.render(ctx)
	if err != nil {
		log.Printf("stats: updating presence: %v", err)
		text = statusErrorText
	}

	if err := c.publisher.UpdateWatchStatus(0, text); err != nil {
		log.Printf("stats: publish presence %q: %v", text, err)
	} else if text != statusErrorText {
		log.Printf("Updated status: %s", text)
	}

	// Sends happen under the lock so Unsubscribe cannot close a channel
	// mid-send.
	c.mu.Lock()
	defer c.mu.Unlock()
	c.latest = text
	for _, ch := range c.listeners {
		select {
		case ch <- text:
		default:
			// Drop if listener is slow
		}
	}
	return text
}

func (c *Collector) render(ctx context.Context) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	snap, ok := c.ctrl.Resources(ctx)
	return PresenceText(snap, ok, c.maxRAMGB), nil
}

// Latest returns the last published presence line, or "" before the first
// poll.
func (c *Collector) Latest() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.latest
}

func (c *Collector) Subscribe() chan string {
	ch := make(chan string, 1)
	c.mu.Lock()
	c.listeners = append(c.listeners, ch)
	c.mu.Unlock()
	return ch
}

func (c *Collector) Unsubscribe(ch chan string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, l := range c.listeners {
		if l == ch {
			c.listeners = append(c.listeners[:i], c.listeners[i+1:]...)
			close(ch)
			return
		}
	}
}
