package clock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestManualTimerFiresOnAdvance(t *testing.T) {
	c := NewManual()
	fired := 0
	c.AfterFunc(time.Minute, func() { fired++ })

	c.Advance(30 * time.Second)
	require.Equal(t, 0, fired)
	require.Equal(t, 1, c.Pending())

	c.Advance(30 * time.Second)
	require.Equal(t, 1, fired)
	require.Equal(t, 0, c.Pending())

	c.Advance(time.Hour)
	require.Equal(t, 1, fired)
}

func TestManualTimerStop(t *testing.T) {
	c := NewManual()
	fired := false
	timer := c.AfterFunc(time.Second, func() { fired = true })

	require.True(t, timer.Stop())
	require.False(t, timer.Stop())
	c.Fire()
	require.False(t, fired)
}

func TestManualSleepRecords(t *testing.T) {
	c := NewManual()
	require.NoError(t, c.Sleep(context.Background(), 10*time.Second))
	require.NoError(t, c.Sleep(context.Background(), 2*time.Second))
	require.Equal(t, []time.Duration{10 * time.Second, 2 * time.Second}, c.Slept())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, c.Sleep(ctx, time.Second), context.Canceled)
}

func TestRealSleepCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Real{}.Sleep(ctx, time.Hour)
	require.ErrorIs(t, err, context.Canceled)
}
