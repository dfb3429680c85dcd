package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/reedfamily/reedbot/internal/restart"
)

func at(s string) time.Time {
	t, err := time.Parse("2006-01-02 15:04", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestParseRejectsBadExpressions(t *testing.T) {
	for _, expr := range []string{
		"",
		"* * * *",
		"60 * * * *",
		"* 24 * * *",
		"* * 0 * *",
		"*/0 * * * *",
		"5-1 * * * *",
		"5/2 * * * *",
		"a * * * *",
	} {
		_, err := Parse(expr)
		require.Error(t, err, expr)
	}
}

func TestMatches(t *testing.T) {
	tt := []struct {
		expr string
		when string
		want bool
	}{
		{"0 4 * * *", "2026-10-19 04:00", true},
		{"0 4 * * *", "2026-10-19 04:01", false},
		{"*/15 * * * *", "2026-10-19 13:45", true},
		{"*/15 * * * *", "2026-10-19 13:46", false},
		{"0 6-18/6 * * *", "2026-10-19 12:00", true},
		{"0 6-18/6 * * *", "2026-10-19 15:00", false},
		{"30 3 * * 1,3", "2026-10-19 03:30", true}, // Monday
		{"30 3 * * 0", "2026-10-18 03:30", true},   // Sunday
		{"30 3 * * 7", "2026-10-18 03:30", true},
		// Both day fields restricted: either may match.
		{"0 0 1 * 1", "2026-10-19 00:00", true},
		{"0 0 1 * 1", "2026-10-01 00:00", true},
		{"0 0 1 * 1", "2026-10-20 00:00", false},
	}
	for _, tc := range tt {
		e, err := Parse(tc.expr)
		require.NoError(t, err)
		require.Equal(t, tc.want, e.Matches(at(tc.when)), "%s at %s", tc.expr, tc.when)
	}
}

func TestNext(t *testing.T) {
	e, err := Parse("0 4 * * *")
	require.NoError(t, err)

	require.Equal(t, at("2026-10-20 04:00"), e.Next(at("2026-10-19 04:00")))
	require.Equal(t, at("2026-10-19 04:00"), e.Next(at("2026-10-19 03:59")))

	never, err := Parse("0 0 31 2 *")
	require.NoError(t, err)
	require.True(t, never.Next(at("2026-10-19 00:00")).IsZero())
}

func TestTick(t *testing.T) {
	e, err := Parse("0 4 * * *")
	require.NoError(t, err)

	var calls []string
	var result error
	s := New(e, func(_ context.Context, origin string) (string, error) {
		calls = append(calls, origin)
		return "id-1", result
	})

	s.tick(context.Background(), at("2026-10-19 03:59"))
	require.Empty(t, calls)

	s.tick(context.Background(), at("2026-10-19 04:00"))
	require.Equal(t, []string{"schedule"}, calls)

	result = restart.ErrInProgress
	s.tick(context.Background(), at("2026-10-20 04:00"))
	result = errors.New("discord down")
	s.tick(context.Background(), at("2026-10-21 04:00"))
	require.Len(t, calls, 3)
}

func TestStartStop(t *testing.T) {
	e, err := Parse("* * * * *")
	require.NoError(t, err)

	s := New(e, func(context.Context, string) (string, error) { return "", nil })
	s.Start()
	s.Stop()
}
