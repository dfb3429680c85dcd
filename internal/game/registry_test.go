package game

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeAdapter struct{}

func (fakeAdapter) Game() string                         { return "fake" }
func (fakeAdapter) DisplayName() string                  { return "Fake" }
func (fakeAdapter) Broadcast(msg string) string          { return "echo " + msg }
func (fakeAdapter) SaveCommand() string                  { return "save" }
func (fakeAdapter) PlayerCommand() string                { return "who" }
func (fakeAdapter) ParsePlayers(string) (int, int, bool) { return 0, 0, false }

func TestRegistry(t *testing.T) {
	Register(fakeAdapter{})

	a, err := Get("fake")
	require.NoError(t, err)
	require.Equal(t, "echo hi", a.Broadcast("hi"))

	_, err = Get("tetris")
	require.ErrorContains(t, err, `unknown game "tetris"`)
	require.ErrorContains(t, err, "fake")
}
