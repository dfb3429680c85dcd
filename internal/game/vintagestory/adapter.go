package vintagestory

import (
	"regexp"
	"strconv"

	"github.com/reedfamily/reedbot/internal/game"
)

func init() {
	game.Register(&Adapter{})
}

type Adapter struct{}

// "List of online Players (2/16)"
var listRe = regexp.MustCompile(`online Players \((\d+)/(\d+)\)`)

func (a *Adapter) Game() string        { return "vintagestory" }
func (a *Adapter) DisplayName() string { return "Vintage Story" }

func (a *Adapter) Broadcast(msg string) string { return "/announce " + msg }
func (a *Adapter) SaveCommand() string         { return "/autosavenow" }
func (a *Adapter) PlayerCommand() string       { return "/list clients" }

func (a *Adapter) ParsePlayers(output string) (int, int, bool) {
	m := listRe.FindStringSubmatch(output)
	if m == nil {
		return 0, 0, false
	}
	online, _ := strconv.Atoi(m[1])
	max, _ := strconv.Atoi(m[2])
	return online, max, true
}
