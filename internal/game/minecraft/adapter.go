package minecraft

import (
	"regexp"
	"strconv"

	"github.com/reedfamily/reedbot/internal/game"
)

func init() {
	game.Register(&Adapter{})
}

type Adapter struct{}

// "There are 3 of a max of 20 players online: a, b, c" (vanilla) and
// "There are 3 out of maximum 20 players online." (Paper/Spigot).
var listRe = regexp.MustCompile(`There are (\d+) (?:of a max of|out of maximum|/) ?(\d+) players online`)

var colorRe = regexp.MustCompile(`§.`)

func (a *Adapter) Game() string        { return "minecraft" }
func (a *Adapter) DisplayName() string { return "Minecraft" }

func (a *Adapter) Broadcast(msg string) string { return "say " + msg }
func (a *Adapter) SaveCommand() string         { return "save-all" }
func (a *Adapter) PlayerCommand() string       { return "list" }

func (a *Adapter) ParsePlayers(output string) (int, int, bool) {
	m := listRe.FindStringSubmatch(colorRe.ReplaceAllString(output, ""))
	if m == nil {
		return 0, 0, false
	}
	online, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, 0, false
	}
	max, err := strconv.Atoi(m[2])
	if err != nil {
		return 0, 0, false
	}
	return online, max, true
}
