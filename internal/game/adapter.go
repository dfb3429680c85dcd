package game

// Adapter provides the console vocabulary of one game.
type Adapter interface {
	// Game returns the game identifier (e.g., "minecraft", "vintagestory")
	Game() string

	// DisplayName is the human name used in chat embeds.
	DisplayName() string

	// Broadcast returns the console command that shows msg to every player.
	Broadcast(msg string) string

	// SaveCommand flushes the world to disk.
	SaveCommand() string

	// PlayerCommand returns the command to list online players
	PlayerCommand() string

	// ParsePlayers extracts online and max player counts from the output of
	// PlayerCommand. ok is false when the output is not recognised.
	ParsePlayers(output string) (online, max int, ok bool)
}
