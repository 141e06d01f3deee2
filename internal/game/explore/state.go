// Package explore provides the exploration loop: movement, encounter
// triggering, and combat result handling.
package explore

// State is the exploration loop's state machine position.
type State int

const (
	// StatePlaying is free dungeon movement.
	StatePlaying State = iota
	// StateCombat means a combat session owns the player's input.
	StateCombat
	// StateGameOver is terminal; the run has ended.
	StateGameOver
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StatePlaying:
		return "playing"
	case StateCombat:
		return "combat"
	case StateGameOver:
		return "game_over"
	default:
		return "unknown"
	}
}

// Command is one player input in exploration mode.
type Command int

const (
	CmdNone Command = iota
	CmdMoveUp
	CmdMoveDown
	CmdMoveLeft
	CmdMoveRight
	CmdQuit
)
