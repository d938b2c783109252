// Package logic contains the pure rules of the Nim box: game state, the
// winner blink timer, press-edge detection and LED frame computation.
// This package has NO external dependencies (no GPIO, I2C, MQTT, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import (
	"fmt"
	"time"
)

// NoWinner marks a game without a winner.
const NoWinner = 255

// Phase is the coarse state of the game.
type Phase string

const (
	PhaseWaiting    Phase = "WAITING"
	PhaseInProgress Phase = "IN_PROGRESS"
	PhaseOver       Phase = "OVER"
)

// EventType identifies a game event.
type EventType string

const (
	EventStart EventType = "START"
	EventMove  EventType = "MOVE"
	EventTurn  EventType = "TURN"
	EventWin   EventType = "WIN"
)

// Event is a game transition to be logged and published.
// Player is zero-based.
type Event struct {
	Timestamp time.Time
	Type      EventType
	Player    int   // mover for MOVE and WIN, next player for TURN and START
	Token     int   // chosen token for MOVE, -1 otherwise
	Removed   []int // tokens taken by a MOVE
	Alive     int   // tokens left after the event
}

// Message returns the human-readable diagnostic line for the event.
func (e Event) Message() string {
	switch e.Type {
	case EventStart:
		return "New game started. Player 1 turn."
	case EventTurn:
		return fmt.Sprintf("Player %d turn.", e.Player+1)
	case EventWin:
		return fmt.Sprintf("Player %d wins. Press START for new game.", e.Player+1)
	case EventMove:
		return fmt.Sprintf("Player %d took %d from token %d, %d left.", e.Player+1, len(e.Removed), e.Token, e.Alive)
	}
	return string(e.Type)
}

// State is a copy of the game state, safe to keep after the game moves on.
type State struct {
	Active  bool
	Player  int
	Winner  int
	Alive   []bool
	BlinkOn bool
}

// AliveCount returns the number of tokens still on the board.
func (s State) AliveCount() int {
	n := 0
	for _, a := range s.Alive {
		if a {
			n++
		}
	}
	return n
}

// Phase derives the coarse game phase.
func (s State) Phase() Phase {
	switch {
	case s.Active:
		return PhaseInProgress
	case s.Winner != NoWinner:
		return PhaseOver
	default:
		return PhaseWaiting
	}
}

// EventCounts tracks game activity since startup.
type EventCounts struct {
	Games int
	Moves int
	Wins  [2]int
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    EventCounts
}
