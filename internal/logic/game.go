package logic

import (
	"time"

	"github.com/sweeney/nim-box/internal/board"
)

// Game is the two-player Nim state machine. A move takes the chosen token
// and every token to its right in the same row; whoever takes the last
// token wins.
//
// Game starts out waiting with an empty board; Start begins play.
type Game struct {
	layout *board.Layout
	alive  []bool
	active bool
	player int
	winner int
	blink  Blink
	counts EventCounts
}

// NewGame creates a game for layout in the waiting phase.
func NewGame(layout *board.Layout, blinkPeriod time.Duration) *Game {
	return &Game{
		layout: layout,
		alive:  make([]bool, layout.Tokens()),
		winner: NoWinner,
		blink:  NewBlink(blinkPeriod),
	}
}

// Start puts every token back, gives the turn to player 1 and clears any
// winner. It may be called mid-game, which abandons the current game.
func (g *Game) Start(now time.Time) Event {
	for i := range g.alive {
		g.alive[i] = true
	}
	g.active = true
	g.player = 0
	g.winner = NoWinner
	g.blink.Reset(now)
	g.counts.Games++

	return Event{
		Timestamp: now,
		Type:      EventStart,
		Player:    0,
		Token:     -1,
		Alive:     len(g.alive),
	}
}

// Move plays token for the current player. It returns nil and leaves the
// game untouched if no game is running, token is off the board, or token
// was already taken. Otherwise it returns MOVE followed by TURN or WIN.
func (g *Game) Move(token int, now time.Time) []Event {
	if !g.active {
		return nil
	}
	row, ok := g.layout.RowOf(token)
	if !ok || !g.alive[token] {
		return nil
	}

	removed := make([]int, 0, row.End-token+1)
	for i := token; i <= row.End; i++ {
		g.alive[i] = false
		removed = append(removed, i)
	}
	g.counts.Moves++

	left := g.aliveCount()
	mover := g.player
	events := []Event{{
		Timestamp: now,
		Type:      EventMove,
		Player:    mover,
		Token:     token,
		Removed:   removed,
		Alive:     left,
	}}

	if left == 0 {
		g.active = false
		g.winner = mover
		g.blink.Reset(now)
		g.counts.Wins[mover]++
		return append(events, Event{
			Timestamp: now,
			Type:      EventWin,
			Player:    mover,
			Token:     -1,
		})
	}

	g.player = 1 - g.player
	return append(events, Event{
		Timestamp: now,
		Type:      EventTurn,
		Player:    g.player,
		Token:     -1,
		Alive:     left,
	})
}

// AdvanceBlink toggles the winner indicator phase when due. It never
// advances while a game is running or when nobody has won.
func (g *Game) AdvanceBlink(now time.Time) bool {
	if g.active || g.winner == NoWinner {
		return false
	}
	return g.blink.Advance(now)
}

// aliveCount scans the whole board.
func (g *Game) aliveCount() int {
	n := 0
	for _, a := range g.alive {
		if a {
			n++
		}
	}
	return n
}

// Active reports whether a game is in progress.
func (g *Game) Active() bool {
	return g.active
}

// State returns a copy of the current state.
func (g *Game) State() State {
	return State{
		Active:  g.active,
		Player:  g.player,
		Winner:  g.winner,
		Alive:   append([]bool(nil), g.alive...),
		BlinkOn: g.blink.On(),
	}
}

// Counts returns activity counters since startup.
func (g *Game) Counts() EventCounts {
	return g.counts
}

// Layout returns the board the game is played on.
func (g *Game) Layout() *board.Layout {
	return g.layout
}
