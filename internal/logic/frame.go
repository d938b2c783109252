package logic

import "github.com/sweeney/nim-box/internal/board"

// PortWord is the value for all 16 lines of one LED expander.
// A set bit lights the LED.
type PortWord struct {
	Addr  uint8
	Value uint16
}

// Frame computes the LED word for every LED expander of layout from s, in
// layout.LEDAddrs order.
//
// Token LEDs show the tokens still on the board. The indicator for the
// current player is lit while a game runs; after a win the winner's
// indicator follows the blink phase; otherwise both are dark.
func Frame(s State, layout *board.Layout) []PortWord {
	words := make(map[uint8]uint16)

	for i, alive := range s.Alive {
		if alive {
			p := layout.TokenLED(i)
			words[p.Addr] |= p.Mask()
		}
	}

	switch {
	case s.Active:
		p := layout.PlayerLED(s.Player)
		words[p.Addr] |= p.Mask()
	case s.Winner == 0 || s.Winner == 1:
		if s.BlinkOn {
			p := layout.PlayerLED(s.Winner)
			words[p.Addr] |= p.Mask()
		}
	}

	addrs := layout.LEDAddrs()
	frame := make([]PortWord, 0, len(addrs))
	for _, a := range addrs {
		frame = append(frame, PortWord{Addr: a, Value: words[a]})
	}
	return frame
}
