// Package board holds the fixed wiring and geometry of the Nim box: which
// expander line each button and LED sits on, and how tokens are split into
// rows. Tables are built once and only read afterwards.
package board

import "fmt"

// Expander addresses (7-bit I2C).
const (
	ButtonExpA = 0x20 // token buttons
	ButtonExpB = 0x21 // start button
	LEDExpA    = 0x22 // token LEDs
	LEDExpB    = 0x23 // player indicator LEDs
)

// PortWidth is the number of lines on one expander.
const PortWidth = 16

// Line positions on the B expanders.
const (
	StartButtonBit = 0
	Player1LEDBit  = 0
	Player2LEDBit  = 1
)

// DefaultRows is the classic 1-3-5-7 Nim pyramid.
var DefaultRows = []int{1, 3, 5, 7}

// Pin is one line on one expander.
type Pin struct {
	Addr uint8
	Bit  uint8
}

// Mask returns the port word with only this pin's bit set.
func (p Pin) Mask() uint16 {
	return 1 << p.Bit
}

func (p Pin) String() string {
	return fmt.Sprintf("0x%02X.%d", p.Addr, p.Bit)
}

// Row is a contiguous run of token indices [Start, End].
type Row struct {
	Start int
	End   int
}

// Len returns the number of tokens in the row.
func (r Row) Len() int {
	return r.End - r.Start + 1
}

// Layout maps logical channels to expander pins and tokens to rows.
type Layout struct {
	rows         []Row
	rowOf        []int
	tokenButtons []Pin
	tokenLEDs    []Pin
	startButton  Pin
	playerLEDs   [2]Pin
}

// Default returns the layout of the shipped board.
func Default() *Layout {
	l, err := New(DefaultRows)
	if err != nil {
		panic(err)
	}
	return l
}

// New builds a layout for the given row lengths. Token i is wired to bit i
// of the token button and token LED expanders, so at most PortWidth tokens
// fit.
func New(rowLengths []int) (*Layout, error) {
	if len(rowLengths) == 0 {
		return nil, fmt.Errorf("board: no rows")
	}

	l := &Layout{
		startButton: Pin{Addr: ButtonExpB, Bit: StartButtonBit},
		playerLEDs: [2]Pin{
			{Addr: LEDExpB, Bit: Player1LEDBit},
			{Addr: LEDExpB, Bit: Player2LEDBit},
		},
	}

	start := 0
	for r, n := range rowLengths {
		if n <= 0 {
			return nil, fmt.Errorf("board: row %d has length %d", r, n)
		}
		row := Row{Start: start, End: start + n - 1}
		l.rows = append(l.rows, row)
		for i := row.Start; i <= row.End; i++ {
			l.rowOf = append(l.rowOf, r)
		}
		start += n
	}
	if start > PortWidth {
		return nil, fmt.Errorf("board: %d tokens do not fit on a %d-line expander", start, PortWidth)
	}

	for i := 0; i < start; i++ {
		l.tokenButtons = append(l.tokenButtons, Pin{Addr: ButtonExpA, Bit: uint8(i)})
		l.tokenLEDs = append(l.tokenLEDs, Pin{Addr: LEDExpA, Bit: uint8(i)})
	}

	if err := l.Validate(); err != nil {
		return nil, err
	}
	return l, nil
}

// Tokens returns the number of tokens on the board.
func (l *Layout) Tokens() int {
	return len(l.rowOf)
}

// Rows returns a copy of the row partition.
func (l *Layout) Rows() []Row {
	return append([]Row(nil), l.rows...)
}

// RowOf returns the row containing token. ok is false for an index outside
// the board.
func (l *Layout) RowOf(token int) (Row, bool) {
	if token < 0 || token >= len(l.rowOf) {
		return Row{}, false
	}
	return l.rows[l.rowOf[token]], true
}

// TokenButton returns the button pin for token.
func (l *Layout) TokenButton(token int) Pin {
	return l.tokenButtons[token]
}

// TokenLED returns the LED pin for token.
func (l *Layout) TokenLED(token int) Pin {
	return l.tokenLEDs[token]
}

// StartButton returns the pin of the new-game button.
func (l *Layout) StartButton() Pin {
	return l.startButton
}

// PlayerLED returns the turn/winner indicator pin for player 0 or 1.
func (l *Layout) PlayerLED(player int) Pin {
	return l.playerLEDs[player]
}

// ButtonAddrs returns the button expander addresses in flag-line order.
func (l *Layout) ButtonAddrs() []uint8 {
	return []uint8{ButtonExpA, ButtonExpB}
}

// LEDAddrs returns the LED expander addresses in write order.
func (l *Layout) LEDAddrs() []uint8 {
	return []uint8{LEDExpA, LEDExpB}
}

// Buttons returns every button pin: token buttons in index order followed
// by the start button.
func (l *Layout) Buttons() []Pin {
	pins := append([]Pin(nil), l.tokenButtons...)
	return append(pins, l.startButton)
}

// LEDs returns every LED pin: token LEDs in index order followed by the two
// player indicators.
func (l *Layout) LEDs() []Pin {
	pins := append([]Pin(nil), l.tokenLEDs...)
	return append(pins, l.playerLEDs[0], l.playerLEDs[1])
}

// Validate checks that no two channels on the same side share a pin and
// that every pin fits on an expander.
func (l *Layout) Validate() error {
	if err := uniquePins("button", l.Buttons()); err != nil {
		return err
	}
	return uniquePins("led", l.LEDs())
}

func uniquePins(side string, pins []Pin) error {
	seen := make(map[Pin]int, len(pins))
	for ch, p := range pins {
		if p.Bit >= PortWidth {
			return fmt.Errorf("board: %s channel %d: bit %d out of range", side, ch, p.Bit)
		}
		if prev, dup := seen[p]; dup {
			return fmt.Errorf("board: %s channels %d and %d share pin %s", side, prev, ch, p)
		}
		seen[p] = ch
	}
	return nil
}
