package board

import "testing"

func TestDefaultLayoutRows(t *testing.T) {
	l := Default()

	if l.Tokens() != 16 {
		t.Fatalf("expected 16 tokens, got %d", l.Tokens())
	}

	want := []Row{{0, 0}, {1, 3}, {4, 8}, {9, 15}}
	got := l.Rows()
	if len(got) != len(want) {
		t.Fatalf("expected %d rows, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("row %d: got %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestRowOf(t *testing.T) {
	l := Default()

	tests := []struct {
		token int
		want  Row
	}{
		{0, Row{0, 0}},
		{1, Row{1, 3}},
		{3, Row{1, 3}},
		{4, Row{4, 8}},
		{6, Row{4, 8}},
		{8, Row{4, 8}},
		{9, Row{9, 15}},
		{15, Row{9, 15}},
	}
	for _, tt := range tests {
		row, ok := l.RowOf(tt.token)
		if !ok {
			t.Errorf("token %d: expected ok", tt.token)
			continue
		}
		if row != tt.want {
			t.Errorf("token %d: got %+v, want %+v", tt.token, row, tt.want)
		}
	}
}

func TestRowOfOutOfRange(t *testing.T) {
	l := Default()
	for _, token := range []int{-1, 16, 255} {
		if _, ok := l.RowOf(token); ok {
			t.Errorf("token %d: expected !ok", token)
		}
	}
}

func TestButtonPinsUnique(t *testing.T) {
	l := Default()
	seen := map[Pin]bool{}
	for i, p := range l.Buttons() {
		if seen[p] {
			t.Errorf("button channel %d reuses pin %s", i, p)
		}
		seen[p] = true
	}
	if len(seen) != l.Tokens()+1 {
		t.Errorf("expected %d button pins, got %d", l.Tokens()+1, len(seen))
	}
}

func TestLEDPinsUnique(t *testing.T) {
	l := Default()
	seen := map[Pin]bool{}
	for i, p := range l.LEDs() {
		if seen[p] {
			t.Errorf("led channel %d reuses pin %s", i, p)
		}
		seen[p] = true
	}
	if len(seen) != l.Tokens()+2 {
		t.Errorf("expected %d led pins, got %d", l.Tokens()+2, len(seen))
	}
}

func TestTokenWiring(t *testing.T) {
	l := Default()
	for i := 0; i < l.Tokens(); i++ {
		if got := l.TokenButton(i); got != (Pin{ButtonExpA, uint8(i)}) {
			t.Errorf("token %d button: got %s", i, got)
		}
		if got := l.TokenLED(i); got != (Pin{LEDExpA, uint8(i)}) {
			t.Errorf("token %d led: got %s", i, got)
		}
	}
	if got := l.StartButton(); got != (Pin{ButtonExpB, 0}) {
		t.Errorf("start button: got %s", got)
	}
	if got := l.PlayerLED(0); got != (Pin{LEDExpB, 0}) {
		t.Errorf("player 1 led: got %s", got)
	}
	if got := l.PlayerLED(1); got != (Pin{LEDExpB, 1}) {
		t.Errorf("player 2 led: got %s", got)
	}
}

func TestNewRejectsBadGeometry(t *testing.T) {
	tests := []struct {
		name string
		rows []int
	}{
		{"empty", nil},
		{"zero row", []int{1, 0, 3}},
		{"negative row", []int{-2}},
		{"too many tokens", []int{8, 9}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.rows); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestRowsReturnsCopy(t *testing.T) {
	l := Default()
	rows := l.Rows()
	rows[0] = Row{5, 5}

	if r, _ := l.RowOf(0); r != (Row{0, 0}) {
		t.Errorf("layout mutated through Rows(): %+v", r)
	}
}

func TestUniquePinsDetectsDuplicate(t *testing.T) {
	pins := []Pin{{0x20, 0}, {0x20, 1}, {0x20, 0}}
	if err := uniquePins("button", pins); err == nil {
		t.Error("expected duplicate pin error")
	}
}

func TestUniquePinsDetectsBadBit(t *testing.T) {
	if err := uniquePins("led", []Pin{{0x22, 16}}); err == nil {
		t.Error("expected out-of-range bit error")
	}
}

func TestPinMask(t *testing.T) {
	if got := (Pin{Addr: 0x20, Bit: 6}).Mask(); got != 0x0040 {
		t.Errorf("mask: got 0x%04X, want 0x0040", got)
	}
}
