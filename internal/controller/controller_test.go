package controller

import (
	"errors"
	"testing"
	"time"

	"github.com/sweeney/nim-box/internal/board"
	"github.com/sweeney/nim-box/internal/expander"
	"github.com/sweeney/nim-box/internal/gpio"
	"github.com/sweeney/nim-box/internal/logic"
)

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

// rig is a controller wired to a fake bus with all four expanders present.
type rig struct {
	bus   *expander.FakeBus
	btnA  *expander.FakeDevice
	btnB  *expander.FakeDevice
	ledA  *expander.FakeDevice
	ledB  *expander.FakeDevice
	flags *gpio.FakeReader
	c     *Controller
	now   time.Time
}

func newRig(t *testing.T) *rig {
	t.Helper()
	bus := expander.NewFakeBus()
	r := &rig{
		bus:   bus,
		btnA:  bus.Add(board.ButtonExpA),
		btnB:  bus.Add(board.ButtonExpB),
		ledA:  bus.Add(board.LEDExpA),
		ledB:  bus.Add(board.LEDExpB),
		flags: gpio.NewFakeReader([]gpio.Sample{{A: false, B: false}}),
		now:   t0,
	}
	r.c = New(expander.New(bus), r.flags, board.Default(), logic.DefaultBlinkPeriod)

	events := r.c.Init(r.now)
	if len(events) != 1 || events[0].Type != logic.EventStart {
		t.Fatalf("Init: expected a START event, got %+v", events)
	}
	return r
}

// tick advances the clock by d and runs one tick with the given flags.
func (r *rig) tick(d time.Duration, a, b bool) []logic.Event {
	r.now = r.now.Add(d)
	r.flags.Samples = []gpio.Sample{{A: a, B: b}}
	r.flags.Reset()
	return r.c.Tick(r.now)
}

// pressToken holds exactly one token button down.
func (r *rig) pressToken(token int) {
	r.btnA.Level = expander.AllReleased
	r.btnA.Press(uint8(token))
}

// play presses token, ticks with flag A asserted, and releases it again.
func (r *rig) play(t *testing.T, token int) []logic.Event {
	t.Helper()
	r.pressToken(token)
	events := r.tick(3*time.Millisecond, true, false)
	r.btnA.Level = expander.AllReleased
	r.tick(3*time.Millisecond, true, false)
	return events
}

func eventTypes(events []logic.Event) []logic.EventType {
	var out []logic.EventType
	for _, e := range events {
		out = append(out, e.Type)
	}
	return out
}

func TestInitConfiguresHardware(t *testing.T) {
	r := newRig(t)

	if r.btnA.Latch != 0xFFFF || r.btnB.Latch != 0xFFFF {
		t.Errorf("button expanders not set to inputs: 0x%04X 0x%04X", r.btnA.Latch, r.btnB.Latch)
	}
	if n := r.bus.ReadCount(board.ButtonExpA); n != 1 {
		t.Errorf("expected 1 priming read of A, got %d", n)
	}
	if n := r.bus.ReadCount(board.ButtonExpB); n != 1 {
		t.Errorf("expected 1 priming read of B, got %d", n)
	}

	wantA := []uint16{0x0000, 0xFFFF}
	if got := r.bus.Writes(board.LEDExpA); !equalWords(got, wantA) {
		t.Errorf("token leds: got %04X, want %04X", got, wantA)
	}
	wantB := []uint16{0x0000, 0x0001}
	if got := r.bus.Writes(board.LEDExpB); !equalWords(got, wantB) {
		t.Errorf("turn leds: got %04X, want %04X", got, wantB)
	}

	s := r.c.State()
	if !s.Active || s.Player != 0 || s.AliveCount() != 16 {
		t.Errorf("unexpected state after init: %+v", s)
	}
}

func TestPrimeSeesHeldButtonAsAlreadyPressed(t *testing.T) {
	bus := expander.NewFakeBus()
	btnA := bus.Add(board.ButtonExpA)
	bus.Add(board.ButtonExpB)
	bus.Add(board.LEDExpA)
	bus.Add(board.LEDExpB)
	btnA.Press(2)

	flags := gpio.NewFakeReader([]gpio.Sample{{A: true, B: false}})
	c := New(expander.New(bus), flags, board.Default(), logic.DefaultBlinkPeriod)
	c.Init(t0)

	if events := c.Tick(t0.Add(3 * time.Millisecond)); len(events) != 0 {
		t.Errorf("held button at startup should not move, got %v", eventTypes(events))
	}
}

func TestNoReadWithoutFlag(t *testing.T) {
	r := newRig(t)
	r.bus.Reset()

	r.pressToken(6)
	events := r.tick(3*time.Millisecond, false, false)

	if len(events) != 0 {
		t.Errorf("expected no events, got %v", eventTypes(events))
	}
	if n := r.bus.ReadCount(board.ButtonExpA); n != 0 {
		t.Errorf("expected no read of A without flag, got %d", n)
	}

	// The press shows up once the flag is asserted.
	events = r.tick(3*time.Millisecond, true, false)
	if len(events) != 2 || events[0].Token != 6 {
		t.Errorf("expected move on token 6, got %+v", events)
	}
}

func TestFlagGatesEachExpanderIndependently(t *testing.T) {
	r := newRig(t)
	r.bus.Reset()

	r.tick(3*time.Millisecond, false, true)
	if n := r.bus.ReadCount(board.ButtonExpA); n != 0 {
		t.Errorf("A read without its flag: %d", n)
	}
	if n := r.bus.ReadCount(board.ButtonExpB); n != 1 {
		t.Errorf("B reads: got %d, want 1", n)
	}
}

func TestMoveUpdatesLEDs(t *testing.T) {
	r := newRig(t)

	events := r.play(t, 6)
	if got := eventTypes(events); len(got) != 2 || got[0] != logic.EventMove || got[1] != logic.EventTurn {
		t.Fatalf("expected MOVE, TURN; got %v", got)
	}

	if r.ledA.Latch != 0xFE3F {
		t.Errorf("token leds: got 0x%04X, want 0xFE3F", r.ledA.Latch)
	}
	if r.ledB.Latch != 0x0002 {
		t.Errorf("turn leds: got 0x%04X, want 0x0002", r.ledB.Latch)
	}
}

func TestHeldButtonFiresOnce(t *testing.T) {
	r := newRig(t)

	r.pressToken(9)
	first := r.tick(3*time.Millisecond, true, false)
	if len(first) == 0 {
		t.Fatal("expected a move on first press")
	}

	for i := 0; i < 5; i++ {
		if events := r.tick(3*time.Millisecond, true, false); len(events) != 0 {
			t.Errorf("tick %d: held button fired again: %v", i, eventTypes(events))
		}
	}
}

func TestStartTakesPriorityOverMove(t *testing.T) {
	r := newRig(t)
	r.play(t, 12)

	r.pressToken(1)
	r.btnB.Press(board.StartButtonBit)
	events := r.tick(3*time.Millisecond, true, true)

	if got := eventTypes(events); len(got) != 1 || got[0] != logic.EventStart {
		t.Fatalf("expected only START, got %v", got)
	}
	s := r.c.State()
	if s.AliveCount() != 16 || s.Player != 0 {
		t.Errorf("start did not reset the game: %+v", s)
	}
}

func TestLowestTokenWinsTie(t *testing.T) {
	r := newRig(t)

	r.btnA.Press(9)
	r.btnA.Press(4)
	events := r.tick(3*time.Millisecond, true, false)

	if len(events) == 0 || events[0].Token != 4 {
		t.Fatalf("expected move on token 4, got %+v", events)
	}
	s := r.c.State()
	for i := 4; i <= 8; i++ {
		if s.Alive[i] {
			t.Errorf("token %d should be gone", i)
		}
	}
	if !s.Alive[9] {
		t.Error("token 9 should still be alive")
	}
}

func TestShortReadReportsNoEdges(t *testing.T) {
	r := newRig(t)

	r.pressToken(3)
	r.btnA.ReadLen = 1
	events := r.tick(3*time.Millisecond, true, false)
	if len(events) != 0 {
		t.Fatalf("short read produced events: %v", eventTypes(events))
	}
	if snap := r.c.Buttons(); snap[0] != expander.AllReleased {
		t.Errorf("snapshot after short read: got 0x%04X, want sentinel", snap[0])
	}

	// Device answers again; the still-held button is now a fresh press.
	r.btnA.ReadLen = 0
	events = r.tick(3*time.Millisecond, true, false)
	if len(events) == 0 || events[0].Token != 3 {
		t.Errorf("expected move on token 3 after recovery, got %+v", events)
	}
}

func TestFailedReadKeepsOtherSnapshot(t *testing.T) {
	r := newRig(t)

	r.btnB.Fail = errors.New("nack")
	r.pressToken(0)
	events := r.tick(3*time.Millisecond, true, true)

	if len(events) == 0 || events[0].Token != 0 {
		t.Fatalf("expected move on token 0, got %+v", events)
	}
	snap := r.c.Buttons()
	if snap[0] != 0xFFFE {
		t.Errorf("A snapshot: got 0x%04X, want 0xFFFE", snap[0])
	}
	if snap[1] != expander.AllReleased {
		t.Errorf("B snapshot: got 0x%04X, want sentinel", snap[1])
	}
}

func TestFlagReadErrorSkipsSampling(t *testing.T) {
	r := newRig(t)
	r.bus.Reset()

	r.pressToken(5)
	r.flags.ReadError = errors.New("line gone")
	r.now = r.now.Add(3 * time.Millisecond)
	if events := r.c.Tick(r.now); len(events) != 0 {
		t.Errorf("expected no events, got %v", eventTypes(events))
	}
	if n := r.bus.ReadCount(board.ButtonExpA); n != 0 {
		t.Errorf("expected no bus reads, got %d", n)
	}

	r.flags.ReadError = nil
	if events := r.tick(3*time.Millisecond, true, false); len(events) == 0 {
		t.Error("expected the press once flags are readable again")
	}
}

func TestIdleTicksDoNotWrite(t *testing.T) {
	r := newRig(t)
	r.bus.Reset()

	for i := 0; i < 20; i++ {
		r.tick(3*time.Millisecond, false, false)
	}
	if w := r.bus.Writes(board.LEDExpA); len(w) != 0 {
		t.Errorf("token leds rewritten while idle: %04X", w)
	}
	if w := r.bus.Writes(board.LEDExpB); len(w) != 0 {
		t.Errorf("turn leds rewritten while idle: %04X", w)
	}
}

func TestWinAndBlink(t *testing.T) {
	r := newRig(t)

	r.play(t, 0)    // P1
	r.play(t, 1)    // P2
	r.play(t, 4)    // P1
	r.pressToken(9) // P2 takes the last row
	events := r.tick(3*time.Millisecond, true, false)

	if got := eventTypes(events); len(got) != 2 || got[1] != logic.EventWin {
		t.Fatalf("expected MOVE, WIN; got %v", got)
	}
	if events[1].Player != 1 {
		t.Errorf("winner: got player %d, want 1", events[1].Player)
	}
	if r.ledA.Latch != 0x0000 {
		t.Errorf("token leds: got 0x%04X, want 0", r.ledA.Latch)
	}
	if r.ledB.Latch != 0x0002 {
		t.Errorf("winner led should start on: got 0x%04X", r.ledB.Latch)
	}

	winAt := r.now
	r.bus.Reset()

	// Not yet due.
	r.now = winAt
	r.tick(699*time.Millisecond, false, false)
	if w := r.bus.Writes(board.LEDExpB); len(w) != 0 {
		t.Errorf("blink toggled early: %04X", w)
	}

	r.now = winAt
	r.tick(700*time.Millisecond, false, false)
	if r.ledB.Latch != 0x0000 {
		t.Errorf("winner led should be off: got 0x%04X", r.ledB.Latch)
	}

	r.tick(700*time.Millisecond, false, false)
	if r.ledB.Latch != 0x0002 {
		t.Errorf("winner led should be on again: got 0x%04X", r.ledB.Latch)
	}

	if w := r.bus.Writes(board.LEDExpB); len(w) != 2 {
		t.Errorf("expected 2 blink writes, got %04X", w)
	}
	if w := r.bus.Writes(board.LEDExpA); len(w) != 0 {
		t.Errorf("token leds rewritten during blink: %04X", w)
	}

	// Moves are ignored until START.
	r.btnA.Level = expander.AllReleased
	r.tick(3*time.Millisecond, true, false)
	r.pressToken(2)
	if events := r.tick(3*time.Millisecond, true, false); len(events) != 0 {
		t.Errorf("move after game over: %v", eventTypes(events))
	}

	r.btnB.Press(board.StartButtonBit)
	events = r.tick(3*time.Millisecond, false, true)
	if got := eventTypes(events); len(got) != 1 || got[0] != logic.EventStart {
		t.Fatalf("expected START, got %v", got)
	}
	if r.ledA.Latch != 0xFFFF || r.ledB.Latch != 0x0001 {
		t.Errorf("leds after restart: 0x%04X 0x%04X", r.ledA.Latch, r.ledB.Latch)
	}
}

func TestTransitionForcesWrite(t *testing.T) {
	r := newRig(t)

	// Restart from a fresh game: the computed words are identical to the
	// cached ones, but a transition still writes them.
	r.bus.Reset()
	r.btnB.Press(board.StartButtonBit)
	r.tick(3*time.Millisecond, false, true)

	if w := r.bus.Writes(board.LEDExpA); len(w) != 1 || w[0] != 0xFFFF {
		t.Errorf("token leds: got %04X, want [FFFF]", w)
	}
	if w := r.bus.Writes(board.LEDExpB); len(w) != 1 || w[0] != 0x0001 {
		t.Errorf("turn leds: got %04X, want [0001]", w)
	}
}

func TestLEDWriteFailureRetries(t *testing.T) {
	r := newRig(t)

	r.ledA.Fail = errors.New("nack")
	r.play(t, 9)
	if r.ledA.Latch != 0xFFFF {
		t.Fatalf("latch changed despite failure: 0x%04X", r.ledA.Latch)
	}
	if last, _ := r.c.renderer.Last(board.LEDExpA); last != 0xFFFF {
		t.Errorf("cache updated despite failure: 0x%04X", last)
	}

	r.ledA.Fail = nil
	r.tick(3*time.Millisecond, false, false)
	if r.ledA.Latch != 0x01FF {
		t.Errorf("retry did not land: got 0x%04X, want 0x01FF", r.ledA.Latch)
	}

	r.bus.Reset()
	r.tick(3*time.Millisecond, false, false)
	if w := r.bus.Writes(board.LEDExpA); len(w) != 0 {
		t.Errorf("unexpected rewrite after recovery: %04X", w)
	}

	if s := r.c.BusStats(); s.WriteFailures == 0 {
		t.Error("expected write failures to be counted")
	}
}

func equalWords(a, b []uint16) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
