package logic

import "time"

// DefaultBlinkPeriod is the winner indicator toggle period.
const DefaultBlinkPeriod = 700 * time.Millisecond

// Blink is the periodic on/off phase of the winner indicator.
type Blink struct {
	period time.Duration
	last   time.Time
	on     bool
}

// NewBlink creates a blink timer with the given toggle period.
func NewBlink(period time.Duration) Blink {
	return Blink{period: period, on: true}
}

// Reset sets the phase to on and restarts the period at now.
func (b *Blink) Reset(now time.Time) {
	b.last = now
	b.on = true
}

// Advance toggles the phase if a full period has passed since the last
// toggle. It reports whether the phase changed.
func (b *Blink) Advance(now time.Time) bool {
	if now.Sub(b.last) < b.period {
		return false
	}
	b.last = now
	b.on = !b.on
	return true
}

// On reports the current phase.
func (b *Blink) On() bool {
	return b.on
}
