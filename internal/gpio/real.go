//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealReader reads the flag lines from actual hardware using Linux GPIO character device.
type RealReader struct {
	chip *gpiocdev.Chip
	intA *gpiocdev.Line
	intB *gpiocdev.Line
}

// NewRealReader requests pinA and pinB on the named chip (e.g. "gpiochip0").
func NewRealReader(chip string, pinA, pinB int) (*RealReader, error) {
	c, err := gpiocdev.NewChip(chip)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	// The expander INT outputs are open-drain, so the host supplies the pull-up.
	a, err := c.RequestLine(pinA, gpiocdev.AsInput, gpiocdev.WithPullUp)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("request INT A pin %d: %w", pinA, err)
	}

	b, err := c.RequestLine(pinB, gpiocdev.AsInput, gpiocdev.WithPullUp)
	if err != nil {
		a.Close()
		c.Close()
		return nil, fmt.Errorf("request INT B pin %d: %w", pinB, err)
	}

	return &RealReader{
		chip: c,
		intA: a,
		intB: b,
	}, nil
}

// Read returns whether each flag is asserted.
// Inverts raw GPIO: raw low (0) = asserted.
func (r *RealReader) Read() (bool, bool, error) {
	aRaw, err := r.intA.Value()
	if err != nil {
		return false, false, fmt.Errorf("read INT A pin: %w", err)
	}

	bRaw, err := r.intB.Value()
	if err != nil {
		return false, false, fmt.Errorf("read INT B pin: %w", err)
	}

	return aRaw == 0, bRaw == 0, nil
}

// Close releases GPIO resources.
// Lines are returned to plain inputs with pull-down (Pi boot defaults)
// before closing.
func (r *RealReader) Close() error {
	var errs []error

	if r.intA != nil {
		if err := r.intA.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure INT A pin: %w", err))
		}
		if err := r.intA.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close INT A pin: %w", err))
		}
	}
	if r.intB != nil {
		if err := r.intB.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure INT B pin: %w", err))
		}
		if err := r.intB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close INT B pin: %w", err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
