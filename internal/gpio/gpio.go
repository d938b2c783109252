// Package gpio reads the expander change-flag lines with hardware abstraction.
// The real implementation uses Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// Reader reads the two change-flag lines.
type Reader interface {
	// Read returns whether flag A and flag B are asserted.
	// The lines are open-drain and active-low: raw 0 = asserted.
	// Returns (aAsserted, bAsserted, error).
	Read() (bool, bool, error)

	// Close releases GPIO resources.
	Close() error
}

// Default pin definitions (BCM numbering)
const (
	DefaultPinIntA = 17 // token button expander INT
	DefaultPinIntB = 27 // start button expander INT
)

// PollReader reports both flags as always asserted. It is used when the
// expander INT outputs are not wired, so every tick reads both devices.
type PollReader struct{}

// Read always returns (true, true, nil).
func (PollReader) Read() (bool, bool, error) {
	return true, true, nil
}

// Close is a no-op.
func (PollReader) Close() error {
	return nil
}
