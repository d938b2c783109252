package gpio

import "errors"

// Line is a simulated open-drain INT output.
type Line interface {
	// Pending reports whether the line is pulled low.
	Pending() bool
}

// Sample is one scripted reading of both flags, already in logical form.
type Sample struct {
	A bool // true = asserted
	B bool // true = asserted
}

// FakeReader is a test double for the two flag lines. It either replays
// scripted samples or, when built with NewWiredReader, follows simulated
// expander INT outputs.
type FakeReader struct {
	// Samples are replayed one per Read. The last one repeats.
	Samples []Sample
	index   int

	// Lines, when both are set, take precedence over Samples.
	Lines [2]Line

	// ReadError, if set, is returned by Read.
	ReadError error

	// Reads counts calls to Read, including failed ones.
	Reads int

	Closed bool
}

// NewFakeReader creates a FakeReader that replays samples.
func NewFakeReader(samples []Sample) *FakeReader {
	return &FakeReader{Samples: samples}
}

// NewWiredReader creates a FakeReader whose flags follow a and b. A line
// stays asserted until its device is read.
func NewWiredReader(a, b Line) *FakeReader {
	return &FakeReader{Lines: [2]Line{a, b}}
}

// Read returns the current flag levels.
func (f *FakeReader) Read() (bool, bool, error) {
	f.Reads++
	if f.ReadError != nil {
		return false, false, f.ReadError
	}

	if f.Lines[0] != nil && f.Lines[1] != nil {
		return f.Lines[0].Pending(), f.Lines[1].Pending(), nil
	}

	if len(f.Samples) == 0 {
		return false, false, errors.New("gpio: no samples or lines configured")
	}
	s := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}
	return s.A, s.B, nil
}

// Close marks the reader as closed.
func (f *FakeReader) Close() error {
	f.Closed = true
	return nil
}

// Reset rewinds the scripted samples.
func (f *FakeReader) Reset() {
	f.index = 0
	f.Closed = false
}
