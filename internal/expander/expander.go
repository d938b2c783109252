// Package expander speaks the 16-line port-expander protocol: a write is two
// bytes (low, high) that set all output latches, a read is two bytes (low,
// high) of the current line levels. The device has no registers.
package expander

import (
	"errors"
	"fmt"
)

// AllReleased is returned by ReadPorts when the device did not answer.
// With pull-up wiring it reads as "no button pressed".
const AllReleased uint16 = 0xFFFF

// ErrShortRead is returned by a Bus when the device sent fewer bytes than
// requested.
var ErrShortRead = errors.New("expander: short read")

// Bus performs one I2C transaction: write w, then read len(r) bytes.
// Either slice may be empty. It matches periph.io's i2c.Bus.
type Bus interface {
	Tx(addr uint16, w, r []byte) error
}

// Stats counts bus transactions since startup.
type Stats struct {
	Reads         int
	Writes        int
	ReadFailures  int
	WriteFailures int
}

// Transport reads and writes whole 16-bit ports.
// Not safe for concurrent use.
type Transport struct {
	bus   Bus
	stats Stats
}

// New creates a Transport on bus.
func New(bus Bus) *Transport {
	return &Transport{bus: bus}
}

// WritePorts sets all 16 lines of the device at addr. On error the device
// state is unknown and callers should keep their previous cached value.
func (t *Transport) WritePorts(addr uint8, value uint16) error {
	t.stats.Writes++
	buf := [2]byte{byte(value & 0xFF), byte(value >> 8)}
	if err := t.bus.Tx(uint16(addr), buf[:], nil); err != nil {
		t.stats.WriteFailures++
		return fmt.Errorf("write 0x%02X: %w", addr, err)
	}
	return nil
}

// ReadPorts returns the levels of all 16 lines of the device at addr.
// Any failure, including a short read, yields AllReleased.
func (t *Transport) ReadPorts(addr uint8) uint16 {
	t.stats.Reads++
	var buf [2]byte
	if err := t.bus.Tx(uint16(addr), nil, buf[:]); err != nil {
		t.stats.ReadFailures++
		return AllReleased
	}
	return uint16(buf[0]) | uint16(buf[1])<<8
}

// Stats returns the transaction counters.
func (t *Transport) Stats() Stats {
	return t.stats
}
