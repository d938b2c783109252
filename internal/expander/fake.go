package expander

import (
	"errors"
	"fmt"
)

// ErrNoDevice is returned by FakeBus for an address with no device (NACK).
var ErrNoDevice = errors.New("expander: no device at address")

// FakeDevice is one simulated expander on a FakeBus.
type FakeDevice struct {
	// Level is what a read returns. Buttons pull their bit low.
	Level uint16

	// Latch is the last value written.
	Latch uint16

	// Fail, if set, is returned for every transaction.
	Fail error

	// ReadLen limits how many bytes a read returns. Zero means all.
	ReadLen int

	// last is the level returned by the last complete read.
	last uint16
}

// Pending reports whether the device's INT output is asserted: the inputs
// differ from what was last read. A complete read clears it.
func (d *FakeDevice) Pending() bool {
	return d.Level != d.last
}

// Press pulls the line for bit low.
func (d *FakeDevice) Press(bit uint8) {
	d.Level &^= 1 << bit
}

// Release lets the line for bit float high.
func (d *FakeDevice) Release(bit uint8) {
	d.Level |= 1 << bit
}

// FakeTx records one transaction seen by a FakeBus.
type FakeTx struct {
	Addr  uint16
	Write []byte
	Read  int
}

// FakeBus is a test double that routes transactions to simulated devices.
type FakeBus struct {
	Devices map[uint16]*FakeDevice

	// Log contains every transaction in order, including failed ones.
	Log []FakeTx
}

// NewFakeBus creates an empty bus.
func NewFakeBus() *FakeBus {
	return &FakeBus{Devices: make(map[uint16]*FakeDevice)}
}

// Add attaches a device at addr with every line released.
func (b *FakeBus) Add(addr uint8) *FakeDevice {
	d := &FakeDevice{Level: AllReleased, last: AllReleased}
	b.Devices[uint16(addr)] = d
	return d
}

// Device returns the device at addr, or nil.
func (b *FakeBus) Device(addr uint8) *FakeDevice {
	return b.Devices[uint16(addr)]
}

// Tx implements Bus.
func (b *FakeBus) Tx(addr uint16, w, r []byte) error {
	b.Log = append(b.Log, FakeTx{Addr: addr, Write: append([]byte(nil), w...), Read: len(r)})

	d, ok := b.Devices[addr]
	if !ok {
		return fmt.Errorf("addr 0x%02X: %w", addr, ErrNoDevice)
	}
	if d.Fail != nil {
		return d.Fail
	}

	if len(w) >= 2 {
		d.Latch = uint16(w[0]) | uint16(w[1])<<8
	}

	if len(r) > 0 {
		data := [2]byte{byte(d.Level & 0xFF), byte(d.Level >> 8)}
		n := copy(r, data[:])
		if d.ReadLen > 0 && d.ReadLen < n {
			n = d.ReadLen
		}
		if n < len(r) {
			return ErrShortRead
		}
		d.last = d.Level
	}
	return nil
}

// Writes returns the values written to addr, oldest first.
func (b *FakeBus) Writes(addr uint8) []uint16 {
	var out []uint16
	for _, tx := range b.Log {
		if tx.Addr == uint16(addr) && len(tx.Write) >= 2 {
			out = append(out, uint16(tx.Write[0])|uint16(tx.Write[1])<<8)
		}
	}
	return out
}

// ReadCount returns how many reads were attempted at addr.
func (b *FakeBus) ReadCount(addr uint8) int {
	n := 0
	for _, tx := range b.Log {
		if tx.Addr == uint16(addr) && tx.Read > 0 {
			n++
		}
	}
	return n
}

// Reset clears the transaction log.
func (b *FakeBus) Reset() {
	b.Log = nil
}
