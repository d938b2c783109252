package expander

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// PeriphBus is an I2C bus opened through periph.io host drivers.
type PeriphBus struct {
	bus i2c.BusCloser
}

// OpenPeriph initialises the periph host drivers and opens the named I2C
// bus. An empty name selects the first bus found.
func OpenPeriph(name string) (*PeriphBus, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init host drivers: %w", err)
	}

	bus, err := i2creg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open i2c bus %q: %w", name, err)
	}
	return &PeriphBus{bus: bus}, nil
}

// Tx performs one transaction on the bus.
func (p *PeriphBus) Tx(addr uint16, w, r []byte) error {
	return p.bus.Tx(addr, w, r)
}

// Close releases the bus.
func (p *PeriphBus) Close() error {
	if err := p.bus.Close(); err != nil {
		return fmt.Errorf("close i2c bus: %w", err)
	}
	return nil
}

func (p *PeriphBus) String() string {
	return p.bus.String()
}
