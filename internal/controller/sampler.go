package controller

import (
	"github.com/sweeney/nim-box/internal/expander"
	"github.com/sweeney/nim-box/internal/gpio"
	"github.com/sweeney/nim-box/internal/logic"
)

// Sampler turns button expander snapshots into press edges. A device is
// only read when its change flag is asserted.
type Sampler struct {
	transport *expander.Transport
	flags     gpio.Reader
	addrs     [2]uint8
	snap      [2]uint16
}

// NewSampler creates a sampler for two button expanders. addrs[0] is gated
// by flag A and addrs[1] by flag B. Snapshots start released.
func NewSampler(transport *expander.Transport, flags gpio.Reader, addrs [2]uint8) *Sampler {
	return &Sampler{
		transport: transport,
		flags:     flags,
		addrs:     addrs,
		snap:      [2]uint16{expander.AllReleased, expander.AllReleased},
	}
}

// Prime reads both expanders unconditionally. Reading also clears any
// change flag the devices latched before startup.
func (s *Sampler) Prime() {
	for i, addr := range s.addrs {
		s.snap[i] = s.transport.ReadPorts(addr)
	}
}

// Sample reads each flagged expander and returns the press edges per
// expander, in addrs order. If the flag lines cannot be read, nothing is
// sampled and the error is returned.
func (s *Sampler) Sample() ([2]uint16, error) {
	var edges [2]uint16

	a, b, err := s.flags.Read()
	if err != nil {
		return edges, err
	}

	for i, asserted := range [2]bool{a, b} {
		if !asserted {
			continue
		}
		next := s.transport.ReadPorts(s.addrs[i])
		edges[i] = logic.PressEdges(s.snap[i], next)
		s.snap[i] = next
	}
	return edges, nil
}

// Snapshot returns the last read levels, in addrs order.
func (s *Sampler) Snapshot() [2]uint16 {
	return s.snap
}
