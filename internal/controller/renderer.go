package controller

import (
	"log"

	"github.com/sweeney/nim-box/internal/expander"
	"github.com/sweeney/nim-box/internal/logic"
)

// Renderer writes LED frames, skipping ports whose word has not changed
// since the last successful write.
type Renderer struct {
	transport *expander.Transport
	last      map[uint8]uint16
	failing   map[uint8]bool
}

// NewRenderer creates a renderer with an empty cache, so the first frame
// is written in full.
func NewRenderer(transport *expander.Transport) *Renderer {
	return &Renderer{
		transport: transport,
		last:      make(map[uint8]uint16),
		failing:   make(map[uint8]bool),
	}
}

// Seed records value as already present on the device at addr.
func (r *Renderer) Seed(addr uint8, value uint16) {
	r.last[addr] = value
}

// Render writes every word in frame that differs from the cache, or every
// word when force is set. A failed write leaves the cache alone so the next
// call retries. It returns the number of writes attempted.
func (r *Renderer) Render(frame []logic.PortWord, force bool) int {
	writes := 0
	for _, w := range frame {
		if prev, ok := r.last[w.Addr]; ok && prev == w.Value && !force {
			continue
		}
		writes++
		if err := r.transport.WritePorts(w.Addr, w.Value); err != nil {
			// Log once per failure streak; the write is retried every tick.
			if !r.failing[w.Addr] {
				log.Printf("led write error: %v", err)
				r.failing[w.Addr] = true
			}
			continue
		}
		if r.failing[w.Addr] {
			log.Printf("led 0x%02X: writes recovered", w.Addr)
			delete(r.failing, w.Addr)
		}
		r.last[w.Addr] = w.Value
	}
	return writes
}

// Last returns the last word successfully written to addr.
func (r *Renderer) Last(addr uint8) (uint16, bool) {
	v, ok := r.last[addr]
	return v, ok
}
