// Package controller runs one tick of the Nim box: sample the buttons,
// dispatch at most one game action, advance the winner blink and refresh
// the LEDs. It owns all mutable state and is driven from a single
// goroutine.
package controller

import (
	"log"
	"time"

	"github.com/sweeney/nim-box/internal/board"
	"github.com/sweeney/nim-box/internal/expander"
	"github.com/sweeney/nim-box/internal/gpio"
	"github.com/sweeney/nim-box/internal/logic"
)

// Controller ties the sampler, game and renderer to one bus.
type Controller struct {
	layout    *board.Layout
	transport *expander.Transport
	sampler   *Sampler
	game      *logic.Game
	renderer  *Renderer
	flagErr   bool
}

// New creates a controller. Button and LED expanders share transport.
func New(transport *expander.Transport, flags gpio.Reader, layout *board.Layout, blinkPeriod time.Duration) *Controller {
	btn := layout.ButtonAddrs()
	return &Controller{
		layout:    layout,
		transport: transport,
		sampler:   NewSampler(transport, flags, [2]uint8{btn[0], btn[1]}),
		game:      logic.NewGame(layout, blinkPeriod),
		renderer:  NewRenderer(transport),
	}
}

// Init brings the hardware to a known state and starts the first game:
// button expanders become pulled-up inputs, their snapshots are primed,
// LEDs are switched off, then a game starts. Bus errors are logged only.
func (c *Controller) Init(now time.Time) []logic.Event {
	for _, addr := range c.layout.ButtonAddrs() {
		if err := c.transport.WritePorts(addr, expander.AllReleased); err != nil {
			log.Printf("configure buttons: %v", err)
		}
	}
	c.sampler.Prime()

	for _, addr := range c.layout.LEDAddrs() {
		if err := c.transport.WritePorts(addr, 0x0000); err != nil {
			log.Printf("clear leds: %v", err)
			continue
		}
		c.renderer.Seed(addr, 0x0000)
	}

	start := c.game.Start(now)
	c.render(true)
	return []logic.Event{start}
}

// Tick runs one scheduler step at now and returns the game events it
// produced, if any.
func (c *Controller) Tick(now time.Time) []logic.Event {
	edges, err := c.sampler.Sample()
	if err != nil {
		if !c.flagErr {
			log.Printf("gpio read error: %v", err)
			c.flagErr = true
		}
	} else if c.flagErr {
		log.Printf("gpio read recovered")
		c.flagErr = false
	}

	events := c.dispatch(edges, now)
	c.game.AdvanceBlink(now)

	// A game transition forces a full write so the LEDs are known to
	// match even when a word happens to repeat.
	c.render(len(events) > 0)
	return events
}

// dispatch handles at most one press. Start wins over moves; otherwise the
// lowest pressed token is played, valid or not.
func (c *Controller) dispatch(edges [2]uint16, now time.Time) []logic.Event {
	if c.pressed(edges, c.layout.StartButton()) {
		return []logic.Event{c.game.Start(now)}
	}

	if !c.game.Active() {
		return nil
	}

	for i := 0; i < c.layout.Tokens(); i++ {
		if c.pressed(edges, c.layout.TokenButton(i)) {
			return c.game.Move(i, now)
		}
	}
	return nil
}

func (c *Controller) pressed(edges [2]uint16, p board.Pin) bool {
	for i, addr := range c.sampler.addrs {
		if addr == p.Addr {
			return edges[i]&p.Mask() != 0
		}
	}
	return false
}

func (c *Controller) render(force bool) {
	c.renderer.Render(logic.Frame(c.game.State(), c.layout), force)
}

// State returns a copy of the game state.
func (c *Controller) State() logic.State {
	return c.game.State()
}

// Counts returns game activity counters.
func (c *Controller) Counts() logic.EventCounts {
	return c.game.Counts()
}

// BusStats returns the bus transaction counters.
func (c *Controller) BusStats() expander.Stats {
	return c.transport.Stats()
}

// Buttons returns the last sampled button expander levels.
func (c *Controller) Buttons() [2]uint16 {
	return c.sampler.Snapshot()
}

// Layout returns the board layout.
func (c *Controller) Layout() *board.Layout {
	return c.layout
}
