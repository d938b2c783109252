// Package status provides a thread-safe status tracker for the nim-box daemon.
// The control loop writes it once per tick; HTTP handlers read it.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/nim-box/internal/board"
	"github.com/sweeney/nim-box/internal/expander"
	"github.com/sweeney/nim-box/internal/logic"
)

// NetworkInfo contains network state. This is a local copy to avoid
// importing internal/mqtt from status.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	TickMs      int64
	BlinkMs     int64
	HeartbeatMs int64
	I2CBus      string
	Broker      string
	HTTPPort    string
	WSBroker    string // Websocket broker URL for browser MQTT (empty = disabled)
	Rows        []board.Row
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type and safe to use after the lock is released.
type Snapshot struct {
	Game          logic.State
	Ready         bool
	Counts        logic.EventCounts
	Buttons       [2]uint16
	Bus           expander.Stats
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Board returns the alive flags grouped by row, using the configured layout.
func (s Snapshot) Board() [][]bool {
	rows := make([][]bool, 0, len(s.Config.Rows))
	for _, r := range s.Config.Rows {
		row := make([]bool, 0, r.Len())
		for i := r.Start; i <= r.End; i++ {
			row = append(row, i < len(s.Game.Alive) && s.Game.Alive[i])
		}
		rows = append(rows, row)
	}
	return rows
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu      sync.RWMutex
	snap    Snapshot
	version uint64
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
			Game:      logic.State{Winner: logic.NoWinner},
		},
	}
}

// Update sets the game state, counters and bus view.
// Called from runLoop on every tick.
func (t *Tracker) Update(game logic.State, counts logic.EventCounts, buttons [2]uint16, bus expander.Stats) {
	game.Alive = append([]bool(nil), game.Alive...)
	t.mu.Lock()
	if !t.snap.Ready || counts != t.snap.Counts || !sameGame(game, t.snap.Game) {
		t.version++
	}
	t.snap.Game = game
	t.snap.Ready = true
	t.snap.Counts = counts
	t.snap.Buttons = buttons
	t.snap.Bus = bus
	t.mu.Unlock()
}

// Version returns a counter that increases whenever Update sees a new game
// state or new counts.
func (t *Tracker) Version() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.version
}

func sameGame(a, b logic.State) bool {
	if a.Active != b.Active || a.Player != b.Player || a.Winner != b.Winner || a.BlinkOn != b.BlinkOn {
		return false
	}
	if len(a.Alive) != len(b.Alive) {
		return false
	}
	for i := range a.Alive {
		if a.Alive[i] != b.Alive[i] {
			return false
		}
	}
	return true
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	s.Game.Alive = append([]bool(nil), t.snap.Game.Alive...)
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
