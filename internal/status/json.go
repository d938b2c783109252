package status

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/sweeney/nim-box/internal/logic"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	Ready         bool         `json:"ready"`
	Game          GameJSON     `json:"game"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Counts        CountsJSON   `json:"event_counts"`
	Bus           BusJSON      `json:"bus"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// GameJSON is the JSON representation of the board. Players are numbered
// from 1; 0 means none.
type GameJSON struct {
	Phase  string   `json:"phase"`
	Player int      `json:"player"`
	Winner int      `json:"winner"`
	Alive  int      `json:"alive"`
	Rows   [][]bool `json:"rows"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	Games  int `json:"games"`
	Moves  int `json:"moves"`
	WinsP1 int `json:"wins_p1"`
	WinsP2 int `json:"wins_p2"`
}

// BusJSON reports button levels and bus error counters.
type BusJSON struct {
	ButtonsA      string `json:"buttons_a"`
	ButtonsB      string `json:"buttons_b"`
	Reads         int    `json:"reads"`
	Writes        int    `json:"writes"`
	ReadFailures  int    `json:"read_failures"`
	WriteFailures int    `json:"write_failures"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	TickMs      int64  `json:"tick_ms"`
	BlinkMs     int64  `json:"blink_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	I2CBus      string `json:"i2c_bus"`
	Broker      string `json:"broker"`
	HTTPPort    string `json:"http_port"`
	WSBroker    string `json:"ws_broker,omitempty"`
	RowLengths  []int  `json:"row_lengths"`
}

func buildGame(snap Snapshot) GameJSON {
	g := snap.Game
	out := GameJSON{
		Phase: string(g.Phase()),
		Alive: g.AliveCount(),
		Rows:  snap.Board(),
	}
	if !snap.Ready {
		out.Phase = "UNKNOWN"
	}
	if g.Active {
		out.Player = g.Player + 1
	}
	if g.Winner != logic.NoWinner {
		out.Winner = g.Winner + 1
	}
	return out
}

func buildInner(snap Snapshot) StatusInner {
	rowLengths := make([]int, 0, len(snap.Config.Rows))
	for _, r := range snap.Config.Rows {
		rowLengths = append(rowLengths, r.Len())
	}

	return StatusInner{
		Ready:         snap.Ready,
		Game:          buildGame(snap),
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Games:  snap.Counts.Games,
			Moves:  snap.Counts.Moves,
			WinsP1: snap.Counts.Wins[0],
			WinsP2: snap.Counts.Wins[1],
		},
		Bus: BusJSON{
			ButtonsA:      fmt.Sprintf("0x%04X", snap.Buttons[0]),
			ButtonsB:      fmt.Sprintf("0x%04X", snap.Buttons[1]),
			Reads:         snap.Bus.Reads,
			Writes:        snap.Bus.Writes,
			ReadFailures:  snap.Bus.ReadFailures,
			WriteFailures: snap.Bus.WriteFailures,
		},
		Config: ConfigJSON{
			TickMs:      snap.Config.TickMs,
			BlinkMs:     snap.Config.BlinkMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			I2CBus:      snap.Config.I2CBus,
			Broker:      snap.Config.Broker,
			HTTPPort:    snap.Config.HTTPPort,
			WSBroker:    snap.Config.WSBroker,
			RowLengths:  rowLengths,
		},
	}
}

func buildNetwork(snap Snapshot, inner *StatusInner) {
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)
	buildNetwork(snap, &inner)

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	buildNetwork(snap, &inner)

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
