package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/nim-box/internal/logic"
	"github.com/sweeney/nim-box/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"hex16": func(v uint16) string {
		return fmt.Sprintf("0x%04X", v)
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Nim Box</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.board { text-align: center; margin: 1em 0; font-size: 1.6em; letter-spacing: 0.3em; }
.token.alive { color: #d90; }
.token.dead { color: #ccc; }
.on { color: green; font-weight: bold; }
.unknown { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
.live-dot { display: inline-block; width: 8px; height: 8px; border-radius: 50%; margin-left: 6px; vertical-align: middle; }
.live-dot.ok { background: green; }
.live-dot.err { background: red; }
.live-dot.pending { background: orange; }
</style>
</head>
<body>
<h1>Nim Box{{if .Config.WSBroker}}<span id="live-dot" class="live-dot pending" title="connecting"></span>{{end}}</h1>

<h2>Game</h2>
<div class="board">
{{range .Board}}<div>{{range .}}<span class="token {{if .}}alive{{else}}dead{{end}}">{{if .}}&#9679;{{else}}&#9675;{{end}}</span>{{end}}</div>
{{end}}</div>
<table>
<tr><th>Phase</th><td id="phase" class="{{if .Ready}}on{{else}}unknown{{end}}">{{.Phase}}</td></tr>
<tr><th>Turn</th><td id="turn">{{if .Game.Active}}Player {{.Player}}{{else}}-{{end}}</td></tr>
<tr><th>Winner</th><td id="winner">{{if .Winner}}Player {{.Winner}}{{else}}-{{end}}</td></tr>
<tr><th>Tokens left</th><td id="alive">{{.Game.AliveCount}}</td></tr>
<tr><th>Last event</th><td id="last-event">-</td></tr>
</table>

<h2>Event Counts</h2>
<table>
<tr><th>Games</th><td>{{.Counts.Games}}</td></tr>
<tr><th>Moves</th><td>{{.Counts.Moves}}</td></tr>
<tr><th>Player 1 wins</th><td>{{index .Counts.Wins 0}}</td></tr>
<tr><th>Player 2 wins</th><td>{{index .Counts.Wins 1}}</td></tr>
</table>

<h2>Bus</h2>
<table>
<tr><th>Buttons A</th><td>{{hex16 (index .Buttons 0)}}</td></tr>
<tr><th>Buttons B</th><td>{{hex16 (index .Buttons 1)}}</td></tr>
<tr><th>Reads</th><td>{{.Bus.Reads}} ({{.Bus.ReadFailures}} failed)</td></tr>
<tr><th>Writes</th><td>{{.Bus.Writes}} ({{.Bus.WriteFailures}} failed)</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{if .Config.Broker}}{{.Config.Broker}}{{else}}disabled{{end}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Tick</th><td>{{.Config.TickMs}}ms</td></tr>
<tr><th>Blink</th><td>{{.Config.BlinkMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>I2C bus</th><td>{{if .Config.I2CBus}}{{.Config.I2CBus}}{{else}}default{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPPort}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
<script>
(function() {
  if (!window.WebSocket) {
    return;
  }
  var proto = location.protocol === "https:" ? "wss://" : "ws://";
  var phaseEl = document.getElementById("phase");
  var turnEl = document.getElementById("turn");
  var winnerEl = document.getElementById("winner");
  var aliveEl = document.getElementById("alive");

  function apply(st) {
    var g = st.game;
    phaseEl.textContent = g.phase;
    phaseEl.className = st.ready ? "on" : "unknown";
    turnEl.textContent = g.phase === "IN_PROGRESS" ? "Player " + g.player : "-";
    winnerEl.textContent = g.winner ? "Player " + g.winner : "-";
    aliveEl.textContent = g.alive;
    var tokens = document.querySelectorAll(".token");
    var flat = [].concat.apply([], g.rows || []);
    for (var i = 0; i < tokens.length && i < flat.length; i++) {
      tokens[i].className = "token " + (flat[i] ? "alive" : "dead");
      tokens[i].innerHTML = flat[i] ? "&#9679;" : "&#9675;";
    }
  }

  function connect() {
    var ws = new WebSocket(proto + location.host + "/ws");
    ws.onmessage = function(ev) {
      try {
        apply(JSON.parse(ev.data).status);
      } catch (err) {}
    };
    ws.onclose = function() {
      setTimeout(connect, 5000);
    };
  }
  connect();
})();
</script>
{{if .Config.WSBroker}}
<script src="https://unpkg.com/mqtt@5/dist/mqtt.min.js"></script>
<script>
(function() {
  var broker = "{{.Config.WSBroker}}";
  var topic = "games/nim/box/events";
  var dot = document.getElementById("live-dot");
  var phaseEl = document.getElementById("phase");
  var turnEl = document.getElementById("turn");
  var winnerEl = document.getElementById("winner");
  var aliveEl = document.getElementById("alive");
  var lastEl = document.getElementById("last-event");

  function setDot(cls, title) {
    dot.className = "live-dot " + cls;
    dot.title = title;
  }

  var client = mqtt.connect(broker, { reconnectPeriod: 5000 });

  client.on("connect", function() {
    setDot("ok", "live");
    client.subscribe(topic);
  });

  client.on("reconnect", function() {
    setDot("pending", "reconnecting");
  });

  client.on("offline", function() {
    setDot("err", "offline");
  });

  client.on("error", function() {
    setDot("err", "error");
  });

  client.on("message", function(t, payload) {
    try {
      var msg = JSON.parse(payload.toString());
      if (!msg.nim) {
        return;
      }
      var e = msg.nim;
      lastEl.textContent = e.message;
      aliveEl.textContent = e.alive;
      if (e.event === "START") {
        phaseEl.textContent = "IN_PROGRESS";
        turnEl.textContent = "Player 1";
        winnerEl.textContent = "-";
      } else if (e.event === "TURN") {
        turnEl.textContent = "Player " + e.player;
      } else if (e.event === "WIN") {
        phaseEl.textContent = "OVER";
        turnEl.textContent = "-";
        winnerEl.textContent = "Player " + e.player;
      }
    } catch (err) {}
  });
})();
</script>
{{end}}
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Template needs plain fields for derived values.
	data := struct {
		status.Snapshot
		Uptime time.Duration
		Phase  string
		Player int
		Winner int
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
		Phase:    string(snap.Game.Phase()),
		Player:   snap.Game.Player + 1,
	}
	if !snap.Ready {
		data.Phase = "UNKNOWN"
	}
	if snap.Game.Winner != logic.NoWinner {
		data.Winner = snap.Game.Winner + 1
	}
	indexTmpl.Execute(w, data)
}
