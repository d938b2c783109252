// Command nim-box runs the Nim game on two button and two LED port
// expanders and publishes game events to MQTT.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/nim-box/internal/board"
	"github.com/sweeney/nim-box/internal/controller"
	"github.com/sweeney/nim-box/internal/expander"
	"github.com/sweeney/nim-box/internal/gpio"
	"github.com/sweeney/nim-box/internal/logic"
	"github.com/sweeney/nim-box/internal/mqtt"
	"github.com/sweeney/nim-box/internal/status"
	"github.com/sweeney/nim-box/internal/web"
)

type options struct {
	tick       time.Duration
	blink      time.Duration
	heartbeat  time.Duration
	i2cBus     string
	gpioChip   string
	pinA       int
	pinB       int
	broker     string
	httpAddr   string
	wsBroker   string
	printState bool
}

func main() {
	tick := flag.Duration("tick", 3*time.Millisecond, "Scheduler tick interval")
	blink := flag.Duration("blink", logic.DefaultBlinkPeriod, "Winner LED blink period")
	heartbeat := flag.Duration("heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	i2cBus := flag.String("i2c-bus", "", "I2C bus name (empty for the first bus found)")
	gpioChip := flag.String("gpio-chip", "gpiochip0", "GPIO chip for the expander INT lines")
	pinA := flag.Int("int-a", gpio.DefaultPinIntA, "BCM pin for the token expander INT line (-1 to poll)")
	pinB := flag.Int("int-b", gpio.DefaultPinIntB, "BCM pin for the start expander INT line (-1 to poll)")
	broker := flag.String("broker", "tcp://192.168.1.200:1883", "MQTT broker address (empty to disable)")
	printState := flag.Bool("print-state", false, "Print button expander levels and exit")
	httpAddr := flag.String("http", ":80", "HTTP status address (empty to disable)")
	wsBroker := flag.String("ws-broker", "=broker", `MQTT websocket URL for live UI ("=broker" derives from --broker, "off" disables)`)

	flag.Parse()

	opts := options{
		tick:       *tick,
		blink:      *blink,
		heartbeat:  *heartbeat,
		i2cBus:     *i2cBus,
		gpioChip:   *gpioChip,
		pinA:       *pinA,
		pinB:       *pinB,
		broker:     *broker,
		httpAddr:   *httpAddr,
		wsBroker:   resolveWSBroker(*wsBroker, *broker),
		printState: *printState,
	}
	if err := run(opts); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(opts options) error {
	layout := board.Default()

	// Initialize I2C
	bus, err := expander.OpenPeriph(opts.i2cBus)
	if err != nil {
		return fmt.Errorf("init i2c: %w", err)
	}
	defer bus.Close()
	transport := expander.New(bus)

	// Print state mode
	if opts.printState {
		for _, addr := range layout.ButtonAddrs() {
			fmt.Printf("0x%02X: %016b\n", addr, transport.ReadPorts(addr))
		}
		return nil
	}

	// Initialize GPIO
	var flags gpio.Reader = gpio.PollReader{}
	if opts.pinA >= 0 && opts.pinB >= 0 {
		r, err := gpio.NewRealReader(opts.gpioChip, opts.pinA, opts.pinB)
		if err != nil {
			return fmt.Errorf("init gpio: %w", err)
		}
		flags = r
	} else {
		log.Printf("INT lines disabled, polling button expanders every tick")
	}
	defer flags.Close()

	// Initialize MQTT
	var publisher interface {
		mqtt.Publisher
		mqtt.ConnectionStatus
	} = mqtt.Discard{}
	if opts.broker != "" {
		publisher = mqtt.NewRealPublisher(opts.broker)
	}
	defer publisher.Close()

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		TickMs:      opts.tick.Milliseconds(),
		BlinkMs:     opts.blink.Milliseconds(),
		HeartbeatMs: opts.heartbeat.Milliseconds(),
		I2CBus:      bus.String(),
		Broker:      opts.broker,
		HTTPPort:    opts.httpAddr,
		WSBroker:    opts.wsBroker,
		Rows:        layout.Rows(),
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	// Start HTTP status server
	if opts.httpAddr != "" {
		srv := web.New(opts.httpAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", opts.httpAddr)
	}

	ctrl := controller.New(transport, flags, layout, opts.blink)

	log.Printf("started: bus=%s tick=%v blink=%v broker=%q heartbeat=%v",
		bus, opts.tick, opts.blink, opts.broker, opts.heartbeat)

	ticker := time.NewTicker(opts.tick)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(ctrl, publisher, publisher, tracker, opts.heartbeat, time.Now, ticker.C, sigCh)
}

func runLoop(ctrl *controller.Controller, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, heartbeat time.Duration, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	startTime := now()
	hb := logic.NewHeartbeat(startTime)

	publishAll(publisher, ctrl.Init(startTime))
	updateTracker(tracker, ctrl, mqttStatus)

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if tracker != nil {
				updateTracker(tracker, ctrl, mqttStatus)
				snap := tracker.Snapshot()
				event.RawPayload = status.FormatStatusEvent(snap, "SHUTDOWN", signalName)
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			return nil

		case <-tick:
			t := now()
			publishAll(publisher, ctrl.Tick(t))

			// Check for heartbeat
			if hbData := hb.Check(t, heartbeat, ctrl.Counts()); hbData != nil {
				log.Printf("heartbeat: uptime=%v games=%d moves=%d wins_p1=%d wins_p2=%d",
					hbData.Uptime, hbData.Counts.Games, hbData.Counts.Moves, hbData.Counts.Wins[0], hbData.Counts.Wins[1])

				hbEvent := mqtt.SystemEvent{
					Timestamp: hbData.Timestamp,
					Event:     "HEARTBEAT",
				}
				if tracker != nil {
					// Refresh network info for heartbeat
					if net := readNetworkInfo(); net != nil {
						tracker.SetNetwork(net)
					}
					updateTracker(tracker, ctrl, mqttStatus)
					snap := tracker.Snapshot()
					hbEvent.RawPayload = status.FormatStatusEvent(snap, "HEARTBEAT", "")
				}
				if err := publisher.PublishSystem(hbEvent); err != nil {
					log.Printf("heartbeat publish error: %v", err)
				}
			}

			// Update status tracker for HTTP consumers
			updateTracker(tracker, ctrl, mqttStatus)
		}
	}
}

func publishAll(publisher mqtt.Publisher, events []logic.Event) {
	for _, event := range events {
		log.Printf("event: %s", event.Message())
		if err := publisher.Publish(event); err != nil {
			log.Printf("publish error: %v", err)
		}
	}
}

func updateTracker(tracker *status.Tracker, ctrl *controller.Controller, mqttStatus mqtt.ConnectionStatus) {
	if tracker == nil {
		return
	}
	tracker.Update(ctrl.State(), ctrl.Counts(), ctrl.Buttons(), ctrl.BusStats())
	if mqttStatus != nil {
		tracker.SetMQTTConnected(mqttStatus.IsConnected())
	}
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}

// resolveWSBroker converts the --ws-broker flag value into a concrete URL.
// "=broker" derives ws://host:9001 from the TCP broker address; empty disables.
func resolveWSBroker(ws, broker string) string {
	if ws == "off" {
		return ""
	}
	if ws != "=broker" {
		return ws
	}
	if broker == "" {
		return ""
	}
	u, err := url.Parse(broker)
	if err != nil {
		log.Printf("ws-broker: cannot parse --broker %q: %v", broker, err)
		return ""
	}
	u.Scheme = "ws"
	u.Host = u.Hostname() + ":9001"
	return u.String()
}
