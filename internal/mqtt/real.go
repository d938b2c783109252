package mqtt

import (
	"fmt"
	"log"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/sweeney/nim-box/internal/logic"
)

// outboxCapacity bounds how many messages are held while disconnected.
const outboxCapacity = 100

// RealPublisher publishes to an actual MQTT broker. Messages published
// while the broker is unreachable are held and sent after reconnecting,
// ahead of anything published later.
type RealPublisher struct {
	client paho.Client

	// mu also orders publishes: held messages are replayed and connected
	// is set while it is held, so send cannot overtake the replay.
	mu        sync.Mutex
	pending   *outbox
	connected bool
	everUp    bool
}

func newPublisher() *RealPublisher {
	return &RealPublisher{pending: newOutbox(outboxCapacity)}
}

// NewRealPublisher creates a publisher for the given broker. Connecting
// happens in the background and is retried forever.
func NewRealPublisher(broker string) *RealPublisher {
	p := newPublisher()

	// The will is registered once, so the OFFLINE the broker announces
	// carries the time the publisher was created.
	will, err := FormatSystemPayload(SystemEvent{
		Timestamp: time.Now(),
		Event:     "OFFLINE",
		Reason:    "LWT",
	})
	if err != nil {
		log.Printf("mqtt: format will: %v", err)
	}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID("nim-box").
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetWill(TopicSystem, string(will), 1, true).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(p.onConnectionLost)

	p.client = paho.NewClient(opts)
	p.client.Connect()
	return p
}

func (p *RealPublisher) onConnect(c paho.Client) {
	p.mu.Lock()
	defer p.mu.Unlock()

	msgs := p.pending.drain()
	log.Printf("mqtt: connected (replaying %d held messages)", len(msgs))

	if p.everUp {
		payload, err := FormatSystemPayload(SystemEvent{Timestamp: time.Now(), Event: "RECONNECTED"})
		if err != nil {
			log.Printf("mqtt: format reconnect event: %v", err)
		} else {
			msgs = append(msgs, pendingMsg{topic: TopicSystem, payload: payload, qos: 1})
		}
	}

	// Handlers run on the paho goroutine; do not wait on tokens here.
	for _, m := range msgs {
		c.Publish(m.topic, m.qos, m.retained, m.payload)
	}

	p.connected = true
	p.everUp = true
}

func (p *RealPublisher) onConnectionLost(_ paho.Client, err error) {
	p.mu.Lock()
	p.connected = false
	p.mu.Unlock()
	log.Printf("mqtt: connection lost: %v", err)
}

// Publish sends a game event to the MQTT broker.
func (p *RealPublisher) Publish(event logic.Event) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}

	// QoS 0 (at-most-once), not retained
	if err := p.send(Topic, 0, false, payload); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}

	// QoS 1 (at-least-once) for lifecycle events - we want to ensure delivery
	if err := p.send(TopicSystem, 1, event.Retained, payload); err != nil {
		return fmt.Errorf("publish system: %w", err)
	}
	return nil
}

func (p *RealPublisher) send(topic string, qos byte, retained bool, payload []byte) error {
	msg := pendingMsg{topic: topic, payload: payload, qos: qos, retained: retained}

	p.mu.Lock()
	if !p.connected {
		p.pending.push(msg)
		p.mu.Unlock()
		return nil
	}
	token := p.client.Publish(topic, qos, retained, payload)
	p.mu.Unlock()

	err := fmt.Errorf("timeout")
	if token.WaitTimeout(5 * time.Second) {
		err = token.Error()
	}
	if err != nil {
		// Held until the next connect.
		p.mu.Lock()
		p.pending.push(msg)
		p.mu.Unlock()
		return fmt.Errorf("%w (held for replay)", err)
	}
	return nil
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connected
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
