package mqtt

import (
	"fmt"
	"log"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/sweeney/cane-sensor/internal/logic"
)

const (
	publishTimeout = 5 * time.Second
	outboxSize     = 256
)

// client is the part of paho.Client the publisher uses.
type client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	IsConnectionOpen() bool
	Disconnect(quiesce uint)
}

// RealPublisher publishes to an actual MQTT broker.
// Alerts and system events published while offline are held in an outbox
// and replayed on reconnect. Telemetry is only sent live.
type RealPublisher struct {
	client client
	now    func() time.Time

	mu       sync.Mutex
	outbox   *outbox
	connects int
}

// NewRealPublisher starts connecting to broker in the background and returns
// immediately. The broker keeps a retained OFFLINE event as last will.
func NewRealPublisher(broker, clientID string) *RealPublisher {
	p := newPublisher(nil, time.Now)

	will, _ := FormatSystemPayload(SystemEvent{
		Timestamp: time.Now(),
		Event:     "OFFLINE",
		Reason:    "MQTT_DISCONNECT",
	})

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetWill(TopicSystem, string(will), 1, true).
		SetOnConnectHandler(func(paho.Client) { p.onConnect() }).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Printf("mqtt: connection lost: %v", err)
		})

	c := paho.NewClient(opts)
	p.client = c
	c.Connect()
	return p
}

func newPublisher(c client, now func() time.Time) *RealPublisher {
	return &RealPublisher{
		client: c,
		now:    now,
		outbox: newOutbox(outboxSize),
	}
}

// onConnect announces a reconnection and replays the outbox.
func (p *RealPublisher) onConnect() {
	p.mu.Lock()
	p.connects++
	reconnect := p.connects > 1
	p.mu.Unlock()

	if reconnect {
		log.Printf("mqtt: reconnected")
		if err := p.PublishSystem(SystemEvent{Timestamp: p.now(), Event: "RECONNECTED"}); err != nil {
			log.Printf("mqtt: publish reconnected: %v", err)
		}
	} else {
		log.Printf("mqtt: connected")
	}
	p.flush()
}

func (p *RealPublisher) flush() {
	p.mu.Lock()
	pending := p.outbox.takeAll()
	p.mu.Unlock()

	if len(pending) > 0 {
		log.Printf("mqtt: replaying %d buffered messages", len(pending))
	}
	for i, m := range pending {
		if err := p.send(m); err != nil {
			log.Printf("mqtt: replay: %v", err)
			p.mu.Lock()
			for _, rest := range pending[i:] {
				p.outbox.add(rest)
			}
			p.mu.Unlock()
			return
		}
	}
}

// publish sends m now, or queues it when the connection is down.
// Droppable messages are discarded instead of queued. A backlog left by a
// failed replay is retried first, and m queues behind it if the retry fails
// again, so buffered messages are never overtaken.
func (p *RealPublisher) publish(m message, droppable bool) error {
	if !p.client.IsConnectionOpen() {
		if droppable {
			return nil
		}
		p.enqueue(m)
		return nil
	}
	if p.Buffered() > 0 {
		p.flush()
		if p.Buffered() > 0 {
			if !droppable {
				p.enqueue(m)
			}
			return nil
		}
	}
	return p.send(m)
}

func (p *RealPublisher) enqueue(m message) {
	p.mu.Lock()
	p.outbox.add(m)
	p.mu.Unlock()
}

func (p *RealPublisher) send(m message) error {
	token := p.client.Publish(m.topic, m.qos, m.retained, m.payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish to %s: timeout", m.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", m.topic, err)
	}
	return nil
}

// PublishAlert sends an alert, QoS 0, not retained.
func (p *RealPublisher) PublishAlert(alert logic.Alert) error {
	payload, err := FormatAlertPayload(alert)
	if err != nil {
		return fmt.Errorf("format alert payload: %w", err)
	}
	return p.publish(message{topic: TopicAlerts, payload: payload}, false)
}

// PublishTelemetry sends a telemetry sample, QoS 0, not retained.
// Samples are dropped while disconnected.
func (p *RealPublisher) PublishTelemetry(t Telemetry) error {
	payload, err := FormatTelemetryPayload(t)
	if err != nil {
		return fmt.Errorf("format telemetry payload: %w", err)
	}
	return p.publish(message{topic: TopicTelemetry, payload: payload}, true)
}

// PublishSystem sends a system lifecycle event, QoS 1.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	return p.publish(message{topic: TopicSystem, payload: payload, qos: 1, retained: event.Retained}, false)
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Buffered returns the number of messages waiting for a reconnect.
func (p *RealPublisher) Buffered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.outbox.len()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second quiesce
	return nil
}
