// Package telemetry publishes reassembler/fragmenter running counters to an
// MQTT broker and serves them over a plain HTTP health endpoint.
package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/e7canasta/orion-care-sensor/modules/rawstream/internal/config"
)

// StatsSnapshot is the JSON payload published on every tick, shared by the
// MQTT publisher and the HTTP health handler.
type StatsSnapshot struct {
	InstanceID      string  `json:"instance_id"`
	FHPackets       uint64  `json:"fh_packets"`
	FDPackets       uint64  `json:"fd_packets"`
	Bytes           uint64  `json:"bytes"`
	FramesCompleted uint64  `json:"frames_completed"`
	FramesDropped   uint64  `json:"frames_dropped"`
	ReorderDepth    uint32  `json:"reorder_depth"`
	DropRate        float64 `json:"drop_rate"`
}

// Publisher pushes StatsSnapshot values to an MQTT broker on a timer.
type Publisher struct {
	cfg    *config.Config
	client mqtt.Client

	mu        sync.RWMutex
	connected bool
	published uint64
	errors    uint64
}

// NewPublisher creates a Publisher bound to cfg.MQTT. Connect must be called
// before Publish will succeed.
func NewPublisher(cfg *config.Config) *Publisher {
	return &Publisher{cfg: cfg}
}

// Connect dials the configured broker with auto-reconnect enabled.
func (p *Publisher) Connect(ctx context.Context) error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s", p.cfg.MQTT.Broker))
	opts.SetClientID(p.cfg.InstanceID + "-rawstream")
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)

	opts.OnConnect = func(mqtt.Client) {
		p.mu.Lock()
		p.connected = true
		p.mu.Unlock()
		slog.Info("telemetry mqtt connected", "broker", p.cfg.MQTT.Broker)
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		p.mu.Lock()
		p.connected = false
		p.mu.Unlock()
		slog.Warn("telemetry mqtt connection lost", "error", err)
	}

	p.client = mqtt.NewClient(opts)

	token := p.client.Connect()
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("rawstream/telemetry: mqtt connect timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("rawstream/telemetry: mqtt connect: %w", err)
	}

	p.mu.Lock()
	p.connected = true
	p.mu.Unlock()
	return nil
}

// Publish sends one StatsSnapshot to the configured stats topic.
func (p *Publisher) Publish(snap StatsSnapshot) error {
	if !p.IsConnected() {
		p.mu.Lock()
		p.errors++
		p.mu.Unlock()
		return fmt.Errorf("rawstream/telemetry: mqtt not connected")
	}

	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("rawstream/telemetry: marshal stats: %w", err)
	}

	qos := p.cfg.MQTT.QoS["stats"]
	token := p.client.Publish(p.cfg.MQTT.StatsTopic, qos, false, payload)
	if !token.WaitTimeout(2 * time.Second) {
		p.mu.Lock()
		p.errors++
		p.mu.Unlock()
		return fmt.Errorf("rawstream/telemetry: publish timeout")
	}
	if err := token.Error(); err != nil {
		p.mu.Lock()
		p.errors++
		p.mu.Unlock()
		return fmt.Errorf("rawstream/telemetry: publish: %w", err)
	}

	p.mu.Lock()
	p.published++
	p.mu.Unlock()
	return nil
}

// Run publishes a fresh snapshot from source() every interval until ctx is
// cancelled.
func (p *Publisher) Run(ctx context.Context, interval time.Duration, source func() StatsSnapshot) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.Publish(source()); err != nil {
				slog.Warn("telemetry publish failed", "error", err)
			}
		}
	}
}

// Disconnect closes the MQTT connection, if any.
func (p *Publisher) Disconnect() {
	if p.client != nil && p.client.IsConnected() {
		p.client.Disconnect(250)
	}
	p.mu.Lock()
	p.connected = false
	p.mu.Unlock()
}

// IsConnected reports the current MQTT connection state.
func (p *Publisher) IsConnected() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.connected
}
