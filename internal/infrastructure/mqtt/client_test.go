package mqtt

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/openlux/dmxbridge/internal/infrastructure/config"
)

// testConfig returns a valid MQTT configuration for testing.
// Broker-backed tests require a running Mosquitto broker at 127.0.0.1:1883.
func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     1883,
			ClientID: "dmxbridge-test",
			TLS:      false,
		},
		QoS: 1,
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     5,
		},
	}
}

// requireBroker skips the test when no local broker is reachable.
func requireBroker(t *testing.T) {
	t.Helper()

	conn, err := net.DialTimeout("tcp", "127.0.0.1:1883", 500*time.Millisecond)
	if err != nil {
		t.Skip("no MQTT broker at 127.0.0.1:1883")
	}
	conn.Close()
}

// =============================================================================
// Connection Tests
// =============================================================================

func TestConnect(t *testing.T) {
	requireBroker(t)

	client, err := Connect(testConfig())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	if !client.IsConnected() {
		t.Error("IsConnected() = false, want true")
	}
}

func TestConnectInvalidBroker(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.Port = 19999 // Nothing listens here

	if _, err := Connect(cfg); !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestClose(t *testing.T) {
	requireBroker(t)

	client, err := Connect(testConfig())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	if err := client.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if client.IsConnected() {
		t.Error("IsConnected() = true after Close(), want false")
	}
}

func TestCloseNil(t *testing.T) {
	client := &Client{}
	if err := client.Close(); err != nil {
		t.Errorf("Close() on zero client error = %v, want nil", err)
	}
}

func TestIsConnectedInitialState(t *testing.T) {
	client := &Client{}
	if client.IsConnected() {
		t.Error("IsConnected() should be false for uninitialised client")
	}
}

// =============================================================================
// HealthCheck Tests
// =============================================================================

func TestHealthCheck(t *testing.T) {
	requireBroker(t)

	client, err := Connect(testConfig())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	if err := client.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v, want nil", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := client.HealthCheck(ctx); err == nil {
		t.Error("HealthCheck() expected error for cancelled context")
	}
}

func TestHealthCheckDisconnected(t *testing.T) {
	requireBroker(t)

	client, err := Connect(testConfig())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	client.Close()

	if err := client.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}
}

// =============================================================================
// Publish / Subscribe Validation Tests
// =============================================================================

func TestPublishValidation(t *testing.T) {
	requireBroker(t)

	client, err := Connect(testConfig())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	ackTopic := Topics{}.Ack("8f14e45f")
	if err := client.Publish(ackTopic, []byte(`{"status":"accepted"}`), 1, false); err != nil {
		t.Errorf("Publish() error = %v", err)
	}

	tests := []struct {
		name    string
		topic   string
		qos     byte
		wantErr error
	}{
		{name: "empty topic", topic: "", qos: 1, wantErr: ErrInvalidTopic},
		{name: "invalid qos", topic: ackTopic, qos: 3, wantErr: ErrInvalidQoS},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := client.Publish(tt.topic, []byte(`{}`), tt.qos, false)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Publish() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPublishDisconnected(t *testing.T) {
	requireBroker(t)

	client, err := Connect(testConfig())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	client.Close()

	err = client.Publish(Topics{}.Status(), []byte("online"), 1, true)
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("Publish() error = %v, want ErrNotConnected", err)
	}
}

func TestSubscribeValidation(t *testing.T) {
	requireBroker(t)

	client, err := Connect(testConfig())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	noop := func(string, []byte) error { return nil }

	tests := []struct {
		name    string
		topic   string
		qos     byte
		handler MessageHandler
		wantErr error
	}{
		{name: "empty topic", topic: "", qos: 1, handler: noop, wantErr: ErrInvalidTopic},
		{name: "invalid qos", topic: Topics{}.AllCommands(), qos: 3, handler: noop, wantErr: ErrInvalidQoS},
		{name: "nil handler", topic: Topics{}.AllCommands(), qos: 1, handler: nil, wantErr: ErrSubscribeFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := client.Subscribe(tt.topic, tt.qos, tt.handler)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Subscribe() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if client.SubscriptionCount() != 0 {
		t.Errorf("SubscriptionCount() = %d after rejected subscribes, want 0", client.SubscriptionCount())
	}
}

func TestSubscribeDisconnected(t *testing.T) {
	requireBroker(t)

	client, err := Connect(testConfig())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	client.Close()

	err = client.Subscribe(Topics{}.AllCommands(), 1, func(string, []byte) error { return nil })
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("Subscribe() error = %v, want ErrNotConnected", err)
	}
}

// =============================================================================
// Command Wildcard Tests
// =============================================================================

// The bridge listens on dmxbridge/command/+ and routes by the last topic
// segment. This covers the pattern against a real broker.
func TestCommandWildcardDelivery(t *testing.T) {
	requireBroker(t)

	cfg := testConfig()
	cfg.Broker.ClientID = "dmxbridge-test-pub"
	pub, err := Connect(cfg)
	if err != nil {
		t.Fatalf("Connect() publisher error = %v", err)
	}
	defer pub.Close()

	cfg.Broker.ClientID = "dmxbridge-test-sub"
	sub, err := Connect(cfg)
	if err != nil {
		t.Fatalf("Connect() subscriber error = %v", err)
	}
	defer sub.Close()

	received := make(chan string, 4)
	err = sub.Subscribe(Topics{}.AllCommands(), 1, func(topic string, _ []byte) error {
		received <- topic
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	time.Sleep(100 * time.Millisecond)

	kinds := []string{"set", "fade", "effect_start"}
	for _, kind := range kinds {
		if err := pub.Publish(Topics{}.Command(kind), []byte(`{"channel":0,"value":255}`), 1, false); err != nil {
			t.Fatalf("Publish(%s) error = %v", kind, err)
		}
	}

	seen := make(map[string]bool)
	timeout := time.After(5 * time.Second)
	for len(seen) < len(kinds) {
		select {
		case topic := <-received:
			seen[topic] = true
		case <-timeout:
			t.Fatalf("received %d of %d command topics", len(seen), len(kinds))
		}
	}
	for _, kind := range kinds {
		if !seen[Topics{}.Command(kind)] {
			t.Errorf("command kind %q never delivered", kind)
		}
	}
}

func TestHandlerErrorDoesNotBreakClient(t *testing.T) {
	requireBroker(t)

	cfg := testConfig()
	cfg.Broker.ClientID = "dmxbridge-test-handler-err"
	client, err := Connect(cfg)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	topic := Topics{}.Command("set")
	handled := make(chan struct{}, 2)
	err = client.Subscribe(topic, 1, func(string, []byte) error {
		handled <- struct{}{}
		return errors.New("decode failed")
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	time.Sleep(100 * time.Millisecond)

	// Two deliveries: the first handler error must not stop the second.
	for i := 0; i < 2; i++ {
		if err := client.Publish(topic, []byte(`{"channel":999}`), 1, false); err != nil {
			t.Fatalf("Publish() error = %v", err)
		}
		select {
		case <-handled:
		case <-time.After(2 * time.Second):
			t.Fatalf("handler was not called for delivery %d", i+1)
		}
	}
}

// =============================================================================
// Topics Tests
// =============================================================================

func TestTopicBuilders(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"Command", Topics{}.Command("fade"), "dmxbridge/command/fade"},
		{"AllCommands", Topics{}.AllCommands(), "dmxbridge/command/+"},
		{"SceneDefine", Topics{}.SceneDefine("evening"), "dmxbridge/scene/evening"},
		{"AllSceneDefines", Topics{}.AllSceneDefines(), "dmxbridge/scene/+"},
		{"HistoryRequest", Topics{}.HistoryRequest(), "dmxbridge/history/request"},
		{"HistoryRecent", Topics{}.HistoryRecent(), "dmxbridge/history/recent"},
		{"Ack", Topics{}.Ack("8f14e45f"), "dmxbridge/ack/8f14e45f"},
		{"EventError", Topics{}.EventError(), "dmxbridge/event/error"},
		{"EventLastError", Topics{}.EventLastError(), "dmxbridge/event/last_error"},
		{"EventFadeCompleted", Topics{}.EventFadeCompleted(), "dmxbridge/event/fade_completed"},
		{"Health", Topics{}.Health(), "dmxbridge/health"},
		{"Status", Topics{}.Status(), "dmxbridge/status"},
		{"FrameEcho", Topics{}.FrameEcho(), "dmxbridge/frame"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("%s() = %q, want %q", tt.name, tt.got, tt.want)
			}
		})
	}
}
