package bridge

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/openlux/dmxbridge/internal/scene"
)

func newTestReporter(t *testing.T, client *mockMQTT, interval time.Duration) *HealthReporter {
	t.Helper()
	return NewHealthReporter(HealthReporterConfig{
		Version:   "1.2.3",
		Interval:  interval,
		Publisher: client,
		Engine:    newFakeEngine(8),
		Scenes:    scene.NewRegistry(8),
	})
}

func TestHealthReporterPublishesRetained(t *testing.T) {
	client := newMockMQTT()
	reporter := newTestReporter(t, client, time.Hour)

	if err := reporter.PublishNow(); err != nil {
		t.Fatalf("PublishNow() error = %v", err)
	}

	reports := client.messagesOn(topics.Health())
	if len(reports) != 1 {
		t.Fatalf("health report count = %d, want 1", len(reports))
	}
	if !reports[0].retained {
		t.Error("health report was not retained")
	}

	var msg HealthMessage
	if err := json.Unmarshal(reports[0].payload, &msg); err != nil {
		t.Fatalf("unmarshal health: %v", err)
	}
	if msg.Service != "dmxbridge" {
		t.Errorf("Service = %q, want dmxbridge", msg.Service)
	}
	if msg.Status != HealthHealthy {
		t.Errorf("Status = %q, want %q", msg.Status, HealthHealthy)
	}
	if msg.Version != "1.2.3" {
		t.Errorf("Version = %q, want 1.2.3", msg.Version)
	}
	if msg.UniverseSize != 8 {
		t.Errorf("UniverseSize = %d, want 8", msg.UniverseSize)
	}
	if msg.Statistics == nil {
		t.Error("Statistics missing from health report")
	}
}

func TestHealthReporterDegradedWhenDisconnected(t *testing.T) {
	client := newMockMQTT()
	client.connected = false
	reporter := newTestReporter(t, client, time.Hour)

	if err := reporter.PublishNow(); err != nil {
		t.Fatalf("PublishNow() error = %v", err)
	}

	var msg HealthMessage
	reports := client.messagesOn(topics.Health())
	if err := json.Unmarshal(reports[0].payload, &msg); err != nil {
		t.Fatalf("unmarshal health: %v", err)
	}
	if msg.Status != HealthDegraded {
		t.Errorf("Status = %q, want %q", msg.Status, HealthDegraded)
	}
	if msg.Reason == "" {
		t.Error("degraded report carries no reason")
	}
}

func TestHealthReporterPeriodic(t *testing.T) {
	client := newMockMQTT()
	reporter := newTestReporter(t, client, 5*time.Millisecond)

	reporter.Start(context.Background())
	waitFor(t, time.Second, func() bool {
		return len(client.messagesOn(topics.Health())) >= 2
	}, "periodic health reports were not published")
	reporter.Stop()
}

func TestHealthReporterStopPublishesStopping(t *testing.T) {
	client := newMockMQTT()
	reporter := newTestReporter(t, client, time.Hour)

	reporter.Start(context.Background())
	reporter.Stop()
	reporter.Stop() // idempotent

	reports := client.messagesOn(topics.Health())
	if len(reports) == 0 {
		t.Fatal("no health reports published")
	}

	var last HealthMessage
	if err := json.Unmarshal(reports[len(reports)-1].payload, &last); err != nil {
		t.Fatalf("unmarshal health: %v", err)
	}
	if last.Status != HealthStopping {
		t.Errorf("final status = %q, want %q", last.Status, HealthStopping)
	}
}
