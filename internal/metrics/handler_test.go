package metrics

import (
	"testing"

	"niftypulse/logger"
)

func TestRegisterNilHandler(t *testing.T) {
	if id := RegisterMetricHandler(nil); id != 0 {
		t.Fatalf("nil handler got id %d, want 0", id)
	}
	// Unregistering the zero id is a no-op.
	UnregisterMetricHandler(0)
}

func TestEmitDispatchesToHandlers(t *testing.T) {
	var got []Metric
	id := RegisterMetricHandler(func(m Metric) { got = append(got, m) })
	defer UnregisterMetricHandler(id)

	Emit("scheduler", "ticks_applied", 100, "", logger.Fields{"market_open": true})
	Emit("scheduler", "", 1, "counter", nil) // dropped, no name

	if len(got) != 1 {
		t.Fatalf("handler received %d metrics, want 1", len(got))
	}
	m := got[0]
	if m.Component != "scheduler" || m.Name != "ticks_applied" {
		t.Errorf("metric = %+v", m)
	}
	if m.Type != "counter" {
		t.Errorf("empty type not defaulted: %q", m.Type)
	}
	if m.Fields["market_open"] != true {
		t.Errorf("fields = %v", m.Fields)
	}
	if m.Timestamp.IsZero() {
		t.Error("timestamp not set")
	}
}

func TestEmitClonesFields(t *testing.T) {
	var got Metric
	id := RegisterMetricHandler(func(m Metric) { got = m })
	defer UnregisterMetricHandler(id)

	fields := logger.Fields{"k": "v"}
	Emit("test", "m", 1, "gauge", fields)
	fields["k"] = "mutated"

	if got.Fields["k"] != "v" {
		t.Errorf("handler saw caller mutation: %v", got.Fields)
	}
}

func TestUnregisterStopsDelivery(t *testing.T) {
	calls := 0
	id := RegisterMetricHandler(func(Metric) { calls++ })
	Emit("test", "before", 1, "", nil)
	UnregisterMetricHandler(id)
	Emit("test", "after", 1, "", nil)

	if calls != 1 {
		t.Fatalf("handler called %d times, want 1", calls)
	}
}
