package event

import (
	"sync"
	"testing"
)

type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingSink) Handle(evt Event) {
	r.mu.Lock()
	r.events = append(r.events, evt)
	r.mu.Unlock()
}

func TestBus_DeliversInOrder(t *testing.T) {
	sink := &recordingSink{}
	bus := NewBus(16, sink)

	bus.Publish(Event{Type: TypeSessionStarted, SessionID: "s1"})
	bus.Publish(Event{Type: TypePhaseChanged, SessionID: "s1"})
	bus.Publish(Event{Type: TypeSessionClosed, SessionID: "s1"})
	bus.Close()

	if len(sink.events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(sink.events))
	}
	want := []Type{TypeSessionStarted, TypePhaseChanged, TypeSessionClosed}
	for i, evt := range sink.events {
		if evt.Type != want[i] {
			t.Errorf("event %d: got %s, want %s", i, evt.Type, want[i])
		}
		if evt.Timestamp.IsZero() {
			t.Errorf("event %d: timestamp not stamped", i)
		}
	}
}

func TestBus_FansOutToAllSinks(t *testing.T) {
	a, b := &recordingSink{}, &recordingSink{}
	bus := NewBus(16, a, b)

	bus.Publish(Event{Type: TypeVoteCast, SessionID: "s1"})
	bus.Close()

	if len(a.events) != 1 || len(b.events) != 1 {
		t.Errorf("expected both sinks to receive the event, got %d and %d", len(a.events), len(b.events))
	}
}

func TestBus_PublishAfterCloseIsDropped(t *testing.T) {
	sink := &recordingSink{}
	bus := NewBus(16, sink)
	bus.Close()

	// Must neither panic nor deliver.
	bus.Publish(Event{Type: TypeSessionStarted})
	if len(sink.events) != 0 {
		t.Errorf("expected no delivery after close, got %d events", len(sink.events))
	}
}
