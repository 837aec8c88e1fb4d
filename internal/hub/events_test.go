package hub

import (
	"io"
	"log/slog"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestEventBusOn(t *testing.T) {
	eb := NewEventBus(testLogger())

	var got []Event
	eb.On(EventAction, func(e Event) { got = append(got, e) })

	eb.Emit(Event{Type: EventAction, Data: "a"})
	eb.Emit(Event{Type: EventDeviceSeen, Data: "b"})

	if len(got) != 1 {
		t.Fatalf("handler saw %d events, want 1", len(got))
	}
	if got[0].Data != "a" {
		t.Errorf("data = %v, want a", got[0].Data)
	}
}

func TestEventBusOnAll(t *testing.T) {
	eb := NewEventBus(testLogger())

	var count int
	eb.OnAll(func(e Event) { count++ })

	eb.Emit(Event{Type: EventAction})
	eb.Emit(Event{Type: EventDeviceSeen})
	eb.Emit(Event{Type: EventFrameDropped})

	if count != 3 {
		t.Errorf("all-handler saw %d events, want 3", count)
	}
}

func TestEventBusUnsubscribe(t *testing.T) {
	eb := NewEventBus(testLogger())

	var count int
	off := eb.On(EventAction, func(e Event) { count++ })

	eb.Emit(Event{Type: EventAction})
	off()
	eb.Emit(Event{Type: EventAction})

	if count != 1 {
		t.Errorf("handler saw %d events after unsubscribe, want 1", count)
	}
}

func TestEventBusPanicRecovery(t *testing.T) {
	eb := NewEventBus(testLogger())

	var survived bool
	eb.On(EventAction, func(e Event) { panic("bad handler") })
	eb.On(EventAction, func(e Event) { survived = true })

	eb.Emit(Event{Type: EventAction})

	if !survived {
		t.Error("panicking handler blocked the remaining handlers")
	}
}
