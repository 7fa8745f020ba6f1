package broadcast

import (
	"testing"
	"time"

	"startlights/internal/events"
)

func TestNewBroadcaster(t *testing.T) {
	bus := events.NewBus()
	b := NewBroadcaster(bus)
	if b == nil {
		t.Fatal("NewBroadcaster() returned nil")
	}
}

func TestBroadcaster_SubscribeUnsubscribe(t *testing.T) {
	bus := events.NewBus()
	b := NewBroadcaster(bus)

	ch := b.Subscribe()
	if ch == nil {
		t.Fatal("Subscribe() returned nil")
	}

	b.Mu.Lock()
	if len(b.Clients) != 1 {
		t.Errorf("clients count = %d, want 1", len(b.Clients))
	}
	b.Mu.Unlock()

	b.Unsubscribe(ch)

	b.Mu.Lock()
	if len(b.Clients) != 0 {
		t.Errorf("clients count after unsubscribe = %d, want 0", len(b.Clients))
	}
	b.Mu.Unlock()
}

func TestBroadcaster_Broadcast(t *testing.T) {
	bus := events.NewBus()
	b := NewBroadcaster(bus)

	ch1 := b.Subscribe()
	ch2 := b.Subscribe()

	b.Broadcast(Update{State: "countdown", Progress: 2})

	for _, ch := range []chan Update{ch1, ch2} {
		select {
		case u := <-ch:
			if u.State != "countdown" || u.Progress != 2 {
				t.Errorf("got %+v, want state=countdown, progress=2", u)
			}
		case <-time.After(1 * time.Second):
			t.Fatal("subscriber timed out")
		}
	}

	b.Unsubscribe(ch1)
	b.Unsubscribe(ch2)
}

func TestBroadcaster_SkipsFullChannels(t *testing.T) {
	bus := events.NewBus()
	b := NewBroadcaster(bus)

	ch := b.Subscribe()

	// Fill the channel buffer (capacity 10)
	for i := 0; i < 10; i++ {
		b.Broadcast(Update{State: "idle"})
	}

	// This should not block even though channel is full
	done := make(chan bool)
	go func() {
		b.Broadcast(Update{State: "overflow"})
		done <- true
	}()

	select {
	case <-done:
		// Success - didn't block
	case <-time.After(1 * time.Second):
		t.Fatal("Broadcast blocked on full channel")
	}

	b.Unsubscribe(ch)
}

func TestBroadcaster_StateChangeForwarding(t *testing.T) {
	bus := events.NewBus()
	b := NewBroadcaster(bus)

	ch := b.Subscribe()

	bus.StateChanges <- events.StateChangeEvent{State: "reacting", Progress: 0}

	select {
	case u := <-ch:
		if u.State != "reacting" || u.Progress != 0 {
			t.Errorf("got %+v, want state=reacting, progress=0", u)
		}
	case <-time.After(1 * time.Second):
		t.Fatal("timed out waiting for state change broadcast")
	}

	b.Unsubscribe(ch)
}
