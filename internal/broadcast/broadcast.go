package broadcast

import (
	"sync"

	"startlights/internal/events"
)

// Update is the notification fanned out to snapshot pushers whenever the
// game transitions.
type Update struct {
	State    string
	Progress int
}

type Broadcaster struct {
	Mu      sync.Mutex
	Clients map[chan Update]bool
}

func NewBroadcaster(bus *events.Bus) *Broadcaster {
	b := &Broadcaster{
		Clients: make(map[chan Update]bool),
	}
	go func() {
		for ev := range bus.StateChanges {
			b.Broadcast(Update{State: ev.State, Progress: ev.Progress})
		}
	}()
	return b
}

func (b *Broadcaster) Subscribe() chan Update {
	ch := make(chan Update, 10)
	b.Mu.Lock()
	b.Clients[ch] = true
	b.Mu.Unlock()
	return ch
}

func (b *Broadcaster) Unsubscribe(ch chan Update) {
	b.Mu.Lock()
	delete(b.Clients, ch)
	b.Mu.Unlock()
	close(ch)
}

func (b *Broadcaster) Broadcast(u Update) {
	b.Mu.Lock()
	defer b.Mu.Unlock()
	for ch := range b.Clients {
		select {
		case ch <- u:
		default:
			// skip clients with full data channels
		}
	}
}
