package events

type StateChangeEvent struct {
	State    string
	Progress int
}

type Bus struct {
	StateChanges chan StateChangeEvent
}

func NewBus() *Bus {
	return &Bus{
		StateChanges: make(chan StateChangeEvent, 10),
	}
}
