package sequence

import (
	"math/rand"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Lights is the number of stages in the start sequence.
const Lights = 5

const (
	DefaultTickInterval  = 16 * time.Millisecond
	DefaultLightInterval = time.Second
	DefaultMinDelay      = time.Second
	DefaultMaxDelay      = 5 * time.Second
)

type Config struct {
	TickInterval  time.Duration // progress poll cadence (frame analog)
	LightInterval time.Duration // spacing between lights
	MinDelay      time.Duration // random lights-out delay lower bound, inclusive
	MaxDelay      time.Duration // random lights-out delay upper bound, exclusive
}

func DefaultConfig() Config {
	return Config{
		TickInterval:  DefaultTickInterval,
		LightInterval: DefaultLightInterval,
		MinDelay:      DefaultMinDelay,
		MaxDelay:      DefaultMaxDelay,
	}
}

// Sequencer drives the five-light countdown and the randomized lights-out
// delay for one round at a time. Progress is recomputed from the anchor
// timestamp on every tick, so scheduling jitter can delay a light but never
// skip one or move backward.
type Sequencer struct {
	cfg    Config
	clock  clockwork.Clock
	randFn func() float64

	mu      sync.Mutex
	running bool
	gen     uint64 // bumped on Stop; callbacks from an old generation are dropped
	cancel  chan struct{}
}

func New(cfg Config, clock clockwork.Clock, randFn func() float64) *Sequencer {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultTickInterval
	}
	if cfg.LightInterval <= 0 {
		cfg.LightInterval = DefaultLightInterval
	}
	if cfg.MinDelay <= 0 {
		cfg.MinDelay = DefaultMinDelay
	}
	if cfg.MaxDelay <= cfg.MinDelay {
		cfg.MaxDelay = cfg.MinDelay + (DefaultMaxDelay - DefaultMinDelay)
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if randFn == nil {
		randFn = rand.Float64
	}
	return &Sequencer{cfg: cfg, clock: clock, randFn: randFn}
}

// Start begins a countdown anchored at the current clock time and reports
// whether a new sequence was started. A call while one is active is a no-op.
// onProgress receives each new light count in [1,5]; once all five are lit a
// random delay in [MinDelay, MaxDelay) elapses and onLightsOut fires exactly
// once.
func (s *Sequencer) Start(onProgress func(int), onLightsOut func()) bool {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return false
	}
	s.running = true
	s.gen++
	gen := s.gen
	cancel := make(chan struct{})
	s.cancel = cancel
	s.mu.Unlock()

	go s.run(gen, cancel, onProgress, onLightsOut)
	return true
}

// Stop cancels the active sequence. The generation bump invalidates any
// callback still in flight, so nothing from the stopped round can fire after
// the cancellation is observed.
func (s *Sequencer) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.running = false
	s.gen++
	close(s.cancel)
	s.cancel = nil
}

func (s *Sequencer) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Sequencer) run(gen uint64, cancel chan struct{}, onProgress func(int), onLightsOut func()) {
	t0 := s.clock.Now()
	ticker := s.clock.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	last := 0
	for last < Lights {
		select {
		case <-cancel:
			return
		case <-ticker.Chan():
		}
		k := int(s.clock.Since(t0)/s.cfg.LightInterval) + 1
		if k > Lights {
			k = Lights
		}
		if k > last {
			last = k
			if !s.deliver(gen, func() { onProgress(k) }) {
				return
			}
		}
	}

	d := s.cfg.MinDelay + time.Duration(s.randFn()*float64(s.cfg.MaxDelay-s.cfg.MinDelay))
	timer := s.clock.NewTimer(d)
	select {
	case <-cancel:
		stopAndDrain(timer)
		return
	case <-timer.Chan():
	}

	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()
	onLightsOut()
}

// deliver invokes fn only if the sequence has not been stopped since this
// run began. The callback runs outside the lock; the caller's own state
// guard covers the window between the check and the call.
func (s *Sequencer) deliver(gen uint64, fn func()) bool {
	s.mu.Lock()
	ok := s.gen == gen
	s.mu.Unlock()
	if ok {
		fn()
	}
	return ok
}

// stopAndDrain follows the time.Timer.Stop contract so a fired timer cannot
// leak its tick into a later round.
func stopAndDrain(timer clockwork.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.Chan():
		default:
		}
	}
}
