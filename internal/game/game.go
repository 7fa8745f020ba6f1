package game

import (
	"sync"

	"github.com/jonboulle/clockwork"

	"startlights/internal/events"
	"startlights/internal/ledger"
	"startlights/internal/reaction"
	"startlights/internal/sequence"
)

type State string

const (
	StateIdle      = State("idle")
	StateCountdown = State("countdown")
	StateWaiting   = State("waiting")
	StateReacting  = State("reacting")
	StateResult    = State("result")
)

// Snapshot is the read-only view handed to the presentation layer.
type Snapshot struct {
	State          State
	Progress       int
	LastAttempt    *reaction.Attempt
	CompensationMs float64
	History        []reaction.Attempt
	AverageMs      float64
	HasAverage     bool
	BestMs         *int
	Calibrating    bool
}

// Game is the finite-state controller for one reaction-trainer session. It
// owns the active state, the light progress and the round-active guard; the
// sequencer, recorder and ledger only ever run under its direction.
type Game struct {
	mu          sync.Mutex
	state       State
	progress    int
	roundActive bool
	calibrating bool
	lastAttempt *reaction.Attempt

	clock    clockwork.Clock
	seq      *sequence.Sequencer
	recorder *reaction.Recorder
	ledger   *ledger.Ledger
	bus      *events.Bus // optional; nil for headless use
}

func New(seq *sequence.Sequencer, rec *reaction.Recorder, led *ledger.Ledger, bus *events.Bus, clock clockwork.Clock) *Game {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Game{
		state:    StateIdle,
		clock:    clock,
		seq:      seq,
		recorder: rec,
		ledger:   led,
		bus:      bus,
	}
}

// Begin starts a new round. It is a no-op while calibration is running or a
// round is already in progress.
func (g *Game) Begin() {
	g.mu.Lock()
	if g.calibrating || g.roundActive {
		g.mu.Unlock()
		return
	}
	// The guard goes up before control is handed to the scheduler, so a
	// re-entrant begin can never double-start a round.
	g.roundActive = true
	g.state = StateCountdown
	g.progress = 0
	g.recorder.Disarm()
	g.seq.Start(g.onProgress, g.onLightsOut)
	g.mu.Unlock()

	g.emit(StateCountdown, 0)
}

// React handles the abstract reaction signal. In Idle or Result it is a
// request to start a new round; during a round it ends the round, as a jump
// start while any light is still pending.
func (g *Game) React() {
	g.mu.Lock()
	switch g.state {
	case StateIdle, StateResult:
		g.mu.Unlock()
		g.Begin()
		return
	}

	// Stop the sequencer first so no pending light or lights-out callback
	// can touch the finished round.
	g.seq.Stop()
	a := g.recorder.React(g.clock.Now())
	g.ledger.Record(a)
	g.lastAttempt = &a
	g.progress = 0
	g.state = StateResult
	g.roundActive = false
	g.mu.Unlock()

	g.emit(StateResult, 0)
}

// Reset aborts any active round and returns to Idle without recording an
// attempt. History and best are untouched.
func (g *Game) Reset() {
	g.mu.Lock()
	g.seq.Stop()
	g.recorder.Disarm()
	g.state = StateIdle
	g.progress = 0
	g.roundActive = false
	g.mu.Unlock()

	g.emit(StateIdle, 0)
}

func (g *Game) onProgress(k int) {
	g.mu.Lock()
	if !g.roundActive || (g.state != StateCountdown && g.state != StateWaiting) {
		g.mu.Unlock()
		return
	}
	if k <= g.progress {
		g.mu.Unlock()
		return
	}
	g.progress = k
	if k == sequence.Lights {
		g.state = StateWaiting
	}
	st, p := g.state, g.progress
	g.mu.Unlock()

	g.emit(st, p)
}

func (g *Game) onLightsOut() {
	g.mu.Lock()
	if !g.roundActive || g.state != StateWaiting {
		g.mu.Unlock()
		return
	}
	g.progress = 0
	g.state = StateReacting
	g.recorder.Arm(g.clock.Now())
	g.mu.Unlock()

	g.emit(StateReacting, 0)
}

func (g *Game) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

func (g *Game) Progress() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.progress
}

// SetCalibrating flips the user-visible calibrating mode that blocks rounds
// until the latency measurement finishes.
func (g *Game) SetCalibrating(on bool) {
	g.mu.Lock()
	g.calibrating = on
	g.mu.Unlock()
}

// SetCompensation installs the measured scheduling-latency compensation.
func (g *Game) SetCompensation(ms float64) {
	g.mu.Lock()
	g.recorder.CompensationMs = ms
	g.mu.Unlock()
}

func (g *Game) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	avg, ok := g.ledger.AverageOfValid()
	return Snapshot{
		State:          g.state,
		Progress:       g.progress,
		LastAttempt:    g.lastAttempt,
		CompensationMs: g.recorder.CompensationMs,
		History:        g.ledger.History(),
		AverageMs:      avg,
		HasAverage:     ok,
		BestMs:         g.ledger.Best(),
		Calibrating:    g.calibrating,
	}
}

func (g *Game) emit(st State, progress int) {
	if g.bus == nil {
		return
	}
	g.bus.StateChanges <- events.StateChangeEvent{State: string(st), Progress: progress}
}
