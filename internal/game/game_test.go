package game

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"startlights/internal/events"
	"startlights/internal/ledger"
	"startlights/internal/reaction"
	"startlights/internal/sequence"
)

func newTestGame(bus *events.Bus) (*Game, *clockwork.FakeClock) {
	clock := clockwork.NewFakeClock()
	cfg := sequence.Config{
		TickInterval:  16 * time.Millisecond,
		LightInterval: time.Second,
		MinDelay:      time.Second,
		MaxDelay:      5 * time.Second,
	}
	// Pinned random source: lights-out delay = 1s + 0.5*4s = 3s.
	seq := sequence.New(cfg, clock, func() float64 { return 0.5 })
	rec := reaction.NewRecorder(8)
	led := ledger.New(ledger.NewMemStorage())
	return New(seq, rec, led, bus, clock), clock
}

func waitFor(t *testing.T, msg string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", msg)
}

// advanceToAllLit walks the fake clock through the five lights.
func advanceToAllLit(t *testing.T, g *Game, clock *clockwork.FakeClock) {
	t.Helper()
	clock.BlockUntil(1)
	clock.Advance(16 * time.Millisecond)
	waitFor(t, "first light", func() bool { return g.Progress() == 1 })
	clock.Advance(984 * time.Millisecond)
	waitFor(t, "second light", func() bool { return g.Progress() == 2 })
	for want := 3; want <= 5; want++ {
		clock.Advance(time.Second)
		k := want
		waitFor(t, "next light", func() bool { return g.Progress() == k })
	}
}

func advanceToLightsOut(t *testing.T, g *Game, clock *clockwork.FakeClock) {
	t.Helper()
	advanceToAllLit(t, g, clock)
	if g.State() != StateWaiting {
		t.Fatalf("state with all lights lit = %q, want %q", g.State(), StateWaiting)
	}
	clock.BlockUntil(2)
	clock.Advance(3 * time.Second)
	waitFor(t, "lights out", func() bool { return g.State() == StateReacting })
}

func TestNew_StartsIdle(t *testing.T) {
	g, _ := newTestGame(nil)
	if g.State() != StateIdle {
		t.Errorf("initial state = %q, want %q", g.State(), StateIdle)
	}
	if g.Progress() != 0 {
		t.Errorf("initial progress = %d, want 0", g.Progress())
	}
}

func TestFullRound_TimedReaction(t *testing.T) {
	g, clock := newTestGame(nil)

	g.Begin()
	if g.State() != StateCountdown {
		t.Fatalf("state after Begin = %q, want %q", g.State(), StateCountdown)
	}

	advanceToLightsOut(t, g, clock)
	if g.Progress() != 0 {
		t.Errorf("progress at lights out = %d, want 0", g.Progress())
	}

	// React 205.3ms after lights out; compensation is 8ms.
	clock.Advance(205300 * time.Microsecond)
	g.React()

	snap := g.Snapshot()
	if snap.State != StateResult {
		t.Fatalf("state after reaction = %q, want %q", snap.State, StateResult)
	}
	if snap.LastAttempt == nil || snap.LastAttempt.ElapsedMs == nil {
		t.Fatal("expected a timed attempt")
	}
	if *snap.LastAttempt.ElapsedMs != 197 {
		t.Errorf("elapsed = %d, want 197", *snap.LastAttempt.ElapsedMs)
	}
	if snap.BestMs == nil || *snap.BestMs != 197 {
		t.Errorf("best = %v, want 197", snap.BestMs)
	}
	if len(snap.History) != 1 {
		t.Errorf("history length = %d, want 1", len(snap.History))
	}
}

func TestReact_DuringCountdownIsJumpStart(t *testing.T) {
	g, clock := newTestGame(nil)

	g.Begin()
	clock.BlockUntil(1)
	clock.Advance(16 * time.Millisecond)
	waitFor(t, "first light", func() bool { return g.Progress() == 1 })

	g.React()

	snap := g.Snapshot()
	if snap.State != StateResult {
		t.Fatalf("state = %q, want %q", snap.State, StateResult)
	}
	if snap.LastAttempt == nil || !snap.LastAttempt.JumpStart {
		t.Fatal("expected a jump-start attempt")
	}
	if snap.LastAttempt.ElapsedMs != nil {
		t.Errorf("jump start elapsed = %d, want nil", *snap.LastAttempt.ElapsedMs)
	}
	if snap.BestMs != nil {
		t.Errorf("best = %d after jump start, want nil", *snap.BestMs)
	}

	// Any late sequencer callback must not revive the finished round.
	clock.Advance(time.Minute)
	time.Sleep(10 * time.Millisecond)
	if g.State() != StateResult {
		t.Errorf("state after stale timers = %q, want %q", g.State(), StateResult)
	}
	if g.Progress() != 0 {
		t.Errorf("progress after stale timers = %d, want 0", g.Progress())
	}
}

func TestReact_DuringWaitingIsJumpStart(t *testing.T) {
	g, clock := newTestGame(nil)

	g.Begin()
	advanceToAllLit(t, g, clock)

	g.React()

	snap := g.Snapshot()
	if snap.LastAttempt == nil || !snap.LastAttempt.JumpStart {
		t.Fatal("reaction before lights out should be a jump start")
	}
	if snap.State != StateResult {
		t.Errorf("state = %q, want %q", snap.State, StateResult)
	}
}

func TestBegin_ReentryIsNoOp(t *testing.T) {
	g, clock := newTestGame(nil)

	g.Begin()
	clock.BlockUntil(1)
	clock.Advance(16 * time.Millisecond)
	waitFor(t, "first light", func() bool { return g.Progress() == 1 })

	g.Begin()

	if g.State() != StateCountdown {
		t.Errorf("state after re-entrant Begin = %q, want %q", g.State(), StateCountdown)
	}
	if g.Progress() != 1 {
		t.Errorf("progress after re-entrant Begin = %d, want 1", g.Progress())
	}

	// The round continues undisturbed.
	clock.Advance(984 * time.Millisecond)
	waitFor(t, "second light", func() bool { return g.Progress() == 2 })
}

func TestReact_InIdleStartsRound(t *testing.T) {
	g, _ := newTestGame(nil)

	g.React()

	snap := g.Snapshot()
	if snap.State != StateCountdown {
		t.Errorf("state = %q, want %q", snap.State, StateCountdown)
	}
	if len(snap.History) != 0 {
		t.Errorf("history length = %d, want 0 (no attempt recorded)", len(snap.History))
	}
}

func TestReact_InResultStartsNextRound(t *testing.T) {
	g, clock := newTestGame(nil)

	g.Begin()
	advanceToLightsOut(t, g, clock)
	clock.Advance(200 * time.Millisecond)
	g.React()
	if g.State() != StateResult {
		t.Fatalf("state = %q, want %q", g.State(), StateResult)
	}

	g.React()

	snap := g.Snapshot()
	if snap.State != StateCountdown {
		t.Errorf("state = %q, want %q", snap.State, StateCountdown)
	}
	if len(snap.History) != 1 {
		t.Errorf("history length = %d, want 1 (signal started a round, not an attempt)", len(snap.History))
	}
}

func TestBegin_BlockedWhileCalibrating(t *testing.T) {
	g, _ := newTestGame(nil)
	g.SetCalibrating(true)

	g.Begin()
	if g.State() != StateIdle {
		t.Errorf("state = %q while calibrating, want %q", g.State(), StateIdle)
	}

	g.SetCalibrating(false)
	g.Begin()
	if g.State() != StateCountdown {
		t.Errorf("state = %q after calibration, want %q", g.State(), StateCountdown)
	}
}

func TestSetCompensation_AppearsInSnapshot(t *testing.T) {
	g, _ := newTestGame(nil)
	g.SetCompensation(4.5)

	if snap := g.Snapshot(); snap.CompensationMs != 4.5 {
		t.Errorf("CompensationMs = %v, want 4.5", snap.CompensationMs)
	}
}

func TestReset_AbortsRoundWithoutAttempt(t *testing.T) {
	g, clock := newTestGame(nil)

	g.Begin()
	clock.BlockUntil(1)
	clock.Advance(16 * time.Millisecond)
	waitFor(t, "first light", func() bool { return g.Progress() == 1 })

	g.Reset()

	snap := g.Snapshot()
	if snap.State != StateIdle {
		t.Errorf("state = %q, want %q", snap.State, StateIdle)
	}
	if snap.Progress != 0 {
		t.Errorf("progress = %d, want 0", snap.Progress)
	}
	if len(snap.History) != 0 {
		t.Errorf("history length = %d, want 0", len(snap.History))
	}
}

func TestBegin_EmitsStateChange(t *testing.T) {
	bus := events.NewBus()
	g, _ := newTestGame(bus)

	go g.Begin()

	select {
	case ev := <-bus.StateChanges:
		if ev.State != string(StateCountdown) {
			t.Errorf("event state = %q, want %q", ev.State, StateCountdown)
		}
	case <-time.After(1 * time.Second):
		t.Fatal("timed out waiting for state change event")
	}
}
