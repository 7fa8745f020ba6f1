package reaction

import (
	"math"
	"time"
)

// Attempt is one completed round. ElapsedMs is nil exactly when the round
// ended in a jump start.
type Attempt struct {
	ElapsedMs  *int
	JumpStart  bool
	RecordedAt time.Time
}

// Recorder captures the lights-out instant for the current round and turns a
// reaction signal into a classified Attempt.
type Recorder struct {
	// CompensationMs is subtracted from every raw reaction time to correct
	// for the host's measured scheduling overhead.
	CompensationMs float64

	armed     bool
	lightsOut time.Time
}

func NewRecorder(compensationMs float64) *Recorder {
	return &Recorder{CompensationMs: compensationMs}
}

// Arm records the instant the lights went out.
func (r *Recorder) Arm(t time.Time) {
	r.armed = true
	r.lightsOut = t
}

func (r *Recorder) Armed() bool {
	return r.armed
}

// Disarm clears the lights-out anchor ahead of a new round.
func (r *Recorder) Disarm() {
	r.armed = false
}

// React classifies the reaction signal received at now. A signal arriving
// before the lights have gone out is a jump start. Otherwise the elapsed
// time is compensated and clamped so it is never negative. Time comes only
// from the arguments, so results are reproducible in tests.
func (r *Recorder) React(now time.Time) Attempt {
	if !r.armed {
		return Attempt{JumpStart: true, RecordedAt: now}
	}
	r.armed = false
	raw := float64(now.Sub(r.lightsOut)) / float64(time.Millisecond)
	elapsed := int(math.Round(raw - r.CompensationMs))
	if elapsed < 0 {
		elapsed = 0
	}
	return Attempt{ElapsedMs: &elapsed, RecordedAt: now}
}
