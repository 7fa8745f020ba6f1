package calibrate

import (
	"context"
	"sort"
	"time"

	"github.com/jonboulle/clockwork"
)

const (
	DefaultTrials = 20
	minTrials     = 10

	// Each trial arms the shortest timer the runtime will schedule; the
	// overshoot beyond the requested delay is the scheduling overhead.
	trialDelay = time.Millisecond

	runDeadline = 2 * time.Second
)

// Calibrator measures the host's minimum achievable timer delay so that
// reaction times can be corrected for scheduling overhead. It is meant to
// run once, before the game becomes interactive.
type Calibrator struct {
	Trials int

	// BufferMs is an extra margin added on top of the measured median.
	// Default 0; raise it if the render path adds a known constant cost.
	BufferMs float64

	clock clockwork.Clock
}

func New(trials int, bufferMs float64, clock clockwork.Clock) *Calibrator {
	if trials < minTrials {
		trials = DefaultTrials
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Calibrator{Trials: trials, BufferMs: bufferMs, clock: clock}
}

// Calibrate runs the sampling trials and returns the compensation in
// milliseconds, never negative. If the trials cannot finish before ctx is
// done or the run deadline passes, it returns 0 rather than hang.
func (c *Calibrator) Calibrate(ctx context.Context) float64 {
	ctx, cancel := context.WithTimeout(ctx, runDeadline)
	defer cancel()

	samples := make([]float64, 0, c.Trials)
	for i := 0; i < c.Trials; i++ {
		start := c.clock.Now()
		timer := c.clock.NewTimer(trialDelay)
		select {
		case <-timer.Chan():
			overhead := float64(c.clock.Since(start)-trialDelay) / float64(time.Millisecond)
			if overhead < 0 {
				overhead = 0
			}
			samples = append(samples, overhead)
		case <-ctx.Done():
			timer.Stop()
			return 0
		}
	}

	comp := Median(samples) + c.BufferMs
	if comp < 0 {
		comp = 0
	}
	return comp
}

// Median returns the lower-middle element of the sorted samples, which keeps
// the result robust against occasional large scheduler stalls. Even-sized
// inputs take the lower of the two central values rather than their average.
func Median(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	s := make([]float64, len(samples))
	copy(s, samples)
	sort.Float64s(s)
	return s[(len(s)-1)/2]
}
