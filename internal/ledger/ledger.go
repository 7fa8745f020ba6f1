package ledger

import (
	"log"
	"strconv"

	"startlights/internal/reaction"
)

// BestKey is the durable storage key holding the all-time best reaction
// time as a plain numeric string.
const BestKey = "best"

// HistorySize caps the visible attempt window.
const HistorySize = 10

// Storage is the durable key-value capability backing the best score.
// Implementations must be safe for concurrent use.
type Storage interface {
	Get(key string) (string, bool)
	Set(key, value string) error
}

// Ledger keeps the bounded, newest-first attempt history and the persisted
// best score. It is not internally synchronized; callers serialize access.
type Ledger struct {
	store   Storage
	history []reaction.Attempt
	best    *int
}

// New loads the persisted best score. A missing or non-numeric value means
// no best yet.
func New(store Storage) *Ledger {
	l := &Ledger{store: store}
	if v, ok := store.Get(BestKey); ok {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			l.best = &n
		}
	}
	return l
}

// Record prepends the attempt, keeping at most HistorySize entries, and
// returns the updated history and best. A valid attempt that strictly beats
// the best is persisted; a write failure is logged and the in-memory best
// for this session stands.
func (l *Ledger) Record(a reaction.Attempt) ([]reaction.Attempt, *int) {
	l.history = append([]reaction.Attempt{a}, l.history...)
	if len(l.history) > HistorySize {
		l.history = l.history[:HistorySize]
	}
	if !a.JumpStart && a.ElapsedMs != nil && (l.best == nil || *a.ElapsedMs < *l.best) {
		best := *a.ElapsedMs
		l.best = &best
		if err := l.store.Set(BestKey, strconv.Itoa(best)); err != nil {
			log.Printf("[Ledger] persisting best: %v\n", err)
		}
	}
	return l.History(), l.Best()
}

// History returns a copy of the attempt window, newest first.
func (l *Ledger) History() []reaction.Attempt {
	h := make([]reaction.Attempt, len(l.history))
	copy(h, l.history)
	return h
}

func (l *Ledger) Best() *int {
	if l.best == nil {
		return nil
	}
	b := *l.best
	return &b
}

// AverageOfValid is the mean reaction time over the non-jump-start attempts
// currently in the window. Recomputed on demand so it always matches what
// the window shows. The second return is false when the window holds no
// valid attempt.
func (l *Ledger) AverageOfValid() (float64, bool) {
	sum, n := 0, 0
	for _, a := range l.history {
		if !a.JumpStart && a.ElapsedMs != nil {
			sum += *a.ElapsedMs
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return float64(sum) / float64(n), true
}
