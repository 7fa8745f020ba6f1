package sessions

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"startlights/internal/broadcast"
	"startlights/internal/calibrate"
	"startlights/internal/events"
	"startlights/internal/game"
	"startlights/internal/ledger"
	"startlights/internal/reaction"
	"startlights/internal/sequence"
	"startlights/internal/wshub"
)

const staleTTL = 1 * time.Hour

type Config struct {
	Sequence          sequence.Config
	CalibrationTrials int
	LatencyBufferMs   float64
}

// Store owns the live sessions and the process-wide latency calibration.
// Calibration runs once, in the background, before any game becomes
// interactive; sessions created while it is still running start in
// calibrating mode and unlock when the measurement lands.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	cfg      Config
	storage  ledger.Storage
	clock    clockwork.Clock

	calDone chan struct{}
	compMs  float64 // written once before calDone closes
}

func NewStore(cfg Config, storage ledger.Storage, clock clockwork.Clock) *Store {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if storage == nil {
		storage = ledger.NewMemStorage()
	}
	s := &Store{
		sessions: make(map[string]*Session),
		cfg:      cfg,
		storage:  storage,
		clock:    clock,
		calDone:  make(chan struct{}),
	}
	go func() {
		cal := calibrate.New(cfg.CalibrationTrials, cfg.LatencyBufferMs, clock)
		s.compMs = cal.Calibrate(context.Background())
		close(s.calDone)
		log.Printf("[Sessions] latency compensation: %.2fms\n", s.compMs)
	}()
	go s.sweepStale()
	return s
}

// CompensationMs blocks until calibration finishes, then reports the
// measured value.
func (s *Store) CompensationMs() float64 {
	<-s.calDone
	return s.compMs
}

func (s *Store) Create(clientID string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Try up to 10 times to generate a unique code
	for i := 0; i < 10; i++ {
		code, err := GenerateCode()
		if err != nil {
			return nil, fmt.Errorf("generating session code: %w", err)
		}
		if _, exists := s.sessions[code]; exists {
			continue
		}

		bus := events.NewBus()
		rec := reaction.NewRecorder(0)
		seq := sequence.New(s.cfg.Sequence, s.clock, rand.Float64)
		led := ledger.New(s.storage)
		g := game.New(seq, rec, led, bus, s.clock)
		b := broadcast.NewBroadcaster(bus)

		session := &Session{
			Code:        code,
			Game:        g,
			Broadcaster: b,
			Hub:         wshub.NewHub(),
			CreatedAt:   time.Now(),
			ClientID:    clientID,
		}
		s.sessions[code] = session

		select {
		case <-s.calDone:
			g.SetCompensation(s.compMs)
		default:
			g.SetCalibrating(true)
			go func() {
				<-s.calDone
				g.SetCompensation(s.compMs)
				g.SetCalibrating(false)
			}()
		}

		return session, nil
	}
	return nil, fmt.Errorf("failed to generate unique session code after 10 attempts")
}

func (s *Store) Get(code string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[code]
}

func (s *Store) Delete(code string) {
	s.mu.Lock()
	session := s.sessions[code]
	delete(s.sessions, code)
	s.mu.Unlock()
	if session != nil {
		session.Game.Reset()
	}
}

func (s *Store) List() []*Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]*Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		list = append(list, session)
	}
	return list
}

func (s *Store) sweepStale() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		s.mu.Lock()
		now := time.Now()
		var stale []*Session
		for code, session := range s.sessions {
			if now.Sub(session.CreatedAt) > staleTTL {
				stale = append(stale, session)
				delete(s.sessions, code)
			}
		}
		s.mu.Unlock()
		// Reset outside the lock; stopping a sequencer can contend with
		// its callbacks.
		for _, session := range stale {
			session.Game.Reset()
		}
	}
}
