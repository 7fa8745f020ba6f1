package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"startlights/internal/db"
	"startlights/internal/game"
	"startlights/internal/sessions"
	"startlights/internal/stats"
)

type Server struct {
	Sessions      *sessions.Store
	DB            *db.DB                // nil if no database configured
	Stats         *stats.Queries        // nil if no database configured
	AttemptBuffer chan db.AttemptRecord // nil if no database configured
}

type attemptView struct {
	ElapsedMs  *int      `json:"elapsedMs,omitempty"`
	JumpStart  bool      `json:"jumpStart"`
	RecordedAt time.Time `json:"recordedAt"`
}

// snapshotView is the wire form of the read-only game snapshot.
type snapshotView struct {
	State          string        `json:"state"`
	Progress       int           `json:"progress"`
	Calibrating    bool          `json:"calibrating"`
	CompensationMs float64       `json:"compensationMs"`
	ElapsedMs      *int          `json:"elapsedMs,omitempty"`
	JumpStart      bool          `json:"jumpStart,omitempty"`
	AverageMs      *float64      `json:"averageMs,omitempty"`
	BestMs         *int          `json:"bestMs,omitempty"`
	History        []attemptView `json:"history"`
}

func viewOf(snap game.Snapshot) snapshotView {
	v := snapshotView{
		State:          string(snap.State),
		Progress:       snap.Progress,
		Calibrating:    snap.Calibrating,
		CompensationMs: snap.CompensationMs,
		BestMs:         snap.BestMs,
		History:        make([]attemptView, 0, len(snap.History)),
	}
	if snap.LastAttempt != nil {
		v.ElapsedMs = snap.LastAttempt.ElapsedMs
		v.JumpStart = snap.LastAttempt.JumpStart
	}
	if snap.HasAverage {
		avg := snap.AverageMs
		v.AverageMs = &avg
	}
	for _, a := range snap.History {
		v.History = append(v.History, attemptView{ElapsedMs: a.ElapsedMs, JumpStart: a.JumpStart, RecordedAt: a.RecordedAt})
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[Handle] encoding response: %v\n", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// getSession resolves the current session from the session_code cookie.
func (s *Server) getSession(r *http.Request) *sessions.Session {
	cookie, err := r.Cookie("session_code")
	if err != nil {
		return nil
	}
	return s.Sessions.Get(cookie.Value)
}

func clientID(r *http.Request) string {
	if cookie, err := r.Cookie("client_id"); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return ""
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	fmt.Println("[Handle:CreateSession] Request Received")

	id := clientID(r)
	if id == "" {
		id = uuid.New().String()
	}
	session, err := s.Sessions.Create(id)
	if err != nil {
		log.Println(err)
		writeError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}
	s.startSnapshotPump(session)

	http.SetCookie(w, &http.Cookie{
		Name:     "session_code",
		Value:    session.Code,
		Path:     "/",
		HttpOnly: true,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     "client_id",
		Value:    id,
		Path:     "/",
		HttpOnly: true,
	})

	fmt.Printf("[Handle:CreateSession] Created session %s\n", session.Code)
	writeJSON(w, http.StatusOK, map[string]string{"code": session.Code})
}

func (s *Server) handleJoinSession(w http.ResponseWriter, r *http.Request) {
	fmt.Println("[Handle:JoinSession] Request Received")

	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid form")
		return
	}

	code := strings.ToUpper(strings.TrimSpace(r.FormValue("code")))
	session := s.Sessions.Get(code)
	if session == nil {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "session_code",
		Value:    code,
		Path:     "/",
		HttpOnly: true,
	})

	writeJSON(w, http.StatusOK, map[string]string{"code": code})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	session := s.getSession(r)
	if session == nil {
		writeError(w, http.StatusNotFound, "No active session")
		return
	}
	writeJSON(w, http.StatusOK, viewOf(session.Game.Snapshot()))
}

func (s *Server) handleBegin(w http.ResponseWriter, r *http.Request) {
	session := s.getSession(r)
	if session == nil {
		writeError(w, http.StatusNotFound, "No active session")
		return
	}
	session.Game.Begin()
	writeJSON(w, http.StatusOK, viewOf(session.Game.Snapshot()))
}

func (s *Server) handleReact(w http.ResponseWriter, r *http.Request) {
	session := s.getSession(r)
	if session == nil {
		writeError(w, http.StatusNotFound, "No active session")
		return
	}
	snap := s.react(session, clientID(r))
	writeJSON(w, http.StatusOK, viewOf(snap))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "ok", "database": "not configured"}
	if s.DB != nil {
		if err := s.DB.Ping(); err != nil {
			status["database"] = "unreachable"
		} else {
			status["database"] = "ok"
		}
	}
	writeJSON(w, http.StatusOK, status)
}

// react routes the abstract reaction signal into the state machine and, when
// it closed out a round, archives the attempt. The archive write is
// fire-and-forget; a full buffer drops the record rather than stall the
// round.
func (s *Server) react(session *sessions.Session, id string) game.Snapshot {
	session.Game.React()
	snap := session.Game.Snapshot()
	if snap.State == game.StateResult && snap.LastAttempt != nil && s.AttemptBuffer != nil {
		record := db.AttemptRecord{
			SessionCode: session.Code,
			ClientID:    id,
			ElapsedMs:   snap.LastAttempt.ElapsedMs,
			JumpStart:   snap.LastAttempt.JumpStart,
			RecordedAt:  snap.LastAttempt.RecordedAt,
		}
		select {
		case s.AttemptBuffer <- record:
		default:
			log.Println("[Handle:React] attempt buffer full, dropping record")
		}
	}
	return snap
}

// startSnapshotPump forwards state changes to every WebSocket client
// watching the session. One pump per session, running for its lifetime.
func (s *Server) startSnapshotPump(session *sessions.Session) {
	updates := session.Broadcaster.Subscribe()
	go func() {
		for range updates {
			data, err := json.Marshal(viewOf(session.Game.Snapshot()))
			if err != nil {
				log.Printf("[Pump] marshal error: %v\n", err)
				continue
			}
			session.Hub.Broadcast(data)
		}
	}()
}
