package server

import (
	"log"
	"net/http"
	"strconv"
	"strings"
)

func (s *Server) handleGlobalStats(w http.ResponseWriter, r *http.Request) {
	if s.Stats == nil {
		writeError(w, http.StatusServiceUnavailable, "Stats require a database")
		return
	}
	global, err := s.Stats.GetGlobalStats()
	if err != nil {
		log.Println(err)
		writeError(w, http.StatusInternalServerError, "Failed to load stats")
		return
	}
	writeJSON(w, http.StatusOK, global)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if s.Stats == nil {
		writeError(w, http.StatusServiceUnavailable, "Stats require a database")
		return
	}

	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	entries, err := s.Stats.GetLeaderboard(limit)
	if err != nil {
		log.Println(err)
		writeError(w, http.StatusInternalServerError, "Failed to load leaderboard")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleSessionStats(w http.ResponseWriter, r *http.Request) {
	if s.Stats == nil {
		writeError(w, http.StatusServiceUnavailable, "Stats require a database")
		return
	}

	code := strings.ToUpper(strings.TrimPrefix(r.URL.Path, "/stats/session/"))
	if code == "" {
		writeError(w, http.StatusBadRequest, "Missing session code")
		return
	}

	summary, err := s.Stats.GetSessionSummary(code)
	if err != nil {
		log.Println(err)
		writeError(w, http.StatusInternalServerError, "Failed to load session stats")
		return
	}

	// Badge grants are archival; losing one to a db hiccup is acceptable.
	if s.DB != nil {
		if id := clientID(r); id != "" {
			for _, b := range summary.Badges {
				if err := s.DB.AwardBadge(id, string(b.ID), &code); err != nil {
					log.Printf("[Handle:SessionStats] awarding badge: %v\n", err)
				}
			}
		}
	}

	writeJSON(w, http.StatusOK, summary)
}
