package stats

import (
	"fmt"

	"startlights/internal/db"
)

type Queries struct {
	DB *db.DB
}

func NewQueries(database *db.DB) *Queries {
	return &Queries{DB: database}
}

func (q *Queries) GetSessionSummary(sessionCode string) (*SessionSummary, error) {
	s := &SessionSummary{SessionCode: sessionCode}

	err := q.DB.QueryRow(`
		SELECT
			COUNT(*) as attempts,
			COUNT(*) FILTER (WHERE NOT jump_start) as valid,
			COUNT(*) FILTER (WHERE jump_start) as jump_starts,
			COALESCE(AVG(elapsed_ms), 0) as avg_ms,
			COALESCE(MIN(elapsed_ms), 0) as best_ms
		FROM attempts
		WHERE session_code = $1
	`, sessionCode).Scan(&s.Attempts, &s.Valid, &s.JumpStarts, &s.AvgMs, &s.BestMs)
	if err != nil {
		return nil, fmt.Errorf("getting session summary: %w", err)
	}

	if s.Attempts > 0 {
		s.JumpRate = float64(s.JumpStarts) / float64(s.Attempts) * 100
	}
	s.Badges = EvaluateSessionBadges(*s)

	return s, nil
}

func (q *Queries) GetLeaderboard(limit int) ([]LeaderboardEntry, error) {
	rows, err := q.DB.Query(`
		SELECT client_id, MIN(elapsed_ms) as best_ms, COUNT(*) as attempts
		FROM attempts
		WHERE NOT jump_start AND elapsed_ms IS NOT NULL
		GROUP BY client_id
		ORDER BY best_ms ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("getting leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []LeaderboardEntry
	rank := 1
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.ClientID, &e.BestMs, &e.Attempts); err != nil {
			return nil, err
		}
		e.Rank = rank
		rank++
		entries = append(entries, e)
	}
	return entries, nil
}

func (q *Queries) GetGlobalStats() (*GlobalStats, error) {
	g := &GlobalStats{}

	err := q.DB.QueryRow(`
		SELECT
			COUNT(*) as attempts,
			COUNT(*) FILTER (WHERE NOT jump_start) as valid,
			COUNT(*) FILTER (WHERE jump_start) as jump_starts,
			COALESCE(AVG(elapsed_ms), 0) as avg_ms,
			COALESCE(MIN(elapsed_ms), 0) as best_ms
		FROM attempts
	`).Scan(&g.Attempts, &g.Valid, &g.JumpStarts, &g.AvgMs, &g.BestMs)
	if err != nil {
		return nil, fmt.Errorf("getting global stats: %w", err)
	}

	return g, nil
}
