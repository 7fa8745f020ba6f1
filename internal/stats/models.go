package stats

type SessionSummary struct {
	SessionCode string
	Attempts    int
	Valid       int
	JumpStarts  int
	AvgMs       float64
	BestMs      int
	JumpRate    float64 // percentage of attempts that were jump starts
	Badges      []Badge
}

type LeaderboardEntry struct {
	ClientID string
	BestMs   int
	Attempts int
	Rank     int
}

type GlobalStats struct {
	Attempts   int
	Valid      int
	JumpStarts int
	AvgMs      float64
	BestMs     int
}
