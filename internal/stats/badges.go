package stats

type BadgeID string

const (
	BadgeSuperhuman BadgeID = "superhuman"  // best under 150ms
	BadgeSub200     BadgeID = "sub_200"     // best under 200ms
	BadgeConsistent BadgeID = "consistent"  // 10+ valid attempts averaging under 300ms
	BadgeCleanSheet BadgeID = "clean_sheet" // 10+ attempts, zero jump starts
)

type Badge struct {
	ID          BadgeID
	Name        string
	Description string
}

var AllBadges = map[BadgeID]Badge{
	BadgeSuperhuman: {ID: BadgeSuperhuman, Name: "Superhuman", Description: "Reaction under 150ms"},
	BadgeSub200:     {ID: BadgeSub200, Name: "Sub-200 Club", Description: "Reaction under 200ms"},
	BadgeConsistent: {ID: BadgeConsistent, Name: "Consistent", Description: "10+ reactions averaging under 300ms"},
	BadgeCleanSheet: {ID: BadgeCleanSheet, Name: "Clean Sheet", Description: "10+ rounds without a jump start"},
}

// EvaluateSessionBadges checks which badges a session's results earn.
func EvaluateSessionBadges(s SessionSummary) []Badge {
	var earned []Badge

	if s.Valid > 0 && s.BestMs < 150 {
		earned = append(earned, AllBadges[BadgeSuperhuman])
	}

	if s.Valid > 0 && s.BestMs < 200 {
		earned = append(earned, AllBadges[BadgeSub200])
	}

	if s.Valid >= 10 && s.AvgMs > 0 && s.AvgMs < 300 {
		earned = append(earned, AllBadges[BadgeConsistent])
	}

	if s.Attempts >= 10 && s.JumpStarts == 0 {
		earned = append(earned, AllBadges[BadgeCleanSheet])
	}

	return earned
}
