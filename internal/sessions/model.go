package sessions

import (
	"time"

	"startlights/internal/broadcast"
	"startlights/internal/game"
	"startlights/internal/wshub"
)

type Session struct {
	Code        string
	Game        *game.Game
	Broadcaster *broadcast.Broadcaster
	Hub         *wshub.Hub
	CreatedAt   time.Time
	ClientID    string
}
