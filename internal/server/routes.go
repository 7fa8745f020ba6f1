package server

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"startlights/internal/config"
	"startlights/internal/db"
	"startlights/internal/ledger"
	"startlights/internal/sequence"
	"startlights/internal/sessions"
	"startlights/internal/stats"
)

func Run() error {
	appCfg := config.Load()

	seqCfg := sequence.Config{
		LightInterval: time.Duration(appCfg.LightIntervalMs) * time.Millisecond,
		MinDelay:      time.Duration(appCfg.LightsOutMinMs) * time.Millisecond,
		MaxDelay:      time.Duration(appCfg.LightsOutMaxMs) * time.Millisecond,
	}

	srv := &Server{}
	var storage ledger.Storage = ledger.NewMemStorage()

	// Optional database connection
	if appCfg.DatabaseURL != "" {
		database, err := db.Connect(appCfg.DatabaseURL)
		if err != nil {
			log.Printf("[DB] Failed to connect: %v (running without database)\n", err)
		} else {
			if err := database.Migrate(); err != nil {
				log.Printf("[DB] Migration failed: %v\n", err)
			}
			srv.DB = database
			srv.Stats = stats.NewQueries(database)
			storage = db.NewKVStore(database)
			srv.AttemptBuffer = make(chan db.AttemptRecord, 1000)
			go attemptBatchWriter(database, srv.AttemptBuffer)
			log.Println("[DB] Database connected and migrations applied")
		}
	} else {
		log.Println("[DB] DATABASE_URL not set, running without database")
	}

	srv.Sessions = sessions.NewStore(sessions.Config{
		Sequence:          seqCfg,
		CalibrationTrials: appCfg.CalibrationTrials,
		LatencyBufferMs:   appCfg.LatencyBufferMs,
	}, storage, nil)

	mux := http.NewServeMux()
	mux.HandleFunc("/sessions/create", srv.handleCreateSession)
	mux.HandleFunc("/sessions/join", srv.handleJoinSession)
	mux.HandleFunc("/session", srv.handleSnapshot)
	mux.HandleFunc("/session/begin", srv.handleBegin)
	mux.HandleFunc("/session/react", srv.handleReact)
	mux.HandleFunc("/session/ws", srv.handleWS)
	mux.HandleFunc("/health", srv.handleHealth)
	mux.HandleFunc("/stats", srv.handleGlobalStats)
	mux.HandleFunc("/stats/leaderboard", srv.handleLeaderboard)
	mux.HandleFunc("/stats/session/", srv.handleSessionStats)

	addr := "0.0.0.0:" + appCfg.Port
	fmt.Printf("Server listening on http://localhost:%s\n", appCfg.Port)
	return http.ListenAndServe(addr, mux)
}

func attemptBatchWriter(database *db.DB, buffer chan db.AttemptRecord) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	batch := make([]db.AttemptRecord, 0, 50)

	for {
		select {
		case a := <-buffer:
			batch = append(batch, a)
			if len(batch) >= 50 {
				if err := database.BatchRecordAttempts(batch); err != nil {
					log.Printf("[DB] BatchRecordAttempts error: %v\n", err)
				}
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				if err := database.BatchRecordAttempts(batch); err != nil {
					log.Printf("[DB] BatchRecordAttempts error: %v\n", err)
				}
				batch = batch[:0]
			}
		}
	}
}
