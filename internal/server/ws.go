package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"startlights/internal/wshub"
)

// handleWS upgrades the connection and runs the read loop. Inbound messages
// carry only the abstract input signals ("begin", "react"); the browser is
// responsible for key handling and suppressing default scroll behavior.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	session := s.getSession(r)
	if session == nil {
		writeError(w, http.StatusNotFound, "No active session")
		return
	}

	id := clientID(r)
	if id == "" {
		id = uuid.New().String()
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Printf("[Handle:WS] accept error: %v\n", err)
		return
	}

	client := &wshub.Client{
		ClientID: id,
		Conn:     conn,
		Send:     make(chan []byte, 16),
	}
	session.Hub.Register(client)
	defer session.Hub.Unregister(id)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go client.WritePump(ctx)

	// Greet with the current state so late joiners render immediately.
	if data, err := json.Marshal(viewOf(session.Game.Snapshot())); err == nil {
		select {
		case client.Send <- data:
		default:
		}
	}

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		var msg wshub.ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Printf("[Handle:WS] bad message from %s: %v\n", id, err)
			continue
		}
		switch msg.Type {
		case wshub.MessageBegin:
			session.Game.Begin()
		case wshub.MessageReact:
			s.react(session, id)
		}
	}
}
