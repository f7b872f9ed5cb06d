package http

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

// ServeWS streams leaderboard snapshots to a moderator screen. The first
// message is the current board; every committed answer or completion pushes
// a fresh one. The client sends nothing; its read side only signals close.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizID, err := strconv.ParseInt(r.URL.Query().Get("quizId"), 10, 64)
	if err != nil || quizID <= 0 {
		http.Error(w, "quizId must be a positive integer", http.StatusBadRequest)
		return
	}

	updates, cancel, err := h.service.Subscribe(r.Context(), quizID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		cancel()
		log.Printf("ws upgrade failed: %v", err)
		return
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		// Drain until the peer closes so we notice disconnects promptly.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case lb, ok := <-updates:
			if !ok {
				cancel()
				conn.Close()
				<-done
				return
			}
			if err := conn.WriteJSON(outboundMessage[any]{Type: "leaderboard", Payload: lb}); err != nil {
				log.Printf("ws write error: %v", err)
				cancel()
				conn.Close()
				<-done
				return
			}
		case <-done:
			cancel()
			conn.Close()
			return
		}
	}
}
