package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const (
	streamInterval = time.Second
	writeWait      = 5 * time.Second
	pongWait       = 60 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Same origin only; localhost is allowed for development clients.
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if strings.Contains(origin, "://localhost:") || strings.Contains(origin, "://127.0.0.1:") {
			return true
		}
		_, host, ok := strings.Cut(origin, "://")
		return ok && host == r.Host
	},
}

// handleStream pushes the user's clock status once per interval until the
// client goes away.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	id := userID(r)
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade", "user_id", id, "error", err)
		return
	}
	defer conn.Close()

	if s.metrics != nil {
		s.metrics.StreamClients.Inc()
		defer s.metrics.StreamClients.Dec()
	}
	s.log.Debug("stream opened", "user_id", id)

	// The reader only notices the close; clients send nothing.
	done := make(chan struct{})
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(streamInterval)
	defer ticker.Stop()
	ticks := 0
	for {
		st, err := s.sessions.Current(id)
		if err != nil {
			s.log.Error("stream status", "user_id", id, "error", err)
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "status unavailable"),
				time.Now().Add(writeWait))
			return
		}
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(st); err != nil {
			return
		}
		ticks++
		if ticks%int(pongWait/streamInterval/2) == 0 {
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}

		select {
		case <-done:
			s.log.Debug("stream closed", "user_id", id)
			return
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}
	}
}
