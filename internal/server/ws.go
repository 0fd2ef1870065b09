package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Submissions already accept any origin; the event stream matches.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// joinMessage is the first frame a session sends after connecting.
type joinMessage struct {
	Type  string `json:"type"`
	JobID string `json:"jobId"`
}

// HandleWebSocket handles GET /ws. The client opens the socket, sends a
// join-job frame, and from then on receives every event emitted to that
// job's room. Disconnecting only leaves the room; the pipeline is not
// signalled and keeps running.
func (s *Server) HandleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.WithError(err).Warn("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	conn.SetReadLimit(4096)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	var join joinMessage
	if err := conn.ReadJSON(&join); err != nil {
		s.logger.WithError(err).Debug("WebSocket closed before join")
		return
	}
	if join.Type != "join-job" || join.JobID == "" {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected join-job"),
			time.Now().Add(writeWait))
		return
	}

	sub := s.hub.Join(join.JobID)
	defer s.hub.Leave(sub)

	if s.collector != nil {
		s.collector.RoomSessions.Inc()
		defer s.collector.RoomSessions.Dec()
	}

	log := s.logger.WithFields(logrus.Fields{
		"job_id":          join.JobID,
		"subscription_id": sub.ID,
		"remote":          conn.RemoteAddr().String(),
	})
	log.Info("Session joined job stream")

	// Reader drains incoming frames so pongs and the close handshake are
	// processed; any read error means the peer is gone.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-sub.C:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(event); err != nil {
				log.WithError(err).Debug("Session write failed, leaving room")
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			log.Debug("Session disconnected")
			return
		}
	}
}
