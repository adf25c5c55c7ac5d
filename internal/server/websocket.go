package server

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zeusync/rigidsim/internal/core/observability/log"
	"github.com/zeusync/rigidsim/internal/simulation"
)

// handleStream upgrades the request and streams every broadcast frame as a
// JSON text message, starting with the latest frame. Frames the client cannot
// keep up with are dropped by the source.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("Websocket upgrade failed",
			log.String("remote_addr", r.RemoteAddr),
			log.Error(err))
		return
	}

	id, frames, err := s.source.Subscribe(s.config.SubscriberBuffer)
	if err != nil {
		s.logger.Error("Failed to subscribe client", log.Error(err))
		msg := websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "simulation unavailable")
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(s.config.WriteTimeout))
		_ = conn.Close()
		return
	}

	session := &ClientSession{ID: id, Conn: conn, ConnectedAt: time.Now()}
	s.clients.Store(id, session)
	atomic.AddInt64(&s.clientCount, 1)

	clientLogger := s.logger.With(log.String("client_id", id))
	clientLogger.Info("Client connected",
		log.String("remote_addr", conn.RemoteAddr().String()),
		log.Int64("total_clients", atomic.LoadInt64(&s.clientCount)))

	defer func() {
		s.unsubscribe(session)
		s.clients.Delete(id)
		atomic.AddInt64(&s.clientCount, -1)
		_ = conn.Close()
		clientLogger.Info("Client disconnected",
			log.Duration("connected_for", time.Since(session.ConnectedAt)),
			log.Int64("total_clients", atomic.LoadInt64(&s.clientCount)))
	}()

	go s.readPump(session)

	if err := s.writeFrame(conn, s.source.Latest()); err != nil {
		clientLogger.Debug("Failed to send initial frame", log.Error(err))
		return
	}
	for frame := range frames {
		if err := s.writeFrame(conn, frame); err != nil {
			clientLogger.Debug("Failed to send frame", log.Uint64("tick", frame.Tick), log.Error(err))
			return
		}
	}
}

// readPump discards client messages and ends the subscription once the
// connection fails or the client closes it.
func (s *Server) readPump(session *ClientSession) {
	defer s.unsubscribe(session)
	for {
		if _, _, err := session.Conn.NextReader(); err != nil {
			return
		}
	}
}

func (s *Server) unsubscribe(session *ClientSession) {
	session.stop.Do(func() {
		_ = s.source.Unsubscribe(session.ID)
	})
}

func (s *Server) writeFrame(conn *websocket.Conn, frame simulation.Frame) error {
	if err := conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout)); err != nil {
		return err
	}
	return conn.WriteJSON(frame)
}
