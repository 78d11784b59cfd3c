package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// handleTracker upgrades the connection and feeds tracker messages into the
// session until the client goes away.
func (s *Server) handleTracker(w http.ResponseWriter, r *http.Request) {
	s.trackers.Add(1)
	defer s.trackers.Done()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrade failed", zap.Error(err))
		return
	}

	c := s.hub.subscribe()
	writerDone := make(chan struct{})
	go s.writeLoop(conn, c, writerDone)
	defer func() {
		s.hub.unsubscribe(c)
		<-writerDone
		conn.Close()
	}()

	ctx := r.Context()
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("tracker read failed", zap.Error(err))
			}
			return
		}

		var msg inbound
		if err := json.Unmarshal(payload, &msg); err != nil {
			s.logger.Warn("discarding malformed tracker message", zap.Error(err))
			s.hub.deliver(c, outbound{Type: msgError, Error: "malformed message"})
			continue
		}

		if !s.dispatch(ctx, c, msg) {
			return
		}
	}
}

// dispatch handles one tracker message. It reports false when the session
// is gone and the connection should close.
func (s *Server) dispatch(ctx context.Context, c *client, msg inbound) bool {
	step := msg.step()
	switch msg.Type {
	case msgFrame:
		if err := step.CheckSurfaces(); err != nil {
			s.hub.deliver(c, outbound{Type: msgError, Error: err.Error()})
			return true
		}
		res, err := s.sess.SubmitFrame(ctx, step.Frame())
		if err != nil {
			s.hub.deliver(c, outbound{Type: msgError, Error: err.Error()})
			return false
		}
		s.hub.deliver(c, outbound{Type: msgFrameAck, Frame: &res})
	case msgTap:
		if len(msg.Point) != 3 {
			s.hub.deliver(c, outbound{Type: msgError, Error: "tap point must be [x, y, z]"})
			return true
		}
		res, err := s.sess.Tap(ctx, step.TapPoint())
		if err != nil {
			s.hub.deliver(c, outbound{Type: msgError, Error: err.Error()})
			return false
		}
		s.hub.deliver(c, outbound{Type: msgTapResult, Tap: &res})
	default:
		s.logger.Debug("unknown tracker message", zap.String("type", msg.Type))
		s.hub.deliver(c, outbound{Type: msgError, Error: "unknown message type " + msg.Type})
	}
	return true
}

// writeLoop is the only writer on conn. It exits when the hub closes c.send,
// and closing conn on the way out unblocks the handler's read loop.
func (s *Server) writeLoop(conn *websocket.Conn, c *client, done chan<- struct{}) {
	defer close(done)
	defer conn.Close()
	for data := range c.send {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			s.logger.Debug("tracker write failed", zap.Error(err))
			return
		}
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
