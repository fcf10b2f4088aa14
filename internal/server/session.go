package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/elpatron68/side-launcher/internal/auth"
	"github.com/elpatron68/side-launcher/internal/message"
)

const (
	writeWait   = 10 * time.Second
	pongWait    = 60 * time.Second
	pingPeriod  = pongWait * 9 / 10
	sendBacklog = 64
)

var errSessionClosed = errors.New("session closed")

// wsSession is one websocket UI. It implements launcher.Session.
type wsSession struct {
	conn     *websocket.Conn
	username string
	send     chan []byte
	done     chan struct{}
	once     sync.Once
}

func newSession(conn *websocket.Conn, username string) *wsSession {
	return &wsSession{
		conn:     conn,
		username: username,
		send:     make(chan []byte, sendBacklog),
		done:     make(chan struct{}),
	}
}

func (c *wsSession) Send(m message.Outbound) error {
	data, err := message.Encode(m)
	if err != nil {
		return err
	}
	select {
	case <-c.done:
		return errSessionClosed
	default:
	}
	select {
	case c.send <- data:
		return nil
	case <-c.done:
		return errSessionClosed
	}
}

func (c *wsSession) close() {
	c.once.Do(func() { close(c.done) })
}

func (c *wsSession) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case data := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.close()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		case <-c.done:
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		}
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade: %v", err)
		return
	}
	username, _ := auth.UsernameFromRequest(r)
	sess := newSession(conn, username)
	s.addSession(sess)
	defer s.removeSession(sess)
	go sess.writePump()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := s.engine.Publish(ctx, sess); err != nil {
		s.logger.Warn("initial publish: %v", err)
	}

	conn.SetReadLimit(64 << 10)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("websocket read: %v", err)
			}
			return
		}
		msg, err := message.DecodeInbound(data)
		if err != nil {
			s.logger.Warn("websocket message from %s: %v", username, err)
			continue
		}
		if run, ok := msg.(message.RunCommand); ok {
			s.logger.Info("%s: run %q", username, run.Command)
		}
		if err := s.engine.Handle(ctx, sess, msg); err != nil {
			s.logger.Warn("handle %T: %v", msg, err)
		}
	}
}

func (s *Server) addSession(c *wsSession) {
	s.sessMu.Lock()
	defer s.sessMu.Unlock()
	s.sessions[c] = struct{}{}
}

func (s *Server) removeSession(c *wsSession) {
	s.sessMu.Lock()
	delete(s.sessions, c)
	s.sessMu.Unlock()
	c.close()
}

// Broadcast sends m to every connected session.
func (s *Server) Broadcast(m message.Outbound) {
	s.sessMu.Lock()
	targets := make([]*wsSession, 0, len(s.sessions))
	for c := range s.sessions {
		targets = append(targets, c)
	}
	s.sessMu.Unlock()
	for _, c := range targets {
		if err := c.Send(m); err != nil {
			s.logger.Debug("broadcast to %s: %v", c.username, err)
		}
	}
}

// SessionCount is the number of connected websocket sessions.
func (s *Server) SessionCount() int {
	s.sessMu.Lock()
	defer s.sessMu.Unlock()
	return len(s.sessions)
}

// Close disconnects every session.
func (s *Server) Close() {
	s.sessMu.Lock()
	defer s.sessMu.Unlock()
	for c := range s.sessions {
		c.close()
	}
}
