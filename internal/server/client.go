// Package server manages individual WebSocket clients, handling read/write
// pumps, rate limiting, and lifecycle control for each connection.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Tyrowin/roomcast/internal/chat"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	sendBufferSize = 256
)

// Client is one WebSocket connection. It owns a chat.Session, translates
// inbound commands into session calls, and writes every message the session
// receives back to the socket.
type Client struct {
	conn    *websocket.Conn
	send    chan []byte
	done    chan struct{}
	session *chat.Session
	server  *Server
	addr    string
	log     *slog.Logger

	maxMessageSize int64
	rateLimiter    *rateLimiter
	rateLimit      RateLimitConfig

	closeOnce sync.Once
}

// newClient creates a Client for conn and binds a fresh session to the
// server's hub. The pumps are started by Server.register.
func newClient(conn *websocket.Conn, s *Server, addr string) *Client {
	if conn != nil {
		conn.SetReadLimit(s.cfg.MaxMessageSize)
	}

	c := &Client{
		conn:           conn,
		send:           make(chan []byte, sendBufferSize),
		done:           make(chan struct{}),
		server:         s,
		addr:           addr,
		maxMessageSize: s.cfg.MaxMessageSize,
		rateLimiter:    newRateLimiter(s.cfg.RateLimit),
		rateLimit:      s.cfg.RateLimit,
	}
	c.session = chat.NewSession(s.hub, c.deliver)
	c.log = s.log.With("addr", addr, "session", c.session.ID().String())
	return c
}

// deliver is the session sink: it encodes a delivered message and queues it
// for the write pump. It runs on the hub's delivery goroutine for this client.
func (c *Client) deliver(msg chat.Message) {
	frame, err := frameFromMessage(msg)
	if err != nil {
		c.log.Error("dropping undeliverable message", "seq", msg.Seq(), "error", err)
		return
	}
	c.enqueue(frame)
}

// reply sends an error frame for a rejected command.
func (c *Client) reply(code string, err error) {
	c.server.metrics.CommandRejected(code)
	c.enqueue(errorFrame(code, err.Error()))
}

func (c *Client) enqueue(frame outboundFrame) {
	payload, err := json.Marshal(frame)
	if err != nil {
		c.log.Error("error encoding frame", "error", err)
		return
	}

	select {
	case c.send <- payload:
	case <-c.done:
	}
}

// close ends the session and the connection. Safe to call more than once.
func (c *Client) close() {
	c.closeOnce.Do(func() {
		c.session.Close()
		close(c.done)
		if c.conn != nil {
			if err := c.conn.Close(); err != nil && !isExpectedCloseError(err) {
				c.log.Warn("error closing connection", "error", err)
			}
		}
		c.server.unregister(c)
	})
}

// setupReadConnection configures read deadlines and pong handler for the WebSocket connection
func (c *Client) setupReadConnection() {
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.log.Warn("error setting initial read deadline", "error", err)
	}
	c.conn.SetPongHandler(func(string) error {
		if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			c.log.Warn("error setting read deadline in pong handler", "error", err)
		}
		return nil
	})
}

// logReadError records why the read loop ended, at a level matching how
// surprising the error is.
func (c *Client) logReadError(err error) {
	switch {
	case errors.Is(err, websocket.ErrReadLimit):
		c.log.Warn("message exceeded maximum size", "limit", c.maxMessageSize)
	case websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure):
		c.log.Info("client disconnected", "reason", err)
	case errors.Is(err, io.EOF) || isExpectedCloseError(err):
		c.log.Info("client connection closed", "reason", err)
	case websocket.IsUnexpectedCloseError(err,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure,
		websocket.CloseMessageTooBig):
		c.log.Warn("unexpected websocket error", "error", err)
	default:
		c.log.Warn("websocket read error", "error", err)
	}
}

// checkRateLimit reports whether the client may issue another command.
func (c *Client) checkRateLimit() bool {
	if c.rateLimiter != nil && !c.rateLimiter.allow() {
		c.log.Warn("rate limit exceeded; discarding command",
			"burst", c.rateLimit.Burst,
			"interval", c.rateLimit.RefillInterval)
		return false
	}
	return true
}

// processCommand decodes one inbound frame and applies it to the session.
// Failures are reported to this client only.
func (c *Client) processCommand(raw []byte) {
	frame, err := decodeInbound(raw)
	if err != nil {
		c.log.Info("invalid command", "error", err)
		c.reply(commandErrorCode(err), err)
		return
	}

	switch frame.Type {
	case typeJoin:
		err = c.session.Join(frame.Name)
		if err == nil {
			c.log.Info("client joined", "name", c.session.Name())
		}
	case typeMessage:
		err = c.session.Send(frame.Text)
	}

	if err != nil {
		c.log.Info("command rejected", "type", frame.Type, "error", err)
		c.reply(errorCode(err), err)
	}
}

func (c *Client) readPump() {
	defer c.close()

	c.setupReadConnection()

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			c.logReadError(err)
			return
		}

		if !c.checkRateLimit() {
			c.reply(codeRateLimited, errors.New("too many commands, slow down"))
			continue
		}

		c.processCommand(raw)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for c.processWriteEvent(ticker) {
	}
}

// processWriteEvent waits for the next write event and returns false when the
// pump should stop processing.
func (c *Client) processWriteEvent(ticker *time.Ticker) bool {
	select {
	case message := <-c.send:
		return c.writeTextMessage(message)
	case <-ticker.C:
		return c.handlePing()
	case <-c.done:
		c.writeCloseMessage()
		return false
	}
}

// writeCloseMessage sends a close message to the client
func (c *Client) writeCloseMessage() {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
		if !isExpectedCloseError(err) {
			c.log.Debug("error writing close message", "error", err)
		}
	}
}

// writeTextMessage writes one frame per WebSocket message so clients can
// decode each with a single JSON read.
func (c *Client) writeTextMessage(message []byte) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.log.Warn("error setting write deadline", "error", err)
		return false
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
		if !isExpectedCloseError(err) {
			c.log.Warn("error writing message", "error", err)
		}
		return false
	}
	return true
}

// handlePing sends a ping message to keep the connection alive
func (c *Client) handlePing() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.log.Warn("error setting write deadline for ping", "error", err)
		return false
	}
	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		c.log.Warn("error writing ping message", "error", err)
		return false
	}
	return true
}
