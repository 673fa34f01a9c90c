// Clickboard - Feature Click Analytics Dashboard Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clickboard

package websocket

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/clickboard/internal/logging"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024 // clients only send pings
	sendBuffer     = 16
)

var clientIDCounter atomic.Uint64

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	id   uint64
	hub  *Hub
	conn *websocket.Conn
	send chan Message
}

// NewClient creates a Client with a unique, increasing ID.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		id:   clientIDCounter.Add(1),
		hub:  hub,
		conn: conn,
		send: make(chan Message, sendBuffer),
	}
}

// ID returns the client's identifier.
func (c *Client) ID() uint64 {
	return c.id
}

// leave hands the client back to the hub, or gives up once the hub is gone.
func (c *Client) leave() {
	select {
	case c.hub.Unregister <- c:
	case <-c.hub.Done():
	}
	_ = c.conn.Close()
}

// readPump consumes client frames until the connection fails. Plotting
// clients only ever send pings; anything else is ignored.
func (c *Client) readPump() {
	defer c.leave()

	c.conn.SetReadLimit(maxMessageSize)
	extend := func(string) error { return c.conn.SetReadDeadline(time.Now().Add(pongWait)) }
	if err := extend(""); err != nil {
		logging.Error().Err(err).Uint64("client_id", c.id).Msg("failed to set read deadline")
		return
	}
	c.conn.SetPongHandler(extend)

	for {
		var msg Message
		err := c.conn.ReadJSON(&msg)
		switch {
		case err == nil:
			if msg.Type == MessageTypePing {
				c.offer(Message{Type: MessageTypePong})
			}
		case websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure):
			logging.Warn().Err(err).Uint64("client_id", c.id).Msg("unexpected websocket close")
			return
		default:
			return
		}
	}
}

// offer queues msg unless the client is already backed up.
func (c *Client) offer(msg Message) bool {
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// write sends one frame under the write deadline. A nil msg sends a ping.
func (c *Client) write(msg *Message) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	if msg == nil {
		return c.conn.WriteMessage(websocket.PingMessage, nil)
	}
	return c.conn.WriteJSON(msg)
}

// writePump drains the send queue and pings on an interval. The hub closes
// send when it drops the client.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer c.conn.Close() //nolint:errcheck

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.write(&msg); err != nil {
				logging.Debug().Err(err).Uint64("client_id", c.id).Msg("websocket write failed")
				return
			}
		case <-ticker.C:
			if err := c.write(nil); err != nil {
				return
			}
		}
	}
}

// Start begins reading and writing for the client.
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}

// Handler upgrades requests and attaches them to hub. checkOrigin may be
// nil to accept any origin.
func Handler(hub *Hub, checkOrigin func(r *http.Request) bool) http.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  4096,
		CheckOrigin:      checkOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
	if upgrader.CheckOrigin == nil {
		upgrader.CheckOrigin = func(*http.Request) bool { return true }
	}

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logging.Warn().Err(err).Msg("websocket upgrade failed")
			return
		}
		client := NewClient(hub, conn)
		select {
		case hub.Register <- client:
		case <-hub.Done():
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
			_ = conn.Close()
			return
		}
		client.Start()
	}
}
