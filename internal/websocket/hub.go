// Clickboard - Feature Click Analytics Dashboard Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clickboard

// Package websocket streams dashboard views to connected plotting clients.
//
// The Hub fans each published dashboard.View out to every client as a
// dashboard_state message, or logged_out once the session has logged out.
// A client that connects late is sent the most recent message first, so it
// never renders an empty chart while waiting for the next change.
package websocket

import (
	"context"
	"sort"
	"sync"

	"github.com/tomtom215/clickboard/internal/dashboard"
	"github.com/tomtom215/clickboard/internal/logging"
	"github.com/tomtom215/clickboard/internal/metrics"
)

// ShutdownReason identifies why the hub stopped.
type ShutdownReason string

const (
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// Message types.
const (
	MessageTypeDashboardState = "dashboard_state"
	MessageTypeLoggedOut      = "logged_out"
	MessageTypePing           = "ping"
	MessageTypePong           = "pong"
)

// Message is one WebSocket frame.
type Message struct {
	Type string      `json:"type"`
	Data any    `json:"data"`
}

// MessageForView wraps v in the message type matching its status.
func MessageForView(v dashboard.View) Message {
	typ := MessageTypeDashboardState
	if v.Status == dashboard.StatusLoggedOut {
		typ = MessageTypeLoggedOut
	}
	return Message{Type: typ, Data: v}
}

// Hub maintains the set of active clients and broadcasts to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Message
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex

	last *Message // replayed to clients on register

	done     chan struct{}
	doneOnce sync.Once
}

// NewHub creates a Hub. RunWithContext must be running for it to do anything.
func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan Message, 64),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		done:       make(chan struct{}),
	}
}

// Done is closed once the hub has stopped. A Hub is not restartable.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// RunWithContext serves register, unregister and broadcast events until ctx
// is done, then closes every client and returns ctx.Err().
//
// Shutdown is checked first, then lifecycle events, then broadcasts, so a
// client registered before a broadcast is queued always receives it.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		default:
		}

		select {
		case client := <-h.Register:
			h.addClient(client)
			continue
		case client := <-h.Unregister:
			h.removeClient(client)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		case client := <-h.Register:
			h.addClient(client)
		case client := <-h.Unregister:
			h.removeClient(client)
		case message := <-h.broadcast:
			h.broadcastToClients(message)
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	if h.last != nil {
		client.offer(*h.last)
	}
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnections.Set(float64(total))
	logging.Info().Uint64("client_id", client.id).Int("total_clients", total).Msg("websocket client connected")
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	h.drop(client)
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnections.Set(float64(total))
	logging.Info().Uint64("client_id", client.id).Int("total_clients", total).Msg("websocket client disconnected")
}

func (h *Hub) shutdown(ctx context.Context) {
	h.doneOnce.Do(func() { close(h.done) })
	count := h.GetClientCount()
	h.closeAllClients()
	metrics.WSConnections.Set(0)

	reason := ShutdownReasonContextCanceled
	if ctx.Err() == context.DeadlineExceeded {
		reason = ShutdownReasonContextDeadline
	}
	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", string(reason)).
		Int("clients_closed", count).
		Msg("websocket hub stopped")
}

// sortedClients returns clients in connection order. Caller holds mu.
func (h *Hub) sortedClients() []*Client {
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})
	return clients
}

// broadcastToClients delivers message to every client. A client whose
// buffer is full is dropped.
func (h *Hub) broadcastToClients(message Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.last = &message

	dropped := 0
	for _, client := range h.sortedClients() {
		if !client.offer(message) {
			h.drop(client)
			dropped++
			logging.Warn().Uint64("client_id", client.id).Msg("dropping slow websocket client")
		}
	}
	if dropped > 0 {
		metrics.WSConnections.Set(float64(len(h.clients)))
	}
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, client := range h.sortedClients() {
		h.drop(client)
	}
}

// drop closes client's queue so its writePump exits. Caller holds mu.
func (h *Hub) drop(client *Client) {
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
}

// Broadcast queues message for every client. It drops the message when the
// queue is full.
func (h *Hub) Broadcast(message Message) {
	select {
	case h.broadcast <- message:
	default:
		logging.Warn().Str("message_type", message.Type).Msg("broadcast channel full, dropping message")
	}
}

// BroadcastView queues v.
func (h *Hub) BroadcastView(v dashboard.View) {
	h.Broadcast(MessageForView(v))
}

// Relay broadcasts every view received on updates until updates is closed
// or ctx is done.
func (h *Hub) Relay(ctx context.Context, updates <-chan dashboard.View) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case v, ok := <-updates:
			if !ok {
				return nil
			}
			h.BroadcastView(v)
		}
	}
}

// GetClientCount returns the number of connected clients.
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
