package ws

import (
	"sync"

	"sleepvoice-server-go/internal/domain/eventbus"
	"sleepvoice-server-go/internal/platform/logging"
	"sleepvoice-server-go/internal/platform/observability"
)

// Hub tracks the active websocket sessions, one per device.
type Hub struct {
	logger  *logging.Logger
	metrics *observability.Metrics

	mu       sync.RWMutex
	sessions map[string]*Session // by session id
	devices  map[string]*Session // by device id
}

// NewHub builds a fresh session hub.
func NewHub(logger *logging.Logger, metrics *observability.Metrics) *Hub {
	return &Hub{
		logger:   logger,
		metrics:  metrics,
		sessions: make(map[string]*Session),
		devices:  make(map[string]*Session),
	}
}

// Register adds a session. An older session for the same device is closed.
func (h *Hub) Register(session *Session) {
	if session == nil {
		return
	}
	h.mu.Lock()
	previous := h.devices[session.DeviceID()]
	h.sessions[session.ID()] = session
	h.devices[session.DeviceID()] = session
	if previous != nil {
		delete(h.sessions, previous.ID())
	}
	count := len(h.sessions)
	h.mu.Unlock()

	h.metrics.SetSessions(count)
	if previous != nil {
		h.logger.InfoTag("WebSocket", "device %s reconnected, closing session %s", session.DeviceID(), previous.ID())
		previous.Close(ErrSessionReplaced)
	}
}

// Unregister removes the session from the hub.
func (h *Hub) Unregister(session *Session) {
	if session == nil {
		return
	}
	h.mu.Lock()
	delete(h.sessions, session.ID())
	if h.devices[session.DeviceID()] == session {
		delete(h.devices, session.DeviceID())
	}
	count := len(h.sessions)
	h.mu.Unlock()
	h.metrics.SetSessions(count)
}

// Deliver forwards a device message to the device's session, if connected.
func (h *Hub) Deliver(msg eventbus.DeviceMessage) bool {
	h.mu.RLock()
	session := h.devices[msg.DeviceID]
	h.mu.RUnlock()
	if session == nil {
		h.logger.DebugTag("WebSocket", "device %s not connected, dropped %s", msg.DeviceID, msg.Kind)
		return false
	}
	if err := session.Push(msg); err != nil {
		h.logger.WarnTag("WebSocket", "push %s to %s failed: %v", msg.Kind, msg.DeviceID, err)
		return false
	}
	return true
}

// CloseAll terminates all active sessions.
func (h *Hub) CloseAll(reason error) {
	if reason == nil {
		reason = ErrSessionShutdown
	}

	h.mu.Lock()
	sessions := make([]*Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		sessions = append(sessions, s)
	}
	h.sessions = make(map[string]*Session)
	h.devices = make(map[string]*Session)
	h.mu.Unlock()

	for _, s := range sessions {
		s.Close(reason)
	}
	h.metrics.SetSessions(0)
}

// Count exposes the number of active sessions.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}
