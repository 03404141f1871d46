// Package ws is the device WebSocket channel: devices send voice frames and
// receive result frames, audio and pushed playback commands.
package ws

import (
	"context"

	"sleepvoice-server-go/internal/domain/eventbus"
	"sleepvoice-server-go/internal/platform/logging"
	"sleepvoice-server-go/internal/platform/observability"
)

// Outbox is the device messenger the hub delivers for.
type Outbox interface {
	Attach(d eventbus.Deliverer)
	Detach()
}

// Server coordinates the websocket router, hub and device message fan-out.
type Server struct {
	hub    *Hub
	router *Router
	logger *logging.Logger

	outbox Outbox
}

// NewServer builds the transport. Mount Router().Handle on the HTTP engine.
func NewServer(base context.Context, voicer Voicer, logger *logging.Logger, metrics *observability.Metrics, opts RouterOptions) *Server {
	hub := NewHub(logger, metrics)
	return &Server{
		hub:    hub,
		router: NewRouter(base, hub, voicer, logger, opts),
		logger: logger,
	}
}

func (s *Server) Router() *Router { return s.router }

func (s *Server) Hub() *Hub { return s.hub }

// Serve makes the hub the delivery path for outbox messages.
func (s *Server) Serve(outbox Outbox) {
	outbox.Attach(s.hub)
	s.outbox = outbox
}

// Stop detaches from the outbox and closes every session.
func (s *Server) Stop() {
	if s.outbox != nil {
		s.outbox.Detach()
		s.outbox = nil
	}
	s.hub.CloseAll(ErrSessionShutdown)
}
