package ws

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"sleepvoice-server-go/internal/app/services"
	"sleepvoice-server-go/internal/domain/auth"
	"sleepvoice-server-go/internal/domain/speech"
	"sleepvoice-server-go/internal/platform/logging"
	"sleepvoice-server-go/internal/platform/observability"
	"sleepvoice-server-go/internal/platform/ratelimit"
)

// Voicer is the slice of the voice service a session needs.
type Voicer interface {
	Handle(ctx context.Context, req speech.VoiceRequest, t speech.Transcript, opts services.OutputOptions) (services.Response, error)
}

// RouterOptions configures the websocket router.
type RouterOptions struct {
	HandshakeTimeout time.Duration
	CheckOrigin      func(r *http.Request) bool
	// Authority verifies device tokens; nil reads identity headers instead.
	Authority *auth.TokenAuthority
	Limiter   *ratelimit.Limiter
}

// Router upgrades HTTP connections to device sessions.
type Router struct {
	hub    *Hub
	voicer Voicer
	logger *logging.Logger
	opts   RouterOptions

	upgrader *websocket.Upgrader
	// base outlives individual requests; sessions derive from it.
	base context.Context
}

// NewRouter constructs a websocket router. Sessions are cancelled when base
// is done.
func NewRouter(base context.Context, hub *Hub, voicer Voicer, logger *logging.Logger, opts RouterOptions) *Router {
	upgrader := &websocket.Upgrader{
		CheckOrigin:      opts.CheckOrigin,
		HandshakeTimeout: opts.HandshakeTimeout,
	}
	if upgrader.CheckOrigin == nil {
		upgrader.CheckOrigin = func(r *http.Request) bool { return true }
	}
	if upgrader.HandshakeTimeout <= 0 {
		upgrader.HandshakeTimeout = 10 * time.Second
	}

	return &Router{
		hub:      hub,
		voicer:   voicer,
		logger:   logger,
		opts:     opts,
		upgrader: upgrader,
		base:     base,
	}
}

// Handle authenticates the device, upgrades the connection and launches a
// session.
func (r *Router) Handle(w http.ResponseWriter, req *http.Request) {
	_, spanEnd := observability.StartSpan(req.Context(), "transport.websocket", "handle")
	var spanErr error
	defer func() { spanEnd(spanErr) }()

	identity, err := auth.FromRequest(req, r.opts.Authority)
	if err != nil {
		spanErr = err
		r.logger.WarnTag("WebSocket", "rejected handshake from %s: %v", req.RemoteAddr, err)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		spanErr = err
		r.logger.ErrorTag("WebSocket", "handshake failed: %v", err)
		return
	}
	conn.SetReadLimit(maxFrameBytes)

	sessionID := uuid.NewString()
	wsConn := NewConnection(sessionID, conn)
	session := NewSession(r.base, sessionID, identity, clientIP(req), wsConn, r.voicer, r.opts.Limiter, r.logger)
	r.hub.Register(session)
	r.logger.InfoTag("WebSocket", "session %s opened for device=%s account=%s", sessionID, identity.DeviceID, identity.AccountID)

	go session.Run(func(runErr error) {
		r.hub.Unregister(session)
		if runErr != nil {
			r.logger.WarnTag("WebSocket", "session %s ended abnormally: %v", sessionID, runErr)
			return
		}
		r.logger.InfoTag("WebSocket", "session %s closed", sessionID)
	})
}

func clientIP(req *http.Request) string {
	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		return req.RemoteAddr
	}
	return host
}
