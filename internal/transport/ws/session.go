package ws

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"

	"sleepvoice-server-go/internal/domain/auth"
	"sleepvoice-server-go/internal/domain/eventbus"
	"sleepvoice-server-go/internal/domain/speech"
	platformerrors "sleepvoice-server-go/internal/platform/errors"
	"sleepvoice-server-go/internal/platform/logging"
	"sleepvoice-server-go/internal/platform/ratelimit"
)

const (
	maxFrameBytes = 64 << 10
)

// Session is one connected device. Voice frames are handled in order; each
// reply is a result frame followed by the audio as a binary frame.
type Session struct {
	id       string
	identity auth.Identity
	ip       string
	conn     *Connection
	voicer   Voicer
	limiter  *ratelimit.Limiter
	logger   *logging.Logger

	ctx    context.Context
	cancel context.CancelCauseFunc

	closed atomic.Bool
}

// NewSession constructs a managed websocket session.
func NewSession(parent context.Context, id string, identity auth.Identity, ip string, conn *Connection, voicer Voicer, limiter *ratelimit.Limiter, logger *logging.Logger) *Session {
	sessionCtx, cancel := context.WithCancelCause(parent)
	return &Session{
		id:       id,
		identity: identity,
		ip:       ip,
		conn:     conn,
		voicer:   voicer,
		limiter:  limiter,
		logger:   logger,
		ctx:      sessionCtx,
		cancel:   cancel,
	}
}

// Context returns the session context.
func (s *Session) Context() context.Context {
	return s.ctx
}

// ID exposes the session identifier.
func (s *Session) ID() string {
	return s.id
}

// DeviceID is the device behind the session.
func (s *Session) DeviceID() string {
	return s.identity.DeviceID
}

// Run reads frames until the socket closes or the session is cancelled, then
// invokes onDone.
func (s *Session) Run(onDone func(error)) {
	var runErr error
	defer func() {
		s.Close(runErr)
		if onDone != nil {
			onDone(runErr)
		}
	}()

	if err := s.conn.WriteJSON(ServerFrame{Type: FrameHello, Session: s.id}); err != nil {
		runErr = err
		return
	}

	for {
		messageType, payload, err := s.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) && s.ctx.Err() == nil && !s.conn.IsClosed() {
				runErr = err
			}
			return
		}
		if messageType != websocket.TextMessage {
			s.replyError("", "binary frames are not accepted")
			continue
		}
		if err := s.handleFrame(payload); err != nil {
			runErr = err
			return
		}
	}
}

// handleFrame returns an error only when the socket can no longer be written.
func (s *Session) handleFrame(payload []byte) error {
	var frame ClientFrame
	if err := sonic.Unmarshal(payload, &frame); err != nil {
		return s.replyError("", "invalid frame")
	}

	switch frame.Type {
	case FramePing:
		return s.conn.WriteJSON(ServerFrame{Type: FramePong, ID: frame.ID})
	case FrameVoice:
		return s.handleVoice(frame)
	default:
		return s.replyError(frame.ID, "unknown frame type "+frame.Type)
	}
}

func (s *Session) handleVoice(frame ClientFrame) error {
	if !s.limiter.Allow(s.identity.DeviceID) {
		return s.replyError(frame.ID, "too many requests")
	}

	transcript, err := frame.Transcript.Transcript()
	if err != nil {
		return s.replyError(frame.ID, err.Error())
	}

	req := speech.VoiceRequest{
		AccountID:  s.identity.AccountID,
		DeviceID:   s.identity.DeviceID,
		IP:         s.ip,
		Transcript: transcript.Raw(),
	}
	resp, err := s.voicer.Handle(s.ctx, req, transcript, frame.Options())
	if err != nil {
		s.logger.WarnTag("WebSocket", "voice frame from %s failed: %v", s.identity.DeviceID, err)
		msg := "internal error"
		if platformerrors.IsKind(err, platformerrors.KindDomain) {
			msg = err.Error()
		}
		return s.replyError(frame.ID, msg)
	}

	view := resp.View(false)
	if err := s.conn.WriteJSON(ServerFrame{Type: FrameResult, ID: frame.ID, Result: &view}); err != nil {
		return err
	}
	if len(resp.Output.Audio) > 0 {
		return s.conn.WriteMessage(websocket.BinaryMessage, resp.Output.Audio)
	}
	return nil
}

// Push forwards a device message.
func (s *Session) Push(msg eventbus.DeviceMessage) error {
	return s.conn.WriteJSON(ServerFrame{Type: FrameDevice, Message: &msg})
}

func (s *Session) replyError(id, msg string) error {
	return s.conn.WriteJSON(ServerFrame{Type: FrameError, ID: id, Error: msg})
}

// Close attempts to gracefully terminate the session.
func (s *Session) Close(reason error) {
	if reason == nil {
		reason = ErrSessionShutdown
	}

	if !s.closed.CompareAndSwap(false, true) {
		return
	}

	if s.cancel != nil {
		s.cancel(reason)
	}

	if s.conn != nil {
		code := websocket.CloseNormalClosure
		if !errors.Is(reason, ErrSessionShutdown) && !errors.Is(reason, ErrSessionReplaced) {
			code = websocket.CloseInternalServerErr
		}
		_ = s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason.Error()))
		if err := s.conn.Close(); err != nil {
			s.logger.WarnTag("WebSocket", "session %s connection close failed: %v", s.id, err)
		}
	}
}
