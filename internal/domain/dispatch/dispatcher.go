package dispatch

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"sleepvoice-server-go/internal/domain/eventbus"
	"sleepvoice-server-go/internal/domain/speech"
	"sleepvoice-server-go/internal/platform/logging"
	"sleepvoice-server-go/internal/platform/observability"
	"sleepvoice-server-go/internal/util/optional"
)

// Spoken fallbacks used when no handler produced a result.
const (
	TextNotUnderstood  = "Sorry, I didn't understand that."
	TextSomethingWrong = "Sorry, something went wrong. Please try again."
)

// Candidate is one handler that claimed the transcript.
type Candidate struct {
	Handler speech.Handler
	Command speech.Command
	Score   int
}

// Resolution is the dispatcher's selection for a transcript.
type Resolution struct {
	Candidates []Candidate
	Winner     optional.Value[Candidate]
}

// Publisher is the slice of the event bus the dispatcher needs.
type Publisher interface {
	PublishAsync(topic string, args ...interface{}) bool
}

// Dispatcher resolves a transcript to one handler and runs it.
type Dispatcher struct {
	registry  *Registry
	logger    *logging.Logger
	metrics   *observability.Metrics
	publisher Publisher
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

func WithMetrics(m *observability.Metrics) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

func WithPublisher(p Publisher) Option {
	return func(d *Dispatcher) { d.publisher = p }
}

func NewDispatcher(registry *Registry, logger *logging.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{registry: registry, logger: logger}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Resolve asks every handler whether it claims the transcript. With several
// claimants the strictly highest annotation score wins and ties go to the
// earliest registered handler.
func (d *Dispatcher) Resolve(t speech.Transcript) Resolution {
	var res Resolution
	for _, h := range d.registry.handlers {
		cmd, ok := d.claim(h, t)
		if !ok {
			continue
		}
		res.Candidates = append(res.Candidates, Candidate{Handler: h, Command: cmd})
	}

	switch len(res.Candidates) {
	case 0:
		return res
	case 1:
		res.Winner = optional.Some(res.Candidates[0])
		return res
	}

	best := -1
	for i := range res.Candidates {
		res.Candidates[i].Score = d.score(res.Candidates[i].Handler, t)
		if best < 0 || res.Candidates[i].Score > res.Candidates[best].Score {
			best = i
		}
	}
	res.Winner = optional.Some(res.Candidates[best])
	return res
}

// claim treats a panicking matcher as no claim.
func (d *Dispatcher) claim(h speech.Handler, t speech.Transcript) (cmd speech.Command, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.ErrorTag("Dispatch", "%s claim panicked: %v", h.Type(), r)
			cmd, ok = "", false
		}
	}()
	return h.Claim(t).Get()
}

func (d *Dispatcher) score(h speech.Handler, t speech.Transcript) (score int) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.ErrorTag("Dispatch", "%s score panicked: %v", h.Type(), r)
			score = 0
		}
	}()
	return h.Score(t)
}

// Dispatch resolves and executes. It never panics and never returns an
// empty outcome: unclaimed transcripts and handler crashes both produce a
// spoken failure result.
func (d *Dispatcher) Dispatch(ctx context.Context, t speech.Transcript, req speech.VoiceRequest) (speech.Result, speech.Delivery) {
	start := time.Now()

	winner, ok := d.Resolve(t).Winner.Get()
	if !ok {
		d.logger.InfoTag("Dispatch", "no handler claimed %q", t.Raw())
		result := speech.Failure(speech.HandlerNone, speech.EmptyCommand, speech.CodeUnrecognized, TextNotUnderstood)
		d.finish(req, result, start)
		return result, speech.Static(speech.ClipUnrecognized)
	}

	result, delivery := d.execute(ctx, winner, t, req)
	d.finish(req, result, start)
	return result, delivery
}

func (d *Dispatcher) execute(ctx context.Context, c Candidate, t speech.Transcript, req speech.VoiceRequest) (result speech.Result, delivery speech.Delivery) {
	handlerType := c.Handler.Type()
	defer func() {
		if r := recover(); r != nil {
			d.logger.ErrorTag("Dispatch", "%s handler panicked on %s: %v\n%s", handlerType, c.Command, r, debug.Stack())
			result = speech.Failure(handlerType, c.Command, speech.CodeInternalError, TextSomethingWrong)
			delivery = speech.Static(speech.ClipTryAgain)
		}
	}()

	result = c.Handler.Execute(ctx, t, req, c.Command)
	if result.Handler == "" {
		result.Handler = handlerType
	}
	if result.Command == "" {
		result.Command = c.Command
	}
	if result.Outcome.ResponseText == "" && !result.Outcome.Success {
		result.Outcome.ResponseText = TextSomethingWrong
	}
	delivery = c.Handler.Delivery(c.Command, result)
	return result, delivery
}

func (d *Dispatcher) finish(req speech.VoiceRequest, result speech.Result, start time.Time) {
	elapsed := time.Since(start)
	outcome := "success"
	if !result.Outcome.Success {
		outcome = string(result.Outcome.Code)
	}
	d.metrics.ObserveDispatch(result.Handler.String(), result.Command.String(), outcome)
	d.logger.InfoTag("Dispatch", fmt.Sprintf("%s/%s -> %s in %s", result.Handler, result.Command, outcome, elapsed))

	if d.publisher != nil {
		d.publisher.PublishAsync(eventbus.TopicDispatchCompleted, eventbus.DispatchEvent{
			AccountID: req.AccountID,
			DeviceID:  req.DeviceID,
			Handler:   result.Handler.String(),
			Command:   result.Command.String(),
			Success:   result.Outcome.Success,
			Code:      string(result.Outcome.Code),
			Elapsed:   elapsed,
		})
	}
}
