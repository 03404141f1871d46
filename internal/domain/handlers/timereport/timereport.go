// Package timereport tells the local time and date.
package timereport

import (
	"context"
	"fmt"

	"sleepvoice-server-go/internal/domain/devicestate/store"
	"sleepvoice-server-go/internal/domain/handlers/common"
	"sleepvoice-server-go/internal/domain/speech"
	"sleepvoice-server-go/internal/util/optional"
)

const (
	TextTime       = "It's %s."
	TextDay        = "Today is %s."
	TextNoTimezone = "Sorry, I wasn't able to get the time. Please try again later."
)

type Handler struct {
	common.Base
	store   store.Store
	matcher *speech.Matcher
}

func New(st store.Store, base common.Base) *Handler {
	return &Handler{
		Base:  base,
		store: st,
		matcher: speech.NewMatcher(
			speech.Literal("what time is it", speech.TimeReport),
			speech.Literal("what's the time", speech.TimeReport),
			speech.Literal("what day is it", speech.DayReport),
			speech.Literal("what's the date", speech.DayReport),
			speech.Literal("what is the date", speech.DayReport),
			speech.Regex(`what('s| is)? (today's )?date`, speech.DayReport),
			speech.Regex(`what('s| is)? the (current )?time\b`, speech.TimeReport),
		),
	}
}

func (h *Handler) Type() speech.HandlerType { return speech.HandlerTimeReport }

func (h *Handler) Claim(t speech.Transcript) optional.Value[speech.Command] {
	return h.matcher.Match(t)
}

func (h *Handler) Score(speech.Transcript) int { return 0 }

func (h *Handler) Delivery(speech.Command, speech.Result) speech.Delivery {
	return speech.Dynamic()
}

func (h *Handler) Execute(ctx context.Context, t speech.Transcript, req speech.VoiceRequest, cmd speech.Command) speech.Result {
	loc, err := h.ResolveLocation(ctx, h.store, t, req)
	if err != nil {
		h.Logger.ErrorTag("TimeReport", "resolve timezone for %s: %v", req.AccountID, err)
		return speech.Failure(speech.HandlerTimeReport, cmd, speech.CodeStoreFailure, TextNoTimezone)
	}
	tz, ok := loc.Get()
	if !ok {
		return speech.Failure(speech.HandlerTimeReport, cmd, speech.CodeNoTimezone, TextNoTimezone)
	}
	now := h.Now().In(tz)

	switch cmd {
	case speech.TimeReport:
		return speech.Success(speech.HandlerTimeReport, cmd, fmt.Sprintf(TextTime, common.FormatTime(now)))
	case speech.DayReport:
		return speech.Success(speech.HandlerTimeReport, cmd, fmt.Sprintf(TextDay, now.Format("Monday, January 2")))
	default:
		return speech.Failure(speech.HandlerTimeReport, cmd, speech.CodeUnrecognized, common.TextTryLater)
	}
}
