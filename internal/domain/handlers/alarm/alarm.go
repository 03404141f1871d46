// Package alarm implements voice set/get/cancel for device alarms.
//
// The alarm collection of a device is always read whole and written whole,
// so duplicate detection, pruning and insertion land in a single write.
// Concurrent writes from the app are not coordinated; the last writer wins.
package alarm

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"sleepvoice-server-go/internal/domain/devicestate/model"
	"sleepvoice-server-go/internal/domain/devicestate/store"
	"sleepvoice-server-go/internal/domain/handlers/common"
	"sleepvoice-server-go/internal/domain/speech"
	"sleepvoice-server-go/internal/util/optional"
)

// Spoken responses.
const (
	TextSet             = "Ok, your alarm is set for %s."
	TextSetFailed       = "Sorry, I wasn't able to set your alarm. Please try again later."
	TextNoTime          = "Sorry, I didn't catch the time for your alarm. Please try again."
	TextTooSoon         = "Sorry, your alarm needs to be at least %s from now."
	TextTooLate         = "Sorry, I can only set alarms within the next 24 hours."
	TextDuplicate       = "You already have an alarm set for %s."
	TextNext            = "Your next alarm is set for %s."
	TextNoneUpcoming    = "You don't have any upcoming alarms."
	TextGetFailed       = "Sorry, I wasn't able to check your alarms. Please try again later."
	TextCanceled        = "Ok, your alarm for %s has been canceled."
	TextNothingToCancel = "You don't have any upcoming alarms to cancel."
	TextRepeatingOnly   = "Sorry, repeating alarms can only be canceled in the app."
	TextCancelFailed    = "Sorry, I wasn't able to cancel your alarm. Please try again later."
)

// DefaultSound is attached to alarms created by voice.
var DefaultSound = model.AlarmSound{ID: "digital", Name: "Digital"}

// Config bounds how far ahead a voice alarm may be set.
type Config struct {
	MinLead time.Duration
	MaxLead time.Duration
}

// DefaultConfig is 5 minutes to 1439 minutes ahead.
func DefaultConfig() Config {
	return Config{MinLead: 5 * time.Minute, MaxLead: 1439 * time.Minute}
}

// Handler is the alarm capability.
type Handler struct {
	common.Base
	store   store.Store
	cfg     Config
	matcher *speech.Matcher
	newID   func() string
}

// New builds the alarm handler.
func New(st store.Store, cfg Config, base common.Base) *Handler {
	defaults := DefaultConfig()
	if cfg.MinLead <= 0 {
		cfg.MinLead = defaults.MinLead
	}
	if cfg.MaxLead <= 0 {
		cfg.MaxLead = defaults.MaxLead
	}
	return &Handler{
		Base:  base,
		store: st,
		cfg:   cfg,
		matcher: speech.NewMatcher(
			speech.Literal("set an alarm", speech.AlarmSet),
			speech.Literal("set alarm", speech.AlarmSet),
			speech.Literal("set my alarm", speech.AlarmSet),
			speech.Literal("wake me up", speech.AlarmSet),
			speech.Literal("when is my alarm", speech.AlarmGet),
			speech.Literal("what time is my alarm", speech.AlarmGet),
			speech.Literal("cancel my alarm", speech.AlarmDelete),
			speech.Literal("delete my alarm", speech.AlarmDelete),
			speech.Regex(`(cancel|delete|remove|turn off).*alarm`, speech.AlarmDelete),
			speech.Regex(`(when|what).*(next )?alarm`, speech.AlarmGet),
			speech.Regex(`(set|create|make).*alarm`, speech.AlarmSet),
		),
		newID: uuid.NewString,
	}
}

func (h *Handler) Type() speech.HandlerType { return speech.HandlerAlarm }

func (h *Handler) Claim(t speech.Transcript) optional.Value[speech.Command] {
	return h.matcher.Match(t)
}

// Score counts time annotations.
func (h *Handler) Score(t speech.Transcript) int {
	return len(t.Times())
}

func (h *Handler) Delivery(speech.Command, speech.Result) speech.Delivery {
	return speech.Dynamic()
}

func (h *Handler) Execute(ctx context.Context, t speech.Transcript, req speech.VoiceRequest, cmd speech.Command) speech.Result {
	switch cmd {
	case speech.AlarmSet:
		return h.set(ctx, t, req)
	case speech.AlarmGet:
		return h.get(ctx, t, req)
	case speech.AlarmDelete:
		return h.cancel(ctx, t, req)
	default:
		return speech.Failure(speech.HandlerAlarm, cmd, speech.CodeUnrecognized, common.TextTryLater)
	}
}

func (h *Handler) fail(cmd speech.Command, code speech.ErrorCode, text string) speech.Result {
	return speech.Failure(speech.HandlerAlarm, cmd, code, text)
}

// leadPhrase renders a lead time in whole minutes, rounding up.
func leadPhrase(d time.Duration) string {
	minutes := int((d + time.Minute - 1) / time.Minute)
	if minutes == 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", minutes)
}

// now resolves the location and the current local time.
func (h *Handler) now(ctx context.Context, t speech.Transcript, req speech.VoiceRequest) (time.Time, bool, error) {
	tz, err := h.ResolveLocation(ctx, h.store, t, req)
	if err != nil {
		return time.Time{}, false, err
	}
	loc, ok := tz.Get()
	if !ok {
		return time.Time{}, false, nil
	}
	return h.Now().In(loc), true, nil
}

func (h *Handler) load(ctx context.Context, req speech.VoiceRequest) ([]model.Alarm, error) {
	callCtx, cancel := h.StoreContext(ctx)
	defer cancel()
	return h.store.GetAlarms(callCtx, common.DeviceKey(req))
}

func (h *Handler) save(ctx context.Context, req speech.VoiceRequest, alarms []model.Alarm) error {
	callCtx, cancel := h.StoreContext(ctx)
	defer cancel()
	return h.store.SetAlarms(callCtx, common.DeviceKey(req), alarms)
}

// candidateRing places the annotated time on its explicit date, or on today
// rolling to tomorrow once the time has passed.
func candidateRing(ann speech.TimeAnnotation, now time.Time) time.Time {
	loc := now.Location()
	if date, ok := ann.Date.Get(); ok {
		return time.Date(date.Year, date.Month, date.Day, ann.Hour, ann.Minute, 0, 0, loc)
	}
	ring := time.Date(now.Year(), now.Month(), now.Day(), ann.Hour, ann.Minute, 0, 0, loc)
	if !ring.After(now) {
		ring = time.Date(now.Year(), now.Month(), now.Day()+1, ann.Hour, ann.Minute, 0, 0, loc)
	}
	return ring
}

func (h *Handler) set(ctx context.Context, t speech.Transcript, req speech.VoiceRequest) speech.Result {
	const cmd = speech.AlarmSet

	now, ok, err := h.now(ctx, t, req)
	if err != nil {
		h.Logger.ErrorTag("Alarm", "resolve timezone for %s: %v", req.AccountID, err)
		return h.fail(cmd, speech.CodeStoreFailure, TextSetFailed)
	}
	if !ok {
		h.Logger.WarnTag("Alarm", "no timezone for account %s", req.AccountID)
		return h.fail(cmd, speech.CodeNoTimezone, TextSetFailed)
	}
	ann, ok := t.FirstTime().Get()
	if !ok {
		return h.fail(cmd, speech.CodeNoTime, TextNoTime)
	}

	ring := candidateRing(ann, now)
	lead := ring.Sub(now)
	if lead < h.cfg.MinLead {
		return h.fail(cmd, speech.CodeTooSoon, fmt.Sprintf(TextTooSoon, leadPhrase(h.cfg.MinLead)))
	}
	if lead > h.cfg.MaxLead {
		return h.fail(cmd, speech.CodeTooLate, TextTooLate)
	}

	alarms, err := h.load(ctx, req)
	if err != nil {
		h.Logger.ErrorTag("Alarm", "load alarms for %s: %v", req.DeviceID, err)
		return h.fail(cmd, speech.CodeStoreFailure, TextSetFailed)
	}

	kept := make([]model.Alarm, 0, len(alarms)+1)
	pruned := 0
	for _, a := range alarms {
		if a.Source == model.SourceVoice && a.Expired(now) {
			pruned++
			continue
		}
		if next, ok := a.NextRing(now); ok && next.Equal(ring) {
			return h.fail(cmd, speech.CodeDuplicateAlarm, fmt.Sprintf(TextDuplicate, common.FormatTime(next)))
		}
		kept = append(kept, a)
	}

	kept = append(kept, model.Alarm{
		ID:       h.newID(),
		Year:     ring.Year(),
		Month:    int(ring.Month()),
		Day:      ring.Day(),
		Hour:     ring.Hour(),
		Minute:   ring.Minute(),
		Enabled:  true,
		Editable: true,
		Sound:    DefaultSound,
		Source:   model.SourceVoice,
	})
	sortByOccurrence(kept, now)

	if err := h.save(ctx, req, kept); err != nil {
		h.Logger.ErrorTag("Alarm", "save alarms for %s: %v", req.DeviceID, err)
		return h.fail(cmd, speech.CodeStoreFailure, TextSetFailed)
	}

	h.Logger.InfoTag("Alarm", "set %s for device %s (pruned %d)", ring.Format(time.RFC3339), req.DeviceID, pruned)
	return speech.Success(speech.HandlerAlarm, cmd, fmt.Sprintf(TextSet, common.FormatTime(ring)))
}

// sortByOccurrence orders ringing alarms first by next ring time; alarms
// without one keep their relative order at the end.
func sortByOccurrence(alarms []model.Alarm, now time.Time) {
	sort.SliceStable(alarms, func(i, j int) bool {
		ri, okI := alarms[i].NextRing(now)
		rj, okJ := alarms[j].NextRing(now)
		switch {
		case okI && okJ:
			return ri.Before(rj)
		default:
			return okI && !okJ
		}
	})
}

func (h *Handler) get(ctx context.Context, t speech.Transcript, req speech.VoiceRequest) speech.Result {
	const cmd = speech.AlarmGet

	now, ok, err := h.now(ctx, t, req)
	if err != nil || !ok {
		if err != nil {
			h.Logger.ErrorTag("Alarm", "resolve timezone for %s: %v", req.AccountID, err)
			return h.fail(cmd, speech.CodeStoreFailure, TextGetFailed)
		}
		return h.fail(cmd, speech.CodeNoTimezone, TextGetFailed)
	}

	alarms, err := h.load(ctx, req)
	if err != nil {
		h.Logger.ErrorTag("Alarm", "load alarms for %s: %v", req.DeviceID, err)
		return h.fail(cmd, speech.CodeStoreFailure, TextGetFailed)
	}

	upcoming := model.Upcoming(alarms, now)
	if len(upcoming) == 0 {
		return speech.Success(speech.HandlerAlarm, cmd, TextNoneUpcoming)
	}
	return speech.Success(speech.HandlerAlarm, cmd, fmt.Sprintf(TextNext, DescribeRing(upcoming[0].Ring, now)))
}

func (h *Handler) cancel(ctx context.Context, t speech.Transcript, req speech.VoiceRequest) speech.Result {
	const cmd = speech.AlarmDelete

	now, ok, err := h.now(ctx, t, req)
	if err != nil || !ok {
		if err != nil {
			h.Logger.ErrorTag("Alarm", "resolve timezone for %s: %v", req.AccountID, err)
			return h.fail(cmd, speech.CodeStoreFailure, TextCancelFailed)
		}
		return h.fail(cmd, speech.CodeNoTimezone, TextCancelFailed)
	}

	alarms, err := h.load(ctx, req)
	if err != nil {
		h.Logger.ErrorTag("Alarm", "load alarms for %s: %v", req.DeviceID, err)
		return h.fail(cmd, speech.CodeStoreFailure, TextCancelFailed)
	}

	upcoming := model.Upcoming(alarms, now)
	for _, s := range upcoming {
		if s.Alarm.Repeated {
			continue
		}
		remaining := make([]model.Alarm, 0, len(alarms)-1)
		remaining = append(remaining, alarms[:s.Index]...)
		remaining = append(remaining, alarms[s.Index+1:]...)
		if err := h.save(ctx, req, remaining); err != nil {
			h.Logger.ErrorTag("Alarm", "save alarms for %s: %v", req.DeviceID, err)
			return h.fail(cmd, speech.CodeStoreFailure, TextCancelFailed)
		}
		h.Logger.InfoTag("Alarm", "canceled %s for device %s", s.Alarm.ID, req.DeviceID)
		return speech.Success(speech.HandlerAlarm, cmd, fmt.Sprintf(TextCanceled, common.FormatTime(s.Ring)))
	}

	if len(upcoming) == 0 {
		return h.fail(cmd, speech.CodeNothingToCancel, TextNothingToCancel)
	}
	return h.fail(cmd, speech.CodeRepeatingOnly, TextRepeatingOnly)
}
