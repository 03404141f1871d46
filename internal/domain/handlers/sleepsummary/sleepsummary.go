// Package sleepsummary reports last night's sleep score and summary.
package sleepsummary

import (
	"context"
	"fmt"
	"time"

	"sleepvoice-server-go/internal/domain/devicestate/model"
	"sleepvoice-server-go/internal/domain/devicestate/store"
	"sleepvoice-server-go/internal/domain/handlers/common"
	"sleepvoice-server-go/internal/domain/speech"
	"sleepvoice-server-go/internal/util/optional"
)

const (
	TextNoData     = "Sorry, I don't have any sleep data for last night."
	TextNoTimezone = "Sorry, I wasn't able to get your sleep data. Please try again later."
	TextScore      = "Your sleep score for last night was %d."
	TextSummary    = "Last night you slept for %s and your sleep score was %d. %s"
)

// nightRollover is the local hour before which "last night" still means the
// night before the one in progress.
const nightRollover = 4

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
			speech.Literal("sleep score", speech.SleepScore),
			speech.Literal("sleep summary", speech.SleepSummary),
			speech.Literal("how did i sleep", speech.SleepSummary),
			speech.Literal("how was my sleep", speech.SleepSummary),
			speech.Regex(`(what|how) .*\bscore\b`, speech.SleepScore),
			speech.Regex(`how (well|long) did i sleep`, speech.SleepSummary),
		),
	}
}

func (h *Handler) Type() speech.HandlerType { return speech.HandlerSleepSummary }

func (h *Handler) Claim(t speech.Transcript) optional.Value[speech.Command] {
	return h.matcher.Match(t)
}

func (h *Handler) Score(speech.Transcript) int { return 0 }

func (h *Handler) Delivery(speech.Command, speech.Result) speech.Delivery {
	return speech.Dynamic()
}

// LastNight returns the local date, as stored in SleepStats.Night, of the
// night a user means by "last night" at now.
func LastNight(now time.Time) string {
	back := -1
	if now.Hour() < nightRollover {
		back = -2
	}
	y, m, d := now.Date()
	return time.Date(y, m, d+back, 12, 0, 0, 0, now.Location()).Format(time.DateOnly)
}

func (h *Handler) Execute(ctx context.Context, t speech.Transcript, req speech.VoiceRequest, cmd speech.Command) speech.Result {
	fail := func(code speech.ErrorCode, text string) speech.Result {
		return speech.Failure(speech.HandlerSleepSummary, cmd, code, text)
	}

	loc, err := h.ResolveLocation(ctx, h.store, t, req)
	if err != nil {
		h.Logger.ErrorTag("SleepSummary", "resolve timezone for %s: %v", req.AccountID, err)
		return fail(speech.CodeStoreFailure, TextNoTimezone)
	}
	tz, ok := loc.Get()
	if !ok {
		return fail(speech.CodeNoTimezone, TextNoTimezone)
	}
	night := LastNight(h.Now().In(tz))

	callCtx, cancel := h.StoreContext(ctx)
	stats, err := h.store.GetSleepStats(callCtx, req.AccountID, night)
	cancel()
	if err != nil {
		h.Logger.ErrorTag("SleepSummary", "load stats for %s night %s: %v", req.AccountID, night, err)
		return fail(speech.CodeStoreFailure, common.TextTryLater)
	}
	s, ok := stats.Get()
	if !ok {
		return fail(speech.CodeNoSleepData, TextNoData)
	}

	switch cmd {
	case speech.SleepScore:
		return speech.Success(speech.HandlerSleepSummary, cmd, fmt.Sprintf(TextScore, s.Score))
	case speech.SleepSummary:
		return speech.Success(speech.HandlerSleepSummary, cmd, summarize(s))
	default:
		return fail(speech.CodeUnrecognized, common.TextTryLater)
	}
}

func summarize(s model.SleepStats) string {
	slept := common.FormatDuration(time.Duration(s.DurationMinutes) * time.Minute)
	var awake string
	switch s.TimesAwake {
	case 0:
		awake = "You didn't wake up during the night."
	case 1:
		awake = "You woke up once."
	case 2:
		awake = "You woke up twice."
	default:
		awake = fmt.Sprintf("You woke up %d times.", s.TimesAwake)
	}
	return fmt.Sprintf(TextSummary, slept, s.Score, awake)
}
