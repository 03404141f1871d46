// Package common holds helpers shared by the capability handlers.
package common

import (
	"context"
	"fmt"
	"time"

	"sleepvoice-server-go/internal/domain/devicestate/model"
	"sleepvoice-server-go/internal/domain/devicestate/store"
	"sleepvoice-server-go/internal/domain/speech"
	"sleepvoice-server-go/internal/platform/logging"
	"sleepvoice-server-go/internal/util/optional"
)

// TextTryLater is spoken when a backing service failed.
const TextTryLater = "Sorry, I wasn't able to do that right now. Please try again later."

// DefaultStoreTimeout bounds a single device-state call.
const DefaultStoreTimeout = 2 * time.Second

// Clock returns the current instant. Handlers take one so tests can pin time.
type Clock func() time.Time

// Base carries the dependencies every handler needs.
type Base struct {
	Logger       *logging.Logger
	Now          Clock
	StoreTimeout time.Duration
	// Locator is consulted last when resolving a timezone; may be nil.
	Locator Locator
}

// NewBase fills defaults for zero fields.
func NewBase(logger *logging.Logger, now Clock, storeTimeout time.Duration) Base {
	if logger == nil {
		logger = logging.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	if storeTimeout <= 0 {
		storeTimeout = DefaultStoreTimeout
	}
	return Base{Logger: logger, Now: now, StoreTimeout: storeTimeout}
}

// StoreContext bounds one store call.
func (b Base) StoreContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, b.StoreTimeout)
}

// FormatClock renders a 12-hour time such as "7:00 AM".
func FormatClock(hour, minute int) string {
	suffix := "AM"
	if hour >= 12 {
		suffix = "PM"
	}
	h := hour % 12
	if h == 0 {
		h = 12
	}
	return fmt.Sprintf("%d:%02d %s", h, minute, suffix)
}

// FormatTime renders t's wall clock in its own location.
func FormatTime(t time.Time) string {
	return FormatClock(t.Hour(), t.Minute())
}

// FormatDuration speaks a duration in hours and minutes, e.g. "1 hour and 30 minutes".
func FormatDuration(d time.Duration) string {
	total := int(d.Round(time.Minute) / time.Minute)
	hours, minutes := total/60, total%60
	unit := func(n int, word string) string {
		if n == 1 {
			return fmt.Sprintf("1 %s", word)
		}
		return fmt.Sprintf("%d %ss", n, word)
	}
	switch {
	case hours == 0:
		return unit(minutes, "minute")
	case minutes == 0:
		return unit(hours, "hour")
	default:
		return unit(hours, "hour") + " and " + unit(minutes, "minute")
	}
}

// ResolveLocation prefers the transcript's timezone, then the account
// preference, then the locator's guess from the source address.
func (b Base) ResolveLocation(ctx context.Context, st store.Store, t speech.Transcript, req speech.VoiceRequest) (optional.Value[*time.Location], error) {
	if tz := t.Timezone(); tz.IsPresent() {
		return tz, nil
	}
	if st != nil {
		callCtx, cancel := b.StoreContext(ctx)
		prefs, err := st.GetPreferences(callCtx, req.AccountID)
		cancel()
		if err != nil {
			return optional.None[*time.Location](), err
		}
		if p, ok := prefs.Get(); ok {
			if loc := p.Location(); loc.IsPresent() {
				return loc, nil
			}
		}
	}
	if b.Locator != nil {
		return b.Locator.Locate(req.IP), nil
	}
	return optional.None[*time.Location](), nil
}

// Preferences loads account preferences, defaulting when absent.
func (b Base) Preferences(ctx context.Context, st store.Store, accountID string) (model.Preferences, error) {
	callCtx, cancel := b.StoreContext(ctx)
	defer cancel()
	prefs, err := st.GetPreferences(callCtx, accountID)
	if err != nil {
		return model.Preferences{}, err
	}
	return prefs.OrElse(model.Preferences{TemperatureUnit: model.Celsius}), nil
}

// DeviceKey builds the store key for a request.
func DeviceKey(req speech.VoiceRequest) model.DeviceKey {
	return model.DeviceKey{AccountID: req.AccountID, DeviceID: req.DeviceID}
}
