// Package room answers questions about the bedroom environment from the
// device's latest sensor snapshot.
package room

import (
	"context"
	"fmt"
	"math"
	"time"

	"sleepvoice-server-go/internal/domain/devicestate/model"
	"sleepvoice-server-go/internal/domain/devicestate/store"
	"sleepvoice-server-go/internal/domain/handlers/common"
	"sleepvoice-server-go/internal/domain/speech"
	"sleepvoice-server-go/internal/util/optional"
)

const (
	TextUnavailable = "Sorry, I'm not able to access your %s data right now."
	TextTemperature = "The temperature in your room is %d degrees %s."
	TextHumidity    = "The humidity in your room is %d percent."
	TextLight       = "Your room is %s, at %d lux."
	TextSound       = "The noise level in your room is %d decibels."
	TextAirQuality  = "The air quality in your room is %s."
)

// DefaultMaxAge is how old a snapshot may be before it is considered stale.
const DefaultMaxAge = 15 * time.Minute

type reading struct {
	label string
	value func(model.SensorSnapshot) optional.Value[float64]
}

var readings = map[speech.Command]reading{
	speech.RoomTemperature: {"temperature", func(s model.SensorSnapshot) optional.Value[float64] { return s.TemperatureC }},
	speech.RoomHumidity:    {"humidity", func(s model.SensorSnapshot) optional.Value[float64] { return s.Humidity }},
	speech.RoomLight:       {"light", func(s model.SensorSnapshot) optional.Value[float64] { return s.LightLux }},
	speech.RoomSound:       {"sound", func(s model.SensorSnapshot) optional.Value[float64] { return s.SoundDB }},
	speech.RoomAirQuality:  {"air quality", func(s model.SensorSnapshot) optional.Value[float64] { return s.Particulates }},
}

type Handler struct {
	common.Base
	store   store.Store
	maxAge  time.Duration
	matcher *speech.Matcher
}

func New(st store.Store, maxAge time.Duration, base common.Base) *Handler {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &Handler{
		Base:   base,
		store:  st,
		maxAge: maxAge,
		matcher: speech.NewMatcher(
			speech.Literal("how warm is it", speech.RoomTemperature),
			speech.Literal("how cold is it", speech.RoomTemperature),
			speech.Literal("how humid is it", speech.RoomHumidity),
			speech.Literal("how bright is it", speech.RoomLight),
			speech.Literal("how dark is it", speech.RoomLight),
			speech.Literal("how loud is it", speech.RoomSound),
			speech.Literal("how noisy is it", speech.RoomSound),
			speech.Literal("air quality", speech.RoomAirQuality),
			speech.Regex(`what('s| is)? .*temperature`, speech.RoomTemperature),
			speech.Regex(`how (hot|warm|cold) is (it|my room|the room)`, speech.RoomTemperature),
			speech.Regex(`humidity|how humid`, speech.RoomHumidity),
			speech.Regex(`what('s| is)? .*light level|how (bright|dark) is (my|the) room`, speech.RoomLight),
			speech.Regex(`(noise|sound) level|how (loud|noisy) is`, speech.RoomSound),
			speech.Regex(`how('s| is)? the air`, speech.RoomAirQuality),
		),
	}
}

func (h *Handler) Type() speech.HandlerType { return speech.HandlerRoomConditions }

func (h *Handler) Claim(t speech.Transcript) optional.Value[speech.Command] {
	return h.matcher.Match(t)
}

// Score is always zero: room questions carry no annotations.
func (h *Handler) Score(speech.Transcript) int { return 0 }

func (h *Handler) Delivery(speech.Command, speech.Result) speech.Delivery {
	return speech.Dynamic()
}

func (h *Handler) Execute(ctx context.Context, _ speech.Transcript, req speech.VoiceRequest, cmd speech.Command) speech.Result {
	r, ok := readings[cmd]
	if !ok {
		return speech.Failure(speech.HandlerRoomConditions, cmd, speech.CodeUnrecognized, common.TextTryLater)
	}
	unavailable := func(code speech.ErrorCode) speech.Result {
		return speech.Failure(speech.HandlerRoomConditions, cmd, code, fmt.Sprintf(TextUnavailable, r.label))
	}

	callCtx, cancel := h.StoreContext(ctx)
	snap, err := h.store.GetLatestSensorSnapshot(callCtx, req.DeviceID)
	cancel()
	if err != nil {
		h.Logger.ErrorTag("Room", "load snapshot for %s: %v", req.DeviceID, err)
		return unavailable(speech.CodeStoreFailure)
	}
	s, ok := snap.Get()
	if !ok {
		return unavailable(speech.CodeNoSensorData)
	}
	if age := h.Now().Sub(s.RecordedAt); age > h.maxAge {
		h.Logger.InfoTag("Room", "snapshot for %s is %s old", req.DeviceID, age.Round(time.Second))
		return unavailable(speech.CodeStaleSensorData)
	}
	value, ok := r.value(s).Get()
	if !ok {
		return unavailable(speech.CodeNoSensorData)
	}

	var text string
	switch cmd {
	case speech.RoomTemperature:
		prefs, err := h.Preferences(ctx, h.store, req.AccountID)
		if err != nil {
			// unit preference is cosmetic
			h.Logger.WarnTag("Room", "load preferences for %s: %v", req.AccountID, err)
		}
		text = formatTemperature(value, prefs.TemperatureUnit)
	case speech.RoomHumidity:
		text = fmt.Sprintf(TextHumidity, round(value))
	case speech.RoomLight:
		text = fmt.Sprintf(TextLight, lightLevel(value), round(value))
	case speech.RoomSound:
		text = fmt.Sprintf(TextSound, round(value))
	case speech.RoomAirQuality:
		text = fmt.Sprintf(TextAirQuality, airQuality(value))
	}
	return speech.Success(speech.HandlerRoomConditions, cmd, text)
}

func round(v float64) int { return int(math.Round(v)) }

func formatTemperature(celsius float64, unit model.TemperatureUnit) string {
	if unit == model.Fahrenheit {
		return fmt.Sprintf(TextTemperature, round(celsius*9/5+32), "Fahrenheit")
	}
	return fmt.Sprintf(TextTemperature, round(celsius), "Celsius")
}

func lightLevel(lux float64) string {
	switch {
	case lux < 1:
		return "dark"
	case lux < 50:
		return "dim"
	case lux < 300:
		return "moderately lit"
	default:
		return "bright"
	}
}

// airQuality buckets PM2.5 in µg/m³.
func airQuality(pm float64) string {
	switch {
	case pm <= 12:
		return "good"
	case pm <= 35:
		return "moderate"
	default:
		return "poor"
	}
}
