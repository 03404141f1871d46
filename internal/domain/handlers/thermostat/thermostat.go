// Package thermostat reads and sets a paired thermostat.
package thermostat

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"

	"sleepvoice-server-go/internal/domain/devicestate/model"
	"sleepvoice-server-go/internal/domain/devicestate/store"
	"sleepvoice-server-go/internal/domain/handlers/common"
	"sleepvoice-server-go/internal/domain/smarthome"
	"sleepvoice-server-go/internal/domain/speech"
	"sleepvoice-server-go/internal/util/optional"
)

const (
	TextSet            = "Ok, setting your thermostat to %d degrees."
	TextRead           = "Your thermostat is set to %d degrees."
	TextNoValue        = "Sorry, I didn't catch the temperature for your thermostat."
	TextOutOfRange     = "Sorry, I can only set your thermostat between %d and %d degrees."
	TextNoPairedDevice = "Sorry, I couldn't find a paired thermostat on your account."
	TextBridgeFailed   = "Sorry, I wasn't able to reach your thermostat. Please try again later."
)

var degreesRe = regexp.MustCompile(`(\d+)\s*degrees`)

type bounds struct{ min, max int }

var ranges = map[model.TemperatureUnit]bounds{
	model.Celsius:    {10, 32},
	model.Fahrenheit: {50, 90},
}

type Handler struct {
	common.Base
	store   store.Store
	vault   smarthome.TokenVault
	bridge  smarthome.ThermostatBridge
	matcher *speech.Matcher
}

func New(st store.Store, vault smarthome.TokenVault, bridge smarthome.ThermostatBridge, base common.Base) *Handler {
	return &Handler{
		Base:   base,
		store:  st,
		vault:  vault,
		bridge: bridge,
		matcher: speech.NewMatcher(
			speech.Literal("what is the thermostat set to", speech.ThermostatRead),
			speech.Literal("what's the thermostat set to", speech.ThermostatRead),
			speech.Regex(`(set|change|turn) (the |my )?(thermostat|heat|heating|temperature) (up |down )?to`, speech.ThermostatSet),
			speech.Regex(`thermostat to \d+`, speech.ThermostatSet),
			speech.Regex(`what('s| is)? (the |my )?thermostat`, speech.ThermostatRead),
		),
	}
}

func (h *Handler) Type() speech.HandlerType { return speech.HandlerThermostat }

func (h *Handler) Claim(t speech.Transcript) optional.Value[speech.Command] {
	return h.matcher.Match(t)
}

func (h *Handler) Score(speech.Transcript) int { return 0 }

func (h *Handler) Delivery(speech.Command, speech.Result) speech.Delivery {
	return speech.Dynamic()
}

// ParseDegrees extracts the first "<n> degrees" value.
func ParseDegrees(text string) optional.Value[int] {
	m := degreesRe.FindStringSubmatch(text)
	if m == nil {
		return optional.None[int]()
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return optional.None[int]()
	}
	return optional.Some(n)
}

func toCelsius(v int, unit model.TemperatureUnit) float64 {
	if unit == model.Fahrenheit {
		return float64(v-32) * 5 / 9
	}
	return float64(v)
}

func fromCelsius(c float64, unit model.TemperatureUnit) int {
	if unit == model.Fahrenheit {
		c = c*9/5 + 32
	}
	return int(math.Round(c))
}

func (h *Handler) Execute(ctx context.Context, t speech.Transcript, req speech.VoiceRequest, cmd speech.Command) speech.Result {
	fail := func(code speech.ErrorCode, text string) speech.Result {
		return speech.Failure(speech.HandlerThermostat, cmd, code, text)
	}
	if cmd != speech.ThermostatSet && cmd != speech.ThermostatRead {
		return fail(speech.CodeUnrecognized, common.TextTryLater)
	}

	prefs, err := h.Preferences(ctx, h.store, req.AccountID)
	if err != nil {
		h.Logger.WarnTag("Thermostat", "load preferences for %s: %v", req.AccountID, err)
	}
	unit := prefs.TemperatureUnit
	if unit != model.Fahrenheit {
		unit = model.Celsius
	}

	var target int
	if cmd == speech.ThermostatSet {
		v, ok := ParseDegrees(t.Lower()).Get()
		if !ok {
			return fail(speech.CodeNoValue, TextNoValue)
		}
		r := ranges[unit]
		if v < r.min || v > r.max {
			return fail(speech.CodeValueOutOfRange, fmt.Sprintf(TextOutOfRange, r.min, r.max))
		}
		target = v
	}

	callCtx, cancel := h.StoreContext(ctx)
	token, err := h.vault.GetExternalToken(callCtx, req.AccountID, smarthome.ServiceThermostat)
	cancel()
	if err != nil {
		h.Logger.ErrorTag("Thermostat", "token lookup for %s: %v", req.AccountID, err)
		return fail(speech.CodeUpstreamFailure, TextBridgeFailed)
	}
	tok, ok := token.Get()
	if !ok {
		return fail(speech.CodeNoPairedDevice, TextNoPairedDevice)
	}

	if cmd == speech.ThermostatRead {
		state, err := h.bridge.ReadThermostat(ctx, tok)
		if err != nil {
			h.Logger.ErrorTag("Thermostat", "read for %s: %v", req.AccountID, err)
			return fail(speech.CodeUpstreamFailure, TextBridgeFailed)
		}
		return speech.Success(speech.HandlerThermostat, cmd, fmt.Sprintf(TextRead, fromCelsius(state.TargetC, unit)))
	}

	if err := h.bridge.SetTarget(ctx, tok, toCelsius(target, unit)); err != nil {
		h.Logger.ErrorTag("Thermostat", "set %d for %s: %v", target, req.AccountID, err)
		return fail(speech.CodeUpstreamFailure, TextBridgeFailed)
	}
	return speech.Success(speech.HandlerThermostat, cmd, fmt.Sprintf(TextSet, target))
}
