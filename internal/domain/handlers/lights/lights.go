// Package lights controls paired smart lights.
package lights

import (
	"context"

	"sleepvoice-server-go/internal/domain/handlers/common"
	"sleepvoice-server-go/internal/domain/smarthome"
	"sleepvoice-server-go/internal/domain/speech"
	"sleepvoice-server-go/internal/util/optional"
)

const (
	TextNoPairedDevice = "Sorry, I couldn't find any paired lights on your account."
	TextBridgeFailed   = "Sorry, I wasn't able to reach your lights. Please try again later."
)

// Relative steps for one spoken adjustment. Color temperature is in kelvin.
const (
	BrightnessStep = 25
	ColorTempStep  = 500
)

var (
	actions = map[speech.Command]speech.LightAction{
		speech.LightOn:       {On: optional.Some(true)},
		speech.LightOff:      {On: optional.Some(false)},
		speech.LightBrighten: {BrightnessDelta: BrightnessStep},
		speech.LightDim:      {BrightnessDelta: -BrightnessStep},
		speech.LightWarmer:   {ColorTempDelta: -ColorTempStep},
		speech.LightCooler:   {ColorTempDelta: ColorTempStep},
	}
	confirmations = map[speech.Command]string{
		speech.LightOn:       "Ok, turning on your lights.",
		speech.LightOff:      "Ok, turning off your lights.",
		speech.LightBrighten: "Ok, making your lights brighter.",
		speech.LightDim:      "Ok, dimming your lights.",
		speech.LightWarmer:   "Ok, making your lights warmer.",
		speech.LightCooler:   "Ok, making your lights cooler.",
	}
)

type Handler struct {
	common.Base
	vault   smarthome.TokenVault
	bridge  smarthome.LightBridge
	matcher *speech.Matcher
}

func New(vault smarthome.TokenVault, bridge smarthome.LightBridge, base common.Base) *Handler {
	return &Handler{
		Base:   base,
		vault:  vault,
		bridge: bridge,
		matcher: speech.NewMatcher(
			speech.Literal("turn on the lights", speech.LightOn),
			speech.Literal("turn off the lights", speech.LightOff),
			speech.Literal("lights on", speech.LightOn),
			speech.Literal("lights off", speech.LightOff),
			speech.Literal("dim the lights", speech.LightDim),
			speech.Literal("brighten the lights", speech.LightBrighten),
			speech.Regex(`turn (the |my )?lights? on|(turn|switch) on (the |my )?lights?`, speech.LightOn),
			speech.Regex(`turn (the |my )?lights? off|(turn|switch) off (the |my )?lights?`, speech.LightOff),
			speech.Regex(`make (it|the lights?|my lights?) (dimmer|darker)|turn down (the |my )?lights?|\bdim (the |my )?lights?`, speech.LightDim),
			speech.Regex(`make (it|the lights?|my lights?) brighter|turn up (the |my )?lights?|brighten (the |my )?lights?`, speech.LightBrighten),
			speech.Regex(`lights? warmer`, speech.LightWarmer),
			speech.Regex(`lights? (cooler|whiter)`, speech.LightCooler),
		),
	}
}

func (h *Handler) Type() speech.HandlerType { return speech.HandlerLights }

func (h *Handler) Claim(t speech.Transcript) optional.Value[speech.Command] {
	return h.matcher.Match(t)
}

func (h *Handler) Score(speech.Transcript) int { return 0 }

// Delivery plays the canned acknowledgement on success; the light change
// itself is the real feedback.
func (h *Handler) Delivery(_ speech.Command, res speech.Result) speech.Delivery {
	if res.Outcome.Success {
		return speech.Static(speech.ClipOK)
	}
	return speech.Dynamic()
}

func (h *Handler) Execute(ctx context.Context, _ speech.Transcript, req speech.VoiceRequest, cmd speech.Command) speech.Result {
	action, ok := actions[cmd]
	if !ok {
		return speech.Failure(speech.HandlerLights, cmd, speech.CodeUnrecognized, common.TextTryLater)
	}

	callCtx, cancel := h.StoreContext(ctx)
	token, err := h.vault.GetExternalToken(callCtx, req.AccountID, smarthome.ServiceLights)
	cancel()
	if err != nil {
		h.Logger.ErrorTag("Lights", "token lookup for %s: %v", req.AccountID, err)
		return speech.Failure(speech.HandlerLights, cmd, speech.CodeUpstreamFailure, TextBridgeFailed)
	}
	tok, ok := token.Get()
	if !ok {
		return speech.Failure(speech.HandlerLights, cmd, speech.CodeNoPairedDevice, TextNoPairedDevice)
	}

	change := smarthome.LightChange{
		On:              action.On,
		BrightnessDelta: action.BrightnessDelta,
		ColorTempDelta:  action.ColorTempDelta,
	}
	if err := h.bridge.ApplyLights(ctx, tok, change); err != nil {
		h.Logger.ErrorTag("Lights", "apply %s for %s: %v", cmd, req.AccountID, err)
		return speech.Failure(speech.HandlerLights, cmd, speech.CodeUpstreamFailure, TextBridgeFailed)
	}
	return speech.Success(speech.HandlerLights, cmd, confirmations[cmd]).WithSide(action)
}
