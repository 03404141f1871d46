// Package handlers assembles the capability handlers into the dispatch
// registry. Registration order is the tie-break priority when two handlers
// claim a transcript with the same annotation score.
package handlers

import (
	"time"

	"sleepvoice-server-go/internal/domain/devicestate/store"
	"sleepvoice-server-go/internal/domain/dispatch"
	"sleepvoice-server-go/internal/domain/eventbus"
	"sleepvoice-server-go/internal/domain/handlers/alarm"
	"sleepvoice-server-go/internal/domain/handlers/common"
	"sleepvoice-server-go/internal/domain/handlers/lights"
	"sleepvoice-server-go/internal/domain/handlers/room"
	"sleepvoice-server-go/internal/domain/handlers/sleepsound"
	"sleepvoice-server-go/internal/domain/handlers/sleepsummary"
	"sleepvoice-server-go/internal/domain/handlers/smalltalk"
	"sleepvoice-server-go/internal/domain/handlers/thermostat"
	"sleepvoice-server-go/internal/domain/handlers/timereport"
	"sleepvoice-server-go/internal/domain/handlers/trivia"
	"sleepvoice-server-go/internal/domain/smarthome"
	"sleepvoice-server-go/internal/domain/speech"
)

// Priority is the registration order.
var Priority = []speech.HandlerType{
	speech.HandlerAlarm,
	speech.HandlerSleepSound,
	speech.HandlerRoomConditions,
	speech.HandlerSleepSummary,
	speech.HandlerTimeReport,
	speech.HandlerLights,
	speech.HandlerThermostat,
	speech.HandlerTrivia,
	speech.HandlerSmallTalk,
}

// Deps are the collaborators shared by the handlers.
type Deps struct {
	Store            store.Store
	Vault            smarthome.TokenVault
	LightBridge      smarthome.LightBridge
	ThermostatBridge smarthome.ThermostatBridge
	Deferrer         sleepsound.Deferrer
	Messenger        eventbus.Messenger
	Base             common.Base

	Alarm        alarm.Config
	SleepSound   sleepsound.Config
	SensorMaxAge time.Duration
	Trivia       []trivia.Question
}

// NewRegistry builds every handler in Priority order.
func NewRegistry(deps Deps) (*dispatch.Registry, error) {
	return dispatch.NewRegistry(
		alarm.New(deps.Store, deps.Alarm, deps.Base),
		sleepsound.New(deps.Store, deps.Deferrer, deps.Messenger, deps.SleepSound, deps.Base),
		room.New(deps.Store, deps.SensorMaxAge, deps.Base),
		sleepsummary.New(deps.Store, deps.Base),
		timereport.New(deps.Store, deps.Base),
		lights.New(deps.Vault, deps.LightBridge, deps.Base),
		thermostat.New(deps.Store, deps.Vault, deps.ThermostatBridge, deps.Base),
		trivia.New(deps.Trivia, deps.Base),
		smalltalk.New(deps.Base),
	)
}
