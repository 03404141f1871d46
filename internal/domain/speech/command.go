// Package speech holds the types shared by the dispatcher, the capability
// handlers and the synthesis pipeline.
package speech

// Command is a canonical voice intent.
type Command string

// EmptyCommand is the sentinel carried by results when nothing matched.
const EmptyCommand Command = "EMPTY_COMMAND"

const (
	AlarmSet    Command = "ALARM_SET"
	AlarmGet    Command = "ALARM_GET"
	AlarmDelete Command = "ALARM_DELETE"

	SleepSoundPlay Command = "SLEEP_SOUND_PLAY"
	SleepSoundStop Command = "SLEEP_SOUND_STOP"

	RoomTemperature Command = "ROOM_TEMPERATURE"
	RoomHumidity    Command = "ROOM_HUMIDITY"
	RoomLight       Command = "ROOM_LIGHT"
	RoomSound       Command = "ROOM_SOUND"
	RoomAirQuality  Command = "ROOM_AIR_QUALITY"

	SleepScore   Command = "SLEEP_SCORE"
	SleepSummary Command = "SLEEP_SUMMARY"

	TimeReport Command = "TIME_REPORT"
	DayReport  Command = "DAY_REPORT"

	LightOn       Command = "LIGHT_ON"
	LightOff      Command = "LIGHT_OFF"
	LightBrighten Command = "LIGHT_BRIGHTEN"
	LightDim      Command = "LIGHT_DIM"
	LightWarmer   Command = "LIGHT_WARMER"
	LightCooler   Command = "LIGHT_COOLER"

	ThermostatSet  Command = "THERMOSTAT_SET"
	ThermostatRead Command = "THERMOSTAT_READ"

	Trivia Command = "TRIVIA"

	SmallTalkGreeting  Command = "SMALL_TALK_GREETING"
	SmallTalkThanks    Command = "SMALL_TALK_THANKS"
	SmallTalkHowAreYou Command = "SMALL_TALK_HOW_ARE_YOU"
)

func (c Command) String() string {
	return string(c)
}

// HandlerType identifies a capability handler.
type HandlerType string

const (
	HandlerNone           HandlerType = "none"
	HandlerAlarm          HandlerType = "alarm"
	HandlerSleepSound     HandlerType = "sleep_sound"
	HandlerRoomConditions HandlerType = "room_conditions"
	HandlerSleepSummary   HandlerType = "sleep_summary"
	HandlerTimeReport     HandlerType = "time_report"
	HandlerLights         HandlerType = "lights"
	HandlerThermostat     HandlerType = "thermostat"
	HandlerTrivia         HandlerType = "trivia"
	HandlerSmallTalk      HandlerType = "small_talk"
)

func (h HandlerType) String() string {
	return string(h)
}
