package speech

import "sleepvoice-server-go/internal/util/optional"

// ErrorCode is the machine-readable failure reason carried by a Result.
type ErrorCode string

const (
	CodeNone            ErrorCode = "none"
	CodeNoTimezone      ErrorCode = "no_timezone"
	CodeNoTime          ErrorCode = "no_time"
	CodeTooSoon         ErrorCode = "too_soon"
	CodeTooLate         ErrorCode = "too_late"
	CodeDuplicateAlarm  ErrorCode = "duplicate_alarm"
	CodeNothingToCancel ErrorCode = "nothing_to_cancel"
	CodeRepeatingOnly   ErrorCode = "repeating_only"
	CodeNoPairedDevice  ErrorCode = "no_paired_device"
	CodeNoSensorData    ErrorCode = "no_sensor_data"
	CodeStaleSensorData ErrorCode = "stale_sensor_data"
	CodeNoSleepData     ErrorCode = "no_sleep_data"
	CodeSoundNotFound   ErrorCode = "sound_not_found"
	CodeNoValue         ErrorCode = "no_value"
	CodeValueOutOfRange ErrorCode = "value_out_of_range"
	CodeUpstreamFailure ErrorCode = "upstream_failure"
	CodeStoreFailure    ErrorCode = "store_failure"
	CodeUnrecognized    ErrorCode = "unrecognized_command"
	CodeInternalError   ErrorCode = "internal_error"
)

// ErrorClass groups codes into the failure taxonomy.
type ErrorClass string

const (
	ClassNone                ErrorClass = "none"
	ClassMissingPrecondition ErrorClass = "missing_precondition"
	ClassOutOfRange          ErrorClass = "out_of_range"
	ClassConflict            ErrorClass = "conflict"
	ClassNotFound            ErrorClass = "not_found"
	ClassStaleData           ErrorClass = "stale_data"
	ClassUpstreamFailure     ErrorClass = "upstream_failure"
	ClassUnrecognized        ErrorClass = "unrecognized_command"
)

var codeClasses = map[ErrorCode]ErrorClass{
	CodeNone:            ClassNone,
	CodeNoTimezone:      ClassMissingPrecondition,
	CodeNoTime:          ClassMissingPrecondition,
	CodeNoValue:         ClassMissingPrecondition,
	CodeTooSoon:         ClassOutOfRange,
	CodeTooLate:         ClassOutOfRange,
	CodeValueOutOfRange: ClassOutOfRange,
	CodeDuplicateAlarm:  ClassConflict,
	CodeNothingToCancel: ClassConflict,
	CodeRepeatingOnly:   ClassConflict,
	CodeNoPairedDevice:  ClassNotFound,
	CodeNoSensorData:    ClassNotFound,
	CodeNoSleepData:     ClassNotFound,
	CodeSoundNotFound:   ClassNotFound,
	CodeStaleSensorData: ClassStaleData,
	CodeUpstreamFailure: ClassUpstreamFailure,
	CodeStoreFailure:    ClassUpstreamFailure,
	CodeInternalError:   ClassUpstreamFailure,
	CodeUnrecognized:    ClassUnrecognized,
}

// Class returns the taxonomy class; unknown codes count as upstream failures.
func (c ErrorCode) Class() ErrorClass {
	if class, ok := codeClasses[c]; ok {
		return class
	}
	return ClassUpstreamFailure
}

// Outcome is the user-facing part of a Result.
type Outcome struct {
	Success      bool
	Code         ErrorCode
	ResponseText string
}

// LightAction drives the secondary smart-light action after a lights command.
type LightAction struct {
	On              optional.Value[bool]
	BrightnessDelta int
	ColorTempDelta  int
}

// Result is the uniform envelope produced by every dispatch.
type Result struct {
	Handler HandlerType
	Command Command
	Outcome Outcome
	Side    optional.Value[LightAction]
}

// Success builds a successful result.
func Success(handler HandlerType, cmd Command, text string) Result {
	return Result{
		Handler: handler,
		Command: cmd,
		Outcome: Outcome{Success: true, Code: CodeNone, ResponseText: text},
	}
}

// Failure builds a failed result with a spoken explanation.
func Failure(handler HandlerType, cmd Command, code ErrorCode, text string) Result {
	return Result{
		Handler: handler,
		Command: cmd,
		Outcome: Outcome{Success: false, Code: code, ResponseText: text},
	}
}

// WithSide attaches a light action.
func (r Result) WithSide(action LightAction) Result {
	r.Side = optional.Some(action)
	return r
}

// DeliveryMode declares how a result is voiced.
type DeliveryMode string

const (
	DeliverySilent  DeliveryMode = "silent"
	DeliveryStatic  DeliveryMode = "static"
	DeliveryDynamic DeliveryMode = "dynamic"
)

// ClipID names a canned, pre-recorded clip.
type ClipID string

const (
	ClipOK           ClipID = "ok"
	ClipTryAgain     ClipID = "try_again"
	ClipUnrecognized ClipID = "unrecognized"
)

// Delivery is a handler's voicing decision for one result.
type Delivery struct {
	Mode DeliveryMode
	Clip ClipID
}

func Silent() Delivery            { return Delivery{Mode: DeliverySilent} }
func Static(clip ClipID) Delivery { return Delivery{Mode: DeliveryStatic, Clip: clip} }
func Dynamic() Delivery           { return Delivery{Mode: DeliveryDynamic} }
