// Package sleepsound starts and stops ambient sleep sounds on the device.
// Playback is deferred so the spoken confirmation finishes first.
package sleepsound

import (
	"context"
	"fmt"
	"strings"
	"time"

	"sleepvoice-server-go/internal/domain/devicestate/model"
	"sleepvoice-server-go/internal/domain/devicestate/store"
	"sleepvoice-server-go/internal/domain/eventbus"
	"sleepvoice-server-go/internal/domain/handlers/common"
	"sleepvoice-server-go/internal/domain/speech"
	"sleepvoice-server-go/internal/domain/task"
	"sleepvoice-server-go/internal/util/optional"
)

const (
	TextPlaying    = "Ok, playing %s for %s."
	TextNotFound   = "Sorry, I couldn't find the sound %s."
	TextNoSounds   = "Sorry, no sleep sounds are available on your device."
	TextStopping   = "Ok, stopping your sleep sound."
	TextPlayFailed = "Sorry, I wasn't able to play your sleep sound. Please try again later."
	TextStopFailed = "Sorry, I wasn't able to stop your sleep sound. Please try again later."
)

// Deferrer schedules fire-and-forget work.
type Deferrer interface {
	Schedule(delay time.Duration, name string, fn task.Func) (string, error)
}

// Config tunes playback defaults.
type Config struct {
	PlaybackDelay   time.Duration
	DefaultDuration time.Duration
	DefaultVolume   int
}

func DefaultConfig() Config {
	return Config{PlaybackDelay: 3 * time.Second, DefaultDuration: 30 * time.Minute, DefaultVolume: 50}
}

type Handler struct {
	common.Base
	store     store.Store
	deferrer  Deferrer
	messenger eventbus.Messenger
	cfg       Config
	matcher   *speech.Matcher
}

func New(st store.Store, deferrer Deferrer, messenger eventbus.Messenger, cfg Config, base common.Base) *Handler {
	defaults := DefaultConfig()
	if cfg.DefaultDuration <= 0 {
		cfg.DefaultDuration = defaults.DefaultDuration
	}
	if cfg.DefaultVolume <= 0 {
		cfg.DefaultVolume = defaults.DefaultVolume
	}
	if cfg.PlaybackDelay < 0 {
		cfg.PlaybackDelay = defaults.PlaybackDelay
	}
	return &Handler{
		Base:      base,
		store:     st,
		deferrer:  deferrer,
		messenger: messenger,
		cfg:       cfg,
		matcher: speech.NewMatcher(
			speech.Literal("stop the sound", speech.SleepSoundStop),
			speech.Literal("stop sleep sound", speech.SleepSoundStop),
			speech.Literal("turn off the sound", speech.SleepSoundStop),
			speech.Literal("play sleep sound", speech.SleepSoundPlay),
			speech.Literal("play a sleep sound", speech.SleepSoundPlay),
			speech.Literal("play white noise", speech.SleepSoundPlay),
			speech.Regex(`(stop|turn off|end)\b.*\b(sounds?|noise|music)\b`, speech.SleepSoundStop),
			speech.Regex(`(play|start|put on)\b.*\b(sounds?|noise|music|rain|ocean|waves)\b`, speech.SleepSoundPlay),
		),
	}
}

func (h *Handler) Type() speech.HandlerType { return speech.HandlerSleepSound }

// Claim also takes any transcript carrying a sound annotation, so a
// sound-only request always has this handler as a scored claimant.
func (h *Handler) Claim(t speech.Transcript) optional.Value[speech.Command] {
	if cmd := h.matcher.Match(t); cmd.IsPresent() {
		return cmd
	}
	if len(t.Sounds()) > 0 {
		return optional.Some(speech.SleepSoundPlay)
	}
	return optional.None[speech.Command]()
}

// Score counts sound and duration annotations.
func (h *Handler) Score(t speech.Transcript) int {
	return len(t.Sounds()) + len(t.Durations())
}

func (h *Handler) Delivery(cmd speech.Command, res speech.Result) speech.Delivery {
	if cmd == speech.SleepSoundStop && res.Outcome.Success {
		return speech.Silent()
	}
	return speech.Dynamic()
}

func (h *Handler) Execute(ctx context.Context, t speech.Transcript, req speech.VoiceRequest, cmd speech.Command) speech.Result {
	switch cmd {
	case speech.SleepSoundPlay:
		return h.play(ctx, t, req)
	case speech.SleepSoundStop:
		return h.stop(req)
	default:
		return speech.Failure(speech.HandlerSleepSound, cmd, speech.CodeUnrecognized, common.TextTryLater)
	}
}

func (h *Handler) fail(cmd speech.Command, code speech.ErrorCode, text string) speech.Result {
	return speech.Failure(speech.HandlerSleepSound, cmd, code, text)
}

func findSound(sounds []model.Sound, wanted string) optional.Value[model.Sound] {
	wanted = strings.ToLower(strings.TrimSpace(wanted))
	if wanted == "" {
		return optional.None[model.Sound]()
	}
	for _, s := range sounds {
		if strings.EqualFold(s.ID, wanted) || strings.EqualFold(s.Name, wanted) {
			return optional.Some(s)
		}
	}
	for _, s := range sounds {
		if strings.Contains(strings.ToLower(s.Name), wanted) {
			return optional.Some(s)
		}
	}
	return optional.None[model.Sound]()
}

func (h *Handler) play(ctx context.Context, t speech.Transcript, req speech.VoiceRequest) speech.Result {
	const cmd = speech.SleepSoundPlay
	key := common.DeviceKey(req)

	callCtx, cancel := h.StoreContext(ctx)
	sounds, err := h.store.ListSounds(callCtx, key)
	cancel()
	if err != nil {
		h.Logger.ErrorTag("SleepSound", "list sounds for %s: %v", req.DeviceID, err)
		return h.fail(cmd, speech.CodeStoreFailure, TextPlayFailed)
	}
	if len(sounds) == 0 {
		return h.fail(cmd, speech.CodeSoundNotFound, TextNoSounds)
	}

	callCtx, cancel = h.StoreContext(ctx)
	stored, err := h.store.GetSoundSetting(callCtx, key)
	cancel()
	if err != nil {
		// playback still works from defaults
		h.Logger.WarnTag("SleepSound", "load setting for %s: %v", req.DeviceID, err)
	}
	setting := stored.OrElse(model.SoundSetting{})

	var sound model.Sound
	if ann, ok := t.FirstSound().Get(); ok {
		found, ok := findSound(sounds, ann.Name).Get()
		if !ok {
			return h.fail(cmd, speech.CodeSoundNotFound, fmt.Sprintf(TextNotFound, ann.Text))
		}
		sound = found
	} else {
		sound = findSound(sounds, setting.LastSoundID).OrElse(sounds[0])
	}

	duration := h.cfg.DefaultDuration
	if ann, ok := t.FirstDuration().Get(); ok && ann.Duration > 0 {
		duration = ann.Duration
	} else if setting.DurationMinutes > 0 {
		duration = time.Duration(setting.DurationMinutes) * time.Minute
	}
	volume := h.cfg.DefaultVolume
	if setting.VolumePercent > 0 {
		volume = setting.VolumePercent
	}

	audio := eventbus.AudioCommand{
		DeviceID:      req.DeviceID,
		SoundID:       sound.ID,
		SoundName:     sound.Name,
		SoundURL:      sound.URL,
		Duration:      duration,
		VolumePercent: volume,
	}
	id, err := h.deferrer.Schedule(h.cfg.PlaybackDelay, "sleep-sound-start", func(taskCtx context.Context) error {
		ack, err := h.messenger.StartAudio(taskCtx, audio)
		if err != nil {
			return err
		}
		h.Logger.InfoTag("SleepSound", "start %s on %s ack=%s", audio.SoundID, audio.DeviceID, ack.OrElse("none"))
		return nil
	})
	if err != nil {
		h.Logger.ErrorTag("SleepSound", "schedule playback for %s: %v", req.DeviceID, err)
		return h.fail(cmd, speech.CodeUpstreamFailure, TextPlayFailed)
	}
	h.Logger.DebugTag("SleepSound", "playback task %s scheduled", id)

	setting.LastSoundID = sound.ID
	callCtx, cancel = h.StoreContext(ctx)
	if err := h.store.SetSoundSetting(callCtx, key, setting); err != nil {
		h.Logger.WarnTag("SleepSound", "save setting for %s: %v", req.DeviceID, err)
	}
	cancel()

	return speech.Success(speech.HandlerSleepSound, cmd, fmt.Sprintf(TextPlaying, sound.Name, common.FormatDuration(duration)))
}

func (h *Handler) stop(req speech.VoiceRequest) speech.Result {
	const cmd = speech.SleepSoundStop
	deviceID := req.DeviceID

	_, err := h.deferrer.Schedule(0, "sleep-sound-stop", func(taskCtx context.Context) error {
		ack, err := h.messenger.StopAudio(taskCtx, deviceID)
		if err != nil {
			return err
		}
		h.Logger.InfoTag("SleepSound", "stop on %s ack=%s", deviceID, ack.OrElse("none"))
		return nil
	})
	if err != nil {
		h.Logger.ErrorTag("SleepSound", "schedule stop for %s: %v", deviceID, err)
		return h.fail(cmd, speech.CodeUpstreamFailure, TextStopFailed)
	}
	return speech.Success(speech.HandlerSleepSound, cmd, TextStopping)
}
