package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"sleepvoice-server-go/internal/app/services"
	"sleepvoice-server-go/internal/bootstrap"
	"sleepvoice-server-go/internal/domain/speech"
	"sleepvoice-server-go/internal/platform/logging"
)

var (
	dispatchDevice   string
	dispatchAccount  string
	dispatchTimezone string
	dispatchTimes    []string
	dispatchSounds   []string
	dispatchDuration time.Duration
	dispatchFormat   string
	dispatchEQ       string
	dispatchOut      string
	dispatchResolve  bool
)

var dispatchCmd = &cobra.Command{
	Use:   "dispatch [transcript]",
	Short: "Run one transcript through the voice stack",
	Long: `Builds the configured voice stack in-process and handles one transcript.
With --resolve only the claiming handlers are listed and nothing is executed.`,
	Args: cobra.ExactArgs(1),
	RunE: runDispatch,
}

func init() {
	f := dispatchCmd.Flags()
	f.StringVar(&dispatchDevice, "device", "cli-device", "device id")
	f.StringVar(&dispatchAccount, "account", "cli-account", "account id")
	f.StringVar(&dispatchTimezone, "tz", "", "IANA timezone of the device")
	f.StringSliceVar(&dispatchTimes, "time", nil, "time annotation as HH:MM or YYYY-MM-DDTHH:MM")
	f.StringSliceVar(&dispatchSounds, "sound", nil, "sound annotation by name")
	f.DurationVar(&dispatchDuration, "duration", 0, "duration annotation")
	f.StringVar(&dispatchFormat, "format", "", "output format: pcm, wav or opus")
	f.StringVar(&dispatchEQ, "eq", "", "equalizer profile")
	f.StringVarP(&dispatchOut, "out", "o", "", "write the audio to this file")
	f.BoolVar(&dispatchResolve, "resolve", false, "list claiming handlers without executing")
	rootCmd.AddCommand(dispatchCmd)
}

func runDispatch(cmd *cobra.Command, args []string) error {
	payload, err := buildPayload(args[0])
	if err != nil {
		return err
	}
	transcript, err := payload.Transcript()
	if err != nil {
		return err
	}

	engine, err := bootstrap.Prepare(cmd.Context(), bootstrap.Options{
		ConfigPath: configPath,
		Logger:     logging.NewWithWriter(cmd.ErrOrStderr(), "warn"),
	})
	if err != nil {
		return err
	}
	defer engine.Close()

	if dispatchResolve {
		return printResolution(cmd, engine, transcript)
	}

	req := speech.VoiceRequest{
		AccountID:  dispatchAccount,
		DeviceID:   dispatchDevice,
		IP:         "127.0.0.1",
		Transcript: transcript.Raw(),
	}
	resp, err := engine.Voice.Handle(cmd.Context(), req, transcript, services.OutputOptions{
		Format:    dispatchFormat,
		Equalizer: dispatchEQ,
	})
	if err != nil {
		return fmt.Errorf("dispatch failed: %w", err)
	}

	if dispatchOut != "" && len(resp.Output.Audio) > 0 {
		if err := os.WriteFile(dispatchOut, resp.Output.Audio, 0o644); err != nil {
			return fmt.Errorf("write audio: %w", err)
		}
	}
	return printJSON(cmd, resp.View(false))
}

type resolutionView struct {
	Handler string `json:"handler"`
	Command string `json:"command"`
	Score   int    `json:"score"`
	Winner  bool   `json:"winner"`
}

func printResolution(cmd *cobra.Command, engine *bootstrap.Engine, t speech.Transcript) error {
	res := engine.Dispatcher.Resolve(t)
	winner, hasWinner := res.Winner.Get()

	views := make([]resolutionView, 0, len(res.Candidates))
	for _, c := range res.Candidates {
		views = append(views, resolutionView{
			Handler: string(c.Handler.Type()),
			Command: string(c.Command),
			Score:   c.Score,
			Winner:  hasWinner && c.Handler.Type() == winner.Handler.Type(),
		})
	}
	return printJSON(cmd, views)
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	data, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}

func buildPayload(text string) (services.TranscriptPayload, error) {
	payload := services.TranscriptPayload{Text: text, Timezone: dispatchTimezone}
	for _, raw := range dispatchTimes {
		tp, err := parseTimeFlag(raw)
		if err != nil {
			return payload, err
		}
		payload.Times = append(payload.Times, tp)
	}
	for _, name := range dispatchSounds {
		payload.Sounds = append(payload.Sounds, services.SoundPayload{Text: name, Name: name})
	}
	if dispatchDuration != 0 {
		payload.Durations = append(payload.Durations, services.DurationPayload{
			Text:    dispatchDuration.String(),
			Seconds: int(dispatchDuration / time.Second),
		})
	}
	return payload, nil
}

func parseTimeFlag(raw string) (services.TimePayload, error) {
	tp := services.TimePayload{Text: raw}
	clock := raw
	if date, rest, ok := strings.Cut(raw, "T"); ok {
		tp.Date, clock = date, rest
	}
	h, m, ok := strings.Cut(clock, ":")
	if !ok {
		return tp, fmt.Errorf("time %q: want HH:MM", raw)
	}
	hour, err := strconv.Atoi(h)
	if err != nil {
		return tp, fmt.Errorf("time %q: bad hour", raw)
	}
	minute, err := strconv.Atoi(m)
	if err != nil {
		return tp, fmt.Errorf("time %q: bad minute", raw)
	}
	tp.Hour, tp.Minute = hour, minute
	return tp, nil
}
