package services

// LightView is the wire form of the secondary light action.
type LightView struct {
	On              *bool `json:"on,omitempty"`
	BrightnessDelta int   `json:"brightness_delta,omitempty"`
	ColorTempDelta  int   `json:"color_temp_delta,omitempty"`
}

// ResultView is the wire form of a handled request. Audio is omitted by
// transports that send it out of band.
type ResultView struct {
	Handler   string     `json:"handler"`
	Command   string     `json:"command"`
	Success   bool       `json:"success"`
	Code      string     `json:"code"`
	Class     string     `json:"class"`
	Text      string     `json:"text"`
	Delivery  string     `json:"delivery"`
	Format    string     `json:"format,omitempty"`
	Voice     string     `json:"voice,omitempty"`
	CacheHit  bool       `json:"cache_hit"`
	Fallback  bool       `json:"fallback"`
	AudioSize int        `json:"audio_bytes"`
	Light     *LightView `json:"light,omitempty"`
	ElapsedMS int64      `json:"elapsed_ms"`
	Audio     []byte     `json:"audio,omitempty"`
}

// View flattens the response. withAudio embeds the audio bytes, which JSON
// encodes as base64.
func (r Response) View(withAudio bool) ResultView {
	v := ResultView{
		Handler:   r.Result.Handler.String(),
		Command:   r.Result.Command.String(),
		Success:   r.Result.Outcome.Success,
		Code:      string(r.Result.Outcome.Code),
		Class:     string(r.Result.Outcome.Code.Class()),
		Text:      r.Result.Outcome.ResponseText,
		Delivery:  string(r.Output.Mode),
		Format:    string(r.Output.Format),
		Voice:     r.Output.Voice,
		CacheHit:  r.Output.CacheHit,
		Fallback:  r.Output.Fallback,
		AudioSize: len(r.Output.Audio),
		ElapsedMS: r.Elapsed.Milliseconds(),
	}
	if side, ok := r.Result.Side.Get(); ok {
		lv := &LightView{BrightnessDelta: side.BrightnessDelta, ColorTempDelta: side.ColorTempDelta}
		if on, ok := side.On.Get(); ok {
			lv.On = &on
		}
		v.Light = lv
	}
	if withAudio && len(r.Output.Audio) > 0 {
		v.Audio = r.Output.Audio
	}
	return v
}

// Speech is the decoded form of one voice request, shared by the JSON
// transports and the CLI.
type Speech struct {
	Transcript TranscriptPayload `json:"transcript"`
	Format     string            `json:"format,omitempty"`
	Equalizer  string            `json:"equalizer,omitempty"`
}

// Options returns the requested output options.
func (s Speech) Options() OutputOptions {
	return OutputOptions{Format: s.Format, Equalizer: s.Equalizer}
}
