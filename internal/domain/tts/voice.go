package tts

import (
	"math/rand"
	"strings"
	"sync"
)

const (
	VoiceModeFixed  = "fixed"
	VoiceModeRandom = "random"
)

// VoiceSelector picks the voice for one synthesis.
type VoiceSelector struct {
	mode   string
	voices []string

	mu  sync.Mutex
	rng *rand.Rand
}

// NewVoiceSelector uses the first voice in fixed mode and a uniform choice in
// random mode. An empty list yields "", leaving the backend default.
func NewVoiceSelector(mode string, voices []string, seed int64) *VoiceSelector {
	return &VoiceSelector{
		mode:   strings.ToLower(mode),
		voices: append([]string(nil), voices...),
		rng:    rand.New(rand.NewSource(seed)),
	}
}

func (s *VoiceSelector) Pick() string {
	if len(s.voices) == 0 {
		return ""
	}
	if s.mode != VoiceModeRandom || len(s.voices) == 1 {
		return s.voices[0]
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.voices[s.rng.Intn(len(s.voices))]
}

// Voices returns the configured set.
func (s *VoiceSelector) Voices() []string {
	return append([]string(nil), s.voices...)
}
