// Package smalltalk answers greetings and pleasantries.
package smalltalk

import (
	"context"
	"sync"

	"sleepvoice-server-go/internal/domain/handlers/common"
	"sleepvoice-server-go/internal/domain/speech"
	"sleepvoice-server-go/internal/util/optional"
)

var replies = map[speech.Command][]string{
	speech.SmallTalkGreeting: {
		"Hello there.",
		"Hi, how can I help you tonight?",
		"Hey, good to hear from you.",
	},
	speech.SmallTalkThanks: {
		"You're welcome.",
		"Happy to help.",
		"Anytime.",
	},
	speech.SmallTalkHowAreYou: {
		"I'm doing well, thanks for asking.",
		"All good here. Ready when you are.",
	},
}

type Handler struct {
	common.Base
	mu      sync.Mutex
	turns   map[speech.Command]int
	matcher *speech.Matcher
}

func New(base common.Base) *Handler {
	return &Handler{
		Base:  base,
		turns: make(map[speech.Command]int),
		matcher: speech.NewMatcher(
			speech.Literal("how are you", speech.SmallTalkHowAreYou),
			speech.Literal("thank you", speech.SmallTalkThanks),
			speech.Literal("thanks", speech.SmallTalkThanks),
			speech.Literal("good night", speech.SmallTalkGreeting),
			speech.Literal("good morning", speech.SmallTalkGreeting),
			speech.Regex(`^(hi|hello|hey)\b`, speech.SmallTalkGreeting),
		),
	}
}

func (h *Handler) Type() speech.HandlerType { return speech.HandlerSmallTalk }

func (h *Handler) Claim(t speech.Transcript) optional.Value[speech.Command] {
	return h.matcher.Match(t)
}

func (h *Handler) Score(speech.Transcript) int { return 0 }

func (h *Handler) Delivery(speech.Command, speech.Result) speech.Delivery {
	return speech.Dynamic()
}

func (h *Handler) Execute(_ context.Context, _ speech.Transcript, _ speech.VoiceRequest, cmd speech.Command) speech.Result {
	set, ok := replies[cmd]
	if !ok {
		return speech.Failure(speech.HandlerSmallTalk, cmd, speech.CodeUnrecognized, common.TextTryLater)
	}
	h.mu.Lock()
	i := h.turns[cmd] % len(set)
	h.turns[cmd]++
	h.mu.Unlock()
	return speech.Success(speech.HandlerSmallTalk, cmd, set[i])
}
