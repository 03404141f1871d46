// Package trivia asks sleep-themed trivia from a fixed table.
package trivia

import (
	"context"
	"fmt"
	"sync/atomic"

	"sleepvoice-server-go/internal/domain/handlers/common"
	"sleepvoice-server-go/internal/domain/speech"
	"sleepvoice-server-go/internal/util/optional"
)

// TextFormat joins a question and its answer into one reply.
const TextFormat = "Here's one. %s The answer is %s."

// Question is one trivia entry.
type Question struct {
	Prompt string
	Answer string
}

// DefaultQuestions is the built-in table.
var DefaultQuestions = []Question{
	{"Which animal can sleep standing up and lying down, but only dreams lying down?", "the horse"},
	{"How long does a typical sleep cycle last?", "about 90 minutes"},
	{"Which hormone rises in the evening to make you feel sleepy?", "melatonin"},
	{"Which marine mammal sleeps with one half of its brain at a time?", "the dolphin"},
	{"What is the fear of going to sleep called?", "somniphobia"},
	{"In which stage of sleep do most vivid dreams happen?", "REM sleep"},
}

type Handler struct {
	common.Base
	questions []Question
	next      atomic.Uint64
	matcher   *speech.Matcher
}

// New rotates through questions in order. An empty table uses DefaultQuestions.
func New(questions []Question, base common.Base) *Handler {
	if len(questions) == 0 {
		questions = DefaultQuestions
	}
	return &Handler{
		Base:      base,
		questions: questions,
		matcher: speech.NewMatcher(
			speech.Literal("trivia", speech.Trivia),
			speech.Literal("fun fact", speech.Trivia),
			speech.Regex(`ask me (a )?(question|quiz)`, speech.Trivia),
		),
	}
}

func (h *Handler) Type() speech.HandlerType { return speech.HandlerTrivia }

func (h *Handler) Claim(t speech.Transcript) optional.Value[speech.Command] {
	return h.matcher.Match(t)
}

func (h *Handler) Score(speech.Transcript) int { return 0 }

func (h *Handler) Delivery(speech.Command, speech.Result) speech.Delivery {
	return speech.Dynamic()
}

func (h *Handler) Execute(_ context.Context, _ speech.Transcript, _ speech.VoiceRequest, cmd speech.Command) speech.Result {
	i := (h.next.Add(1) - 1) % uint64(len(h.questions))
	q := h.questions[i]
	return speech.Success(speech.HandlerTrivia, cmd, fmt.Sprintf(TextFormat, q.Prompt, q.Answer))
}
