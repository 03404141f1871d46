package speech

import (
	"context"

	"sleepvoice-server-go/internal/util/optional"
)

// Handler is one voice capability.
//
// Claim and Score are pure functions of the transcript. Execute performs the
// capability and must report every failure inside the returned Result; the
// dispatcher still guards against panics.
type Handler interface {
	Type() HandlerType
	Claim(t Transcript) optional.Value[Command]
	Score(t Transcript) int
	Execute(ctx context.Context, t Transcript, req VoiceRequest, cmd Command) Result
	Delivery(cmd Command, res Result) Delivery
}
