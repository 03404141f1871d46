package eventbus

import (
	"context"
	"time"

	"sleepvoice-server-go/internal/domain/eventbus/repository"
	"sleepvoice-server-go/internal/platform/logging"
)

const journalWriteTimeout = 2 * time.Second

// SubscribeLogging logs every dispatch completion and device message.
func SubscribeLogging(bus *AsyncEventBus, logger *logging.Logger) error {
	if err := bus.Subscribe(TopicDispatchCompleted, func(ev DispatchEvent) {
		logger.DebugTag("Dispatch", "completed", map[string]interface{}{
			"device":  ev.DeviceID,
			"handler": ev.Handler,
			"command": ev.Command,
			"success": ev.Success,
			"code":    ev.Code,
			"elapsed": ev.Elapsed.String(),
		})
	}); err != nil {
		return err
	}
	return bus.Subscribe(TopicDeviceAudio, func(msg DeviceMessage) {
		logger.DebugTag("WebSocket", "device message %s -> %s (%s)", msg.Kind, msg.DeviceID, msg.ID)
	})
}

// SubscribeJournal appends every dispatch completion to the journal.
// Write failures are logged and dropped.
func SubscribeJournal(bus *AsyncEventBus, journal repository.JournalRepository, logger *logging.Logger) error {
	return bus.Subscribe(TopicDispatchCompleted, func(ev DispatchEvent) {
		ctx, cancel := context.WithTimeout(context.Background(), journalWriteTimeout)
		defer cancel()
		err := journal.Store(ctx, repository.Entry{
			AccountID: ev.AccountID,
			DeviceID:  ev.DeviceID,
			Handler:   ev.Handler,
			Command:   ev.Command,
			Success:   ev.Success,
			Code:      ev.Code,
			Elapsed:   ev.Elapsed,
		})
		if err != nil {
			logger.WarnTag("Journal", "dropped %s/%s for %s: %v", ev.Handler, ev.Command, ev.DeviceID, err)
		}
	})
}
