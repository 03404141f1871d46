package eventbus

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"sleepvoice-server-go/internal/util/optional"
)

// AudioCommand asks a device to start ambient playback.
type AudioCommand struct {
	DeviceID      string
	SoundID       string
	SoundName     string
	SoundURL      string
	Duration      time.Duration
	VolumePercent int
}

// Messenger pushes fire-and-forget commands to devices. The returned id is
// a best-effort acknowledgement and may be absent.
type Messenger interface {
	StartAudio(ctx context.Context, cmd AudioCommand) (optional.Value[string], error)
	StopAudio(ctx context.Context, deviceID string) (optional.Value[string], error)
}

// Deliverer hands a message to the device's live connection and reports
// whether one took it.
type Deliverer interface {
	Deliver(msg DeviceMessage) bool
}

// BusMessenger delivers device messages through the attached transport and
// announces delivered ones on the device:audio topic. The ack is present only
// when a connected device took the message.
type BusMessenger struct {
	bus *AsyncEventBus
	now func() time.Time

	mu        sync.RWMutex
	deliverer Deliverer
}

func NewBusMessenger(bus *AsyncEventBus) *BusMessenger {
	return &BusMessenger{bus: bus, now: time.Now}
}

// Attach sets the transport that reaches devices. The transport starts
// after the handlers are built, so it is bound late.
func (m *BusMessenger) Attach(d Deliverer) {
	m.mu.Lock()
	m.deliverer = d
	m.mu.Unlock()
}

// Detach drops the transport; later messages go unacknowledged.
func (m *BusMessenger) Detach() {
	m.Attach(nil)
}

func (m *BusMessenger) StartAudio(ctx context.Context, cmd AudioCommand) (optional.Value[string], error) {
	return m.send(ctx, DeviceMessage{
		DeviceID:      cmd.DeviceID,
		Kind:          MessageStartAudio,
		SoundID:       cmd.SoundID,
		SoundName:     cmd.SoundName,
		SoundURL:      cmd.SoundURL,
		DurationSecs:  int(cmd.Duration / time.Second),
		VolumePercent: cmd.VolumePercent,
	})
}

func (m *BusMessenger) StopAudio(ctx context.Context, deviceID string) (optional.Value[string], error) {
	return m.send(ctx, DeviceMessage{DeviceID: deviceID, Kind: MessageStopAudio})
}

func (m *BusMessenger) send(ctx context.Context, msg DeviceMessage) (optional.Value[string], error) {
	if err := ctx.Err(); err != nil {
		return optional.None[string](), err
	}

	m.mu.RLock()
	deliverer := m.deliverer
	m.mu.RUnlock()
	if deliverer == nil {
		return optional.None[string](), nil
	}

	msg.ID = uuid.NewString()
	msg.SentAt = m.now()
	if !deliverer.Deliver(msg) {
		// device offline
		return optional.None[string](), nil
	}
	m.bus.Publish(TopicDeviceAudio, msg)
	return optional.Some(msg.ID), nil
}
