package lights

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"sleepvoice-server-go/internal/domain/handlers/common"
	"sleepvoice-server-go/internal/domain/smarthome"
	"sleepvoice-server-go/internal/domain/speech"
	"sleepvoice-server-go/internal/util/optional"
)

var req = speech.VoiceRequest{AccountID: "acct-1", DeviceID: "dev-1"}

type mockBridge struct {
	mock.Mock
}

func (m *mockBridge) ApplyLights(ctx context.Context, token smarthome.Token, change smarthome.LightChange) error {
	return m.Called(ctx, token, change).Error(0)
}

func setup(paired bool) (*Handler, *mockBridge) {
	vault := smarthome.NewMemoryVault()
	if paired {
		vault.Put("acct-1", smarthome.ServiceLights, smarthome.Token{AccessToken: "tok", BridgeID: "hue-1"})
	}
	bridge := &mockBridge{}
	return New(vault, bridge, common.NewBase(nil, nil, time.Second)), bridge
}

func run(t *testing.T, h *Handler, text string) speech.Result {
	t.Helper()
	tr := speech.NewTranscript(text)
	cmd, ok := h.Claim(tr).Get()
	require.True(t, ok, "lights handler should claim %q", text)
	return h.Execute(context.Background(), tr, req, cmd)
}

func TestTurnOn(t *testing.T) {
	h, bridge := setup(true)
	token := smarthome.Token{AccessToken: "tok", BridgeID: "hue-1"}
	bridge.On("ApplyLights", mock.Anything, token, smarthome.LightChange{On: optional.Some(true)}).Return(nil).Once()

	res := run(t, h, "turn on the lights")

	assert.True(t, res.Outcome.Success)
	assert.Equal(t, speech.LightOn, res.Command)
	side, ok := res.Side.Get()
	require.True(t, ok)
	assert.Equal(t, optional.Some(true), side.On)
	assert.Equal(t, speech.Static(speech.ClipOK), h.Delivery(res.Command, res))
	bridge.AssertExpectations(t)
}

func TestRelativeAdjustments(t *testing.T) {
	cases := []struct {
		text string
		cmd  speech.Command
		want speech.LightAction
	}{
		{"make the lights brighter", speech.LightBrighten, speech.LightAction{BrightnessDelta: BrightnessStep}},
		{"please turn down the lights", speech.LightDim, speech.LightAction{BrightnessDelta: -BrightnessStep}},
		{"make the light warmer", speech.LightWarmer, speech.LightAction{ColorTempDelta: -ColorTempStep}},
		{"make my lights cooler", speech.LightCooler, speech.LightAction{ColorTempDelta: ColorTempStep}},
		{"switch off my lights", speech.LightOff, speech.LightAction{On: optional.Some(false)}},
	}
	for _, tc := range cases {
		t.Run(tc.text, func(t *testing.T) {
			h, bridge := setup(true)
			bridge.On("ApplyLights", mock.Anything, mock.Anything, mock.Anything).Return(nil)

			res := run(t, h, tc.text)

			assert.True(t, res.Outcome.Success)
			assert.Equal(t, tc.cmd, res.Command)
			assert.Equal(t, optional.Some(tc.want), res.Side)
		})
	}
}

func TestNoPairedDevice(t *testing.T) {
	h, bridge := setup(false)

	res := run(t, h, "lights off")

	assert.False(t, res.Outcome.Success)
	assert.Equal(t, speech.CodeNoPairedDevice, res.Outcome.Code)
	assert.Equal(t, TextNoPairedDevice, res.Outcome.ResponseText)
	assert.False(t, res.Side.IsPresent())
	assert.Equal(t, speech.Dynamic(), h.Delivery(res.Command, res))
	bridge.AssertNotCalled(t, "ApplyLights", mock.Anything, mock.Anything, mock.Anything)
}

func TestBridgeFailure(t *testing.T) {
	h, bridge := setup(true)
	bridge.On("ApplyLights", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("bridge offline"))

	res := run(t, h, "dim the lights")

	assert.False(t, res.Outcome.Success)
	assert.Equal(t, speech.CodeUpstreamFailure, res.Outcome.Code)
	assert.Equal(t, TextBridgeFailed, res.Outcome.ResponseText)
}
