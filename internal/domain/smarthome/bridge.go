package smarthome

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"golang.org/x/oauth2"

	platformerrors "sleepvoice-server-go/internal/platform/errors"
	"sleepvoice-server-go/internal/util/optional"
)

// DefaultBridgeTimeout bounds one vendor call.
const DefaultBridgeTimeout = 5 * time.Second

// LightChange is a relative adjustment to a light group.
type LightChange struct {
	On              optional.Value[bool] `json:"on"`
	BrightnessDelta int                  `json:"brightness_delta,omitempty"`
	ColorTempDelta  int                  `json:"color_temp_delta,omitempty"`
}

// LightBridge applies light changes through a vendor bridge.
type LightBridge interface {
	ApplyLights(ctx context.Context, token Token, change LightChange) error
}

// ThermostatState is a thermostat reading in Celsius.
type ThermostatState struct {
	TargetC  float64 `json:"target_c"`
	CurrentC float64 `json:"current_c"`
}

// ThermostatBridge reads and sets a paired thermostat.
type ThermostatBridge interface {
	SetTarget(ctx context.Context, token Token, celsius float64) error
	ReadThermostat(ctx context.Context, token Token) (ThermostatState, error)
}

// BridgeConfig points at a vendor REST endpoint.
type BridgeConfig struct {
	BaseURL string
	Timeout time.Duration
}

type httpBridge struct {
	baseURL string
	timeout time.Duration
}

func newHTTPBridge(cfg BridgeConfig) httpBridge {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultBridgeTimeout
	}
	return httpBridge{baseURL: strings.TrimRight(cfg.BaseURL, "/"), timeout: timeout}
}

// do sends one JSON request with the bridge token as bearer credential and
// decodes the response into out when out is non-nil.
func (b httpBridge) do(ctx context.Context, op string, token Token, method, p string, body, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		payload, err := sonic.Marshal(body)
		if err != nil {
			return platformerrors.Wrap(platformerrors.KindDomain, op, "encode request", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+p, reader)
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindUpstream, op, "build request", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token.AccessToken}))
	client.Timeout = b.timeout
	resp, err := client.Do(req)
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindUpstream, op, "call bridge", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return platformerrors.New(platformerrors.KindUpstream, op, fmt.Sprintf("bridge returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))))
	}
	if out == nil {
		return nil
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindUpstream, op, "read response", err)
	}
	if err := sonic.Unmarshal(raw, out); err != nil {
		return platformerrors.Wrap(platformerrors.KindUpstream, op, "decode response", err)
	}
	return nil
}

// HTTPLightBridge talks to a lighting vendor's REST API.
type HTTPLightBridge struct {
	httpBridge
}

func NewHTTPLightBridge(cfg BridgeConfig) *HTTPLightBridge {
	return &HTTPLightBridge{httpBridge: newHTTPBridge(cfg)}
}

func (b *HTTPLightBridge) ApplyLights(ctx context.Context, token Token, change LightChange) error {
	p := "/bridges/" + url.PathEscape(token.BridgeID) + "/lights/state"
	return b.do(ctx, "smarthome.ApplyLights", token, http.MethodPut, p, change, nil)
}

// HTTPThermostatBridge talks to a thermostat vendor's REST API.
type HTTPThermostatBridge struct {
	httpBridge
}

func NewHTTPThermostatBridge(cfg BridgeConfig) *HTTPThermostatBridge {
	return &HTTPThermostatBridge{httpBridge: newHTTPBridge(cfg)}
}

func (b *HTTPThermostatBridge) thermostatPath(token Token) string {
	return "/thermostats/" + url.PathEscape(token.BridgeID)
}

func (b *HTTPThermostatBridge) SetTarget(ctx context.Context, token Token, celsius float64) error {
	body := map[string]float64{"target_c": celsius}
	return b.do(ctx, "smarthome.SetTarget", token, http.MethodPut, b.thermostatPath(token)+"/target", body, nil)
}

func (b *HTTPThermostatBridge) ReadThermostat(ctx context.Context, token Token) (ThermostatState, error) {
	var state ThermostatState
	err := b.do(ctx, "smarthome.ReadThermostat", token, http.MethodGet, b.thermostatPath(token), nil, &state)
	return state, err
}
