package smarthome

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	platformerrors "sleepvoice-server-go/internal/platform/errors"
	"sleepvoice-server-go/internal/util/optional"
)

func TestMemoryVault(t *testing.T) {
	v := NewMemoryVault()
	v.Put("acct-1", ServiceLights, Token{AccessToken: "tok", BridgeID: "hue-1"})

	got, err := v.GetExternalToken(context.Background(), "acct-1", ServiceLights)
	require.NoError(t, err)
	assert.Equal(t, optional.Some(Token{AccessToken: "tok", BridgeID: "hue-1"}), got)

	got, err = v.GetExternalToken(context.Background(), "acct-1", ServiceThermostat)
	require.NoError(t, err)
	assert.False(t, got.IsPresent())
}

func TestNewTokenVault(t *testing.T) {
	v, err := NewTokenVault(VaultConfig{})
	require.NoError(t, err)
	assert.IsType(t, &MemoryVault{}, v)

	_, err = NewTokenVault(VaultConfig{Type: "etcd"})
	require.Error(t, err)
	assert.True(t, platformerrors.IsKind(err, platformerrors.KindConfig))
}

func TestHashiVault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "root-token", r.Header.Get("X-Vault-Token"))
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v1/secret/data/sleepvoice/tokens/acct-1/lights":
			_, _ = io.WriteString(w, `{"data":{"data":{"access_token":"tok","bridge_id":"hue-1"},"metadata":{"version":1}}}`)
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"errors":[]}`)
		}
	}))
	defer srv.Close()

	v, err := NewTokenVault(VaultConfig{Type: VaultHashi, Address: srv.URL, Token: "root-token", Mount: "secret", Prefix: "sleepvoice/tokens"})
	require.NoError(t, err)

	got, err := v.GetExternalToken(context.Background(), "acct-1", ServiceLights)
	require.NoError(t, err)
	assert.Equal(t, optional.Some(Token{AccessToken: "tok", BridgeID: "hue-1"}), got)

	got, err = v.GetExternalToken(context.Background(), "acct-2", ServiceLights)
	require.NoError(t, err)
	assert.False(t, got.IsPresent())
}

func TestHTTPLightBridge(t *testing.T) {
	var body map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/bridges/hue-1/lights/state", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	b := NewHTTPLightBridge(BridgeConfig{BaseURL: srv.URL + "/", Timeout: time.Second})
	err := b.ApplyLights(context.Background(), Token{AccessToken: "tok", BridgeID: "hue-1"},
		LightChange{On: optional.Some(true), BrightnessDelta: 25})

	require.NoError(t, err)
	assert.Equal(t, true, body["on"])
	assert.Equal(t, float64(25), body["brightness_delta"])
}

func TestHTTPThermostatBridge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/thermostats/nest-1":
			_, _ = io.WriteString(w, `{"target_c":20.5,"current_c":19}`)
		case r.Method == http.MethodPut && r.URL.Path == "/thermostats/nest-1/target":
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = io.WriteString(w, "maintenance")
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	b := NewHTTPThermostatBridge(BridgeConfig{BaseURL: srv.URL})
	token := Token{AccessToken: "tok", BridgeID: "nest-1"}

	state, err := b.ReadThermostat(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, ThermostatState{TargetC: 20.5, CurrentC: 19}, state)

	err = b.SetTarget(context.Background(), token, 21)
	require.Error(t, err)
	assert.True(t, platformerrors.IsKind(err, platformerrors.KindUpstream))
	assert.Contains(t, err.Error(), "503")
}
