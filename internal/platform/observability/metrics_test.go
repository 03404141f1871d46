package observability

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := NewMetrics()

	m.ObserveDispatch("alarm", "ALARM_SET", "success")
	m.ObserveDispatch("alarm", "ALARM_SET", "success")
	m.ObserveCache("hit")
	m.ObserveCache("miss")
	m.ObserveTTS("edge", "error")
	m.ObserveSynthesis(120 * time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.DispatchTotal.WithLabelValues("alarm", "ALARM_SET", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ResponseCacheTotal.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TTSRequestsTotal.WithLabelValues("edge", "error")))

	m.ObserveHTTP("POST", "/api/v1/voice", 200, 40*time.Millisecond)
	m.SetSessions(3)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("POST", "/api/v1/voice", "200")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.DeviceSessions))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveDispatch("a", "b", "c")
		m.ObserveCache("hit")
		m.ObserveTTS("edge", "ok")
		m.ObserveSynthesis(time.Second)
		m.ObserveTask("ok")
		m.ObserveHTTP("GET", "/", 200, time.Millisecond)
		m.SetSessions(1)
	})
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics()
	m.ObserveCache("hit")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), `sleepvoice_response_cache_total{result="hit"} 1`)
}

func TestSetup_DisabledReturnsNilMetrics(t *testing.T) {
	metrics, shutdown, err := Setup(context.Background(), Config{Enabled: false}, nil)
	require.NoError(t, err)
	assert.Nil(t, metrics)
	assert.False(t, Enabled())

	_, end := StartSpan(context.Background(), "test", "noop")
	end(errors.New("ignored"))
	require.NoError(t, shutdown(context.Background()))
}
