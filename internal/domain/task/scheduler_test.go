package task

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sleepvoice-server-go/internal/platform/logging"
	"sleepvoice-server-go/internal/platform/observability"
)

func waitIdle(t *testing.T, s *Scheduler) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.WaitIdle(ctx))
}

func TestScheduler_RunsAfterDelayInOrder(t *testing.T) {
	s := NewScheduler(Config{Workers: 1}, logging.NewNop(), nil)
	s.Start()
	defer s.Stop()

	var mu sync.Mutex
	var order []string
	record := func(name string) Func {
		return func(context.Context) error {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return nil
		}
	}

	start := time.Now()
	_, err := s.Schedule(60*time.Millisecond, "second", record("second"))
	require.NoError(t, err)
	_, err = s.Schedule(20*time.Millisecond, "first", record("first"))
	require.NoError(t, err)

	waitIdle(t, s)
	assert.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestScheduler_FailuresAndPanicsAreContained(t *testing.T) {
	metrics := observability.NewMetrics()
	s := NewScheduler(Config{}, logging.NewNop(), metrics)
	s.Start()
	defer s.Stop()

	_, err := s.Schedule(0, "fails", func(context.Context) error { return errors.New("device offline") })
	require.NoError(t, err)
	_, err = s.Schedule(0, "panics", func(context.Context) error { panic("boom") })
	require.NoError(t, err)
	_, err = s.Schedule(0, "works", func(context.Context) error { return nil })
	require.NoError(t, err)

	waitIdle(t, s)
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.DeferredTasksTotal.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.DeferredTasksTotal.WithLabelValues("success")))
}

func TestScheduler_TaskTimeout(t *testing.T) {
	s := NewScheduler(Config{Timeout: 20 * time.Millisecond}, logging.NewNop(), nil)
	s.Start()
	defer s.Stop()

	var got error
	_, err := s.Schedule(0, "slow", func(ctx context.Context) error {
		<-ctx.Done()
		got = ctx.Err()
		return got
	})
	require.NoError(t, err)

	waitIdle(t, s)
	assert.ErrorIs(t, got, context.DeadlineExceeded)
}

func TestScheduler_StopDiscardsFutureTasks(t *testing.T) {
	s := NewScheduler(Config{}, logging.NewNop(), nil)
	s.Start()

	ran := false
	_, err := s.Schedule(time.Hour, "never", func(context.Context) error {
		ran = true
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, s.Pending())

	s.Stop()
	waitIdle(t, s)
	assert.False(t, ran)

	_, err = s.Schedule(0, "after stop", func(context.Context) error { return nil })
	assert.Error(t, err)
}
