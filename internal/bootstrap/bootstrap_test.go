package bootstrap

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sleepvoice-server-go/internal/domain/speech"
	platformerrors "sleepvoice-server-go/internal/platform/errors"
	"sleepvoice-server-go/internal/platform/logging"
	platformtesting "sleepvoice-server-go/internal/platform/testing"
)

func testConfig(t *testing.T, storeType string) string {
	dir := t.TempDir()
	return platformtesting.WriteConfig(t, fmt.Sprintf(`
server:
  port: 18080
log:
  log_level: DEBUG
  log_dir: %s
store:
  type: %s
  sqlite:
    path: %s
cache:
  type: memory
journal:
  enabled: true
auth:
  enabled: true
  secret: test-secret
observability:
  enabled: true
`, filepath.Join(dir, "logs"), storeType, filepath.Join(dir, "state.db")))
}

func TestInitGraphOrder(t *testing.T) {
	steps := InitGraph()
	seen := make(map[string]bool, len(steps))
	for _, step := range steps {
		for _, dep := range step.DependsOn {
			assert.True(t, seen[dep], "%s depends on %s which runs later", step.ID, dep)
		}
		assert.False(t, seen[step.ID], "duplicate step %s", step.ID)
		seen[step.ID] = true
	}
	assert.Equal(t, "config:load", steps[0].ID)
}

func TestExecuteInitStepsChecksDependencies(t *testing.T) {
	steps := []initStep{{
		ID:        "b",
		DependsOn: []string{"a"},
		Execute:   func(context.Context, *appState) error { return nil },
	}}
	err := executeInitSteps(context.Background(), steps, &appState{})
	require.Error(t, err)
	assert.Equal(t, platformerrors.KindBootstrap, platformerrors.KindOf(err))
	assert.Contains(t, err.Error(), "dependency a not satisfied")
}

func TestExecuteInitStepsWrapsWithStepKind(t *testing.T) {
	steps := []initStep{{
		ID:      "storage:x",
		Kind:    platformerrors.KindStorage,
		Execute: func(context.Context, *appState) error { return fmt.Errorf("disk full") },
	}}
	err := executeInitSteps(context.Background(), steps, &appState{})
	require.Error(t, err)
	assert.Equal(t, platformerrors.KindStorage, platformerrors.KindOf(err))
}

func TestPrepareBuildsEngine(t *testing.T) {
	for _, storeType := range []string{"memory", "sqlite"} {
		t.Run(storeType, func(t *testing.T) {
			engine, err := Prepare(context.Background(), Options{
				ConfigPath:    testConfig(t, storeType),
				Logger:        logging.NewNop(),
				DisableDotEnv: true,
			})
			require.NoError(t, err)
			defer engine.Close()

			require.NotNil(t, engine.Voice)
			require.NotNil(t, engine.Dispatcher)
			assert.NotNil(t, engine.Metrics)
			assert.NotNil(t, engine.state.authority)
			assert.NotNil(t, engine.state.limiter)
			assert.Equal(t, 18080, engine.Config.Server.Port)

			winner, ok := engine.Dispatcher.Resolve(speech.NewTranscript("what time is it")).Winner.Get()
			require.True(t, ok)
			assert.Equal(t, speech.HandlerTimeReport, winner.Handler.Type())

			res, _ := engine.Dispatcher.Dispatch(context.Background(), speech.NewTranscript("when is my alarm"),
				speech.VoiceRequest{AccountID: "acct-1", DeviceID: "dev-1"})
			assert.Equal(t, speech.HandlerAlarm, res.Handler)
			assert.True(t, res.Outcome.Success)

			engine.Bus.WaitAsync()
			require.NotNil(t, engine.state.journal)
			entries, err := engine.state.journal.FindByDevice(context.Background(), "dev-1", 10)
			require.NoError(t, err)
			require.Len(t, entries, 1)
			assert.Equal(t, "alarm", entries[0].Handler)
		})
	}
}

func TestPrepareRejectsBadConfig(t *testing.T) {
	path := platformtesting.WriteConfig(t, "server:\n  port: 70000\n")
	_, err := Prepare(context.Background(), Options{ConfigPath: path, Logger: logging.NewNop(), DisableDotEnv: true})
	require.Error(t, err)
	assert.Equal(t, platformerrors.KindConfig, platformerrors.KindOf(err))
}

func TestPrepareRejectsUnknownStore(t *testing.T) {
	_, err := Prepare(context.Background(), Options{
		ConfigPath:    testConfig(t, "cassandra"),
		Logger:        logging.NewNop(),
		DisableDotEnv: true,
	})
	require.Error(t, err)
	assert.Equal(t, platformerrors.KindConfig, platformerrors.KindOf(err))
}

func TestPrepareRejectsBadAudioDefaults(t *testing.T) {
	path := platformtesting.WriteConfig(t, fmt.Sprintf("log:\n  log_dir: %s\naudio:\n  default_equalizer: loudness\n", filepath.Join(t.TempDir(), "logs")))
	_, err := Prepare(context.Background(), Options{ConfigPath: path, Logger: logging.NewNop(), DisableDotEnv: true})
	require.Error(t, err)
	assert.Equal(t, platformerrors.KindConfig, platformerrors.KindOf(err))
}

func TestPrepareRejectsBadGeoNetworks(t *testing.T) {
	path := platformtesting.WriteConfig(t, fmt.Sprintf("log:\n  log_dir: %s\ngeo:\n  networks:\n    \"10.0.0.0/8\": Mars/Olympus\n", filepath.Join(t.TempDir(), "logs")))
	_, err := Prepare(context.Background(), Options{ConfigPath: path, Logger: logging.NewNop(), DisableDotEnv: true})
	require.Error(t, err)
	assert.Equal(t, platformerrors.KindConfig, platformerrors.KindOf(err))
	assert.Contains(t, err.Error(), "geo.networks")
}
