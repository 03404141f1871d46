package observability

import (
	"context"
	"log/slog"
	"sync"
)

// Config captures observability toggles.
type Config struct {
	Enabled bool
}

// ShutdownFunc allows callers to tear down any observability exporters.
type ShutdownFunc func(context.Context) error

var (
	loggerMu             sync.RWMutex
	instrumentationLog   *slog.Logger
	instrumentationState Config
)

func currentLogger() (*slog.Logger, Config) {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return instrumentationLog, instrumentationState
}

// Setup installs the span logger and builds the metrics registry. When
// observability is disabled the returned *Metrics is nil.
func Setup(ctx context.Context, cfg Config, logger *slog.Logger) (*Metrics, ShutdownFunc, error) {
	loggerMu.Lock()
	instrumentationLog = logger
	instrumentationState = cfg
	loggerMu.Unlock()

	var metrics *Metrics
	if cfg.Enabled {
		metrics = NewMetrics()
	}

	if logger != nil {
		if cfg.Enabled {
			logger.InfoContext(ctx, "[Bootstrap] observability enabled")
		} else {
			logger.InfoContext(ctx, "[Bootstrap] observability disabled")
		}
	}

	shutdown := func(context.Context) error {
		loggerMu.Lock()
		instrumentationLog = nil
		instrumentationState = Config{}
		loggerMu.Unlock()
		return nil
	}
	return metrics, shutdown, nil
}
