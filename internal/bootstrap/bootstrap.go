package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"sleepvoice-server-go/internal/app/services"
	"sleepvoice-server-go/internal/domain/audio"
	"sleepvoice-server-go/internal/domain/auth"
	"sleepvoice-server-go/internal/domain/devicestate/store"
	"sleepvoice-server-go/internal/domain/dispatch"
	"sleepvoice-server-go/internal/domain/eventbus"
	journalstore "sleepvoice-server-go/internal/domain/eventbus/infrastructure"
	"sleepvoice-server-go/internal/domain/eventbus/repository"
	"sleepvoice-server-go/internal/domain/handlers"
	"sleepvoice-server-go/internal/domain/handlers/alarm"
	"sleepvoice-server-go/internal/domain/handlers/common"
	"sleepvoice-server-go/internal/domain/handlers/sleepsound"
	"sleepvoice-server-go/internal/domain/responsecache"
	"sleepvoice-server-go/internal/domain/smarthome"
	"sleepvoice-server-go/internal/domain/synthesis"
	"sleepvoice-server-go/internal/domain/task"
	"sleepvoice-server-go/internal/domain/tts"
	platformconfig "sleepvoice-server-go/internal/platform/config"
	platformerrors "sleepvoice-server-go/internal/platform/errors"
	platformlogging "sleepvoice-server-go/internal/platform/logging"
	platformobservability "sleepvoice-server-go/internal/platform/observability"
	"sleepvoice-server-go/internal/platform/ratelimit"
	platformstorage "sleepvoice-server-go/internal/platform/storage"
	httptransport "sleepvoice-server-go/internal/transport/http"
	"sleepvoice-server-go/internal/transport/ws"
)

const (
	eventBusWorkers    = 4
	schedulerWorkers   = 4
	schedulerQueueSize = 256
	shutdownGrace      = 15 * time.Second
)

type stepFn func(context.Context, *appState) error

type initStep struct {
	ID        string
	Title     string
	DependsOn []string
	Kind      platformerrors.Kind
	Execute   stepFn
}

// Options tune Prepare.
type Options struct {
	// ConfigPath overrides the config file location. Empty uses the
	// environment or the default path.
	ConfigPath string
	// Logger replaces the file-backed logger built from config.
	Logger *platformlogging.Logger
	// DisableDotEnv skips loading .env.
	DisableDotEnv bool
}

type appState struct {
	opts Options

	config                *platformconfig.Config
	configPath            string
	logger                *platformlogging.Logger
	ownsLogger            bool
	metrics               *platformobservability.Metrics
	observabilityShutdown platformobservability.ShutdownFunc

	db               *gorm.DB
	store            store.Store
	cache            responsecache.Cache
	vault            smarthome.TokenVault
	lightBridge      smarthome.LightBridge
	thermostatBridge smarthome.ThermostatBridge

	backend  tts.Backend
	voices   *tts.VoiceSelector
	clips    *audio.ClipLibrary
	pipeline *synthesis.Pipeline

	scheduler *task.Scheduler
	bus       *eventbus.AsyncEventBus
	messenger *eventbus.BusMessenger
	journal   repository.JournalRepository

	dispatcher *dispatch.Dispatcher
	voice      *services.VoiceService

	authority *auth.TokenAuthority
	limiter   *ratelimit.Limiter
}

// Engine is the assembled voice stack without any listeners.
type Engine struct {
	Config     *platformconfig.Config
	ConfigPath string
	Logger     *platformlogging.Logger
	Metrics    *platformobservability.Metrics
	Dispatcher *dispatch.Dispatcher
	Voice      *services.VoiceService
	Bus        *eventbus.AsyncEventBus
	// Journal is nil unless journal.enabled is set.
	Journal repository.JournalRepository

	state *appState
}

// Prepare runs the init graph and returns the engine. Callers must Close it.
func Prepare(ctx context.Context, opts Options) (*Engine, error) {
	state := &appState{opts: opts}
	steps := InitGraph()
	if err := executeInitSteps(ctx, steps, state); err != nil {
		state.close()
		return nil, err
	}
	logBootstrapGraph(steps, state.logger)
	return &Engine{
		Config:     state.config,
		ConfigPath: state.configPath,
		Logger:     state.logger,
		Metrics:    state.metrics,
		Dispatcher: state.dispatcher,
		Voice:      state.voice,
		Bus:        state.bus,
		Journal:    state.journal,
		state:      state,
	}, nil
}

// Close stops background workers and releases every backing connection.
func (e *Engine) Close() {
	if e == nil || e.state == nil {
		return
	}
	e.state.close()
}

// Run serves until ctx is canceled, then shuts down gracefully.
func Run(ctx context.Context, opts Options) error {
	engine, err := Prepare(ctx, opts)
	if err != nil {
		return err
	}
	defer engine.Close()

	state := engine.state
	logger := state.logger

	rootCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	signalCtx, stop := signal.NotifyContext(rootCtx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(rootCtx)

	if err := startServices(state, group, groupCtx); err != nil {
		cancel()
		return err
	}
	// a listener failing on its own also ends the wait
	go func() {
		<-groupCtx.Done()
		stop()
	}()

	return waitForShutdown(signalCtx, cancel, logger, group)
}

func logBootstrapGraph(steps []initStep, logger *platformlogging.Logger) {
	if logger == nil {
		return
	}
	for _, step := range steps {
		logger.DebugTag("Bootstrap", "step %s: %s", step.ID, step.Title)
	}
}

func executeInitSteps(ctx context.Context, steps []initStep, state *appState) error {
	if state == nil {
		return platformerrors.New(
			platformerrors.KindBootstrap,
			"execute init steps",
			"nil bootstrap state",
		)
	}

	completed := make(map[string]struct{}, len(steps))
	for _, step := range steps {
		for _, dep := range step.DependsOn {
			if _, ok := completed[dep]; !ok {
				return platformerrors.New(
					platformerrors.KindBootstrap,
					step.ID,
					fmt.Sprintf("dependency %s not satisfied", dep),
				)
			}
		}
		if step.Execute == nil {
			return platformerrors.New(
				platformerrors.KindBootstrap,
				step.ID,
				"missing execute function",
			)
		}
		if err := step.Execute(ctx, state); err != nil {
			var typed *platformerrors.Error
			if errors.As(err, &typed) {
				return err
			}

			kind := step.Kind
			if kind == "" {
				kind = platformerrors.KindBootstrap
			}
			return platformerrors.Wrap(kind, step.ID, "bootstrap step failed", err)
		}
		completed[step.ID] = struct{}{}
	}
	return nil
}

// InitGraph lists the init steps in execution order.
func InitGraph() []initStep {
	return []initStep{
		{
			ID:      "config:load",
			Title:   "Load configuration",
			Kind:    platformerrors.KindConfig,
			Execute: loadConfigStep,
		},
		{
			ID:        "logging:init-provider",
			Title:     "Initialise logging provider",
			DependsOn: []string{"config:load"},
			Execute:   initLoggingStep,
		},
		{
			ID:        "observability:setup-hooks",
			Title:     "Setup observability hooks",
			DependsOn: []string{"logging:init-provider"},
			Execute:   setupObservabilityStep,
		},
		{
			ID:        "storage:init-database",
			Title:     "Open the SQLite database",
			DependsOn: []string{"logging:init-provider"},
			Kind:      platformerrors.KindStorage,
			Execute:   initDatabaseStep,
		},
		{
			ID:        "devicestate:init-store",
			Title:     "Initialise device-state store",
			DependsOn: []string{"storage:init-database"},
			Kind:      platformerrors.KindStorage,
			Execute:   initStoreStep,
		},
		{
			ID:        "cache:init",
			Title:     "Initialise response cache",
			DependsOn: []string{"logging:init-provider"},
			Kind:      platformerrors.KindStorage,
			Execute:   initCacheStep,
		},
		{
			ID:        "smarthome:init",
			Title:     "Initialise token vault and vendor bridges",
			DependsOn: []string{"logging:init-provider"},
			Kind:      platformerrors.KindUpstream,
			Execute:   initSmartHomeStep,
		},
		{
			ID:        "synthesis:init-pipeline",
			Title:     "Initialise TTS backend, clips and synthesis pipeline",
			DependsOn: []string{"observability:setup-hooks", "cache:init"},
			Kind:      platformerrors.KindAudio,
			Execute:   initSynthesisStep,
		},
		{
			ID:        "task:start-scheduler",
			Title:     "Start delayed task scheduler",
			DependsOn: []string{"observability:setup-hooks"},
			Execute:   startSchedulerStep,
		},
		{
			ID:        "eventbus:start",
			Title:     "Start event bus",
			DependsOn: []string{"logging:init-provider"},
			Execute:   startEventBusStep,
		},
		{
			ID:        "journal:init",
			Title:     "Attach dispatch journal",
			DependsOn: []string{"storage:init-database", "eventbus:start"},
			Kind:      platformerrors.KindStorage,
			Execute:   initJournalStep,
		},
		{
			ID:        "dispatch:init-registry",
			Title:     "Register capability handlers",
			DependsOn: []string{"devicestate:init-store", "smarthome:init", "task:start-scheduler", "journal:init"},
			Kind:      platformerrors.KindDomain,
			Execute:   initDispatchStep,
		},
		{
			ID:        "voice:init-service",
			Title:     "Initialise voice service",
			DependsOn: []string{"dispatch:init-registry", "synthesis:init-pipeline"},
			Execute:   initVoiceStep,
		},
		{
			ID:        "auth:init-authority",
			Title:     "Initialise device authentication and rate limiting",
			DependsOn: []string{"config:load"},
			Kind:      platformerrors.KindConfig,
			Execute:   initAuthStep,
		},
	}
}

func loadConfigStep(_ context.Context, state *appState) error {
	loader := platformconfig.NewLoader().WithDotEnv(!state.opts.DisableDotEnv)
	if state.opts.ConfigPath != "" {
		loader = loader.WithPath(state.opts.ConfigPath)
	}
	result, err := loader.Load()
	if err != nil {
		return err
	}
	state.config = result.Config
	state.configPath = result.Path
	if state.configPath == "" {
		state.configPath = "defaults"
	}
	return nil
}

func initLoggingStep(_ context.Context, state *appState) error {
	if state.opts.Logger != nil {
		state.logger = state.opts.Logger
	} else {
		logger, err := platformlogging.New(platformlogging.Config{
			Level:    state.config.Log.Level,
			Dir:      state.config.Log.Dir,
			Filename: state.config.Log.File,
		})
		if err != nil {
			return platformerrors.Wrap(platformerrors.KindBootstrap, "logging:init-provider", "failed to initialize logging provider", err)
		}
		state.logger = logger
		state.ownsLogger = true
	}

	state.logger.InfoTag("Bootstrap", "logging ready [%s] config=%s", state.config.Log.Level, state.configPath)
	return nil
}

func setupObservabilityStep(ctx context.Context, state *appState) error {
	metrics, shutdown, err := platformobservability.Setup(ctx, platformobservability.Config{
		Enabled: state.config.Observability.Enabled,
	}, state.logger.Slog())
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindBootstrap, "observability:setup-hooks", "failed to setup observability hooks", err)
	}
	state.metrics = metrics
	state.observabilityShutdown = shutdown
	return nil
}

func initDatabaseStep(_ context.Context, state *appState) error {
	if !strings.EqualFold(state.config.Store.Type, store.DriverSQLite) && !state.config.Journal.Enabled {
		return nil
	}
	db, err := platformstorage.Open(state.config.Store.SQLite.Path)
	if err != nil {
		return err
	}
	state.db = db
	state.logger.InfoTag("Bootstrap", "database ready at %s", state.config.Store.SQLite.Path)
	return nil
}

func initStoreStep(_ context.Context, state *appState) error {
	cfg := state.config.Store
	storeCfg := store.Config{Driver: strings.ToLower(strings.TrimSpace(cfg.Type))}
	if storeCfg.Driver == store.DriverRedis {
		if cfg.Redis.Addr == "" {
			return platformerrors.New(platformerrors.KindConfig, "devicestate:init-store", "redis store addr is required")
		}
		storeCfg.Redis = &store.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		}
	}
	st, err := store.New(storeCfg, store.Dependencies{SQLiteDB: state.db})
	if err != nil {
		return err
	}
	state.store = st
	state.logger.InfoTag("Bootstrap", "device-state store: %s", storeCfg.Driver)
	return nil
}

func initCacheStep(_ context.Context, state *appState) error {
	cfg := state.config.Cache
	cache, err := responsecache.New(responsecache.Config{
		Driver:   cfg.Type,
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		Prefix:   cfg.Redis.Prefix,
	})
	if err != nil {
		return err
	}
	state.cache = cache
	return nil
}

func initSmartHomeStep(_ context.Context, state *appState) error {
	cfg := state.config.SmartHome
	vault, err := smarthome.NewTokenVault(smarthome.VaultConfig{
		Type:    cfg.Vault.Type,
		Address: cfg.Vault.Address,
		Token:   cfg.Vault.Token,
		Mount:   cfg.Vault.Mount,
		Prefix:  cfg.Vault.Prefix,
	})
	if err != nil {
		return err
	}
	state.vault = vault
	state.lightBridge = smarthome.NewHTTPLightBridge(smarthome.BridgeConfig{
		BaseURL: cfg.Lights.BaseURL,
		Timeout: cfg.Lights.Timeout,
	})
	state.thermostatBridge = smarthome.NewHTTPThermostatBridge(smarthome.BridgeConfig{
		BaseURL: cfg.Thermostat.BaseURL,
		Timeout: cfg.Thermostat.Timeout,
	})
	return nil
}

func initSynthesisStep(_ context.Context, state *appState) error {
	cfg := state.config
	backend, err := tts.NewBackend(tts.Config{
		Backend:            cfg.TTS.Backend,
		Timeout:            cfg.TTS.Timeout,
		VoiceMode:          cfg.TTS.VoiceMode,
		Voices:             cfg.TTS.Voices,
		EdgeDefaultVoice:   cfg.TTS.Edge.DefaultVoice,
		OpenAIAPIKey:       cfg.TTS.OpenAI.APIKey,
		OpenAIBaseURL:      cfg.TTS.OpenAI.BaseURL,
		OpenAIModel:        cfg.TTS.OpenAI.Model,
		OpenAISpeed:        cfg.TTS.OpenAI.Speed,
		OpenAIDefaultVoice: cfg.TTS.OpenAI.DefaultVoice,
		BreakerMaxFailures: cfg.TTS.Breaker.MaxFailures,
		BreakerOpenTimeout: cfg.TTS.Breaker.OpenTimeout,
	}, state.logger)
	if err != nil {
		return err
	}
	state.backend = backend
	state.voices = tts.NewVoiceSelector(cfg.TTS.VoiceMode, cfg.TTS.Voices, time.Now().UnixNano())
	state.clips = audio.NewClipLibrary(audio.LibraryConfig{
		Dir:             cfg.Audio.ClipsDir,
		SampleRate:      cfg.Audio.DeviceSampleRate,
		OpusFrameMillis: cfg.Audio.OpusFrameMillis,
	}, state.logger)
	state.pipeline = synthesis.NewPipeline(state.backend, state.voices, state.cache, state.clips, synthesis.Config{
		SampleRate:      cfg.Audio.DeviceSampleRate,
		OpusFrameMillis: cfg.Audio.OpusFrameMillis,
		CacheTimeout:    cfg.Cache.Timeout,
	}, synthesis.WithMetrics(state.metrics), synthesis.WithLogger(state.logger))

	state.logger.InfoTag("Bootstrap", "tts backend %s, voice mode %s", backend.Name(), cfg.TTS.VoiceMode)
	return nil
}

func startSchedulerStep(_ context.Context, state *appState) error {
	state.scheduler = task.NewScheduler(task.Config{
		Workers:   schedulerWorkers,
		QueueSize: schedulerQueueSize,
		Timeout:   state.config.Sounds.TaskTimeout,
	}, state.logger, state.metrics)
	state.scheduler.Start()
	return nil
}

func startEventBusStep(_ context.Context, state *appState) error {
	bus := eventbus.NewAsyncEventBus(eventBusWorkers, state.logger)
	bus.Start()
	state.bus = bus
	return eventbus.SubscribeLogging(bus, state.logger)
}

func initJournalStep(ctx context.Context, state *appState) error {
	if !state.config.Journal.Enabled {
		return nil
	}
	journal := journalstore.NewJournalRepository(state.db)
	if retention := state.config.Journal.Retention; retention > 0 {
		pruned, err := journal.DeleteBefore(ctx, time.Now().Add(-retention))
		if err != nil {
			return err
		}
		if pruned > 0 {
			state.logger.InfoTag("Bootstrap", "pruned %d journal entries older than %s", pruned, retention)
		}
	}
	if err := eventbus.SubscribeJournal(state.bus, journal, state.logger); err != nil {
		return err
	}
	state.journal = journal
	return nil
}

func initDispatchStep(_ context.Context, state *appState) error {
	cfg := state.config
	state.messenger = eventbus.NewBusMessenger(state.bus)
	base := common.NewBase(state.logger, time.Now, cfg.Store.CallTimeout)
	if len(cfg.Geo.Networks) > 0 {
		locator, err := common.NewNetworkLocator(cfg.Geo.Networks)
		if err != nil {
			return platformerrors.Wrap(platformerrors.KindConfig, "dispatch:init-locator", "invalid geo.networks", err)
		}
		base.Locator = locator
	}
	registry, err := handlers.NewRegistry(handlers.Deps{
		Store:            state.store,
		Vault:            state.vault,
		LightBridge:      state.lightBridge,
		ThermostatBridge: state.thermostatBridge,
		Deferrer:         state.scheduler,
		Messenger:        state.messenger,
		Base:             base,
		Alarm: alarm.Config{
			MinLead: time.Duration(cfg.Alarm.MinLeadMinutes) * time.Minute,
			MaxLead: time.Duration(cfg.Alarm.MaxLeadMinutes) * time.Minute,
		},
		SleepSound: sleepsound.Config{
			PlaybackDelay:   cfg.Sounds.PlaybackDelay,
			DefaultDuration: cfg.Sounds.DefaultDuration,
			DefaultVolume:   cfg.Sounds.DefaultVolume,
		},
		SensorMaxAge: cfg.Sensors.MaxAge,
	})
	if err != nil {
		return err
	}
	state.dispatcher = dispatch.NewDispatcher(registry, state.logger,
		dispatch.WithMetrics(state.metrics),
		dispatch.WithPublisher(state.bus),
	)
	return nil
}

func initVoiceStep(_ context.Context, state *appState) error {
	state.voice = services.NewVoiceService(state.dispatcher, state.pipeline, services.OutputOptions{
		Format:    state.config.Audio.DefaultFormat,
		Equalizer: state.config.Audio.DefaultEqualizer,
	}, state.logger, services.WithVoices(state.voices.Voices()))
	// bad defaults are a config error; Wrap would keep KindDomain
	if _, _, err := state.voice.Options(services.OutputOptions{}); err != nil {
		return &platformerrors.Error{Kind: platformerrors.KindConfig, Op: "voice:init-service", Message: "invalid default audio options", Cause: err}
	}
	return nil
}

func initAuthStep(_ context.Context, state *appState) error {
	cfg := state.config
	if cfg.Auth.Enabled {
		authority, err := auth.NewTokenAuthority(cfg.Auth.Secret, cfg.Auth.Issuer)
		if err != nil {
			return platformerrors.Wrap(platformerrors.KindConfig, "auth:init-authority", "failed to create token authority", err)
		}
		state.authority = authority
	} else {
		state.logger.WarnTag("Bootstrap", "device authentication disabled, identity headers are trusted")
	}

	if cfg.RateLimit.Enabled {
		state.limiter = ratelimit.New(ratelimit.Config{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		})
	}
	return nil
}

// close releases resources in reverse init order. Safe on a partial state.
func (s *appState) close() {
	logger := s.logger
	if logger == nil {
		logger = platformlogging.NewNop()
	}

	if s.scheduler != nil {
		s.scheduler.Stop()
	}
	if s.bus != nil {
		// let queued journal writes land before the database closes
		s.bus.WaitAsync()
		s.bus.Stop()
	}
	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			logger.WarnTag("Bootstrap", "response cache close failed: %v", err)
		}
	}
	if s.store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := s.store.Close(ctx); err != nil {
			logger.WarnTag("Bootstrap", "device-state store close failed: %v", err)
		}
		cancel()
	}
	if s.db != nil {
		if err := platformstorage.Close(s.db); err != nil {
			logger.WarnTag("Bootstrap", "database close failed: %v", err)
		}
	}
	if s.observabilityShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := s.observabilityShutdown(ctx); err != nil {
			logger.WarnTag("Bootstrap", "observability shutdown failed: %v", err)
		}
		cancel()
	}
	if s.ownsLogger && s.logger != nil {
		_ = s.logger.Close()
	}
}

func healthComponents(state *appState, hub *ws.Hub) map[string]httptransport.StatusFunc {
	components := map[string]httptransport.StatusFunc{
		"sessions":  func() string { return strconv.Itoa(hub.Count()) },
		"scheduler": func() string { return strconv.Itoa(state.scheduler.Pending()) + " pending" },
	}
	if breaker, ok := state.backend.(*tts.Breaker); ok {
		components["tts"] = breaker.State
	}
	return components
}

func startHTTPServer(state *appState, g *errgroup.Group, groupCtx context.Context) (*http.Server, error) {
	cfg := state.config
	logger := state.logger

	httpRouter, err := httptransport.Build(httptransport.Options{
		Server:      cfg.Server,
		Debug:       strings.EqualFold(cfg.Log.Level, "debug"),
		Logger:      logger,
		Metrics:     state.metrics,
		MetricsPath: cfg.Observability.MetricsPath,
		ClipsDir:    cfg.Audio.ClipsDir,
		Authority:   state.authority,
		Limiter:     state.limiter,
	})
	if err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindTransport, "http:build-router", "failed to build router", err)
	}

	wsServer := ws.NewServer(groupCtx, state.voice, logger, state.metrics, ws.RouterOptions{
		Authority: state.authority,
		Limiter:   state.limiter,
	})
	wsServer.Serve(state.messenger)
	httpRouter.Engine.GET(cfg.Server.WebSocketPath, gin.WrapF(wsServer.Router().Handle))

	httptransport.NewVoiceAPI(state.voice, logger).Register(httpRouter.Secured)
	httptransport.NewHealthAPI(time.Now(), healthComponents(state, wsServer.Hub())).Register(httpRouter.API)
	if state.journal != nil {
		httptransport.NewHistoryAPI(state.journal).Register(httpRouter.Secured)
	}

	httpServer := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.IP, strconv.Itoa(cfg.Server.Port)),
		Handler:      httpRouter.Engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g.Go(func() error {
		logger.InfoTag("HTTP", "listening on %s (websocket %s)", httpServer.Addr, cfg.Server.WebSocketPath)

		go func() {
			<-groupCtx.Done()
			wsServer.Stop()

			timeout := cfg.Server.ShutdownTimeout
			if timeout <= 0 {
				timeout = 10 * time.Second
			}
			shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				logger.ErrorTag("HTTP", "graceful shutdown failed: %v", err)
			} else {
				logger.InfoTag("HTTP", "server closed")
			}
		}()

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorTag("HTTP", "listen failed: %v", err)
			return platformerrors.Wrap(platformerrors.KindTransport, "http:listen", "http server failed", err)
		}
		return nil
	})

	return httpServer, nil
}

func waitForShutdown(
	ctx context.Context,
	cancel context.CancelFunc,
	logger *platformlogging.Logger,
	g *errgroup.Group,
) error {
	<-ctx.Done()
	logger.InfoTag("Bootstrap", "shutting down: %v", context.Cause(ctx))

	cancel()

	done := make(chan error, 1)
	go func() {
		done <- g.Wait()
	}()

	select {
	case err := <-done:
		if err != nil {
			logger.ErrorTag("Bootstrap", "shutdown finished with error: %v", err)
			return err
		}
		logger.InfoTag("Bootstrap", "all services stopped")
	case <-time.After(shutdownGrace):
		logger.ErrorTag("Bootstrap", "shutdown timed out")
		return platformerrors.New(platformerrors.KindBootstrap, "bootstrap.shutdown", "shutdown timed out")
	}
	return nil
}

func startServices(state *appState, g *errgroup.Group, groupCtx context.Context) error {
	if _, err := startHTTPServer(state, g, groupCtx); err != nil {
		return fmt.Errorf("start http server: %w", err)
	}
	return nil
}
