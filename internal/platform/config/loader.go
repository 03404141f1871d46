package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"sleepvoice-server-go/internal/platform/errors"
)

// Environment variables consulted by the loader.
const (
	EnvConfigPath  = "SLEEPVOICE_CONFIG"
	EnvRedisAddr   = "SLEEPVOICE_REDIS_ADDR"
	EnvOpenAIKey   = "SLEEPVOICE_OPENAI_API_KEY"
	EnvJWTSecret   = "SLEEPVOICE_JWT_SECRET"
	EnvVaultToken  = "SLEEPVOICE_VAULT_TOKEN"
	DefaultCfgPath = "config.yaml"
)

// Loader reads .env, the YAML file and environment overrides, in that order.
type Loader struct {
	useDotEnv bool
	path      string
	lookupEnv func(string) (string, bool)
}

// NewLoader creates a loader with the default path resolution.
func NewLoader() *Loader {
	return &Loader{
		useDotEnv: true,
		lookupEnv: os.LookupEnv,
	}
}

// WithDotEnv toggles loading variables from a .env file before reading config.
func (l *Loader) WithDotEnv(enabled bool) *Loader {
	l.useDotEnv = enabled
	return l
}

// WithPath pins the config file path, bypassing SLEEPVOICE_CONFIG.
func (l *Loader) WithPath(path string) *Loader {
	l.path = path
	return l
}

// WithEnv overrides environment lookup (useful for tests).
func (l *Loader) WithEnv(lookup func(string) (string, bool)) *Loader {
	if lookup != nil {
		l.lookupEnv = lookup
	}
	return l
}

// Result captures the loaded configuration and its origin path.
type Result struct {
	Config *Config
	Path   string
}

// Load builds the effective configuration. A missing file is not an error;
// defaults plus environment overrides are used instead.
func (l *Loader) Load() (*Result, error) {
	if l.useDotEnv {
		// .env is optional
		_ = godotenv.Load()
	}

	path := l.resolvePath()
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrap(errors.KindConfig, "config.parse", fmt.Sprintf("parse %s", path), err)
		}
	case os.IsNotExist(err):
		path = ""
	default:
		return nil, errors.Wrap(errors.KindConfig, "config.read", fmt.Sprintf("read %s", path), err)
	}

	l.applyEnv(cfg)

	if err := l.validate(cfg); err != nil {
		return nil, err
	}
	return &Result{Config: cfg, Path: path}, nil
}

func (l *Loader) resolvePath() string {
	if l.path != "" {
		return l.path
	}
	if v, ok := l.lookupEnv(EnvConfigPath); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return DefaultCfgPath
}

func (l *Loader) applyEnv(cfg *Config) {
	if v, ok := l.env(EnvRedisAddr); ok {
		cfg.Store.Redis.Addr = v
		cfg.Cache.Redis.Addr = v
	}
	if v, ok := l.env(EnvOpenAIKey); ok {
		cfg.TTS.OpenAI.APIKey = v
	}
	if v, ok := l.env(EnvJWTSecret); ok {
		cfg.Auth.Secret = v
	}
	if v, ok := l.env(EnvVaultToken); ok {
		cfg.SmartHome.Vault.Token = v
	}
}

func (l *Loader) env(key string) (string, bool) {
	v, ok := l.lookupEnv(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func (l *Loader) validate(cfg *Config) error {
	fail := func(msg string) error {
		return errors.New(errors.KindConfig, "config.validate", msg)
	}

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fail(fmt.Sprintf("invalid server port %d", cfg.Server.Port))
	}
	if cfg.Alarm.MinLeadMinutes < 0 || cfg.Alarm.MaxLeadMinutes <= cfg.Alarm.MinLeadMinutes {
		return fail(fmt.Sprintf("invalid alarm window %d..%d", cfg.Alarm.MinLeadMinutes, cfg.Alarm.MaxLeadMinutes))
	}
	if cfg.Alarm.MaxLeadMinutes > 24*60 {
		return fail("alarm max lead must stay within 24 hours")
	}
	switch cfg.Audio.DeviceSampleRate {
	case 8000, 12000, 16000, 24000, 48000:
	default:
		return fail(fmt.Sprintf("unsupported device sample rate %d", cfg.Audio.DeviceSampleRate))
	}
	if cfg.TTS.Timeout <= 0 {
		return fail("tts timeout must be positive")
	}
	if cfg.Store.CallTimeout <= 0 {
		return fail("store call timeout must be positive")
	}
	if cfg.Sensors.MaxAge <= 0 {
		return fail("sensors max_age must be positive")
	}
	if cfg.Sounds.PlaybackDelay < 0 {
		return fail("sounds playback_delay must not be negative")
	}
	if cfg.Auth.Enabled && cfg.Auth.Secret == "" {
		return fail("auth enabled without a secret")
	}
	return nil
}
