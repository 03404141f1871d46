package config

import "time"

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			IP:              "0.0.0.0",
			Port:            8000,
			WebSocketPath:   "/ws",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"*"},
		},
		Log: LogConfig{
			Level: "INFO",
			Dir:   "data/logs",
			File:  "server.log",
		},
		Auth: AuthConfig{
			Enabled: false,
			Issuer:  "sleepvoice",
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerSecond: 2,
			Burst:             5,
		},
		Store: StoreConfig{
			Type:        "memory",
			CallTimeout: 2 * time.Second,
			SQLite:      SQLiteConfig{Path: "data/sleepvoice.db"},
			Redis:       RedisConfig{Addr: "127.0.0.1:6379", Prefix: "sleepvoice:state"},
		},
		Cache: CacheConfig{
			Type:    "memory",
			Timeout: 500 * time.Millisecond,
			Redis:   RedisConfig{Addr: "127.0.0.1:6379", Prefix: "sleepvoice:speech"},
		},
		Journal: JournalConfig{
			Enabled:   false,
			Retention: 30 * 24 * time.Hour,
		},
		TTS: TTSConfig{
			Backend:   "edge",
			Timeout:   5 * time.Second,
			VoiceMode: "random",
			Voices:    []string{"en-US-AriaNeural", "en-US-JennyNeural", "en-US-GuyNeural"},
			Edge: EdgeTTSConfig{
				DefaultVoice: "en-US-AriaNeural",
			},
			OpenAI: OpenAITTSConfig{
				Model:        "tts-1",
				Speed:        1.0,
				DefaultVoice: "alloy",
			},
			Breaker: BreakerConfig{
				MaxFailures: 5,
				OpenTimeout: 30 * time.Second,
			},
		},
		Audio: AudioConfig{
			DeviceSampleRate: 16000,
			ClipsDir:         "data/clips",
			OpusFrameMillis:  60,
			DefaultFormat:    "pcm",
			DefaultEqualizer: "none",
		},
		Alarm: AlarmConfig{
			MinLeadMinutes: 5,
			MaxLeadMinutes: 1439,
		},
		Sensors: SensorsConfig{
			MaxAge: 15 * time.Minute,
		},
		Sounds: SoundsConfig{
			PlaybackDelay:   3 * time.Second,
			DefaultDuration: 30 * time.Minute,
			DefaultVolume:   50,
			TaskTimeout:     5 * time.Second,
		},
		SmartHome: SmartHomeConfig{
			Vault: VaultConfig{
				Type:   "memory",
				Mount:  "secret",
				Prefix: "sleepvoice/tokens",
			},
			Lights:     BridgeConfig{Timeout: 2 * time.Second},
			Thermostat: BridgeConfig{Timeout: 2 * time.Second},
		},
		Observability: ObservabilityConfig{
			Enabled:     true,
			MetricsPath: "/metrics",
		},
	}
}
