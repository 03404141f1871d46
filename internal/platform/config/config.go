package config

import "time"

// Config is the root configuration for the voice server.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Log           LogConfig           `yaml:"log"`
	Auth          AuthConfig          `yaml:"auth"`
	RateLimit     RateLimitConfig     `yaml:"rate_limit"`
	Store         StoreConfig         `yaml:"store"`
	Cache         CacheConfig         `yaml:"cache"`
	Journal       JournalConfig       `yaml:"journal"`
	TTS           TTSConfig           `yaml:"tts"`
	Audio         AudioConfig         `yaml:"audio"`
	Alarm         AlarmConfig         `yaml:"alarm"`
	Sensors       SensorsConfig       `yaml:"sensors"`
	Geo           GeoConfig           `yaml:"geo"`
	Sounds        SoundsConfig        `yaml:"sounds"`
	SmartHome     SmartHomeConfig     `yaml:"smart_home"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig is the HTTP listener.
type ServerConfig struct {
	IP              string        `yaml:"ip"`
	Port            int           `yaml:"port"`
	WebSocketPath   string        `yaml:"websocket_path"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	CORSOrigins     []string      `yaml:"cors_origins"`
}

// LogConfig selects level and log file location.
type LogConfig struct {
	Level string `yaml:"log_level"`
	Dir   string `yaml:"log_dir"`
	File  string `yaml:"log_file"`
}

// AuthConfig controls device bearer-token verification.
type AuthConfig struct {
	Enabled bool   `yaml:"enabled"`
	Secret  string `yaml:"secret"`
	Issuer  string `yaml:"issuer"`
}

// RateLimitConfig is a per-device token bucket.
type RateLimitConfig struct {
	Enabled           bool    `yaml:"enabled"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// StoreConfig selects the device-state store driver.
type StoreConfig struct {
	Type        string        `yaml:"type"` // memory | sqlite | redis
	CallTimeout time.Duration `yaml:"call_timeout"`
	SQLite      SQLiteConfig  `yaml:"sqlite"`
	Redis       RedisConfig   `yaml:"redis"`
}

// SQLiteConfig points at the database file.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// RedisConfig is shared by the store and the response cache.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// CacheConfig selects the response cache driver.
type CacheConfig struct {
	Type    string        `yaml:"type"` // memory | redis
	Timeout time.Duration `yaml:"timeout"`
	Redis   RedisConfig   `yaml:"redis"`
}

// JournalConfig keeps a dispatch history in the SQLite database at
// Store.SQLite.Path, whatever the store driver.
type JournalConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Retention time.Duration `yaml:"retention"`
}

// TTSConfig selects and tunes the synthesis backend.
type TTSConfig struct {
	Backend   string          `yaml:"backend"` // edge | openai
	Timeout   time.Duration   `yaml:"timeout"`
	VoiceMode string          `yaml:"voice_mode"` // fixed | random
	Voices    []string        `yaml:"voices"`
	Edge      EdgeTTSConfig   `yaml:"edge"`
	OpenAI    OpenAITTSConfig `yaml:"openai"`
	Breaker   BreakerConfig   `yaml:"breaker"`
}

// EdgeTTSConfig tunes the edge backend.
type EdgeTTSConfig struct {
	DefaultVoice string `yaml:"default_voice"`
}

// OpenAITTSConfig tunes the openai backend.
type OpenAITTSConfig struct {
	APIKey       string  `yaml:"api_key"`
	BaseURL      string  `yaml:"base_url"`
	Model        string  `yaml:"model"`
	Speed        float64 `yaml:"speed"`
	DefaultVoice string  `yaml:"default_voice"`
}

// BreakerConfig tunes the circuit breaker around the backend.
type BreakerConfig struct {
	MaxFailures uint32        `yaml:"max_failures"`
	OpenTimeout time.Duration `yaml:"open_timeout"`
}

// AudioConfig covers output audio shaping.
type AudioConfig struct {
	DeviceSampleRate int    `yaml:"device_sample_rate"`
	ClipsDir         string `yaml:"clips_dir"`
	OpusFrameMillis  int    `yaml:"opus_frame_ms"`
	DefaultFormat    string `yaml:"default_format"` // pcm | wav | opus
	DefaultEqualizer string `yaml:"default_equalizer"`
}

// AlarmConfig bounds voice-set alarms.
type AlarmConfig struct {
	MinLeadMinutes int `yaml:"min_lead_minutes"`
	MaxLeadMinutes int `yaml:"max_lead_minutes"`
}

// SensorsConfig bounds sensor data freshness.
type SensorsConfig struct {
	MaxAge time.Duration `yaml:"max_age"`
}

// GeoConfig maps source address ranges (CIDR) to IANA timezones, used
// when neither the transcript nor the account names one.
type GeoConfig struct {
	Networks map[string]string `yaml:"networks"`
}

// SoundsConfig controls sleep-sound playback.
type SoundsConfig struct {
	PlaybackDelay   time.Duration `yaml:"playback_delay"`
	DefaultDuration time.Duration `yaml:"default_duration"`
	DefaultVolume   int           `yaml:"default_volume"`
	TaskTimeout     time.Duration `yaml:"task_timeout"`
}

// SmartHomeConfig wires the token vault and vendor bridges.
type SmartHomeConfig struct {
	Vault      VaultConfig  `yaml:"vault"`
	Lights     BridgeConfig `yaml:"lights"`
	Thermostat BridgeConfig `yaml:"thermostat"`
}

// VaultConfig selects the token vault driver.
type VaultConfig struct {
	Type    string `yaml:"type"` // memory | vault
	Address string `yaml:"address"`
	Token   string `yaml:"token"`
	Mount   string `yaml:"mount"`
	Prefix  string `yaml:"prefix"`
}

// BridgeConfig is a vendor HTTP endpoint.
type BridgeConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// ObservabilityConfig toggles the metrics endpoint.
type ObservabilityConfig struct {
	Enabled     bool   `yaml:"enabled"`
	MetricsPath string `yaml:"metrics_path"`
}
