package config

import (
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL string `env:"DATABASE_URL,required"`
	DBMaxConns  int32  `env:"DB_MAX_CONNS" envDefault:"10"`
	DBMinConns  int32  `env:"DB_MIN_CONNS" envDefault:"2"`

	HTTPAddr     string        `env:"HTTP_ADDR" envDefault:":8080"`
	ReadTimeout  time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"30s"`
	WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"120s"`
	IdleTimeout  time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`

	// Speech-to-text provider: "whisper" or "elevenlabs".
	STTProvider     string        `env:"STT_PROVIDER" envDefault:"whisper"`
	WhisperURL      string        `env:"WHISPER_URL" envDefault:"http://localhost:8000/v1/audio/transcriptions"`
	WhisperModel    string        `env:"WHISPER_MODEL" envDefault:"Systran/faster-whisper-base.en"`
	ElevenLabsKey   string        `env:"ELEVENLABS_API_KEY"`
	ElevenLabsModel string        `env:"ELEVENLABS_MODEL" envDefault:"scribe_v1"`
	STTTimeout      time.Duration `env:"STT_TIMEOUT" envDefault:"120s"`
	STTMaxRetry     time.Duration `env:"STT_MAX_RETRY" envDefault:"30s"`
	Language        string        `env:"STT_LANGUAGE" envDefault:"en"`
	PreprocessAudio bool          `env:"PREPROCESS_AUDIO" envDefault:"true"`

	// Storage: local data directory, optionally replaced by S3.
	DataDir     string `env:"DATA_DIR" envDefault:"./data"`
	S3Endpoint  string `env:"S3_ENDPOINT"`
	S3Region    string `env:"S3_REGION" envDefault:"us-east-1"`
	S3Bucket    string `env:"S3_BUCKET"`
	S3AccessKey string `env:"S3_ACCESS_KEY"`
	S3SecretKey string `env:"S3_SECRET_KEY"`

	// Drop-directory ingest. Empty disables the watcher.
	WatchDir  string `env:"WATCH_DIR"`
	Workers   int    `env:"ANALYZE_WORKERS" envDefault:"2"`
	QueueSize int    `env:"ANALYZE_QUEUE_SIZE" envDefault:"64"`

	// Session auth. When disabled every request runs as the anonymous user.
	AuthEnabled     bool          `env:"AUTH_ENABLED" envDefault:"false"`
	SessionLifetime time.Duration `env:"SESSION_LIFETIME" envDefault:"168h"`

	// Optional MQTT publishing of completed reports.
	MQTTBrokerURL string `env:"MQTT_BROKER_URL"`
	MQTTClientID  string `env:"MQTT_CLIENT_ID" envDefault:"voxmood"`
	MQTTTopic     string `env:"MQTT_TOPIC" envDefault:"voxmood/reports"`
	MQTTUsername  string `env:"MQTT_USERNAME"`
	MQTTPassword  string `env:"MQTT_PASSWORD"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Overrides holds CLI flag values that take priority over env vars.
type Overrides struct {
	EnvFile     string
	HTTPAddr    string
	LogLevel    string
	DatabaseURL string
	DataDir     string
	WatchDir    string
}

// Load reads configuration from .env file, environment variables, and CLI
// overrides. Priority: CLI flags > environment variables > .env file >
// struct defaults.
func Load(overrides Overrides) (*Config, error) {
	// Load .env file (silent if missing)
	envFile := overrides.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if _, err := os.Stat(envFile); err == nil {
		_ = godotenv.Load(envFile)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if overrides.HTTPAddr != "" {
		cfg.HTTPAddr = overrides.HTTPAddr
	}
	if overrides.LogLevel != "" {
		cfg.LogLevel = overrides.LogLevel
	}
	if overrides.DatabaseURL != "" {
		cfg.DatabaseURL = overrides.DatabaseURL
	}
	if overrides.DataDir != "" {
		cfg.DataDir = overrides.DataDir
	}
	if overrides.WatchDir != "" {
		cfg.WatchDir = overrides.WatchDir
	}

	return cfg, nil
}

// S3Enabled reports whether an S3 bucket is configured for storage.
func (c *Config) S3Enabled() bool {
	return c.S3Bucket != ""
}
