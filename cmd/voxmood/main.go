package main

import (
	"context"
	"flag"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	voxmood "github.com/snarg/voxmood"
	"github.com/snarg/voxmood/internal/analyze"
	"github.com/snarg/voxmood/internal/api"
	"github.com/snarg/voxmood/internal/auth"
	"github.com/snarg/voxmood/internal/config"
	"github.com/snarg/voxmood/internal/database"
	"github.com/snarg/voxmood/internal/emotion"
	"github.com/snarg/voxmood/internal/events"
	"github.com/snarg/voxmood/internal/mqttclient"
	"github.com/snarg/voxmood/internal/storage"
	"github.com/snarg/voxmood/internal/transcribe"
	"github.com/snarg/voxmood/internal/watch"
)

var version = "dev"

func main() {
	startTime := time.Now()

	var overrides config.Overrides
	flag.StringVar(&overrides.EnvFile, "env-file", "", "path to .env file")
	flag.StringVar(&overrides.HTTPAddr, "addr", "", "HTTP listen address")
	flag.StringVar(&overrides.LogLevel, "log-level", "", "log level")
	flag.StringVar(&overrides.DatabaseURL, "database-url", "", "Postgres connection string")
	flag.StringVar(&overrides.DataDir, "data-dir", "", "local storage directory")
	flag.StringVar(&overrides.WatchDir, "watch-dir", "", "drop directory to ingest audio from")
	flag.Parse()

	cfg, err := config.Load(overrides)
	if err != nil {
		early := zerolog.New(os.Stderr).With().Timestamp().Logger()
		early.Fatal().Err(err).Msg("failed to load config")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stdout).With().Timestamp().Logger().Level(level)
	log.Info().Str("version", version).Msg("voxmood starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database
	dbLog := log.With().Str("component", "database").Logger()
	db, err := database.Connect(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns, dbLog)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if err := db.EnsureSchema(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to apply schema")
	}

	// Blob storage
	blobs, err := storage.New(cfg, log.With().Str("component", "storage").Logger())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize storage")
	}

	// Optional MQTT publishing
	var mqtt *mqttclient.Client
	if cfg.MQTTBrokerURL != "" {
		mqtt, err = mqttclient.Connect(mqttclient.Options{
			BrokerURL: cfg.MQTTBrokerURL,
			ClientID:  cfg.MQTTClientID,
			Topic:     cfg.MQTTTopic,
			Username:  cfg.MQTTUsername,
			Password:  cfg.MQTTPassword,
			Log:       log.With().Str("component", "mqtt").Logger(),
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to mqtt broker")
		}
		defer mqtt.Close()
	}

	// Speech-to-text provider
	provider := buildProvider(cfg, log)

	if cfg.PreprocessAudio && !transcribe.CheckSox() {
		log.Warn().Msg("sox not found on PATH, audio preprocessing disabled")
		cfg.PreprocessAudio = false
	}

	// Event bus for SSE
	bus := events.NewBus(256)

	// Analyzer
	analyzer := analyze.NewService(analyze.Options{
		Store:           db,
		Blobs:           blobs,
		Provider:        provider,
		Pipeline:        emotion.NewPipeline(emotion.NewVaderScorer()),
		Bus:             bus,
		MQTT:            mqtt,
		PreprocessAudio: cfg.PreprocessAudio,
		Log:             log.With().Str("component", "analyze").Logger(),
	})

	// Drop-directory ingest
	var pool *analyze.Pool
	var watcher *watch.Watcher
	if cfg.WatchDir != "" {
		pool = analyze.NewPool(analyzer, cfg.Workers, cfg.QueueSize, log)
		pool.Start(ctx, cfg.Workers)
		defer pool.Stop()

		watcher = watch.New(pool, cfg.WatchDir, log)
		if err := watcher.Start(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to start drop directory watcher")
		}
		defer watcher.Stop()
	}

	// Session auth
	var authSvc *auth.Service
	if cfg.AuthEnabled {
		authSvc = auth.NewService(db, db.Pool, cfg.SessionLifetime,
			log.With().Str("component", "auth").Logger())
	}

	webFS, err := fs.Sub(voxmood.WebFiles, "web")
	if err != nil {
		log.Fatal().Err(err).Msg("embedded web assets missing")
	}

	// HTTP server
	srv := api.NewServer(cfg, api.Deps{
		DB:       db,
		Analyzer: analyzer,
		Pool:     pool,
		Bus:      bus,
		Auth:     authSvc,
		MQTT:     mqtt,
		Watcher:  watcher,
		WebFS:    webFS,
		OpenAPI:  voxmood.OpenAPISpec,
		Version:  version,
	}, startTime, log.With().Str("component", "http").Logger())

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("http server error")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown error")
	}

	log.Info().Msg("voxmood stopped")
}

func buildProvider(cfg *config.Config, log zerolog.Logger) transcribe.Provider {
	var inner transcribe.Provider
	switch cfg.STTProvider {
	case "elevenlabs":
		if cfg.ElevenLabsKey == "" {
			log.Fatal().Msg("ELEVENLABS_API_KEY required for the elevenlabs provider")
		}
		inner = transcribe.NewElevenLabsClient(cfg.ElevenLabsKey, cfg.ElevenLabsModel, cfg.Language, cfg.STTTimeout)
	case "whisper":
		inner = transcribe.NewWhisperClient(cfg.WhisperURL, cfg.WhisperModel, cfg.Language, cfg.STTTimeout)
	default:
		log.Fatal().Str("provider", cfg.STTProvider).Msg("unknown STT provider")
	}
	return transcribe.NewResilient(inner, cfg.STTMaxRetry,
		log.With().Str("component", "transcribe").Logger())
}
