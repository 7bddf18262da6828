// Package main provides the prompter server entry point.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm/logger"

	"github.com/prompterhq/prompter/internal/auth"
	"github.com/prompterhq/prompter/internal/config"
	"github.com/prompterhq/prompter/internal/db"
	"github.com/prompterhq/prompter/internal/events"
	"github.com/prompterhq/prompter/internal/gateway"
	"github.com/prompterhq/prompter/internal/ledger"
	"github.com/prompterhq/prompter/internal/pipeline"
	"github.com/prompterhq/prompter/internal/server"
	"github.com/prompterhq/prompter/internal/server/sse"
	"github.com/prompterhq/prompter/internal/session"
	"github.com/prompterhq/prompter/internal/telemetry"
	"github.com/prompterhq/prompter/internal/watcher"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	debug := flag.Bool("debug", false, "Enable debug logging")
	dataDir := flag.String("data-dir", "", "Data directory (default: ~/.prompter)")
	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true})

	if err := config.EnsureDataDir(); err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure data directory")
	}
	if err := config.EnsureSettings(); err != nil {
		log.Warn().Err(err).Msg("Failed to write default settings")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load config, using defaults")
		cfg = config.Default()
	}
	if *dataDir != "" {
		cfg.DBPath = *dataDir + "/prompter.db"
	}
	if cfg.JWTSecret == "" {
		log.Fatal().Msg("JWT secret is required (set PROMPTER_JWT_SECRET or jwt_secret in settings)")
	}
	config.Set(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info().Msg("Shutting down")
		cancel()
	}()

	store, err := db.NewStore(db.Config{
		Path:     cfg.DBPath,
		MaxConns: cfg.MaxConns,
		LogLevel: logger.Silent,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize store")
	}
	defer store.Close()

	userStore := db.NewUserStore(store)
	sessionStore := db.NewSessionStore(store)

	creditLedger := ledger.New(userStore)

	gw, err := gateway.New(gateway.Config{
		Provider: cfg.Provider,
		OpenAI: gateway.OpenAIConfig{
			APIKey:  cfg.OpenAIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.Model,
		},
		Anthropic: gateway.AnthropicConfig{
			APIKey: cfg.AnthropicKey,
			Model:  cfg.Model,
		},
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize generation gateway")
	}

	metrics, err := telemetry.New()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize metrics, continuing without")
	}

	broadcaster := sse.NewBroadcaster()
	var sink events.Sink = broadcaster

	sessionMgr := session.NewManager(sessionStore, creditLedger, sink, metrics)
	qaPipeline := pipeline.New(sessionStore, creditLedger, gw, sink, metrics, pipeline.Options{
		Preferences: userStore,
		// Read through config.Get so settings.json edits picked up by the
		// watcher below apply to in-flight traffic.
		Settings: func() pipeline.Settings {
			c := config.Get()
			return pipeline.Settings{
				GatewayTimeout: time.Duration(c.GatewayTimeout) * time.Second,
				AutoAnswer:     c.AutoAnswer,
			}
		},
	})

	authSvc, err := auth.NewService(cfg.JWTSecret, time.Duration(cfg.TokenTTLHours)*time.Hour)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize auth")
	}

	// Pick up settings edits without a restart. Components that read their
	// settings at construction keep their values until the next start.
	settingsWatcher, err := watcher.New(config.SettingsPath(), func() {
		reloaded, err := config.Load()
		if err != nil {
			log.Warn().Err(err).Msg("Settings reload failed, keeping previous config")
			return
		}
		config.Set(reloaded)
	})
	if err != nil {
		log.Warn().Err(err).Msg("Failed to create settings watcher")
	} else {
		if err := settingsWatcher.Start(); err != nil {
			log.Warn().Err(err).Msg("Failed to start settings watcher")
		}
		defer settingsWatcher.Stop()
	}

	svc := server.New(Version, server.Deps{
		Config:      cfg,
		Store:       store,
		Users:       userStore,
		Auth:        authSvc,
		Sessions:    sessionMgr,
		Pipeline:    qaPipeline,
		Broadcaster: broadcaster,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return svc.Run(gctx)
	})

	log.Info().
		Str("version", Version).
		Str("provider", cfg.Provider).
		Str("dbPath", cfg.DBPath).
		Msg("Starting prompter")

	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("Server exited with error")
	}
}
