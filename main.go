package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"worldmodel_server/config"
	"worldmodel_server/internal/bootstrap"
)

func main() {
	// Load .env file if exists (for local development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := newLogger(cfg)

	deps, cleanup, err := bootstrap.NewDependencies(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize dependencies")
	}
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		log.Info().Msg("shutdown signal received")
		cancel()
	}()

	log.Info().
		Str("env", cfg.Environment).
		Int("batch_size", cfg.SessionBatchSize).
		Dur("poll_interval", cfg.PollInterval).
		Msg("world model ingestion started")

	runLoop(ctx, deps, log)
	log.Info().Msg("world model ingestion stopped")
}

// runLoop polls the session store until the context is cancelled. An empty
// batch or a source error waits one poll interval before retrying.
func runLoop(ctx context.Context, deps *bootstrap.Dependencies, log zerolog.Logger) {
	ticker := time.NewTicker(deps.Config.PollInterval)
	defer ticker.Stop()

	for {
		processed, err := deps.Pipeline.RunOnce(ctx, deps.Config.SessionBatchSize)
		if err != nil {
			log.Error().Err(err).Msg("session batch failed")
		}

		// Drain the backlog before going back to sleep.
		if err == nil && processed > 0 {
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	if cfg.IsDevelopment() {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
			With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger().Level(zerolog.InfoLevel)
}
