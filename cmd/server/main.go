package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/straypaws/backend/internal/config"
	"github.com/straypaws/backend/internal/db"
	httpapi "github.com/straypaws/backend/internal/http"
	"github.com/straypaws/backend/internal/nlp"
	"github.com/straypaws/backend/internal/realtime"
	"github.com/straypaws/backend/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	zerolog.TimeFieldFormat = time.RFC3339
	level, _ := zerolog.ParseLevel(cfg.LogLevel)
	logger := log.Level(level).With().Str("service", "straypaws-backend").Logger()

	ctx := context.Background()
	store, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect db")
	}
	defer store.Close()

	publisher, err := realtime.NewRedisPublisher(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect redis")
	}
	defer publisher.Close()

	var analyzer nlp.Analyzer
	if cfg.NLPURL == "" {
		analyzer = nlp.MockAnalyzer{ModelVersion: "mock-v1"}
		logger.Info().Msg("using mock analyzer")
	} else {
		analyzer = nlp.NewClient(nlp.Config{
			BaseURL:          cfg.NLPURL,
			Enabled:          cfg.NLPEnabled,
			Timeout:          cfg.NLPTimeout,
			MaxRetries:       cfg.NLPMaxRetries,
			RetryBaseDelay:   cfg.NLPRetryBaseDelay,
			FailureThreshold: cfg.NLPFailureThreshold,
			OpenDuration:     cfg.NLPCircuitOpenFor,
		}, logger)
	}

	dispatcher := &service.Dispatcher{Publisher: publisher, Logger: logger}
	resolver := &service.RecipientResolver{Directory: store, Logger: logger}
	alerts := &service.AlertService{
		Store:      store,
		Resolver:   resolver,
		Dispatcher: dispatcher,
		Logger:     logger,
	}
	escalator := &service.Escalator{
		Store:      store,
		Dispatcher: dispatcher,
		Logger:     logger,
	}

	sweepCtx, stopSweep := context.WithCancel(ctx)
	escalator.Start(sweepCtx, cfg.EscalationInterval)

	router := httpapi.Router(cfg, store, alerts, escalator, analyzer, logger)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	stopSweep()
	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctxShutdown)
	logger.Info().Msg("server stopped")
}
