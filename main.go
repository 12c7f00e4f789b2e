package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/careerlog/server/internal/api"
	"github.com/careerlog/server/internal/assistant/model"
	"github.com/careerlog/server/internal/assistant/orchestrator"
	"github.com/careerlog/server/internal/assistant/repo"
	"github.com/careerlog/server/internal/assistant/textmodel"
	"github.com/careerlog/server/internal/core"
	logx "github.com/careerlog/server/pkg/logger"
	pkgredis "github.com/careerlog/server/pkg/redis"
)

// AppConfig defines all configurable parameters for the service, sourced from
// environment variables (loaded from .env for local runs).
type AppConfig struct {
	Addr string `envconfig:"HTTP_ADDR" default:":8080"`

	// Infrastructure
	Redis pkgredis.Config

	// LLM provider
	APIKey  string `envconfig:"GEMINI_API_KEY" required:"true"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`

	// Assistant configs
	Journal    model.JournalConfig
	Classifier model.ClassifierModelConfig
	Responder  model.ResponderModelConfig
	Session    model.SessionConfig
}

func main() {
	ctx := context.Background()

	if err := godotenv.Load(".env"); err != nil {
		logx.Warn().Err(err).Msg("could not load .env file")
	}

	env := core.EnvironmentFromOS()
	logx.Init(logx.LoggerOpts{Environment: env})

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		logx.Fatal().Err(err).Msg("failed to process environment config")
	}

	rdb, err := cfg.Redis.New()
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to initialise Redis client")
	}
	defer rdb.Close()
	logx.Info().Msg("connected to Redis")

	sessionTTL := model.ParseTimeout(cfg.Session.TTL, 48*time.Hour)
	store := repo.NewRedisStore(rdb, sessionTTL)

	tm, err := textmodel.New(ctx, textmodel.Config{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		Classifier: cfg.Classifier,
		Responder:  cfg.Responder,
	})
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to initialise text models")
	}

	orch := orchestrator.New(store, tm, cfg.Journal)
	server := api.NewServer(orch, env)

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logx.Info().Str("addr", cfg.Addr).Str("env", env.String()).Msg("http server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logx.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logx.Error().Err(err).Msg("graceful shutdown failed")
	}
	logx.Info().Msg("server stopped")
}
