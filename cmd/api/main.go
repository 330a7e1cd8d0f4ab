package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"productshot/internal/bootstrap"
	"productshot/internal/infra"
)

func main() {
	// Load .env (optional)
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	comps, err := bootstrap.Build(ctx, cfg, logger, bootstrap.Options{AsyncCallbacks: true})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build components")
	}
	if err := comps.Credentials.Check(); err != nil {
		// Requests still get a structured configuration error.
		logger.Warn().Err(err).Msg("provider credentials incomplete")
	}

	server := infra.NewHTTPServer(cfg, comps.Router())
	server.OnShutdown(func(context.Context) {
		comps.Notifier.Wait()
	})

	go func() {
		logger.Info().Str("provider", cfg.SynthProvider).Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
