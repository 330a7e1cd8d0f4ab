package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"
	"github.com/joho/godotenv"

	"productshot/internal/bootstrap"
	"productshot/internal/infra"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv).With().Str("runtime", "lambda").Logger()

	// Callbacks are delivered before the invocation returns; the execution
	// environment may freeze as soon as the handler is done.
	comps, err := bootstrap.Build(context.Background(), cfg, logger, bootstrap.Options{})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build components")
	}

	adapter := httpadapter.NewV2(comps.Router())
	lambda.Start(adapter.ProxyWithContext)
}
