// Package bootstrap wires configuration into the pipeline, the HTTP handlers
// and the callback notifier. Every entrypoint (server, Lambda, CLI) composes
// its process from Build.
package bootstrap

import (
	"context"
	"net/http"

	"productshot/internal/domain"
	"productshot/internal/http/handlers"
	"productshot/internal/http/httpapi"
	"productshot/internal/imagegen"
	"productshot/internal/infra"
	"productshot/internal/infra/credentials"
	"productshot/internal/media"
	"productshot/internal/notify"
	"productshot/internal/pipeline"
	"productshot/internal/providers/gemini"
	"productshot/internal/providers/openai"
	"productshot/internal/providers/prompt"
)

// Components is the assembled object graph for one process.
type Components struct {
	Config       *infra.Config
	Logger       infra.Logger
	Credentials  *credentials.Store
	OpenAI       *openai.Client
	Notifier     *notify.Webhook
	Pipeline     *pipeline.Pipeline
	FakePipeline *pipeline.Pipeline
	App          *handlers.App
}

type Options struct {
	// AsyncCallbacks detaches callback delivery from the request. Only
	// long-lived processes should set it.
	AsyncCallbacks bool
}

func Build(ctx context.Context, cfg *infra.Config, logger infra.Logger, opts Options) (*Components, error) {
	useGemini := cfg.SynthProvider == infra.SynthProviderGemini
	creds := credentials.NewStore(cfg.OpenAIAPIKey, cfg.GeminiAPIKey, useGemini)

	client := openai.NewClient(openai.Options{
		APIKey:       creds.OpenAIAPIKey(),
		BaseURL:      cfg.OpenAIBaseURL,
		Organization: cfg.OpenAIOrg,
		Logger:       &logger,
	})

	synth, err := buildSynthesizer(ctx, cfg, creds, client, logger)
	if err != nil {
		return nil, err
	}
	if cfg.PostprocessRGB {
		synth = imagegen.WithPostProcess(synth, logger)
	}

	hook := notify.NewWebhook(notify.WebhookOptions{
		Timeout:          cfg.CallbackTimeout,
		Token:            cfg.CallbackToken,
		APIKeyHeader:     cfg.CallbackAPIKeyHeader,
		ForwardAuthToken: cfg.CallbackForwardAuthToken,
		Async:            opts.AsyncCallbacks,
		AllowPrivate:     cfg.CallbackAllowPrivate,
		Logger:           &logger,
	})

	// Gemini needs the image bytes, so URL inputs are always fetched.
	fetchRemote := cfg.FetchRemote || useGemini
	normalizer := media.NewNormalizer(cfg.MaxImageBytes, fetchRemote, media.NewHTTPFetcher(nil))
	coordinator := pipeline.NewCoordinator(synth, pipeline.CoordinatorOptions{
		MaxWorkers:  cfg.MaxWorkers,
		AspectRatio: cfg.AspectRatio,
		Logger:      &logger,
	})

	var describer prompt.Describer
	if cfg.DescribeFirst {
		describer = prompt.NewOpenAIDescriber(client, prompt.OpenAIOptions{Model: cfg.DescribeModel, Logger: &logger})
	}
	enhance := pipeline.New(pipeline.Options{
		Credentials: creds,
		Normalizer:  normalizer,
		Describer:   describer,
		Planner:     prompt.NewOpenAIPlanner(client, prompt.OpenAIOptions{Model: cfg.PlannerModel, Logger: &logger}),
		Coordinator: coordinator,
		Notifier:    hook,
		Logger:      &logger,
	})

	c := &Components{
		Config:      cfg,
		Logger:      logger,
		Credentials: creds,
		OpenAI:      client,
		Notifier:    hook,
		Pipeline:    enhance,
	}
	appOpts := handlers.AppOptions{
		Pipeline:      enhance,
		Editor:        client,
		EditModel:     cfg.EditModel,
		Credentials:   creds,
		DefaultImages: cfg.DefaultImages,
		MaxImages:     cfg.MaxImages,
		EditMaxBytes:  cfg.EditMaxBytes,
		ExposeTrace:   cfg.ExposeErrorTrace,
		Logger:        &logger,
	}
	if cfg.EnableFakeEndpoint {
		c.FakePipeline = pipeline.New(pipeline.Options{
			Normalizer:  media.NewNormalizer(cfg.MaxImageBytes, false, nil),
			Planner:     prompt.NewStaticPlanner(),
			Coordinator: pipeline.NewCoordinator(imagegen.Placeholder{}, pipeline.CoordinatorOptions{MaxWorkers: cfg.MaxWorkers}),
			Notifier:    hook,
			Logger:      &logger,
		})
		appOpts.FakePipeline = c.FakePipeline
	}
	c.App = handlers.NewApp(appOpts)
	return c, nil
}

// Router returns the HTTP surface shared by the server and the Lambda.
func (c *Components) Router() http.Handler {
	return httpapi.NewRouter(c.App, httpapi.Options{
		Logger:          c.Logger,
		RateLimitPerMin: c.Config.RateLimitPerMin,
		EnableFake:      c.Config.EnableFakeEndpoint,
	})
}

func buildSynthesizer(ctx context.Context, cfg *infra.Config, creds *credentials.Store, client *openai.Client, logger infra.Logger) (imagegen.Synthesizer, error) {
	if cfg.SynthProvider != infra.SynthProviderGemini {
		return openai.NewImageSynthesizer(client, cfg.SynthModel), nil
	}
	if creds.GeminiAPIKey() == "" {
		// The credential check rejects every request before synthesis runs.
		return imagegen.SynthesizerFunc(func(context.Context, imagegen.Request) (domain.GeneratedImage, error) {
			return domain.GeneratedImage{}, domain.Configuration(domain.ErrMissingGeminiKey)
		}), nil
	}
	return gemini.NewImageSynthesizer(ctx, gemini.Options{
		APIKey: creds.GeminiAPIKey(),
		Model:  cfg.GeminiModel,
		Logger: &logger,
	})
}
