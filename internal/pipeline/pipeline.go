// Package pipeline runs one enhancement request end to end: credential
// check, input normalization, planning, fan-out synthesis and callback.
package pipeline

import (
	"context"
	"time"

	"productshot/internal/domain"
	"productshot/internal/infra"
	"productshot/internal/media"
	"productshot/internal/notify"
	"productshot/internal/providers/prompt"
)

// Job is one validated enhancement request.
type Job struct {
	Input       media.Input
	Count       int
	CallbackURL string
	Passthrough domain.Passthrough
}

type credentialChecker interface {
	Check() error
}

type normalizer interface {
	Normalize(ctx context.Context, in media.Input) (domain.ImageReference, error)
}

type Options struct {
	Credentials credentialChecker
	Normalizer  normalizer
	Describer   prompt.Describer
	Planner     prompt.Planner
	Coordinator *Coordinator
	Notifier    notify.Notifier
	Logger      *infra.Logger
}

type Pipeline struct {
	credentials credentialChecker
	normalizer  normalizer
	describer   prompt.Describer
	planner     prompt.Planner
	coordinator *Coordinator
	notifier    notify.Notifier
	logger      infra.Logger
}

func New(opts Options) *Pipeline {
	return &Pipeline{
		credentials: opts.Credentials,
		normalizer:  opts.Normalizer,
		describer:   opts.Describer,
		planner:     opts.Planner,
		coordinator: opts.Coordinator,
		notifier:    opts.Notifier,
		logger:      infra.OrNop(opts.Logger),
	}
}

// Run executes the job. Credential and input errors return before any model
// call or callback. Once planning starts, a fatal error sends the failure
// callback; otherwise the success callback fires after fan-out, even when
// every item failed.
func (p *Pipeline) Run(ctx context.Context, job Job) (domain.BatchResult, error) {
	start := time.Now()
	if p.credentials != nil {
		if err := p.credentials.Check(); err != nil {
			return domain.BatchResult{}, err
		}
	}
	if job.Count < 1 {
		return domain.BatchResult{}, domain.Validation("number_of_images must be at least 1")
	}
	ref, err := p.normalizer.Normalize(ctx, job.Input)
	if err != nil {
		return domain.BatchResult{}, err
	}

	var description string
	if p.describer != nil {
		description, err = p.describer.Describe(ctx, ref)
		if err != nil {
			return p.fail(ctx, job, err)
		}
	}
	prompts, err := p.planner.Plan(ctx, ref, job.Count, description)
	if err != nil {
		return p.fail(ctx, job, err)
	}

	images := p.coordinator.Run(ctx, ref, prompts, description)
	result := domain.BatchResult{Success: true, Images: images, Passthrough: job.Passthrough}
	p.notify(ctx, job.CallbackURL, result)

	p.logger.Info().
		Str("product_id", job.Passthrough.ProductID).
		Int("requested", job.Count).
		Int("planned", len(prompts)).
		Int("generated", len(images)).
		Dur("elapsed", time.Since(start)).
		Msg("pipeline complete")
	return result, nil
}

func (p *Pipeline) fail(ctx context.Context, job Job, err error) (domain.BatchResult, error) {
	p.logger.Error().Err(err).Str("product_id", job.Passthrough.ProductID).Msg("pipeline failed")
	result := domain.BatchResult{Success: false, Error: err.Error(), Passthrough: job.Passthrough}
	p.notify(ctx, job.CallbackURL, result)
	return result, err
}

func (p *Pipeline) notify(ctx context.Context, target string, result domain.BatchResult) {
	if p.notifier == nil || target == "" {
		return
	}
	p.notifier.Notify(ctx, target, result)
}
