package pipeline

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"productshot/internal/domain"
	"productshot/internal/imagegen"
	"productshot/internal/infra"
)

// DefaultMaxWorkers is both the default and the ceiling for concurrent
// synthesis calls.
const DefaultMaxWorkers = 4

// Coordinator runs one synthesis per prompt with bounded concurrency.
type Coordinator struct {
	synth       imagegen.Synthesizer
	maxWorkers  int
	aspectRatio string
	logger      infra.Logger
}

type CoordinatorOptions struct {
	MaxWorkers  int
	AspectRatio string
	Logger      *infra.Logger
}

func NewCoordinator(synth imagegen.Synthesizer, opts CoordinatorOptions) *Coordinator {
	workers := opts.MaxWorkers
	if workers <= 0 || workers > DefaultMaxWorkers {
		workers = DefaultMaxWorkers
	}
	aspect := opts.AspectRatio
	if aspect == "" {
		aspect = imagegen.DefaultAspectRatio
	}
	return &Coordinator{synth: synth, maxWorkers: workers, aspectRatio: aspect, logger: infra.OrNop(opts.Logger)}
}

// Width is the number of concurrent workers used for n prompts.
func (c *Coordinator) Width(n int) int {
	w := min(c.maxWorkers, n)
	if w < 1 {
		return 1
	}
	return w
}

// Run synthesizes every prompt and returns the successes in completion order.
// Failed items are logged and dropped; the result is never nil. Workers run on
// a context detached from ctx's cancellation.
func (c *Coordinator) Run(ctx context.Context, ref domain.ImageReference, prompts []domain.EnhancementPrompt, description string) []domain.GeneratedImage {
	results := make([]domain.GeneratedImage, 0, len(prompts))
	if len(prompts) == 0 {
		return results
	}
	workCtx := context.WithoutCancel(ctx)

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(c.Width(len(prompts)))
	for _, p := range prompts {
		g.Go(func() error {
			img, err := c.synthesizeOne(workCtx, imagegen.Request{
				Prompt:      p,
				Reference:   ref,
				Description: description,
				AspectRatio: c.aspectRatio,
			})
			if err != nil {
				c.logger.Warn().Err(err).Int("prompt_index", p.Index).Msg("synthesis failed; dropping item")
				return nil
			}
			mu.Lock()
			results = append(results, img)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	c.logger.Info().Int("requested", len(prompts)).Int("succeeded", len(results)).Msg("fan-out complete")
	return results
}

func (c *Coordinator) synthesizeOne(ctx context.Context, req imagegen.Request) (img domain.GeneratedImage, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = domain.Synthesis("synthesizer panicked", fmt.Errorf("%v", r))
		}
	}()
	return c.synth.Synthesize(ctx, req)
}
