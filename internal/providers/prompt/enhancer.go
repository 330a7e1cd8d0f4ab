package prompt

import (
	"context"
	"fmt"

	"productshot/internal/domain"
)

// Planner turns a reference image into up to k enhancement prompts. A
// description, when present, is embedded in the planning request.
type Planner interface {
	Plan(ctx context.Context, ref domain.ImageReference, k int, description string) ([]domain.EnhancementPrompt, error)
}

// Describer produces a free-text description of the reference image.
type Describer interface {
	Describe(ctx context.Context, ref domain.ImageReference) (string, error)
}

// StaticPlanner returns canned prompts without calling a model. It backs the
// placeholder endpoint and local runs without credentials.
type StaticPlanner struct{}

func NewStaticPlanner() *StaticPlanner {
	return &StaticPlanner{}
}

func (s *StaticPlanner) Plan(_ context.Context, _ domain.ImageReference, k int, _ string) ([]domain.EnhancementPrompt, error) {
	if k <= 0 {
		return nil, domain.Planning("", domain.ErrNoPrompts)
	}
	out := make([]domain.EnhancementPrompt, 0, k)
	for i := 1; i <= k; i++ {
		out = append(out, domain.EnhancementPrompt{Index: i, Text: fmt.Sprintf("Fake prompt %d", i)})
	}
	return out, nil
}

var _ Planner = (*StaticPlanner)(nil)
