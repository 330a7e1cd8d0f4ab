package imagegen

import (
	"context"

	"productshot/internal/domain"
)

// DefaultAspectRatio is the framing hint used when none is configured.
const DefaultAspectRatio = "9:16"

// Request is one synthesis unit: a planned prompt applied to the reference.
type Request struct {
	Prompt      domain.EnhancementPrompt
	Reference   domain.ImageReference
	Description string
	AspectRatio string
}

// Synthesizer produces one enhanced image per call. Implementations make a
// single attempt and return a domain synthesis error on failure.
type Synthesizer interface {
	Synthesize(ctx context.Context, req Request) (domain.GeneratedImage, error)
}

// SynthesizerFunc adapts a function to Synthesizer.
type SynthesizerFunc func(ctx context.Context, req Request) (domain.GeneratedImage, error)

func (f SynthesizerFunc) Synthesize(ctx context.Context, req Request) (domain.GeneratedImage, error) {
	return f(ctx, req)
}
