// Package gemini renders enhancement images with Gemini image models through
// google.golang.org/genai.
package gemini

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/genai"

	"productshot/internal/domain"
	"productshot/internal/imagegen"
	"productshot/internal/infra"
)

const DefaultModel = "gemini-2.5-flash-image"

var errRemoteReference = errors.New("gemini synthesis needs inline image bytes; enable remote fetching")

// contentGenerator is the slice of genai.Models used here.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type Options struct {
	APIKey string
	Model  string
	Logger *infra.Logger
}

// ImageSynthesizer implements imagegen.Synthesizer on Gemini.
type ImageSynthesizer struct {
	models contentGenerator
	model  string
	logger infra.Logger
}

// NewImageSynthesizer builds a Gemini API client for the given key.
func NewImageSynthesizer(ctx context.Context, opts Options) (*ImageSynthesizer, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, domain.Configuration(domain.ErrMissingGeminiKey)
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  strings.TrimSpace(opts.APIKey),
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, domain.Configuration(err)
	}
	return newImageSynthesizer(client.Models, opts), nil
}

func newImageSynthesizer(models contentGenerator, opts Options) *ImageSynthesizer {
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = DefaultModel
	}
	return &ImageSynthesizer{models: models, model: model, logger: infra.OrNop(opts.Logger)}
}

func (s *ImageSynthesizer) Synthesize(ctx context.Context, req imagegen.Request) (domain.GeneratedImage, error) {
	if !req.Reference.IsInline() {
		return domain.GeneratedImage{}, domain.Synthesis("image generation failed", errRemoteReference)
	}
	aspect := req.AspectRatio
	if aspect == "" {
		aspect = imagegen.DefaultAspectRatio
	}
	parts := []*genai.Part{
		genai.NewPartFromText(imagegen.BuildInstruction(req)),
		genai.NewPartFromBytes(req.Reference.Data, req.Reference.MIME),
	}
	result, err := s.models.GenerateContent(ctx, s.model,
		[]*genai.Content{{Role: "user", Parts: parts}},
		&genai.GenerateContentConfig{
			ResponseModalities: []string{"TEXT", "IMAGE"},
			ImageConfig:        &genai.ImageConfig{AspectRatio: aspect},
		},
	)
	if err != nil {
		return domain.GeneratedImage{}, domain.Synthesis("image generation failed", err)
	}
	if result != nil {
		for _, candidate := range result.Candidates {
			if candidate == nil || candidate.Content == nil {
				continue
			}
			for _, part := range candidate.Content.Parts {
				if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
					continue
				}
				mime := part.InlineData.MIMEType
				if mime == "" {
					mime = "image/png"
				}
				s.logger.Debug().Int("prompt_index", req.Prompt.Index).Int("bytes", len(part.InlineData.Data)).Msg("gemini: image generated")
				return domain.GeneratedImage{Prompt: req.Prompt.Text, Data: part.InlineData.Data, MIME: mime}, nil
			}
		}
	}
	return domain.GeneratedImage{}, domain.Synthesis("image generation failed", domain.ErrNoImage)
}

var _ imagegen.Synthesizer = (*ImageSynthesizer)(nil)
