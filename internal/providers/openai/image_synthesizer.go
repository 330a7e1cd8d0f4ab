package openai

import (
	"context"
	"encoding/base64"
	"strings"

	"productshot/internal/domain"
	"productshot/internal/imagegen"
)

const defaultSynthModel = "gpt-4.1"

// ImageSynthesizer renders one enhanced image per prompt through the
// Responses API with the image_generation tool enabled.
type ImageSynthesizer struct {
	client *Client
	model  string
}

func NewImageSynthesizer(client *Client, model string) *ImageSynthesizer {
	model = strings.TrimSpace(model)
	if model == "" {
		model = defaultSynthModel
	}
	return &ImageSynthesizer{client: client, model: model}
}

func (s *ImageSynthesizer) Synthesize(ctx context.Context, req imagegen.Request) (domain.GeneratedImage, error) {
	resp, err := s.client.CreateResponse(ctx, ResponseRequest{
		Model: s.model,
		Input: UserInput(imagegen.BuildInstruction(req), req.Reference.Canonical()),
		Tools: []ResponseTool{{Type: "image_generation"}},
	})
	if err != nil {
		return domain.GeneratedImage{}, domain.Synthesis("image generation failed", err)
	}
	results := resp.ImageResults()
	if len(results) == 0 {
		return domain.GeneratedImage{}, domain.Synthesis("image generation failed", domain.ErrNoImage)
	}
	data, err := base64.StdEncoding.DecodeString(results[0])
	if err != nil {
		return domain.GeneratedImage{}, domain.Synthesis("decode generated image", err)
	}
	return domain.GeneratedImage{Prompt: req.Prompt.Text, Data: data, MIME: "image/png"}, nil
}

var _ imagegen.Synthesizer = (*ImageSynthesizer)(nil)
