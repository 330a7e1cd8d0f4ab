package imagegen

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg"
	"image/png"

	"github.com/rs/zerolog"
	_ "golang.org/x/image/webp"

	"productshot/internal/domain"
)

// FlattenToRGB composites the image onto an opaque white canvas and encodes
// it as PNG. PNG output from an opaque canvas carries no alpha channel.
func FlattenToRGB(data []byte) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	bounds := src.Bounds()
	canvas := image.NewRGBA(bounds)
	draw.Draw(canvas, bounds, &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.Draw(canvas, bounds, src, bounds.Min, draw.Over)

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WithPostProcess wraps a synthesizer so successful outputs are flattened to
// RGB. A flattening failure keeps the original bytes.
func WithPostProcess(next Synthesizer, logger zerolog.Logger) Synthesizer {
	return SynthesizerFunc(func(ctx context.Context, req Request) (domain.GeneratedImage, error) {
		img, err := next.Synthesize(ctx, req)
		if err != nil {
			return img, err
		}
		flat, ferr := FlattenToRGB(img.Data)
		if ferr != nil {
			logger.Warn().Err(ferr).Int("prompt_index", req.Prompt.Index).Msg("rgb flatten failed; keeping original output")
			return img, nil
		}
		img.Data = flat
		img.MIME = "image/png"
		return img, nil
	})
}
