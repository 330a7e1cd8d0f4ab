package imagegen

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/png"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"productshot/internal/domain"
)

const transparentPNG = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAAC0lEQVR4nGNgAAIAAAUAAXpeqz8AAAAASUVORK5CYII="

func decodeFixture(t *testing.T) []byte {
	t.Helper()
	data, err := base64.StdEncoding.DecodeString(transparentPNG)
	require.NoError(t, err)
	return data
}

func TestFlattenToRGBFillsWhite(t *testing.T) {
	out, err := FlattenToRGB(decodeFixture(t))
	require.NoError(t, err)

	cfg, err := png.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Width)
	assert.Equal(t, 1, cfg.Height)

	img, _, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	r, g, b, a := img.At(0, 0).RGBA()
	assert.Equal(t, uint32(0xffff), r)
	assert.Equal(t, uint32(0xffff), g)
	assert.Equal(t, uint32(0xffff), b)
	assert.Equal(t, uint32(0xffff), a)
}

func TestFlattenToRGBRejectsGarbage(t *testing.T) {
	_, err := FlattenToRGB([]byte("not an image"))
	assert.Error(t, err)
}

func TestWithPostProcessKeepsOriginalOnDecodeFailure(t *testing.T) {
	raw := []byte("opaque provider bytes")
	inner := SynthesizerFunc(func(ctx context.Context, req Request) (domain.GeneratedImage, error) {
		return domain.GeneratedImage{Prompt: req.Prompt.Text, Data: raw, MIME: "image/webp"}, nil
	})
	img, err := WithPostProcess(inner, zerolog.Nop()).Synthesize(context.Background(), Request{Prompt: domain.EnhancementPrompt{Index: 1, Text: "p"}})
	require.NoError(t, err)
	assert.Equal(t, raw, img.Data)
	assert.Equal(t, "image/webp", img.MIME)
}

func TestWithPostProcessPassesErrorsThrough(t *testing.T) {
	boom := errors.New("boom")
	inner := SynthesizerFunc(func(context.Context, Request) (domain.GeneratedImage, error) {
		return domain.GeneratedImage{}, boom
	})
	_, err := WithPostProcess(inner, zerolog.Nop()).Synthesize(context.Background(), Request{})
	assert.ErrorIs(t, err, boom)
}

func TestWithPostProcessFlattensPNG(t *testing.T) {
	inner := SynthesizerFunc(func(ctx context.Context, req Request) (domain.GeneratedImage, error) {
		return domain.GeneratedImage{Prompt: req.Prompt.Text, Data: decodeFixture(t), MIME: "image/png"}, nil
	})
	img, err := WithPostProcess(inner, zerolog.Nop()).Synthesize(context.Background(), Request{Prompt: domain.EnhancementPrompt{Index: 1, Text: "p"}})
	require.NoError(t, err)
	assert.Equal(t, "p", img.Prompt)
	assert.NotEqual(t, decodeFixture(t), img.Data)
}

func TestPlaceholderAlternates(t *testing.T) {
	odd, err := Placeholder{}.Synthesize(context.Background(), Request{Prompt: domain.EnhancementPrompt{Index: 1, Text: "Fake prompt 1"}})
	require.NoError(t, err)
	even, err := Placeholder{}.Synthesize(context.Background(), Request{Prompt: domain.EnhancementPrompt{Index: 2, Text: "Fake prompt 2"}})
	require.NoError(t, err)

	assert.Equal(t, "Fake prompt 1", odd.Prompt)
	assert.NotEqual(t, odd.Data, even.Data)
	for _, img := range []domain.GeneratedImage{odd, even} {
		cfg, err := png.DecodeConfig(bytes.NewReader(img.Data))
		require.NoError(t, err)
		assert.Equal(t, 1, cfg.Width)
	}
}
