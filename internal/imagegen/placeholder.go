package imagegen

import (
	"context"
	"encoding/base64"

	"productshot/internal/domain"
)

// 1x1 placeholder PNGs.
const (
	transparentPixelPNG = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAAC0lEQVR4nGNgAAIAAAUAAXpeqz8AAAAASUVORK5CYII="
	whitePixelPNG       = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAIAAACQd1PeAAAADElEQVR4nGP4//8/AAX+Av4N70a4AAAAAElFTkSuQmCC"
)

var placeholders = [2][]byte{mustDecode(transparentPixelPNG), mustDecode(whitePixelPNG)}

func mustDecode(s string) []byte {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		panic(err)
	}
	return b
}

// Placeholder returns tiny PNGs without calling any model: transparent for
// odd prompt indexes, white for even ones.
type Placeholder struct{}

func (Placeholder) Synthesize(_ context.Context, req Request) (domain.GeneratedImage, error) {
	data := placeholders[0]
	if req.Prompt.Index%2 == 0 {
		data = placeholders[1]
	}
	out := make([]byte, len(data))
	copy(out, data)
	return domain.GeneratedImage{Prompt: req.Prompt.Text, Data: out, MIME: "image/png"}, nil
}

var _ Synthesizer = Placeholder{}
