package domain

import (
	"encoding/base64"
	"strings"
)

// ImageReference is either a remote URL or inline bytes with a MIME type.
// Exactly one form is populated.
type ImageReference struct {
	URL  string
	Data []byte
	MIME string
}

// IsInline reports whether the reference carries the image bytes itself.
func (r ImageReference) IsInline() bool {
	return r.URL == "" && len(r.Data) > 0
}

// Canonical returns the form handed to the generation service: the URL
// unchanged, or a data URL minted from the inline bytes.
func (r ImageReference) Canonical() string {
	if r.URL != "" {
		return r.URL
	}
	return DataURL(r.MIME, r.Data)
}

// DataURL renders data as data:<mime>;base64,<payload>.
func DataURL(mime string, data []byte) string {
	var sb strings.Builder
	sb.Grow(len(mime) + 13 + base64.StdEncoding.EncodedLen(len(data)))
	sb.WriteString("data:")
	sb.WriteString(mime)
	sb.WriteString(";base64,")
	sb.WriteString(base64.StdEncoding.EncodeToString(data))
	return sb.String()
}

// EnhancementPrompt is one planned instruction. Index is the numeric suffix of
// the key the planner produced it under.
type EnhancementPrompt struct {
	Index int
	Text  string
}

// GeneratedImage is the output of one successful synthesis call.
type GeneratedImage struct {
	Prompt string
	Data   []byte
	MIME   string
}

func (g GeneratedImage) DataURL() string {
	mime := g.MIME
	if mime == "" {
		mime = "image/png"
	}
	return DataURL(mime, g.Data)
}

// Passthrough holds caller-supplied correlation fields that are echoed to the
// callback untouched.
type Passthrough struct {
	ProductID          string `json:"product_id"`
	AuthToken          string `json:"auth_token,omitempty"`
	UserID             string `json:"user_id,omitempty"`
	ProductName        string `json:"product_name,omitempty"`
	ProductPrice       any    `json:"product_price,omitempty"`
	ProductDescription string `json:"product_description,omitempty"`
	OriginalImagePath  string `json:"original_image_path,omitempty"`
}

// BatchResult is the aggregate of one pipeline run.
type BatchResult struct {
	Success     bool
	Images      []GeneratedImage
	Error       string
	Passthrough Passthrough
}

// ImagePayload is the wire form of a GeneratedImage.
type ImagePayload struct {
	Prompt string `json:"prompt"`
	Image  string `json:"image"`
}

// Payloads renders the images as data URLs. The result is never nil so it
// encodes as an empty JSON array.
func (b BatchResult) Payloads() []ImagePayload {
	out := make([]ImagePayload, 0, len(b.Images))
	for _, img := range b.Images {
		out = append(out, ImagePayload{Prompt: img.Prompt, Image: img.DataURL()})
	}
	return out
}
