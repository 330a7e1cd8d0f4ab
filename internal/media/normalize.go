// Package media turns caller-supplied image input into the canonical reference
// handed to the generation services.
package media

import (
	"context"
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"productshot/internal/domain"
)

// DefaultMaxBytes bounds inline payloads.
const DefaultMaxBytes = 6 * 1024 * 1024

var dataURLPattern = regexp.MustCompile(`(?is)^data:(image/[^;]+);base64,(.+)$`)

// Input is the raw image input of a request. URL wins when both are set.
type Input struct {
	URL    string
	Base64 string
}

// Normalizer validates Input and produces a domain.ImageReference. With
// FetchRemote set, URL inputs are downloaded through Fetcher and inlined.
type Normalizer struct {
	MaxBytes    int
	FetchRemote bool
	Fetcher     Fetcher
}

func NewNormalizer(maxBytes int, fetchRemote bool, fetcher Fetcher) *Normalizer {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Normalizer{MaxBytes: maxBytes, FetchRemote: fetchRemote, Fetcher: fetcher}
}

func (n *Normalizer) maxBytes() int {
	if n == nil || n.MaxBytes <= 0 {
		return DefaultMaxBytes
	}
	return n.MaxBytes
}

// Normalize returns the canonical reference for in, or a validation error.
func (n *Normalizer) Normalize(ctx context.Context, in Input) (domain.ImageReference, error) {
	rawURL := strings.TrimSpace(in.URL)
	rawB64 := strings.TrimSpace(in.Base64)

	switch {
	case rawURL != "":
		if n == nil || !n.FetchRemote || n.Fetcher == nil {
			return domain.ImageReference{URL: rawURL}, nil
		}
		data, mime, err := n.Fetcher.Fetch(ctx, rawURL, n.maxBytes())
		if err != nil {
			return domain.ImageReference{}, domain.Validation(fmt.Sprintf("failed to fetch image_url: %v", err))
		}
		return inline(data, mime), nil
	case rawB64 != "":
		return n.decodeInline(rawB64)
	default:
		return domain.ImageReference{}, domain.ValidationErr(domain.ErrMissingImage)
	}
}

func (n *Normalizer) decodeInline(raw string) (domain.ImageReference, error) {
	declared, payload := SplitDataURL(raw)
	data, err := DecodeBase64(payload)
	if err != nil || len(data) == 0 {
		return domain.ImageReference{}, domain.ValidationErr(domain.ErrInvalidBase64)
	}
	if len(data) > n.maxBytes() {
		return domain.ImageReference{}, domain.ValidationErr(domain.ErrImageTooLarge)
	}
	return inline(data, declared), nil
}

func inline(data []byte, declared string) domain.ImageReference {
	mime := strings.ToLower(strings.TrimSpace(declared))
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}
	if mime == "" || mime == UnknownMIME {
		mime = SniffMIME(data)
	}
	return domain.ImageReference{Data: data, MIME: mime}
}

// SplitDataURL separates a data:image/...;base64, prefix from its payload. The
// MIME is "" when raw is not a data URL.
func SplitDataURL(raw string) (mime, payload string) {
	raw = strings.TrimSpace(raw)
	if m := dataURLPattern.FindStringSubmatch(raw); m != nil {
		return strings.ToLower(m[1]), m[2]
	}
	return "", raw
}

// DecodeBase64 strips whitespace and decodes standard base64, accepting
// unpadded input.
func DecodeBase64(payload string) ([]byte, error) {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, payload)
	if data, err := base64.StdEncoding.DecodeString(cleaned); err == nil {
		return data, nil
	}
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(cleaned, "="))
}
