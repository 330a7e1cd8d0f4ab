package media

import "bytes"

// UnknownMIME is returned when no signature matches. Callers must not trust it
// for content negotiation.
const UnknownMIME = "application/octet-stream"

var (
	pngSignature  = []byte("\x89PNG\r\n\x1a\n")
	jpegSOI       = []byte{0xFF, 0xD8}
	riffSignature = []byte("RIFF")
	webpSignature = []byte("WEBP")
)

// SniffMIME identifies PNG, JPEG and WEBP payloads from their magic bytes.
func SniffMIME(data []byte) string {
	switch {
	case bytes.HasPrefix(data, pngSignature):
		return "image/png"
	case bytes.HasPrefix(data, jpegSOI):
		return "image/jpeg"
	case len(data) >= 12 && bytes.Equal(data[0:4], riffSignature) && bytes.Equal(data[8:12], webpSignature):
		return "image/webp"
	default:
		return UnknownMIME
	}
}
