package handlers

import (
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"productshot/internal/domain"
	"productshot/internal/media"
	"productshot/internal/providers/openai"
)

const multipartOverhead = 1 << 20

// Edit applies a free-text prompt to an uploaded image and returns the raw
// edited image bytes.
func (a *App) Edit(w http.ResponseWriter, r *http.Request) {
	if a.Editor == nil {
		a.error(w, http.StatusNotFound, "not_found", "endpoint disabled")
		return
	}
	if a.Credentials != nil {
		if err := a.Credentials.Check(); err != nil {
			a.fail(w, r, err)
			return
		}
	}
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "multipart/form-data" {
		a.fail(w, r, domain.UnsupportedMedia("Use multipart/form-data with fields: image (file) and prompt (text)"))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, int64(a.EditMaxBytes)+multipartOverhead)
	if err := r.ParseMultipartForm(int64(a.EditMaxBytes) + multipartOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			a.fail(w, r, domain.TooLarge("Image too large for serverless payload limit"))
			return
		}
		a.fail(w, r, domain.Validation("Missing 'prompt' or 'image' field"))
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	prompt := strings.TrimSpace(r.FormValue("prompt"))
	file, header, err := r.FormFile("image")
	if err != nil || prompt == "" {
		a.fail(w, r, domain.Validation("Missing 'prompt' or 'image' field"))
		return
	}
	defer func() {
		_ = file.Close()
	}()
	data, err := io.ReadAll(io.LimitReader(file, int64(a.EditMaxBytes)+1))
	if err != nil {
		a.fail(w, r, domain.Validation("Could not read uploaded file"))
		return
	}
	if len(data) == 0 {
		a.fail(w, r, domain.Validation("Empty image file"))
		return
	}
	if len(data) > a.EditMaxBytes {
		a.fail(w, r, domain.TooLarge("Image too large for serverless payload limit"))
		return
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" || mimeType == media.UnknownMIME {
		mimeType = media.SniffMIME(data)
	}
	out, err := a.Editor.EditImage(r.Context(), openai.EditRequest{
		Model:    a.EditModel,
		Prompt:   prompt,
		Image:    data,
		MIME:     mimeType,
		Filename: header.Filename,
	})
	if err != nil {
		a.fail(w, r, domain.Synthesis("image edit failed", err))
		return
	}

	contentType := media.SniffMIME(out)
	if contentType == media.UnknownMIME {
		contentType = "image/png"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(out)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}
