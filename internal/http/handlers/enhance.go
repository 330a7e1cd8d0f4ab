package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"productshot/internal/domain"
	"productshot/internal/media"
	"productshot/internal/pipeline"
)

const maxJSONBody = 32 << 20

type enhanceRequest struct {
	ImageURL           string          `json:"image_url"`
	ImageBase64        string          `json:"image_base64"`
	NumberOfImages     json.RawMessage `json:"number_of_images"`
	CallbackURL        string          `json:"callback_url"`
	ProductID          string          `json:"product_id"`
	AuthToken          string          `json:"auth_token"`
	UserID             string          `json:"user_id"`
	ProductName        string          `json:"product_name"`
	ProductPrice       any             `json:"product_price"`
	ProductDescription string          `json:"product_description"`
	OriginalImagePath  string          `json:"original_image_path"`
}

type enhanceResponse struct {
	Success         bool                  `json:"success"`
	GeneratedImages []domain.ImagePayload `json:"generated_images"`
}

// Enhance runs the full pipeline for a JSON request.
func (a *App) Enhance(w http.ResponseWriter, r *http.Request) {
	a.serveEnhance(w, r, a.Pipeline)
}

// Fake accepts the same contract as Enhance but answers with placeholder
// images and makes no model calls.
func (a *App) Fake(w http.ResponseWriter, r *http.Request) {
	a.serveEnhance(w, r, a.FakePipeline)
}

func (a *App) serveEnhance(w http.ResponseWriter, r *http.Request, run runner) {
	if run == nil {
		a.error(w, http.StatusNotFound, "not_found", "endpoint disabled")
		return
	}
	job, err := a.decodeJob(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	result, err := run.Run(r.Context(), job)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, enhanceResponse{Success: true, GeneratedImages: result.Payloads()})
}

func (a *App) decodeJob(r *http.Request) (pipeline.Job, error) {
	if ct := r.Header.Get("Content-Type"); ct != "" {
		mediaType, _, err := mime.ParseMediaType(ct)
		if err != nil || mediaType != "application/json" {
			return pipeline.Job{}, domain.UnsupportedMedia("Content-Type must be application/json")
		}
	}
	raw, err := io.ReadAll(http.MaxBytesReader(nil, r.Body, maxJSONBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return pipeline.Job{}, domain.TooLarge("request body too large")
		}
		return pipeline.Job{}, domain.Validation("could not read request body")
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		raw = []byte("{}")
	}
	var req enhanceRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return pipeline.Job{}, domain.Validation("invalid JSON body")
	}
	count, err := parseImageCount(req.NumberOfImages, a.DefaultImages, a.MaxImages)
	if err != nil {
		return pipeline.Job{}, err
	}
	return pipeline.Job{
		Input:       media.Input{URL: req.ImageURL, Base64: req.ImageBase64},
		Count:       count,
		CallbackURL: strings.TrimSpace(req.CallbackURL),
		Passthrough: domain.Passthrough{
			ProductID:          strings.TrimSpace(req.ProductID),
			AuthToken:          strings.TrimSpace(req.AuthToken),
			UserID:             req.UserID,
			ProductName:        req.ProductName,
			ProductPrice:       req.ProductPrice,
			ProductDescription: req.ProductDescription,
			OriginalImagePath:  req.OriginalImagePath,
		},
	}, nil
}

// parseImageCount accepts a JSON integer (or integral float) or a numeric
// string. Absent or null yields def.
func parseImageCount(raw json.RawMessage, def, limit int) (int, error) {
	notInteger := domain.Validation("number_of_images must be an integer")
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return def, nil
	}
	var n int
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return 0, notInteger
		}
		v, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return 0, notInteger
		}
		n = v
	default:
		var f float64
		if err := json.Unmarshal(trimmed, &f); err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
			return 0, notInteger
		}
		n = int(f)
	}
	if n < 1 || n > limit {
		return 0, domain.Validation(fmt.Sprintf("number_of_images must be 1..%d", limit))
	}
	return n, nil
}
