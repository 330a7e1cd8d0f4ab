// Package notify delivers batch results to a caller-supplied callback URL.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"productshot/internal/domain"
	"productshot/internal/infra"
	"productshot/internal/media"
	"productshot/internal/middleware"
)

const (
	DefaultTimeout  = 30 * time.Second
	logBodyLimit    = 500
	maxResponseRead = 4 << 10
)

// Notifier sends a batch result to target. Delivery is best effort: failures
// are logged and never reach the caller.
type Notifier interface {
	Notify(ctx context.Context, target string, result domain.BatchResult)
}

type WebhookOptions struct {
	HTTPClient       *http.Client
	Timeout          time.Duration
	Token            string
	APIKeyHeader     bool
	ForwardAuthToken bool
	Async            bool
	AllowPrivate     bool // local development only: permits private and loopback targets
	Logger           *infra.Logger
}

// Webhook posts results as JSON. In async mode each delivery runs on its own
// goroutine; Wait blocks until all of them finish.
type Webhook struct {
	client           *http.Client
	token            string
	apiKeyHeader     bool
	forwardAuthToken bool
	async            bool
	allowPrivate     bool
	logger           infra.Logger
	wg               sync.WaitGroup
}

type payload struct {
	ProductID          string                 `json:"product_id"`
	Success            bool                   `json:"success"`
	GeneratedImages    *[]domain.ImagePayload `json:"generated_images,omitempty"`
	Error              string                 `json:"error,omitempty"`
	AuthToken          string                 `json:"auth_token,omitempty"`
	UserID             string                 `json:"user_id,omitempty"`
	ProductName        string                 `json:"product_name,omitempty"`
	ProductPrice       any                    `json:"product_price,omitempty"`
	ProductDescription string                 `json:"product_description,omitempty"`
	OriginalImagePath  string                 `json:"original_image_path,omitempty"`
	DeliveryID         string                 `json:"delivery_id"`
}

func NewWebhook(opts WebhookOptions) *Webhook {
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		client = &http.Client{Timeout: timeout}
		if !opts.AllowPrivate {
			client.Transport = media.NewSafeTransport()
		}
	}
	return &Webhook{
		client:           client,
		token:            strings.TrimSpace(opts.Token),
		apiKeyHeader:     opts.APIKeyHeader,
		forwardAuthToken: opts.ForwardAuthToken,
		async:            opts.Async,
		allowPrivate:     opts.AllowPrivate,
		logger:           infra.OrNop(opts.Logger),
	}
}

func (w *Webhook) Notify(ctx context.Context, target string, result domain.BatchResult) {
	target = strings.TrimSpace(target)
	if target == "" {
		return
	}
	body, err := json.Marshal(w.buildPayload(result))
	if err != nil {
		w.logger.Error().Err(err).Msg("callback: encode payload")
		return
	}
	requestID := middleware.RequestIDFromContext(ctx)
	// Delivery outlives the inbound request.
	ctx = context.WithoutCancel(ctx)
	if !w.async {
		w.deliverAndLog(ctx, target, body, requestID)
		return
	}
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.deliverAndLog(ctx, target, body, requestID)
	}()
}

// Wait blocks until in-flight async deliveries complete.
func (w *Webhook) Wait() {
	w.wg.Wait()
}

func (w *Webhook) buildPayload(result domain.BatchResult) payload {
	pt := result.Passthrough
	p := payload{
		ProductID:          pt.ProductID,
		Success:            result.Success,
		UserID:             pt.UserID,
		ProductName:        pt.ProductName,
		ProductPrice:       pt.ProductPrice,
		ProductDescription: pt.ProductDescription,
		OriginalImagePath:  pt.OriginalImagePath,
		DeliveryID:         uuid.NewString(),
	}
	if result.Success {
		images := result.Payloads()
		p.GeneratedImages = &images
	} else {
		p.Error = result.Error
	}
	if w.forwardAuthToken {
		p.AuthToken = pt.AuthToken
	}
	return p
}

func (w *Webhook) deliverAndLog(ctx context.Context, target string, body []byte, requestID string) {
	if err := w.deliver(ctx, target, body, requestID); err != nil {
		w.logger.Error().Err(domain.Notification("callback delivery failed", err)).Str("target", target).Msg("callback: failed")
	}
}

func (w *Webhook) deliver(ctx context.Context, target string, body []byte, requestID string) error {
	if !w.allowPrivate {
		if _, err := media.IsSafeURL(target); err != nil {
			return errors.Wrap(err, "callback target rejected")
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")
	if w.token != "" {
		req.Header.Set("Authorization", "Bearer "+w.token)
		if w.apiKeyHeader {
			req.Header.Set("apikey", w.token)
		}
	}
	if requestID != "" {
		req.Header.Set(middleware.RequestIDHeader, requestID)
	}
	resp, err := w.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "post callback")
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseRead))
	text := string(snippet)
	if len(text) > logBodyLimit {
		text = text[:logBodyLimit]
	}
	w.logger.Info().Str("target", target).Int("status", resp.StatusCode).Str("body", text).Msg("callback: delivered")
	if resp.StatusCode >= 300 {
		return errors.Errorf("callback status %d", resp.StatusCode)
	}
	return nil
}

var _ Notifier = (*Webhook)(nil)
