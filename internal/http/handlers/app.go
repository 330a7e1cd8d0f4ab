package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"productshot/internal/domain"
	"productshot/internal/infra"
	"productshot/internal/pipeline"
	"productshot/internal/providers/openai"
)

const (
	defaultImages = 3
	maxImages     = 6
	editMaxBytes  = 4_300_000
)

type runner interface {
	Run(ctx context.Context, job pipeline.Job) (domain.BatchResult, error)
}

type imageEditor interface {
	EditImage(ctx context.Context, req openai.EditRequest) ([]byte, error)
}

type credentialChecker interface {
	Check() error
}

type AppOptions struct {
	Pipeline      runner
	FakePipeline  runner
	Editor        imageEditor
	EditModel     string
	Credentials   credentialChecker
	DefaultImages int
	MaxImages     int
	EditMaxBytes  int
	ExposeTrace   bool
	Logger        *infra.Logger
}

// App holds the dependencies shared by the HTTP handlers.
type App struct {
	Pipeline      runner
	FakePipeline  runner
	Editor        imageEditor
	EditModel     string
	Credentials   credentialChecker
	DefaultImages int
	MaxImages     int
	EditMaxBytes  int
	ExposeTrace   bool
	Logger        infra.Logger
}

func NewApp(opts AppOptions) *App {
	a := &App{
		Pipeline:      opts.Pipeline,
		FakePipeline:  opts.FakePipeline,
		Editor:        opts.Editor,
		EditModel:     opts.EditModel,
		Credentials:   opts.Credentials,
		DefaultImages: opts.DefaultImages,
		MaxImages:     opts.MaxImages,
		EditMaxBytes:  opts.EditMaxBytes,
		ExposeTrace:   opts.ExposeTrace,
		Logger:        infra.OrNop(opts.Logger),
	}
	if a.MaxImages <= 0 {
		a.MaxImages = maxImages
	}
	if a.DefaultImages <= 0 || a.DefaultImages > a.MaxImages {
		a.DefaultImages = min(defaultImages, a.MaxImages)
	}
	if a.EditMaxBytes <= 0 {
		a.EditMaxBytes = editMaxBytes
	}
	return a
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Trace   string `json:"trace,omitempty"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, category, message string) {
	a.json(w, code, errorResponse{Error: category, Message: message})
}

// fail maps a classified error to its status and envelope. Fatal pipeline
// errors past the credential check report "pipeline_failed" and carry the
// trace when enabled.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error) {
	kind := domain.KindOf(err)
	status := kind.HTTPStatus()
	resp := errorResponse{Error: kind.Category(), Message: err.Error()}
	switch kind {
	case domain.KindValidation, domain.KindUnsupportedMedia, domain.KindTooLarge:
		a.logger(r).Info().Err(err).Int("status", status).Msg("request rejected")
	case domain.KindConfiguration:
		a.logger(r).Error().Err(err).Msg("configuration error")
	default:
		resp.Error = "pipeline_failed"
		if a.ExposeTrace {
			resp.Trace = domain.Trace(err)
		}
		a.logger(r).Error().Err(err).Str("kind", kind.Category()).Msg("pipeline failed")
	}
	a.json(w, status, resp)
}

// logger prefers the request-scoped logger installed by the logging
// middleware.
func (a *App) logger(r *http.Request) *zerolog.Logger {
	if l := zerolog.Ctx(r.Context()); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &a.Logger
}
