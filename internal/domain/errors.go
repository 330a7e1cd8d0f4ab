package domain

import (
	"errors"
	"fmt"
	"net/http"

	pkgerrors "github.com/pkg/errors"
)

var (
	ErrMissingImage     = errors.New("missing image input")
	ErrInvalidBase64    = errors.New("invalid base64")
	ErrImageTooLarge    = errors.New("image too large")
	ErrNoPrompts        = errors.New("model returned no prompts")
	ErrNoImage          = errors.New("no image produced")
	ErrMissingAPIKey    = errors.New("OPENAI_API_KEY is not set")
	ErrMalformedAPIKey  = errors.New("OPENAI_API_KEY format looks wrong")
	ErrMissingGeminiKey = errors.New("GEMINI_API_KEY is not set")
)

// Kind classifies pipeline failures. Fatal kinds map to an HTTP status; the
// per-item kinds never reach the caller.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnsupportedMedia
	KindTooLarge
	KindConfiguration
	KindPlanning
	KindSynthesis
	KindNotification
)

var kindCategories = map[Kind]string{
	KindInternal:         "internal",
	KindValidation:       "validation_error",
	KindUnsupportedMedia: "unsupported_media_type",
	KindTooLarge:         "payload_too_large",
	KindConfiguration:    "configuration_error",
	KindPlanning:         "planning_error",
	KindSynthesis:        "synthesis_error",
	KindNotification:     "notification_error",
}

// Category is the machine-readable name used in error envelopes.
func (k Kind) Category() string {
	if c, ok := kindCategories[k]; ok {
		return c
	}
	return kindCategories[KindInternal]
}

// HTTPStatus maps a kind to the status returned to the caller.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnsupportedMedia:
		return http.StatusUnsupportedMediaType
	case KindTooLarge:
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

// Error carries a Kind, a human message and the underlying cause. The cause is
// wrapped with a stack so the diagnostic trace can be rendered with %+v.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message != "" {
		return e.Message + ": " + e.Err.Error()
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.Category()
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, msg string, err error) *Error {
	if err == nil {
		err = pkgerrors.New(msg)
		msg = ""
	} else {
		err = pkgerrors.WithStack(err)
	}
	return &Error{Kind: kind, Message: msg, Err: err}
}

func Validation(msg string) error { return newError(KindValidation, msg, nil) }

func ValidationErr(err error) error { return newError(KindValidation, "", err) }

func UnsupportedMedia(msg string) error { return newError(KindUnsupportedMedia, msg, nil) }

func TooLarge(msg string) error { return newError(KindTooLarge, msg, nil) }

func Configuration(err error) error { return newError(KindConfiguration, "", err) }

func Planning(msg string, err error) error { return newError(KindPlanning, msg, err) }

func Synthesis(msg string, err error) error { return newError(KindSynthesis, msg, err) }

func Notification(msg string, err error) error { return newError(KindNotification, msg, err) }

// KindOf reports the Kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// Trace renders the error with the stack captured when it was classified.
func Trace(err error) string {
	if err == nil {
		return ""
	}
	var de *Error
	if errors.As(err, &de) && de.Err != nil {
		if de.Message != "" {
			return de.Message + ": " + fmt.Sprintf("%+v", de.Err)
		}
		return fmt.Sprintf("%+v", de.Err)
	}
	return fmt.Sprintf("%+v", err)
}
