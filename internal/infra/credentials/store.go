package credentials

import (
	"strings"

	"productshot/internal/domain"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"

	openAIKeyPrefix = "sk-"
)

// Store holds the provider credentials resolved at startup and validates them
// before any outbound call is attempted.
type Store struct {
	openAIKey     string
	geminiKey     string
	requireGemini bool
}

func NewStore(openAIKey, geminiKey string, requireGemini bool) *Store {
	return &Store{
		openAIKey:     strings.TrimSpace(openAIKey),
		geminiKey:     strings.TrimSpace(geminiKey),
		requireGemini: requireGemini,
	}
}

func (s *Store) OpenAIAPIKey() string { return s.openAIKey }

func (s *Store) GeminiAPIKey() string { return s.geminiKey }

// Token returns the key for provider, or "" for an unknown provider.
func (s *Store) Token(provider string) string {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case ProviderOpenAI:
		return s.openAIKey
	case ProviderGemini:
		return s.geminiKey
	default:
		return ""
	}
}

// Check returns a configuration error when a required key is missing or
// malformed.
func (s *Store) Check() error {
	if err := ValidateOpenAIKey(s.openAIKey); err != nil {
		return err
	}
	if s.requireGemini && s.geminiKey == "" {
		return domain.Configuration(domain.ErrMissingGeminiKey)
	}
	return nil
}

// ValidateOpenAIKey checks presence and the expected literal prefix.
func ValidateOpenAIKey(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return domain.Configuration(domain.ErrMissingAPIKey)
	}
	if !strings.HasPrefix(key, openAIKeyPrefix) {
		return domain.Configuration(domain.ErrMalformedAPIKey)
	}
	return nil
}
