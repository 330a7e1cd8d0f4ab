package credentials

import (
	"errors"
	"testing"

	"productshot/internal/domain"
)

func TestStoreCheck(t *testing.T) {
	cases := []struct {
		name          string
		openAI        string
		gemini        string
		requireGemini bool
		want          error
	}{
		{name: "valid", openAI: "sk-test", want: nil},
		{name: "trimmed", openAI: "  sk-test  ", want: nil},
		{name: "missing", openAI: "", want: domain.ErrMissingAPIKey},
		{name: "blank", openAI: "   ", want: domain.ErrMissingAPIKey},
		{name: "wrong_prefix", openAI: "pk-test", want: domain.ErrMalformedAPIKey},
		{name: "gemini_required_missing", openAI: "sk-test", requireGemini: true, want: domain.ErrMissingGeminiKey},
		{name: "gemini_required_present", openAI: "sk-test", gemini: "g-key", requireGemini: true, want: nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := NewStore(tc.openAI, tc.gemini, tc.requireGemini).Check()
			if tc.want == nil {
				if err != nil {
					t.Fatalf("Check returned error: %v", err)
				}
				return
			}
			if !errors.Is(err, tc.want) {
				t.Fatalf("Check error = %v, want %v", err, tc.want)
			}
			if domain.KindOf(err) != domain.KindConfiguration {
				t.Fatalf("KindOf = %v, want configuration", domain.KindOf(err))
			}
		})
	}
}

func TestStoreToken(t *testing.T) {
	store := NewStore(" sk-abc ", " g-123 ", false)
	if got := store.Token("OpenAI"); got != "sk-abc" {
		t.Fatalf("Token(openai) = %q", got)
	}
	if got := store.Token(ProviderGemini); got != "g-123" {
		t.Fatalf("Token(gemini) = %q", got)
	}
	if got := store.Token("qwen"); got != "" {
		t.Fatalf("Token(qwen) = %q, want empty", got)
	}
}
