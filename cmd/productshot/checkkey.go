package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"productshot/internal/domain"
	"productshot/internal/infra/credentials"
)

var (
	keyFlag      string
	providerFlag string
)

var checkKeyCmd = &cobra.Command{
	Use:   "check-key",
	Short: "Validate a provider API key without calling the provider",
	RunE: func(cmd *cobra.Command, _ []string) error {
		provider := strings.TrimSpace(strings.ToLower(providerFlag))
		switch provider {
		case credentials.ProviderGemini, credentials.ProviderOpenAI:
		case "":
			provider = credentials.ProviderOpenAI
		default:
			return fmt.Errorf("unsupported provider %q", providerFlag)
		}

		key := strings.TrimSpace(keyFlag)
		if key == "" {
			switch provider {
			case credentials.ProviderGemini:
				key = strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
			default:
				key = strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
			}
		}

		var err error
		switch provider {
		case credentials.ProviderGemini:
			if key == "" {
				err = domain.Configuration(domain.ErrMissingGeminiKey)
			}
		default:
			err = credentials.ValidateOpenAIKey(key)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s API key looks valid\n", strings.ToUpper(provider))
		return nil
	},
}

func init() {
	checkKeyCmd.Flags().StringVar(&keyFlag, "key", "", "API key to check (falls back to the environment)")
	checkKeyCmd.Flags().StringVar(&providerFlag, "provider", credentials.ProviderOpenAI, "Provider the key belongs to (openai or gemini)")
}
