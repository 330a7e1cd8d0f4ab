package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	SynthProviderOpenAI = "openai"
	SynthProviderGemini = "gemini"

	// MaxConcurrentCalls caps outbound synthesis calls per request.
	MaxConcurrentCalls = 4
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv           string
	Port             string
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int

	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIOrg     string
	PlannerModel  string
	DescribeModel string
	SynthModel    string
	EditModel     string
	SynthProvider string
	GeminiAPIKey  string
	GeminiModel   string

	MaxImageBytes  int
	EditMaxBytes   int
	DefaultImages  int
	MaxImages      int
	MaxWorkers     int
	AspectRatio    string
	FetchRemote    bool
	DescribeFirst  bool
	PostprocessRGB bool

	CallbackToken            string
	CallbackAPIKeyHeader     bool
	CallbackForwardAuthToken bool
	CallbackAllowPrivate     bool
	CallbackTimeout          time.Duration

	ExposeErrorTrace   bool
	EnableFakeEndpoint bool
	OutputDir          string
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
// The OpenAI key is not required here; a missing key is reported per request.
// Error traces are only exposed by default when APP_ENV is set to development.
func LoadConfig() (*Config, error) {
	explicitEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	appEnv := getEnv("APP_ENV", "development")
	cfg := &Config{
		AppEnv:           appEnv,
		Port:             getEnv("PORT", "8080"),
		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 30)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 300)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),

		OpenAIAPIKey:  strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIOrg:     os.Getenv("OPENAI_ORG"),
		PlannerModel:  getEnv("PLANNER_MODEL", "gpt-4o-mini"),
		DescribeModel: getEnv("DESCRIBE_MODEL", "gpt-4.1"),
		SynthModel:    getEnv("SYNTH_MODEL", "gpt-4.1"),
		EditModel:     getEnv("EDIT_MODEL", "gpt-image-1"),
		SynthProvider: strings.ToLower(getEnv("SYNTH_PROVIDER", SynthProviderOpenAI)),
		GeminiAPIKey:  strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GeminiModel:   getEnv("GEMINI_MODEL", "gemini-2.5-flash-image"),

		MaxImageBytes:  getEnvInt("MAX_IMAGE_BYTES", 6*1024*1024),
		EditMaxBytes:   getEnvInt("EDIT_MAX_BYTES", 4_300_000),
		DefaultImages:  getEnvInt("DEFAULT_IMAGES", 3),
		MaxImages:      getEnvInt("MAX_IMAGES", 6),
		MaxWorkers:     getEnvInt("MAX_WORKERS", MaxConcurrentCalls),
		AspectRatio:    getEnv("ASPECT_RATIO", "9:16"),
		FetchRemote:    getEnvBool("FETCH_REMOTE_IMAGES", false),
		DescribeFirst:  getEnvBool("DESCRIBE_BEFORE_PLANNING", false),
		PostprocessRGB: getEnvBool("POSTPROCESS_RGB", true),

		CallbackToken:            getEnv("CALLBACK_BEARER_TOKEN", os.Getenv("SUPABASE_ANON_KEY")),
		CallbackAPIKeyHeader:     getEnvBool("CALLBACK_APIKEY_HEADER", true),
		CallbackForwardAuthToken: getEnvBool("CALLBACK_FORWARD_AUTH_TOKEN", true),
		CallbackAllowPrivate:     getEnvBool("CALLBACK_ALLOW_PRIVATE", false),
		CallbackTimeout:          time.Second * time.Duration(getEnvInt("CALLBACK_TIMEOUT_SECONDS", 30)),

		ExposeErrorTrace:   getEnvBool("EXPOSE_ERROR_TRACE", explicitEnv == "development"),
		EnableFakeEndpoint: getEnvBool("ENABLE_FAKE_ENDPOINT", false),
		OutputDir:          getEnv("OUTPUT_DIR", "./output"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.SynthProvider {
	case SynthProviderOpenAI, SynthProviderGemini:
	default:
		return fmt.Errorf("SYNTH_PROVIDER %q is not supported", c.SynthProvider)
	}
	if c.MaxImages < 1 {
		return fmt.Errorf("MAX_IMAGES must be at least 1")
	}
	if c.DefaultImages < 1 || c.DefaultImages > c.MaxImages {
		return fmt.Errorf("DEFAULT_IMAGES must be within 1..%d", c.MaxImages)
	}
	if c.MaxWorkers < 1 || c.MaxWorkers > MaxConcurrentCalls {
		return fmt.Errorf("MAX_WORKERS must be within 1..%d", MaxConcurrentCalls)
	}
	if c.MaxImageBytes <= 0 {
		return fmt.Errorf("MAX_IMAGE_BYTES must be positive")
	}
	return nil
}

// IsDevelopment reports whether the service runs with development defaults.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	}
	return fallback
}
