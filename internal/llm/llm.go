// Package llm is a uniform client over interchangeable model backends.
// Providers are constructed explicitly and passed to callers; there is no
// package-level client.
package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dgallion1/citegest/internal/errs"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Provider type keys.
const (
	Anthropic = "anthropic"
	OpenAI    = "openai"
	Ollama    = "ollama"
)

const (
	DefaultMaxTokens   = 4096
	DefaultTemperature = 0.7
	DefaultTimeout     = 120 * time.Second
)

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options tune a single generation call.
type Options struct {
	System    string
	MaxTokens int // 0 uses the provider's configured limit
	// Temperature nil uses DefaultTemperature; a zero value is sent as is.
	Temperature *float64
}

// Temperature returns a pointer for Options.Temperature.
func Temperature(v float64) *float64 { return &v }

func (o Options) temperature() float64 {
	if o.Temperature == nil {
		return DefaultTemperature
	}
	return *o.Temperature
}

func (o Options) maxTokens(fallback int) int {
	if o.MaxTokens > 0 {
		return o.MaxTokens
	}
	if fallback > 0 {
		return fallback
	}
	return DefaultMaxTokens
}

// Provider is the capability set every backend implements.
type Provider interface {
	ProviderName() string
	ModelName() string
	Generate(ctx context.Context, prompt string, opts Options) (string, error)
	GenerateWithMessages(ctx context.Context, msgs []Message, opts Options) (string, error)
	// IsAvailable is a cheap pre-flight check. Remote backends only check
	// for a credential; local backends check reachability and the model.
	IsAvailable(ctx context.Context) bool
}

// Config is the provider configuration record. Credentials are supplied by
// the caller; this package never reads the environment.
type Config struct {
	Provider  string        `json:"provider"`
	Model     string        `json:"model"`
	APIKey    string        `json:"-"`
	BaseURL   string        `json:"base_url,omitempty"`
	MaxTokens int           `json:"max_tokens,omitempty"`
	Timeout   time.Duration `json:"timeout,omitempty"`

	// HTTPClient overrides the client built from Timeout.
	HTTPClient *http.Client `json:"-"`
}

func (c Config) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// New builds the provider named by cfg.Provider. A missing credential is
// not an error here; it shows up as IsAvailable() == false and as a
// configuration error from Generate.
func New(cfg Config) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case Anthropic:
		return NewAnthropic(cfg), nil
	case OpenAI:
		return NewOpenAI(cfg), nil
	case Ollama:
		return NewOllama(cfg), nil
	default:
		e := errs.NewConfiguration("llm.New", fmt.Sprintf("unknown provider %q", cfg.Provider))
		e.Details = map[string]any{"provider": cfg.Provider, "available": Providers()}
		return nil, e
	}
}

// Providers lists the supported provider keys.
func Providers() []string { return []string{Anthropic, OpenAI, Ollama} }

func missingKey(op, provider string) error {
	return errs.NewConfiguration(op, provider+" api key is required")
}
