package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dgallion1/citegest/internal/content"
	"github.com/dgallion1/citegest/internal/llm"
)

// Drafts backends.
const (
	DraftsSQLite    = "sqlite"
	DraftsPathstore = "pathstore"
	DraftsNone      = "none"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// LLM provider
	LLMProvider     string
	AnthropicAPIKey string
	AnthropicModel  string
	AnthropicURL    string
	OpenAIAPIKey    string
	OpenAIModel     string
	OpenAIURL       string
	OllamaHost      string
	OllamaModel     string
	LLMMaxTokens    int
	LLMTimeout      time.Duration

	// Document loaded at startup
	DocumentPath     string
	DocumentStrategy string
	DocumentManifest string

	// Content limits
	MaxPostLength   int
	MaxThreadPosts  int
	MaxScriptLength int
	ContextTokens   int
	Disclaimers     bool

	// Worker pool
	WorkerCount          int
	MaxQueueSize         int
	GenerationMaxRetries int

	// Upload limits
	MaxUploadBytes int64

	// Job state
	JobTTL time.Duration

	// PDF
	PDFFallbackPdftotext bool

	// Draft persistence
	DraftsBackend string
	DraftsDBPath  string

	// Pathstore connection
	PathstoreURL    string
	PathstoreAPIKey string
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIKey: os.Getenv("CITEGEST_API_KEY"),

		LLMProvider:     strings.ToLower(envOr("LLM_PROVIDER", llm.Anthropic)),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:  os.Getenv("ANTHROPIC_MODEL"),
		AnthropicURL:    os.Getenv("ANTHROPIC_BASE_URL"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:     os.Getenv("OPENAI_MODEL"),
		OpenAIURL:       os.Getenv("OPENAI_BASE_URL"),
		OllamaHost:      envOr("OLLAMA_HOST", "http://localhost:11434"),
		OllamaModel:     os.Getenv("OLLAMA_MODEL"),
		LLMMaxTokens:    envInt("LLM_MAX_TOKENS", llm.DefaultMaxTokens),
		LLMTimeout:      envDuration("LLM_TIMEOUT", llm.DefaultTimeout),

		DocumentPath:     os.Getenv("DOCUMENT_PATH"),
		DocumentStrategy: envOr("DOCUMENT_STRATEGY", "chapter_section"),
		DocumentManifest: os.Getenv("DOCUMENT_MANIFEST"),

		MaxPostLength:   envInt("MAX_POST_LENGTH", content.DefaultMaxPostLength),
		MaxThreadPosts:  envInt("MAX_THREAD_POSTS", content.DefaultMaxThreadPosts),
		MaxScriptLength: envInt("MAX_SCRIPT_LENGTH", content.DefaultMaxScriptLength),
		ContextTokens:   envInt("CONTEXT_TOKENS", 6000),
		Disclaimers:     envBool("DISCLAIMERS", true),

		WorkerCount:          envInt("WORKER_COUNT", 4),
		MaxQueueSize:         envInt("MAX_QUEUE_SIZE", 100),
		GenerationMaxRetries: envInt("GENERATION_MAX_RETRIES", 3),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),

		DraftsBackend: strings.ToLower(envOr("DRAFTS_BACKEND", DraftsSQLite)),
		DraftsDBPath:  envOr("DRAFTS_DB_PATH", "data/drafts.db"),

		PathstoreURL:    envOr("PATHSTORE_URL", "http://localhost:8080"),
		PathstoreAPIKey: os.Getenv("PATHSTORE_API_KEY"),
	}

	if cfg.LLMMaxTokens <= 0 {
		cfg.LLMMaxTokens = llm.DefaultMaxTokens
	}
	if cfg.LLMTimeout <= 0 {
		cfg.LLMTimeout = llm.DefaultTimeout
	}
	if cfg.MaxPostLength <= 0 {
		cfg.MaxPostLength = content.DefaultMaxPostLength
	}
	if cfg.MaxThreadPosts < content.MinThreadPosts {
		cfg.MaxThreadPosts = content.DefaultMaxThreadPosts
	}
	if cfg.MaxScriptLength <= 0 {
		cfg.MaxScriptLength = content.DefaultMaxScriptLength
	}
	if cfg.ContextTokens < 0 {
		cfg.ContextTokens = 0
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.GenerationMaxRetries <= 0 {
		cfg.GenerationMaxRetries = 1
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}

	return cfg
}

// Validate checks settings the server cannot start without. A missing LLM
// credential is not fatal; generation reports the provider as unavailable.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("CITEGEST_API_KEY is required")
	}
	found := false
	for _, p := range llm.Providers() {
		if c.LLMProvider == p {
			found = true
		}
	}
	if !found {
		return fmt.Errorf("LLM_PROVIDER must be one of %s, got %q", strings.Join(llm.Providers(), ", "), c.LLMProvider)
	}
	switch c.DraftsBackend {
	case DraftsSQLite:
		if c.DraftsDBPath == "" {
			return fmt.Errorf("DRAFTS_DB_PATH is required for the sqlite backend")
		}
	case DraftsPathstore:
		if c.PathstoreAPIKey == "" {
			return fmt.Errorf("PATHSTORE_API_KEY is required for the pathstore backend")
		}
	case DraftsNone:
	default:
		return fmt.Errorf("DRAFTS_BACKEND must be sqlite, pathstore or none, got %q", c.DraftsBackend)
	}
	return nil
}

// ProviderConfig builds the record handed to llm.New. This is the only
// place provider credentials are read.
func (c Config) ProviderConfig() llm.Config {
	pc := llm.Config{
		Provider:  c.LLMProvider,
		MaxTokens: c.LLMMaxTokens,
		Timeout:   c.LLMTimeout,
	}
	switch c.LLMProvider {
	case llm.Anthropic:
		pc.APIKey, pc.Model, pc.BaseURL = c.AnthropicAPIKey, c.AnthropicModel, c.AnthropicURL
	case llm.OpenAI:
		pc.APIKey, pc.Model, pc.BaseURL = c.OpenAIAPIKey, c.OpenAIModel, c.OpenAIURL
	case llm.Ollama:
		pc.Model, pc.BaseURL = c.OllamaModel, c.OllamaHost
	}
	return pc
}

// Limits returns the content limits.
func (c Config) Limits() content.Limits {
	return content.Limits{
		MaxPostLength:   c.MaxPostLength,
		MaxThreadPosts:  c.MaxThreadPosts,
		MaxScriptLength: c.MaxScriptLength,
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
