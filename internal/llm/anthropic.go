package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/dgallion1/citegest/internal/errs"
)

const (
	defaultAnthropicModel = "claude-sonnet-4-20250514"
	defaultAnthropicURL   = "https://api.anthropic.com/"
)

// AnthropicClient calls the Anthropic Messages API through the official SDK.
type AnthropicClient struct {
	client     anthropic.Client
	hasKey     bool
	model      string
	maxTokens  int
	httpClient *http.Client
}

// NewAnthropic builds a client from cfg alone. The SDK's own retries are
// off; callers retry on errs.IsRetryable.
func NewAnthropic(cfg Config) *AnthropicClient {
	key := strings.TrimSpace(cfg.APIKey)
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		base = defaultAnthropicURL
	}
	hc := cfg.httpClient()
	c := &AnthropicClient{
		client: anthropic.NewClient(
			option.WithAPIKey(key),
			option.WithBaseURL(base),
			option.WithHTTPClient(hc),
			option.WithMaxRetries(0),
		),
		hasKey:     key != "",
		model:      cfg.Model,
		maxTokens:  cfg.MaxTokens,
		httpClient: hc,
	}
	if c.model == "" {
		c.model = defaultAnthropicModel
	}
	return c
}

func (c *AnthropicClient) ProviderName() string { return Anthropic }
func (c *AnthropicClient) ModelName() string    { return c.model }

// IsAvailable only checks for a credential.
func (c *AnthropicClient) IsAvailable(context.Context) bool { return c.hasKey }

func (c *AnthropicClient) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	return c.GenerateWithMessages(ctx, []Message{{Role: RoleUser, Content: prompt}}, opts)
}

func (c *AnthropicClient) GenerateWithMessages(ctx context.Context, msgs []Message, opts Options) (string, error) {
	const op = "anthropic.Generate"
	if !c.hasKey {
		return "", missingKey(op, Anthropic)
	}
	system, turns := NormalizeAlternating(msgs, opts.System)
	if len(turns) == 0 {
		return "", errs.NewInvalidInput(op, "no valid messages")
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   int64(opts.maxTokens(c.maxTokens)),
		Messages:    make([]anthropic.MessageParam, 0, len(turns)),
		Temperature: anthropic.Float(opts.temperature()),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	for _, m := range turns {
		block := anthropic.NewTextBlock(m.Content)
		if m.Role == RoleAssistant {
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(block))
		} else {
			params.Messages = append(params.Messages, anthropic.NewUserMessage(block))
		}
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return "", errs.NewProvider(op, apiErr.StatusCode, err)
		}
		return "", errs.NewProvider(op, 0, err)
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return "", errs.NewProvider(op, http.StatusOK, errors.New("empty response from claude"))
	}
	return b.String(), nil
}

// Close releases idle connections.
func (c *AnthropicClient) Close() {
	c.httpClient.CloseIdleConnections()
}
