package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/dgallion1/citegest/internal/errs"
)

const (
	defaultOpenAIModel = "gpt-4o"
	defaultOpenAIBase  = "https://api.openai.com/v1/"
)

// OpenAIClient calls an OpenAI-compatible chat completions endpoint through
// the official SDK.
type OpenAIClient struct {
	client    openai.Client
	hasKey    bool
	model     string
	maxTokens int
}

// NewOpenAI accepts a bare host, a /v1 base or a full endpoint in BaseURL.
func NewOpenAI(cfg Config) *OpenAIClient {
	key := strings.TrimSpace(cfg.APIKey)
	c := &OpenAIClient{
		client: openai.NewClient(
			option.WithAPIKey(key),
			option.WithBaseURL(apiBase(cfg.BaseURL)),
			option.WithHTTPClient(cfg.httpClient()),
			option.WithMaxRetries(0),
		),
		hasKey:    key != "",
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}
	if c.model == "" {
		c.model = defaultOpenAIModel
	}
	return c
}

// apiBase reduces baseURL to the /v1 root the SDK resolves
// "chat/completions" against.
func apiBase(baseURL string) string {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return defaultOpenAIBase
	}
	if trimmed, ok := strings.CutSuffix(base, "/chat/completions"); ok {
		return trimmed + "/"
	}
	if !strings.HasSuffix(base, "/v1") {
		base += "/v1"
	}
	return base + "/"
}

func (c *OpenAIClient) ProviderName() string { return OpenAI }
func (c *OpenAIClient) ModelName() string    { return c.model }

// IsAvailable only checks for a credential.
func (c *OpenAIClient) IsAvailable(context.Context) bool { return c.hasKey }

func (c *OpenAIClient) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	return c.GenerateWithMessages(ctx, []Message{{Role: RoleUser, Content: prompt}}, opts)
}

func (c *OpenAIClient) GenerateWithMessages(ctx context.Context, msgs []Message, opts Options) (string, error) {
	const op = "openai.Generate"
	if !c.hasKey {
		return "", missingKey(op, OpenAI)
	}
	turns := NormalizeChat(msgs, opts.System)
	if len(turns) == 0 {
		return "", errs.NewInvalidInput(op, "no valid messages")
	}

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.model),
		Messages:    make([]openai.ChatCompletionMessageParamUnion, 0, len(turns)),
		MaxTokens:   openai.Int(int64(opts.maxTokens(c.maxTokens))),
		Temperature: openai.Float(opts.temperature()),
	}
	for _, m := range turns {
		switch m.Role {
		case RoleSystem:
			params.Messages = append(params.Messages, openai.SystemMessage(m.Content))
		case RoleAssistant:
			params.Messages = append(params.Messages, openai.AssistantMessage(m.Content))
		default:
			params.Messages = append(params.Messages, openai.UserMessage(m.Content))
		}
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", errs.NewProvider(op, apiErr.StatusCode, err)
		}
		return "", errs.NewProvider(op, 0, err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", errs.NewProvider(op, http.StatusOK, errors.New("no choices in openai response"))
	}
	return resp.Choices[0].Message.Content, nil
}
