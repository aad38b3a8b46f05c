package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dgallion1/citegest/internal/errs"
)

const (
	defaultOllamaModel = "llama3.2"
	defaultOllamaHost  = "http://localhost:11434"
	ollamaTagsTimeout  = 5 * time.Second
)

// OllamaClient talks to a local Ollama server. It needs no credential.
type OllamaClient struct {
	host       string
	model      string
	maxTokens  int
	httpClient *http.Client
}

func NewOllama(cfg Config) *OllamaClient {
	c := &OllamaClient{
		host:       strings.TrimRight(cfg.BaseURL, "/"),
		model:      cfg.Model,
		maxTokens:  cfg.MaxTokens,
		httpClient: cfg.httpClient(),
	}
	if c.host == "" {
		c.host = defaultOllamaHost
	}
	if c.model == "" {
		c.model = defaultOllamaModel
	}
	return c
}

type ollamaChatRequest struct {
	Model    string        `json:"model"`
	Messages []Message     `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  ollamaOptions `json:"options"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

type ollamaChatResponse struct {
	Message Message `json:"message"`
	Error   string  `json:"error"`
}

type ollamaTagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

func (c *OllamaClient) ProviderName() string { return Ollama }
func (c *OllamaClient) ModelName() string    { return c.model }

func (c *OllamaClient) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	return c.GenerateWithMessages(ctx, []Message{{Role: RoleUser, Content: prompt}}, opts)
}

func (c *OllamaClient) GenerateWithMessages(ctx context.Context, msgs []Message, opts Options) (string, error) {
	const op = "ollama.Generate"
	turns := NormalizeChat(msgs, opts.System)
	if len(turns) == 0 {
		return "", errs.NewInvalidInput(op, "no valid messages")
	}
	reqBody := ollamaChatRequest{
		Model:    c.model,
		Messages: turns,
		Stream:   false,
		Options: ollamaOptions{
			Temperature: opts.temperature(),
			NumPredict:  opts.maxTokens(c.maxTokens),
		},
	}
	var resp ollamaChatResponse
	if err := postJSON(ctx, c.httpClient, op, c.host+"/api/chat", nil, reqBody, &resp); err != nil {
		return "", err
	}
	if resp.Error != "" {
		return "", errs.NewProvider(op, http.StatusOK, errors.New(resp.Error))
	}
	if strings.TrimSpace(resp.Message.Content) == "" {
		return "", errs.NewProvider(op, http.StatusOK, errors.New("empty response from ollama"))
	}
	return resp.Message.Content, nil
}

// ListModels returns the model names the server advertises.
func (c *OllamaClient) ListModels(ctx context.Context) ([]string, error) {
	var tags ollamaTagsResponse
	if err := getJSON(ctx, c.httpClient, "ollama.ListModels", c.host+"/api/tags", &tags); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

// IsAvailable queries the server and checks the configured model is pulled,
// matching either the full name or the name without its ":tag".
func (c *OllamaClient) IsAvailable(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, ollamaTagsTimeout)
	defer cancel()
	names, err := c.ListModels(ctx)
	if err != nil {
		return false
	}
	for _, n := range names {
		if n == c.model {
			return true
		}
		if base, _, ok := strings.Cut(n, ":"); ok && base == c.model {
			return true
		}
	}
	return false
}
