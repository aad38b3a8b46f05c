// Package llmtest provides a deterministic Provider for tests.
package llmtest

import (
	"context"
	"sync"

	"github.com/dgallion1/citegest/internal/llm"
)

// Call records one generation request.
type Call struct {
	Messages []llm.Message
	Options  llm.Options
}

// Prompt returns the content of the last message.
func (c Call) Prompt() string {
	if len(c.Messages) == 0 {
		return ""
	}
	return c.Messages[len(c.Messages)-1].Content
}

// Fake replies from a script. Responses are consumed in order and the last
// one repeats. Respond, when set, takes precedence.
type Fake struct {
	Name        string
	Model       string
	Unavailable bool
	Responses   []string
	Err         error
	Respond     func(prompt string) (string, error)

	mu    sync.Mutex
	calls []Call
	next  int
}

// New returns an available fake that answers with responses.
func New(responses ...string) *Fake {
	return &Fake{Name: "fake", Model: "fake-1", Responses: responses}
}

func (f *Fake) ProviderName() string { return f.Name }
func (f *Fake) ModelName() string    { return f.Model }

func (f *Fake) IsAvailable(context.Context) bool { return !f.Unavailable }

func (f *Fake) Generate(ctx context.Context, prompt string, opts llm.Options) (string, error) {
	return f.GenerateWithMessages(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, opts)
}

func (f *Fake) GenerateWithMessages(_ context.Context, msgs []llm.Message, opts llm.Options) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	call := Call{Messages: append([]llm.Message(nil), msgs...), Options: opts}
	f.calls = append(f.calls, call)

	if f.Respond != nil {
		return f.Respond(call.Prompt())
	}
	if f.Err != nil {
		return "", f.Err
	}
	if len(f.Responses) == 0 {
		return "", nil
	}
	out := f.Responses[min(f.next, len(f.Responses)-1)]
	f.next++
	return out, nil
}

// Calls returns a copy of the recorded calls.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}
