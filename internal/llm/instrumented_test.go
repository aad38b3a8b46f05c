package llm_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dgallion1/citegest/internal/llm"
	"github.com/dgallion1/citegest/internal/llm/llmtest"
)

func TestWithStats(t *testing.T) {
	stats := llm.NewLLMStats(time.Hour)
	fake := llmtest.New("ok")
	p := llm.WithStats(fake, stats)

	if _, err := p.Generate(context.Background(), "q", llm.Options{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fake.Err = errors.New("boom")
	if _, err := p.GenerateWithMessages(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: "q"}}, llm.Options{}); err == nil {
		t.Fatalf("expected error")
	}
	if p.ProviderName() != "fake" {
		t.Errorf("expected embedded provider name, got %q", p.ProviderName())
	}

	snap := stats.Snapshot()
	if snap.Count != 1 || snap.Errors != 1 {
		t.Fatalf("expected 1 success and 1 error, got %+v", snap)
	}
}
