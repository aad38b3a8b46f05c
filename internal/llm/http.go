package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/dgallion1/citegest/internal/errs"
)

// postJSON sends body to url and decodes a 2xx response into out. Any
// transport or status failure comes back as an errs.KindProvider error;
// 429 and 5xx are retryable.
func postJSON(ctx context.Context, client *http.Client, op, url string, headers map[string]string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return do(client, req, op, out)
}

func getJSON(ctx context.Context, client *http.Client, op, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return do(client, req, op, out)
}

func do(client *http.Client, req *http.Request, op string, out any) error {
	resp, err := client.Do(req)
	if err != nil {
		return errs.NewProvider(op, 0, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return errs.NewProvider(op, resp.StatusCode, fmt.Errorf("read response: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errs.NewProvider(op, resp.StatusCode,
			fmt.Errorf("status %d: %s", resp.StatusCode, truncate(strings.TrimSpace(string(respBody)), 200)))
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return errs.NewProvider(op, resp.StatusCode, fmt.Errorf("decode response: %w (raw: %s)", err, truncate(string(respBody), 200)))
	}
	return nil
}

var codeBlockRe = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")

// StripCodeBlock removes a Markdown code fence wrapping the whole reply.
func StripCodeBlock(s string) string {
	s = strings.TrimSpace(s)
	if m := codeBlockRe.FindStringSubmatch(s); len(m) > 1 {
		return m[1]
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
