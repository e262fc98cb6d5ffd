// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm calls an OpenAI-compatible chat-completions service. The
// service is treated as an opaque text-in/text-out capability: it may be
// slow, rate-limited, or answer with an SSE stream even though streaming is
// not requested, so both response shapes are handled.
package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pdiddy/chain-tracker/pkg/types"
)

// Caller is the minimal reasoning-service capability the gate and the
// summarizer depend on. Tests supply a stub.
type Caller interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Client calls the chat-completions endpoint of an OpenAI-compatible API.
type Client struct {
	cfg    types.LLMConfig
	client *http.Client
}

// NewClient builds a Client from cfg. Missing BaseURL or APIKey is reported
// here so callers can fail at startup rather than mid-crawl.
func NewClient(cfg types.LLMConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("LLM base URL not configured")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("LLM API key not configured")
	}
	if cfg.Model == "" {
		cfg.Model = types.DefaultLLMConfig().Model
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = types.DefaultLLMConfig().MaxTokens
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}, nil
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	Stream      bool          `json:"stream"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// Complete sends one user message and returns the response text. The request
// asks for a non-streaming response at low temperature; if the server
// streams anyway the SSE fragments are reassembled.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	reqBody := chatRequest{
		Model:       c.cfg.Model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: 0.1,
		MaxTokens:   c.cfg.MaxTokens,
		Stream:      false,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling LLM API: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading LLM response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("LLM API returned %d: %s", resp.StatusCode, truncate(string(raw), 200))
	}

	if bytes.HasPrefix(bytes.TrimSpace(raw), []byte("data:")) {
		return assembleSSE(raw), nil
	}

	var cr chatResponse
	if err := json.Unmarshal(raw, &cr); err != nil {
		return "", fmt.Errorf("parsing LLM response: %w", err)
	}
	if len(cr.Choices) == 0 {
		return "", fmt.Errorf("LLM response has no choices")
	}
	return cr.Choices[0].Message.Content, nil
}

// assembleSSE concatenates delta.content fragments from an SSE body,
// stopping at the [DONE] marker. Malformed chunks are skipped.
func assembleSSE(raw []byte) string {
	var b strings.Builder
	scanner := bufio.NewScanner(bytes.NewReader(raw))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		chunk := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if chunk == "[DONE]" {
			break
		}
		var sc streamChunk
		if err := json.Unmarshal([]byte(chunk), &sc); err != nil {
			continue
		}
		if len(sc.Choices) > 0 {
			b.WriteString(sc.Choices[0].Delta.Content)
		}
	}
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
