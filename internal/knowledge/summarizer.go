// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package knowledge maintains the evolving crawl summary and persists
// finished crawl runs.
package knowledge

import (
	"context"
	"strings"
	"text/template"

	"github.com/pdiddy/chain-tracker/internal/llm"
	"github.com/pdiddy/chain-tracker/pkg/types"
)

var updatePromptTmpl = template.Must(template.New("update").Parse(`Current knowledge state: {{.Prior}}

Just read: "{{.Title}}"
Content summary: {{.Body}}
{{if .Comments}}Key comments: {{.Comments}}{{end}}

Update the knowledge state in 1-2 sentences:
- What new facts were learned?
- What is still unclear or needs more investigation?

Respond with ONLY the updated knowledge state text, no preamble.`))

const (
	summaryBodyChars    = 500
	summaryCommentChars = 100
	summaryComments     = 5
)

// Summarizer folds newly visited nodes into a single running summary.
type Summarizer struct {
	// LLM is the reasoning service. Required.
	LLM llm.Caller
}

// Update returns the summary after reading node. The reasoning service sees
// the prior summary plus excerpts of the node's title, body, and top
// comments. On any service failure the update degrades to deterministic
// concatenation so the crawl never stalls here.
func (s *Summarizer) Update(ctx context.Context, prior string, node types.Node) string {
	prompt, err := buildUpdatePrompt(prior, node)
	if err != nil {
		return fallback(prior, node.Title)
	}

	raw, err := s.LLM.Complete(ctx, prompt)
	if err != nil {
		return fallback(prior, node.Title)
	}

	updated := strings.TrimSpace(raw)
	if updated == "" {
		return fallback(prior, node.Title)
	}
	return updated
}

// fallback is the deterministic degradation path: append the title to
// whatever was known before.
func fallback(prior, title string) string {
	if prior == "" {
		return "Read: " + title + "."
	}
	return prior + " Also read: " + title + "."
}

func buildUpdatePrompt(prior string, node types.Node) (string, error) {
	if prior == "" {
		prior = "Nothing known yet."
	}

	var excerpts []string
	for i, c := range node.Comments {
		if i >= summaryComments {
			break
		}
		excerpts = append(excerpts, truncate(c.Body, summaryCommentChars))
	}

	var b strings.Builder
	err := updatePromptTmpl.Execute(&b, map[string]string{
		"Prior":    prior,
		"Title":    node.Title,
		"Body":     truncate(node.Body, summaryBodyChars),
		"Comments": strings.Join(excerpts, " "),
	})
	if err != nil {
		return "", err
	}
	return b.String(), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
