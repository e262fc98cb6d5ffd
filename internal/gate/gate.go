// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package gate decides which discovered links are worth following. A whole
// candidate batch is scored with one reasoning-service call; when the
// service is down or answers garbage the gate fails open, passing every
// candidate through at a neutral score rather than stalling the crawl.
package gate

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/template"

	"github.com/pdiddy/chain-tracker/internal/llm"
	"github.com/pdiddy/chain-tracker/pkg/types"
)

// neutralScore is assigned to every candidate when the scorer is
// unavailable or unparseable, and to candidates the scorer skipped.
const neutralScore = 0.5

var scoringPromptTmpl = template.Must(template.New("scoring").Parse(`You are a research assistant evaluating whether web links are worth following.

Original query: {{.Query}}

What we already know: {{.Knowledge}}

Candidate links to evaluate:
{{.Candidates}}

For each candidate, score 0.0-1.0 how likely following this link will provide NEW, RELEVANT information to answer the original query.
- Score > 0.7: definitely follow (directly relevant, likely new info)
- Score 0.4-0.7: maybe follow (somewhat relevant or unclear)
- Score < 0.4: skip (irrelevant, duplicate, or noise)

Respond with ONLY a JSON array, no explanation outside JSON:
[
  {"id": 1, "score": 0.9, "reason": "one sentence"},
  {"id": 2, "score": 0.2, "reason": "one sentence"},
  ...
]`))

// Gate scores candidate links against a query and the current knowledge
// summary. Each invocation is independent; the gate keeps no state.
type Gate struct {
	// LLM is the reasoning service. Required.
	LLM llm.Caller

	// Threshold is the minimum score a candidate needs to survive.
	Threshold float64

	// Log receives warnings about degraded scoring. Defaults to io.Discard.
	Log io.Writer
}

type scoreItem struct {
	ID     int     `json:"id"`
	Score  float64 `json:"score"`
	Reason string  `json:"reason"`
}

// Score batch-scores candidates and returns those at or above the
// threshold, sorted descending by score (stable, so ties keep discovery
// order). An empty candidate list returns immediately without a service
// call. Service and parse failures fail open: all candidates come back with
// the neutral score.
func (g *Gate) Score(ctx context.Context, query, knowledge string, candidates []types.Candidate) []types.ScoredCandidate {
	if len(candidates) == 0 {
		return nil
	}

	log := g.Log
	if log == nil {
		log = io.Discard
	}

	prompt, err := buildPrompt(query, knowledge, candidates)
	if err != nil {
		fmt.Fprintf(log, "[gate] prompt build failed: %v, returning all candidates\n", err)
		return passThrough(candidates, "LLM unavailable")
	}

	raw, err := g.LLM.Complete(ctx, prompt)
	if err != nil {
		fmt.Fprintf(log, "[gate] LLM call failed: %v, returning all candidates\n", err)
		return passThrough(candidates, "LLM unavailable")
	}

	var items []scoreItem
	if err := llm.DecodeLenient(raw, &items); err != nil {
		fmt.Fprintf(log, "[gate] failed to parse LLM response: %.200s\n", raw)
		return passThrough(candidates, "parse error")
	}

	// Scores key candidates by 1-based position in the batch.
	byID := make(map[int]scoreItem, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}

	var out []types.ScoredCandidate
	for i, c := range candidates {
		it, ok := byID[i+1]
		score := neutralScore
		reason := ""
		if ok {
			score = it.Score
			reason = it.Reason
		}
		if score >= g.Threshold {
			out = append(out, types.ScoredCandidate{Candidate: c, Score: score, Reason: reason})
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// passThrough implements fail-open: every candidate survives at the neutral
// score, in discovery order.
func passThrough(candidates []types.Candidate, reason string) []types.ScoredCandidate {
	out := make([]types.ScoredCandidate, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, types.ScoredCandidate{Candidate: c, Score: neutralScore, Reason: reason})
	}
	return out
}

// buildPrompt renders the batch scoring prompt with candidates enumerated
// by 1-based position, anchor, and truncated context.
func buildPrompt(query, knowledge string, candidates []types.Candidate) (string, error) {
	var lines []string
	for i, c := range candidates {
		anchor := c.Anchor
		if anchor == "" {
			anchor = truncate(c.Context, 60)
		}
		lines = append(lines, fmt.Sprintf("%d. anchor=%q url=%s\n   context=%q",
			i+1, anchor, c.URL, truncate(c.Context, 150)))
	}

	if knowledge == "" {
		knowledge = "Nothing yet."
	}

	var b strings.Builder
	err := scoringPromptTmpl.Execute(&b, map[string]string{
		"Query":      query,
		"Knowledge":  knowledge,
		"Candidates": strings.Join(lines, "\n"),
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
