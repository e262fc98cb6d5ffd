// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "strings"

// Candidate is a not-yet-visited link discovered inside a ThreadDocument.
// Candidates merged from refs carry the ref's type tag as their anchor.
type Candidate struct {
	URL     string `json:"url"`
	Anchor  string `json:"anchor"`
	Context string `json:"context,omitempty"`
}

// ScoredCandidate is a Candidate after the relevance gate has judged it.
type ScoredCandidate struct {
	Candidate
	Score  float64 `json:"score"`
	Reason string  `json:"reason,omitempty"`
}

// Node is one visited URL in a crawl run. Score and Reason explain why the
// node was worth visiting; seeds carry score 1.0 and reason "seed".
type Node struct {
	URL      string       `json:"url"`
	Depth    int          `json:"depth"`
	Type     DocumentType `json:"type"`
	Title    string       `json:"title"`
	Body     string       `json:"body"`
	Comments []Comment    `json:"comments,omitempty"`
	Score    float64      `json:"score"`
	Reason   string       `json:"reason"`
	Error    string       `json:"error,omitempty"`
}

// CrawlResult is the final output of one orchestrator run.
type CrawlResult struct {
	Query          string `json:"query"`
	KnowledgeState string `json:"knowledge_state"`
	Nodes          []Node `json:"nodes"`
	TotalFetched   int    `json:"total_fetched"`
}

// CanonicalURL returns the dedup key for a URL: the URL with any trailing
// slash removed.
func CanonicalURL(u string) string {
	return strings.TrimRight(u, "/")
}
