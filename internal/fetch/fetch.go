// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch normalizes heterogeneous discussion platforms into one
// ThreadDocument shape. Each platform adapter degrades gracefully: a
// network error or malformed response produces a document with the Error
// field set, never a panic or an error escaping to the traversal.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/chain-tracker/internal/platform"
	"github.com/pdiddy/chain-tracker/pkg/types"
)

// Client fetches any supported URL and returns a normalized ThreadDocument.
type Client struct {
	cfg    types.FetchConfig
	http   *http.Client
	github *githubFetcher
	log    io.Writer
}

// New builds a Client. log receives per-fetch progress and degradation
// warnings; pass io.Discard to silence it.
func New(cfg types.FetchConfig, log io.Writer) *Client {
	if cfg.MaxComments <= 0 {
		cfg.MaxComments = types.DefaultFetchConfig().MaxComments
	}
	if cfg.MaxCommentNodes <= 0 {
		cfg.MaxCommentNodes = types.DefaultFetchConfig().MaxCommentNodes
	}
	if cfg.MaxCommentDepth <= 0 {
		cfg.MaxCommentDepth = types.DefaultFetchConfig().MaxCommentDepth
	}
	if cfg.MaxBodyChars <= 0 {
		cfg.MaxBodyChars = types.DefaultFetchConfig().MaxBodyChars
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = types.DefaultFetchConfig().Timeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = types.DefaultFetchConfig().UserAgent
	}
	if log == nil {
		log = io.Discard
	}

	httpClient := &http.Client{Timeout: cfg.Timeout}
	return &Client{
		cfg:    cfg,
		http:   httpClient,
		github: newGitHubFetcher(httpClient, cfg.GitHubToken, cfg.MaxComments, log),
		log:    log,
	}
}

// Fetch routes a URL to the matching platform adapter and returns the
// normalized document. The only error path is a URL the router cannot work
// with at all; every downstream failure is absorbed into the document.
func (c *Client) Fetch(ctx context.Context, rawURL string) (*types.ThreadDocument, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, fmt.Errorf("empty URL")
	}

	switch platform.Detect(rawURL) {
	case platform.GitHub:
		if ref, ok := parseGitHubURL(rawURL); ok {
			switch ref.kind {
			case "issue", "pr":
				return c.github.fetchIssue(ctx, ref.owner, ref.repo, ref.number), nil
			case "discussion":
				// No public REST surface for discussions; scrape the page.
				doc := c.fetchWeb(ctx, rawURL)
				doc.Type = types.DocGitHubDiscussion
				return doc, nil
			}
		}
		return c.fetchWeb(ctx, rawURL), nil
	case platform.Reddit:
		return c.fetchReddit(ctx, rawURL), nil
	case platform.HN:
		return c.fetchHN(ctx, rawURL), nil
	case platform.V2EX:
		return c.fetchV2EX(ctx, rawURL), nil
	default:
		return c.fetchWeb(ctx, rawURL), nil
	}
}

// githubURLRef holds the components of a GitHub issue/PR/discussion URL.
type githubURLRef struct {
	owner  string
	repo   string
	kind   string // issue, pr, discussion
	number int
}

var githubKinds = map[string]string{
	"issues":      "issue",
	"pull":        "pr",
	"discussions": "discussion",
}

// parseGitHubURL splits a github.com URL into owner/repo/kind/number.
// Anything that is not an issue, PR, or discussion URL reports !ok and
// falls through to the generic web fetcher.
func parseGitHubURL(rawURL string) (githubURLRef, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return githubURLRef{}, false
	}
	host := strings.ToLower(u.Hostname())
	if host != "github.com" && host != "www.github.com" {
		return githubURLRef{}, false
	}

	parts := strings.FieldsFunc(u.Path, func(r rune) bool { return r == '/' })
	if len(parts) < 4 {
		return githubURLRef{}, false
	}
	kind, ok := githubKinds[parts[2]]
	if !ok {
		return githubURLRef{}, false
	}
	number, err := strconv.Atoi(parts[3])
	if err != nil {
		return githubURLRef{}, false
	}
	return githubURLRef{owner: parts[0], repo: parts[1], kind: kind, number: number}, true
}

// newDocument returns a ThreadDocument with safe defaults.
func newDocument(rawURL string, docType types.DocumentType) *types.ThreadDocument {
	return &types.ThreadDocument{
		URL:      rawURL,
		Type:     docType,
		Labels:   []string{},
		Comments: []types.Comment{},
		Refs:     []types.Ref{},
		Metadata: map[string]any{},
	}
}

// dedupeRefs removes refs whose canonical URL was already seen, keeping the
// first occurrence.
func dedupeRefs(refs []types.Ref) []types.Ref {
	seen := make(map[string]bool, len(refs))
	out := refs[:0]
	for _, r := range refs {
		canon := types.CanonicalURL(r.URL)
		if seen[canon] {
			continue
		}
		seen[canon] = true
		out = append(out, r)
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
