// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"github.com/pdiddy/chain-tracker/internal/links"
	"github.com/pdiddy/chain-tracker/internal/refs"
	"github.com/pdiddy/chain-tracker/pkg/types"
)

var (
	scriptStyleRe = regexp.MustCompile(`(?is)<(script|style)[^>]*>.*?</(script|style)>`)
	anyTagRe      = regexp.MustCompile(`<[^>]+>`)
	blankLinesRe  = regexp.MustCompile(`\n{3,}`)
)

// fetchWeb is the generic fallback for any URL without platform handling.
// Links are extracted from the raw HTML before any stripping so navigation
// anchors survive long enough to be filtered deliberately.
func (c *Client) fetchWeb(ctx context.Context, rawURL string) *types.ThreadDocument {
	doc := newDocument(rawURL, types.DocWebPage)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		doc.Error = fmt.Sprintf("building request: %v", err)
		return doc
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := c.http.Do(req)
	if err != nil {
		doc.Error = fmt.Sprintf("fetching page: %v", err)
		return doc
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		doc.Error = fmt.Sprintf("fetching page: HTTP %d", resp.StatusCode)
		return doc
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 5<<20))
	if err != nil {
		doc.Error = fmt.Sprintf("reading page: %v", err)
		return doc
	}
	page := string(raw)

	doc.Links = links.Extract(page, rawURL)
	doc.Title, doc.Body = extractText(page, rawURL)
	doc.Body = truncate(doc.Body, c.cfg.MaxBodyChars)
	doc.Refs = refs.Extract(doc.Body, "")

	return doc
}

// extractText produces a title and readable body from raw HTML. Readability
// is tried first; articles it cannot segment (bare forum pages, JS shells)
// fall through to the full document text, and a regex strip covers HTML
// that goquery cannot parse at all.
func extractText(page, rawURL string) (title, body string) {
	pageURL, _ := url.Parse(rawURL)

	if article, err := readability.FromReader(strings.NewReader(page), pageURL); err == nil {
		title = article.Title
		body = strings.TrimSpace(article.TextContent)
		if len(body) >= 200 {
			return title, collapseBlank(body)
		}
	}

	if gq, err := goquery.NewDocumentFromReader(strings.NewReader(page)); err == nil {
		if title == "" {
			title = strings.TrimSpace(gq.Find("title").First().Text())
		}
		gq.Find("script, style, noscript").Remove()
		if text := strings.TrimSpace(gq.Find("body").Text()); text != "" {
			return title, collapseBlank(text)
		}
	}

	stripped := scriptStyleRe.ReplaceAllString(page, " ")
	stripped = anyTagRe.ReplaceAllString(stripped, " ")
	return title, collapseBlank(strings.TrimSpace(stripped))
}

func collapseBlank(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return blankLinesRe.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
}
