// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/pdiddy/chain-tracker/internal/httputil"
	"github.com/pdiddy/chain-tracker/internal/refs"
	"github.com/pdiddy/chain-tracker/pkg/types"
)

var hnAPIBase = "https://hn.algolia.com/api/v1/items/"

var hnIDRe = regexp.MustCompile(`[?&]id=(\d+)`)

type hnItem struct {
	ID        int       `json:"id"`
	Title     string    `json:"title"`
	Text      string    `json:"text"`
	URL       string    `json:"url"`
	Author    string    `json:"author"`
	CreatedAt string    `json:"created_at"`
	Points    int       `json:"points"`
	Type      string    `json:"type"`
	Children  []*hnItem `json:"children"`
}

// fetchHN resolves an item id from the news.ycombinator.com URL and pulls
// the full discussion tree in one call from the Algolia items API. Any
// failure falls back to the generic web fetcher.
func (c *Client) fetchHN(ctx context.Context, rawURL string) *types.ThreadDocument {
	doc := newDocument(rawURL, types.DocHNItem)

	m := hnIDRe.FindStringSubmatch(rawURL)
	if m == nil {
		return c.webFallback(ctx, doc, "HN fetch failed: no item id in URL")
	}

	var item hnItem
	err := httputil.GetJSON(ctx, c.http, hnAPIBase+m[1], map[string]string{
		"User-Agent": c.cfg.UserAgent,
	}, &item)
	if err != nil {
		return c.webFallback(ctx, doc, fmt.Sprintf("HN fetch failed: %v", err))
	}

	doc.Title = item.Title
	doc.Body = stripHTML(item.Text)
	if doc.Body == "" {
		doc.Body = item.URL
	}
	doc.Metadata = map[string]any{
		"author":  item.Author,
		"created": item.CreatedAt,
		"points":  item.Points,
		"type":    item.Type,
	}

	doc.CommentTree = buildHNTree(item.Children, 0)
	doc.Comments = flattenTree(doc.CommentTree, c.cfg.MaxCommentNodes)
	if len(doc.Comments) > hnDisplayComments {
		doc.Comments = doc.Comments[:hnDisplayComments]
	}

	var text strings.Builder
	text.WriteString(doc.Body)
	for _, cm := range doc.Comments {
		text.WriteString(" ")
		text.WriteString(cm.Body)
	}
	doc.Refs = refs.Extract(text.String(), "")

	return doc
}

// hnDisplayComments caps how many flattened comments the document carries.
// The Algolia tree for popular items runs to thousands of nodes.
const hnDisplayComments = 50

// buildHNTree converts Algolia children into Comments. Deleted comments
// come back authorless and are skipped along with their subtrees' place in
// the visible thread.
func buildHNTree(children []*hnItem, depth int) []types.Comment {
	var out []types.Comment
	for _, child := range children {
		if child == nil || child.Author == "" {
			continue
		}
		out = append(out, types.Comment{
			Author:  child.Author,
			Date:    child.CreatedAt,
			Body:    stripHTML(child.Text),
			Score:   child.Points,
			Depth:   depth,
			Replies: buildHNTree(child.Children, depth+1),
		})
	}
	return out
}

// stripHTML reduces an Algolia HTML fragment to its text, with paragraph
// and line breaks preserved as newlines. Entities come back unescaped from
// the tokenizer.
func stripHTML(s string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	tz := html.NewTokenizer(strings.NewReader(s))
	for {
		switch tz.Next() {
		case html.ErrorToken:
			return strings.TrimSpace(b.String())
		case html.TextToken:
			b.Write(tz.Text())
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := tz.TagName()
			switch string(name) {
			case "p", "br":
				b.WriteByte('\n')
			}
		}
	}
}
