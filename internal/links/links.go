// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package links parses anchors out of raw HTML, keeping the visible anchor
// text and the enclosing block's text as context for relevance scoring.
package links

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pdiddy/chain-tracker/pkg/types"
)

// Boilerplate regions dropped before anchor collection. goquery removes the
// whole subtree, so nested tags inside these blocks go with them.
const noiseSelector = "nav, footer, header, aside, script, style"

var assetRe = regexp.MustCompile(`(?i)\.(png|jpg|jpeg|gif|svg|ico|webp|css|js)(\?|$)`)

const maxContextChars = 200

// Extract parses raw HTML and returns the page's outbound links in document
// order, deduplicated by canonical URL. Relative hrefs are resolved against
// baseURL. Anchors with short (<2 char) visible text, javascript: targets,
// non-HTTP schemes, or asset extensions are discarded. A parse failure
// yields an empty list, never an error.
func Extract(html, baseURL string) []types.Link {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		base = nil
	}

	doc.Find(noiseSelector).Remove()

	var out []types.Link
	seen := make(map[string]bool)

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href := strings.TrimSpace(sel.AttrOr("href", ""))
		anchor := collapse(sel.Text())

		if href == "" || len(anchor) < 2 {
			return
		}
		if strings.HasPrefix(strings.ToLower(href), "javascript:") {
			return
		}

		resolved := resolve(base, href)
		if resolved == "" || !strings.HasPrefix(resolved, "http") {
			return
		}
		if assetRe.MatchString(resolved) {
			return
		}

		canon := types.CanonicalURL(resolved)
		if seen[canon] {
			return
		}
		seen[canon] = true

		context := collapse(sel.Parent().Text())
		if len(context) > maxContextChars {
			context = context[:maxContextChars]
		}

		out = append(out, types.Link{URL: resolved, Anchor: anchor, Context: context})
	})

	return out
}

// resolve returns href resolved against base, or href itself when no base
// is available.
func resolve(base *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base == nil {
		return ref.String()
	}
	return base.ResolveReference(ref).String()
}

// collapse squashes runs of whitespace into single spaces and trims.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
