// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package refs extracts structured cross-references from free text.
// It recognizes GitHub issue/PR/discussion mentions across several citation
// conventions (#123, owner/repo#123, GH-123, full URLs, commit SHAs,
// "duplicate of", "fixes"/"closes"/"see also"), plus bare external URLs.
package refs

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/pdiddy/chain-tracker/pkg/types"
)

// Reference patterns. Go's regexp has no lookaround, so the boundary
// assertions from the usual citation grammars are expressed as consumed
// leading groups plus \b. More specific shapes (duplicate, related) are
// scanned before the bare issue shape so that first-occurrence-wins
// deduplication keeps the more specific type.
var (
	duplicateURLRe = regexp.MustCompile(`(?i)(?:duplicate\s+of|duplicates?)\s+(https?://github\.com/([a-zA-Z0-9_.-]+/[a-zA-Z0-9_.-]+)/(issues|pull)/(\d+))`)
	duplicateRe    = regexp.MustCompile(`(?i)(?:duplicate\s+of|duplicates?|dup(?:licate)?(?:\s+of)?)\s+#(\d+)`)
	relatedRe      = regexp.MustCompile(`(?i)(?:see\s+also|related(?:\s+to)?|fixes|closes|resolves|refs?)\s+#(\d+)`)
	githubURLRe    = regexp.MustCompile(`https?://github\.com/([a-zA-Z0-9_.-]+/[a-zA-Z0-9_.-]+)/(issues|pull|discussions)/(\d+)`)
	commitURLRe    = regexp.MustCompile(`https?://github\.com/([a-zA-Z0-9_.-]+/[a-zA-Z0-9_.-]+)/commit/([0-9a-f]{7,40})`)
	issueRefRe     = regexp.MustCompile(`(?m)(?:^|[\s(])([a-zA-Z0-9_.-]+/[a-zA-Z0-9_.-]+)?#(\d+)\b`)
	ghRefRe        = regexp.MustCompile(`(?m)(?:^|[\s(])GH-(\d+)\b`)
	fullSHARe      = regexp.MustCompile(`(?m)(?:^|[\s(])([0-9a-f]{40})\b`)
	externalURLRe  = regexp.MustCompile(`(?m)(?:^|\s)(https?://[^\s<>\[\]()]+)`)

	imageAssetRe = regexp.MustCompile(`(?i)\.(png|jpg|jpeg|gif|svg|ico|webp)(\?|$)`)
)

const contextWindow = 40

// Extract scans text for embedded cross-references and returns them in scan
// order, deduplicated by canonical URL (first occurrence wins). repoContext
// is an "owner/repo" string used to resolve bare #123, GH-123, and bare SHA
// references; without it those shapes are skipped. Extraction never fails:
// unmatched text yields an empty list.
func Extract(text, repoContext string) []types.Ref {
	if text == "" {
		return nil
	}

	var out []types.Ref
	seen := make(map[string]bool)

	add := func(refType types.RefType, refURL, context string) {
		canon := types.CanonicalURL(refURL)
		if seen[canon] {
			return
		}
		seen[canon] = true
		out = append(out, types.Ref{Type: refType, URL: refURL, Context: context})
	}

	issueURL := func(repo, num string) string {
		return fmt.Sprintf("https://github.com/%s/issues/%s", repo, num)
	}

	for _, m := range duplicateURLRe.FindAllStringSubmatchIndex(text, -1) {
		repo := text[m[4]:m[5]]
		kind := text[m[6]:m[7]]
		num := text[m[8]:m[9]]
		add(types.RefDuplicate, fmt.Sprintf("https://github.com/%s/%s/%s", repo, kind, num), window(text, m[0], m[1]))
	}

	for _, m := range duplicateRe.FindAllStringSubmatchIndex(text, -1) {
		if repoContext == "" {
			continue
		}
		add(types.RefDuplicate, issueURL(repoContext, text[m[2]:m[3]]), window(text, m[0], m[1]))
	}

	for _, m := range relatedRe.FindAllStringSubmatchIndex(text, -1) {
		if repoContext == "" {
			continue
		}
		add(types.RefRelated, issueURL(repoContext, text[m[2]:m[3]]), window(text, m[0], m[1]))
	}

	for _, m := range githubURLRe.FindAllStringSubmatchIndex(text, -1) {
		repo := text[m[2]:m[3]]
		kind := text[m[4]:m[5]]
		num := text[m[6]:m[7]]
		refType := map[string]types.RefType{
			"issues":      types.RefIssue,
			"pull":        types.RefPR,
			"discussions": types.RefDiscussion,
		}[kind]
		add(refType, fmt.Sprintf("https://github.com/%s/%s/%s", repo, kind, num), window(text, m[0], m[1]))
	}

	for _, m := range commitURLRe.FindAllStringSubmatchIndex(text, -1) {
		repo := text[m[2]:m[3]]
		sha := text[m[4]:m[5]]
		add(types.RefCommit, fmt.Sprintf("https://github.com/%s/commit/%s", repo, sha), window(text, m[0], m[1]))
	}

	for _, m := range issueRefRe.FindAllStringSubmatchIndex(text, -1) {
		repo := repoContext
		if m[2] >= 0 {
			repo = text[m[2]:m[3]]
		}
		if repo == "" {
			continue
		}
		add(types.RefIssue, issueURL(repo, text[m[4]:m[5]]), window(text, m[0], m[1]))
	}

	for _, m := range ghRefRe.FindAllStringSubmatchIndex(text, -1) {
		if repoContext == "" {
			continue
		}
		add(types.RefIssue, issueURL(repoContext, text[m[2]:m[3]]), window(text, m[0], m[1]))
	}

	for _, m := range fullSHARe.FindAllStringSubmatchIndex(text, -1) {
		if repoContext == "" {
			continue
		}
		sha := text[m[2]:m[3]]
		add(types.RefCommit, fmt.Sprintf("https://github.com/%s/commit/%s", repoContext, sha), window(text, m[0], m[1]))
	}

	for _, m := range externalURLRe.FindAllStringSubmatchIndex(text, -1) {
		raw := strings.TrimRight(text[m[2]:m[3]], `.,;:!?'"`)
		if isGitHubHost(raw) || imageAssetRe.MatchString(raw) {
			continue
		}
		add(types.RefURL, raw, window(text, m[0], m[1]))
	}

	return out
}

// window returns a whitespace-collapsed snippet of up to contextWindow chars
// on either side of the match boundaries.
func window(text string, start, end int) string {
	lo := start - contextWindow
	if lo < 0 {
		lo = 0
	}
	hi := end + contextWindow
	if hi > len(text) {
		hi = len(text)
	}
	return strings.Join(strings.Fields(text[lo:hi]), " ")
}

// isGitHubHost reports whether raw parses to a github.com URL.
func isGitHubHost(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	return host == "github.com" || host == "www.github.com"
}
