// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/go-github/v79/github"

	"github.com/pdiddy/chain-tracker/internal/refs"
	"github.com/pdiddy/chain-tracker/pkg/types"
)

// githubFetcher builds ThreadDocuments from the GitHub REST API. The token
// is optional; anonymous calls work under stricter rate limits.
type githubFetcher struct {
	gh          *github.Client
	maxComments int
	log         io.Writer
}

func newGitHubFetcher(httpClient *http.Client, token string, maxComments int, log io.Writer) *githubFetcher {
	client := github.NewClient(httpClient)
	if token != "" {
		client = client.WithAuthToken(token)
	}
	return &githubFetcher{gh: client, maxComments: maxComments, log: log}
}

// fetchIssue fetches an issue or PR with metadata, all comments (bounded),
// PR reviews, and timeline cross-references. Failures past the primary
// issue call degrade the document instead of aborting it.
func (g *githubFetcher) fetchIssue(ctx context.Context, owner, repo string, number int) *types.ThreadDocument {
	doc := newDocument(fmt.Sprintf("https://github.com/%s/%s/issues/%d", owner, repo, number), types.DocGitHubIssue)
	repoCtx := owner + "/" + repo

	issue, _, err := g.gh.Issues.Get(ctx, owner, repo, number)
	if err != nil {
		doc.Error = fmt.Sprintf("fetching issue: %v", err)
		return doc
	}

	// The issues endpoint returns PRs too.
	isPR := issue.IsPullRequest()
	if isPR {
		doc.Type = types.DocGitHubPR
		doc.URL = fmt.Sprintf("https://github.com/%s/%s/pull/%d", owner, repo, number)
	}

	doc.Title = issue.GetTitle()
	doc.Body = issue.GetBody()
	doc.State = issue.GetState()
	for _, l := range issue.Labels {
		doc.Labels = append(doc.Labels, l.GetName())
	}
	doc.Metadata = map[string]any{
		"author":        issue.GetUser().GetLogin(),
		"created":       formatTimestamp(issue.GetCreatedAt()),
		"updated":       formatTimestamp(issue.GetUpdatedAt()),
		"comment_count": issue.GetComments(),
		"reactions":     reactionCounts(issue.GetReactions()),
	}

	if isPR {
		if pr, _, prErr := g.gh.PullRequests.Get(ctx, owner, repo, number); prErr == nil {
			if pr.GetMerged() {
				doc.State = "merged"
			}
		} else {
			fmt.Fprintf(g.log, "[fetch] pr metadata for %s#%d: %v\n", repoCtx, number, prErr)
		}
	}

	var allText strings.Builder
	allText.WriteString(doc.Body)

	g.appendComments(ctx, owner, repo, number, doc, &allText)
	if isPR {
		g.appendReviews(ctx, owner, repo, number, doc, &allText)
	}

	doc.Refs = refs.Extract(allText.String(), repoCtx)
	g.enrichWithTimeline(ctx, owner, repo, number, repoCtx, doc)
	doc.Refs = dedupeRefs(doc.Refs)

	return doc
}

// appendComments paginates issue comments up to the configured cap. A page
// error stops pagination but keeps the comments gathered so far.
func (g *githubFetcher) appendComments(ctx context.Context, owner, repo string, number int, doc *types.ThreadDocument, allText *strings.Builder) {
	perPage := g.maxComments
	if perPage > 100 {
		perPage = 100
	}
	opts := &github.IssueListCommentsOptions{
		ListOptions: github.ListOptions{Page: 1, PerPage: perPage},
	}

	fetched := 0
	for fetched < g.maxComments {
		comments, resp, err := g.gh.Issues.ListComments(ctx, owner, repo, number, opts)
		if err != nil {
			fmt.Fprintf(g.log, "[fetch] comment page %d for %s/%s#%d: %v\n", opts.Page, owner, repo, number, err)
			break
		}
		for _, c := range comments {
			if fetched >= g.maxComments {
				break
			}
			body := c.GetBody()
			doc.Comments = append(doc.Comments, types.Comment{
				Author:    c.GetUser().GetLogin(),
				Date:      formatTimestamp(c.GetCreatedAt()),
				Body:      body,
				Reactions: reactionCounts(c.GetReactions()),
			})
			allText.WriteString("\n")
			allText.WriteString(body)
			fetched++
		}
		if resp.NextPage == 0 || fetched >= g.maxComments {
			break
		}
		opts.Page = resp.NextPage
	}
}

// appendReviews adds PR review bodies as comments, tagged with the review
// state. Review failures are non-critical.
func (g *githubFetcher) appendReviews(ctx context.Context, owner, repo string, number int, doc *types.ThreadDocument, allText *strings.Builder) {
	reviews, _, err := g.gh.PullRequests.ListReviews(ctx, owner, repo, number, &github.ListOptions{PerPage: 50})
	if err != nil {
		fmt.Fprintf(g.log, "[fetch] reviews for %s/%s#%d: %v\n", owner, repo, number, err)
		return
	}
	for _, r := range reviews {
		body := strings.TrimSpace(r.GetBody())
		if body == "" {
			continue
		}
		state := r.GetState()
		if state == "" {
			state = "COMMENTED"
		}
		doc.Comments = append(doc.Comments, types.Comment{
			Author: r.GetUser().GetLogin(),
			Date:   formatTimestamp(r.GetSubmittedAt()),
			Body:   fmt.Sprintf("[Review: %s] %s", state, body),
		})
		allText.WriteString("\n")
		allText.WriteString(body)
	}
}

// enrichWithTimeline pulls issue timeline events to recover cross-repo
// references and connected commits that plain text extraction misses.
func (g *githubFetcher) enrichWithTimeline(ctx context.Context, owner, repo string, number int, repoCtx string, doc *types.ThreadDocument) {
	events, _, err := g.gh.Issues.ListIssueTimeline(ctx, owner, repo, number, &github.ListOptions{PerPage: 100})
	if err != nil {
		return
	}

	for _, event := range events {
		switch event.GetEvent() {
		case "cross-referenced":
			source := event.GetSource().GetIssue()
			if source == nil || source.GetNumber() == 0 {
				continue
			}
			srcRepo := source.GetRepository().GetFullName()
			if srcRepo == "" {
				srcRepo = repoCtx
			}
			refType := types.RefCrossIssue
			segment := "issues"
			if source.IsPullRequest() {
				refType = types.RefCrossPR
				segment = "pull"
			}
			doc.Refs = append(doc.Refs, types.Ref{
				Type:    refType,
				URL:     fmt.Sprintf("https://github.com/%s/%s/%d", srcRepo, segment, source.GetNumber()),
				Context: fmt.Sprintf("Referenced by %s#%d: %s", srcRepo, source.GetNumber(), source.GetTitle()),
			})

		case "referenced", "connected":
			commit := event.GetCommitID()
			if commit == "" {
				continue
			}
			doc.Refs = append(doc.Refs, types.Ref{
				Type:    types.RefCommit,
				URL:     fmt.Sprintf("https://github.com/%s/commit/%s", repoCtx, commit),
				Context: fmt.Sprintf("Referenced in commit %s", truncate(commit, 7)),
			})
		}
	}
}

// reactionCounts keeps only the non-zero reaction tallies.
func reactionCounts(r *github.Reactions) map[string]int {
	if r == nil {
		return nil
	}
	counts := map[string]int{
		"+1":       r.GetPlusOne(),
		"-1":       r.GetMinusOne(),
		"laugh":    r.GetLaugh(),
		"hooray":   r.GetHooray(),
		"confused": r.GetConfused(),
		"heart":    r.GetHeart(),
		"rocket":   r.GetRocket(),
		"eyes":     r.GetEyes(),
	}
	out := make(map[string]int)
	for k, v := range counts {
		if v > 0 {
			out[k] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func formatTimestamp(ts github.Timestamp) string {
	if ts.IsZero() {
		return ""
	}
	return ts.UTC().Format(time.RFC3339)
}
