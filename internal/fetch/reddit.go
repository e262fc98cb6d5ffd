// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/pdiddy/chain-tracker/internal/httputil"
	"github.com/pdiddy/chain-tracker/internal/refs"
	"github.com/pdiddy/chain-tracker/pkg/types"
)

// redditBase is the read-only listing host. Declared as a var so tests can
// substitute an httptest server.
var redditBase = "https://www.reddit.com"

type redditListing struct {
	Data struct {
		Children []redditThing `json:"children"`
	} `json:"data"`
}

type redditThing struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

type redditPost struct {
	Title         string  `json:"title"`
	Selftext      string  `json:"selftext"`
	URL           string  `json:"url"`
	Author        string  `json:"author"`
	CreatedUTC    float64 `json:"created_utc"`
	Score         int     `json:"score"`
	UpvoteRatio   float64 `json:"upvote_ratio"`
	NumComments   int     `json:"num_comments"`
	Subreddit     string  `json:"subreddit"`
	LinkFlairText string  `json:"link_flair_text"`
}

type redditComment struct {
	Author     string          `json:"author"`
	Body       string          `json:"body"`
	CreatedUTC float64         `json:"created_utc"`
	Score      int             `json:"score"`
	Replies    json.RawMessage `json:"replies"`
}

// fetchReddit fetches a post plus its nested comment tree via the public
// .json listing endpoint (no auth). The tree is bounded by MaxCommentDepth
// while parsing and MaxCommentNodes while flattening. Any failure falls
// back to the generic web fetcher.
func (c *Client) fetchReddit(ctx context.Context, rawURL string) *types.ThreadDocument {
	doc := newDocument(rawURL, types.DocRedditPost)

	u, err := url.Parse(rawURL)
	if err != nil {
		doc.Error = fmt.Sprintf("parsing Reddit URL: %v", err)
		return doc
	}
	jsonURL := redditBase + strings.TrimRight(u.Path, "/") + ".json?limit=500&depth=4"

	var listings []redditListing
	err = httputil.GetJSON(ctx, c.http, jsonURL, map[string]string{
		"User-Agent": c.cfg.UserAgent,
		"Accept":     "application/json",
	}, &listings)
	if err != nil {
		return c.webFallback(ctx, doc, fmt.Sprintf("Reddit API failed: %v", err))
	}
	if len(listings) < 1 || len(listings[0].Data.Children) < 1 {
		return c.webFallback(ctx, doc, "Reddit API failed: unexpected JSON structure")
	}

	var post redditPost
	if err := json.Unmarshal(listings[0].Data.Children[0].Data, &post); err != nil {
		return c.webFallback(ctx, doc, fmt.Sprintf("Reddit API failed: %v", err))
	}

	doc.Title = post.Title
	doc.Body = post.Selftext
	if doc.Body == "" {
		doc.Body = post.URL
	}
	doc.Metadata = map[string]any{
		"author":        post.Author,
		"created":       post.CreatedUTC,
		"score":         post.Score,
		"upvote_ratio":  post.UpvoteRatio,
		"comment_count": post.NumComments,
		"subreddit":     post.Subreddit,
		"flair":         post.LinkFlairText,
	}

	if len(listings) > 1 {
		doc.CommentTree = c.parseRedditTree(listings[1].Data.Children, 0)
	}
	doc.Comments = flattenTree(doc.CommentTree, c.cfg.MaxCommentNodes)

	var text strings.Builder
	text.WriteString(doc.Body)
	for _, cm := range doc.Comments {
		text.WriteString(" ")
		text.WriteString(cm.Body)
	}
	doc.Refs = refs.Extract(text.String(), "")

	return doc
}

// parseRedditTree converts t1 things into Comments, recursing into replies
// until the configured nesting depth.
func (c *Client) parseRedditTree(things []redditThing, depth int) []types.Comment {
	var out []types.Comment
	for _, thing := range things {
		if thing.Kind != "t1" {
			continue
		}
		var rc redditComment
		if err := json.Unmarshal(thing.Data, &rc); err != nil {
			continue
		}
		comment := types.Comment{
			Author: rc.Author,
			Date:   fmt.Sprintf("%.0f", rc.CreatedUTC),
			Body:   rc.Body,
			Score:  rc.Score,
			Depth:  depth,
		}
		// Replies is either a nested listing or an empty string.
		if depth < c.cfg.MaxCommentDepth && len(rc.Replies) > 0 && rc.Replies[0] == '{' {
			var nested redditListing
			if err := json.Unmarshal(rc.Replies, &nested); err == nil {
				comment.Replies = c.parseRedditTree(nested.Data.Children, depth+1)
			}
		}
		out = append(out, comment)
	}
	return out
}

// flattenTree walks a comment tree depth-first and returns at most maxNodes
// entries, preserving each comment's nesting depth but dropping the Replies
// pointers on the flattened copies.
func flattenTree(tree []types.Comment, maxNodes int) []types.Comment {
	var flat []types.Comment
	var walk func(nodes []types.Comment)
	walk = func(nodes []types.Comment) {
		for _, n := range nodes {
			if len(flat) >= maxNodes {
				return
			}
			copied := n
			copied.Replies = nil
			flat = append(flat, copied)
			walk(n.Replies)
		}
	}
	walk(tree)
	if flat == nil {
		flat = []types.Comment{}
	}
	return flat
}

// webFallback routes a failed platform fetch through the generic web
// fetcher, keeping whatever the page yields plus the original error note.
func (c *Client) webFallback(ctx context.Context, doc *types.ThreadDocument, note string) *types.ThreadDocument {
	fmt.Fprintf(c.log, "[fetch] %s, falling back to web fetch: %s\n", note, doc.URL)

	fallback := c.fetchWeb(ctx, doc.URL)
	if doc.Title == "" {
		doc.Title = fallback.Title
	}
	doc.Body = fallback.Body
	doc.Links = fallback.Links
	doc.Refs = fallback.Refs
	doc.Error = note + ", falling back to web fetch"
	return doc
}
