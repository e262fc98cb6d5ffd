// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/pdiddy/chain-tracker/internal/httputil"
	"github.com/pdiddy/chain-tracker/internal/refs"
	"github.com/pdiddy/chain-tracker/pkg/types"
)

var v2exAPIBase = "https://www.v2ex.com/api"

var v2exTopicRe = regexp.MustCompile(`/t/(\d+)`)

type v2exTopic struct {
	ID      int    `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Created int64  `json:"created"`
	Replies int    `json:"replies"`
	Member  struct {
		Username string `json:"username"`
	} `json:"member"`
	Node struct {
		Title string `json:"title"`
	} `json:"node"`
}

type v2exReply struct {
	Content string `json:"content"`
	Created int64  `json:"created"`
	Member  struct {
		Username string `json:"username"`
	} `json:"member"`
}

// fetchV2EX uses the legacy unauthenticated v1 API: one call for the topic,
// one for its flat reply list. A topic failure falls back to the generic
// web fetcher; a reply failure keeps the topic and notes the error.
func (c *Client) fetchV2EX(ctx context.Context, rawURL string) *types.ThreadDocument {
	doc := newDocument(rawURL, types.DocV2EXTopic)

	m := v2exTopicRe.FindStringSubmatch(rawURL)
	if m == nil {
		return c.webFallback(ctx, doc, "V2EX API failed: no topic id in URL")
	}
	topicID := m[1]

	headers := map[string]string{"User-Agent": c.cfg.UserAgent}

	var topics []v2exTopic
	err := httputil.GetJSON(ctx, c.http, v2exAPIBase+"/topics/show.json?id="+topicID, headers, &topics)
	if err != nil || len(topics) == 0 {
		if err == nil {
			err = fmt.Errorf("empty topic list")
		}
		return c.webFallback(ctx, doc, fmt.Sprintf("V2EX API failed: %v", err))
	}
	topic := topics[0]

	doc.Title = topic.Title
	doc.Body = topic.Content
	doc.Metadata = map[string]any{
		"author":        topic.Member.Username,
		"created":       topic.Created,
		"comment_count": topic.Replies,
		"node":          topic.Node.Title,
	}

	var replies []v2exReply
	if err := httputil.GetJSON(ctx, c.http, v2exAPIBase+"/replies/show.json?topic_id="+topicID, headers, &replies); err != nil {
		doc.Error = fmt.Sprintf("V2EX replies failed: %v", err)
	}
	if len(replies) > c.cfg.MaxComments {
		replies = replies[:c.cfg.MaxComments]
	}
	for _, r := range replies {
		doc.Comments = append(doc.Comments, types.Comment{
			Author: r.Member.Username,
			Date:   fmt.Sprintf("%d", r.Created),
			Body:   r.Content,
		})
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
