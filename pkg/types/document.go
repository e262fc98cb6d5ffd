// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// DocumentType discriminates the platform variants of a ThreadDocument.
type DocumentType string

const (
	DocGitHubIssue      DocumentType = "github_issue"
	DocGitHubPR         DocumentType = "github_pr"
	DocGitHubDiscussion DocumentType = "github_discussion"
	DocRedditPost       DocumentType = "reddit_post"
	DocHNItem           DocumentType = "hn_item"
	DocV2EXTopic        DocumentType = "v2ex_topic"
	DocWebPage          DocumentType = "web_page"
)

// Comment is one entry in a discussion thread. Depth is non-zero only for
// platforms with nested trees (Reddit, Hacker News).
type Comment struct {
	Author    string         `json:"author"`
	Date      string         `json:"date"`
	Body      string         `json:"body"`
	Score     int            `json:"score,omitempty"`
	Depth     int            `json:"depth,omitempty"`
	Reactions map[string]int `json:"reactions,omitempty"`
	Replies   []Comment      `json:"replies,omitempty"`
}

// RefType classifies an extracted cross-reference.
type RefType string

const (
	RefIssue      RefType = "issue"
	RefPR         RefType = "pr"
	RefDiscussion RefType = "discussion"
	RefCommit     RefType = "commit"
	RefDuplicate  RefType = "duplicate"
	RefRelated    RefType = "related"
	RefURL        RefType = "url"

	// Timeline cross-references recovered from the GitHub events API.
	RefCrossIssue RefType = "cross_ref_issue"
	RefCrossPR    RefType = "cross_ref_pr"
)

// Ref is a structured cross-reference found in free text, with a short
// window of surrounding text for context.
type Ref struct {
	Type    RefType `json:"type"`
	URL     string  `json:"url"`
	Context string  `json:"context,omitempty"`
}

// Link is an anchor extracted from a generic web page.
type Link struct {
	URL     string `json:"url"`
	Anchor  string `json:"anchor"`
	Context string `json:"context,omitempty"`
}

// ThreadDocument is the normalized record produced for every fetched URL.
// Fetchers never fail past this type: on partial failure the document is
// still returned with Error describing what went wrong.
type ThreadDocument struct {
	URL      string         `json:"url"`
	Type     DocumentType   `json:"type"`
	Title    string         `json:"title"`
	Body     string         `json:"body"`
	State    string         `json:"state,omitempty"`
	Labels   []string       `json:"labels,omitempty"`
	Comments []Comment      `json:"comments"`
	// CommentTree preserves the nested reply structure where the platform
	// has one; Comments is always the flattened display list.
	CommentTree []Comment      `json:"comments_tree,omitempty"`
	Refs        []Ref          `json:"refs"`
	Links       []Link         `json:"links,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	Error       string         `json:"error,omitempty"`
}
