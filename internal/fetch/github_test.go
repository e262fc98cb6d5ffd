// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/chain-tracker/pkg/types"
)

// newGitHubTestClient points the GitHub API at an httptest server.
func newGitHubTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := New(types.FetchConfig{}, io.Discard)
	base, err := url.Parse(srv.URL + "/")
	require.NoError(t, err)
	c.github.gh.BaseURL = base
	return c
}

func TestFetchGitHubIssue(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/golang/go/issues/42", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"number": 42,
			"title": "Crash on start",
			"body": "Duplicate of #7. Details at https://example.com/report",
			"state": "open",
			"user": {"login": "alice"},
			"labels": [{"name": "bug"}],
			"comments": 1,
			"created_at": "2024-01-02T03:04:05Z",
			"reactions": {"+1": 3, "heart": 0}
		}`))
	})
	mux.HandleFunc("/repos/golang/go/issues/42/comments", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{
			"user": {"login": "bob"},
			"body": "fixed by 0123456789abcdef0123456789abcdef01234567",
			"created_at": "2024-01-03T00:00:00Z"
		}]`))
	})
	mux.HandleFunc("/repos/golang/go/issues/42/timeline", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"event": "cross-referenced", "source": {"issue": {
				"number": 99,
				"title": "Related work",
				"repository": {"full_name": "golang/tools"}
			}}},
			{"event": "referenced", "commit_id": "aaaabbbbccccddddeeeeffff0000111122223333"},
			{"event": "labeled"}
		]`))
	})

	c := newGitHubTestClient(t, mux)
	doc, err := c.Fetch(context.Background(), "https://github.com/golang/go/issues/42")
	require.NoError(t, err)

	assert.Equal(t, types.DocGitHubIssue, doc.Type)
	assert.Equal(t, "Crash on start", doc.Title)
	assert.Equal(t, "open", doc.State)
	assert.Equal(t, []string{"bug"}, doc.Labels)
	assert.Equal(t, "alice", doc.Metadata["author"])
	assert.Equal(t, "2024-01-02T03:04:05Z", doc.Metadata["created"])
	assert.Equal(t, map[string]int{"+1": 3}, doc.Metadata["reactions"])
	assert.Empty(t, doc.Error)

	require.Len(t, doc.Comments, 1)
	assert.Equal(t, "bob", doc.Comments[0].Author)

	byURL := make(map[string]types.RefType)
	for _, ref := range doc.Refs {
		byURL[ref.URL] = ref.Type
	}
	assert.Equal(t, types.RefDuplicate, byURL["https://github.com/golang/go/issues/7"])
	assert.Equal(t, types.RefURL, byURL["https://example.com/report"])
	assert.Equal(t, types.RefCommit, byURL["https://github.com/golang/go/commit/0123456789abcdef0123456789abcdef01234567"])
	assert.Equal(t, types.RefCrossIssue, byURL["https://github.com/golang/tools/issues/99"])
	assert.Equal(t, types.RefCommit, byURL["https://github.com/golang/go/commit/aaaabbbbccccddddeeeeffff0000111122223333"])
}

func TestFetchGitHubPullRequest(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/golang/go/issues/7", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"number": 7,
			"title": "Fix crash",
			"body": "Patch for the startup crash.",
			"state": "closed",
			"user": {"login": "carol"},
			"pull_request": {"url": "https://api.github.com/repos/golang/go/pulls/7"}
		}`))
	})
	mux.HandleFunc("/repos/golang/go/pulls/7", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"number": 7, "merged": true}`))
	})
	mux.HandleFunc("/repos/golang/go/issues/7/comments", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})
	mux.HandleFunc("/repos/golang/go/pulls/7/reviews", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"user": {"login": "dave"}, "state": "APPROVED", "body": "LGTM",
			 "submitted_at": "2024-01-04T00:00:00Z"},
			{"user": {"login": "erin"}, "state": "COMMENTED", "body": ""}
		]`))
	})
	mux.HandleFunc("/repos/golang/go/issues/7/timeline", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})

	c := newGitHubTestClient(t, mux)
	doc, err := c.Fetch(context.Background(), "https://github.com/golang/go/pull/7")
	require.NoError(t, err)

	assert.Equal(t, types.DocGitHubPR, doc.Type)
	assert.Equal(t, "https://github.com/golang/go/pull/7", doc.URL)
	assert.Equal(t, "merged", doc.State)

	// Empty-bodied reviews are skipped; the rest carry the review state.
	require.Len(t, doc.Comments, 1)
	assert.Equal(t, "dave", doc.Comments[0].Author)
	assert.Equal(t, "[Review: APPROVED] LGTM", doc.Comments[0].Body)
}

func TestFetchGitHubIssueAPIError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/golang/go/issues/1", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message": "Not Found"}`))
	})

	c := newGitHubTestClient(t, mux)
	doc, err := c.Fetch(context.Background(), "https://github.com/golang/go/issues/1")
	require.NoError(t, err)

	assert.Equal(t, types.DocGitHubIssue, doc.Type)
	assert.Contains(t, doc.Error, "fetching issue")
	assert.Empty(t, doc.Comments)
}

func TestFetchEmptyURL(t *testing.T) {
	c := New(types.FetchConfig{}, io.Discard)
	_, err := c.Fetch(context.Background(), "  ")
	require.Error(t, err)
}
