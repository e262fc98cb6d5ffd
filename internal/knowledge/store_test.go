// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package knowledge

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/chain-tracker/pkg/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(types.StoreConfig{DataDir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleResult() *types.CrawlResult {
	return &types.CrawlResult{
		Query:          "rust async runtimes",
		KnowledgeState: "Read two benchmark threads.",
		TotalFetched:   2,
		Nodes: []types.Node{
			{URL: "https://github.com/a/b/issues/1", Depth: 0, Type: types.DocGitHubIssue,
				Title: "Executor starvation", Body: "tokio task starvation details", Score: 1.0, Reason: "seed"},
			{URL: "https://example.com/bench", Depth: 1, Type: types.DocWebPage,
				Title: "Runtime benchmarks", Body: "async-std comparison numbers", Score: 0.8, Reason: "benchmark data"},
		},
	}
}

func TestSaveAndGetRun(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	runID, err := s.SaveRun(ctx, sampleResult())
	require.NoError(t, err)
	require.NotEmpty(t, runID)

	got, err := s.GetRun(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, "rust async runtimes", got.Query)
	assert.Equal(t, 2, got.TotalFetched)
	require.Len(t, got.Nodes, 2)

	// Nodes come back in visitation order.
	assert.Equal(t, 0, got.Nodes[0].Depth)
	assert.Equal(t, "seed", got.Nodes[0].Reason)
	assert.Equal(t, types.DocWebPage, got.Nodes[1].Type)
}

func TestGetRun_Unknown(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetRun(context.Background(), "no-such-run")
	assert.Error(t, err)
}

func TestListRuns_NewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.SaveRun(ctx, sampleResult())
	require.NoError(t, err)
	second, err := s.SaveRun(ctx, &types.CrawlResult{Query: "later run"})
	require.NoError(t, err)

	runs, err := s.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	ids := []string{runs[0].ID, runs[1].ID}
	assert.Contains(t, ids, first)
	assert.Contains(t, ids, second)
}

func TestSearchNodes(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	runID, err := s.SaveRun(ctx, sampleResult())
	require.NoError(t, err)

	hits, err := s.SearchNodes(ctx, "starvation", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, runID, hits[0].RunID)
	assert.Equal(t, "Executor starvation", hits[0].Title)

	none, err := s.SearchNodes(ctx, "kubernetes", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestExportRun(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	runID, err := s.SaveRun(ctx, sampleResult())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, s.ExportRun(ctx, runID, &buf))
	assert.Contains(t, buf.String(), "rust async runtimes")
	assert.Contains(t, buf.String(), "https://example.com/bench")
}
