// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package crawl runs the discussion-chain traversal: breadth-first from the
// seed URLs, expanding each visited document's references and links through
// the relevance gate, folding every visited node into a running knowledge
// summary.
package crawl

import (
	"context"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/chain-tracker/internal/gate"
	"github.com/pdiddy/chain-tracker/internal/knowledge"
	"github.com/pdiddy/chain-tracker/internal/llm"
	"github.com/pdiddy/chain-tracker/pkg/types"
)

// Fetcher resolves a URL into a normalized document. *fetch.Client is the
// production implementation.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*types.ThreadDocument, error)
}

// Tracker is the crawl orchestrator. One Tracker may run multiple crawls;
// all per-run state lives inside Track.
type Tracker struct {
	cfg        types.CrawlConfig
	fetcher    Fetcher
	gate       *gate.Gate
	summarizer *knowledge.Summarizer
	log        io.Writer
}

// New builds a Tracker. Zero or negative config fields fall back to the
// defaults, except MaxDepth where 0 is meaningful: fetch the seeds and stop.
func New(cfg types.CrawlConfig, fetcher Fetcher, caller llm.Caller, log io.Writer) *Tracker {
	def := types.DefaultCrawlConfig()
	if cfg.MaxDepth < 0 {
		cfg.MaxDepth = def.MaxDepth
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = def.Threshold
	}
	if cfg.MaxPerLevel <= 0 {
		cfg.MaxPerLevel = def.MaxPerLevel
	}
	if cfg.MaxCandidates <= 0 {
		cfg.MaxCandidates = def.MaxCandidates
	}
	if cfg.NodeBodyChars <= 0 {
		cfg.NodeBodyChars = def.NodeBodyChars
	}
	if cfg.NodeComments <= 0 {
		cfg.NodeComments = def.NodeComments
	}
	if cfg.FetchWorkers <= 0 {
		cfg.FetchWorkers = def.FetchWorkers
	}
	if log == nil {
		log = io.Discard
	}

	return &Tracker{
		cfg:        cfg,
		fetcher:    fetcher,
		gate:       &gate.Gate{LLM: caller, Threshold: cfg.Threshold, Log: log},
		summarizer: &knowledge.Summarizer{LLM: caller},
		log:        log,
	}
}

// entry is one pending URL in the traversal queue.
type entry struct {
	url    string
	depth  int
	score  float64
	reason string
}

// Track crawls outward from seeds until the queue drains or every branch
// reaches MaxDepth. Each visited URL becomes exactly one node in the result,
// in visit order; a URL reachable through several paths is visited only
// once, at the shallowest depth it was discovered. A cancelled context
// returns the partial result alongside ctx.Err().
func (t *Tracker) Track(ctx context.Context, query string, seeds []string) (*types.CrawlResult, error) {
	result := &types.CrawlResult{Query: query, Nodes: []types.Node{}}

	visited := make(map[string]bool)
	var queue []entry
	for _, s := range seeds {
		queue = append(queue, entry{url: s, depth: 0, score: 1.0, reason: "seed"})
	}

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			result.TotalFetched = len(result.Nodes)
			return result, err
		}

		batch := t.nextBatch(&queue, visited)
		if len(batch) == 0 {
			continue
		}
		docs := t.fetchBatch(ctx, batch)

		for i, e := range batch {
			doc := docs[i]
			if doc == nil {
				continue
			}
			node := t.buildNode(e, doc)
			result.Nodes = append(result.Nodes, node)

			if node.Title != "" || node.Body != "" {
				result.KnowledgeState = t.summarizer.Update(ctx, result.KnowledgeState, node)
			}

			if e.depth >= t.cfg.MaxDepth {
				continue
			}

			candidates := t.candidatesFrom(doc, visited)
			if len(candidates) == 0 {
				continue
			}
			scored := t.gate.Score(ctx, query, result.KnowledgeState, candidates)
			if len(scored) > t.cfg.MaxPerLevel {
				scored = scored[:t.cfg.MaxPerLevel]
			}
			for _, sc := range scored {
				fmt.Fprintf(t.log, "[crawl] follow %.2f %s (%s)\n", sc.Score, sc.URL, sc.Reason)
				queue = append(queue, entry{
					url:    sc.URL,
					depth:  e.depth + 1,
					score:  sc.Score,
					reason: sc.Reason,
				})
			}
		}
	}

	result.TotalFetched = len(result.Nodes)
	return result, nil
}

// nextBatch pops up to FetchWorkers consecutive same-depth entries, marking
// them visited. Entries whose canonical URL was already visited are dropped
// here, which keeps the first (shallowest) discovery.
func (t *Tracker) nextBatch(queue *[]entry, visited map[string]bool) []entry {
	var batch []entry
	for len(*queue) > 0 && len(batch) < t.cfg.FetchWorkers {
		e := (*queue)[0]
		if len(batch) > 0 && e.depth != batch[0].depth {
			break
		}
		*queue = (*queue)[1:]

		canon := types.CanonicalURL(e.url)
		if visited[canon] {
			continue
		}
		visited[canon] = true
		batch = append(batch, e)
	}
	return batch
}

// fetchBatch fetches the batch, concurrently when more than one worker is
// configured. Results line up index-for-index with the batch so downstream
// processing stays in queue order.
func (t *Tracker) fetchBatch(ctx context.Context, batch []entry) []*types.ThreadDocument {
	docs := make([]*types.ThreadDocument, len(batch))

	if t.cfg.FetchWorkers <= 1 || len(batch) == 1 {
		for i, e := range batch {
			docs[i] = t.fetchOne(ctx, e)
		}
		return docs
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.cfg.FetchWorkers)
	for i, e := range batch {
		i, e := i, e
		g.Go(func() error {
			docs[i] = t.fetchOne(gctx, e)
			return nil
		})
	}
	g.Wait()
	return docs
}

// fetchOne returns nil on a hard fetch error; that entry is dropped from the
// crawl entirely. Degraded fetches come back as documents with Error set and
// are still recorded.
func (t *Tracker) fetchOne(ctx context.Context, e entry) *types.ThreadDocument {
	fmt.Fprintf(t.log, "[crawl] depth=%d fetch %s\n", e.depth, e.url)
	doc, err := t.fetcher.Fetch(ctx, e.url)
	if err != nil {
		fmt.Fprintf(t.log, "[crawl] dropping %s: %v\n", e.url, err)
		return nil
	}
	return doc
}

// buildNode trims a fetched document down to the bounded record kept in the
// crawl result.
func (t *Tracker) buildNode(e entry, doc *types.ThreadDocument) types.Node {
	comments := doc.Comments
	if len(comments) > t.cfg.NodeComments {
		comments = comments[:t.cfg.NodeComments]
	}
	body := doc.Body
	if len(body) > t.cfg.NodeBodyChars {
		body = body[:t.cfg.NodeBodyChars]
	}
	return types.Node{
		URL:      e.url,
		Depth:    e.depth,
		Type:     doc.Type,
		Title:    doc.Title,
		Body:     body,
		Comments: comments,
		Score:    e.score,
		Reason:   e.reason,
		Error:    doc.Error,
	}
}

// candidatesFrom merges a document's structured refs (first) and page links
// (second) into the gate's candidate list, skipping already-visited URLs and
// capping at MaxCandidates. Refs carry their type tag as the anchor so the
// gate sees what kind of reference it is judging.
func (t *Tracker) candidatesFrom(doc *types.ThreadDocument, visited map[string]bool) []types.Candidate {
	seen := make(map[string]bool)
	var out []types.Candidate

	add := func(u, anchor, context string) {
		if len(out) >= t.cfg.MaxCandidates || u == "" {
			return
		}
		canon := types.CanonicalURL(u)
		if visited[canon] || seen[canon] {
			return
		}
		seen[canon] = true
		out = append(out, types.Candidate{URL: u, Anchor: anchor, Context: context})
	}

	for _, r := range doc.Refs {
		add(r.URL, string(r.Type), r.Context)
	}
	for _, l := range doc.Links {
		add(l.URL, l.Anchor, l.Context)
	}
	return out
}
