// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package knowledge

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/chain-tracker/pkg/types"
)

const dbFile = "chain-tracker.db"

// Store persists finished crawl runs in a SQLite database with an FTS5
// index over node titles and bodies.
type Store struct {
	db *sql.DB
}

// RunInfo is one row of the run listing.
type RunInfo struct {
	ID           string    `json:"id" yaml:"id"`
	Query        string    `json:"query" yaml:"query"`
	TotalFetched int       `json:"total_fetched" yaml:"total_fetched"`
	CreatedAt    time.Time `json:"created_at" yaml:"created_at"`
}

// NodeHit is one full-text search result across stored runs.
type NodeHit struct {
	RunID string  `json:"run_id" yaml:"run_id"`
	Query string  `json:"query" yaml:"query"`
	URL   string  `json:"url" yaml:"url"`
	Depth int     `json:"depth" yaml:"depth"`
	Title string  `json:"title" yaml:"title"`
	Score float64 `json:"score" yaml:"score"`
}

// NewStore opens or creates the database at cfg.DataDir/chain-tracker.db,
// creating the schema when missing.
func NewStore(cfg types.StoreConfig) (*Store, error) {
	dataDir := cfg.DataDir
	if dataDir == "" {
		dataDir = "data"
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			query TEXT NOT NULL,
			knowledge_state TEXT,
			total_fetched INTEGER,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS nodes (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL REFERENCES runs(id),
			position INTEGER NOT NULL,
			url TEXT NOT NULL,
			depth INTEGER NOT NULL,
			type TEXT,
			title TEXT,
			body TEXT,
			score REAL,
			reason TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_nodes_run_id ON nodes(run_id)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='nodes_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE nodes_fts USING fts5(title, body, content=nodes, content_rowid=rowid)`,
			`CREATE TRIGGER nodes_ai AFTER INSERT ON nodes BEGIN
				INSERT INTO nodes_fts(rowid, title, body) VALUES (new.rowid, new.title, new.body);
			END`,
			`CREATE TRIGGER nodes_ad AFTER DELETE ON nodes BEGIN
				INSERT INTO nodes_fts(nodes_fts, rowid, title, body) VALUES('delete', old.rowid, old.title, old.body);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// SaveRun persists a finished crawl result and returns its generated run ID.
func (s *Store) SaveRun(ctx context.Context, result *types.CrawlResult) (string, error) {
	runID := uuid.NewString()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, query, knowledge_state, total_fetched, created_at) VALUES (?, ?, ?, ?, ?)`,
		runID, result.Query, result.KnowledgeState, result.TotalFetched,
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return "", fmt.Errorf("inserting run: %w", err)
	}

	for i, n := range result.Nodes {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO nodes (run_id, position, url, depth, type, title, body, score, reason)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, i, n.URL, n.Depth, string(n.Type), n.Title, n.Body, n.Score, n.Reason)
		if err != nil {
			return "", fmt.Errorf("inserting node %s: %w", n.URL, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing run: %w", err)
	}
	return runID, nil
}

// ListRuns returns stored runs, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]RunInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, query, total_fetched, created_at FROM runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var out []RunInfo
	for rows.Next() {
		var r RunInfo
		var created string
		if err := rows.Scan(&r.ID, &r.Query, &r.TotalFetched, &created); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		if t, perr := time.Parse(time.RFC3339, created); perr == nil {
			r.CreatedAt = t
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetRun reloads one stored run, nodes in visitation order.
func (s *Store) GetRun(ctx context.Context, runID string) (*types.CrawlResult, error) {
	result := &types.CrawlResult{}
	err := s.db.QueryRowContext(ctx,
		`SELECT query, knowledge_state, total_fetched FROM runs WHERE id = ?`, runID).
		Scan(&result.Query, &result.KnowledgeState, &result.TotalFetched)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %s not found", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("loading run: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT url, depth, type, title, body, score, reason FROM nodes
		 WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("loading nodes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var n types.Node
		var docType string
		if err := rows.Scan(&n.URL, &n.Depth, &docType, &n.Title, &n.Body, &n.Score, &n.Reason); err != nil {
			return nil, fmt.Errorf("scanning node: %w", err)
		}
		n.Type = types.DocumentType(docType)
		result.Nodes = append(result.Nodes, n)
	}
	return result, rows.Err()
}

// SearchNodes runs an FTS5 query over stored node titles and bodies.
func (s *Store) SearchNodes(ctx context.Context, query string, limit int) ([]NodeHit, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT n.run_id, r.query, n.url, n.depth, n.title, n.score
		 FROM nodes_fts f
		 JOIN nodes n ON n.rowid = f.rowid
		 JOIN runs r ON r.id = n.run_id
		 WHERE nodes_fts MATCH ?
		 ORDER BY rank LIMIT ?`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("searching nodes: %w", err)
	}
	defer rows.Close()

	var out []NodeHit
	for rows.Next() {
		var h NodeHit
		if err := rows.Scan(&h.RunID, &h.Query, &h.URL, &h.Depth, &h.Title, &h.Score); err != nil {
			return nil, fmt.Errorf("scanning hit: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// ExportRun writes one stored run as YAML.
func (s *Store) ExportRun(ctx context.Context, runID string, w io.Writer) error {
	result, err := s.GetRun(ctx, runID)
	if err != nil {
		return err
	}

	enc := yaml.NewEncoder(w)
	defer enc.Close()
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("encoding run %s: %w", runID, err)
	}
	return nil
}
