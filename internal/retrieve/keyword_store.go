// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieve

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/iac-rag/internal/kb"
	"github.com/pdiddy/iac-rag/internal/logx"
	"github.com/pdiddy/iac-rag/pkg/types"
)

// mostCommonLimit is the number of keywords reported by Statistics.
const mostCommonLimit = 10

// KeywordStore is the baseline strategy: a snippet matches when any of its
// keywords occurs as a substring of the prompt (or of previously generated
// code). Snippets are held in an in-memory SQLite database built on first
// use. When the knowledge base file is missing the store serves a single
// built-in example instead of failing.
type KeywordStore struct {
	loader *kb.Loader
	logger *slog.Logger

	mu       sync.Mutex
	db       *sql.DB
	snippets []types.Snippet
}

// NewKeywordStore creates a baseline store that reads its knowledge base
// through loader.
func NewKeywordStore(loader *kb.Loader, logger *slog.Logger) *KeywordStore {
	return &KeywordStore{loader: loader, logger: logx.OrDiscard(logger)}
}

// Name implements Retriever.
func (s *KeywordStore) Name() string { return StrategyKeyword }

// Load reads the knowledge base into the SQLite index and returns the
// number of snippets. Only the first successful call does any work.
func (s *KeywordStore) Load(ctx context.Context) (int, error) {
	_, snippets, err := s.open(ctx)
	if err != nil {
		return 0, err
	}
	return len(snippets), nil
}

// open returns the database and snippets, building them on first use.
func (s *KeywordStore) open(ctx context.Context) (*sql.DB, []types.Snippet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return s.db, s.snippets, nil
	}

	snippets, _, err := s.loader.Load(ctx)
	if errors.Is(err, kb.ErrNotFound) {
		s.logger.Warn("knowledge base not found, using built-in fallback snippet",
			"file", s.loader.Path())
		snippets = kb.FromRecords([]types.Record{kb.FallbackRecord()})
	} else if err != nil {
		return nil, nil, fmt.Errorf("loading keyword store: %w", err)
	}

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}
	// Each connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)

	if err := createSchema(ctx, db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("creating schema: %w", err)
	}
	if err := insertSnippets(ctx, db, snippets); err != nil {
		db.Close()
		return nil, nil, err
	}

	s.logger.Info("loaded keyword store", "snippets", len(snippets))
	s.db = db
	s.snippets = snippets
	return db, snippets, nil
}

func createSchema(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`CREATE TABLE snippets (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			code TEXT NOT NULL,
			original_prompt TEXT NOT NULL
		)`,
		`CREATE TABLE snippet_keywords (
			snippet_id INTEGER NOT NULL REFERENCES snippets(id),
			position INTEGER NOT NULL,
			keyword TEXT NOT NULL,
			PRIMARY KEY (snippet_id, keyword)
		)`,
		`CREATE INDEX idx_snippet_keywords_keyword ON snippet_keywords(keyword)`,
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

func insertSnippets(ctx context.Context, db *sql.DB, snippets []types.Snippet) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	snippetStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO snippets (id, name, code, original_prompt) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing snippet insert: %w", err)
	}
	defer snippetStmt.Close()

	keywordStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO snippet_keywords (snippet_id, position, keyword) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing keyword insert: %w", err)
	}
	defer keywordStmt.Close()

	for _, sn := range snippets {
		if _, err := snippetStmt.ExecContext(ctx, sn.ID, sn.Name, sn.Code, sn.SourcePrompt); err != nil {
			return fmt.Errorf("inserting snippet %d: %w", sn.ID, err)
		}
		for pos, kw := range sn.RawKeywords {
			if _, err := keywordStmt.ExecContext(ctx, sn.ID, pos, kw); err != nil {
				return fmt.Errorf("inserting keyword %q of snippet %d: %w", kw, sn.ID, err)
			}
		}
	}

	return tx.Commit()
}

// Query returns the topK snippets whose keywords occur in the prompt or in
// generatedCode. The score is the fraction of a snippet's keywords that
// matched. With no match at all the first snippet is returned with score 0.
func (s *KeywordStore) Query(ctx context.Context, prompt, generatedCode string, topK int) ([]types.QueryResult, error) {
	db, snippets, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	if len(snippets) == 0 {
		return []types.QueryResult{}, nil
	}

	rows, err := db.QueryContext(ctx,
		`SELECT snippet_id, total, matched FROM (
			SELECT snippet_id,
				COUNT(*) AS total,
				SUM(CASE WHEN instr(?, keyword) > 0 OR instr(?, keyword) > 0 THEN 1 ELSE 0 END) AS matched
			FROM snippet_keywords
			GROUP BY snippet_id
		)
		WHERE matched > 0
		ORDER BY CAST(matched AS REAL) / total DESC, snippet_id
		LIMIT ?`,
		strings.ToLower(prompt), strings.ToLower(generatedCode), clampTopK(topK))
	if err != nil {
		return nil, fmt.Errorf("querying keyword store: %w", err)
	}
	defer rows.Close()

	var results []types.QueryResult
	for rows.Next() {
		var id, total, matched int
		if err := rows.Scan(&id, &total, &matched); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		results = append(results, newKeywordResult(snippets[id], round4(float64(matched)/float64(total))))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading rows: %w", err)
	}

	if len(results) == 0 {
		results = []types.QueryResult{newKeywordResult(snippets[0], 0)}
	}
	return results, nil
}

func newKeywordResult(sn types.Snippet, score float64) types.QueryResult {
	return types.QueryResult{
		SnippetID:     sn.ID,
		Name:          sn.Name,
		Score:         score,
		Keywords:      slices.Clone(sn.RawKeywords),
		ResourceTypes: slices.Clone(sn.ResourceTypes),
		Code:          sn.Code,
		SourcePrompt:  sn.SourcePrompt,
	}
}

// Retrieve implements Retriever.
func (s *KeywordStore) Retrieve(ctx context.Context, req Request) ([]types.QueryResult, error) {
	return s.Query(ctx, req.Prompt, req.GeneratedCode, req.TopK)
}

// Statistics summarizes the loaded knowledge base.
func (s *KeywordStore) Statistics(ctx context.Context) (types.KeywordStats, error) {
	db, _, err := s.open(ctx)
	if err != nil {
		return types.KeywordStats{}, err
	}

	var st types.KeywordStats
	var keywordRows int
	err = db.QueryRowContext(ctx,
		`SELECT (SELECT COUNT(*) FROM snippets),
			(SELECT COUNT(DISTINCT keyword) FROM snippet_keywords),
			(SELECT COUNT(*) FROM snippet_keywords)`,
	).Scan(&st.TotalSnippets, &st.UniqueKeywords, &keywordRows)
	if err != nil {
		return types.KeywordStats{}, fmt.Errorf("counting keywords: %w", err)
	}
	if st.TotalSnippets > 0 {
		st.AvgKeywordsPerSnippet = math.Round(float64(keywordRows)/float64(st.TotalSnippets)*100) / 100
	}

	rows, err := db.QueryContext(ctx,
		`SELECT keyword FROM snippet_keywords
		GROUP BY keyword
		ORDER BY COUNT(*) DESC, keyword
		LIMIT ?`, mostCommonLimit)
	if err != nil {
		return types.KeywordStats{}, fmt.Errorf("querying common keywords: %w", err)
	}
	defer rows.Close()

	st.MostCommonKeywords = []string{}
	for rows.Next() {
		var kw string
		if err := rows.Scan(&kw); err != nil {
			return types.KeywordStats{}, fmt.Errorf("scanning row: %w", err)
		}
		st.MostCommonKeywords = append(st.MostCommonKeywords, kw)
	}
	return st, rows.Err()
}

// Close releases the SQLite database.
func (s *KeywordStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	s.snippets = nil
	return err
}
