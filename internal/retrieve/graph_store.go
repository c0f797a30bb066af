// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieve

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"sync"

	"github.com/pdiddy/iac-rag/internal/graph"
	"github.com/pdiddy/iac-rag/internal/kb"
	"github.com/pdiddy/iac-rag/internal/logx"
	"github.com/pdiddy/iac-rag/internal/tokenize"
	"github.com/pdiddy/iac-rag/pkg/types"
)

// GraphStore ranks snippets by keyword, resource and graph-connectivity
// similarity. The graph is built on first use and kept for the lifetime of
// the store; knowledge base changes need a new store.
type GraphStore struct {
	loader *kb.Loader
	logger *slog.Logger

	mu    sync.Mutex
	graph *graph.Graph
}

// NewGraphStore creates a store that reads its knowledge base through loader.
func NewGraphStore(loader *kb.Loader, logger *slog.Logger) *GraphStore {
	return &GraphStore{loader: loader, logger: logx.OrDiscard(logger)}
}

// Name implements Retriever.
func (s *GraphStore) Name() string { return StrategyGraph }

// Load reads the knowledge base and builds the graph. Only the first
// successful call does any work; later calls return the cached statistics.
// A missing knowledge base returns an error matching kb.ErrNotFound.
func (s *GraphStore) Load(ctx context.Context) (types.GraphStats, error) {
	g, err := s.index(ctx)
	if err != nil {
		return types.GraphStats{}, err
	}
	return g.Stats(), nil
}

// Statistics returns the graph statistics, building the graph if needed.
func (s *GraphStore) Statistics(ctx context.Context) (types.GraphStats, error) {
	return s.Load(ctx)
}

// index returns the built graph, building it under the lock on first use.
func (s *GraphStore) index(ctx context.Context) (*graph.Graph, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.graph != nil {
		return s.graph, nil
	}

	snippets, summary, err := s.loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading graph: %w", err)
	}

	g := graph.Build(snippets)
	st := g.Stats()
	s.logger.Info("built snippet graph",
		"snippets", st.Snippets, "keywords", st.Keywords,
		"resource_types", st.ResourceTypes, "edges", st.Edges,
		"skipped_records", summary.Skipped)

	s.graph = g
	return g, nil
}

// Query returns the topK snippets most similar to prompt. When no prompt
// keyword or resource is indexed, every snippet is scored so a non-empty
// knowledge base always yields results. topK below 1 is treated as 1.
func (s *GraphStore) Query(ctx context.Context, prompt string, topK int) ([]types.QueryResult, error) {
	g, err := s.index(ctx)
	if err != nil {
		return nil, err
	}

	keywords := tokenize.Keywords(prompt)
	resources := tokenize.PromptResources(prompt)

	ids := g.Candidates(keywords, resources)
	if len(ids) == 0 {
		ids = make([]int, g.Len())
		for i := range ids {
			ids[i] = i
		}
	}

	ranked := make([]types.QueryResult, 0, len(ids))
	for _, id := range ids {
		snippet, _ := g.Snippet(id)
		b := scoreSnippet(g, id, keywords, resources)
		ranked = append(ranked, types.QueryResult{
			SnippetID:     id,
			Name:          snippet.Name,
			Score:         b.Total,
			Keywords:      slices.Clone(snippet.Keywords),
			ResourceTypes: slices.Clone(snippet.ResourceTypes),
			Code:          snippet.Code,
			SourcePrompt:  snippet.SourcePrompt,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	if k := clampTopK(topK); len(ranked) > k {
		ranked = ranked[:k]
	}

	s.logger.Debug("graph query",
		"keywords", len(keywords), "resources", len(resources),
		"candidates", len(ids), "returned", len(ranked))
	return ranked, nil
}

// Retrieve implements Retriever. GeneratedCode is not used.
func (s *GraphStore) Retrieve(ctx context.Context, req Request) ([]types.QueryResult, error) {
	return s.Query(ctx, req.Prompt, req.TopK)
}

// Explain returns the score breakdown of one snippet for prompt.
func (s *GraphStore) Explain(ctx context.Context, prompt string, snippetID int) (ScoreBreakdown, error) {
	g, err := s.index(ctx)
	if err != nil {
		return ScoreBreakdown{}, err
	}
	if _, ok := g.Snippet(snippetID); !ok {
		return ScoreBreakdown{}, fmt.Errorf("snippet %d not found", snippetID)
	}
	return scoreSnippet(g, snippetID, tokenize.Keywords(prompt), tokenize.PromptResources(prompt)), nil
}

// Graph returns the built graph, building it if needed.
func (s *GraphStore) Graph(ctx context.Context) (*graph.Graph, error) {
	return s.index(ctx)
}

// Close implements Retriever. The graph lives in memory only.
func (s *GraphStore) Close() error { return nil }
