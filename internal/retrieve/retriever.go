// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package retrieve ranks knowledge base snippets against a prompt. Two
// interchangeable strategies implement Retriever: GraphStore scores
// candidates over the snippet graph, and KeywordStore is the plain
// keyword-substring baseline.
package retrieve

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pdiddy/iac-rag/internal/kb"
	"github.com/pdiddy/iac-rag/pkg/types"
)

// Strategy names accepted by New.
const (
	StrategyGraph   = "graph"
	StrategyKeyword = "keyword"
)

// DefaultTopK is the number of results returned when the caller does not
// choose one.
const DefaultTopK = 3

// Request is a retrieval query.
type Request struct {
	// Prompt is the natural-language description of the desired code.
	Prompt string

	// GeneratedCode is previously generated code, used by strategies that
	// also match against it when a generation is retried.
	GeneratedCode string

	// TopK bounds the number of results. Values below 1 are treated as 1.
	TopK int
}

// Retriever returns ranked snippets for a request.
type Retriever interface {
	// Name returns the strategy name.
	Name() string

	// Retrieve returns at most req.TopK results ordered by descending score.
	Retrieve(ctx context.Context, req Request) ([]types.QueryResult, error)

	// Close releases resources held by the retriever.
	Close() error
}

// New returns the Retriever for strategy, reading the knowledge base
// through loader.
func New(strategy string, loader *kb.Loader, logger *slog.Logger) (Retriever, error) {
	switch strings.ToLower(strategy) {
	case StrategyGraph, "":
		return NewGraphStore(loader, logger), nil
	case StrategyKeyword:
		return NewKeywordStore(loader, logger), nil
	default:
		return nil, fmt.Errorf("unknown retrieval strategy %q: use %s or %s", strategy, StrategyGraph, StrategyKeyword)
	}
}

// clampTopK coerces k to at least 1.
func clampTopK(k int) int {
	if k < 1 {
		return 1
	}
	return k
}
