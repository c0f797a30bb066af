// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package compare runs several retrieval strategies over the same prompts
// and reports how they differ: a side-by-side listing for curated prompts
// and aggregate metrics over evaluation cases.
package compare

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/pdiddy/iac-rag/internal/logx"
	"github.com/pdiddy/iac-rag/internal/retrieve"
	"github.com/pdiddy/iac-rag/internal/tokenize"
	"github.com/pdiddy/iac-rag/pkg/types"
)

// SideBySideTopK is the number of results shown per strategy in the
// side-by-side listing.
const SideBySideTopK = 2

// Metrics aggregates one strategy's results over a set of evaluation cases.
type Metrics struct {
	// HitRate is the share of cases whose results include a snippet
	// declaring one of the resource types of the expected code.
	HitRate float64 `json:"hit_rate" yaml:"hit_rate"`

	// AvgLatencyMs is the mean retrieval time per case in milliseconds.
	AvgLatencyMs float64 `json:"avg_latency_ms" yaml:"avg_latency_ms"`

	// AvgTopScore is the mean score of the first result.
	AvgTopScore float64 `json:"avg_top_score" yaml:"avg_top_score"`

	// UniqueSnippetsUsed counts the distinct snippets ranked first.
	UniqueSnippetsUsed int `json:"unique_snippets_used" yaml:"unique_snippets_used"`
}

// Report is the persisted outcome of a comparison run.
type Report struct {
	// Metrics is keyed by strategy name.
	Metrics    map[string]Metrics `json:"metrics" yaml:"metrics"`
	GraphStats types.GraphStats   `json:"graph_stats" yaml:"graph_stats"`
}

// CuratedPrompts returns the prompts used for the side-by-side listing.
func CuratedPrompts() []string {
	return []string{
		"Create an S3 bucket with versioning and encryption",
		"Provision an EC2 instance behind a security group",
		"Build a VPC with public and private subnets",
	}
}

// Runner compares a fixed set of retrievers.
type Runner struct {
	retrievers []retrieve.Retriever
	topK       int
	logger     *slog.Logger
	now        func() time.Time
}

// NewRunner creates a runner for retrievers returning topK results per
// query. A nil logger discards.
func NewRunner(retrievers []retrieve.Retriever, topK int, logger *slog.Logger) *Runner {
	return &Runner{
		retrievers: retrievers,
		topK:       topK,
		logger:     logx.OrDiscard(logger),
		now:        time.Now,
	}
}

// SideBySide writes each retriever's top results for every prompt to w.
func (r *Runner) SideBySide(ctx context.Context, w io.Writer, prompts []string) error {
	divider := strings.Repeat("-", 72)
	for _, prompt := range prompts {
		fmt.Fprintln(w, divider)
		fmt.Fprintf(w, "Prompt: %s\n", prompt)
		fmt.Fprintln(w, divider)

		for _, ret := range r.retrievers {
			results, err := ret.Retrieve(ctx, retrieve.Request{Prompt: prompt, TopK: SideBySideTopK})
			if err != nil {
				return fmt.Errorf("%s retrieval for %q: %w", ret.Name(), prompt, err)
			}
			fmt.Fprintf(w, "\n%s results:\n", ret.Name())
			for i, res := range results {
				fmt.Fprintf(w, "  %d. %s (score=%.4f)\n", i+1, res.Name, res.Score)
			}
		}
		fmt.Fprintln(w)
	}
	return nil
}

// Evaluate runs every case through every retriever and returns the
// metrics keyed by retriever name. No cases yields an empty Metrics value
// per retriever.
func (r *Runner) Evaluate(ctx context.Context, cases []types.EvalCase) (map[string]Metrics, error) {
	out := make(map[string]Metrics, len(r.retrievers))
	for _, ret := range r.retrievers {
		m, err := r.evaluate(ctx, ret, cases)
		if err != nil {
			return nil, err
		}
		out[ret.Name()] = m
	}
	return out, nil
}

func (r *Runner) evaluate(ctx context.Context, ret retrieve.Retriever, cases []types.EvalCase) (Metrics, error) {
	if len(cases) == 0 {
		return Metrics{}, nil
	}

	var (
		hits      int
		latency   time.Duration
		topScores []float64
		topIDs    = map[int]struct{}{}
	)

	for i, c := range cases {
		if err := ctx.Err(); err != nil {
			return Metrics{}, err
		}

		start := r.now()
		results, err := ret.Retrieve(ctx, retrieve.Request{Prompt: c.Prompt, TopK: r.topK})
		if err != nil {
			return Metrics{}, fmt.Errorf("%s retrieval for case %d: %w", ret.Name(), i, err)
		}
		latency += r.now().Sub(start)

		if Hit(results, tokenize.ExplicitResources(c.ExpectedCode)) {
			hits++
		}
		if len(results) > 0 {
			topScores = append(topScores, results[0].Score)
			topIDs[results[0].SnippetID] = struct{}{}
		}
	}

	total := float64(len(cases))
	m := Metrics{
		HitRate:            round(float64(hits)/total, 2),
		AvgLatencyMs:       round(float64(latency.Microseconds())/1000/total, 2),
		UniqueSnippetsUsed: len(topIDs),
	}
	if len(topScores) > 0 {
		var sum float64
		for _, s := range topScores {
			sum += s
		}
		m.AvgTopScore = round(sum/float64(len(topScores)), 3)
	}

	r.logger.Debug("evaluated strategy",
		"strategy", ret.Name(), "cases", len(cases), "hits", hits)
	return m, nil
}

// Hit reports whether results cover the expected resource types. Empty
// results never hit; an empty expectation is always met.
func Hit(results []types.QueryResult, expected tokenize.Set) bool {
	if len(results) == 0 {
		return false
	}
	if len(expected) == 0 {
		return true
	}
	for _, res := range results {
		for _, rt := range res.ResourceTypes {
			if expected.Has(rt) {
				return true
			}
		}
	}
	return false
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
