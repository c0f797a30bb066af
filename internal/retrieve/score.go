// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieve

import (
	"math"

	"github.com/pdiddy/iac-rag/internal/graph"
	"github.com/pdiddy/iac-rag/internal/tokenize"
)

// Scoring weights. Jaccard rewards precision (few irrelevant terms), overlap
// rewards recall (coverage of the prompt); each signal blends both.
const (
	// KeywordJaccardWeight and KeywordOverlapWeight sum to 1.
	KeywordJaccardWeight = 0.6
	KeywordOverlapWeight = 0.4

	// ResourceJaccardWeight and ResourceOverlapWeight sum to 1.
	ResourceJaccardWeight = 0.7
	ResourceOverlapWeight = 0.3

	// KeywordWeight, ResourceWeight and ConnectivityWeight sum to 1, which
	// keeps the total score in [0, 1].
	KeywordWeight      = 0.5
	ResourceWeight     = 0.3
	ConnectivityWeight = 0.2
)

// ScoreBreakdown holds the sub-scores of one snippet for one prompt.
type ScoreBreakdown struct {
	KeywordJaccard  float64 `json:"keyword_jaccard" yaml:"keyword_jaccard"`
	KeywordOverlap  float64 `json:"keyword_overlap" yaml:"keyword_overlap"`
	ResourceJaccard float64 `json:"resource_jaccard" yaml:"resource_jaccard"`
	ResourceOverlap float64 `json:"resource_overlap" yaml:"resource_overlap"`
	Connectivity    float64 `json:"connectivity" yaml:"connectivity"`
	Total           float64 `json:"total" yaml:"total"`
}

// KeywordScore is the blended keyword signal.
func (b ScoreBreakdown) KeywordScore() float64 {
	return KeywordJaccardWeight*b.KeywordJaccard + KeywordOverlapWeight*b.KeywordOverlap
}

// ResourceScore is the blended resource signal.
func (b ScoreBreakdown) ResourceScore() float64 {
	return ResourceJaccardWeight*b.ResourceJaccard + ResourceOverlapWeight*b.ResourceOverlap
}

// Jaccard returns |a ∩ b| / |a ∪ b|, or 0 when either set is empty.
func Jaccard(a, b tokenize.Set) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := a.IntersectCount(b)
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

// Overlap returns |items ∩ reference| / |reference|, the share of the
// reference set covered by items. It is 0 when either set is empty.
func Overlap(items, reference tokenize.Set) float64 {
	if len(items) == 0 || len(reference) == 0 {
		return 0
	}
	return float64(items.IntersectCount(reference)) / float64(len(reference))
}

// scoreSnippet computes the breakdown of snippet id against the prompt's
// keywords and resources.
func scoreSnippet(g *graph.Graph, id int, keywords, resources tokenize.Set) ScoreBreakdown {
	snippetKW := g.KeywordSet(id)
	snippetRes := g.ResourceSet(id)

	b := ScoreBreakdown{
		KeywordJaccard:  Jaccard(snippetKW, keywords),
		KeywordOverlap:  Overlap(snippetKW, keywords),
		ResourceJaccard: Jaccard(snippetRes, resources),
		ResourceOverlap: Overlap(snippetRes, resources),
	}

	if requested := len(keywords) + len(resources); requested > 0 {
		b.Connectivity = float64(g.Connected(id, keywords, resources)) / float64(requested)
	}

	b.Total = round4(KeywordWeight*b.KeywordScore() +
		ResourceWeight*b.ResourceScore() +
		ConnectivityWeight*b.Connectivity)
	return b
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
