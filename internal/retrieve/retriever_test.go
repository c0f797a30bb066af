// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieve

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/iac-rag/internal/tokenize"
	"github.com/pdiddy/iac-rag/pkg/types"
)

func TestNew(t *testing.T) {
	tests := []struct {
		strategy string
		want     string
		wantErr  bool
	}{
		{"graph", StrategyGraph, false},
		{"", StrategyGraph, false},
		{"KEYWORD", StrategyKeyword, false},
		{"vector", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.strategy, func(t *testing.T) {
			r, err := New(tt.strategy, missingLoader(), nil)
			if tt.wantErr {
				assert.ErrorContains(t, err, "unknown retrieval strategy")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, r.Name())
			assert.NoError(t, r.Close())
		})
	}
}

func TestJaccardAndOverlap(t *testing.T) {
	a := tokenize.NewSet("x", "y", "z")
	b := tokenize.NewSet("y", "z", "w", "v")

	assert.InDelta(t, 2.0/5.0, Jaccard(a, b), 1e-12)
	assert.Equal(t, Jaccard(a, b), Jaccard(b, a))
	assert.Equal(t, 0.5, Overlap(a, b))
	assert.InDelta(t, 2.0/3.0, Overlap(b, a), 1e-12)

	assert.Equal(t, 0.0, Jaccard(a, tokenize.Set{}))
	assert.Equal(t, 0.0, Overlap(tokenize.Set{}, a))
	assert.Equal(t, 0.0, Overlap(a, nil))
	assert.Equal(t, 1.0, Jaccard(a, a))
}

func TestWeightsSumToOne(t *testing.T) {
	assert.InDelta(t, 1.0, KeywordJaccardWeight+KeywordOverlapWeight, 1e-12)
	assert.InDelta(t, 1.0, ResourceJaccardWeight+ResourceOverlapWeight, 1e-12)
	assert.InDelta(t, 1.0, KeywordWeight+ResourceWeight+ConnectivityWeight, 1e-12)
}

func sampleResults() []types.QueryResult {
	return []types.QueryResult{
		{SnippetID: 0, Name: "S3", Score: 0.9, Code: `resource "aws_s3_bucket" "b" {}`, ResourceTypes: []string{"aws_s3_bucket"}},
		{SnippetID: 3, Name: "Queue", Score: 0.25, Code: `resource "aws_sqs_queue" "q" {}`},
	}
}

func TestFormatReferences(t *testing.T) {
	assert.Equal(t, "", FormatReferences(nil))

	got := FormatReferences(sampleResults())
	want := "\n\n---\nRelevant IaC Reference Snippets:\n" +
		"# Reference: S3\nresource \"aws_s3_bucket\" \"b\" {}" +
		"\n\n" +
		"# Reference: Queue\nresource \"aws_sqs_queue\" \"q\" {}"
	assert.Equal(t, want, got)
}

func TestFormatTable(t *testing.T) {
	var buf bytes.Buffer
	FormatTable(nil, &buf)
	assert.Equal(t, "No snippets found.\n", buf.String())

	buf.Reset()
	FormatTable(sampleResults(), &buf)
	out := buf.String()
	assert.Contains(t, out, "Rank")
	assert.Contains(t, out, "0.9000")
	assert.Contains(t, out, "aws_s3_bucket")
	assert.True(t, strings.HasSuffix(out, "2 results\n"))
}

func TestFormatJSONAndYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, FormatJSON(sampleResults(), &buf))
	var fromJSON []types.QueryResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &fromJSON))
	assert.Len(t, fromJSON, 2)
	assert.Contains(t, buf.String(), `"snippet_id": 3`)

	buf.Reset()
	require.NoError(t, FormatJSON(nil, &buf))
	assert.Equal(t, "[]\n", buf.String())

	buf.Reset()
	require.NoError(t, FormatYAML(sampleResults(), &buf))
	var fromYAML []types.QueryResult
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &fromYAML))
	assert.Equal(t, "Queue", fromYAML[1].Name)
}

func TestFormatExplain(t *testing.T) {
	var buf bytes.Buffer
	FormatExplain("S3", ScoreBreakdown{KeywordJaccard: 1, KeywordOverlap: 1, Total: 0.5}, &buf)
	assert.Contains(t, buf.String(), "Score breakdown for S3")
	assert.Contains(t, buf.String(), "total=0.5000")
}
