// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieve

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/iac-rag/internal/kb"
	"github.com/pdiddy/iac-rag/pkg/types"
)

func TestKeywordQuerySubstringMatch(t *testing.T) {
	store := NewKeywordStore(newTestLoader(t, kb.SampleRecords()), nil)
	defer store.Close()

	results, err := store.Query(context.Background(), "Create an S3 bucket with versioning", "", 3)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "S3 Bucket with Versioning", results[0].Name)
	// s3, bucket and versioning of five keywords.
	assert.Equal(t, 0.6, results[0].Score)
	assert.Equal(t, []string{"aws", "s3", "bucket", "versioning", "storage"}, results[0].Keywords)
}

func TestKeywordQueryMatchesGeneratedCode(t *testing.T) {
	store := NewKeywordStore(newTestLoader(t, kb.SampleRecords()), nil)
	defer store.Close()

	code := `resource "aws_dynamodb_table" "t" {}`
	results, err := store.Query(context.Background(), "zzzz", code, 3)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "DynamoDB Table", results[0].Name)
	assert.Equal(t, 0.5, results[0].Score)
	// "aws" occurs in the generated code.
	assert.Equal(t, "S3 Bucket with Versioning", results[1].Name)
	assert.Equal(t, 0.2, results[1].Score)
}

func TestKeywordQueryNoMatchReturnsFirstSnippet(t *testing.T) {
	store := NewKeywordStore(newTestLoader(t, kb.SampleRecords()), nil)
	defer store.Close()

	results, err := store.Query(context.Background(), "zzzz", "", 3)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 0, results[0].SnippetID)
	assert.Equal(t, 0.0, results[0].Score)
}

func TestKeywordQueryOrderingAndTopK(t *testing.T) {
	store := NewKeywordStore(newTestLoader(t, []types.Record{
		{Name: "half", Keywords: []string{"queue", "topic"}},
		{Name: "full", Keywords: []string{"queue"}},
		{Name: "also half", Keywords: []string{"queue", "stream"}},
		{Name: "none", Keywords: []string{"vpc"}},
	}), nil)
	defer store.Close()
	ctx := context.Background()

	results, err := store.Query(ctx, "an SQS queue", "", 5)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, []string{"full", "half", "also half"},
		[]string{results[0].Name, results[1].Name, results[2].Name})
	assert.Equal(t, []float64{1, 0.5, 0.5},
		[]float64{results[0].Score, results[1].Score, results[2].Score})

	results, err = store.Query(ctx, "an SQS queue", "", 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "full", results[0].Name)
}

func TestKeywordQueryMissingKnowledgeBaseUsesFallback(t *testing.T) {
	store := NewKeywordStore(missingLoader(), nil)
	defer store.Close()
	ctx := context.Background()

	results, err := store.Query(ctx, "an ec2 instance", "", 3)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Fallback EC2 Example", results[0].Name)
	assert.Equal(t, 1.0, results[0].Score)
	assert.Equal(t, []string{"aws_instance"}, results[0].ResourceTypes)

	results, err = store.Query(ctx, "nothing relevant", "", 3)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Fallback EC2 Example", results[0].Name)
	assert.Equal(t, 0.0, results[0].Score)

	n, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestKeywordQueryEmptyKnowledgeBase(t *testing.T) {
	store := NewKeywordStore(newTestLoader(t, nil), nil)
	defer store.Close()

	results, err := store.Query(context.Background(), "bucket", "", 3)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestKeywordStatistics(t *testing.T) {
	store := NewKeywordStore(newTestLoader(t, []types.Record{
		{Name: "a", Keywords: []string{"bucket", "s3"}},
		{Name: "b", Keywords: []string{"bucket", "logs"}},
		{Name: "c", Keywords: []string{"Bucket ", "bucket", ""}},
	}), nil)
	defer store.Close()

	st, err := store.Statistics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, types.KeywordStats{
		TotalSnippets:         3,
		UniqueKeywords:        3,
		AvgKeywordsPerSnippet: 1.67,
		MostCommonKeywords:    []string{"bucket", "logs", "s3"},
	}, st)
}

func TestKeywordStatisticsLimit(t *testing.T) {
	store := NewKeywordStore(newTestLoader(t, kb.SampleRecords()), nil)
	defer store.Close()

	st, err := store.Statistics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, st.TotalSnippets)
	assert.Equal(t, 27, st.UniqueKeywords)
	assert.Equal(t, 4.5, st.AvgKeywordsPerSnippet)
	assert.Len(t, st.MostCommonKeywords, mostCommonLimit)
	assert.Equal(t, "alb", st.MostCommonKeywords[0])
}

func TestKeywordCloseReleasesAndReopens(t *testing.T) {
	store := NewKeywordStore(newTestLoader(t, kb.SampleRecords()), nil)
	ctx := context.Background()

	n, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, n)

	require.NoError(t, store.Close())
	require.NoError(t, store.Close())

	results, err := store.Retrieve(ctx, Request{Prompt: "dynamodb", TopK: 1})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "DynamoDB Table", results[0].Name)
	require.NoError(t, store.Close())
}

func TestKeywordConcurrentQueries(t *testing.T) {
	store := NewKeywordStore(newTestLoader(t, kb.SampleRecords()), nil)
	defer store.Close()
	ctx := context.Background()

	var wg sync.WaitGroup
	for n := 0; n < 8; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results, err := store.Query(ctx, "lambda function", "", 1)
			assert.NoError(t, err)
			if assert.Len(t, results, 1) {
				assert.Equal(t, "Lambda Function with IAM Role", results[0].Name)
			}
		}()
	}
	wg.Wait()
}
