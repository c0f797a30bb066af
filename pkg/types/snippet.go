// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the data structures shared by the iac-rag packages:
// knowledge base records, loaded snippets, query results and statistics.
package types

// Record is one line of the knowledge base file. All fields are optional on
// disk; the loader fills defaults for missing ones.
type Record struct {
	// Name is the display title of the snippet (e.g. "S3 Bucket with Versioning").
	Name string `json:"snippet_name" yaml:"snippet_name" validate:"max=512"`

	// Keywords are the retrieval keywords attached when the KB was built.
	Keywords []string `json:"keywords" yaml:"keywords" validate:"max=256,dive,max=128"`

	// Code is the Terraform HCL body of the snippet.
	Code string `json:"iac_code" yaml:"iac_code"`

	// SourcePrompt is the natural-language prompt the snippet was derived from.
	SourcePrompt string `json:"original_prompt,omitempty" yaml:"original_prompt,omitempty"`
}

// Snippet is a loaded knowledge base entry with its retrieval metadata.
// Snippets are not modified after loading.
type Snippet struct {
	// ID is the 0-based position of the snippet among the valid records.
	ID int `json:"snippet_id" yaml:"snippet_id"`

	Name string `json:"snippet_name" yaml:"snippet_name"`

	// Keywords is the expanded keyword set: every record keyword plus the
	// components of underscore-joined keywords. Sorted, unique.
	Keywords []string `json:"keywords" yaml:"keywords"`

	// RawKeywords holds the record keywords lowercased and de-duplicated in
	// first-seen order, without expansion.
	RawKeywords []string `json:"raw_keywords" yaml:"raw_keywords"`

	// ResourceTypes are the resource types declared in Code. Sorted, unique.
	ResourceTypes []string `json:"resource_types" yaml:"resource_types"`

	Code         string `json:"iac_code" yaml:"iac_code"`
	SourcePrompt string `json:"original_prompt" yaml:"original_prompt"`
}

// QueryResult is a ranked snippet returned by a retrieval strategy.
type QueryResult struct {
	SnippetID     int      `json:"snippet_id" yaml:"snippet_id"`
	Name          string   `json:"snippet_name" yaml:"snippet_name"`
	Score         float64  `json:"score" yaml:"score"`
	Keywords      []string `json:"keywords" yaml:"keywords"`
	ResourceTypes []string `json:"resource_types" yaml:"resource_types"`
	Code          string   `json:"iac_code" yaml:"iac_code"`
	SourcePrompt  string   `json:"original_prompt" yaml:"original_prompt"`
}

// GraphStats summarizes a built snippet graph.
type GraphStats struct {
	Snippets         int     `json:"snippets" yaml:"snippets"`
	Keywords         int     `json:"keywords" yaml:"keywords"`
	ResourceTypes    int     `json:"resource_types" yaml:"resource_types"`
	Edges            int     `json:"edges" yaml:"edges"`
	AvgSnippetDegree float64 `json:"avg_snippet_degree" yaml:"avg_snippet_degree"`
}

// KeywordStats summarizes the keyword baseline's knowledge base.
type KeywordStats struct {
	TotalSnippets         int      `json:"total_snippets" yaml:"total_snippets"`
	UniqueKeywords        int      `json:"unique_keywords" yaml:"unique_keywords"`
	AvgKeywordsPerSnippet float64  `json:"avg_keywords_per_snippet" yaml:"avg_keywords_per_snippet"`
	MostCommonKeywords    []string `json:"most_common_keywords" yaml:"most_common_keywords"`
}

// EvalCase is a prompt paired with the code a generator is expected to
// produce, used to compare retrieval strategies.
type EvalCase struct {
	Prompt       string `json:"prompt" yaml:"prompt" validate:"required"`
	ExpectedCode string `json:"expected_iac_code" yaml:"expected_iac_code"`
}
