// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieve

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/iac-rag/pkg/types"
)

// ReferencesHeader introduces the reference block appended to a generation
// prompt.
const ReferencesHeader = "\n\n---\nRelevant IaC Reference Snippets:\n"

// FormatReferences renders results as a reference block for a code
// generation prompt. It returns "" when there are no results.
func FormatReferences(results []types.QueryResult) string {
	if len(results) == 0 {
		return ""
	}
	blocks := make([]string, len(results))
	for i, r := range results {
		blocks[i] = fmt.Sprintf("# Reference: %s\n%s", r.Name, r.Code)
	}
	return ReferencesHeader + strings.Join(blocks, "\n\n")
}

// FormatTable writes results as a human-readable table to w.
func FormatTable(results []types.QueryResult, w io.Writer) {
	if len(results) == 0 {
		fmt.Fprintln(w, "No snippets found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-6s  %-40s  %-7s  %s\n", "Rank", "ID", "Name", "Score", "Resources")
	fmt.Fprintln(w, strings.Repeat("-", 96))

	for i, r := range results {
		fmt.Fprintf(w, "%-4d  %-6d  %-40s  %-7.4f  %s\n",
			i+1, r.SnippetID, truncate(r.Name, 40), r.Score, truncate(strings.Join(r.ResourceTypes, ","), 40))
	}

	fmt.Fprintf(w, "\n%d results\n", len(results))
}

// FormatJSON writes results as indented JSON to w.
func FormatJSON(results []types.QueryResult, w io.Writer) error {
	if results == nil {
		results = []types.QueryResult{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(results)
}

// FormatYAML writes results as YAML to w.
func FormatYAML(results []types.QueryResult, w io.Writer) error {
	if results == nil {
		results = []types.QueryResult{}
	}
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(results)
}

// FormatExplain writes a score breakdown to w.
func FormatExplain(name string, b ScoreBreakdown, w io.Writer) {
	fmt.Fprintf(w, "Score breakdown for %s\n", name)
	fmt.Fprintf(w, "  keyword   jaccard=%.4f overlap=%.4f blended=%.4f (weight %.1f)\n",
		b.KeywordJaccard, b.KeywordOverlap, b.KeywordScore(), KeywordWeight)
	fmt.Fprintf(w, "  resource  jaccard=%.4f overlap=%.4f blended=%.4f (weight %.1f)\n",
		b.ResourceJaccard, b.ResourceOverlap, b.ResourceScore(), ResourceWeight)
	fmt.Fprintf(w, "  connectivity=%.4f (weight %.1f)\n", b.Connectivity, ConnectivityWeight)
	fmt.Fprintf(w, "  total=%.4f\n", b.Total)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
