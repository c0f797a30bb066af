// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/iac-rag/internal/retrieve"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print knowledge base statistics",
	Long: `Stats loads the knowledge base with the selected strategy and prints
its statistics: node and edge counts for the graph, keyword counts and the
most common keywords for the keyword baseline.`,
	RunE: runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	_, ret, err := setup(cmd)
	if err != nil {
		return err
	}
	defer ret.Close()

	jsonOutput, _ := cmd.Flags().GetBool("json")
	ctx := context.Background()

	var stats any
	switch s := ret.(type) {
	case *retrieve.GraphStore:
		st, err := s.Statistics(ctx)
		if err != nil {
			return err
		}
		if !jsonOutput {
			fmt.Printf("Snippets:            %d\n", st.Snippets)
			fmt.Printf("Keywords:            %d\n", st.Keywords)
			fmt.Printf("Resource types:      %d\n", st.ResourceTypes)
			fmt.Printf("Edges:               %d\n", st.Edges)
			fmt.Printf("Avg snippet degree:  %.2f\n", st.AvgSnippetDegree)
			return nil
		}
		stats = st
	case *retrieve.KeywordStore:
		st, err := s.Statistics(ctx)
		if err != nil {
			return err
		}
		if !jsonOutput {
			fmt.Printf("Snippets:               %d\n", st.TotalSnippets)
			fmt.Printf("Unique keywords:        %d\n", st.UniqueKeywords)
			fmt.Printf("Avg keywords/snippet:   %.2f\n", st.AvgKeywordsPerSnippet)
			fmt.Printf("Most common keywords:   %s\n", strings.Join(st.MostCommonKeywords, ", "))
			return nil
		}
		stats = st
	default:
		return fmt.Errorf("strategy %s has no statistics", ret.Name())
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(stats)
}

func init() {
	statsCmd.Flags().String("strategy", "", "retrieval strategy: graph or keyword (default from config)")
	statsCmd.Flags().Bool("json", false, "output statistics as JSON")

	rootCmd.AddCommand(statsCmd)
}
