// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/iac-rag/internal/retrieve"
)

var queryCmd = &cobra.Command{
	Use:   "query [prompt...]",
	Short: "Retrieve the snippets most relevant to a prompt",
	Long: `Query ranks knowledge base snippets against a natural-language prompt
and prints the top results. The graph strategy fails when the knowledge base
file is missing; the keyword strategy falls back to a built-in example.

Use --references to print the block that would be appended to a code
generation prompt, and --explain to see the graph sub-scores of each result.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQuery,
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg, ret, err := setup(cmd)
	if err != nil {
		return err
	}
	defer ret.Close()

	prompt := strings.Join(args, " ")
	code, _ := cmd.Flags().GetString("code")

	ctx := context.Background()
	results, err := ret.Retrieve(ctx, retrieve.Request{
		Prompt:        prompt,
		GeneratedCode: code,
		TopK:          cfg.TopK,
	})
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	yamlOutput, _ := cmd.Flags().GetBool("yaml")
	references, _ := cmd.Flags().GetBool("references")
	explain, _ := cmd.Flags().GetBool("explain")

	switch {
	case jsonOutput:
		return retrieve.FormatJSON(results, os.Stdout)
	case yamlOutput:
		return retrieve.FormatYAML(results, os.Stdout)
	case references:
		fmt.Println(retrieve.FormatReferences(results))
		return nil
	}

	retrieve.FormatTable(results, os.Stdout)

	if explain {
		gs, ok := ret.(*retrieve.GraphStore)
		if !ok {
			return fmt.Errorf("--explain requires the %s strategy", retrieve.StrategyGraph)
		}
		for _, r := range results {
			b, err := gs.Explain(ctx, prompt, r.SnippetID)
			if err != nil {
				return err
			}
			fmt.Println()
			retrieve.FormatExplain(r.Name, b, os.Stdout)
		}
	}
	return nil
}

func init() {
	queryCmd.Flags().String("strategy", "", "retrieval strategy: graph or keyword (default from config)")
	queryCmd.Flags().Int("top-k", 0, "number of results (default from config)")
	queryCmd.Flags().String("code", "", "previously generated code, matched by the keyword strategy")
	queryCmd.Flags().Bool("json", false, "output results as JSON")
	queryCmd.Flags().Bool("yaml", false, "output results as YAML")
	queryCmd.Flags().Bool("references", false, "print the reference block for a generation prompt")
	queryCmd.Flags().Bool("explain", false, "print graph score breakdowns")

	queryCmd.MarkFlagsMutuallyExclusive("json", "yaml", "references", "explain")

	rootCmd.AddCommand(queryCmd)
}
