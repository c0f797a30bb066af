// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/pdiddy/iac-rag/internal/compare"
	"github.com/pdiddy/iac-rag/internal/kb"
	"github.com/pdiddy/iac-rag/internal/retrieve"
	"github.com/pdiddy/iac-rag/pkg/types"
)

// defaultEvalCases bounds the cases taken from the knowledge base when no
// evaluation file is given.
const defaultEvalCases = 10

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare the graph and keyword strategies",
	Long: `Compare runs both strategies side by side over a few curated prompts,
then evaluates them over a set of cases and prints hit rate, latency, top
score and snippet diversity for each.

Cases come from --eval, a JSON Lines file of {prompt, expected_iac_code}
records; without it, up to 10 knowledge base snippets with a source prompt
are used. The report is written to --out as JSON or YAML.`,
	RunE: runCompare,
}

func runCompare(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	ctx := context.Background()
	fsys := afero.NewOsFs()
	loader := kb.NewLoader(fsys, cfg.KBFile, logger)

	graphStore := retrieve.NewGraphStore(loader, logger)
	keywordStore := retrieve.NewKeywordStore(loader, logger)
	defer keywordStore.Close()

	graphStats, err := graphStore.Load(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Graph stats: %d snippets, %d keywords, %d resource types, %d edges\n\n",
		graphStats.Snippets, graphStats.Keywords, graphStats.ResourceTypes, graphStats.Edges)

	runner := compare.NewRunner([]retrieve.Retriever{keywordStore, graphStore}, cfg.TopK, logger)
	if err := runner.SideBySide(ctx, os.Stdout, compare.CuratedPrompts()); err != nil {
		return err
	}

	cases, err := evalCases(ctx, cmd, fsys, loader)
	if err != nil {
		return err
	}
	metrics, err := runner.Evaluate(ctx, cases)
	if err != nil {
		return err
	}

	report := compare.Report{Metrics: metrics, GraphStats: graphStats}
	fmt.Printf("Comparison metrics over %d cases:\n", len(cases))
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(metrics); err != nil {
		return err
	}

	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		return nil
	}
	if err := compare.WriteReport(fsys, out, report); err != nil {
		return err
	}
	fmt.Printf("\nReport saved to: %s\n", out)
	return nil
}

func evalCases(ctx context.Context, cmd *cobra.Command, fsys afero.Fs, loader *kb.Loader) ([]types.EvalCase, error) {
	evalFile, _ := cmd.Flags().GetString("eval")
	if evalFile != "" {
		return compare.LoadCases(fsys, evalFile)
	}
	snippets, _, err := loader.Load(ctx)
	if err != nil {
		return nil, err
	}
	return compare.CasesFromSnippets(snippets, defaultEvalCases), nil
}

func init() {
	compareCmd.Flags().Int("top-k", 0, "number of results per query (default from config)")
	compareCmd.Flags().String("eval", "", "evaluation cases JSON Lines file")
	compareCmd.Flags().String("out", "", "write the report to this .json or .yaml file")

	rootCmd.AddCommand(compareCmd)
}
