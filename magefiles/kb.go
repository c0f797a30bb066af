//go:build mage

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
	"github.com/spf13/afero"

	"github.com/pdiddy/iac-rag/internal/kb"
	"github.com/pdiddy/iac-rag/internal/logx"
	"github.com/pdiddy/iac-rag/internal/retrieve"
)

// kbFile is the knowledge base the targets read and write.
const kbFile = kb.DefaultFile

// KB groups knowledge base targets.
type KB mg.Namespace

// Sample writes a small example knowledge base to rag_kb.jsonl.
func (KB) Sample() error {
	if err := kb.WriteFile(afero.NewOsFs(), kbFile, kb.SampleRecords()); err != nil {
		return err
	}
	fmt.Printf("Wrote %d sample snippets to %s\n", len(kb.SampleRecords()), kbFile)
	return nil
}

// Stats builds the snippet graph and prints its statistics.
func (KB) Stats() error {
	logger := logx.New(os.Stderr, logx.LevelFromString("info"), "text")
	store := retrieve.NewGraphStore(kb.NewOsLoader(kbFile, logger), logger)
	st, err := store.Statistics(context.Background())
	if err != nil {
		return err
	}
	fmt.Printf("snippets=%d keywords=%d resource_types=%d edges=%d avg_degree=%.2f\n",
		st.Snippets, st.Keywords, st.ResourceTypes, st.Edges, st.AvgSnippetDegree)
	return nil
}

// Compare builds the CLI and writes a strategy comparison report to
// reports/comparison.yaml.
func (KB) Compare() error {
	mg.Deps(Build, Init)
	return sh.RunV("bin/iac-rag", "compare", "--kb", kbFile, "--out", "reports/comparison.yaml")
}
