// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package compare

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/iac-rag/pkg/types"
)

var validate = validator.New()

// LoadCases reads evaluation cases from a JSON Lines file. Blank lines are
// ignored; any other invalid line is an error.
func LoadCases(fsys afero.Fs, path string) ([]types.EvalCase, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening evaluation cases: %w", err)
	}
	defer f.Close()

	var cases []types.EvalCase
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4<<20)
	line := 0
	for sc.Scan() {
		line++
		raw := bytes.TrimSpace(sc.Bytes())
		if len(raw) == 0 {
			continue
		}
		var c types.EvalCase
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, fmt.Errorf("%s line %d: decoding case: %w", path, line, err)
		}
		if err := validate.Struct(c); err != nil {
			return nil, fmt.Errorf("%s line %d: validating case: %w", path, line, err)
		}
		cases = append(cases, c)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return cases, nil
}

// CasesFromSnippets builds up to limit evaluation cases from snippets that
// carry a source prompt, expecting each snippet's own code. limit below 1
// means no limit.
func CasesFromSnippets(snippets []types.Snippet, limit int) []types.EvalCase {
	var cases []types.EvalCase
	for _, s := range snippets {
		if limit > 0 && len(cases) == limit {
			break
		}
		if strings.TrimSpace(s.SourcePrompt) == "" {
			continue
		}
		cases = append(cases, types.EvalCase{Prompt: s.SourcePrompt, ExpectedCode: s.Code})
	}
	return cases
}

// WriteReport writes r to path as JSON or YAML, chosen by the file
// extension (.json, .yaml or .yml).
func WriteReport(fsys afero.Fs, path string, r Report) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		data, err = json.MarshalIndent(r, "", "  ")
	case ".yaml", ".yml":
		data, err = yaml.Marshal(r)
	default:
		return fmt.Errorf("unsupported report format %q: use .json or .yaml", filepath.Ext(path))
	}
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	if !bytes.HasSuffix(data, []byte("\n")) {
		data = append(data, '\n')
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := fsys.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return afero.WriteFile(fsys, path, data, 0o644)
}
