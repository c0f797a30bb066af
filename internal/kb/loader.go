// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package kb reads the snippet knowledge base, a JSON Lines file with one
// record per line, and builds Snippets with expanded retrieval metadata.
package kb

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"

	"github.com/pdiddy/iac-rag/internal/logx"
	"github.com/pdiddy/iac-rag/internal/tokenize"
	"github.com/pdiddy/iac-rag/pkg/types"
)

// DefaultFile is the knowledge base file name used when none is configured.
const DefaultFile = "rag_kb.jsonl"

// maxLineBytes bounds a single record; snippets carry whole HCL files.
const maxLineBytes = 4 << 20

// ErrNotFound reports that the knowledge base file does not exist.
var ErrNotFound = errors.New("knowledge base not found")

var validate = validator.New()

// LoadSummary counts the outcome of a load.
type LoadSummary struct {
	Loaded  int
	Skipped int
}

// Total returns the number of non-blank lines read.
func (s LoadSummary) Total() int {
	return s.Loaded + s.Skipped
}

// Loader reads a knowledge base file from a filesystem.
type Loader struct {
	fs     afero.Fs
	path   string
	logger *slog.Logger
}

// NewLoader creates a loader for path on fsys. Use afero.NewOsFs() for the
// real filesystem or afero.NewMemMapFs() in tests. A nil logger discards.
func NewLoader(fsys afero.Fs, path string, logger *slog.Logger) *Loader {
	if path == "" {
		path = DefaultFile
	}
	return &Loader{fs: fsys, path: path, logger: logx.OrDiscard(logger)}
}

// NewOsLoader creates a loader on the operating system filesystem.
func NewOsLoader(path string, logger *slog.Logger) *Loader {
	return NewLoader(afero.NewOsFs(), path, logger)
}

// Path returns the knowledge base file path.
func (l *Loader) Path() string { return l.path }

// Exists reports whether the knowledge base file is present.
func (l *Loader) Exists() (bool, error) {
	return afero.Exists(l.fs, l.path)
}

// Load parses the knowledge base and returns its snippets in file order.
// Blank lines are ignored. Lines that are not valid records, or that exceed
// the 4 MiB line limit, are skipped with a warning and counted in the
// summary. A missing file yields an error
// matching both ErrNotFound and fs.ErrNotExist.
func (l *Loader) Load(ctx context.Context) ([]types.Snippet, LoadSummary, error) {
	f, err := l.fs.Open(l.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, LoadSummary{}, fmt.Errorf("%w: %s (build the knowledge base first): %w", ErrNotFound, l.path, err)
		}
		return nil, LoadSummary{}, fmt.Errorf("opening knowledge base %s: %w", l.path, err)
	}
	defer f.Close()

	var (
		snippets []types.Snippet
		summary  LoadSummary
		lineNum  int
	)

	br := bufio.NewReaderSize(f, 64*1024)
	for {
		if err := ctx.Err(); err != nil {
			return nil, summary, err
		}

		raw, tooLong, readErr := readLine(br, maxLineBytes)
		if readErr != nil && readErr != io.EOF {
			return nil, summary, fmt.Errorf("reading knowledge base %s: %w", l.path, readErr)
		}
		if readErr == io.EOF && len(raw) == 0 && !tooLong {
			break
		}
		lineNum++

		line := bytes.TrimSpace(raw)
		switch {
		case tooLong:
			l.logger.Warn("skipping oversized knowledge base record",
				"file", l.path, "line", lineNum, "limit_bytes", maxLineBytes)
			summary.Skipped++
		case len(line) == 0:
		default:
			rec, err := ParseRecord(line)
			if err != nil {
				l.logger.Warn("skipping malformed knowledge base record",
					"file", l.path, "line", lineNum, "error", err)
				summary.Skipped++
				break
			}
			snippets = append(snippets, NewSnippet(len(snippets), rec))
			summary.Loaded++
		}

		if readErr == io.EOF {
			break
		}
	}

	l.logger.Info("loaded knowledge base",
		"file", l.path, "snippets", summary.Loaded, "skipped", summary.Skipped)
	return snippets, summary, nil
}

// readLine reads one newline-terminated line. A line longer than limit is
// consumed to its end and reported as tooLong with no content.
func readLine(r *bufio.Reader, limit int) (line []byte, tooLong bool, err error) {
	for {
		chunk, err := r.ReadSlice('\n')
		if !tooLong {
			line = append(line, chunk...)
			if len(bytes.TrimRight(line, "\r\n")) > limit {
				tooLong = true
				line = nil
			}
		}
		if err != bufio.ErrBufferFull {
			return line, tooLong, err
		}
	}
}

// ParseRecord decodes and validates one knowledge base line.
func ParseRecord(line []byte) (types.Record, error) {
	var rec types.Record
	if len(line) == 0 || line[0] != '{' {
		return rec, fmt.Errorf("record is not a JSON object")
	}
	if err := json.Unmarshal(line, &rec); err != nil {
		return rec, fmt.Errorf("decoding record: %w", err)
	}
	if err := validate.Struct(rec); err != nil {
		return rec, fmt.Errorf("validating record: %w", err)
	}
	return rec, nil
}

// NewSnippet builds the Snippet with the given id from a record: keywords
// are normalized and expanded, and resource types are read from the code.
func NewSnippet(id int, rec types.Record) types.Snippet {
	name := strings.TrimSpace(rec.Name)
	if name == "" {
		name = fmt.Sprintf("Snippet %d", id)
	}
	return types.Snippet{
		ID:            id,
		Name:          name,
		Keywords:      tokenize.ExpandKeywords(rec.Keywords).Sorted(),
		RawKeywords:   rawKeywords(rec.Keywords),
		ResourceTypes: tokenize.DeclaredResources(rec.Code).Sorted(),
		Code:          rec.Code,
		SourcePrompt:  rec.SourcePrompt,
	}
}

// FromRecords builds snippets from in-memory records, ids in slice order.
func FromRecords(records []types.Record) []types.Snippet {
	out := make([]types.Snippet, len(records))
	for i, rec := range records {
		out[i] = NewSnippet(i, rec)
	}
	return out
}

// rawKeywords lowercases and trims keywords, dropping blanks and repeats
// while keeping first-seen order.
func rawKeywords(keywords []string) []string {
	seen := make(map[string]bool, len(keywords))
	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" || seen[kw] {
			continue
		}
		seen[kw] = true
		out = append(out, kw)
	}
	return out
}

// FallbackRecord is the single built-in example served by the keyword
// baseline when no knowledge base file exists.
func FallbackRecord() types.Record {
	return types.Record{
		Name:     "Fallback EC2 Example",
		Keywords: []string{"ec2", "instance"},
		Code: `resource "aws_instance" "fallback" {
  ami = "ami-0abcdef1234567890"
  instance_type = "t2.micro"
}`,
	}
}
