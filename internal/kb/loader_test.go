// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package kb

import (
	"bytes"
	"context"
	"io/fs"
	"log/slog"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/iac-rag/internal/logx"
	"github.com/pdiddy/iac-rag/pkg/types"
)

const kbPath = "/kb/rag_kb.jsonl"

func writeKB(t *testing.T, lines ...string) afero.Fs {
	t.Helper()
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, kbPath, []byte(strings.Join(lines, "\n")), 0o644))
	return fsys
}

func TestLoad(t *testing.T) {
	fsys := writeKB(t,
		`{"snippet_name": "S3 Bucket", "keywords": ["S3", "bucket", "load_balancer"], "iac_code": "resource \"aws_s3_bucket\" \"b\" {}", "original_prompt": "make a bucket"}`,
		`{"keywords": ["vpc"]}`,
	)

	snippets, summary, err := NewLoader(fsys, kbPath, nil).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, snippets, 2)
	assert.Equal(t, LoadSummary{Loaded: 2}, summary)

	s := snippets[0]
	assert.Equal(t, 0, s.ID)
	assert.Equal(t, "S3 Bucket", s.Name)
	assert.Equal(t, []string{"balancer", "bucket", "load", "load_balancer", "s3"}, s.Keywords)
	assert.Equal(t, []string{"s3", "bucket", "load_balancer"}, s.RawKeywords)
	assert.Equal(t, []string{"aws_s3_bucket"}, s.ResourceTypes)
	assert.Equal(t, "make a bucket", s.SourcePrompt)

	second := snippets[1]
	assert.Equal(t, 1, second.ID)
	assert.Equal(t, "Snippet 1", second.Name)
	assert.Empty(t, second.ResourceTypes, "missing code yields no resources")
	assert.Equal(t, "", second.Code)
}

func TestLoadSkipsMalformedLines(t *testing.T) {
	long := strings.Repeat("k", 200)
	fsys := writeKB(t,
		`{"snippet_name": "first", "keywords": ["ec2"]}`,
		`not json at all`,
		``,
		`{"snippet_name": "bad keywords", "keywords": "ec2"}`,
		`null`,
		`[1, 2, 3]`,
		`{"snippet_name": "too long", "keywords": ["`+long+`"]}`,
		`{"snippet_name": "second", "keywords": []}`,
	)

	var logBuf bytes.Buffer
	logger := logx.New(&logBuf, slog.LevelWarn, "text")

	snippets, summary, err := NewLoader(fsys, kbPath, logger).Load(context.Background())
	require.NoError(t, err)

	require.Len(t, snippets, 2)
	assert.Equal(t, "first", snippets[0].Name)
	assert.Equal(t, "second", snippets[1].Name)
	assert.Equal(t, 1, snippets[1].ID, "skipped lines do not consume ids")
	assert.Empty(t, snippets[1].Keywords)

	assert.Equal(t, 2, summary.Loaded)
	assert.Equal(t, 5, summary.Skipped)
	assert.Equal(t, 7, summary.Total())

	out := logBuf.String()
	assert.Contains(t, out, "skipping malformed knowledge base record")
	assert.Contains(t, out, "line=2")
	assert.Contains(t, out, "line=7")
}

func TestLoadSkipsOversizedLine(t *testing.T) {
	huge := strings.Repeat("x", maxLineBytes+1024)
	fsys := writeKB(t,
		`{"snippet_name": "before", "keywords": ["ec2"]}`,
		`{"snippet_name": "huge", "iac_code": "`+huge+`"}`,
		`{"snippet_name": "after", "keywords": ["vpc"]}`,
	)

	var logBuf bytes.Buffer
	logger := logx.New(&logBuf, slog.LevelWarn, "text")

	snippets, summary, err := NewLoader(fsys, kbPath, logger).Load(context.Background())
	require.NoError(t, err)

	require.Len(t, snippets, 2)
	assert.Equal(t, "before", snippets[0].Name)
	assert.Equal(t, "after", snippets[1].Name)
	assert.Equal(t, 1, snippets[1].ID)
	assert.Equal(t, LoadSummary{Loaded: 2, Skipped: 1}, summary)

	out := logBuf.String()
	assert.Contains(t, out, "skipping oversized knowledge base record")
	assert.Contains(t, out, "line=2")
}

func TestLoadOversizedLastLine(t *testing.T) {
	fsys := writeKB(t,
		`{"snippet_name": "only", "keywords": ["ec2"]}`,
		strings.Repeat("y", maxLineBytes+1),
	)

	snippets, summary, err := NewLoader(fsys, kbPath, nil).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, snippets, 1)
	assert.Equal(t, LoadSummary{Loaded: 1, Skipped: 1}, summary)
}

func TestLoadMissingFile(t *testing.T) {
	_, _, err := NewLoader(afero.NewMemMapFs(), "/nope.jsonl", nil).Load(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Contains(t, err.Error(), "/nope.jsonl")
}

func TestLoadEmptyFile(t *testing.T) {
	fsys := writeKB(t)
	snippets, summary, err := NewLoader(fsys, kbPath, nil).Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snippets)
	assert.Equal(t, 0, summary.Total())
}

func TestLoadCancelled(t *testing.T) {
	fsys := writeKB(t, `{"keywords": ["ec2"]}`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := NewLoader(fsys, kbPath, nil).Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewLoaderDefaultPath(t *testing.T) {
	assert.Equal(t, DefaultFile, NewLoader(afero.NewMemMapFs(), "", nil).Path())
}

func TestParseRecord(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		wantErr bool
	}{
		{"object", `{"snippet_name": "x"}`, false},
		{"empty object", `{}`, false},
		{"array", `[]`, true},
		{"null", `null`, true},
		{"wrong keyword type", `{"keywords": [1, 2]}`, true},
		{"truncated", `{"snippet_name": "x"`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRecord([]byte(tt.line))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestFromRecords(t *testing.T) {
	snippets := FromRecords([]types.Record{FallbackRecord(), {Name: "  "}})
	require.Len(t, snippets, 2)
	assert.Equal(t, "Fallback EC2 Example", snippets[0].Name)
	assert.Equal(t, []string{"aws_instance"}, snippets[0].ResourceTypes)
	assert.Equal(t, []string{"ec2", "instance"}, snippets[0].Keywords)
	assert.Equal(t, "Snippet 1", snippets[1].Name)
}

func TestWriteFileRoundTrip(t *testing.T) {
	fsys := afero.NewMemMapFs()
	path := "/data/kb/sample.jsonl"
	require.NoError(t, WriteFile(fsys, path, SampleRecords()))

	loader := NewLoader(fsys, path, nil)
	ok, err := loader.Exists()
	require.NoError(t, err)
	assert.True(t, ok)

	snippets, summary, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, len(SampleRecords()), summary.Loaded)
	assert.Zero(t, summary.Skipped)
	assert.Equal(t, "S3 Bucket with Versioning", snippets[0].Name)
	assert.Contains(t, snippets[0].ResourceTypes, "aws_s3_bucket_versioning")
	assert.Contains(t, snippets[0].Code, `status = "Enabled"`)
}

func TestWriteFileRejectsInvalidRecord(t *testing.T) {
	rec := types.Record{Keywords: []string{strings.Repeat("x", 129)}}
	err := WriteFile(afero.NewMemMapFs(), "/kb.jsonl", []types.Record{rec})
	assert.Error(t, err)
}
