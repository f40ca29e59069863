package pdftext

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"pdfquery/internal/pdftext/pdftest"
)

func newTestExtractor(t *testing.T, maxBytes int64) *Extractor {
	t.Helper()
	ex, err := NewExtractor(context.Background(), maxBytes)
	require.NoError(t, err)
	return ex
}

func TestExtractSinglePage(t *testing.T) {
	path := pdftest.WriteFile(t, t.TempDir(), "report.pdf", "Revenue was $5M in 2023.")

	text, err := newTestExtractor(t, 16<<20).Extract(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, "Revenue was $5M in 2023.\n", text)
}

func TestExtractPagesInOrder(t *testing.T) {
	path := pdftest.WriteFile(t, t.TempDir(), "multi.pdf", "first page", "second page", "third (page)")

	text, err := newTestExtractor(t, 16<<20).Extract(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, "first page\nsecond page\nthird (page)\n", text)
}

func TestExtractMultiLinePages(t *testing.T) {
	path := pdftest.WriteFile(t, t.TempDir(), "lines.pdf", "line one\nline two", "page two")

	text, err := newTestExtractor(t, 16<<20).Extract(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, "line one\nline two\npage two\n", text)
}

func TestExtractPageWithoutText(t *testing.T) {
	path := pdftest.WriteFile(t, t.TempDir(), "scan.pdf", "")

	text, err := newTestExtractor(t, 16<<20).Extract(context.Background(), path)
	require.NoError(t, err)
	require.Empty(t, strings.TrimSpace(text))
}

func TestExtractRejectsOversizedFile(t *testing.T) {
	path := pdftest.WriteFile(t, t.TempDir(), "big.pdf", "some text")
	info, err := os.Stat(path)
	require.NoError(t, err)

	_, err = newTestExtractor(t, info.Size()-1).Extract(context.Background(), path)
	require.ErrorIs(t, err, ErrSizeExceeded)
	var parseErr *ParseError
	require.False(t, errors.As(err, &parseErr))
}

func TestExtractCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4\nthis is not really a pdf\n"), 0o600))

	text, err := newTestExtractor(t, 16<<20).Extract(context.Background(), path)
	require.Empty(t, text)
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	require.Equal(t, path, parseErr.Path)
}

func TestExtractMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gone.pdf")

	_, err := newTestExtractor(t, 16<<20).Extract(context.Background(), path)
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestExtractUppercaseExtension(t *testing.T) {
	path := pdftest.WriteFile(t, t.TempDir(), "REPORT.PDF", "shouting")

	text, err := newTestExtractor(t, 16<<20).Extract(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, "shouting\n", text)
}

func TestExtractMixedCaseExtension(t *testing.T) {
	path := pdftest.WriteFile(t, t.TempDir(), "Mixed.Pdf", "quiet")

	text, err := newTestExtractor(t, 16<<20).Extract(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, "quiet\n", text)
}

func TestExtractUnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("plain"), 0o600))

	_, err := newTestExtractor(t, 16<<20).Extract(context.Background(), path)
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestParserAttachesPageMetadata(t *testing.T) {
	p := &Parser{MaxBytes: 1 << 20}
	docs, err := p.Parse(context.Background(), strings.NewReader(string(pdftest.Build("a", "b"))))
	require.NoError(t, err)
	require.Len(t, docs, 2)
	require.Equal(t, 1, docs[0].MetaData[MetaPage])
	require.Equal(t, 2, docs[1].MetaData[MetaPage])
	require.Equal(t, 2, docs[1].MetaData[MetaPageCount])
	require.Equal(t, "a", docs[0].Content)
	require.Equal(t, "b", docs[1].Content)
}

func TestParserSizeLimit(t *testing.T) {
	data := pdftest.Build("a")
	p := &Parser{MaxBytes: int64(len(data) - 1)}
	_, err := p.Parse(context.Background(), strings.NewReader(string(data)))
	require.ErrorIs(t, err, ErrSizeExceeded)
}
