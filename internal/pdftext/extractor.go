// Package pdftext extracts plain text from PDF documents.
package pdftext

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/cloudwego/eino-ext/components/document/loader/file"
	"github.com/cloudwego/eino/components/document"
	"github.com/cloudwego/eino/components/document/parser"
)

// ErrSizeExceeded is returned when a file is larger than the extractor limit.
var ErrSizeExceeded = errors.New("pdf exceeds maximum size")

// ParseError reports a document that could not be read as a PDF.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("parse pdf: %v", e.Err)
	}
	return fmt.Sprintf("parse pdf %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// TextExtractor is the contract used by callers that need document text.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

// Extractor reads PDFs through an eino file loader.
type Extractor struct {
	maxBytes int64
	loader   *file.FileLoader
}

var _ TextExtractor = (*Extractor)(nil)

// NewExtractor builds an extractor rejecting files larger than maxBytes.
func NewExtractor(ctx context.Context, maxBytes int64) (*Extractor, error) {
	pdfParser := &Parser{MaxBytes: maxBytes}
	extParser, err := parser.NewExtParser(ctx, &parser.ExtParserConfig{
		Parsers: map[string]parser.Parser{
			".pdf": pdfParser,
			".PDF": pdfParser,
		},
		FallbackParser: fallbackParser{pdf: pdfParser},
	})
	if err != nil {
		return nil, fmt.Errorf("init pdf parser: %w", err)
	}
	loader, err := file.NewFileLoader(ctx, &file.FileLoaderConfig{
		UseNameAsID: true,
		Parser:      extParser,
	})
	if err != nil {
		return nil, fmt.Errorf("init file loader: %w", err)
	}
	return &Extractor{maxBytes: maxBytes, loader: loader}, nil
}

// Extract returns the concatenated text of every page, each followed by a
// newline. The result is empty for documents without a text layer.
func (e *Extractor) Extract(ctx context.Context, path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", &ParseError{Path: path, Err: err}
	}
	if info.IsDir() {
		return "", &ParseError{Path: path, Err: errors.New("is a directory")}
	}
	if e.maxBytes > 0 && info.Size() > e.maxBytes {
		return "", fmt.Errorf("%w: %d bytes", ErrSizeExceeded, info.Size())
	}

	docs, err := e.loader.Load(ctx, document.Source{URI: path})
	if err != nil {
		var parseErr *ParseError
		switch {
		case errors.Is(err, ErrSizeExceeded):
			return "", err
		case errors.As(err, &parseErr):
			return "", parseErr
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return "", err
		default:
			return "", &ParseError{Path: path, Err: err}
		}
	}

	var builder strings.Builder
	for _, doc := range docs {
		builder.WriteString(doc.Content)
		builder.WriteString("\n")
	}
	return builder.String(), nil
}
