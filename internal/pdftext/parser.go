package pdftext

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/cloudwego/eino/components/document/parser"
	"github.com/cloudwego/eino/schema"
	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

const (
	MetaPage      = "page"
	MetaPageCount = "page_count"
)

func init() {
	// pdfcpu would otherwise create a config directory under the user's home.
	api.DisableConfigDir()
}

// Parser is an eino document parser producing one document per PDF page.
type Parser struct {
	MaxBytes int64
}

var _ parser.Parser = (*Parser)(nil)

// Parse validates the document with pdfcpu and reads the text of every page
// in order. Panics raised by the PDF readers are returned as *ParseError.
func (p *Parser) Parse(ctx context.Context, reader io.Reader, opts ...parser.Option) (docs []*schema.Document, err error) {
	options := parser.GetCommonOptions(&parser.Options{}, opts...)
	uri := options.URI

	defer func() {
		if r := recover(); r != nil {
			docs = nil
			err = &ParseError{Path: uri, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	data, err := readLimited(reader, p.MaxBytes)
	if err != nil {
		return nil, err
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	pageCount, err := api.PageCount(bytes.NewReader(data), conf)
	if err != nil {
		return nil, &ParseError{Path: uri, Err: fmt.Errorf("validate: %w", err)}
	}

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &ParseError{Path: uri, Err: err}
	}

	total := r.NumPage()
	docs = make([]*schema.Document, 0, total)
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := r.Page(i)
		var text string
		if !page.V.IsNull() {
			text, err = page.GetPlainText(nil)
			if err != nil {
				return nil, &ParseError{Path: uri, Err: fmt.Errorf("page %d: %w", i, err)}
			}
			// the first text positioning operator on a page is reported as a line break
			text = strings.TrimLeft(text, "\r\n")
		}
		meta := make(map[string]any, len(options.ExtraMeta)+2)
		for k, v := range options.ExtraMeta {
			meta[k] = v
		}
		meta[MetaPage] = i
		meta[MetaPageCount] = pageCount
		docs = append(docs, &schema.Document{Content: text, MetaData: meta})
	}
	return docs, nil
}

func readLimited(reader io.Reader, maxBytes int64) ([]byte, error) {
	if maxBytes <= 0 {
		return io.ReadAll(reader)
	}
	data, err := io.ReadAll(io.LimitReader(reader, maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxBytes {
		return nil, ErrSizeExceeded
	}
	return data, nil
}

// fallbackParser receives every file whose extension has no exact match in the
// ext parser. Mixed case PDF extensions still go to pdf; anything else is rejected.
type fallbackParser struct {
	pdf *Parser
}

func (f fallbackParser) Parse(ctx context.Context, reader io.Reader, opts ...parser.Option) ([]*schema.Document, error) {
	options := parser.GetCommonOptions(&parser.Options{}, opts...)
	if f.pdf != nil && strings.EqualFold(filepath.Ext(options.URI), ".pdf") {
		return f.pdf.Parse(ctx, reader, opts...)
	}
	return nil, &ParseError{Path: options.URI, Err: errors.New("unsupported document type")}
}
