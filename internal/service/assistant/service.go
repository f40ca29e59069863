package assistant

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"pdfquery/internal/config"
	"pdfquery/internal/pdftext"
	"pdfquery/internal/session"

	"github.com/sirupsen/logrus"
)

// Answerer generates an answer to question from the document text.
type Answerer interface {
	Answer(ctx context.Context, question, docText string) (string, error)
}

// Options wires the collaborators of Service.
type Options struct {
	UploadDir      string
	MaxUploadBytes int64
	MaxTextChars   int
	Extractor      pdftext.TextExtractor
	Answerer       Answerer
	Store          session.Store
	Logger         *logrus.Logger
}

// Service implements document upload, question answering and temp file cleanup.
type Service struct {
	uploadDir      string
	maxUploadBytes int64
	maxTextChars   int
	extractor      pdftext.TextExtractor
	answerer       Answerer
	store          session.Store
	logger         *logrus.Logger

	remove      func(string) error
	removeDelay time.Duration
	now         func() time.Time
}

// NewService validates opts and makes sure the upload directory exists.
func NewService(opts Options) (*Service, error) {
	if opts.UploadDir == "" {
		return nil, errors.New("upload dir is required")
	}
	if opts.Extractor == nil || opts.Store == nil {
		return nil, errors.New("extractor and session store are required")
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = config.MaxContentLength
	}
	if opts.MaxTextChars <= 0 {
		opts.MaxTextChars = config.MaxTextChars
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if err := os.MkdirAll(opts.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Service{
		uploadDir:      opts.UploadDir,
		maxUploadBytes: opts.MaxUploadBytes,
		maxTextChars:   opts.MaxTextChars,
		extractor:      opts.Extractor,
		answerer:       opts.Answerer,
		store:          opts.Store,
		logger:         opts.Logger,
		remove:         os.Remove,
		removeDelay:    DefaultRemoveRetryDelay,
		now:            time.Now,
	}, nil
}

// UploadDir returns the directory holding in-flight uploads.
func (s *Service) UploadDir() string {
	return s.uploadDir
}
