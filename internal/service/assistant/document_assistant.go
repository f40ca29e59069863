package assistant

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"pdfquery/internal/models"
	"pdfquery/internal/pdftext"
	"pdfquery/internal/service/ai"
	"pdfquery/internal/session"
)

// UploadDocument stores src on disk, extracts its text and saves the text as
// the session's document, replacing any previous one. The session is only
// written when every check passes. The temporary file is always removed.
func (s *Service) UploadDocument(ctx context.Context, sessionID, filename string, src io.Reader) (*models.TempFile, error) {
	if filename == "" {
		return nil, invalidInput(MsgNoFileSelected)
	}
	if !AllowedFile(filename) {
		return nil, invalidInput(MsgInvalidFileType)
	}
	if sessionID == "" {
		return nil, internalError(MsgProcessingFailed, errors.New("session id is required"))
	}

	tmp, err := s.saveUpload(filename, src)
	if tmp != nil {
		defer s.removeWithRetry(context.WithoutCancel(ctx), tmp.StoredPath)
	}
	if err != nil {
		return nil, err
	}
	tmp.SessionID = sessionID
	log := s.logger.WithFields(logrus.Fields{"session_id": sessionID, "file": tmp.StoredPath})

	text, err := s.extractor.Extract(ctx, tmp.StoredPath)
	if err != nil {
		if errors.Is(err, pdftext.ErrSizeExceeded) {
			return nil, invalidInput(MsgFileTooLarge)
		}
		log.WithError(err).Error("extract pdf text failed")
		return nil, internalError(MsgProcessingFailed, err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, invalidInput(MsgNoReadableText)
	}
	chars := utf8.RuneCountInString(text)
	if chars > s.maxTextChars {
		return nil, invalidInput(MsgContentTooLarge)
	}

	if err := s.store.Set(ctx, sessionID, session.KeyPDFContent, text); err != nil {
		log.WithError(err).Error("store pdf content failed")
		return nil, internalError(MsgProcessingFailed, err)
	}
	tmp.TextChars = chars
	return tmp, nil
}

// saveUpload streams src to a unique file in the upload directory. A non-nil
// TempFile is returned whenever a file was created, even on error.
func (s *Service) saveUpload(filename string, src io.Reader) (*models.TempFile, error) {
	name := SecureFilename(filename)
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	if stem == "" {
		stem = "document"
	}
	path := filepath.Join(s.uploadDir, fmt.Sprintf("%s_%s.pdf", uuid.NewString(), stem))

	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return nil, internalError(MsgProcessingFailed, fmt.Errorf("create upload dir: %w", err))
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, internalError(MsgProcessingFailed, fmt.Errorf("create temp file: %w", err))
	}
	tmp := &models.TempFile{
		OriginalName: filename,
		StoredPath:   path,
		CreatedAt:    s.now(),
	}
	n, copyErr := io.Copy(f, io.LimitReader(src, s.maxUploadBytes+1))
	closeErr := f.Close()
	tmp.Size = n
	if copyErr != nil {
		var maxErr *http.MaxBytesError
		if errors.As(copyErr, &maxErr) {
			return tmp, invalidInput(MsgFileTooLarge)
		}
		return tmp, internalError(MsgProcessingFailed, fmt.Errorf("write temp file: %w", copyErr))
	}
	if closeErr != nil {
		return tmp, internalError(MsgProcessingFailed, fmt.Errorf("close temp file: %w", closeErr))
	}
	if n > s.maxUploadBytes {
		return tmp, invalidInput(MsgFileTooLarge)
	}
	return tmp, nil
}

// Ask answers message using the document stored in the session.
func (s *Service) Ask(ctx context.Context, sessionID, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", invalidInput(MsgEmptyMessage)
	}
	if sessionID == "" {
		return "", invalidInput(MsgNoDocument)
	}
	content, err := s.store.Get(ctx, sessionID, session.KeyPDFContent)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return "", invalidInput(MsgNoDocument)
		}
		s.logger.WithField("session_id", sessionID).WithError(err).Error("load pdf content failed")
		return "", internalError(MsgRequestFailed, err)
	}
	if content == "" {
		return "", invalidInput(MsgNoDocument)
	}
	if s.answerer == nil {
		return "", internalError(MsgRequestFailed, errors.New("answer generator not configured"))
	}

	answer, err := s.answerer.Answer(ctx, message, content)
	if err != nil {
		log := s.logger.WithField("session_id", sessionID).WithError(err)
		if errors.Is(err, ai.ErrEmptyResponse) {
			log.Warn("model returned empty answer")
			return "", internalError(MsgEmptyAnswer, err)
		}
		log.Error("generate answer failed")
		return "", internalError(MsgRequestFailed, err)
	}
	if strings.TrimSpace(answer) == "" {
		return "", internalError(MsgEmptyAnswer, ai.ErrEmptyResponse)
	}
	return answer, nil
}
