package assistant

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"pdfquery/internal/session"
)

const (
	DefaultTempFileCleanupInterval = time.Hour
	DefaultRemoveRetryDelay        = 500 * time.Millisecond
	removeAttempts                 = 3
	cleanConcurrency               = 4
)

// StartTempFileCleaner sweeps the upload directory every interval until ctx
// is done. Expired sessions are purged on the same tick when the store needs it.
func (s *Service) StartTempFileCleaner(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultTempFileCleanupInterval
	}
	go s.cleanupLoop(ctx, interval)
}

func (s *Service) cleanupLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.CleanTempFiles(ctx)
			s.purgeSessions(ctx)
		}
	}
}

// CleanTempFiles removes every regular file in the upload directory, and every
// symlink pointing at one, and returns how many were removed. Failures are
// logged, never returned.
func (s *Service) CleanTempFiles(ctx context.Context) int {
	entries, err := os.ReadDir(s.uploadDir)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.WithError(err).WithField("dir", s.uploadDir).Error("list upload dir failed")
		}
		return 0
	}

	var removed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cleanConcurrency)
	for _, entry := range entries {
		path := filepath.Join(s.uploadDir, entry.Name())
		if !isRegularFile(path, entry) {
			continue
		}
		g.Go(func() error {
			if s.removeWithRetry(gctx, path) {
				removed.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()
	return int(removed.Load())
}

// isRegularFile follows symlinks; only the link itself is ever removed.
func isRegularFile(path string, entry fs.DirEntry) bool {
	if entry.Type().IsRegular() {
		return true
	}
	if entry.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// removeWithRetry deletes path, retrying permission errors which is how a file
// still held open by another process shows up on some platforms.
func (s *Service) removeWithRetry(ctx context.Context, path string) bool {
	log := s.logger.WithField("file", path)
	for attempt := 1; attempt <= removeAttempts; attempt++ {
		err := s.remove(path)
		switch {
		case err == nil:
			return true
		case errors.Is(err, fs.ErrNotExist):
			return false
		case errors.Is(err, fs.ErrPermission):
			log.WithFields(logrus.Fields{"attempt": attempt}).Warn("temp file busy, retrying removal")
			if attempt == removeAttempts {
				break
			}
			select {
			case <-ctx.Done():
				return false
			case <-time.After(s.removeDelay):
			}
		default:
			log.WithError(err).Error("remove temp file failed")
			return false
		}
	}
	log.Error("could not remove temp file, likely still in use")
	return false
}

func (s *Service) purgeSessions(ctx context.Context) {
	purger, ok := s.store.(session.Purger)
	if !ok {
		return
	}
	n, err := purger.PurgeExpired(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("purge expired sessions failed")
		return
	}
	if n > 0 {
		s.logger.WithField("sessions", n).Debug("purged expired sessions")
	}
}
