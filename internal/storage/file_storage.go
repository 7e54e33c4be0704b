// Package storage persists uploaded attachment files on the local
// filesystem. The signoff engine only ever sees the stored path and name.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// AttachmentStore saves uploaded attachment content and yields the path the
// metadata row records.
type AttachmentStore interface {
	Save(workflowID int64, fileName string, content []byte) (string, error)
	Read(path string) ([]byte, error)
}

// LocalStore implements AttachmentStore on the local filesystem, one
// directory per workflow under the configured upload root.
type LocalStore struct {
	baseDir string
	logger  *zap.Logger
}

// NewLocalStore creates a local attachment store rooted at baseDir.
func NewLocalStore(baseDir string, logger *zap.Logger) *LocalStore {
	return &LocalStore{
		baseDir: baseDir,
		logger:  logger,
	}
}

// Save writes the file under <base>/<workflowID>/<fileName> and returns the
// stored path.
func (s *LocalStore) Save(workflowID int64, fileName string, content []byte) (string, error) {
	// Strip any client-supplied directory components.
	fileName = filepath.Base(fileName)
	fullPath := filepath.Join(s.baseDir, fmt.Sprintf("%d", workflowID), fileName)

	if err := s.validatePath(fullPath); err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		s.logger.Error("Failed to create upload directory",
			zap.String("path", filepath.Dir(fullPath)),
			zap.Error(err))
		return "", fmt.Errorf("failed to create directories: %w", err)
	}

	if err := os.WriteFile(fullPath, content, 0644); err != nil {
		s.logger.Error("Failed to write attachment",
			zap.String("path", fullPath),
			zap.Error(err))
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	s.logger.Debug("Attachment saved",
		zap.String("path", fullPath),
		zap.Int("size", len(content)))

	return fullPath, nil
}

// Read returns the content of a previously stored attachment.
func (s *LocalStore) Read(path string) ([]byte, error) {
	if err := s.validatePath(path); err != nil {
		return nil, err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return content, nil
}

// validatePath rejects paths that escape the upload root.
func (s *LocalStore) validatePath(fullPath string) error {
	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}
	absBase, err := filepath.Abs(s.baseDir)
	if err != nil {
		return fmt.Errorf("failed to resolve base path: %w", err)
	}
	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) && absPath != absBase {
		return fmt.Errorf("path escapes upload directory: %s", fullPath)
	}
	return nil
}
