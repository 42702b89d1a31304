// Package filestorage stores uploaded files on the local filesystem under
// uuid-prefixed names so original filenames never collide.
package filestorage

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/dyilmaz/schoolhub/internal/pkg/logger"
)

// FileStorage defines the interface for file storage operations
type FileStorage interface {
	// SaveFile saves an uploaded file under subPath and returns the
	// relative path to store alongside the owning record.
	SaveFile(fileHeader *multipart.FileHeader, subPath string) (string, error)

	// DeleteFile removes a stored file. Deleting a missing file is not
	// an error.
	DeleteFile(filePath string) error

	// FullPath resolves a stored relative path to the filesystem path.
	FullPath(filePath string) string
}

// LocalStorage handles saving files to the local filesystem.
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates a LocalStorage rooted at basePath, creating the
// directory when missing.
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, os.ModePerm); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", basePath, err)
	}
	logger.Info().Str("path", basePath).Msg("Local storage directory ensured")

	return &LocalStorage{basePath: basePath}, nil
}

// SaveFile saves an uploaded file under a uuid-prefixed name inside
// subPath and returns the relative path.
func (ls *LocalStorage) SaveFile(fileHeader *multipart.FileHeader, subPath string) (string, error) {
	if fileHeader == nil {
		return "", nil
	}

	file, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer file.Close()

	dirPath := ls.basePath
	if subPath != "" {
		dirPath = filepath.Join(ls.basePath, subPath)
		if err := os.MkdirAll(dirPath, os.ModePerm); err != nil {
			return "", fmt.Errorf("failed to create subdirectory: %w", err)
		}
	}

	ext := filepath.Ext(fileHeader.Filename)
	uniqueName := uuid.New().String() + ext
	dstPath := filepath.Join(dirPath, uniqueName)

	dst, err := os.Create(dstPath)
	if err != nil {
		return "", fmt.Errorf("failed to create destination file: %w", err)
	}
	defer dst.Close()

	if _, err = io.Copy(dst, file); err != nil {
		_ = os.Remove(dstPath)
		return "", fmt.Errorf("failed to save file content: %w", err)
	}

	relPath := uniqueName
	if subPath != "" {
		relPath = filepath.Join(subPath, uniqueName)
	}

	logger.Info().
		Str("filename", fileHeader.Filename).
		Str("saved_as", relPath).
		Msg("File saved")
	return relPath, nil
}

// DeleteFile removes a stored file by its relative path. Missing files are
// treated as already deleted.
func (ls *LocalStorage) DeleteFile(filePath string) error {
	if filePath == "" {
		return nil
	}

	physicalPath := ls.FullPath(filePath)
	if physicalPath == "" {
		return fmt.Errorf("invalid file path: %s", filePath)
	}

	if _, err := os.Stat(physicalPath); os.IsNotExist(err) {
		logger.Warn().Str("path", physicalPath).Msg("File to delete does not exist")
		return nil
	}

	if err := os.Remove(physicalPath); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}

	logger.Info().Str("path", physicalPath).Msg("File deleted")
	return nil
}

// FullPath resolves a stored relative path against the storage root,
// rejecting paths that escape it.
func (ls *LocalStorage) FullPath(filePath string) string {
	cleaned := filepath.Clean(filePath)
	if cleaned == "." || cleaned == string(filepath.Separator) || filepath.IsAbs(cleaned) {
		return ""
	}
	for _, part := range filepath.SplitList(cleaned) {
		if part == ".." {
			return ""
		}
	}
	return filepath.Join(ls.basePath, cleaned)
}
