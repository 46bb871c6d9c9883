package fsxlocal

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/Sunbird-VA/sunbird-va-rag/pkg/fsx"
)

// LocalFileSystem implements fsx.FileReader over a directory on disk
type LocalFileSystem struct {
	basePath string // Root directory for all files
}

var _ fsx.FileReader = (*LocalFileSystem)(nil)

// NewLocalFileSystem creates a reader rooted at basePath. The directory must exist.
func NewLocalFileSystem(basePath string) (*LocalFileSystem, error) {
	absPath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fsx.ErrRegistry.NewWithCause(fsx.ErrRead, err).WithDetail("path", basePath)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, notFoundOr(err, basePath)
	}
	if !info.IsDir() {
		return nil, fsx.ErrRegistry.NewWithMessage(fsx.ErrRead, "base path is not a directory").WithDetail("path", basePath)
	}

	return &LocalFileSystem{basePath: absPath}, nil
}

// ============================================================================
// FileReader Implementation
// ============================================================================

func (lfs *LocalFileSystem) ReadFile(ctx context.Context, path string) ([]byte, error) {
	data, err := os.ReadFile(lfs.fullPath(path))
	if err != nil {
		return nil, notFoundOr(err, path)
	}
	return data, nil
}

func (lfs *LocalFileSystem) Stat(ctx context.Context, path string) (fsx.FileInfo, error) {
	info, err := os.Stat(lfs.fullPath(path))
	if err != nil {
		return fsx.FileInfo{}, notFoundOr(err, path)
	}
	return toFileInfo(path, info), nil
}

// List returns the direct children of path, directories included
func (lfs *LocalFileSystem) List(ctx context.Context, path string) ([]fsx.FileInfo, error) {
	entries, err := os.ReadDir(lfs.fullPath(path))
	if err != nil {
		return nil, notFoundOr(err, path)
	}

	infos := make([]fsx.FileInfo, 0, len(entries))
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue // vanished between ReadDir and Info
		}
		infos = append(infos, toFileInfo(filepath.ToSlash(filepath.Join(path, info.Name())), info))
	}
	return infos, nil
}

func (lfs *LocalFileSystem) Exists(ctx context.Context, path string) (bool, error) {
	_, err := os.Stat(lfs.fullPath(path))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fsx.ErrRegistry.NewWithCause(fsx.ErrRead, err).WithDetail("path", path)
}

// ============================================================================
// Helper Methods
// ============================================================================

// fullPath converts a relative path to absolute path
func (lfs *LocalFileSystem) fullPath(path string) string {
	return filepath.Join(lfs.basePath, filepath.FromSlash(path))
}

// GetBasePath returns the base path
func (lfs *LocalFileSystem) GetBasePath() string {
	return lfs.basePath
}

func toFileInfo(path string, info os.FileInfo) fsx.FileInfo {
	return fsx.FileInfo{
		Name:        info.Name(),
		Path:        filepath.ToSlash(path),
		Size:        info.Size(),
		ModTime:     info.ModTime(),
		IsDir:       info.IsDir(),
		ContentType: fsx.ContentTypeFor(info.Name()),
	}
}

func notFoundOr(err error, path string) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fsx.ErrRegistry.NewWithCause(fsx.ErrNotFound, err).WithDetail("path", path)
	}
	return fsx.ErrRegistry.NewWithCause(fsx.ErrRead, err).WithDetail("path", path)
}
