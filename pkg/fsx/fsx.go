package fsx

import (
	"context"
	"net/http"
	"time"

	"github.com/Sunbird-VA/sunbird-va-rag/pkg/errx"
)

// FileInfo represents information about a file
type FileInfo struct {
	Name        string    // Base name of the file
	Path        string    // Path relative to the reader root
	Size        int64     // File size in bytes
	ModTime     time.Time // Modification time
	IsDir       bool      // Is a directory
	ContentType string    // MIME type (when available)
}

// FileReader provides read-only operations. Paths are relative to the
// reader root and use forward slashes.
type FileReader interface {
	ReadFile(ctx context.Context, path string) ([]byte, error)
	Stat(ctx context.Context, path string) (FileInfo, error)
	List(ctx context.Context, path string) ([]FileInfo, error)
	Exists(ctx context.Context, path string) (bool, error)
}

var ErrRegistry = errx.NewRegistry("FSX")

var (
	ErrNotFound = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "File not found")
	ErrRead     = ErrRegistry.Register("READ", errx.TypeInternal, http.StatusInternalServerError, "Failed to read file")
)

// ContentTypeFor guesses a MIME type from the file extension
func ContentTypeFor(name string) string {
	switch ext(name) {
	case ".md", ".markdown":
		return "text/markdown"
	case ".txt":
		return "text/plain"
	case ".json":
		return "application/json"
	case ".yaml", ".yml":
		return "application/yaml"
	case ".pdf":
		return "application/pdf"
	case ".html", ".htm":
		return "text/html"
	default:
		return "application/octet-stream"
	}
}

// IsText reports whether a file is worth indexing as plain text
func IsText(info FileInfo) bool {
	switch ContentTypeFor(info.Name) {
	case "text/markdown", "text/plain", "text/html":
		return true
	}
	return false
}

func ext(name string) string {
	for i := len(name) - 1; i >= 0 && name[i] != '/'; i-- {
		if name[i] == '.' {
			return name[i:]
		}
	}
	return ""
}
