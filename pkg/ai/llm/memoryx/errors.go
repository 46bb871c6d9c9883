package memoryx

import (
	"net/http"

	"github.com/Sunbird-VA/sunbird-va-rag/pkg/errx"
)

var ErrRegistry = errx.NewRegistry("MEMORYX")

var (
	ErrStoreCorruption    = ErrRegistry.Register("STORE_CORRUPTION", errx.TypeInternal, http.StatusInternalServerError, "Stored conversation history could not be decoded")
	ErrStoreUnavailable   = ErrRegistry.Register("STORE_UNAVAILABLE", errx.TypeUnavailable, http.StatusServiceUnavailable, "Session store is unavailable")
	ErrStoreConflict      = ErrRegistry.Register("STORE_CONFLICT", errx.TypeConflict, http.StatusConflict, "Session was modified concurrently")
	ErrEncode             = ErrRegistry.Register("ENCODE", errx.TypeInternal, http.StatusInternalServerError, "Failed to encode conversation history")
	ErrUnknownCompression = ErrRegistry.Register("UNKNOWN_COMPRESSION", errx.TypeValidation, http.StatusBadRequest, "Unknown compression algorithm")
)
