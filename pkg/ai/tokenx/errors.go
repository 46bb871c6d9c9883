package tokenx

import (
	"net/http"

	"github.com/Sunbird-VA/sunbird-va-rag/pkg/errx"
)

var ErrRegistry = errx.NewRegistry("TOKENX")

var (
	ErrUnknownModel = ErrRegistry.Register("UNKNOWN_MODEL", errx.TypeValidation, http.StatusBadRequest, "No tokenizer encoding is known for this model")
)
