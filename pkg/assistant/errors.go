package assistant

import (
	"net/http"

	"github.com/Sunbird-VA/sunbird-va-rag/pkg/errx"
)

var ErrRegistry = errx.NewRegistry("ASSISTANT")

var (
	ErrEmptyQuestion = ErrRegistry.Register("EMPTY_QUESTION", errx.TypeValidation, http.StatusBadRequest, "Question is required")
	ErrGateway       = ErrRegistry.Register("GATEWAY", errx.TypeExternal, http.StatusBadGateway, "Completion backend failed")
	ErrPersist       = ErrRegistry.Register("PERSIST", errx.TypeInternal, http.StatusInternalServerError, "Failed to save the conversation")
)
