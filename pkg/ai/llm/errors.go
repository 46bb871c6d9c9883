package llm

import (
	"net/http"

	"github.com/Sunbird-VA/sunbird-va-rag/pkg/errx"
)

var ErrRegistry = errx.NewRegistry("LLM")

var (
	ErrInvalidParams = ErrRegistry.Register("INVALID_PARAMS", errx.TypeValidation, http.StatusBadRequest, "Invalid completion parameters")
	ErrEmptyMessages = ErrRegistry.Register("EMPTY_MESSAGES", errx.TypeValidation, http.StatusBadRequest, "No messages to complete")
	ErrEmptyResponse = ErrRegistry.Register("EMPTY_RESPONSE", errx.TypeExternal, http.StatusBadGateway, "Completion backend returned no content")
)
