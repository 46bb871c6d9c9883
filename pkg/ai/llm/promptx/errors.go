package promptx

import (
	"net/http"

	"github.com/Sunbird-VA/sunbird-va-rag/pkg/errx"
)

var ErrRegistry = errx.NewRegistry("PROMPTX")

var (
	ErrTemplateLoad     = ErrRegistry.Register("TEMPLATE_LOAD", errx.TypeInternal, http.StatusInternalServerError, "Failed to load prompt template")
	ErrTemplateNotFound = ErrRegistry.Register("TEMPLATE_NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Prompt template not registered")
	ErrTemplateRender   = ErrRegistry.Register("TEMPLATE_RENDER", errx.TypeInternal, http.StatusInternalServerError, "Failed to render prompt template")
	ErrInvalidBudget    = ErrRegistry.Register("INVALID_BUDGET", errx.TypeValidation, http.StatusBadRequest, "Token budget must be positive")
)
