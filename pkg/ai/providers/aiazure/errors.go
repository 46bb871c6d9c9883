package aiazure

import (
	"net/http"

	"github.com/Sunbird-VA/sunbird-va-rag/pkg/errx"
)

var (
	// Error registry for Azure OpenAI provider
	errorRegistry = errx.NewRegistry("AZURE_OPENAI")

	ErrMissingEndpoint = errorRegistry.Register(
		"MISSING_ENDPOINT",
		errx.TypeValidation,
		http.StatusBadRequest,
		"Azure OpenAI endpoint is required",
	)

	ErrMissingDeployment = errorRegistry.Register(
		"MISSING_DEPLOYMENT",
		errx.TypeValidation,
		http.StatusBadRequest,
		"Model/deployment name is required for Azure OpenAI",
	)
)
