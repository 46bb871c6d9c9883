package aiopenai

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/Sunbird-VA/sunbird-va-rag/pkg/errx"
	"github.com/openai/openai-go/v3"
)

var (
	// Error registry for OpenAI provider
	errorRegistry = errx.NewRegistry("OPENAI")

	// API Errors
	ErrAPIRequest = errorRegistry.Register(
		"API_REQUEST_FAILED",
		errx.TypeExternal,
		http.StatusBadGateway,
		"Failed to make request to OpenAI API",
	)

	ErrAPIUnauthorized = errorRegistry.Register(
		"API_UNAUTHORIZED",
		errx.TypeAuthorization,
		http.StatusUnauthorized,
		"Invalid or missing OpenAI API key",
	)

	ErrAPIRateLimit = errorRegistry.Register(
		"API_RATE_LIMIT",
		errx.TypeExternal,
		http.StatusTooManyRequests,
		"OpenAI API rate limit exceeded",
	)

	ErrAPIQuotaExceeded = errorRegistry.Register(
		"API_QUOTA_EXCEEDED",
		errx.TypeExternal,
		http.StatusForbidden,
		"OpenAI API quota exceeded",
	)

	ErrModelNotFound = errorRegistry.Register(
		"MODEL_NOT_FOUND",
		errx.TypeValidation,
		http.StatusNotFound,
		"Requested model not found or not accessible",
	)

	ErrContextLengthExceeded = errorRegistry.Register(
		"CONTEXT_LENGTH_EXCEEDED",
		errx.TypeValidation,
		http.StatusBadRequest,
		"Context length exceeds model maximum",
	)

	ErrInvalidRequest = errorRegistry.Register(
		"INVALID_REQUEST",
		errx.TypeValidation,
		http.StatusBadRequest,
		"Invalid request parameters",
	)

	// Input Validation Errors
	ErrEmptyMessages = errorRegistry.Register(
		"EMPTY_MESSAGES",
		errx.TypeValidation,
		http.StatusBadRequest,
		"Messages array cannot be empty",
	)

	ErrUnsupportedRole = errorRegistry.Register(
		"UNSUPPORTED_ROLE",
		errx.TypeValidation,
		http.StatusBadRequest,
		"Message role is not supported",
	)

	ErrEmptyEmbeddingInput = errorRegistry.Register(
		"EMPTY_EMBEDDING_INPUT",
		errx.TypeValidation,
		http.StatusBadRequest,
		"Embedding input cannot be empty",
	)

	// Response Errors
	ErrNoChoicesInResponse = errorRegistry.Register(
		"NO_CHOICES_IN_RESPONSE",
		errx.TypeExternal,
		http.StatusBadGateway,
		"OpenAI API returned no choices",
	)

	ErrNoEmbeddingReturned = errorRegistry.Register(
		"NO_EMBEDDING_RETURNED",
		errx.TypeExternal,
		http.StatusBadGateway,
		"OpenAI API returned no embedding",
	)
)

// ParseOpenAIError maps an SDK error onto the registry. HTTP status codes
// win when the SDK exposes them; the message is inspected otherwise.
func ParseOpenAIError(err error) *errx.Error {
	if err == nil {
		return nil
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		msg := strings.ToLower(apiErr.Message + " " + apiErr.Code + " " + apiErr.Type)
		var code *errx.ErrorCode
		switch {
		case apiErr.StatusCode == http.StatusUnauthorized:
			code = ErrAPIUnauthorized
		case apiErr.StatusCode == http.StatusTooManyRequests && strings.Contains(msg, "quota"):
			code = ErrAPIQuotaExceeded
		case apiErr.StatusCode == http.StatusTooManyRequests:
			code = ErrAPIRateLimit
		case apiErr.StatusCode == http.StatusNotFound:
			code = ErrModelNotFound
		case strings.Contains(msg, "context_length") || strings.Contains(msg, "maximum context"):
			code = ErrContextLengthExceeded
		case apiErr.StatusCode == http.StatusBadRequest:
			code = ErrInvalidRequest
		default:
			code = ErrAPIRequest
		}
		return errorRegistry.NewWithCause(code, err).WithDetail("status_code", apiErr.StatusCode)
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errorRegistry.NewWithCause(ErrAPIRequest, err)
	}

	errLower := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errLower, "unauthorized") ||
		strings.Contains(errLower, "invalid api key") ||
		strings.Contains(errLower, "incorrect api key"):
		return errorRegistry.NewWithCause(ErrAPIUnauthorized, err)
	case strings.Contains(errLower, "rate limit") || strings.Contains(errLower, "rate_limit"):
		return errorRegistry.NewWithCause(ErrAPIRateLimit, err)
	case strings.Contains(errLower, "quota"):
		return errorRegistry.NewWithCause(ErrAPIQuotaExceeded, err)
	case strings.Contains(errLower, "model") && strings.Contains(errLower, "not found"):
		return errorRegistry.NewWithCause(ErrModelNotFound, err)
	case strings.Contains(errLower, "context length") || strings.Contains(errLower, "maximum context"):
		return errorRegistry.NewWithCause(ErrContextLengthExceeded, err)
	}
	return errorRegistry.NewWithCause(ErrAPIRequest, err)
}
