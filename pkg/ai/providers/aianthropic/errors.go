package aianthropic

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/Sunbird-VA/sunbird-va-rag/pkg/errx"
	"github.com/anthropics/anthropic-sdk-go"
)

var (
	// Error registry for Anthropic provider
	errorRegistry = errx.NewRegistry("ANTHROPIC")

	// API Errors
	ErrAPIRequest = errorRegistry.Register(
		"API_REQUEST_FAILED",
		errx.TypeExternal,
		http.StatusBadGateway,
		"Failed to make request to Anthropic API",
	)

	ErrAPIResponse = errorRegistry.Register(
		"API_RESPONSE_INVALID",
		errx.TypeExternal,
		http.StatusBadGateway,
		"Invalid response from Anthropic API",
	)

	ErrAPIUnauthorized = errorRegistry.Register(
		"API_UNAUTHORIZED",
		errx.TypeAuthorization,
		http.StatusUnauthorized,
		"Invalid or missing Anthropic API key",
	)

	ErrAPIRateLimit = errorRegistry.Register(
		"API_RATE_LIMIT",
		errx.TypeExternal,
		http.StatusTooManyRequests,
		"Anthropic API rate limit exceeded",
	)

	ErrAPIOverloaded = errorRegistry.Register(
		"API_OVERLOADED",
		errx.TypeUnavailable,
		http.StatusServiceUnavailable,
		"Anthropic API is overloaded",
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
		"Unsupported message role",
	)

	ErrMissingAPIKey = errorRegistry.Register(
		"MISSING_API_KEY",
		errx.TypeValidation,
		http.StatusBadRequest,
		"Anthropic API key not provided",
	)
)

// ParseAnthropicError maps an SDK error onto the registry
func ParseAnthropicError(err error) *errx.Error {
	if err == nil {
		return nil
	}

	errLower := strings.ToLower(err.Error())

	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		var code *errx.ErrorCode
		switch {
		case apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden:
			code = ErrAPIUnauthorized
		case apiErr.StatusCode == http.StatusTooManyRequests:
			code = ErrAPIRateLimit
		case apiErr.StatusCode == http.StatusNotFound:
			code = ErrModelNotFound
		case apiErr.StatusCode == 529 || apiErr.StatusCode == http.StatusServiceUnavailable:
			code = ErrAPIOverloaded
		case strings.Contains(errLower, "prompt is too long") || strings.Contains(errLower, "context"):
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

	switch {
	case strings.Contains(errLower, "authentication") || strings.Contains(errLower, "api key"):
		return errorRegistry.NewWithCause(ErrAPIUnauthorized, err)
	case strings.Contains(errLower, "rate limit") || strings.Contains(errLower, "rate_limit"):
		return errorRegistry.NewWithCause(ErrAPIRateLimit, err)
	case strings.Contains(errLower, "overloaded"):
		return errorRegistry.NewWithCause(ErrAPIOverloaded, err)
	}
	return errorRegistry.NewWithCause(ErrAPIRequest, err)
}
