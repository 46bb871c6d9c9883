package aibedrock

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/Sunbird-VA/sunbird-va-rag/pkg/errx"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

var (
	// Error registry for Bedrock provider
	errorRegistry = errx.NewRegistry("BEDROCK")

	ErrAPIRequest = errorRegistry.Register(
		"API_REQUEST_FAILED",
		errx.TypeExternal,
		http.StatusBadGateway,
		"Failed to make request to Bedrock",
	)

	ErrAPIResponse = errorRegistry.Register(
		"API_RESPONSE_INVALID",
		errx.TypeExternal,
		http.StatusBadGateway,
		"Invalid response from Bedrock",
	)

	ErrAPIUnauthorized = errorRegistry.Register(
		"API_UNAUTHORIZED",
		errx.TypeAuthorization,
		http.StatusUnauthorized,
		"Access to the Bedrock model was denied",
	)

	ErrAPIRateLimit = errorRegistry.Register(
		"API_RATE_LIMIT",
		errx.TypeExternal,
		http.StatusTooManyRequests,
		"Bedrock request was throttled",
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

	ErrInvalidMessage = errorRegistry.Register(
		"INVALID_MESSAGE",
		errx.TypeValidation,
		http.StatusBadRequest,
		"Bedrock rejected the request",
	)

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
)

// ParseBedrockError maps a Bedrock SDK error to an errx.Error
func ParseBedrockError(err error) *errx.Error {
	if err == nil {
		return nil
	}

	var customErr *errx.Error
	if errx.As(err, &customErr) {
		return customErr
	}

	var (
		throttled  *types.ThrottlingException
		denied     *types.AccessDeniedException
		notFound   *types.ResourceNotFoundException
		validation *types.ValidationException
	)
	switch {
	case errors.As(err, &throttled):
		return errorRegistry.NewWithCause(ErrAPIRateLimit, err)
	case errors.As(err, &denied):
		return errorRegistry.NewWithCause(ErrAPIUnauthorized, err)
	case errors.As(err, &notFound):
		return errorRegistry.NewWithCause(ErrModelNotFound, err)
	case errors.As(err, &validation):
		msg := strings.ToLower(validation.ErrorMessage())
		if strings.Contains(msg, "too long") || strings.Contains(msg, "too many tokens") {
			return errorRegistry.NewWithCause(ErrContextLengthExceeded, err)
		}
		return errorRegistry.NewWithCause(ErrInvalidMessage, err)
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errorRegistry.NewWithCause(ErrAPIRequest, err)
	}

	errLower := strings.ToLower(err.Error())

	var baseErr *errx.ErrorCode
	switch {
	case strings.Contains(errLower, "accessdenied") ||
		strings.Contains(errLower, "access denied") ||
		strings.Contains(errLower, "credentials"):
		baseErr = ErrAPIUnauthorized
	case strings.Contains(errLower, "throttl"):
		baseErr = ErrAPIRateLimit
	case strings.Contains(errLower, "input is too long"):
		baseErr = ErrContextLengthExceeded
	default:
		baseErr = ErrAPIRequest
	}

	return errorRegistry.NewWithCause(baseErr, err)
}
