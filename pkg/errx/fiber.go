package errx

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// HTTPErrorResponse represents the JSON error envelope returned to clients
type HTTPErrorResponse struct {
	Error           string         `json:"error"`
	Code            string         `json:"code"`
	Type            string         `json:"type"`
	Status          int            `json:"status"`
	RequestID       string         `json:"request_id,omitempty"`
	Details         map[string]any `json:"details,omitempty"`
	UnderlyingError string         `json:"underlying_error,omitempty"`
}

// ToHTTPResponse converts an Error to an HTTPErrorResponse
func (e *Error) ToHTTPResponse() HTTPErrorResponse {
	resp := HTTPErrorResponse{
		Error:  e.Message,
		Code:   e.Code,
		Type:   string(e.Type),
		Status: e.HTTPStatus,
	}
	if len(e.Details) > 0 {
		resp.Details = e.Details
	}
	return resp
}

// WriteFiber renders err as a JSON error response. Fiber errors keep their
// status; errx errors use their registered status; anything else is a 500.
// The underlying cause is only exposed when debug is set.
func WriteFiber(c *fiber.Ctx, err error, debug bool) error {
	requestID := c.Get(fiber.HeaderXRequestID)

	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(HTTPErrorResponse{
			Error:     fe.Message,
			Code:      "FIBER_ERROR",
			Type:      string(TypeValidation),
			Status:    fe.Code,
			RequestID: requestID,
		})
	}

	var e *Error
	if errors.As(err, &e) {
		resp := e.ToHTTPResponse()
		resp.RequestID = requestID
		if debug && e.Err != nil {
			resp.UnderlyingError = e.Err.Error()
		}
		return c.Status(e.HTTPStatus).JSON(resp)
	}

	return c.Status(fiber.StatusInternalServerError).JSON(HTTPErrorResponse{
		Error:     "An unexpected error occurred",
		Code:      "INTERNAL_ERROR",
		Type:      string(TypeInternal),
		Status:    fiber.StatusInternalServerError,
		RequestID: requestID,
	})
}
