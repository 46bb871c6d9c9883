package errx

// Type represents the category of error
type Type string

const (
	// TypeInternal represents internal server errors
	TypeInternal Type = "INTERNAL"

	// TypeValidation represents validation errors
	TypeValidation Type = "VALIDATION"

	// TypeAuthorization represents rejected credentials
	TypeAuthorization Type = "AUTHORIZATION"

	// TypeNotFound represents resource not found errors
	TypeNotFound Type = "NOT_FOUND"

	// TypeConflict represents concurrent modification errors
	TypeConflict Type = "CONFLICT"

	// TypeExternal represents errors from upstream services (completion backends, search)
	TypeExternal Type = "EXTERNAL"

	// TypeUnavailable represents a backing store that could not be reached in time
	TypeUnavailable Type = "UNAVAILABLE"
)

// String returns the string representation of the error type
func (t Type) String() string {
	return string(t)
}
