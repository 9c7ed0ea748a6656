package shared

import "errors"

var (
	// ErrNotFound indicates a referenced resource does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized indicates a request without a caller identity.
	ErrUnauthorized = errors.New("unauthorized")
)

// UserSafeMessage returns a message suitable for end users. Domain errors
// carry their own wording; everything else collapses to a generic message so
// backend details never leak into responses.
func UserSafeMessage(err error) string {
	var safe interface{ UserMessage() string }
	if errors.As(err, &safe) {
		return safe.UserMessage()
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return "The requested record could not be found."
	case errors.Is(err, ErrUnauthorized):
		return "You are not allowed to perform this action."
	default:
		return "Something went wrong. Please try again."
	}
}
