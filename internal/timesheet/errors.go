package timesheet

import (
	"errors"

	"github.com/avi3tal/emflow/pkg/types"
)

var (
	// ErrEmptyQuery is returned when a thread is started without a query.
	ErrEmptyQuery = errors.New("query is empty")

	// ErrUnknownIntent is returned when the classifier yields a label the graph cannot route.
	ErrUnknownIntent = errors.New("unknown intent")

	// ErrUnknownThread is returned when resuming a user that has no suspended thread.
	ErrUnknownThread = errors.New("unknown thread")

	// ErrInvalidPayload is returned when a resume payload sets none, or more than one, of its fields.
	ErrInvalidPayload = errors.New("invalid resume payload")

	// ErrPayloadMismatch is returned when a resume payload does not answer the outstanding question.
	ErrPayloadMismatch = errors.New("resume payload does not match the pending step")
)

// IsInputError reports whether err was caused by the caller's input rather than the system.
func IsInputError(err error) bool {
	return errors.Is(err, ErrEmptyQuery) ||
		errors.Is(err, ErrInvalidPayload) ||
		errors.Is(err, ErrPayloadMismatch) ||
		errors.Is(err, types.ErrInvalidResume)
}
