package types

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidResume marks a resume value that the suspended node could not accept.
// The engine keeps the thread suspended when a node fails with this error.
var ErrInvalidResume = errors.New("invalid resume value")

// Interrupt is what a suspended node exposes to the outside world while it waits.
type Interrupt struct {
	Kind    string `json:"kind"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// ResumeValue decodes the index-th answer delivered to the current node.
// It reports false when that answer has not arrived yet, in which case the node should suspend.
func (c Config[T]) ResumeValue(index int, dst any) (bool, error) {
	if index < 0 || index >= len(c.Resumes) {
		return false, nil
	}
	if err := json.Unmarshal(c.Resumes[index], dst); err != nil {
		return true, fmt.Errorf("%w: answer %d: %v", ErrInvalidResume, index, err)
	}
	return true, nil
}
