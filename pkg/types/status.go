package types

// NodeExecutionStatus represents the current state of node execution
type NodeExecutionStatus string

const (
	StatusCompleted NodeExecutionStatus = "completed"
	StatusPending   NodeExecutionStatus = "pending" // Waiting for user input
	StatusReady     NodeExecutionStatus = "ready"   // Ready to execute
	StatusFailed    NodeExecutionStatus = "failed"
)

// IsTerminal reports whether a thread in this status can no longer be resumed.
func (s NodeExecutionStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}
