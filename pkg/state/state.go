// Package state defines the contract a workflow state must satisfy to be threaded through a graph.
package state

// Mergeable folds a node's output into the running state.
type Mergeable[T any] interface {
	Merge(T) T
}

// State is validated at every step boundary.
type State interface {
	Validate() error
}

// GraphState combines both interfaces for graph states.
type GraphState[T any] interface {
	State
	Mergeable[T]
}
