package graph

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/avi3tal/emflow/pkg/state"
	"github.com/avi3tal/emflow/pkg/types"
)

// Constants for special nodes
const (
	START            = "START"
	END              = "END"
	defaultGraphName = "graph"
)

// NodeFunc is the unit of work executed at a node.
type NodeFunc[T state.GraphState[T]] func(context.Context, T, types.Config[T]) (types.NodeResponse[T], error)

// BranchFunc picks the next node from the merged state.
type BranchFunc[T state.GraphState[T]] func(context.Context, T, types.Config[T]) (string, error)

// NodeSpec represents a node's specification
type NodeSpec[T state.GraphState[T]] struct {
	Name     string
	Function NodeFunc[T]
	Metadata map[string]any
}

// Edge represents a connection between nodes
type Edge struct {
	From     string
	To       string
	Metadata map[string]any
}

// Branch represents a conditional branch in the graph.
// When Targets is set the chosen node must be one of them.
type Branch[T state.GraphState[T]] struct {
	Path     BranchFunc[T]
	Targets  []string
	Metadata map[string]any
}

// Graph represents the base graph structure
type Graph[T state.GraphState[T]] struct {
	graphID  string
	nodes    map[string]NodeSpec[T]
	order    []string
	edges    []Edge
	branches map[string][]Branch[T]

	entryPoint string
	compiled   bool
}

type Option func(*graphOptions)

type graphOptions struct {
	id string
}

// WithGraphID pins the graph identifier. Checkpoints are keyed by it, so
// graphs that must resume across process restarts need a stable one.
func WithGraphID(id string) Option {
	return func(o *graphOptions) {
		o.id = id
	}
}

// NewGraph creates a new graph instance
func NewGraph[T state.GraphState[T]](name string, opt ...Option) *Graph[T] {
	graphName := defaultGraphName
	if name != "" {
		graphName = name
	}

	var opts graphOptions
	for _, o := range opt {
		o(&opts)
	}

	g := Graph[T]{
		graphID:  opts.id,
		nodes:    make(map[string]NodeSpec[T]),
		branches: make(map[string][]Branch[T]),
	}
	if g.graphID == "" {
		graphName = strings.ReplaceAll(graphName, " ", "-")
		g.graphID = fmt.Sprintf("%s-%s", graphName, uuid.New().String())
	}
	return &g
}

// ID returns the graph identifier used for checkpoint keys.
func (g *Graph[T]) ID() string {
	return g.graphID
}

// HasNode reports whether a node with this name was added.
func (g *Graph[T]) HasNode(name string) bool {
	_, ok := g.nodes[name]
	return ok
}

// AddNode adds a new node to the graph
func (g *Graph[T]) AddNode(name string, fn NodeFunc[T], metadata map[string]any) error {
	if g.compiled {
		return ErrAlreadyCompiled
	}
	if name == "" || name == START || name == END {
		return NewValidationError("AddNode", name, ErrInvalidNode)
	}
	if fn == nil {
		return NewValidationError("AddNode", name, errors.New("node function is nil"))
	}
	if _, exists := g.nodes[name]; exists {
		return NewValidationError("AddNode", name, ErrDuplicateNode)
	}

	g.nodes[name] = NodeSpec[T]{
		Name:     name,
		Function: fn,
		Metadata: metadata,
	}
	g.order = append(g.order, name)
	return nil
}

// AddEdge methods for edge management
func (g *Graph[T]) AddEdge(from, to string, metadata map[string]any) error {
	if g.compiled {
		return ErrAlreadyCompiled
	}

	if err := g.validateEdgeNodes(from, []string{to}); err != nil {
		return err
	}

	g.edges = append(g.edges, Edge{
		From:     from,
		To:       to,
		Metadata: metadata,
	})
	return nil
}

// AddBranch adds a conditional branch from a node.
// A branch that returns "" lets routing fall through to the plain edges.
func (g *Graph[T]) AddBranch(from string, path BranchFunc[T], metadata map[string]any) error {
	if g.compiled {
		return ErrAlreadyCompiled
	}

	if _, exists := g.nodes[from]; !exists {
		return NewValidationError("AddBranch", from, ErrNodeNotFound)
	}

	if path == nil {
		return NewValidationError("AddBranch", from, errors.New("branch function is nil"))
	}

	g.branches[from] = append(g.branches[from], Branch[T]{
		Path:     path,
		Metadata: metadata,
	})
	return nil
}

// AddConditionalEdge routes from a node to exactly one of possibleTargets.
// Choosing anything else fails the run with ErrInvalidTransition.
func (g *Graph[T]) AddConditionalEdge(
	from string,
	possibleTargets []string,
	condition BranchFunc[T],
	metadata map[string]any,
) error {
	if len(possibleTargets) == 0 {
		return NewValidationError("AddConditionalEdge", from, errors.New("no possible targets"))
	}
	if err := g.validateEdgeNodes(from, possibleTargets); err != nil {
		return err
	}

	for _, target := range possibleTargets {
		if err := g.AddEdge(from, target, metadata); err != nil {
			return errors.Wrapf(err, "failed to add conditional edge target %s", target)
		}
	}

	g.branches[from] = append(g.branches[from], Branch[T]{
		Path:     condition,
		Targets:  slices.Clone(possibleTargets),
		Metadata: metadata,
	})
	return nil
}

// validateEdgeNodes validates source and target nodes
func (g *Graph[T]) validateEdgeNodes(from string, targets []string) error {
	if from == END {
		return NewValidationError("edge", from, errors.New("cannot add edge from END node"))
	}

	if _, exists := g.nodes[from]; !exists {
		return NewValidationError("edge", from, ErrNodeNotFound)
	}

	for _, target := range targets {
		if target == START {
			return NewValidationError("edge", target, errors.New("cannot add edge to START node"))
		}
		if target != END {
			if _, exists := g.nodes[target]; !exists {
				return NewValidationError("edge", target, ErrNodeNotFound)
			}
		}
	}

	return nil
}

// SetEntryPoint sets the entry point of the graph
func (g *Graph[T]) SetEntryPoint(name string) error {
	if g.compiled {
		return ErrAlreadyCompiled
	}

	if name == END {
		return NewValidationError("SetEntryPoint", name, errors.New("cannot set END as entry point"))
	}

	if _, exists := g.nodes[name]; !exists {
		return NewValidationError("SetEntryPoint", name, ErrNodeNotFound)
	}

	g.entryPoint = name
	return nil
}

// SetEndPoint connects a node to END.
func (g *Graph[T]) SetEndPoint(name string) error {
	return g.AddEdge(name, END, nil)
}

// Validate checks that the graph has an entry point, that every node is
// reachable from it and that END can be reached.
func (g *Graph[T]) Validate() error {
	if g.entryPoint == "" {
		return NewValidationError("Validate", "", ErrNoEntryPoint)
	}

	if _, exists := g.nodes[g.entryPoint]; !exists {
		return NewValidationError("Validate", g.entryPoint, ErrNodeNotFound)
	}

	reachable := make(map[string]bool)
	g.dfs(g.entryPoint, reachable)

	for _, node := range g.order {
		if !reachable[node] {
			return NewValidationError("Validate", node, errors.New("node is unreachable from entry point"))
		}
	}

	if !reachable[END] {
		return NewValidationError("Validate", "", ErrNoEndPoint)
	}

	return nil
}

func (g *Graph[T]) dfs(node string, visited map[string]bool) {
	visited[node] = true
	for _, next := range g.successors(node) {
		if !visited[next] {
			g.dfs(next, visited)
		}
	}
}

// successors lists the statically known targets of a node.
func (g *Graph[T]) successors(node string) []string {
	var out []string
	for _, edge := range g.edges {
		if edge.From == node {
			out = append(out, edge.To)
		}
	}
	for _, branch := range g.branches[node] {
		out = append(out, branch.Targets...)
	}
	return out
}

// Compile validates the graph and freezes it.
func (g *Graph[T]) Compile(opt ...CompilationOption[T]) (*CompiledGraph[T], error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	g.compiled = true

	return &CompiledGraph[T]{
		graph:  g,
		config: NewConfig[T](g.graphID, opt...),
	}, nil
}
