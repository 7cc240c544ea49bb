package graph

import (
	"fmt"
	"io"
	"strings"
)

// Info represents the graph structure for visualization
type Info struct {
	Entry string
	Nodes []string
	Edges []EdgeInfo
}

// EdgeInfo describes one rendered connection.
type EdgeInfo struct {
	From     string
	To       string
	Type     string // "direct", "branch", or "conditional"
	Metadata map[string]any
}

func (g *Graph[T]) GetGraphInfo() *Info {
	info := &Info{
		Entry: g.entryPoint,
		Nodes: append([]string(nil), g.order...),
	}

	conditional := make(map[string]bool)
	for _, node := range g.order {
		for _, branch := range g.branches[node] {
			if branch.Targets != nil {
				conditional[node] = true
				info.Edges = append(info.Edges, EdgeInfo{
					From:     node,
					To:       strings.Join(branch.Targets, ","),
					Type:     "conditional",
					Metadata: branch.Metadata,
				})
				continue
			}
			info.Edges = append(info.Edges, EdgeInfo{
				From:     node,
				To:       "*",
				Type:     "branch",
				Metadata: branch.Metadata,
			})
		}
	}

	for _, edge := range g.edges {
		// conditional targets are already listed on their branch
		if conditional[edge.From] {
			continue
		}
		info.Edges = append(info.Edges, EdgeInfo{
			From:     edge.From,
			To:       edge.To,
			Type:     "direct",
			Metadata: edge.Metadata,
		})
	}

	return info
}

// PrintGraph writes a plain text rendering of the graph.
func (g *Graph[T]) PrintGraph(w io.Writer) {
	info := g.GetGraphInfo()

	fmt.Fprintln(w, "Graph Structure:")
	fmt.Fprintf(w, "Entry Point: %s\n\n", info.Entry)

	fmt.Fprintln(w, "Nodes:")
	for _, node := range info.Nodes {
		suffix := ""
		if suspends, _ := g.nodes[node].Metadata["suspends"].(bool); suspends {
			suffix = " [suspends]"
		}
		if node == info.Entry {
			fmt.Fprintf(w, "  * %s (Entry)%s\n", node, suffix)
		} else {
			fmt.Fprintf(w, "  - %s%s\n", node, suffix)
		}
	}

	fmt.Fprintln(w, "\nEdges:")
	for _, edge := range info.Edges {
		switch edge.Type {
		case "direct":
			fmt.Fprintf(w, "  %s --> %s\n", edge.From, edge.To)
		case "conditional":
			fmt.Fprintf(w, "  %s --[condition]--> [%s]\n", edge.From, edge.To)
		case "branch":
			fmt.Fprintf(w, "  %s --[branch]--> *\n", edge.From)
		}
	}
}

// Mermaid renders the graph as a mermaid flowchart.
func (g *Graph[T]) Mermaid() string {
	info := g.GetGraphInfo()

	var b strings.Builder
	b.WriteString("flowchart TD\n")
	fmt.Fprintf(&b, "    %s --> %s\n", START, info.Entry)
	for _, edge := range info.Edges {
		switch edge.Type {
		case "direct":
			fmt.Fprintf(&b, "    %s --> %s\n", edge.From, edge.To)
		case "conditional":
			for _, to := range strings.Split(edge.To, ",") {
				fmt.Fprintf(&b, "    %s -.-> %s\n", edge.From, to)
			}
		}
	}
	return b.String()
}
