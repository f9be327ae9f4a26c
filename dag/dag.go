// Package dag holds the dependency graph behind a saga plan: named nodes,
// stable topological ordering and Graphviz export.
package dag

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/encoding"
	"gonum.org/v1/gonum/graph/encoding/dot"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

type Graph struct {
	*simple.DirectedGraph
	byName map[string]*Node
}

func New() *Graph {
	return &Graph{
		DirectedGraph: simple.NewDirectedGraph(),
		byName:        make(map[string]*Node),
	}
}

// Node is a graph node identified by a unique name. Node IDs grow in
// insertion order, which Order uses to break ties.
type Node struct {
	graph.Node
	Name  string
	attrs encoding.Attributes
}

// DOTID implements dot.Node so exported graphs show step names.
func (n *Node) DOTID() string {
	return n.Name
}

func (n *Node) Attributes() []encoding.Attribute {
	return n.attrs.Attributes()
}

func (n *Node) SetAttribute(attr encoding.Attribute) error {
	return n.attrs.SetAttribute(attr)
}

// AddNamed adds a node with the given name. Names must be unique.
func (g *Graph) AddNamed(name, label string) (*Node, error) {
	if _, exists := g.byName[name]; exists {
		return nil, fmt.Errorf("node with name '%s' already exists", name)
	}
	n := &Node{Node: g.DirectedGraph.NewNode(), Name: name}
	if label != "" {
		if err := n.SetAttribute(encoding.Attribute{Key: "label", Value: label}); err != nil {
			return nil, err
		}
	}
	g.DirectedGraph.AddNode(n)
	g.byName[name] = n
	return n, nil
}

// Named returns the node with the given name.
func (g *Graph) Named(name string) (*Node, bool) {
	n, ok := g.byName[name]
	return n, ok
}

// Connect adds an edge meaning "from must run before to".
func (g *Graph) Connect(from, to string) error {
	fromNode, ok := g.byName[from]
	if !ok {
		return fmt.Errorf("node '%s' does not exist", from)
	}
	toNode, ok := g.byName[to]
	if !ok {
		return fmt.Errorf("node '%s' does not exist", to)
	}
	if fromNode.ID() == toNode.ID() {
		return fmt.Errorf("node '%s' cannot depend on itself", from)
	}
	g.SetEdge(simple.Edge{F: fromNode, T: toNode})
	return nil
}

// Order returns the nodes in topological order. Among nodes that are ready
// at the same time, the one added first comes first. A cycle yields a
// topo.Unorderable error.
func (g *Graph) Order() ([]*Node, error) {
	if _, err := topo.Sort(g.DirectedGraph); err != nil {
		return nil, err
	}

	indegree := make(map[int64]int)
	ready := make([]graph.Node, 0)
	nodes := g.DirectedGraph.Nodes()
	for nodes.Next() {
		n := nodes.Node()
		indegree[n.ID()] = g.DirectedGraph.To(n.ID()).Len()
		if indegree[n.ID()] == 0 {
			ready = append(ready, n)
		}
	}

	order := make([]*Node, 0, len(indegree))
	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool {
			return ready[i].ID() < ready[j].ID()
		})
		next := ready[0]
		ready = ready[1:]
		order = append(order, next.(*Node))

		successors := g.DirectedGraph.From(next.ID())
		for successors.Next() {
			id := successors.Node().ID()
			indegree[id]--
			if indegree[id] == 0 {
				ready = append(ready, successors.Node())
			}
		}
	}
	return order, nil
}

// ExportToDot exports the graph to Graphviz .dot format.
func (g *Graph) ExportToDot(name string) (string, error) {
	data, err := dot.Marshal(g.DirectedGraph, name, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to export DAG to DOT format: %w", err)
	}
	return string(data), nil
}
