package query

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/smadinen7/Market-Intelligence-Assistant/pkg/common"
	"github.com/smadinen7/Market-Intelligence-Assistant/pkg/store"
)

// ErrGraphQueryEmpty signals that a structured query found nothing to answer
// from. It is not a failure: the router falls back to the report text.
var ErrGraphQueryEmpty = errors.New("graph query returned no results")

// Graph is the read side of a session graph.
type Graph interface {
	Node(id string) (common.Node, bool)
	Nodes(t common.NodeType) []common.Node
	Self() (common.Node, bool)
	Neighbors(id string, t common.EdgeType, dir store.Direction) []string
	SharedTargets(a, b string, t common.EdgeType) []string
	Edges(id string, t common.EdgeType) []common.Edge
	HasEdge(t common.EdgeType, fromID, toID string) bool
}

// Operation names the traversal that produced a subgraph.
type Operation string

const (
	OpSharedTargets     Operation = "shared_targets"
	OpCompetitorOverlap Operation = "competitor_overlap"
	OpNeighborhood      Operation = "neighborhood"
)

// SubgraphEdge is an edge annotated with the names of its endpoints.
type SubgraphEdge struct {
	Type     common.EdgeType `json:"type"`
	From     string          `json:"from"`
	To       string          `json:"to"`
	FromName string          `json:"from_name"`
	ToName   string          `json:"to_name"`
}

// Subgraph is the structured result of a graph query.
//
// Focus holds the nodes the query started from, Nodes the nodes found.
type Subgraph struct {
	Operation Operation       `json:"operation"`
	EdgeType  common.EdgeType `json:"edge_type,omitempty"`
	Focus     []common.Node   `json:"focus"`
	Nodes     []common.Node   `json:"nodes"`
	Edges     []SubgraphEdge  `json:"edges"`
}

// Empty reports whether the query found no result nodes.
func (s *Subgraph) Empty() bool {
	return s == nil || len(s.Nodes) == 0
}

// JSON renders the subgraph for the answer collaborator.
func (s *Subgraph) JSON() (string, error) {
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal subgraph: %w", err)
	}
	return string(b), nil
}

// Names returns the names of the result nodes in order.
func (s *Subgraph) Names() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.Nodes))
	for i, n := range s.Nodes {
		out[i] = n.Name
	}
	return out
}

// Engine runs read-only traversals over a session graph.
type Engine struct {
	graph Graph
}

func NewEngine(g Graph) *Engine {
	return &Engine{graph: g}
}

// SharedTargets returns the nodes both a and b reach over edges of type t,
// together with the edges that connect them.
func (e *Engine) SharedTargets(a, b string, t common.EdgeType) (*Subgraph, error) {
	focus, err := e.nodes(a, b)
	if err != nil {
		return nil, err
	}

	sg := &Subgraph{Operation: OpSharedTargets, EdgeType: t, Focus: focus}
	for _, id := range e.graph.SharedTargets(a, b, t) {
		n, ok := e.graph.Node(id)
		if !ok {
			continue
		}
		sg.Nodes = append(sg.Nodes, n)
		for _, from := range []string{a, b} {
			if e.graph.HasEdge(t, from, id) {
				sg.Edges = append(sg.Edges, e.edge(t, from, id))
			}
		}
	}
	return sg, nil
}

// CompetitorOverlap returns the companies that compete with both a and b.
func (e *Engine) CompetitorOverlap(a, b string) (*Subgraph, error) {
	sg, err := e.SharedTargets(a, b, common.EdgeCompetesWith)
	if err != nil {
		return nil, err
	}
	sg.Operation = OpCompetitorOverlap
	return sg, nil
}

// Neighborhood returns every node adjacent to one of the focus ids and the
// edges connecting them. Focus nodes adjacent to each other are reported as
// results too.
func (e *Engine) Neighborhood(ids ...string) (*Subgraph, error) {
	focus, err := e.nodes(ids...)
	if err != nil {
		return nil, err
	}

	sg := &Subgraph{Operation: OpNeighborhood, Focus: focus}
	seenNodes := make(map[string]struct{})
	seenEdges := make(map[string]struct{})
	for _, f := range focus {
		for _, edge := range e.graph.Edges(f.ID, "") {
			if _, ok := seenEdges[edge.Key()]; !ok {
				seenEdges[edge.Key()] = struct{}{}
				sg.Edges = append(sg.Edges, e.edge(edge.Type, edge.From, edge.To))
			}
			other := edge.To
			if other == f.ID {
				other = edge.From
			}
			if _, ok := seenNodes[other]; ok {
				continue
			}
			n, ok := e.graph.Node(other)
			if !ok {
				continue
			}
			seenNodes[other] = struct{}{}
			sg.Nodes = append(sg.Nodes, n)
		}
	}

	slices.SortFunc(sg.Nodes, func(a, b common.Node) int {
		return strings.Compare(a.ID, b.ID)
	})
	slices.SortFunc(sg.Edges, func(a, b SubgraphEdge) int {
		if c := strings.Compare(a.From, b.From); c != 0 {
			return c
		}
		if c := strings.Compare(a.To, b.To); c != 0 {
			return c
		}
		return strings.Compare(string(a.Type), string(b.Type))
	})
	return sg, nil
}

func (e *Engine) nodes(ids ...string) ([]common.Node, error) {
	out := make([]common.Node, 0, len(ids))
	for _, id := range ids {
		n, ok := e.graph.Node(id)
		if !ok {
			return nil, fmt.Errorf("%s: %w", id, store.ErrNotFound)
		}
		out = append(out, n)
	}
	return out, nil
}

func (e *Engine) edge(t common.EdgeType, from, to string) SubgraphEdge {
	// COMPETES_WITH is stored canonically, report it the same way.
	if t.Symmetric() && to < from {
		from, to = to, from
	}
	se := SubgraphEdge{Type: t, From: from, To: to}
	if n, ok := e.graph.Node(from); ok {
		se.FromName = n.Name
	}
	if n, ok := e.graph.Node(to); ok {
		se.ToName = n.Name
	}
	return se
}
