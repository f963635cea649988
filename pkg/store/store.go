// Package store holds the in-memory market graph of a session.
//
// A Store is a typed graph of companies, products and markets. Node identity
// is the normalized name within a type (products additionally by owner) and
// edges are deduplicated by (type, from, to). All writes go through a single
// writer lock so readers never observe a partially applied mutation list.
package store

import (
	"errors"
	"fmt"
	"sync"

	"github.com/smadinen7/Market-Intelligence-Assistant/pkg/common"
)

var (
	ErrInvalidType    = errors.New("invalid node or edge type")
	ErrInvalidName    = errors.New("invalid name")
	ErrNotFound       = errors.New("node not found")
	ErrSchemaMismatch = errors.New("edge endpoints do not match schema")
	ErrTypeConflict   = errors.New("name already used by another node type")
	ErrSelfExists     = errors.New("self company already set")
)

// ConflictError reports that a name is held by a node of another type.
// The first-seen node wins and its id is returned alongside this error.
type ConflictError struct {
	Name      string
	Requested common.NodeType
	Existing  common.NodeType
	ID        string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%q requested as %s but exists as %s (%s)", e.Name, e.Requested, e.Existing, e.ID)
}

func (e *ConflictError) Unwrap() error {
	return ErrTypeConflict
}

type nameEntry struct {
	typ common.NodeType
	id  string
}

// Store is an in-memory typed graph. The zero value is not usable; call New.
type Store struct {
	mu sync.RWMutex

	nodes map[string]*common.Node
	// names maps a normalized name to the first node that claimed it.
	names map[string]nameEntry
	// aliases maps a normalized company alias to the first company that
	// declared it.
	aliases map[string]string
	edges map[string]common.Edge
	out   map[string]map[string]common.Edge
	in    map[string]map[string]common.Edge
	self  string
}

func New() *Store {
	return &Store{
		nodes: make(map[string]*common.Node),
		names:   make(map[string]nameEntry),
		aliases: make(map[string]string),
		edges: make(map[string]common.Edge),
		out:   make(map[string]map[string]common.Edge),
		in:    make(map[string]map[string]common.Edge),
	}
}

// Stats summarizes the size of the graph.
type Stats struct {
	Nodes       int                     `json:"nodes"`
	Edges       int                     `json:"edges"`
	NodesByType map[common.NodeType]int `json:"nodes_by_type"`
	EdgesByType map[common.EdgeType]int `json:"edges_by_type"`
}

func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Stats{
		Nodes:       len(s.nodes),
		Edges:       len(s.edges),
		NodesByType: make(map[common.NodeType]int),
		EdgesByType: make(map[common.EdgeType]int),
	}
	for _, n := range s.nodes {
		st.NodesByType[n.Type]++
	}
	for _, e := range s.edges {
		st.EdgesByType[e.Type]++
	}
	return st
}
