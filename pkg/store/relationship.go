package store

import (
	"fmt"
	"slices"
	"sort"

	"github.com/smadinen7/Market-Intelligence-Assistant/pkg/common"
	"github.com/smadinen7/Market-Intelligence-Assistant/pkg/logger"
)

// Direction selects which edges Neighbors follows.
type Direction int

const (
	Out Direction = iota
	In
	Both
)

// UpsertEdge adds an edge between two existing nodes. It reports false if
// the edge was already present. COMPETES_WITH is stored once per unordered
// pair with the lexicographically smaller id as source.
func (s *Store) UpsertEdge(t common.EdgeType, fromID, toID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.upsertEdge(t, fromID, toID)
}

func (s *Store) upsertEdge(t common.EdgeType, fromID, toID string) (bool, error) {
	if !t.Valid() {
		return false, fmt.Errorf("edge type %q: %w", t, ErrInvalidType)
	}
	from, ok := s.nodes[fromID]
	if !ok {
		return false, fmt.Errorf("edge source %q: %w", fromID, ErrNotFound)
	}
	to, ok := s.nodes[toID]
	if !ok {
		return false, fmt.Errorf("edge target %q: %w", toID, ErrNotFound)
	}
	if fromID == toID {
		return false, fmt.Errorf("self loop on %q: %w", fromID, ErrSchemaMismatch)
	}
	wantFrom, wantTo := t.Schema()
	if from.Type != wantFrom || to.Type != wantTo {
		return false, fmt.Errorf("%s(%s, %s): %w", t, from.Type, to.Type, ErrSchemaMismatch)
	}

	e := canonicalEdge(t, fromID, toID)
	key := e.Key()
	if _, ok := s.edges[key]; ok {
		return false, nil
	}
	s.edges[key] = e
	addAdjacent(s.out, e.From, key, e)
	addAdjacent(s.in, e.To, key, e)

	logger.Debug("[Store] Created edge", "type", t, "from", e.From, "to", e.To)
	return true, nil
}

func canonicalEdge(t common.EdgeType, fromID, toID string) common.Edge {
	if t.Symmetric() && toID < fromID {
		fromID, toID = toID, fromID
	}
	return common.Edge{Type: t, From: fromID, To: toID}
}

func addAdjacent(adj map[string]map[string]common.Edge, id, key string, e common.Edge) {
	m, ok := adj[id]
	if !ok {
		m = make(map[string]common.Edge)
		adj[id] = m
	}
	m[key] = e
}

// HasEdge reports whether the edge exists, applying the same canonical
// ordering as UpsertEdge.
func (s *Store) HasEdge(t common.EdgeType, fromID, toID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.edges[canonicalEdge(t, fromID, toID).Key()]
	return ok
}

// Edges returns every edge touching id, sorted. An empty type matches all
// edge types.
func (s *Store) Edges(id string, t common.EdgeType) []common.Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []common.Edge
	for _, adj := range []map[string]common.Edge{s.out[id], s.in[id]} {
		for _, e := range adj {
			if t != "" && e.Type != t {
				continue
			}
			out = append(out, e)
		}
	}
	sortEdges(out)
	return out
}

// Neighbors returns the sorted ids adjacent to id. An empty edge type
// matches every type. COMPETES_WITH edges are followed in both directions
// regardless of dir.
func (s *Store) Neighbors(id string, t common.EdgeType, dir Direction) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.neighbors(id, t, dir)
}

func (s *Store) neighbors(id string, t common.EdgeType, dir Direction) []string {
	seen := make(map[string]struct{})
	if dir == Out || dir == Both {
		for _, e := range s.out[id] {
			if t == "" || e.Type == t {
				seen[e.To] = struct{}{}
			}
		}
	}
	for _, e := range s.in[id] {
		if t != "" && e.Type != t {
			continue
		}
		if dir == In || dir == Both || e.Type.Symmetric() {
			seen[e.From] = struct{}{}
		}
	}
	if dir == In {
		for _, e := range s.out[id] {
			if e.Type.Symmetric() && (t == "" || e.Type == t) {
				seen[e.To] = struct{}{}
			}
		}
	}

	out := make([]string, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// SharedTargets returns the sorted ids reachable from both a and b over
// edges of type t, excluding a and b themselves.
func (s *Store) SharedTargets(a, b string, t common.EdgeType) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	left := s.neighbors(a, t, Out)
	right := s.neighbors(b, t, Out)

	var out []string
	for _, id := range left {
		if id == a || id == b {
			continue
		}
		if _, found := slices.BinarySearch(right, id); found {
			out = append(out, id)
		}
	}
	return out
}

func sortEdges(edges []common.Edge) {
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		if edges[i].To != edges[j].To {
			return edges[i].To < edges[j].To
		}
		return edges[i].Type < edges[j].Type
	})
}
