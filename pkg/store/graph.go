package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/smadinen7/Market-Intelligence-Assistant/pkg/common"
	"github.com/smadinen7/Market-Intelligence-Assistant/pkg/logger"
)

// ApplyResult counts what a mutation list changed.
type ApplyResult struct {
	NodesCreated int `json:"nodes_created"`
	EdgesCreated int `json:"edges_created"`
	Conflicts    int `json:"conflicts"`
	Rejected     int `json:"rejected"`
}

// Apply writes a mutation list while holding the writer lock for its whole
// duration. Names are resolved to ids inside the lock. Mutations that cannot
// be applied are logged and counted but do not stop the rest of the list.
// If ctx is done before the lock is taken nothing is written.
func (s *Store) Apply(ctx context.Context, mutations []common.Mutation) (ApplyResult, error) {
	var res ApplyResult
	if err := ctx.Err(); err != nil {
		return res, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, m := range mutations {
		switch m.Kind {
		case common.MutationUpsertNode:
			_, created, err := s.upsertNode(m.NodeType, m.Name, m.Attrs)
			if err != nil {
				if errors.Is(err, ErrTypeConflict) {
					logConflict(err)
					res.Conflicts++
					continue
				}
				logger.Warn("[Store] Rejected node mutation", "index", i, "name", m.Name, "err", err)
				res.Rejected++
				continue
			}
			if created {
				res.NodesCreated++
			}
		case common.MutationUpsertEdge:
			fromID, toID, err := s.resolveEdge(m)
			if err != nil {
				logger.Warn("[Store] Rejected edge mutation", "index", i, "type", m.EdgeType, "from", m.From, "to", m.To, "err", err)
				res.Rejected++
				continue
			}
			created, err := s.upsertEdge(m.EdgeType, fromID, toID)
			if err != nil {
				logger.Warn("[Store] Rejected edge mutation", "index", i, "type", m.EdgeType, "from", m.From, "to", m.To, "err", err)
				res.Rejected++
				continue
			}
			if created {
				res.EdgesCreated++
			}
		default:
			logger.Warn("[Store] Unknown mutation kind", "index", i, "kind", m.Kind)
			res.Rejected++
		}
	}

	logger.Debug("[Store] Applied mutations",
		"count", len(mutations),
		"nodes_created", res.NodesCreated,
		"edges_created", res.EdgesCreated,
		"conflicts", res.Conflicts,
		"rejected", res.Rejected,
	)
	return res, nil
}

func (s *Store) resolveEdge(m common.Mutation) (string, string, error) {
	if !m.EdgeType.Valid() {
		return "", "", fmt.Errorf("edge type %q: %w", m.EdgeType, ErrInvalidType)
	}
	fromType, toType := m.EdgeType.Schema()

	fromID, err := s.resolveName(fromType, m.From, "")
	if err != nil {
		return "", "", err
	}
	owner := ""
	if toType == common.NodeProduct {
		owner = strings.TrimPrefix(fromID, common.NodeCompany.Prefix()+":")
	}
	toID, err := s.resolveName(toType, m.To, owner)
	if err != nil {
		return "", "", err
	}
	return fromID, toID, nil
}

func (s *Store) resolveName(t common.NodeType, name, ownerKey string) (string, error) {
	key := Normalize(name)
	if key == "" {
		return "", fmt.Errorf("empty %s name: %w", t, ErrInvalidName)
	}
	id := NodeID(t, key, ownerKey)
	if _, ok := s.nodes[id]; ok {
		return id, nil
	}
	if t == common.NodeCompany {
		if aliasID, ok := s.aliases[key]; ok {
			return aliasID, nil
		}
	}
	if entry, ok := s.names[key]; ok && entry.typ != t {
		return "", fmt.Errorf("%q is a %s, not a %s: %w", name, entry.typ, t, ErrSchemaMismatch)
	}
	return "", fmt.Errorf("%s %q: %w", t, name, ErrNotFound)
}

// Snapshot returns a deep copy of the graph with nodes and edges sorted.
func (s *Store) Snapshot() common.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := common.Snapshot{
		Nodes: make([]common.Node, 0, len(s.nodes)),
		Edges: make([]common.Edge, 0, len(s.edges)),
	}
	for _, n := range s.nodes {
		snap.Nodes = append(snap.Nodes, n.Clone())
	}
	for _, e := range s.edges {
		snap.Edges = append(snap.Edges, e)
	}
	slices.SortFunc(snap.Nodes, func(a, b common.Node) int {
		return strings.Compare(a.ID, b.ID)
	})
	sortEdges(snap.Edges)
	return snap
}
