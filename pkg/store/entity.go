package store

import (
	"fmt"
	"slices"
	"strings"

	"github.com/smadinen7/Market-Intelligence-Assistant/pkg/common"
	"github.com/smadinen7/Market-Intelligence-Assistant/pkg/logger"
)

// UpsertNode returns the id of the node with the given type and name,
// creating it if needed. Aliases passed for an existing company are merged.
// A company name that is not a node of its own but an alias of one resolves
// to that company.
//
// If the normalized name is already held by a node of another type, the
// existing id is returned together with a *ConflictError.
func (s *Store) UpsertNode(t common.NodeType, name string, attrs common.NodeAttrs) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, _, err := s.upsertNode(t, name, attrs)
	return id, err
}

func (s *Store) upsertNode(t common.NodeType, name string, attrs common.NodeAttrs) (string, bool, error) {
	if !t.Valid() {
		return "", false, fmt.Errorf("node type %q: %w", t, ErrInvalidType)
	}
	clean := CleanName(name)
	key := strings.ToLower(clean)
	if key == "" {
		return "", false, fmt.Errorf("empty %s name: %w", t, ErrInvalidName)
	}

	if entry, ok := s.names[key]; ok && entry.typ != t {
		return entry.id, false, &ConflictError{Name: clean, Requested: t, Existing: entry.typ, ID: entry.id}
	}

	var ownerID, ownerKey string
	if t == common.NodeProduct {
		if CleanName(attrs.Owner) == "" {
			return "", false, fmt.Errorf("product %q has no owner: %w", clean, ErrInvalidName)
		}
		var err error
		ownerID, _, err = s.upsertNode(common.NodeCompany, attrs.Owner, common.NodeAttrs{})
		if err != nil {
			return "", false, fmt.Errorf("owner %q of product %q: %w", attrs.Owner, clean, ErrSchemaMismatch)
		}
		ownerKey = strings.TrimPrefix(ownerID, common.NodeCompany.Prefix()+":")
	}

	id := NodeID(t, key, ownerKey)
	if t == common.NodeCompany {
		if _, ok := s.nodes[id]; !ok {
			if aliasID, ok := s.aliases[key]; ok {
				id = aliasID
			}
		}
	}
	if attrs.Role == common.RoleSelf && t == common.NodeCompany && s.self != "" && s.self != id {
		return "", false, fmt.Errorf("%q: %w", clean, ErrSelfExists)
	}

	if n, ok := s.nodes[id]; ok {
		if t == common.NodeCompany {
			n.Aliases = appendAliases(n.Aliases, n.Name, attrs.Aliases...)
			s.indexAliases(n)
			s.mergeRole(n, attrs.Role)
		}
		return id, false, nil
	}

	n := &common.Node{
		ID:    id,
		Type:  t,
		Name:  clean,
		Owner: ownerID,
	}
	if t == common.NodeCompany {
		n.Aliases = appendAliases(nil, clean, StripCorporateSuffix(clean))
		n.Aliases = appendAliases(n.Aliases, clean, attrs.Aliases...)
		s.indexAliases(n)
		s.mergeRole(n, attrs.Role)
	}
	s.nodes[id] = n
	if _, ok := s.names[key]; !ok {
		s.names[key] = nameEntry{typ: t, id: id}
	}

	logger.Debug("[Store] Created node", "id", id, "type", t)
	return id, true, nil
}

func (s *Store) indexAliases(n *common.Node) {
	for _, a := range n.Aliases {
		key := Normalize(a)
		if _, ok := s.aliases[key]; !ok {
			s.aliases[key] = n.ID
		}
	}
}

// mergeRole never downgrades a self company.
func (s *Store) mergeRole(n *common.Node, role common.Role) {
	switch role {
	case common.RoleSelf:
		n.Role = common.RoleSelf
		s.self = n.ID
	case common.RoleCompetitor:
		if n.Role == common.RoleNone {
			n.Role = common.RoleCompetitor
		}
	}
}

// Node returns a copy of the node with the given id.
func (s *Store) Node(id string) (common.Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.nodes[id]
	if !ok {
		return common.Node{}, false
	}
	return n.Clone(), true
}

// Self returns the session's own company, if it has been created.
func (s *Store) Self() (common.Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.nodes[s.self]
	if !ok {
		return common.Node{}, false
	}
	return n.Clone(), true
}

// FindByName looks a node up by its normalized name. Products are matched
// regardless of owner; the one with the lowest id wins.
func (s *Store) FindByName(t common.NodeType, name string) (common.Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := s.findByName(t, name, "")
	if n == nil {
		return common.Node{}, false
	}
	return n.Clone(), true
}

// FindProduct looks a product up by its name and owner.
func (s *Store) FindProduct(name, owner string) (common.Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := s.findByName(common.NodeProduct, name, owner)
	if n == nil {
		return common.Node{}, false
	}
	return n.Clone(), true
}

func (s *Store) findByName(t common.NodeType, name, owner string) *common.Node {
	key := Normalize(name)
	if key == "" {
		return nil
	}
	if t != common.NodeProduct {
		if n, ok := s.nodes[NodeID(t, key, "")]; ok || t != common.NodeCompany {
			return n
		}
		return s.nodes[s.aliases[key]]
	}
	if owner != "" {
		return s.nodes[NodeID(t, key, Normalize(owner))]
	}

	var found *common.Node
	suffix := "/" + escapeIDPart(key)
	for id, n := range s.nodes {
		if n.Type != common.NodeProduct || !strings.HasSuffix(id, suffix) {
			continue
		}
		if Normalize(n.Name) != key {
			continue
		}
		if found == nil || id < found.ID {
			found = n
		}
	}
	return found
}

// Nodes returns copies of all nodes of type t sorted by id. An empty type
// returns every node.
func (s *Store) Nodes(t common.NodeType) []common.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]common.Node, 0, len(s.nodes))
	for _, n := range s.nodes {
		if t != "" && n.Type != t {
			continue
		}
		out = append(out, n.Clone())
	}
	slices.SortFunc(out, func(a, b common.Node) int {
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

func logConflict(err error) {
	if c, ok := err.(*ConflictError); ok {
		logger.Warn("[Store] Name conflict, keeping first-seen type",
			"name", c.Name, "requested", c.Requested, "existing", c.Existing, "id", c.ID)
	}
}
