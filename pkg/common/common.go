package common

import (
	"slices"
	"strings"
)

// NodeType is the kind of a node in the market graph.
type NodeType string

const (
	NodeCompany NodeType = "Company"
	NodeProduct NodeType = "Product"
	NodeMarket  NodeType = "Market"
)

// Valid reports whether t is one of the known node types.
func (t NodeType) Valid() bool {
	switch t {
	case NodeCompany, NodeProduct, NodeMarket:
		return true
	}
	return false
}

// Prefix returns the id prefix used for nodes of this type.
func (t NodeType) Prefix() string {
	return strings.ToLower(string(t))
}

// ParseNodeType resolves a node type case-insensitively.
func ParseNodeType(s string) (NodeType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "company", "companies":
		return NodeCompany, true
	case "product", "products":
		return NodeProduct, true
	case "market", "markets":
		return NodeMarket, true
	}
	return "", false
}

// EdgeType is the kind of a relationship between two nodes.
type EdgeType string

const (
	EdgeCompetesWith EdgeType = "COMPETES_WITH"
	EdgeOperatesIn   EdgeType = "OPERATES_IN"
	EdgeHasProduct   EdgeType = "HAS_PRODUCT"
)

// EdgeTypes lists every known edge type in a stable order.
var EdgeTypes = []EdgeType{EdgeCompetesWith, EdgeOperatesIn, EdgeHasProduct}

// Valid reports whether t is one of the known edge types.
func (t EdgeType) Valid() bool {
	return slices.Contains(EdgeTypes, t)
}

// Symmetric reports whether the edge is stored once per unordered pair.
func (t EdgeType) Symmetric() bool {
	return t == EdgeCompetesWith
}

// Schema returns the node types allowed at the source and target of the edge.
func (t EdgeType) Schema() (from NodeType, to NodeType) {
	switch t {
	case EdgeCompetesWith:
		return NodeCompany, NodeCompany
	case EdgeOperatesIn:
		return NodeCompany, NodeMarket
	case EdgeHasProduct:
		return NodeCompany, NodeProduct
	}
	return "", ""
}

// ParseEdgeType accepts the canonical name as well as spaced or hyphenated
// spellings such as "competes with" or "operates-in".
func ParseEdgeType(s string) (EdgeType, bool) {
	norm := strings.ToUpper(strings.TrimSpace(s))
	norm = strings.NewReplacer("-", "_", " ", "_").Replace(norm)
	for strings.Contains(norm, "__") {
		norm = strings.ReplaceAll(norm, "__", "_")
	}
	t := EdgeType(norm)
	return t, t.Valid()
}

// Role distinguishes the session's own company from its competitors.
type Role string

const (
	RoleNone       Role = ""
	RoleSelf       Role = "self"
	RoleCompetitor Role = "competitor"
)

// Node is a company, product or market in the graph.
//
// Owner is only set for products and holds the owning company's node id.
type Node struct {
	ID      string   `json:"id"`
	Type    NodeType `json:"type"`
	Name    string   `json:"name"`
	Aliases []string `json:"aliases,omitempty"`
	Role    Role     `json:"role,omitempty"`
	Owner   string   `json:"owner,omitempty"`
}

// Clone returns a deep copy of the node.
func (n Node) Clone() Node {
	n.Aliases = slices.Clone(n.Aliases)
	return n
}

// Edge is a typed relationship between two nodes, identified by
// (Type, From, To).
type Edge struct {
	Type EdgeType `json:"type"`
	From string   `json:"from"`
	To   string   `json:"to"`
}

// Key returns the dedup key of the edge.
func (e Edge) Key() string {
	return string(e.Type) + "|" + e.From + "|" + e.To
}

// Snapshot is a serializable copy of a graph at one point in time.
type Snapshot struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// MutationKind selects what a Mutation writes.
type MutationKind string

const (
	MutationUpsertNode MutationKind = "upsert_node"
	MutationUpsertEdge MutationKind = "upsert_edge"
)

// NodeAttrs carries optional attributes of an upserted node.
type NodeAttrs struct {
	Aliases []string `json:"aliases,omitempty"`
	Role    Role     `json:"role,omitempty"`
	// Owner is the owning company's name for products.
	Owner string `json:"owner,omitempty"`
}

// Mutation is a name-level write produced by the extraction parser.
// Names are resolved to node ids when the mutation is applied. A product
// target of HAS_PRODUCT is looked up under the From company.
type Mutation struct {
	Kind     MutationKind `json:"kind"`
	NodeType NodeType     `json:"node_type,omitempty"`
	EdgeType EdgeType     `json:"edge_type,omitempty"`
	Name     string       `json:"name,omitempty"`
	Attrs    NodeAttrs    `json:"attrs,omitzero"`
	From     string       `json:"from,omitempty"`
	To       string       `json:"to,omitempty"`
}

// Competitor is a company proposed by the discovery collaborator.
type Competitor struct {
	Name      string `json:"name"`
	Rationale string `json:"rationale,omitempty"`
}
