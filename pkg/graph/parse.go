package graph

import (
	"regexp"
	"strings"

	"github.com/smadinen7/Market-Intelligence-Assistant/internal/util"
	"github.com/smadinen7/Market-Intelligence-Assistant/pkg/common"
	"github.com/smadinen7/Market-Intelligence-Assistant/pkg/store"
)

// Reasons reported for skipped lines.
const (
	SkipNoMarker        = "no recognized marker"
	SkipEmptyName       = "empty name"
	SkipNoOwner         = "product without owner"
	SkipBadRelationship = "relationship not in A REL B form"
	SkipUnknownRelation = "unknown relationship type"
	SkipSelfRelation    = "relationship from an entity to itself"
)

var (
	bulletPattern   = regexp.MustCompile(`^(?:[-*•+]|\d+[.)])\s+`)
	relationPattern = regexp.MustCompile(`(?i)\b(competes[\s_-]+with|operates[\s_-]+in|has[\s_-]+products?)\b`)
)

// ParseOptions tunes how extraction output is interpreted.
type ParseOptions struct {
	// DefaultOwner owns products declared without an explicit owner,
	// usually the competitor being analyzed.
	DefaultOwner string
}

// Skip records a line that produced no mutation.
type Skip struct {
	Line   int    `json:"line"`
	Text   string `json:"text"`
	Reason string `json:"reason"`
}

// ParseResult holds the mutations of one extraction text and line counts.
// Blank lines are neither parsed nor skipped.
type ParseResult struct {
	Mutations []common.Mutation `json:"mutations"`
	Parsed    int               `json:"parsed"`
	Skipped   int               `json:"skipped"`
	Skips     []Skip            `json:"skips,omitempty"`
}

type declaration struct {
	typ     common.NodeType
	name    string
	aliases []string
	owner   string
}

type relation struct {
	typ      common.EdgeType
	from, to string
}

// record is one successfully parsed line.
type record struct {
	decl *declaration
	rel  *relation
}

// Parse turns line-oriented extraction output into graph mutations.
//
// Recognized lines (markers are case-insensitive, plural forms accepted):
//
//	COMPANY: <name> [| <alias>, <alias>...]
//	PRODUCT: <name> [| <owner company>]
//	MARKET: <name>
//	RELATIONSHIP: <from> <REL> <to>
//	RELATIONSHIP: <from> -> <rel> -> <to>[: note]
//
// Node mutations come first in order of first appearance, followed by edge
// mutations in line order. Company endpoints and product owners that name a
// declared company alias are rewritten to that company. Relationship
// endpoints that are not declared anywhere in the text become nodes of the
// type their slot implies.
func Parse(text string, opts ParseOptions) ParseResult {
	var res ParseResult
	var records []record

	declared := make(map[string]struct{})
	aliasOf := make(map[string]string)
	lines := strings.Split(util.SanitizeText(text), "\n")
	for i, raw := range lines {
		line := cleanLine(raw)
		if line == "" {
			continue
		}
		rec, reason := parseLine(line, opts)
		if reason != "" {
			res.Skipped++
			res.Skips = append(res.Skips, Skip{Line: i + 1, Text: strings.TrimSpace(raw), Reason: reason})
			continue
		}
		res.Parsed++
		records = append(records, rec)
		if d := rec.decl; d != nil {
			declared[store.Normalize(d.name)] = struct{}{}
			for _, a := range d.aliases {
				if _, ok := aliasOf[store.Normalize(a)]; !ok {
					aliasOf[store.Normalize(a)] = d.name
				}
			}
		}
	}

	canonical := func(name string) string {
		key := store.Normalize(name)
		if _, ok := declared[key]; ok {
			return name
		}
		if c, ok := aliasOf[key]; ok {
			return c
		}
		return name
	}

	b := newMutationBuilder()
	for _, rec := range records {
		if d := rec.decl; d != nil {
			if d.owner != "" {
				d.owner = canonical(d.owner)
				if _, ok := declared[store.Normalize(d.owner)]; !ok {
					b.node(common.NodeCompany, d.owner, nil, "")
				}
			}
			b.node(d.typ, d.name, d.aliases, d.owner)
			if d.typ == common.NodeProduct {
				b.edge(common.EdgeHasProduct, d.owner, d.name)
			}
			continue
		}

		r := rec.rel
		fromType, toType := r.typ.Schema()
		if fromType == common.NodeCompany {
			r.from = canonical(r.from)
		}
		if toType == common.NodeCompany {
			r.to = canonical(r.to)
		}
		if _, ok := declared[store.Normalize(r.from)]; !ok {
			b.node(fromType, r.from, nil, "")
		}
		if _, ok := declared[store.Normalize(r.to)]; !ok {
			owner := ""
			if toType == common.NodeProduct {
				owner = r.from
			}
			b.node(toType, r.to, nil, owner)
		}
		b.edge(r.typ, r.from, r.to)
	}

	res.Mutations = b.mutations()
	return res
}

func cleanLine(raw string) string {
	line := strings.TrimSpace(raw)
	line = strings.ReplaceAll(line, "**", "")
	line = strings.TrimLeft(line, "# ")
	line = bulletPattern.ReplaceAllString(line, "")
	return strings.TrimSpace(line)
}

func parseLine(line string, opts ParseOptions) (record, string) {
	marker, rest, ok := strings.Cut(line, ":")
	if !ok {
		return record{}, SkipNoMarker
	}
	marker = strings.ToLower(strings.TrimSpace(marker))
	rest = strings.TrimSpace(rest)

	if marker == "relationship" || marker == "relationships" {
		rel, reason := parseRelation(rest)
		if reason != "" {
			return record{}, reason
		}
		return record{rel: rel}, ""
	}

	typ, ok := common.ParseNodeType(marker)
	if !ok {
		return record{}, SkipNoMarker
	}

	head, tail, hasTail := strings.Cut(rest, "|")
	d := &declaration{typ: typ, name: cleanName(head)}
	if d.name == "" {
		return record{}, SkipEmptyName
	}

	switch typ {
	case common.NodeCompany:
		if hasTail {
			for _, alias := range strings.Split(tail, ",") {
				if a := cleanName(alias); a != "" {
					d.aliases = append(d.aliases, a)
				}
			}
		}
	case common.NodeProduct:
		if hasTail {
			d.owner = cleanName(tail)
		}
		if d.owner == "" {
			d.owner = cleanName(opts.DefaultOwner)
		}
		if d.owner == "" {
			return record{}, SkipNoOwner
		}
	}
	return record{decl: d}, ""
}

func parseRelation(rest string) (*relation, string) {
	var from, rel, to string
	if parts := strings.Split(rest, "->"); len(parts) == 3 {
		from, rel, to = parts[0], parts[1], parts[2]
	} else if len(parts) > 1 {
		return nil, SkipBadRelationship
	} else {
		loc := relationPattern.FindStringSubmatchIndex(rest)
		if loc == nil {
			return nil, SkipUnknownRelation
		}
		from, rel, to = rest[:loc[0]], rest[loc[2]:loc[3]], rest[loc[1]:]
	}

	// Anything after a colon on the target side is a free-form note.
	to, _, _ = strings.Cut(to, ":")

	typ, ok := parseEdgeType(rel)
	if !ok {
		return nil, SkipUnknownRelation
	}
	r := &relation{typ: typ, from: cleanName(from), to: cleanName(to)}
	if r.from == "" || r.to == "" {
		return nil, SkipBadRelationship
	}
	if store.Normalize(r.from) == store.Normalize(r.to) {
		return nil, SkipSelfRelation
	}
	return r, ""
}

func parseEdgeType(s string) (common.EdgeType, bool) {
	s = strings.Trim(strings.TrimSpace(s), "[]()`'\"")
	if t, ok := common.ParseEdgeType(s); ok {
		return t, true
	}
	// "has products"
	return common.ParseEdgeType(strings.TrimSuffix(strings.ToUpper(s), "S"))
}

func cleanName(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "\"'`[]")
	s = strings.TrimRight(s, ".,;")
	return store.CleanName(s)
}

// mutationBuilder dedupes mutations while keeping first-appearance order.
type mutationBuilder struct {
	nodes     []common.Mutation
	nodeIndex map[string]int
	edges     []common.Mutation
	edgeSeen  map[string]struct{}
}

func newMutationBuilder() *mutationBuilder {
	return &mutationBuilder{
		nodeIndex: make(map[string]int),
		edgeSeen:  make(map[string]struct{}),
	}
}

func (b *mutationBuilder) node(t common.NodeType, name string, aliases []string, owner string) {
	key := string(t) + "|" + store.Normalize(name)
	if t == common.NodeProduct {
		key += "|" + store.Normalize(owner)
	}
	if idx, ok := b.nodeIndex[key]; ok {
		b.nodes[idx].Attrs.Aliases = append(b.nodes[idx].Attrs.Aliases, aliases...)
		return
	}
	b.nodeIndex[key] = len(b.nodes)
	b.nodes = append(b.nodes, common.Mutation{
		Kind:     common.MutationUpsertNode,
		NodeType: t,
		Name:     name,
		Attrs:    common.NodeAttrs{Aliases: aliases, Owner: owner},
	})
}

func (b *mutationBuilder) edge(t common.EdgeType, from, to string) {
	f, g := store.Normalize(from), store.Normalize(to)
	if t.Symmetric() && g < f {
		f, g = g, f
	}
	key := string(t) + "|" + f + "|" + g
	if _, ok := b.edgeSeen[key]; ok {
		return
	}
	b.edgeSeen[key] = struct{}{}
	b.edges = append(b.edges, common.Mutation{
		Kind:     common.MutationUpsertEdge,
		EdgeType: t,
		From:     from,
		To:       to,
	})
}

func (b *mutationBuilder) mutations() []common.Mutation {
	out := make([]common.Mutation, 0, len(b.nodes)+len(b.edges))
	out = append(out, b.nodes...)
	return append(out, b.edges...)
}
