package query

import (
	"slices"
	"strings"
	"unicode"

	"github.com/smadinen7/Market-Intelligence-Assistant/pkg/common"
)

// Route is the answer path chosen for a question.
type Route string

const (
	RouteContext Route = "context"
	RouteGraph   Route = "graph"
)

// Category is the kind of graph query a question implies.
type Category string

const (
	CategoryNone    Category = ""
	CategoryShared  Category = "shared"
	CategoryNetwork Category = "network"
)

// Classification is the outcome of Classify.
type Classification struct {
	Route    Route    `json:"route"`
	Category Category `json:"category,omitempty"`
	Keywords []string `json:"keywords,omitempty"`
}

var sharedKeywords = map[string]struct{}{
	"share":       {},
	"shared":      {},
	"sharing":     {},
	"common":      {},
	"overlap":     {},
	"overlaps":    {},
	"overlapping": {},
	"compare":     {},
	"compared":    {},
	"comparison":  {},
	"versus":      {},
	"vs":          {},
}

var networkKeywords = map[string]struct{}{
	"relationship":  {},
	"relationships": {},
	"network":       {},
	"connected":     {},
	"connection":    {},
	"connections":   {},
	"related":       {},
}

var sharedPhrases = [][]string{
	{"in", "common"},
}

var competitorWords = map[string]struct{}{
	"competitor":  {},
	"competitors": {},
	"compete":     {},
	"competes":    {},
	"competing":   {},
	"rival":       {},
	"rivals":      {},
}

var selfWords = map[string]struct{}{
	"we":   {},
	"us":   {},
	"our":  {},
	"ours": {},
}

// Tokenize lower-cases s and splits it on every rune that is neither a
// letter nor a digit.
func Tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Classify decides the answer path of a question from a static keyword
// table. Shared keywords win over network keywords.
func Classify(question string) Classification {
	tokens := Tokenize(question)

	var shared, network []string
	for _, tok := range tokens {
		if _, ok := sharedKeywords[tok]; ok {
			shared = append(shared, tok)
		}
		if _, ok := networkKeywords[tok]; ok {
			network = append(network, tok)
		}
	}
	for _, phrase := range sharedPhrases {
		if indexSequence(tokens, phrase, false) >= 0 {
			shared = append(shared, strings.Join(phrase, " "))
		}
	}

	c := Classification{Route: RouteContext}
	switch {
	case len(shared) > 0:
		c.Route, c.Category = RouteGraph, CategoryShared
	case len(network) > 0:
		c.Route, c.Category = RouteGraph, CategoryNetwork
	}
	c.Keywords = dedupeSorted(append(shared, network...))
	return c
}

func mentionsCompetitors(tokens []string) bool {
	for _, tok := range tokens {
		if _, ok := competitorWords[tok]; ok {
			return true
		}
	}
	return false
}

// ResolveEntities finds the nodes named in a question. Names and aliases
// must appear as whole token sequences; a trailing "s" on the last token is
// tolerated. First-person words resolve to the self company. The result is
// sorted by id.
func ResolveEntities(g Graph, question string) []common.Node {
	tokens := Tokenize(question)
	found := make(map[string]common.Node)

	for _, tok := range tokens {
		if _, ok := selfWords[tok]; ok {
			if self, ok := g.Self(); ok {
				found[self.ID] = self
			}
			break
		}
	}

	for _, n := range g.Nodes("") {
		for _, name := range append([]string{n.Name}, n.Aliases...) {
			seq := Tokenize(name)
			if len(seq) == 0 {
				continue
			}
			if indexSequence(tokens, seq, true) >= 0 {
				found[n.ID] = n
				break
			}
		}
	}

	out := make([]common.Node, 0, len(found))
	for _, n := range found {
		out = append(out, n)
	}
	slices.SortFunc(out, func(a, b common.Node) int {
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

func indexSequence(tokens, seq []string, pluralTail bool) int {
	if len(seq) == 0 || len(seq) > len(tokens) {
		return -1
	}
outer:
	for i := 0; i+len(seq) <= len(tokens); i++ {
		for j, want := range seq {
			got := tokens[i+j]
			if got == want {
				continue
			}
			if pluralTail && j == len(seq)-1 && got == want+"s" {
				continue
			}
			continue outer
		}
		return i
	}
	return -1
}

func dedupeSorted(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := slices.Clone(in)
	slices.Sort(out)
	return slices.Compact(out)
}
