package store

import (
	"strings"
	"unicode"

	"github.com/smadinen7/Market-Intelligence-Assistant/pkg/common"
)

var corporateSuffixes = map[string]struct{}{
	"inc":         {},
	"corp":        {},
	"corporation": {},
	"ltd":         {},
	"llc":         {},
	"co":          {},
	"plc":         {},
	"gmbh":        {},
	"ag":          {},
}

// Normalize returns the identity key of a name: trimmed, internal whitespace
// runs collapsed to a single space and lower-cased.
func Normalize(name string) string {
	return strings.ToLower(CleanName(name))
}

// CleanName trims and collapses whitespace but keeps the original casing.
// It is the display form stored on a node.
func CleanName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}

// IsCorporateSuffix reports whether word is a legal form like "Inc." or "GmbH".
func IsCorporateSuffix(word string) bool {
	_, ok := corporateSuffixes[strings.ToLower(strings.Trim(word, ".,"))]
	return ok
}

// StripCorporateSuffix removes trailing corporate suffixes such as "Inc." or
// "Corp" together with the punctuation around them. A name that consists of
// a suffix only is returned unchanged.
func StripCorporateSuffix(name string) string {
	fields := strings.Fields(name)
	for len(fields) > 1 {
		if !IsCorporateSuffix(fields[len(fields)-1]) {
			break
		}
		fields = fields[:len(fields)-1]
	}
	out := strings.Join(fields, " ")
	return strings.TrimRightFunc(out, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
}

var idPartEscaper = strings.NewReplacer("%", "%25", "/", "%2F")

// NodeID derives the deterministic id of a node. ownerKey is the normalized
// owner name and is only used for products. Both parts of a product id are
// escaped so "/" only ever separates owner from name.
func NodeID(t common.NodeType, key, ownerKey string) string {
	if t == common.NodeProduct {
		return t.Prefix() + ":" + escapeIDPart(ownerKey) + "/" + escapeIDPart(key)
	}
	return t.Prefix() + ":" + key
}

func escapeIDPart(s string) string {
	return idPartEscaper.Replace(s)
}

func appendAliases(existing []string, name string, aliases ...string) []string {
	seen := make(map[string]struct{}, len(existing)+1)
	seen[Normalize(name)] = struct{}{}
	for _, a := range existing {
		seen[Normalize(a)] = struct{}{}
	}
	for _, a := range aliases {
		clean := CleanName(a)
		key := strings.ToLower(clean)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		existing = append(existing, clean)
	}
	return existing
}
