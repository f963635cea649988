package workflow

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/smadinen7/Market-Intelligence-Assistant/pkg/common"
	"github.com/smadinen7/Market-Intelligence-Assistant/pkg/store"
)

// MaxCompetitors caps the competitors tracked per session.
const MaxCompetitors = 3

// ValidateCompanyName cleans a user supplied company name. The name without
// its corporate suffix must keep at least two characters.
func ValidateCompanyName(name string) (string, error) {
	clean := store.CleanName(name)
	if clean == "" {
		return "", ErrEmptyCompany
	}
	stripped := store.StripCorporateSuffix(clean)
	if !strings.Contains(stripped, " ") && store.IsCorporateSuffix(stripped) {
		return "", fmt.Errorf("%q: %w", name, ErrInvalidCompany)
	}
	if utf8.RuneCountInString(strings.Trim(stripped, ".,")) < 2 {
		return "", fmt.Errorf("%q: %w", name, ErrInvalidCompany)
	}
	return clean, nil
}

// filterCompetitors drops blank names, duplicates and the company itself and
// keeps at most MaxCompetitors.
func filterCompetitors(in []common.Competitor, company string) []common.Competitor {
	seen := map[string]struct{}{
		store.Normalize(company):                             {},
		store.Normalize(store.StripCorporateSuffix(company)): {},
	}
	out := make([]common.Competitor, 0, MaxCompetitors)
	for _, c := range in {
		c.Name = store.CleanName(c.Name)
		if c.Name == "" {
			continue
		}
		key := store.Normalize(c.Name)
		stripped := store.Normalize(store.StripCorporateSuffix(c.Name))
		if _, ok := seen[key]; ok {
			continue
		}
		if _, ok := seen[stripped]; ok {
			continue
		}
		seen[key] = struct{}{}
		seen[stripped] = struct{}{}
		out = append(out, c)
		if len(out) == MaxCompetitors {
			break
		}
	}
	return out
}

// seedMutations declares every competitor and its rivalry with company.
func seedMutations(company string, competitors []common.Competitor) []common.Mutation {
	out := make([]common.Mutation, 0, 2*len(competitors))
	for _, c := range competitors {
		out = append(out, common.Mutation{
			Kind:     common.MutationUpsertNode,
			NodeType: common.NodeCompany,
			Name:     c.Name,
			Attrs:    common.NodeAttrs{Role: common.RoleCompetitor},
		})
	}
	for _, c := range competitors {
		out = append(out, common.Mutation{
			Kind:     common.MutationUpsertEdge,
			EdgeType: common.EdgeCompetesWith,
			From:     company,
			To:       c.Name,
		})
	}
	return out
}

// selfFacts renders what the session knows about its own company for the
// context path.
func selfFacts(company string, competitors []*competitorEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Company: %s\n", company)
	if len(competitors) == 0 {
		return b.String()
	}
	b.WriteString("Direct competitors:\n")
	for _, e := range competitors {
		if e.competitor.Rationale != "" {
			fmt.Fprintf(&b, "- %s: %s\n", e.competitor.Name, e.competitor.Rationale)
		} else {
			fmt.Fprintf(&b, "- %s\n", e.competitor.Name)
		}
	}
	return b.String()
}
