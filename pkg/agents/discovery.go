package agents

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/smadinen7/Market-Intelligence-Assistant/pkg/ai"
	"github.com/smadinen7/Market-Intelligence-Assistant/pkg/common"
	"github.com/smadinen7/Market-Intelligence-Assistant/pkg/logger"
	"github.com/smadinen7/Market-Intelligence-Assistant/pkg/store"
)

// MaxCompetitors caps every discovered competitor list.
const MaxCompetitors = 3

var (
	markdownCompetitorPattern = regexp.MustCompile(`(?i)\*\*\s*competitor\s+\d+\s*:\s*([^*\n]+?)\s*\*\*`)
	listPrefixPattern         = regexp.MustCompile(`^(?:[-*•+]|\d+[.)])\s+`)
	competitorLabelPattern    = regexp.MustCompile(`(?i)^competitor\s*\d*\s*[:.)-]\s*`)
	nameSeparators            = []string{" - ", " – ", " — ", ": ", " (", ","}
)

type competitorList struct {
	Competitors []competitorEntry `json:"competitors" jsonschema_description:"Up to three direct competitors"`
}

type competitorEntry struct {
	Name      string `json:"name" jsonschema_description:"Common company name"`
	Rationale string `json:"rationale" jsonschema_description:"One sentence on why it competes"`
}

// GenerateCompetitorList asks the model for the direct competitors of a
// company. Structured output is tried first. Providers that reject it are
// asked again for plain text, which goes through ParseCompetitorList.
func (a *Agents) GenerateCompetitorList(ctx context.Context, company string) ([]common.Competitor, error) {
	prompt := fmt.Sprintf(ai.CompetitorDiscoveryPrompt, company)

	var list competitorList
	err := a.client.GenerateCompletionWithFormat(
		ctx,
		"competitor_list",
		"Direct competitors of a company",
		prompt,
		&list,
		ai.WithModel(a.chatModel),
	)
	if err == nil {
		out := capCompetitors(toCompetitors(list.Competitors), company)
		if len(out) > 0 {
			return out, nil
		}
	} else {
		logger.Warn("[Agents] Structured discovery failed, retrying as text", "company", company, "err", err)
	}

	text, err := a.complete(ctx, "competitor discovery", prompt, ai.WithModel(a.chatModel))
	if err != nil {
		return nil, err
	}
	return capCompetitors(ParseCompetitorList(text), company), nil
}

// ParseCompetitorList reads competitor names out of free model output.
//
// It accepts, in order of preference, a JSON object or array (repaired when
// malformed), "**Competitor N: Name**" markdown headings and finally one name
// per line. The result holds at most MaxCompetitors distinct names.
func ParseCompetitorList(text string) []common.Competitor {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	if out := parseCompetitorJSON(text); len(out) > 0 {
		return capCompetitors(out, "")
	}

	var out []common.Competitor
	for _, m := range markdownCompetitorPattern.FindAllStringSubmatch(text, -1) {
		out = append(out, common.Competitor{Name: m[1]})
	}
	if len(out) > 0 {
		return capCompetitors(out, "")
	}

	for _, line := range strings.Split(text, "\n") {
		if name := competitorFromLine(line); name != "" {
			out = append(out, common.Competitor{Name: name})
		}
	}
	return capCompetitors(out, "")
}

func parseCompetitorJSON(text string) []common.Competitor {
	if !strings.ContainsAny(text, "{[") {
		return nil
	}

	var list competitorList
	if err := ai.UnmarshalFlexible(text, &list); err == nil && len(list.Competitors) > 0 {
		return toCompetitors(list.Competitors)
	}

	var entries []competitorEntry
	if err := ai.UnmarshalFlexible(text, &entries); err == nil && len(entries) > 0 {
		return toCompetitors(entries)
	}

	var names []string
	if err := ai.UnmarshalFlexible(text, &names); err == nil {
		out := make([]common.Competitor, 0, len(names))
		for _, n := range names {
			out = append(out, common.Competitor{Name: n})
		}
		return out
	}
	return nil
}

func competitorFromLine(line string) string {
	line = strings.TrimSpace(strings.ReplaceAll(line, "**", ""))
	line = strings.TrimLeft(line, "# ")
	line = listPrefixPattern.ReplaceAllString(line, "")
	line = competitorLabelPattern.ReplaceAllString(line, "")
	if line == "" || strings.HasSuffix(line, ":") || strings.HasPrefix(line, "```") {
		return ""
	}
	for _, sep := range nameSeparators {
		if head, _, ok := strings.Cut(line, sep); ok {
			line = head
		}
	}
	line = strings.Trim(strings.TrimSpace(line), "\"'`.")
	// Sentences are commentary, not names.
	if line == "" || len(strings.Fields(line)) > 6 || isNotAvailable(line) {
		return ""
	}
	return line
}

func toCompetitors(entries []competitorEntry) []common.Competitor {
	out := make([]common.Competitor, 0, len(entries))
	for _, e := range entries {
		out = append(out, common.Competitor{Name: e.Name, Rationale: strings.TrimSpace(e.Rationale)})
	}
	return out
}

// capCompetitors cleans names, drops blanks, duplicates and the company
// itself, and keeps the first MaxCompetitors.
func capCompetitors(in []common.Competitor, company string) []common.Competitor {
	seen := make(map[string]struct{})
	if company != "" {
		seen[store.Normalize(company)] = struct{}{}
		seen[store.Normalize(store.StripCorporateSuffix(company))] = struct{}{}
	}

	out := make([]common.Competitor, 0, MaxCompetitors)
	for _, c := range in {
		c.Name = store.CleanName(strings.Trim(c.Name, "\"'`*"))
		if c.Name == "" {
			continue
		}
		keys := []string{store.Normalize(c.Name), store.Normalize(store.StripCorporateSuffix(c.Name))}
		if _, dup := seen[keys[0]]; dup {
			continue
		}
		if _, dup := seen[keys[1]]; dup {
			continue
		}
		for _, k := range keys {
			seen[k] = struct{}{}
		}
		out = append(out, c)
		if len(out) == MaxCompetitors {
			break
		}
	}
	return out
}
