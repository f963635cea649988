package query

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// BuildContext renders the documents the context path answers from: the
// self company's seed facts followed by every analyzed report in order.
func BuildContext(selfName string, docs Documents) []string {
	var sections []string
	if facts := strings.TrimSpace(docs.SelfFacts); facts != "" {
		title := "Our company"
		if selfName != "" {
			title = fmt.Sprintf("Our company: %s", selfName)
		}
		sections = append(sections, fmt.Sprintf("## %s\n%s", title, facts))
	}
	for _, r := range docs.Reports {
		text := strings.TrimSpace(r.Text)
		if text == "" {
			continue
		}
		sections = append(sections, fmt.Sprintf("## Competitor report: %s\n%s", r.Competitor, text))
	}
	return sections
}

// fitToBudget joins sections until the token budget is used up. The section
// that crosses the budget is cut at the token boundary; later sections are
// dropped. A budget <= 0 disables trimming.
func fitToBudget(sections []string, encoding string, budget int) (string, bool, error) {
	joined := strings.Join(sections, "\n\n")
	if budget <= 0 || joined == "" {
		return joined, false, nil
	}

	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return "", false, fmt.Errorf("failed to load token encoding %s: %w", encoding, err)
	}

	var b strings.Builder
	remaining := budget
	for i, section := range sections {
		if i > 0 {
			section = "\n\n" + section
		}
		tokens := enc.Encode(section, nil, nil)
		if len(tokens) <= remaining {
			b.WriteString(section)
			remaining -= len(tokens)
			continue
		}
		if remaining > 0 {
			b.WriteString(enc.Decode(tokens[:remaining]))
		}
		return b.String(), true, nil
	}
	return b.String(), false, nil
}
