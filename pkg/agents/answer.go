package agents

import (
	"context"
	"fmt"

	"github.com/smadinen7/Market-Intelligence-Assistant/pkg/ai"
	"github.com/smadinen7/Market-Intelligence-Assistant/pkg/query"
)

// GenerateAnswer answers a chat question from either report text or a
// subgraph rendered as JSON.
func (a *Agents) GenerateAnswer(ctx context.Context, question string, kind query.ContextKind, payload string) (string, error) {
	tmpl := ai.AnswerReportsPrompt
	if kind == query.ContextSubgraph {
		tmpl = ai.AnswerSubgraphPrompt
	}
	prompt := fmt.Sprintf(tmpl, payload, question)
	return a.complete(ctx, "answer generation", prompt,
		ai.WithModel(a.chatModel),
		ai.WithSystemPrompts(ai.AnswerSystemPrompt),
	)
}
