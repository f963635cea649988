package agents

import (
	"context"
	"fmt"

	"github.com/smadinen7/Market-Intelligence-Assistant/pkg/ai"
	"github.com/smadinen7/Market-Intelligence-Assistant/pkg/logger"
)

// GenerateCompetitorReport writes the sectioned analysis of competitor from
// the perspective of company. A model that answers "Information not
// available" yields an empty report and no error.
func (a *Agents) GenerateCompetitorReport(ctx context.Context, company, competitor string) (string, error) {
	prompt := fmt.Sprintf(ai.CompetitorReportPrompt, company, competitor, company, competitor, company)
	opts := []ai.GenerateOption{ai.WithModel(a.chatModel)}
	if a.reportThinking != "" {
		opts = append(opts, ai.WithThinking(a.reportThinking))
	}
	report, err := a.complete(ctx, "competitor report", prompt, opts...)
	if err != nil {
		return "", err
	}
	if isNotAvailable(report) {
		logger.Warn("[Agents] No report available", "company", company, "competitor", competitor)
		return "", nil
	}
	return report, nil
}
