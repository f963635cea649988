package agents

import (
	"context"
	"fmt"

	"github.com/smadinen7/Market-Intelligence-Assistant/pkg/ai"
)

// ExtractEntities turns a competitor report into the line-oriented records
// the graph parser reads. Extraction runs at temperature zero on the
// extraction model.
func (a *Agents) ExtractEntities(ctx context.Context, company, competitor, report string) (string, error) {
	prompt := fmt.Sprintf(ai.EntityExtractionPrompt, company, competitor, report)
	return a.complete(ctx, "entity extraction", prompt,
		ai.WithModel(a.extractionModel),
		ai.WithTemperature(0),
	)
}
