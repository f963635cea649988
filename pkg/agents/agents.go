// Package agents implements the LLM-backed collaborators of a session:
// competitor discovery, competitor reports, entity extraction and answers.
package agents

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/smadinen7/Market-Intelligence-Assistant/internal/util"
	"github.com/smadinen7/Market-Intelligence-Assistant/pkg/ai"
	"github.com/smadinen7/Market-Intelligence-Assistant/pkg/logger"
)

// notAvailable is the phrase the prompts ask for when a model cannot answer.
const notAvailable = "information not available"

var errBlankCompletion = errors.New("model returned blank text")

// Agents runs the collaborator prompts against a GraphAIClient.
//
// Agents should be created using New. It holds no session state and is safe
// for concurrent use as long as the client is.
type Agents struct {
	client          ai.GraphAIClient
	maxRetries      int
	chatModel       string
	extractionModel string
	reportThinking  string
}

// NewAgentsParams defines the configuration parameters for creating Agents.
//
// ChatModel and ExtractionModel override the client defaults when set.
// ReportThinking sets the reasoning effort of report generation, the only
// call long enough to benefit from it.
type NewAgentsParams struct {
	Client          ai.GraphAIClient
	MaxRetries      int
	ChatModel       string
	ExtractionModel string
	ReportThinking  string
}

func New(params NewAgentsParams) *Agents {
	maxRetries := params.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &Agents{
		client:          params.Client,
		maxRetries:      maxRetries,
		chatModel:       params.ChatModel,
		extractionModel: params.ExtractionModel,
		reportThinking:  params.ReportThinking,
	}
}

// complete runs a text completion with retries. Blank output counts as a
// failed attempt.
func (a *Agents) complete(ctx context.Context, task, prompt string, opts ...ai.GenerateOption) (string, error) {
	text, err := util.RetryWithContext(ctx, a.maxRetries, func(ctx context.Context) (string, error) {
		out, err := a.client.GenerateCompletion(ctx, prompt, opts...)
		if err != nil {
			logger.Debug("[Agents] Completion attempt failed", "task", task, "err", err)
			return "", err
		}
		out = strings.TrimSpace(out)
		if out == "" {
			return "", errBlankCompletion
		}
		return out, nil
	})
	if err != nil {
		return "", fmt.Errorf("%s failed: %w", task, err)
	}
	return text, nil
}

// isNotAvailable reports whether a model reply is the "no answer" phrase.
func isNotAvailable(text string) bool {
	text = strings.ToLower(strings.TrimSpace(text))
	text = strings.TrimRight(text, ".! ")
	return text == notAvailable
}
