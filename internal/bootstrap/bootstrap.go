// Package bootstrap builds the model client and session collaborators from
// the environment. It is shared by the server and the CLI.
package bootstrap

import (
	"fmt"
	"strings"

	"github.com/smadinen7/Market-Intelligence-Assistant/internal/util"
	"github.com/smadinen7/Market-Intelligence-Assistant/pkg/agents"
	"github.com/smadinen7/Market-Intelligence-Assistant/pkg/ai"
	oai "github.com/smadinen7/Market-Intelligence-Assistant/pkg/ai/ollama"
	gai "github.com/smadinen7/Market-Intelligence-Assistant/pkg/ai/openai"
	"github.com/smadinen7/Market-Intelligence-Assistant/pkg/graph"
	"github.com/smadinen7/Market-Intelligence-Assistant/pkg/query"
	"github.com/smadinen7/Market-Intelligence-Assistant/pkg/workflow"
)

// Config is the part of the environment the session stack depends on.
type Config struct {
	Adapter         string
	ChatURL         string
	ChatKey         string
	ChatModel       string
	ExtractionModel string
	Thinking        string
	ParallelReq     int
	MaxRetries      int
	TokenBudget     int
}

// ConfigFromEnv reads Config from the environment.
func ConfigFromEnv() Config {
	return Config{
		Adapter:         strings.ToLower(util.GetEnvString("AI_ADAPTER", "openai")),
		ChatURL:         util.GetEnv("AI_CHAT_URL"),
		ChatKey:         util.GetEnv("AI_CHAT_KEY"),
		ChatModel:       util.GetEnvString("AI_CHAT_MODEL", "gpt-4o-mini"),
		ExtractionModel: util.GetEnv("AI_EXTRACT_MODEL"),
		Thinking:        util.GetEnv("AI_THINKING"),
		ParallelReq:     util.GetEnvInt("AI_PARALLEL_REQ", 4),
		MaxRetries:      util.GetEnvInt("AI_MAX_RETRIES", 3),
		TokenBudget:     util.GetEnvInt("CONTEXT_TOKEN_BUDGET", 6000),
	}
}

// NewAIClient creates the model client selected by cfg.Adapter.
func NewAIClient(cfg Config) (ai.GraphAIClient, error) {
	switch cfg.Adapter {
	case "ollama":
		client, err := oai.NewGraphOllamaClient(oai.NewGraphOllamaClientParams{
			ChatModel:             cfg.ChatModel,
			ExtractionModel:       cfg.ExtractionModel,
			BaseURL:               cfg.ChatURL,
			ApiKey:                cfg.ChatKey,
			MaxConcurrentRequests: int64(cfg.ParallelReq),
		})
		if err != nil {
			return nil, fmt.Errorf("could not create ollama client: %w", err)
		}
		return client, nil
	case "openai", "":
		if cfg.ChatKey == "" {
			return nil, fmt.Errorf("AI_CHAT_KEY is required for the openai adapter")
		}
		return gai.NewGraphOpenAIClient(gai.NewGraphOpenAIClientParams{
			ChatModel:       cfg.ChatModel,
			ExtractionModel: cfg.ExtractionModel,
			ChatURL:         cfg.ChatURL,
			ChatKey:         cfg.ChatKey,
		}), nil
	default:
		return nil, fmt.Errorf("unknown AI_ADAPTER %q", cfg.Adapter)
	}
}

// Stack holds the stateless parts every session shares.
type Stack struct {
	Collaborators workflow.Collaborators
	Router        *query.Router
	GraphClient   *graph.GraphClient
}

// NewStack wires the collaborators, router and graph client around client.
// tracer may be nil.
func NewStack(cfg Config, client ai.GraphAIClient, tracer query.Tracer) *Stack {
	collab := agents.New(agents.NewAgentsParams{
		Client:         client,
		MaxRetries:     cfg.MaxRetries,
		ReportThinking: cfg.Thinking,
	})
	return &Stack{
		Collaborators: collab,
		Router: query.NewRouter(query.NewRouterParams{
			Answerer:    collab,
			Tracer:      tracer,
			TokenBudget: cfg.TokenBudget,
		}),
		GraphClient: graph.NewGraphClient(graph.NewGraphClientParams{MaxRetries: cfg.MaxRetries}),
	}
}

// Session creates a workflow session that uses the shared stack.
func (s *Stack) Session(params workflow.NewSessionParams) *workflow.Session {
	params.Collaborators = s.Collaborators
	params.Router = s.Router
	params.GraphClient = s.GraphClient
	return workflow.NewSession(params)
}
