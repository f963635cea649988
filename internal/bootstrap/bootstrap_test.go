package bootstrap

import (
	"testing"

	"github.com/smadinen7/Market-Intelligence-Assistant/pkg/workflow"
)

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("AI_ADAPTER", "Ollama")
	t.Setenv("AI_CHAT_MODEL", "llama3.1")
	t.Setenv("AI_MAX_RETRIES", "5")
	t.Setenv("CONTEXT_TOKEN_BUDGET", "")

	cfg := ConfigFromEnv()
	if cfg.Adapter != "ollama" {
		t.Fatalf("expected adapter ollama, got %q", cfg.Adapter)
	}
	if cfg.ChatModel != "llama3.1" {
		t.Fatalf("expected chat model llama3.1, got %q", cfg.ChatModel)
	}
	if cfg.MaxRetries != 5 {
		t.Fatalf("expected 5 retries, got %d", cfg.MaxRetries)
	}
	if cfg.TokenBudget != 6000 {
		t.Fatalf("expected default budget, got %d", cfg.TokenBudget)
	}
}

func TestNewAIClient(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "openai_with_key", cfg: Config{Adapter: "openai", ChatKey: "sk-test", ChatModel: "gpt-4o-mini"}},
		{name: "openai_without_key", cfg: Config{Adapter: "openai", ChatModel: "gpt-4o-mini"}, wantErr: true},
		{name: "ollama", cfg: Config{Adapter: "ollama", ChatModel: "llama3.1", ChatURL: "http://localhost:11434"}},
		{name: "ollama_bad_url", cfg: Config{Adapter: "ollama", ChatURL: "://nope"}, wantErr: true},
		{name: "unknown_adapter", cfg: Config{Adapter: "bard"}, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client, err := NewAIClient(tc.cfg)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if client == nil {
				t.Fatalf("expected client")
			}
		})
	}
}

func TestStackSession(t *testing.T) {
	client, err := NewAIClient(Config{Adapter: "openai", ChatKey: "sk-test", ChatModel: "gpt-4o-mini"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stack := NewStack(Config{MaxRetries: 2, TokenBudget: 100}, client, nil)

	s := stack.Session(workflow.NewSessionParams{ID: "abc"})
	if s.ID() != "abc" {
		t.Fatalf("expected id abc, got %q", s.ID())
	}
	if got := s.CurrentState().State; got != workflow.StateAwaitingCompany {
		t.Fatalf("expected %s, got %s", workflow.StateAwaitingCompany, got)
	}
}
