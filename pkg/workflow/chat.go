package workflow

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/smadinen7/Market-Intelligence-Assistant/pkg/query"
)

// ChatTurn is one question and its routed answer.
type ChatTurn struct {
	Question       string      `json:"question"`
	Answer         string      `json:"answer"`
	Route          query.Route `json:"route"`
	FallbackReason string      `json:"fallback_reason,omitempty"`
	Time           time.Time   `json:"time"`
}

// Chat answers a question from the session's reports or graph and records
// the turn in the chat history.
func (s *Session) Chat(ctx context.Context, question string, tracers ...query.Tracer) (query.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return query.Answer{}, ErrEmptyQuestion
	}

	s.mu.Lock()
	gen, sessionCtx, g := s.generation, s.ctx, s.graphStore
	docs := s.documentsLocked()
	s.mu.Unlock()

	callCtx, cancel := s.callContext(ctx, sessionCtx)
	answer := s.router.Answer(callCtx, g, docs, question, tracers...)
	cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return answer, ErrSessionReset
	}
	s.history = append(s.history, ChatTurn{
		Question:       question,
		Answer:         answer.Text,
		Route:          answer.Route,
		FallbackReason: answer.FallbackReason,
		Time:           time.Now().UTC(),
	})
	return answer, nil
}

// History returns the chat turns of the session in order.
func (s *Session) History() []ChatTurn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.history)
}

// Documents returns the text the context path answers from.
func (s *Session) Documents() query.Documents {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.documentsLocked()
}

func (s *Session) documentsLocked() query.Documents {
	docs := query.Documents{}
	if s.company != "" {
		docs.SelfFacts = selfFacts(s.company, s.competitors)
	}
	for _, e := range s.competitors {
		if e.report == "" {
			continue
		}
		docs.Reports = append(docs.Reports, query.Report{Competitor: e.competitor.Name, Text: e.report})
	}
	return docs
}
