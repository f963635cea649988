// Package workflow sequences competitor discovery, analysis and graph
// enrichment for one session and answers chat questions against it.
package workflow

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/smadinen7/Market-Intelligence-Assistant/pkg/common"
	"github.com/smadinen7/Market-Intelligence-Assistant/pkg/graph"
	"github.com/smadinen7/Market-Intelligence-Assistant/pkg/logger"
	"github.com/smadinen7/Market-Intelligence-Assistant/pkg/query"
	"github.com/smadinen7/Market-Intelligence-Assistant/pkg/store"
)

// Discoverer lists the direct competitors of a company.
type Discoverer interface {
	GenerateCompetitorList(ctx context.Context, company string) ([]common.Competitor, error)
}

// Reporter writes the analysis of a competitor.
type Reporter interface {
	GenerateCompetitorReport(ctx context.Context, company, competitor string) (string, error)
}

// Collaborators bundles the model-backed calls a session makes.
type Collaborators interface {
	Discoverer
	Reporter
	graph.Extractor
	query.Answerer
}

// Session owns the graph, reports and chat history of one user session.
//
// A Session should be created using NewSession. All methods are safe for
// concurrent use; the session lock is never held across collaborator calls.
type Session struct {
	id          string
	collab      Collaborators
	router      *query.Router
	graphClient *graph.GraphClient
	notifier    Notifier
	timeout     time.Duration

	mu          sync.Mutex
	state       State
	company     string
	competitors []*competitorEntry
	byKey       map[string]*competitorEntry
	selected    string
	lastErr     string
	seeded      bool
	discovering bool
	graphStore  *store.Store
	history     []ChatTurn
	generation  uint64
	ctx         context.Context
	cancel      context.CancelFunc
}

// NewSessionParams defines the configuration parameters for creating a
// Session.
//
// Timeout bounds every collaborator call; zero disables it. Router and
// GraphClient fall back to defaults when nil.
type NewSessionParams struct {
	ID            string
	Collaborators Collaborators
	Router        *query.Router
	GraphClient   *graph.GraphClient
	Notifier      Notifier
	Timeout       time.Duration
}

func NewSession(params NewSessionParams) *Session {
	router := params.Router
	if router == nil {
		router = query.NewRouter(query.NewRouterParams{Answerer: params.Collaborators})
	}
	graphClient := params.GraphClient
	if graphClient == nil {
		graphClient = graph.NewGraphClient(graph.NewGraphClientParams{})
	}

	s := &Session{
		id:          params.ID,
		collab:      params.Collaborators,
		router:      router,
		graphClient: graphClient,
		notifier:    params.Notifier,
		timeout:     params.Timeout,
	}
	s.resetLocked()
	return s
}

func (s *Session) ID() string {
	return s.id
}

// resetLocked puts the session into its initial state. Callers hold s.mu.
func (s *Session) resetLocked() {
	if s.cancel != nil {
		s.cancel()
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.generation++
	s.state = StateAwaitingCompany
	s.company = ""
	s.competitors = nil
	s.byKey = make(map[string]*competitorEntry)
	s.selected = ""
	s.lastErr = ""
	s.seeded = false
	s.discovering = false
	s.graphStore = store.New()
	s.history = nil
}

// callContext derives the context of one collaborator call. It ends with the
// caller's context, the session context or the configured timeout.
func (s *Session) callContext(ctx context.Context, sessionCtx context.Context) (context.Context, context.CancelFunc) {
	var cancel context.CancelFunc
	if s.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}
	stop := context.AfterFunc(sessionCtx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// CurrentState returns a consistent view of the session.
func (s *Session) CurrentState() StateView {
	s.mu.Lock()
	defer s.mu.Unlock()

	view := StateView{
		SessionID:   s.id,
		State:       s.state,
		Company:     s.company,
		Competitors: make([]CompetitorView, 0, len(s.competitors)),
		Selected:    s.selected,
		LastError:   s.lastErr,
		Progress:    s.state.Progress(),
		Graph:       s.graphStore.Stats(),
	}
	for _, e := range s.competitors {
		view.Competitors = append(view.Competitors, CompetitorView{
			Name:      e.competitor.Name,
			Rationale: e.competitor.Rationale,
			State:     e.state,
			Error:     e.err,
			HasReport: e.report != "",
		})
	}
	return view
}

// SelectCompany validates the company name, creates the self node and runs
// competitor discovery. A failed or empty discovery leaves the session in
// StateIdentifyingCompetitors so the call can be retried.
func (s *Session) SelectCompany(ctx context.Context, name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyCompany
	}
	company, err := ValidateCompanyName(name)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.discovering {
		s.mu.Unlock()
		return ErrBusy
	}
	if s.state != StateAwaitingCompany && s.state != StateIdentifyingCompetitors {
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("select company in %s: %w", state, ErrInvalidTransition)
	}
	if store.Normalize(company) != store.Normalize(s.company) {
		s.graphStore = store.New()
	}
	if _, err := s.graphStore.UpsertNode(common.NodeCompany, company, common.NodeAttrs{Role: common.RoleSelf}); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to create self node: %w", err)
	}
	s.state = StateIdentifyingCompetitors
	s.company = company
	s.lastErr = ""
	s.discovering = true
	gen, sessionCtx := s.generation, s.ctx
	s.mu.Unlock()

	logger.Info("[Workflow] Identifying competitors", "session", s.id, "company", company)
	callCtx, cancel := s.callContext(ctx, sessionCtx)
	found, err := s.collab.GenerateCompetitorList(callCtx, company)
	cancel()

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return ErrSessionReset
	}
	s.discovering = false

	competitors := filterCompetitors(found, company)
	if err != nil || len(competitors) == 0 {
		if err == nil {
			err = fmt.Errorf("%w for %s", ErrDiscoveryEmpty, company)
		} else {
			err = fmt.Errorf("%w for %s: %v", ErrDiscoveryEmpty, company, err)
		}
		s.lastErr = err.Error()
		s.mu.Unlock()
		logger.Warn("[Workflow] Competitor discovery failed", "session", s.id, "company", company, "err", err)
		return err
	}

	if err := s.seedLocked(ctx, competitors); err != nil {
		s.lastErr = err.Error()
		s.mu.Unlock()
		return err
	}
	s.state = StateCompetitorsIdentified
	seeded := make([]string, len(s.competitors))
	for i, e := range s.competitors {
		seeded[i] = e.competitor.Name
	}
	s.mu.Unlock()

	logger.Info("[Workflow] Competitors identified", "session", s.id, "company", company, "competitors", seeded)
	s.notify(ctx, Event{Type: EventSessionSeeded, Company: company, Competitors: seeded})
	return nil
}

// seedLocked records the competitors and writes them into the graph once.
func (s *Session) seedLocked(ctx context.Context, competitors []common.Competitor) error {
	if s.seeded {
		return nil
	}
	res, err := s.graphStore.Apply(context.WithoutCancel(ctx), seedMutations(s.company, competitors))
	if err != nil {
		return fmt.Errorf("failed to seed graph: %w", err)
	}
	logger.Debug("[Workflow] Seeded graph", "session", s.id,
		"nodes_created", res.NodesCreated,
		"edges_created", res.EdgesCreated,
		"rejected", res.Rejected,
	)

	s.competitors = make([]*competitorEntry, 0, len(competitors))
	s.byKey = make(map[string]*competitorEntry, len(competitors))
	for _, c := range competitors {
		e := &competitorEntry{competitor: c, state: CompetitorPending}
		s.competitors = append(s.competitors, e)
		s.byKey[store.Normalize(c.Name)] = e
	}
	s.seeded = true
	return nil
}

// BackToCompetitors leaves the selected competitor view.
func (s *Session) BackToCompetitors() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateCompetitorSelected {
		return fmt.Errorf("back to competitors in %s: %w", s.state, ErrInvalidTransition)
	}
	s.state = StateCompetitorsIdentified
	s.selected = ""
	return nil
}

// ResetSession cancels in-flight work and discards the graph, reports and
// chat history. Results of calls that were running are dropped.
func (s *Session) ResetSession(ctx context.Context) {
	s.mu.Lock()
	company := s.company
	s.resetLocked()
	s.mu.Unlock()

	logger.Info("[Workflow] Session reset", "session", s.id)
	s.notify(ctx, Event{Type: EventSessionReset, Company: company})
}

// Close cancels in-flight work without changing state.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancel()
}

// GraphSnapshot returns a deep copy of the session graph.
func (s *Session) GraphSnapshot() common.Snapshot {
	return s.currentGraph().Snapshot()
}

func (s *Session) currentGraph() *store.Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.graphStore
}
