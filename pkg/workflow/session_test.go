package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/smadinen7/Market-Intelligence-Assistant/pkg/common"
	"github.com/smadinen7/Market-Intelligence-Assistant/pkg/query"
)

type fakeCollab struct {
	mu sync.Mutex

	competitors   []common.Competitor
	discoverErr   error
	discoverCalls int
	discoverGate  chan struct{}
	discoverStart chan struct{}

	reports     map[string]string
	reportGate  chan struct{}
	reportStart chan string

	extraction map[string]string
	answer     string
}

func newFakeCollab() *fakeCollab {
	return &fakeCollab{
		competitors: []common.Competitor{
			{Name: "Acme", Rationale: "itself"},
			{Name: "Globex Corp", Rationale: "Cloud rival"},
			{Name: "globex corp"},
			{Name: "Initech", Rationale: "Retail rival"},
			{Name: "Hooli"},
			{Name: "Umbrella"},
		},
		answer: "Globex sells storage.",
	}
}

func (f *fakeCollab) GenerateCompetitorList(ctx context.Context, _ string) ([]common.Competitor, error) {
	f.mu.Lock()
	f.discoverCalls++
	out, err := f.competitors, f.discoverErr
	gate, start := f.discoverGate, f.discoverStart
	f.mu.Unlock()

	if start != nil {
		start <- struct{}{}
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return out, err
}

func (f *fakeCollab) GenerateCompetitorReport(ctx context.Context, _, competitor string) (string, error) {
	f.mu.Lock()
	gate, start := f.reportGate, f.reportStart
	report, ok := f.reports[competitor]
	f.mu.Unlock()

	if start != nil {
		start <- competitor
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if !ok {
		report = fmt.Sprintf("TopLine: %s grows in cloud storage.", competitor)
	}
	return report, nil
}

func (f *fakeCollab) ExtractEntities(_ context.Context, _, competitor, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if text, ok := f.extraction[competitor]; ok {
		return text, nil
	}
	return fmt.Sprintf("COMPANY: %s\nMARKET: Cloud Storage\nRELATIONSHIP: %s OPERATES_IN Cloud Storage", competitor, competitor), nil
}

func (f *fakeCollab) GenerateAnswer(_ context.Context, _ string, _ query.ContextKind, _ string) (string, error) {
	return f.answer, nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []Event
}

func (n *recordingNotifier) Notify(_ context.Context, e Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
	return nil
}

func (n *recordingNotifier) types() []EventType {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]EventType, len(n.events))
	for i, e := range n.events {
		out[i] = e.Type
	}
	return out
}

func newTestSession(collab *fakeCollab, notifier Notifier) *Session {
	return NewSession(NewSessionParams{
		ID:            "test",
		Collaborators: collab,
		Notifier:      notifier,
		Timeout:       5 * time.Second,
	})
}

func seededSession(t *testing.T, collab *fakeCollab, notifier Notifier) *Session {
	t.Helper()
	s := newTestSession(collab, notifier)
	if err := s.SelectCompany(context.Background(), "Acme Inc"); err != nil {
		t.Fatalf("SelectCompany: %v", err)
	}
	return s
}

func TestValidateCompanyName(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr error
	}{
		{"  Acme   Inc ", "Acme Inc", nil},
		{"3M", "3M", nil},
		{"", "", ErrEmptyCompany},
		{"Inc", "", ErrInvalidCompany},
		{"X Corp", "", ErrInvalidCompany},
		{"A", "", ErrInvalidCompany},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ValidateCompanyName(tt.in)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSelectCompanySeedsGraph(t *testing.T) {
	collab := newFakeCollab()
	notifier := &recordingNotifier{}
	s := seededSession(t, collab, notifier)

	view := s.CurrentState()
	if view.State != StateCompetitorsIdentified || view.Progress != 0.4 {
		t.Fatalf("unexpected state %s progress %v", view.State, view.Progress)
	}
	var names []string
	for _, c := range view.Competitors {
		if c.State != CompetitorPending {
			t.Fatalf("%s: expected pending, got %s", c.Name, c.State)
		}
		names = append(names, c.Name)
	}
	if fmt.Sprint(names) != "[Globex Corp Initech Hooli]" {
		t.Fatalf("unexpected competitors %v", names)
	}
	if view.Graph.Nodes != 4 || view.Graph.Edges != 3 {
		t.Fatalf("expected 4 nodes and 3 edges, got %+v", view.Graph)
	}

	snap := s.GraphSnapshot()
	self := 0
	for _, n := range snap.Nodes {
		if n.Role == common.RoleSelf {
			self++
			if n.Name != "Acme Inc" {
				t.Fatalf("unexpected self node %+v", n)
			}
		}
	}
	if self != 1 {
		t.Fatalf("expected exactly one self node, got %d", self)
	}
	if got := notifier.types(); len(got) != 1 || got[0] != EventSessionSeeded {
		t.Fatalf("unexpected events %v", got)
	}
}

func TestSelectCompanyRejectsBeforeDiscovery(t *testing.T) {
	collab := newFakeCollab()
	s := newTestSession(collab, nil)

	if err := s.SelectCompany(context.Background(), "   "); !errors.Is(err, ErrEmptyCompany) {
		t.Fatalf("expected ErrEmptyCompany, got %v", err)
	}
	if err := s.SelectCompany(context.Background(), "Ltd."); !errors.Is(err, ErrInvalidCompany) {
		t.Fatalf("expected ErrInvalidCompany, got %v", err)
	}
	if collab.discoverCalls != 0 {
		t.Fatalf("discovery should not run, ran %d times", collab.discoverCalls)
	}
	if view := s.CurrentState(); view.State != StateAwaitingCompany || view.Graph.Nodes != 0 {
		t.Fatalf("unexpected state %+v", view)
	}
}

func TestSelectCompanyDiscoveryEmptyCanRetry(t *testing.T) {
	collab := newFakeCollab()
	collab.competitors = []common.Competitor{{Name: "Acme Inc"}}
	s := newTestSession(collab, nil)

	err := s.SelectCompany(context.Background(), "Acme Inc")
	if !errors.Is(err, ErrDiscoveryEmpty) {
		t.Fatalf("expected ErrDiscoveryEmpty, got %v", err)
	}
	view := s.CurrentState()
	if view.State != StateIdentifyingCompetitors || view.LastError == "" {
		t.Fatalf("unexpected state %+v", view)
	}
	if view.Graph.Nodes != 1 || view.Graph.Edges != 0 {
		t.Fatalf("graph must hold only the self node, got %+v", view.Graph)
	}

	collab.mu.Lock()
	collab.competitors = []common.Competitor{{Name: "Globex"}}
	collab.mu.Unlock()
	if err := s.SelectCompany(context.Background(), "Acme Inc"); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if view := s.CurrentState(); view.State != StateCompetitorsIdentified || view.Graph.Nodes != 2 {
		t.Fatalf("unexpected state after retry %+v", view)
	}
}

func TestSelectCompanyDiscoveryError(t *testing.T) {
	collab := newFakeCollab()
	collab.discoverErr = errors.New("model down")
	s := newTestSession(collab, nil)

	if err := s.SelectCompany(context.Background(), "Acme"); !errors.Is(err, ErrDiscoveryEmpty) {
		t.Fatalf("expected ErrDiscoveryEmpty, got %v", err)
	}
	if s.CurrentState().State != StateIdentifyingCompetitors {
		t.Fatalf("expected identifying_competitors")
	}
}

func TestSelectCompanyBusy(t *testing.T) {
	collab := newFakeCollab()
	collab.discoverGate = make(chan struct{})
	collab.discoverStart = make(chan struct{}, 1)
	s := newTestSession(collab, nil)

	done := make(chan error, 1)
	go func() { done <- s.SelectCompany(context.Background(), "Acme") }()
	<-collab.discoverStart

	if err := s.SelectCompany(context.Background(), "Acme"); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	close(collab.discoverGate)
	if err := <-done; err != nil {
		t.Fatalf("SelectCompany: %v", err)
	}
	if err := s.SelectCompany(context.Background(), "Acme"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition once seeded, got %v", err)
	}
}

func TestSelectCompetitorSuccess(t *testing.T) {
	collab := newFakeCollab()
	notifier := &recordingNotifier{}
	s := seededSession(t, collab, notifier)

	started, err := s.SelectCompetitor(context.Background(), "globex")
	if err != nil || !started {
		t.Fatalf("SelectCompetitor = %v, %v", started, err)
	}

	view := s.CurrentState()
	if view.State != StateCompetitorSelected || view.Progress != 1.0 || view.Selected != "Globex Corp" {
		t.Fatalf("unexpected state %+v", view)
	}
	if view.Competitors[0].State != CompetitorAnalyzed || !view.Competitors[0].HasReport {
		t.Fatalf("unexpected competitor %+v", view.Competitors[0])
	}
	if view.Graph.Nodes != 5 || view.Graph.Edges != 4 {
		t.Fatalf("expected market node and edge merged, got %+v", view.Graph)
	}
	docs := s.Documents()
	if len(docs.Reports) != 1 || docs.Reports[0].Competitor != "Globex Corp" {
		t.Fatalf("unexpected documents %+v", docs)
	}

	if err := s.BackToCompetitors(); err != nil {
		t.Fatalf("BackToCompetitors: %v", err)
	}
	if err := s.BackToCompetitors(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if got := notifier.types(); len(got) != 2 || got[1] != EventCompetitorAnalyzed {
		t.Fatalf("unexpected events %v", got)
	}
}

func TestSelectCompetitorReanalysisOverwritesReport(t *testing.T) {
	collab := newFakeCollab()
	collab.reports = map[string]string{"Globex Corp": "TopLine: first take."}
	s := seededSession(t, collab, nil)

	if _, err := s.SelectCompetitor(context.Background(), "Globex Corp"); err != nil {
		t.Fatalf("SelectCompetitor: %v", err)
	}
	before := s.CurrentState().Graph
	if err := s.BackToCompetitors(); err != nil {
		t.Fatalf("BackToCompetitors: %v", err)
	}

	collab.mu.Lock()
	collab.reports["Globex Corp"] = "TopLine: newest."
	collab.mu.Unlock()
	started, err := s.SelectCompetitor(context.Background(), "globex corp")
	if !started || err != nil {
		t.Fatalf("second SelectCompetitor = %v, %v", started, err)
	}

	view := s.CurrentState()
	if view.Graph.Nodes != before.Nodes || view.Graph.Edges != before.Edges {
		t.Fatalf("re-analysis changed counts: %+v -> %+v", before, view.Graph)
	}
	if view.State != StateCompetitorSelected || view.Competitors[0].State != CompetitorAnalyzed {
		t.Fatalf("unexpected state %+v", view)
	}
	docs := s.Documents()
	if len(docs.Reports) != 1 || docs.Reports[0].Text != "TopLine: newest." {
		t.Fatalf("expected overwritten report, got %+v", docs.Reports)
	}
}

func TestSelectCompetitorExtractionEmpty(t *testing.T) {
	tests := []struct {
		name       string
		report     string
		extraction string
	}{
		{name: "nothing parsed", extraction: "The analysis mentions no entities."},
		{name: "empty report", report: "   "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			collab := newFakeCollab()
			if tt.report != "" {
				collab.reports = map[string]string{"Initech": tt.report}
			}
			if tt.extraction != "" {
				collab.extraction = map[string]string{"Initech": tt.extraction}
			}
			notifier := &recordingNotifier{}
			s := seededSession(t, collab, notifier)

			started, err := s.SelectCompetitor(context.Background(), "Initech")
			if !started || !errors.Is(err, ErrExtractionEmpty) {
				t.Fatalf("SelectCompetitor = %v, %v", started, err)
			}
			view := s.CurrentState()
			if view.State != StateCompetitorsIdentified || view.LastError == "" {
				t.Fatalf("unexpected state %+v", view)
			}
			if c := view.Competitors[1]; c.State != CompetitorFailed || c.Error == "" || c.HasReport {
				t.Fatalf("unexpected competitor %+v", c)
			}
			if view.Graph.Nodes != 4 || view.Graph.Edges != 3 {
				t.Fatalf("graph must be unchanged, got %+v", view.Graph)
			}
			if got := notifier.types(); got[len(got)-1] != EventCompetitorFailed {
				t.Fatalf("unexpected events %v", got)
			}
		})
	}
}

func TestSelectCompetitorErrors(t *testing.T) {
	s := newTestSession(newFakeCollab(), nil)
	if _, err := s.SelectCompetitor(context.Background(), "Globex"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}

	s = seededSession(t, newFakeCollab(), nil)
	if _, err := s.SelectCompetitor(context.Background(), "Umbrella"); !errors.Is(err, ErrUnknownCompetitor) {
		t.Fatalf("expected ErrUnknownCompetitor, got %v", err)
	}
}

func TestSelectCompetitorInFlight(t *testing.T) {
	collab := newFakeCollab()
	s := seededSession(t, collab, nil)
	collab.mu.Lock()
	collab.reportGate = make(chan struct{})
	collab.reportStart = make(chan string, 1)
	collab.mu.Unlock()

	type result struct {
		started bool
		err     error
	}
	done := make(chan result, 1)
	go func() {
		started, err := s.SelectCompetitor(context.Background(), "Hooli")
		done <- result{started, err}
	}()
	<-collab.reportStart

	started, err := s.SelectCompetitor(context.Background(), "hooli")
	if started || err != nil {
		t.Fatalf("second call = %v, %v; want false, nil", started, err)
	}
	if view := s.CurrentState(); view.State != StateAnalyzingCompetitor || view.Progress != 0.6 {
		t.Fatalf("unexpected state %+v", view)
	}

	close(collab.reportGate)
	if r := <-done; !r.started || r.err != nil {
		t.Fatalf("first call = %v, %v", r.started, r.err)
	}
	if s.CurrentState().State != StateCompetitorSelected {
		t.Fatalf("expected competitor_selected")
	}
}

func TestResetDiscardsInFlightAnalysis(t *testing.T) {
	collab := newFakeCollab()
	notifier := &recordingNotifier{}
	s := seededSession(t, collab, notifier)
	collab.mu.Lock()
	collab.reportGate = make(chan struct{})
	collab.reportStart = make(chan string, 1)
	collab.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		_, err := s.SelectCompetitor(context.Background(), "Globex Corp")
		done <- err
	}()
	<-collab.reportStart

	s.ResetSession(context.Background())
	if err := <-done; !errors.Is(err, ErrSessionReset) {
		t.Fatalf("expected ErrSessionReset, got %v", err)
	}

	view := s.CurrentState()
	if view.State != StateAwaitingCompany || view.Company != "" || len(view.Competitors) != 0 {
		t.Fatalf("unexpected state after reset %+v", view)
	}
	if view.Graph.Nodes != 0 || len(s.History()) != 0 || len(s.Documents().Reports) != 0 {
		t.Fatalf("reset must discard graph, history and reports")
	}
	if got := notifier.types(); got[len(got)-1] != EventSessionReset {
		t.Fatalf("unexpected events %v", got)
	}

	collab.mu.Lock()
	collab.reportGate = nil
	collab.reportStart = nil
	collab.mu.Unlock()
	if err := s.SelectCompany(context.Background(), "Initech"); err != nil {
		t.Fatalf("SelectCompany after reset: %v", err)
	}
}

func TestChatRecordsHistory(t *testing.T) {
	collab := newFakeCollab()
	s := seededSession(t, collab, nil)
	if _, err := s.SelectCompetitor(context.Background(), "Globex Corp"); err != nil {
		t.Fatalf("SelectCompetitor: %v", err)
	}

	if _, err := s.Chat(context.Background(), "  "); !errors.Is(err, ErrEmptyQuestion) {
		t.Fatalf("expected ErrEmptyQuestion, got %v", err)
	}

	answer, err := s.Chat(context.Background(), "What does Globex sell?")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if answer.Text != "Globex sells storage." || answer.Route != query.RouteContext {
		t.Fatalf("unexpected answer %+v", answer)
	}

	answer, err = s.Chat(context.Background(), "What is Globex Corp connected to?")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if answer.Route != query.RouteGraph || answer.Fallback() {
		t.Fatalf("expected graph route without fallback, got %+v", answer)
	}

	history := s.History()
	if len(history) != 2 || history[0].Question != "What does Globex sell?" || history[1].Route != query.RouteGraph {
		t.Fatalf("unexpected history %+v", history)
	}
}

func TestAnalyzeAll(t *testing.T) {
	collab := newFakeCollab()
	collab.extraction = map[string]string{"Hooli": "nothing useful"}
	s := seededSession(t, collab, nil)

	err := s.AnalyzeAll(context.Background(), 2)
	if !errors.Is(err, ErrExtractionEmpty) {
		t.Fatalf("expected joined ErrExtractionEmpty, got %v", err)
	}

	view := s.CurrentState()
	states := map[string]CompetitorState{}
	for _, c := range view.Competitors {
		states[c.Name] = c.State
	}
	if states["Globex Corp"] != CompetitorAnalyzed || states["Initech"] != CompetitorAnalyzed || states["Hooli"] != CompetitorFailed {
		t.Fatalf("unexpected competitor states %v", states)
	}
	if len(s.Documents().Reports) != 2 {
		t.Fatalf("expected two reports")
	}
}

func TestCheckCompetitor(t *testing.T) {
	s := newTestSession(newFakeCollab(), nil)
	if err := s.CheckCompetitor("Globex"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}

	s = seededSession(t, newFakeCollab(), nil)
	if err := s.CheckCompetitor("Globex"); err != nil {
		t.Fatalf("CheckCompetitor: %v", err)
	}
	if err := s.CheckCompetitor("Umbrella"); !errors.Is(err, ErrUnknownCompetitor) {
		t.Fatalf("expected ErrUnknownCompetitor, got %v", err)
	}
}
