package workflow

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/smadinen7/Market-Intelligence-Assistant/pkg/graph"
	"github.com/smadinen7/Market-Intelligence-Assistant/pkg/logger"
	"github.com/smadinen7/Market-Intelligence-Assistant/pkg/store"
)

// SelectCompetitor analyzes a competitor and merges the extracted entities
// into the session graph. It returns false without error when an analysis of
// the same competitor is already running.
func (s *Session) SelectCompetitor(ctx context.Context, name string) (bool, error) {
	s.mu.Lock()
	entry, err := s.competitorLocked(name)
	if err != nil {
		s.mu.Unlock()
		return false, err
	}
	if entry.state == CompetitorAnalyzing {
		s.mu.Unlock()
		return false, nil
	}
	entry.state = CompetitorAnalyzing
	entry.err = ""
	s.state = StateAnalyzingCompetitor
	s.selected = entry.competitor.Name
	gen, sessionCtx, g := s.generation, s.ctx, s.graphStore
	company, competitor := s.company, entry.competitor.Name
	s.mu.Unlock()

	logger.Info("[Workflow] Analyzing competitor", "session", s.id, "competitor", competitor)
	report, result, err := s.analyze(ctx, sessionCtx, g, company, competitor)

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		logger.Info("[Workflow] Discarding analysis after reset", "session", s.id, "competitor", competitor)
		return true, ErrSessionReset
	}
	if err != nil {
		if errors.Is(err, graph.ErrEmptyReport) || errors.Is(err, graph.ErrNothingParsed) {
			err = fmt.Errorf("%s: %w", competitor, ErrExtractionEmpty)
		} else {
			err = fmt.Errorf("failed to analyze %s: %w", competitor, err)
		}
		entry.state = CompetitorFailed
		entry.err = err.Error()
		s.lastErr = err.Error()
		s.state = StateCompetitorsIdentified
		if s.analyzingLocked() {
			s.state = StateAnalyzingCompetitor
		}
		if s.selected == competitor {
			s.selected = ""
		}
		s.mu.Unlock()

		logger.Warn("[Workflow] Competitor analysis failed", "session", s.id, "competitor", competitor, "err", err)
		s.notify(ctx, Event{Type: EventCompetitorFailed, Company: company, Competitor: competitor, Error: err.Error()})
		return true, err
	}

	entry.state = CompetitorAnalyzed
	entry.report = report
	s.lastErr = ""
	s.selected = competitor
	s.state = StateCompetitorSelected
	if s.analyzingLocked() {
		s.state = StateAnalyzingCompetitor
	}
	s.mu.Unlock()

	logger.Info("[Workflow] Competitor analyzed", "session", s.id,
		"competitor", competitor,
		"nodes_created", result.Apply.NodesCreated,
		"edges_created", result.Apply.EdgesCreated,
		"skipped_lines", result.Parse.Skipped,
	)
	s.notify(ctx, Event{Type: EventCompetitorAnalyzed, Company: company, Competitor: competitor})
	return true, nil
}

// analyze runs report generation and enrichment, each as its own
// collaborator call.
func (s *Session) analyze(
	ctx context.Context,
	sessionCtx context.Context,
	g *store.Store,
	company string,
	competitor string,
) (string, *graph.EnrichResult, error) {
	reportCtx, cancel := s.callContext(ctx, sessionCtx)
	report, err := s.collab.GenerateCompetitorReport(reportCtx, company, competitor)
	cancel()
	if err != nil {
		return "", nil, fmt.Errorf("report generation failed: %w", err)
	}

	enrichCtx, cancel := s.callContext(ctx, sessionCtx)
	defer cancel()
	result, err := s.graphClient.Enrich(enrichCtx, s.collab, g, company, competitor, report)
	if err != nil {
		return "", result, err
	}
	return report, result, nil
}

// AnalyzeAll analyzes every competitor that is not analyzed yet, at most
// parallel at a time. Failures do not stop the other analyses; they are
// joined into the returned error.
func (s *Session) AnalyzeAll(ctx context.Context, parallel int) error {
	s.mu.Lock()
	var names []string
	for _, e := range s.competitors {
		if e.state != CompetitorAnalyzed {
			names = append(names, e.competitor.Name)
		}
	}
	s.mu.Unlock()

	if parallel <= 0 {
		parallel = 1
	}
	errs := make([]error, len(names))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(parallel)
	for i, name := range names {
		eg.Go(func() error {
			_, err := s.SelectCompetitor(egCtx, name)
			if errors.Is(err, ErrSessionReset) {
				return err
			}
			errs[i] = err
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}
	return errors.Join(errs...)
}

// CheckCompetitor reports the error SelectCompetitor would fail with before
// running any collaborator call.
func (s *Session) CheckCompetitor(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.competitorLocked(name)
	return err
}

func (s *Session) competitorLocked(name string) (*competitorEntry, error) {
	switch s.state {
	case StateCompetitorsIdentified, StateCompetitorSelected, StateAnalyzingCompetitor:
	default:
		return nil, fmt.Errorf("select competitor in %s: %w", s.state, ErrInvalidTransition)
	}
	entry := s.lookupLocked(name)
	if entry == nil {
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownCompetitor)
	}
	return entry, nil
}

func (s *Session) lookupLocked(name string) *competitorEntry {
	if e, ok := s.byKey[store.Normalize(name)]; ok {
		return e
	}
	stripped := store.Normalize(store.StripCorporateSuffix(name))
	for key, e := range s.byKey {
		if store.Normalize(store.StripCorporateSuffix(key)) == stripped {
			return e
		}
	}
	return nil
}

func (s *Session) analyzingLocked() bool {
	for _, e := range s.competitors {
		if e.state == CompetitorAnalyzing {
			return true
		}
	}
	return false
}
