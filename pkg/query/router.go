package query

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/smadinen7/Market-Intelligence-Assistant/pkg/common"
	"github.com/smadinen7/Market-Intelligence-Assistant/pkg/logger"
)

const defaultTokenEncoding = "o200k_base"

// Router answers chat questions from either the report text or the graph.
//
// A Router should be created using NewRouter. It holds no session state and
// is safe for concurrent use.
type Router struct {
	answerer      Answerer
	tracer        Tracer
	tokenBudget   int
	tokenEncoding string
}

// NewRouterParams defines the configuration parameters for creating a Router.
//
// TokenBudget caps the context path in tokens; zero disables the cap.
type NewRouterParams struct {
	Answerer      Answerer
	Tracer        Tracer
	TokenBudget   int
	TokenEncoding string
}

func NewRouter(params NewRouterParams) *Router {
	enc := params.TokenEncoding
	if enc == "" {
		enc = defaultTokenEncoding
	}
	return &Router{
		answerer:      params.Answerer,
		tracer:        params.Tracer,
		tokenBudget:   params.TokenBudget,
		tokenEncoding: enc,
	}
}

// Answer is the routed reply to a question.
type Answer struct {
	Text           string         `json:"answer"`
	Route          Route          `json:"route"`
	Classification Classification `json:"classification"`
	FallbackReason string         `json:"fallback_reason,omitempty"`
	Subgraph       *Subgraph      `json:"subgraph,omitempty"`
}

// Fallback reports whether a graph question was answered from text.
func (a Answer) Fallback() bool {
	return a.FallbackReason != ""
}

// Answer classifies the question, runs the matching path and always
// returns a non-empty answer text. Graph questions whose query finds
// nothing are answered from the documents instead.
func (r *Router) Answer(ctx context.Context, g Graph, docs Documents, question string, tracers ...Tracer) Answer {
	tracer := r.tracerFor(tracers)
	c := Classify(question)
	RecordRoute(tracer, c)

	res := Answer{Route: c.Route, Classification: c}
	if c.Route == RouteGraph {
		sg, err := r.graphQuery(g, question, c, tracer)
		if err == nil {
			payload, jerr := sg.JSON()
			if jerr == nil {
				res.Subgraph = sg
				res.Text = r.generate(ctx, question, ContextSubgraph, payload, tracer)
				return res
			}
			err = jerr
		}

		res.Route = RouteContext
		res.FallbackReason = err.Error()
		RecordFallback(tracer, res.FallbackReason)
		logger.Info("[Router] Falling back to context path", "reason", res.FallbackReason)
	}

	selfName := ""
	if g != nil {
		if self, ok := g.Self(); ok {
			selfName = self.Name
		}
	}
	text, truncated, err := fitToBudget(BuildContext(selfName, docs), r.tokenEncoding, r.tokenBudget)
	if err != nil {
		logger.Warn("[Router] Token budget not applied", "err", err)
		text = strings.Join(BuildContext(selfName, docs), "\n\n")
	}
	if truncated {
		tracer.Record(TraceEvent{Kind: TraceEventContextTruncated, Tokens: r.tokenBudget})
		logger.Debug("[Router] Context truncated", "budget", r.tokenBudget)
	}
	res.Text = r.generate(ctx, question, ContextReports, text, tracer)
	return res
}

func (r *Router) tracerFor(extra []Tracer) Tracer {
	all := MultiTracer{}
	if r.tracer != nil {
		all = append(all, r.tracer)
	}
	for _, t := range extra {
		if t != nil {
			all = append(all, t)
		}
	}
	return all
}

func (r *Router) graphQuery(g Graph, question string, c Classification, tracer Tracer) (*Subgraph, error) {
	if g == nil {
		return nil, fmt.Errorf("no graph: %w", ErrGraphQueryEmpty)
	}
	nodes := ResolveEntities(g, question)
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	RecordQueriedNodeIDs(tracer, ids...)

	engine := NewEngine(g)
	var sg *Subgraph
	var err error
	switch c.Category {
	case CategoryShared:
		a, b, ok := companyPair(g, nodes)
		if !ok {
			return nil, fmt.Errorf("need two companies to compare: %w", ErrGraphQueryEmpty)
		}
		t := sharedEdgeType(Tokenize(question))
		RecordQueriedEdgeTypes(tracer, string(t))
		if t == common.EdgeCompetesWith {
			sg, err = engine.CompetitorOverlap(a, b)
		} else {
			sg, err = engine.SharedTargets(a, b, t)
		}
	case CategoryNetwork:
		if len(ids) == 0 {
			return nil, fmt.Errorf("no known entity named: %w", ErrGraphQueryEmpty)
		}
		sg, err = engine.Neighborhood(ids...)
	default:
		return nil, fmt.Errorf("no graph category: %w", ErrGraphQueryEmpty)
	}
	if err != nil {
		return nil, fmt.Errorf("graph query failed: %w", err)
	}
	if sg.Empty() {
		return nil, fmt.Errorf("%s: %w", sg.Operation, ErrGraphQueryEmpty)
	}
	return sg, nil
}

// companyPair picks the two companies a shared question is about. The self
// company fills in when only one company is named.
func companyPair(g Graph, nodes []common.Node) (string, string, bool) {
	var companies []string
	for _, n := range nodes {
		if n.Type == common.NodeCompany {
			companies = append(companies, n.ID)
		}
	}
	self, hasSelf := g.Self()
	mentioned := false
	if hasSelf {
		if i := slices.Index(companies, self.ID); i >= 0 {
			companies = slices.Delete(companies, i, i+1)
			mentioned = true
		}
	}
	switch {
	case len(companies) >= 2 && !mentioned:
		return companies[0], companies[1], true
	case hasSelf && len(companies) >= 1:
		return self.ID, companies[0], true
	case len(companies) >= 2:
		return companies[0], companies[1], true
	}
	return "", "", false
}

func sharedEdgeType(tokens []string) common.EdgeType {
	if slices.Contains(tokens, "market") || slices.Contains(tokens, "markets") {
		return common.EdgeOperatesIn
	}
	if mentionsCompetitors(tokens) {
		return common.EdgeCompetesWith
	}
	return common.EdgeOperatesIn
}

func (r *Router) generate(ctx context.Context, question string, kind ContextKind, payload string, tracer Tracer) string {
	if r.answerer == nil {
		return NotAvailable
	}
	start := time.Now()
	text, err := r.answerer.GenerateAnswer(ctx, question, kind, payload)
	if err != nil {
		logger.Error("[Router] Answer generation failed", "kind", kind, "err", err)
		tracer.Record(TraceEvent{
			Kind:       TraceEventCollaboratorFailed,
			Error:      err.Error(),
			DurationMs: time.Since(start).Milliseconds(),
		})
		return NotAvailable
	}
	tracer.Record(TraceEvent{
		Kind:       TraceEventAnswerGenerated,
		DurationMs: time.Since(start).Milliseconds(),
	})
	text = strings.TrimSpace(text)
	if text == "" {
		return NotAvailable
	}
	return text
}
