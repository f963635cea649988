package query

import (
	"sort"
	"sync"
)

type TraceEventKind string

const (
	TraceEventRouteDecided       TraceEventKind = "route_decided"
	TraceEventQueriedNodeIDs     TraceEventKind = "queried_node_ids"
	TraceEventQueriedEdgeTypes   TraceEventKind = "queried_edge_types"
	TraceEventFallback           TraceEventKind = "fallback"
	TraceEventContextTruncated   TraceEventKind = "context_truncated"
	TraceEventCollaboratorFailed TraceEventKind = "collaborator_failed"
	TraceEventAnswerGenerated    TraceEventKind = "answer_generated"
)

// TraceEvent is an extensible event envelope for query tracing.
// Additive changes to this struct are backward compatible for implementers.
type TraceEvent struct {
	Kind TraceEventKind

	Route     Route
	Category  Category
	Keywords  []string
	NodeIDs   []string
	EdgeTypes []string

	Reason     string
	Tokens     int
	DurationMs int64
	Error      string
}

// Tracer is a sink for query tracing events.
//
// Implementers can forward events to logs, metrics, or custom post-processing
// pipelines.
type Tracer interface {
	Record(event TraceEvent)
}

// MultiTracer fan-outs trace events to multiple tracers.
type MultiTracer []Tracer

func (m MultiTracer) Record(event TraceEvent) {
	for _, t := range m {
		if t == nil {
			continue
		}
		t.Record(event)
	}
}

// TracerFunc adapts a function to the Tracer interface.
type TracerFunc func(TraceEvent)

func (f TracerFunc) Record(event TraceEvent) {
	f(event)
}

func RecordRoute(t Tracer, c Classification) {
	if t == nil {
		return
	}
	t.Record(TraceEvent{Kind: TraceEventRouteDecided, Route: c.Route, Category: c.Category, Keywords: c.Keywords})
}

func RecordQueriedNodeIDs(t Tracer, ids ...string) {
	if t == nil {
		return
	}
	t.Record(TraceEvent{Kind: TraceEventQueriedNodeIDs, NodeIDs: ids})
}

func RecordQueriedEdgeTypes(t Tracer, types ...string) {
	if t == nil {
		return
	}
	t.Record(TraceEvent{Kind: TraceEventQueriedEdgeTypes, EdgeTypes: types})
}

func RecordFallback(t Tracer, reason string) {
	if t == nil {
		return
	}
	t.Record(TraceEvent{Kind: TraceEventFallback, Reason: reason})
}

// QueryTrace collects what a single routed question touched.
//
// QueryTrace is safe for concurrent use.
type QueryTrace struct {
	mu sync.Mutex

	route          Route
	category       Category
	fallback       string
	truncated      bool
	queriedNodeIDs map[string]struct{}
	queriedEdges   map[string]struct{}
	failures       []string
}

type QueryTraceSnapshot struct {
	Route            Route    `json:"route"`
	Category         Category `json:"category,omitempty"`
	FallbackReason   string   `json:"fallback_reason,omitempty"`
	ContextTruncated bool     `json:"context_truncated,omitempty"`
	QueriedNodeIDs   []string `json:"queried_node_ids,omitempty"`
	QueriedEdgeTypes []string `json:"queried_edge_types,omitempty"`
	Failures         []string `json:"failures,omitempty"`
}

func NewQueryTrace() *QueryTrace {
	return &QueryTrace{
		queriedNodeIDs: make(map[string]struct{}),
		queriedEdges:   make(map[string]struct{}),
	}
}

func (t *QueryTrace) Record(event TraceEvent) {
	if t == nil {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	switch event.Kind {
	case TraceEventRouteDecided:
		t.route = event.Route
		t.category = event.Category
	case TraceEventQueriedNodeIDs:
		for _, id := range event.NodeIDs {
			if id == "" {
				continue
			}
			t.queriedNodeIDs[id] = struct{}{}
		}
	case TraceEventQueriedEdgeTypes:
		for _, typ := range event.EdgeTypes {
			if typ == "" {
				continue
			}
			t.queriedEdges[typ] = struct{}{}
		}
	case TraceEventFallback:
		t.fallback = event.Reason
	case TraceEventContextTruncated:
		t.truncated = true
	case TraceEventCollaboratorFailed:
		t.failures = append(t.failures, event.Error)
	default:
		return
	}
}

func (t *QueryTrace) Snapshot() QueryTraceSnapshot {
	if t == nil {
		return QueryTraceSnapshot{}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	s := QueryTraceSnapshot{
		Route:            t.route,
		Category:         t.category,
		FallbackReason:   t.fallback,
		ContextTruncated: t.truncated,
		QueriedNodeIDs:   make([]string, 0, len(t.queriedNodeIDs)),
		QueriedEdgeTypes: make([]string, 0, len(t.queriedEdges)),
		Failures:         append([]string(nil), t.failures...),
	}
	for id := range t.queriedNodeIDs {
		s.QueriedNodeIDs = append(s.QueriedNodeIDs, id)
	}
	for typ := range t.queriedEdges {
		s.QueriedEdgeTypes = append(s.QueriedEdgeTypes, typ)
	}
	sort.Strings(s.QueriedNodeIDs)
	sort.Strings(s.QueriedEdgeTypes)

	return s
}
