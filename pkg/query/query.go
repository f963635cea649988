package query

import "context"

// NotAvailable is returned whenever no answer could be produced.
const NotAvailable = "Information not available."

// ContextKind tells the answer collaborator what kind of context it gets.
type ContextKind string

const (
	// ContextReports is free report text.
	ContextReports ContextKind = "reports"
	// ContextSubgraph is a serialized subgraph.
	ContextSubgraph ContextKind = "subgraph"
)

// Answerer phrases a natural-language answer from context.
type Answerer interface {
	GenerateAnswer(ctx context.Context, question string, kind ContextKind, context string) (string, error)
}

// Report is the analysis text of one competitor.
type Report struct {
	Competitor string `json:"competitor"`
	Text       string `json:"text"`
}

// Documents is the text the context path answers from.
type Documents struct {
	// SelfFacts describes the session's own company.
	SelfFacts string
	// Reports are the analyzed competitor reports in competitor order.
	Reports []Report
}
