package workflow

import (
	"errors"

	"github.com/smadinen7/Market-Intelligence-Assistant/pkg/common"
	"github.com/smadinen7/Market-Intelligence-Assistant/pkg/store"
)

var (
	ErrEmptyCompany      = errors.New("company name is empty")
	ErrInvalidCompany    = errors.New("company name is invalid")
	ErrDiscoveryEmpty    = errors.New("no competitors identified")
	ErrExtractionEmpty   = errors.New("no entities extracted from competitor analysis")
	ErrUnknownCompetitor = errors.New("unknown competitor")
	ErrBusy              = errors.New("session is busy")
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrEmptyQuestion     = errors.New("question is empty")
	// ErrSessionReset is returned by calls whose session was reset while
	// they ran. Their results are discarded.
	ErrSessionReset = errors.New("session was reset")
)

// State is the top-level workflow state of a session.
type State string

const (
	StateAwaitingCompany        State = "awaiting_company"
	StateIdentifyingCompetitors State = "identifying_competitors"
	StateCompetitorsIdentified  State = "competitors_identified"
	StateAnalyzingCompetitor    State = "analyzing_competitor"
	StateCompetitorSelected     State = "competitor_selected"
)

// Progress is the fraction of the workflow a state represents.
func (s State) Progress() float64 {
	switch s {
	case StateIdentifyingCompetitors:
		return 0.2
	case StateCompetitorsIdentified:
		return 0.4
	case StateAnalyzingCompetitor:
		return 0.6
	case StateCompetitorSelected:
		return 1.0
	default:
		return 0
	}
}

// CompetitorState tracks the analysis of a single competitor.
type CompetitorState string

const (
	CompetitorPending   CompetitorState = "pending"
	CompetitorAnalyzing CompetitorState = "analyzing"
	CompetitorAnalyzed  CompetitorState = "analyzed"
	CompetitorFailed    CompetitorState = "failed"
)

// CompetitorView is the externally visible state of one competitor.
type CompetitorView struct {
	Name      string          `json:"name"`
	Rationale string          `json:"rationale,omitempty"`
	State     CompetitorState `json:"state"`
	Error     string          `json:"error,omitempty"`
	HasReport bool            `json:"has_report"`
}

// StateView is a consistent copy of a session's state.
type StateView struct {
	SessionID   string           `json:"session_id"`
	State       State            `json:"state"`
	Company     string           `json:"company,omitempty"`
	Competitors []CompetitorView `json:"competitors"`
	Selected    string           `json:"selected,omitempty"`
	LastError   string           `json:"last_error,omitempty"`
	Progress    float64          `json:"progress"`
	Graph       store.Stats      `json:"graph"`
}

// competitorEntry is the mutable per-competitor record held by a session.
type competitorEntry struct {
	competitor common.Competitor
	state      CompetitorState
	err        string
	report     string
}
