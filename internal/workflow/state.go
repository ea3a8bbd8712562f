package workflow

import (
	"time"

	"github.com/google/uuid"
)

// Intent is the routed category of a user query.
type Intent string

const (
	// IntentStock asks for a full analysis of one listed company.
	IntentStock Intent = "stock"
	// IntentCompany asks a knowledge question about companies or markets.
	IntentCompany Intent = "company"
	// IntentGeneral is everything else.
	IntentGeneral Intent = "general"
)

// Valid reports whether the intent is one of the routed categories.
func (i Intent) Valid() bool {
	switch i {
	case IntentStock, IntentCompany, IntentGeneral:
		return true
	}
	return false
}

// Stage identifies one node of the analysis graph.
type Stage string

const (
	StageClassify    Stage = "classify"
	StagePlanner     Stage = "planner"
	StageFundamental Stage = "fundamental"
	StageTechnical   Stage = "technical"
	StageValuation   Stage = "valuation"
	StageNews        Stage = "news"
	StageSummarizer  Stage = "summarizer"
	StageCompanyQA   Stage = "company_qa"
	StageGeneralQA   Stage = "general_qa"
	StageDone        Stage = "done"
)

// StageError records a stage that degraded instead of aborting the run.
type StageError struct {
	Stage   Stage     `json:"stage"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// State carries everything a run accumulates as it moves through the
// graph. Stages communicate only through it; per-stage model message
// history stays inside each agent run and is not shared across stages.
type State struct {
	ID        uuid.UUID `json:"id"`
	Query     string    `json:"query"`
	StartedAt time.Time `json:"started_at"`

	Intent Intent `json:"intent"`

	// Planner output
	StockName string `json:"stock_name,omitempty"`
	StockCode string `json:"stock_code,omitempty"`
	Market    string `json:"market,omitempty"`

	// Analyst sections
	Fundamental string `json:"fundamental,omitempty"`
	Technical   string `json:"technical,omitempty"`
	Valuation   string `json:"valuation,omitempty"`
	News        string `json:"news,omitempty"`

	// Final output, whichever terminal stage produced it.
	Answer string `json:"answer"`

	Errors []StageError `json:"errors,omitempty"`

	StageDurations map[Stage]time.Duration `json:"stage_durations,omitempty"`
}

// NewState starts a run for one query.
func NewState(query string) *State {
	return &State{
		ID:             uuid.New(),
		Query:          query,
		StartedAt:      time.Now(),
		StageDurations: make(map[Stage]time.Duration),
	}
}

// RecordError notes a degraded stage.
func (s *State) RecordError(stage Stage, message string) {
	s.Errors = append(s.Errors, StageError{
		Stage:   stage,
		Message: message,
		At:      time.Now(),
	})
}

// Degraded reports whether any stage failed along the way.
func (s *State) Degraded() bool {
	return len(s.Errors) > 0
}
