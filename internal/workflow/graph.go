package workflow

import (
	"context"
	"time"

	"advisor/internal/metrics"
	"advisor/pkg/errors"
	"advisor/pkg/logger"
)

// Handler executes one stage against the shared state and names the
// next stage. Degradable stages record their failure in the state and
// return a nil error; a non-nil error aborts the run.
type Handler func(ctx context.Context, state *State) (Stage, error)

// transitions lists every legal edge of the graph. The engine rejects a
// handler's next stage when the edge is not declared here, which keeps
// handler bugs from silently rewiring the flow.
var transitions = map[Stage][]Stage{
	StageClassify:    {StagePlanner, StageCompanyQA, StageGeneralQA},
	StagePlanner:     {StageFundamental, StageGeneralQA},
	StageFundamental: {StageTechnical},
	StageTechnical:   {StageValuation},
	StageValuation:   {StageNews},
	StageNews:        {StageSummarizer},
	StageSummarizer:  {StageDone},
	StageCompanyQA:   {StageDone},
	StageGeneralQA:   {StageDone},
}

// maxTransitions caps a run at the longest legal path plus slack, so a
// handler bug cannot loop forever.
const maxTransitions = 16

// Engine walks the stage graph for one query.
type Engine struct {
	handlers     map[Stage]Handler
	stageTimeout time.Duration
	metrics      *metrics.Workflow
	log          *logger.Logger
}

// NewEngine creates an engine over the given handlers. A zero timeout
// disables per-stage deadlines.
func NewEngine(handlers map[Stage]Handler, stageTimeout time.Duration, m *metrics.Workflow) (*Engine, error) {
	for stage := range transitions {
		if _, ok := handlers[stage]; !ok {
			return nil, errors.Wrapf(errors.ErrGraphInvalid, "no handler for stage %s", stage)
		}
	}
	for stage := range handlers {
		if _, ok := transitions[stage]; !ok {
			return nil, errors.Wrapf(errors.ErrGraphInvalid, "handler for undeclared stage %s", stage)
		}
	}

	return &Engine{
		handlers:     handlers,
		stageTimeout: stageTimeout,
		metrics:      m,
		log:          logger.Get().With("component", "workflow_engine"),
	}, nil
}

// Run drives one query from classification to a terminal answer.
func (e *Engine) Run(ctx context.Context, query string) (*State, error) {
	state := NewState(query)
	log := e.log.With("run_id", state.ID.String())
	log.Infof("Run started: %s", query)

	current := StageClassify
	for steps := 0; steps < maxTransitions; steps++ {
		if current == StageDone {
			log.Infof("Run finished in %s, degraded=%v", time.Since(state.StartedAt), state.Degraded())
			return state, nil
		}

		next, err := e.runStage(ctx, current, state)
		if err != nil {
			e.metrics.StageFailed(string(current))
			return state, errors.Wrapf(errors.ErrStageFailed, "stage %s: %v", current, err)
		}

		if !legalTransition(current, next) {
			return state, errors.Wrapf(errors.ErrGraphInvalid, "illegal transition %s -> %s", current, next)
		}

		log.Debugf("Stage %s -> %s", current, next)
		current = next
	}

	return state, errors.Wrapf(errors.ErrGraphInvalid, "run exceeded %d transitions", maxTransitions)
}

func (e *Engine) runStage(ctx context.Context, stage Stage, state *State) (Stage, error) {
	if e.stageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.stageTimeout)
		defer cancel()
	}

	started := time.Now()
	next, err := e.handlers[stage](ctx, state)
	elapsed := time.Since(started)

	state.StageDurations[stage] = elapsed
	e.metrics.StageCompleted(string(stage), elapsed)

	return next, err
}

func legalTransition(from, to Stage) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
