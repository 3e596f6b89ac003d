package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// StageState describes the outcome of one stage in a run.
type StageState string

const (
	StageCompleted StageState = "completed"
	StageSkipped   StageState = "skipped"
	StageFailed    StageState = "failed"
	StagePending   StageState = "pending"
)

// StageStatus is the per-stage entry of a run report.
type StageStatus struct {
	Name     string        `json:"name"`
	State    StageState    `json:"state"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
}

// RunReport summarizes an engine run.
type RunReport struct {
	Stages    []StageStatus `json:"stages"`
	Warnings  []string      `json:"warnings,omitempty"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}

// Engine executes stages in registration order. Disabled stages are
// skipped; a failing stage aborts the run with its name in the error.
type Engine struct {
	stages  []Stage
	enabled func(name string) bool
	logger  *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithEnabledFunc sets the predicate deciding whether a stage runs.
// Stages default to enabled.
func WithEnabledFunc(f func(name string) bool) EngineOption {
	return func(e *Engine) {
		e.enabled = f
	}
}

// WithLogger sets the engine's logger.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = l
	}
}

// NewEngine creates an engine over the given stages.
func NewEngine(stages []Stage, opts ...EngineOption) *Engine {
	e := &Engine{
		stages:  stages,
		enabled: func(string) bool { return true },
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("component", "pipeline")
	return e
}

// Validate checks the configuration of every enabled stage. All
// invalid stages are reported together so one fix-and-rerun cycle
// surfaces every problem.
func (e *Engine) Validate() error {
	var errs []string
	for _, stage := range e.stages {
		if !e.enabled(stage.Name()) {
			continue
		}
		if err := stage.ValidateConfig(); err != nil {
			errs = append(errs, fmt.Sprintf("stage %s: %v", stage.Name(), err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid stage configuration:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}

// Run validates every enabled stage, then executes them in order on
// the blackboard. The first stage error aborts the run; the report
// always covers all stages.
func (e *Engine) Run(ctx context.Context, board *Blackboard) (*RunReport, error) {
	report := &RunReport{StartedAt: time.Now()}
	defer func() {
		report.Duration = time.Since(report.StartedAt)
		report.Warnings = board.Warnings()
	}()

	if err := e.Validate(); err != nil {
		for _, stage := range e.stages {
			report.Stages = append(report.Stages, StageStatus{Name: stage.Name(), State: StagePending})
		}
		return report, err
	}

	var failed error
	for _, stage := range e.stages {
		name := stage.Name()

		if failed != nil {
			report.Stages = append(report.Stages, StageStatus{Name: name, State: StagePending})
			continue
		}
		if !e.enabled(name) {
			e.logger.Info("stage skipped", "stage", name)
			report.Stages = append(report.Stages, StageStatus{Name: name, State: StageSkipped})
			continue
		}
		if err := ctx.Err(); err != nil {
			failed = fmt.Errorf("run cancelled before stage %s; %w", name, err)
			report.Stages = append(report.Stages, StageStatus{Name: name, State: StagePending})
			continue
		}

		e.logger.Info("stage starting", "stage", name)
		warningsBefore := len(board.Warnings())
		start := time.Now()

		err := stage.Execute(ctx, board)
		elapsed := time.Since(start)

		for _, w := range board.Warnings()[warningsBefore:] {
			e.logger.Warn("stage warning", "stage", name, "warning", w)
		}

		if err != nil {
			failed = fmt.Errorf("stage %s failed; %w", name, err)
			report.Stages = append(report.Stages, StageStatus{
				Name:     name,
				State:    StageFailed,
				Duration: elapsed,
				Error:    err.Error(),
			})
			e.logger.Error("stage failed", "stage", name, "duration", elapsed, "error", err)
			continue
		}

		report.Stages = append(report.Stages, StageStatus{Name: name, State: StageCompleted, Duration: elapsed})
		e.logger.Info("stage completed", "stage", name, "duration", elapsed)
	}

	return report, failed
}
