package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dusk-indust/chartflow/internal/tool"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Engine owns an ordered stage list and runs it against one tool capability.
// An Engine is fully determined by its constructor arguments and may run
// any number of pipelines; each run gets a fresh context and call cache.
type Engine struct {
	stages   []StageDefinition
	tools    tool.Invoker
	exec     *Executor
	logger   *zap.Logger
	progress *ProgressReporter
	analyst  string
	timeout  time.Duration
	cache    bool
	now      func() time.Time
	newID    func() string
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger. The executor shares it.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithProgress attaches a progress reporter. The engine never closes it.
func WithProgress(p *ProgressReporter) Option {
	return func(e *Engine) {
		e.progress = p
	}
}

// WithAnalyst records who the run is attributed to.
func WithAnalyst(name string) Option {
	return func(e *Engine) {
		e.analyst = name
	}
}

// WithTimeout bounds a whole run. Zero means no bound beyond the caller's
// context.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.timeout = d
	}
}

// WithCallCache toggles per-run deduplication of identical tool calls.
func WithCallCache(enabled bool) Option {
	return func(e *Engine) {
		e.cache = enabled
	}
}

// WithClock replaces the source of run start times.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithRunIDs replaces the run id generator.
func WithRunIDs(newID func() string) Option {
	return func(e *Engine) {
		e.newID = newID
	}
}

// NewEngine checks the stage list and builds an Engine. Stage ids must be
// unique and every dependency must name a stage that runs earlier.
func NewEngine(stages []StageDefinition, tools tool.Invoker, opts ...Option) (*Engine, error) {
	if err := validateStages(stages); err != nil {
		return nil, err
	}
	if tools == nil {
		return nil, errors.New("pipeline: nil tool invoker")
	}

	e := &Engine{
		stages: append([]StageDefinition(nil), stages...),
		tools:  tools,
		logger: zap.NewNop(),
		cache:  true,
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.exec = NewExecutor(e.logger)
	return e, nil
}

// Stages returns the stage definitions in execution order.
func (e *Engine) Stages() []StageDefinition {
	return append([]StageDefinition(nil), e.stages...)
}

// ---------------------------------------------------------------------------
// Running
// ---------------------------------------------------------------------------

// Execute runs every stage exactly once, in order, and returns a snapshot of
// the finished context. Stage failures and violations are recorded and the
// run continues. If ctx is cancelled or the run times out, Execute stops
// launching stages and returns an error wrapping ErrCancelled.
func (e *Engine) Execute(ctx context.Context, in Input) (*Snapshot, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	rc := newRunContext(e.newID(), e.now().UTC(), e.analyst, in)
	log := e.logger.With(zap.String("runId", rc.RunID))
	log.Info("pipeline started", zap.Int("stages", len(e.stages)), zap.String("analyst", rc.Analyst))

	var tools tool.Invoker = e.tools
	if e.cache {
		tools = tool.NewCache(e.tools)
	}

	total := len(e.stages)
	for i, def := range e.stages {
		e.emit(ProgressEvent{RunID: rc.RunID, Stage: def.ID, Index: i + 1, Total: total, Status: ProgressPending})
	}

	for i, def := range e.stages {
		if err := ctx.Err(); err != nil {
			log.Warn("pipeline cancelled", zap.String("before", def.ID), zap.Error(err))
			return nil, fmt.Errorf("%w: %w", ErrCancelled, err)
		}

		e.emit(ProgressEvent{RunID: rc.RunID, Stage: def.ID, Index: i + 1, Total: total, Status: ProgressWorking})
		entry := e.exec.Execute(ctx, def, rc.View(def.DependsOn), tools)
		if err := rc.record(entry); err != nil {
			return nil, fmt.Errorf("pipeline: %w", err)
		}
		e.emit(ProgressEvent{
			RunID:   rc.RunID,
			Stage:   def.ID,
			Index:   i + 1,
			Total:   total,
			Status:  progressFor(entry.Status),
			Message: entry.Reason,
		})

		if err := ctx.Err(); err != nil {
			log.Warn("pipeline cancelled", zap.String("during", def.ID), zap.Error(err))
			return nil, fmt.Errorf("%w: %w", ErrCancelled, err)
		}
	}

	log.Info("pipeline finished", zap.Int("recorded", rc.Len()))
	return rc.Snapshot(), nil
}

// Run executes the pipeline and hands the finished context to aggregate. A
// cancelled run returns the zero R and an error wrapping ErrCancelled; the
// aggregator is not called.
func Run[R any](ctx context.Context, e *Engine, in Input, aggregate func(*Snapshot) R) (R, error) {
	var zero R
	snap, err := e.Execute(ctx, in)
	if err != nil {
		return zero, err
	}
	return aggregate(snap), nil
}

func (e *Engine) emit(ev ProgressEvent) {
	if e.progress != nil {
		e.progress.Emit(ev)
	}
}

// ---------------------------------------------------------------------------
// Stage list checks
// ---------------------------------------------------------------------------

// validateStages enforces unique ids and dependencies that point backwards.
func validateStages(stages []StageDefinition) error {
	if len(stages) == 0 {
		return errors.New("pipeline: no stages")
	}

	var problems []error
	seen := make(map[string]bool, len(stages))
	for i, def := range stages {
		switch {
		case def.ID == "":
			problems = append(problems, fmt.Errorf("stage %d has no id", i))
		case seen[def.ID]:
			problems = append(problems, fmt.Errorf("stage %q declared twice", def.ID))
		}
		if def.Invoke == nil {
			problems = append(problems, fmt.Errorf("stage %q has no invoke function", def.ID))
		}
		for _, dep := range def.DependsOn {
			if !seen[dep] {
				problems = append(problems, fmt.Errorf("stage %q depends on %q, which does not run before it", def.ID, dep))
			}
		}
		seen[def.ID] = true
	}

	if len(problems) > 0 {
		return fmt.Errorf("pipeline: invalid stage list: %w", errors.Join(problems...))
	}
	return nil
}
