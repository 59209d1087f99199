package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/dusk-indust/chartflow/internal/assertion"
	"github.com/dusk-indust/chartflow/internal/schema"
	"github.com/dusk-indust/chartflow/internal/tool"
	"go.uber.org/zap"
)

// Executor runs a single stage: it invokes the stage logic, checks the
// candidate against the stage schema, applies the stage's assertion rules
// and returns the terminal entry. It never returns an error; every outcome
// is an Entry.
type Executor struct {
	logger *zap.Logger
	now    func() time.Time
}

// NewExecutor creates an Executor. A nil logger discards output.
func NewExecutor(logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{logger: logger, now: time.Now}
}

// Execute moves def from Running to a terminal state. view must already be
// restricted to def.DependsOn.
func (x *Executor) Execute(ctx context.Context, def StageDefinition, view *Snapshot, tools tool.Invoker) Entry {
	start := x.now()
	log := x.logger.With(zap.String("stage", def.ID))
	log.Info("stage started", zap.Strings("dependsOn", def.DependsOn))

	res, err := x.invoke(ctx, def, view, tools)
	entry := Entry{Stage: def.ID, ToolErrors: res.ToolErrors}
	for _, te := range res.ToolErrors {
		log.Warn("tool call failed", zap.String("tool", te.Tool), zap.String("diagnostic", te.Diagnostic))
	}

	switch {
	case ctx.Err() != nil:
		entry.Status = StatusFailed
		entry.Reason = "cancelled"
	case err != nil:
		entry.Status = StatusFailed
		entry.Reason = err.Error()
	default:
		x.check(def, res.Candidate, &entry)
	}
	entry.Elapsed = x.now().Sub(start)

	switch entry.Status {
	case StatusAccepted:
		log.Info("stage accepted", zap.Duration("elapsed", entry.Elapsed), zap.Int("assertionFailures", len(entry.Assertions)))
	case StatusViolated:
		log.Warn("stage violated schema", zap.Duration("elapsed", entry.Elapsed), zap.String("reason", entry.Reason))
	default:
		log.Error("stage failed", zap.Duration("elapsed", entry.Elapsed), zap.String("reason", entry.Reason))
	}
	return entry
}

// invoke calls the stage logic, converting a panic into a stage failure.
func (x *Executor) invoke(ctx context.Context, def StageDefinition, view *Snapshot, tools tool.Invoker) (res Result, err error) {
	if def.Invoke == nil {
		return Result{}, fmt.Errorf("stage %s: no invoke function", def.ID)
	}
	defer func() {
		if r := recover(); r != nil {
			res = Result{}
			err = fmt.Errorf("stage %s: panic: %v", def.ID, r)
		}
	}()
	return def.Invoke(ctx, view, tools)
}

// check validates the candidate and runs the assertion rules on a private
// copy of it.
func (x *Executor) check(def StageDefinition, candidate any, entry *Entry) {
	obj, violation := schema.Validate(candidate, def.Schema)
	if violation != nil {
		entry.Status = StatusViolated
		entry.Violation = violation
		entry.Reason = violation.Reason()
		return
	}

	value := schema.CloneObject(obj)
	v := &assertion.Validator{Rules: def.Rules, NotesField: notesField(def.Schema)}
	entry.Assertions = v.Apply(value)
	entry.Status = StatusAccepted
	entry.Value = value
}

// notesField returns the key assertion notes are written to, or "" when the
// schema declares no string notes field.
func notesField(s schema.Schema) string {
	f, ok := s.Field(assertion.DefaultNotesField)
	if !ok || f.Type != schema.TypeString {
		return ""
	}
	return f.Name
}
