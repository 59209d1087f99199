// Package orchestrator runs a fixed, linear sequence of stages. Each stage
// sees only the outputs of the stages it declared as dependencies, produces
// a schema-checked output, and records exactly one terminal entry in the
// run context. A finished run is handed to an aggregator.
package orchestrator

import (
	"context"
	"errors"

	"github.com/dusk-indust/chartflow/internal/assertion"
	"github.com/dusk-indust/chartflow/internal/schema"
	"github.com/dusk-indust/chartflow/internal/tool"
)

// ErrCancelled is returned when a run is cancelled or times out. No report is
// produced for a cancelled run.
var ErrCancelled = errors.New("pipeline cancelled")

// Status is the lifecycle state of one stage within a run.
type Status string

const (
	StatusPending  Status = "pending"
	StatusRunning  Status = "running"
	StatusAccepted Status = "accepted"
	StatusViolated Status = "violated"
	StatusFailed   Status = "failed"
)

// Terminal reports whether s is a final state.
func (s Status) Terminal() bool {
	return s == StatusAccepted || s == StatusViolated || s == StatusFailed
}

// Input is what the caller hands to a run.
type Input struct {
	Query string `json:"query"`
	Image string `json:"image,omitempty"` // optional path or URL of a chart image
}

// Result is what stage logic hands back to the executor.
type Result struct {
	// Candidate is validated against the stage schema. It is normally a
	// schema.Object but any decoded JSON value is accepted here so that a
	// malformed analyzer answer surfaces as a violation.
	Candidate any

	// ToolErrors lists tool calls that failed and were folded into the
	// candidate.
	ToolErrors []*tool.Error
}

// InvokeFunc is the executable unit of a stage. It receives a read-only view
// restricted to the stage's dependencies and the single tool capability of
// the run. Returning an error fails the stage; tool failures should instead
// be folded into a degraded candidate.
type InvokeFunc func(ctx context.Context, view *Snapshot, tools tool.Invoker) (Result, error)

// StageDefinition is the immutable descriptor of one stage.
type StageDefinition struct {
	ID        string
	DependsOn []string
	Schema    schema.Schema
	Rules     []assertion.Rule
	Invoke    InvokeFunc
}

// ProgressEvent is emitted as stages move through their lifecycle.
type ProgressEvent struct {
	RunID   string
	Stage   string
	Index   int // 1-based position in the pipeline
	Total   int
	Status  ProgressStatus
	Message string
}

// ProgressStatus is the state reported in a ProgressEvent.
type ProgressStatus string

const (
	ProgressPending  ProgressStatus = "pending"
	ProgressWorking  ProgressStatus = "working"
	ProgressComplete ProgressStatus = "complete"
	ProgressViolated ProgressStatus = "violated"
	ProgressFailed   ProgressStatus = "failed"
)

// progressFor maps a terminal stage status to its progress status.
func progressFor(s Status) ProgressStatus {
	switch s {
	case StatusAccepted:
		return ProgressComplete
	case StatusViolated:
		return ProgressViolated
	default:
		return ProgressFailed
	}
}
