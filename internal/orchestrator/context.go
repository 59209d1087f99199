package orchestrator

import (
	"fmt"
	"time"

	"github.com/dusk-indust/chartflow/internal/assertion"
	"github.com/dusk-indust/chartflow/internal/schema"
	"github.com/dusk-indust/chartflow/internal/tool"
)

// Entry is the terminal record of one stage.
type Entry struct {
	Stage      string              `json:"stage"`
	Status     Status              `json:"status"`
	Value      schema.Object       `json:"value,omitempty"`
	Violation  *schema.Violation   `json:"violation,omitempty"`
	Reason     string              `json:"reason,omitempty"`
	ToolErrors []*tool.Error       `json:"toolErrors,omitempty"`
	Assertions []assertion.Failure `json:"assertions,omitempty"`
	Elapsed    time.Duration       `json:"elapsed"`
}

// Accepted reports whether the entry carries a trusted value.
func (e Entry) Accepted() bool {
	return e.Status == StatusAccepted
}

// Field returns a top-level field of an accepted value, or nil.
func (e Entry) Field(name string) any {
	if !e.Accepted() {
		return nil
	}
	return e.Value[name]
}

func (e Entry) clone() Entry {
	out := e
	out.Value = schema.CloneObject(e.Value)
	if e.ToolErrors != nil {
		out.ToolErrors = append([]*tool.Error(nil), e.ToolErrors...)
	}
	if e.Assertions != nil {
		out.Assertions = append([]assertion.Failure(nil), e.Assertions...)
	}
	return out
}

// RunContext is the append-only record of one run. It is owned by the
// Engine; stages and aggregators only ever see Snapshots of it.
type RunContext struct {
	RunID     string
	StartedAt time.Time
	Analyst   string
	Input     Input

	entries []Entry
	index   map[string]int
}

func newRunContext(runID string, startedAt time.Time, analyst string, in Input) *RunContext {
	return &RunContext{
		RunID:     runID,
		StartedAt: startedAt,
		Analyst:   analyst,
		Input:     in,
		index:     make(map[string]int),
	}
}

// record appends the terminal entry of a stage. A stage is recorded once.
func (rc *RunContext) record(e Entry) error {
	if !e.Status.Terminal() {
		return fmt.Errorf("context: stage %q recorded in non-terminal state %q", e.Stage, e.Status)
	}
	if _, dup := rc.index[e.Stage]; dup {
		return fmt.Errorf("context: stage %q already recorded", e.Stage)
	}
	rc.index[e.Stage] = len(rc.entries)
	rc.entries = append(rc.entries, e)
	return nil
}

// Len returns the number of recorded stages.
func (rc *RunContext) Len() int {
	return len(rc.entries)
}

// Snapshot returns a deep copy of every recorded stage.
func (rc *RunContext) Snapshot() *Snapshot {
	s := rc.emptySnapshot()
	for _, e := range rc.entries {
		s.add(e.clone())
	}
	return s
}

// View returns a deep copy restricted to deps. Stages that are not recorded
// yet are absent from the view, as is everything not named in deps.
func (rc *RunContext) View(deps []string) *Snapshot {
	s := rc.emptySnapshot()
	for _, id := range deps {
		i, ok := rc.index[id]
		if !ok {
			continue
		}
		if _, seen := s.entries[id]; !seen {
			s.add(rc.entries[i].clone())
		}
	}
	return s
}

func (rc *RunContext) emptySnapshot() *Snapshot {
	return &Snapshot{
		RunID:     rc.RunID,
		StartedAt: rc.StartedAt,
		Analyst:   rc.Analyst,
		Input:     rc.Input,
		entries:   make(map[string]Entry),
	}
}

// Snapshot is an immutable, detached view of a run context. Mutating values
// obtained from it never affects the run.
type Snapshot struct {
	RunID     string
	StartedAt time.Time
	Analyst   string
	Input     Input

	order   []string
	entries map[string]Entry
}

// NewSnapshot builds a detached snapshot from entries, in the given order.
// Entries that a run could not have recorded (duplicates, non-terminal
// states) are skipped.
func NewSnapshot(runID string, startedAt time.Time, analyst string, in Input, entries ...Entry) *Snapshot {
	rc := newRunContext(runID, startedAt, analyst, in)
	for _, e := range entries {
		_ = rc.record(e)
	}
	return rc.Snapshot()
}

func (s *Snapshot) add(e Entry) {
	s.order = append(s.order, e.Stage)
	s.entries[e.Stage] = e
}

// Entry returns the entry of a visible stage.
func (s *Snapshot) Entry(id string) (Entry, bool) {
	if s == nil {
		return Entry{}, false
	}
	e, ok := s.entries[id]
	return e, ok
}

// Value returns the accepted value of a visible stage. It returns false when
// the stage is not visible or did not end Accepted.
func (s *Snapshot) Value(id string) (schema.Object, bool) {
	e, ok := s.Entry(id)
	if !ok || !e.Accepted() {
		return nil, false
	}
	return e.Value, true
}

// Field returns one field of an accepted stage value, or nil.
func (s *Snapshot) Field(id, name string) any {
	v, ok := s.Value(id)
	if !ok {
		return nil
	}
	return v[name]
}

// IDs returns the visible stage ids in execution order.
func (s *Snapshot) IDs() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.order...)
}

// Entries returns the visible entries in execution order.
func (s *Snapshot) Entries() []Entry {
	if s == nil {
		return nil
	}
	out := make([]Entry, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.entries[id])
	}
	return out
}
