package orchestrator

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// eventsPerStage is what one stage emits during a run: pending, working
// and its terminal status.
const eventsPerStage = 3

// ProgressReporter buffers progress events for one consumer. Emit never
// blocks the engine; events that do not fit are counted and dropped.
type ProgressReporter struct {
	ch      chan ProgressEvent
	dropped atomic.Int64
	once    sync.Once
}

// NewProgressReporter sizes the buffer to hold every event of a run over
// the given number of stages, so a consumer that only drains after the run
// still sees all of them.
func NewProgressReporter(stages int) *ProgressReporter {
	if stages < 1 {
		stages = 1
	}
	return &ProgressReporter{
		ch: make(chan ProgressEvent, stages*eventsPerStage),
	}
}

// Emit queues event, or drops it when the buffer is full.
func (pr *ProgressReporter) Emit(event ProgressEvent) {
	select {
	case pr.ch <- event:
	default:
		pr.dropped.Add(1)
	}
}

// Subscribe returns the event stream. It is closed by Close.
func (pr *ProgressReporter) Subscribe() <-chan ProgressEvent {
	return pr.ch
}

// Dropped returns how many events did not fit the buffer.
func (pr *ProgressReporter) Dropped() int64 {
	return pr.dropped.Load()
}

// Close ends the event stream. Emit must not be called afterwards. Close is
// safe to call more than once.
func (pr *ProgressReporter) Close() {
	pr.once.Do(func() { close(pr.ch) })
}

// FormatProgress formats a ProgressEvent as a human-readable status line.
func FormatProgress(event ProgressEvent) string {
	label := event.Stage
	if event.Total > 0 {
		label = fmt.Sprintf("[%d/%d] %s", event.Index, event.Total, event.Stage)
	}

	switch event.Status {
	case ProgressPending:
		return fmt.Sprintf("  ○ %s (pending)", label)
	case ProgressWorking:
		return fmt.Sprintf("  ● %s...", label)
	case ProgressComplete:
		return fmt.Sprintf("  ✓ %s complete", label)
	case ProgressViolated:
		return fmt.Sprintf("  ⚠ %s violated: %s", label, event.Message)
	case ProgressFailed:
		return fmt.Sprintf("  ✗ %s failed: %s", label, event.Message)
	default:
		return fmt.Sprintf("  ? %s (unknown status)", label)
	}
}

// FormatRunHeader formats a run header for display.
// Returns: "[{analyst}] run {runID}: {query}"
func FormatRunHeader(analyst, runID, query string) string {
	if analyst == "" {
		analyst = "chartflow"
	}
	return fmt.Sprintf("[%s] run %s: %s", analyst, runID, query)
}
