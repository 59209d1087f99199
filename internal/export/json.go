package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/dusk-indust/chartflow/internal/orchestrator"
	"github.com/dusk-indust/chartflow/internal/report"
	"github.com/dusk-indust/chartflow/internal/schema"
)

// RunExport is the top-level JSON trace of one finished run.
type RunExport struct {
	RunID      string              `json:"runId"`
	Analyst    string              `json:"analyst"`
	StartedAt  string              `json:"startedAt"`
	ExportedAt string              `json:"exportedAt"`
	Input      orchestrator.Input  `json:"input"`
	Stages     []StageExport       `json:"stages"`
	Report     *report.FinalReport `json:"report,omitempty"`
}

// StageExport describes how one stage of the run ended.
type StageExport struct {
	Index      int           `json:"index"`
	Stage      string        `json:"stage"`
	DependsOn  []string      `json:"dependsOn,omitempty"`
	Status     string        `json:"status"`
	Reason     string        `json:"reason,omitempty"`
	ToolErrors []string      `json:"toolErrors,omitempty"`
	Assertions []string      `json:"assertions,omitempty"`
	ElapsedMS  int64         `json:"elapsedMs"`
	Value      schema.Object `json:"value,omitempty"`
}

// ExportRun builds a RunExport from a finished snapshot. Stages listed in
// defs that the snapshot never recorded are exported as pending. A nil
// report is omitted.
func ExportRun(defs []orchestrator.StageDefinition, snap *orchestrator.Snapshot, r *report.FinalReport, now time.Time) *RunExport {
	out := &RunExport{
		ExportedAt: now.UTC().Format(time.RFC3339),
		Report:     r,
	}
	if snap != nil {
		out.RunID = snap.RunID
		out.Analyst = snap.Analyst
		out.StartedAt = snap.StartedAt.UTC().Format(time.RFC3339)
		out.Input = snap.Input
	}

	for i, def := range defs {
		se := StageExport{
			Index:     i + 1,
			Stage:     def.ID,
			DependsOn: def.DependsOn,
			Status:    string(orchestrator.StatusPending),
		}
		if e, ok := snap.Entry(def.ID); ok {
			se.Status = string(e.Status)
			se.Reason = e.Reason
			se.ElapsedMS = e.Elapsed.Milliseconds()
			se.Value = schema.CloneObject(e.Value)
			for _, te := range e.ToolErrors {
				se.ToolErrors = append(se.ToolErrors, te.Error())
			}
			for _, a := range e.Assertions {
				se.Assertions = append(se.Assertions, fmt.Sprintf("%s nulled %s", a.RuleID, a.Field))
			}
		}
		out.Stages = append(out.Stages, se)
	}
	return out
}

// WriteJSON writes the export as indented JSON followed by a newline.
func WriteJSON(w io.Writer, data *RunExport) error {
	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	_, err = w.Write(append(out, '\n'))
	return err
}
