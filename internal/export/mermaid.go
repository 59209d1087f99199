package export

import (
	"fmt"
	"strings"

	"github.com/dusk-indust/chartflow/internal/orchestrator"
)

// statusClasses maps a stage status to its Mermaid class definition.
var statusClasses = []struct {
	status orchestrator.Status
	style  string
}{
	{orchestrator.StatusAccepted, "fill:#d4edda,stroke:#28a745"},
	{orchestrator.StatusViolated, "fill:#fff3cd,stroke:#ffc107"},
	{orchestrator.StatusFailed, "fill:#f8d7da,stroke:#dc3545"},
	{orchestrator.StatusPending, "fill:#e2e3e5,stroke:#6c757d"},
}

// GenerateMermaid produces a Mermaid graph TD diagram of the stage
// dependency graph. When snap is non-nil each node is labelled and styled
// with the status its stage ended in; stages the snapshot never recorded
// are shown as pending.
func GenerateMermaid(defs []orchestrator.StageDefinition, snap *orchestrator.Snapshot) string {
	nodeIDs := make(map[string]string, len(defs))
	for i, def := range defs {
		nodeIDs[def.ID] = fmt.Sprintf("S%d", i)
	}

	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, def := range defs {
		label := def.ID
		status := orchestrator.StatusPending
		if e, ok := snap.Entry(def.ID); ok {
			status = e.Status
		}
		if snap != nil {
			label = fmt.Sprintf("%s<br/>%s", def.ID, status)
		}
		sb.WriteString(fmt.Sprintf("  %s[\"%s\"]\n", nodeIDs[def.ID], label))
		if snap != nil {
			sb.WriteString(fmt.Sprintf("  class %s %s\n", nodeIDs[def.ID], status))
		}
	}

	for _, def := range defs {
		for _, dep := range def.DependsOn {
			src, ok := nodeIDs[dep]
			if !ok {
				continue
			}
			sb.WriteString(fmt.Sprintf("  %s --> %s\n", src, nodeIDs[def.ID]))
		}
	}

	if snap != nil {
		for _, c := range statusClasses {
			sb.WriteString(fmt.Sprintf("  classDef %s %s\n", c.status, c.style))
		}
	}

	return sb.String()
}
