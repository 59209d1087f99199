package mcptools

import "github.com/dusk-indust/chartflow/internal/report"

// --- MCP Tool Types for serve-mcp ---
// These tools let an MCP client run the analysis pipeline and inspect the
// stage catalogue without shelling out to the CLI.

// RunPipelineInput is the input for the run_pipeline MCP tool.
type RunPipelineInput struct {
	Query string `json:"query" jsonschema:"free-text request, e.g. 'BTCUSDT 4h swing setup'"`
	Image string `json:"image,omitempty" jsonschema:"optional path or URL of a chart image"`
}

// RunPipelineOutput is the result of the run_pipeline MCP tool.
type RunPipelineOutput struct {
	Report  report.FinalReport `json:"report"`
	Summary string             `json:"summary"`
	Stages  []StageOutcome     `json:"stages"`
}

// StageOutcome is how one stage of a run ended.
type StageOutcome struct {
	Stage      string   `json:"stage"`
	Status     string   `json:"status"`
	Reason     string   `json:"reason,omitempty"`
	ToolErrors []string `json:"toolErrors,omitempty"`
	Assertions []string `json:"assertions,omitempty"`
	ElapsedMS  int64    `json:"elapsedMs"`
}

// ListStagesInput is the input for the list_stages MCP tool.
type ListStagesInput struct{}

// ListStagesOutput is the result of the list_stages MCP tool.
type ListStagesOutput struct {
	Stages []StageSummary `json:"stages"`
}

// StageSummary is a brief overview of one catalogue stage.
type StageSummary struct {
	ID        string   `json:"id"`
	DependsOn []string `json:"dependsOn"`
	Tools     []string `json:"tools"`
	Rules     []string `json:"rules,omitempty"`
	Fields    []string `json:"fields"`
}
