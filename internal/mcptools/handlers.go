package mcptools

import (
	"context"
	"errors"
	"strings"

	"github.com/dusk-indust/chartflow/internal/orchestrator"
	"github.com/dusk-indust/chartflow/internal/report"
	"github.com/dusk-indust/chartflow/internal/stages"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

// PipelineService handles MCP tool calls. It wraps an Engine built from the
// stage catalogue.
type PipelineService struct {
	engine *orchestrator.Engine
	logger *zap.Logger
}

// NewPipelineService creates a PipelineService. A nil logger discards output.
func NewPipelineService(engine *orchestrator.Engine, logger *zap.Logger) *PipelineService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PipelineService{engine: engine, logger: logger}
}

// RunPipeline runs every stage for one query and returns the aggregated
// report. A cancelled run is an error; a run with failed stages is not.
func (s *PipelineService) RunPipeline(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RunPipelineInput,
) (*mcp.CallToolResult, RunPipelineOutput, error) {
	if strings.TrimSpace(input.Query) == "" {
		return nil, RunPipelineOutput{}, errors.New("query is required")
	}

	snap, err := s.engine.Execute(ctx, orchestrator.Input{Query: input.Query, Image: input.Image})
	if err != nil {
		s.logger.Warn("pipeline run aborted", zap.String("query", input.Query), zap.Error(err))
		return nil, RunPipelineOutput{}, err
	}

	r := report.Aggregate(snap)
	out := RunPipelineOutput{
		Report:  r,
		Summary: r.Summary(),
		Stages:  outcomes(snap),
	}
	s.logger.Info("pipeline run complete",
		zap.String("runId", r.Meta.RunID),
		zap.Bool("degraded", r.Failed()))
	return nil, out, nil
}

// ListStages describes the stage catalogue.
func (s *PipelineService) ListStages(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ ListStagesInput,
) (*mcp.CallToolResult, ListStagesOutput, error) {
	var out ListStagesOutput
	for _, info := range stages.Describe() {
		fields := make([]string, 0, len(info.Schema.Fields))
		for _, f := range info.Schema.Fields {
			fields = append(fields, f.Name)
		}
		out.Stages = append(out.Stages, StageSummary{
			ID:        info.ID,
			DependsOn: info.DependsOn,
			Tools:     info.Tools,
			Rules:     info.Rules,
			Fields:    fields,
		})
	}
	return nil, out, nil
}

func outcomes(snap *orchestrator.Snapshot) []StageOutcome {
	entries := snap.Entries()
	out := make([]StageOutcome, 0, len(entries))
	for _, e := range entries {
		o := StageOutcome{
			Stage:     e.Stage,
			Status:    string(e.Status),
			Reason:    e.Reason,
			ElapsedMS: e.Elapsed.Milliseconds(),
		}
		for _, te := range e.ToolErrors {
			o.ToolErrors = append(o.ToolErrors, te.Error())
		}
		for _, a := range e.Assertions {
			o.Assertions = append(o.Assertions, a.RuleID)
		}
		out = append(out, o)
	}
	return out
}
