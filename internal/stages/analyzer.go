package stages

import (
	"context"
	"strings"

	"github.com/dusk-indust/chartflow/internal/orchestrator"
	"github.com/dusk-indust/chartflow/internal/schema"
	"github.com/dusk-indust/chartflow/internal/tool"
)

// analyzer is the part of a stage that delegates reading the chart to an
// external analyzer tool named after the stage.
type analyzer struct {
	stage  string
	schema schema.Schema

	// lookups are knowledge-base queries issued concurrently before the
	// analyzer is called. Their results travel as evidence.
	lookups []string
}

// AnalyzerTool returns the tool name of the analyzer serving stage.
func AnalyzerTool(stage string) string {
	return AnalyzerPrefix + stage
}

// invoke builds the InvokeFunc of a stage with no logic of its own beyond
// the analyzer. post, when set, refines an object candidate in place.
func (a analyzer) invoke(post func(ctx context.Context, view *orchestrator.Snapshot, tools tool.Invoker, obj schema.Object) []*tool.Error) orchestrator.InvokeFunc {
	return func(ctx context.Context, view *orchestrator.Snapshot, tools tool.Invoker) (orchestrator.Result, error) {
		evidence, errs := a.gather(ctx, tools)
		candidate, _, aerrs := a.analyze(ctx, view, tools, evidence)
		errs = append(errs, aerrs...)

		if obj, ok := candidate.(map[string]any); ok && post != nil {
			errs = append(errs, post(ctx, view, tools, obj)...)
		}
		return orchestrator.Result{Candidate: candidate, ToolErrors: errs}, nil
	}
}

// gather runs the knowledge-base lookups concurrently. Failed lookups are
// reported and left out of the evidence.
func (a analyzer) gather(ctx context.Context, tools tool.Invoker) ([]any, []*tool.Error) {
	if len(a.lookups) == 0 {
		return nil, nil
	}

	reqs := make([]tool.Request, len(a.lookups))
	for i, q := range a.lookups {
		reqs[i] = tool.Request{Tool: ToolFileSearch, Arguments: map[string]any{"query": q}}
	}

	var evidence []any
	var errs []*tool.Error
	for i, resp := range tool.InvokeAll(ctx, tools, reqs...) {
		if !resp.OK {
			errs = append(errs, resp.Err(ToolFileSearch))
			continue
		}
		var results any
		if err := resp.Decode(&results); err != nil {
			errs = append(errs, &tool.Error{Tool: ToolFileSearch, Diagnostic: "decode payload: " + err.Error()})
			continue
		}
		evidence = append(evidence, map[string]any{
			"source":  ToolFileSearch,
			"query":   a.lookups[i],
			"results": results,
		})
	}
	return evidence, errs
}

// analyze calls the analyzer. On success the decoded payload is returned as
// is, whatever its shape, so a malformed answer surfaces as a violation. On
// failure a degraded candidate built from the schema skeleton is returned.
func (a analyzer) analyze(ctx context.Context, view *orchestrator.Snapshot, tools tool.Invoker, evidence []any) (any, bool, []*tool.Error) {
	name := AnalyzerTool(a.stage)
	args := map[string]any{
		"query":        view.Input.Query,
		"image":        view.Input.Image,
		"dependencies": dependencies(view),
	}
	if len(evidence) > 0 {
		args["evidence"] = evidence
	}

	resp := tools.Invoke(ctx, tool.Request{Tool: name, Arguments: args})
	if !resp.OK {
		terr := resp.Err(name)
		return degraded(a.schema, terr), false, []*tool.Error{terr}
	}

	var candidate any
	if err := resp.Decode(&candidate); err != nil {
		terr := &tool.Error{Tool: name, Diagnostic: "decode payload: " + err.Error()}
		return degraded(a.schema, terr), false, []*tool.Error{terr}
	}
	return candidate, true, nil
}

// dependencies renders the visible dependency entries for an analyzer.
func dependencies(view *orchestrator.Snapshot) map[string]any {
	out := make(map[string]any)
	for _, e := range view.Entries() {
		dep := map[string]any{"status": string(e.Status)}
		if e.Accepted() {
			dep["value"] = e.Value
		} else {
			dep["value"] = nil
			dep["reason"] = e.Reason
		}
		out[e.Stage] = dep
	}
	return out
}

// degraded is the schema-valid candidate used when a stage's tool failed.
func degraded(s schema.Schema, terr *tool.Error) schema.Object {
	obj := schema.Skeleton(s)
	if _, ok := s.Field("notes"); ok {
		obj["notes"] = failNote(terr)
	}
	return obj
}

func failNote(terr *tool.Error) string {
	return "[" + ToolFail + "] " + terr.Tool + ": " + terr.Diagnostic
}

// joinNotes joins the non-empty parts with "; ".
func joinNotes(parts ...any) any {
	var kept []string
	for _, p := range parts {
		if s, ok := p.(string); ok && strings.TrimSpace(s) != "" {
			kept = append(kept, s)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	return strings.Join(kept, "; ")
}
