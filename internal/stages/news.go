package stages

import (
	"context"
	"fmt"

	"github.com/dusk-indust/chartflow/internal/orchestrator"
	"github.com/dusk-indust/chartflow/internal/tool"
)

// newsQueries builds the three searches behind the news stage, dated at the
// run start so repeated runs of one snapshot ask the same questions.
func newsQueries(view *orchestrator.Snapshot) []string {
	date := view.StartedAt.UTC().Format("2006-01-02")
	asset := "crypto"
	if pair, ok := view.Field(Context, "pair").(string); ok {
		if base := BaseAsset(pair); base != "" {
			asset = base
		}
	}
	return []string{
		fmt.Sprintf("latest crypto market news and sentiment %s", date),
		fmt.Sprintf("%s news and sentiment %s", asset, date),
		fmt.Sprintf("crypto market weekly summary for the week before %s", date),
	}
}

// invokeNews searches the news concurrently, then hands the results to the
// news analyzer. Failed searches are reported and left out of the evidence.
func invokeNews(ctx context.Context, view *orchestrator.Snapshot, tools tool.Invoker) (orchestrator.Result, error) {
	queries := newsQueries(view)
	reqs := make([]tool.Request, len(queries))
	for i, q := range queries {
		reqs[i] = tool.Request{Tool: ToolNewsSearch, Arguments: map[string]any{"query": q}}
	}

	var evidence []any
	var errs []*tool.Error
	for i, resp := range tool.InvokeAll(ctx, tools, reqs...) {
		if !resp.OK {
			errs = append(errs, resp.Err(ToolNewsSearch))
			continue
		}
		var results any
		if err := resp.Decode(&results); err != nil {
			errs = append(errs, &tool.Error{Tool: ToolNewsSearch, Diagnostic: "decode payload: " + err.Error()})
			continue
		}
		evidence = append(evidence, map[string]any{
			"source":  ToolNewsSearch,
			"query":   queries[i],
			"results": results,
		})
	}

	a := analyzer{stage: News, schema: newsSchema()}
	candidate, _, aerrs := a.analyze(ctx, view, tools, evidence)
	errs = append(errs, aerrs...)

	if obj, ok := candidate.(map[string]any); ok && len(errs) > len(aerrs) {
		var skipped []any
		for _, terr := range errs[:len(errs)-len(aerrs)] {
			skipped = append(skipped, failNote(terr))
		}
		obj["notes"] = joinNotes(append([]any{obj["notes"]}, skipped...)...)
	}
	return orchestrator.Result{Candidate: candidate, ToolErrors: errs}, nil
}
