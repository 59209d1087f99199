package stages

import (
	"context"
	"fmt"
	"math"

	"github.com/dusk-indust/chartflow/internal/orchestrator"
	"github.com/dusk-indust/chartflow/internal/schema"
	"github.com/dusk-indust/chartflow/internal/tool"
)

// historicalDays is the Fear & Greed comparison window.
const historicalDays = 30

// invokeSentiment assembles market sentiment from data tools alone. The
// three lookups are independent and run together; the interpretation needs
// the current index value and runs after them.
func invokeSentiment(ctx context.Context, _ *orchestrator.Snapshot, tools tool.Invoker) (orchestrator.Result, error) {
	out := schema.Skeleton(sentimentSchema())
	var errs []*tool.Error
	var notes []any

	fail := func(name string, resp tool.Response) {
		terr := resp.Err(name)
		errs = append(errs, terr)
		notes = append(notes, failNote(terr))
	}

	resps := tool.InvokeAll(ctx, tools,
		tool.Request{Tool: ToolFngCurrent, Arguments: map[string]any{}},
		tool.Request{Tool: ToolFngHistorical, Arguments: map[string]any{"days": historicalDays}},
		tool.Request{Tool: ToolGlobalMarket, Arguments: map[string]any{"include_defi": false}},
	)
	current, historical, global := resps[0], resps[1], resps[2]

	var value *float64
	if !current.OK {
		fail(ToolFngCurrent, current)
	} else if obj, ok := current.Object(); ok {
		if v, ok := schema.AsFloat(obj["value"]); ok {
			v = math.Round(v)
			value = &v
			out["fear_greed_value"] = v
		}
		if rating, ok := obj["value_classification"].(string); ok && rating != "" {
			out["fear_greed_rating"] = rating
		}
	}

	if value != nil {
		resp := tools.Invoke(ctx, tool.Request{
			Tool:      ToolFngInterpret,
			Arguments: map[string]any{"value": int(*value)},
		})
		if !resp.OK {
			fail(ToolFngInterpret, resp)
		} else if obj, ok := resp.Object(); ok {
			if rating, ok := obj["classification"].(string); ok && rating != "" {
				out["fear_greed_rating"] = rating
			}
			notes = append(notes, obj["interpretation"])
		}
	}

	if !historical.OK {
		fail(ToolFngHistorical, historical)
	} else if obj, ok := historical.Object(); ok {
		hist := joinNotes(obj["comparison"], obj["notes"])
		if trend, ok := obj["trend"].(string); ok && trend != "" && hist != nil {
			hist = fmt.Sprintf("%s (trend: %s)", hist, trend)
		}
		out["historical_comparison_notes"] = hist
	}

	if !global.OK {
		fail(ToolGlobalMarket, global)
	} else if obj, ok := global.Object(); ok {
		data, _ := obj["data"].(map[string]any)
		if pct, ok := data["market_cap_percentage"].(map[string]any); ok {
			if btc, ok := schema.AsFloat(pct["btc"]); ok {
				out["btc_dominance"] = math.Round(btc*100) / 100
			}
		}
		if caps, ok := data["total_market_cap"].(map[string]any); ok {
			if usd, ok := schema.AsFloat(caps["usd"]); ok {
				out["total_market_cap"] = FormatMarketCap(usd)
			}
		}
	}

	out["notes"] = joinNotes(notes...)
	return orchestrator.Result{Candidate: out, ToolErrors: errs}, nil
}

// FormatMarketCap renders a USD amount the way sentiment reports carry it,
// for example "$3.46T".
func FormatMarketCap(usd float64) string {
	switch abs := math.Abs(usd); {
	case abs >= 1e12:
		return fmt.Sprintf("$%.2fT", usd/1e12)
	case abs >= 1e9:
		return fmt.Sprintf("$%.2fB", usd/1e9)
	case abs >= 1e6:
		return fmt.Sprintf("$%.2fM", usd/1e6)
	default:
		return fmt.Sprintf("$%.2f", usd)
	}
}
