package stages

import (
	"context"
	"math"

	"github.com/dusk-indust/chartflow/internal/orchestrator"
	"github.com/dusk-indust/chartflow/internal/schema"
	"github.com/dusk-indust/chartflow/internal/tool"
)

// refineRanges anchors the ranges candidate to the context stage's live
// price and fills in the interaction state when the analyzer left it out.
func refineRanges(_ context.Context, view *orchestrator.Snapshot, _ tool.Invoker, obj schema.Object) []*tool.Error {
	price, ok := schema.AsFloat(view.Field(Context, "price_now"))
	if !ok {
		obj["price_ref"] = nil
		return nil
	}
	obj["price_ref"] = price

	if obj["numeric_interaction_state"] == nil {
		if state, ok := classify(price, levelPrices(obj["levels"])); ok {
			obj["numeric_interaction_state"] = state
		}
	}
	return nil
}

// refineTradeSetup computes risk_reward from the setup's own prices.
func refineTradeSetup(_ context.Context, _ *orchestrator.Snapshot, _ tool.Invoker, obj schema.Object) []*tool.Error {
	entry, ok1 := schema.AsFloat(obj["entry"])
	stop, ok2 := schema.AsFloat(obj["stop"])
	tp, ok3 := schema.AsFloat(obj["take_profit"])
	if !ok1 || !ok2 || !ok3 {
		return nil
	}
	if rr, ok := riskReward(entry, stop, tp); ok {
		obj["risk_reward"] = math.Round(rr*100) / 100
	}
	return nil
}

// refineConfidenceRisk defaults confidence_pct to the win probability.
func refineConfidenceRisk(_ context.Context, _ *orchestrator.Snapshot, _ tool.Invoker, obj schema.Object) []*tool.Error {
	if obj["confidence_pct"] != nil {
		return nil
	}
	if win, ok := schema.AsFloat(obj["winProbability"]); ok {
		obj["confidence_pct"] = win
	}
	return nil
}
