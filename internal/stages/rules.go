package stages

import (
	"math"

	"github.com/dusk-indust/chartflow/internal/assertion"
	"github.com/dusk-indust/chartflow/internal/schema"
)

// tolerance for recomputed derived values.
const tolerance = 0.01

func contextRules() []assertion.Rule {
	return []assertion.Rule{
		assertion.Between("price-in-range", "price_now", "range_low", "range_high",
			assertion.Downgrade{Field: "tool_status", Value: ToolMismatch, Keep: []any{ToolFail}},
		),
		{
			ID:     "price-delta",
			Field:  "price_delta_pct",
			Inputs: []string{"price_now", "latest_ohlc_close"},
			Predicate: func(in assertion.Inputs) bool {
				got, ok1 := in.Num("price_delta_pct")
				price, ok2 := in.Num("price_now")
				closePrice, ok3 := in.Num("latest_ohlc_close")
				if !ok1 || !ok2 || !ok3 {
					return false
				}
				want, ok := deltaPct(price, closePrice)
				return ok && math.Abs(got-want) <= tolerance
			},
		},
	}
}

func rangesRules() []assertion.Rule {
	return []assertion.Rule{
		{
			ID:     "levels-ordered",
			Field:  "numeric_interaction_state",
			Inputs: []string{"levels"},
			Predicate: func(in assertion.Inputs) bool {
				return levelsOrdered(levelPrices(in["levels"]))
			},
		},
		{
			ID:     "numeric-state",
			Field:  "numeric_interaction_state",
			Inputs: []string{"price_ref", "levels"},
			Predicate: func(in assertion.Inputs) bool {
				price, ok := in.Num("price_ref")
				if !ok {
					return false
				}
				want, ok := classify(price, levelPrices(in["levels"]))
				return ok && in.Str("numeric_interaction_state") == want
			},
		},
	}
}

func tradeSetupRules() []assertion.Rule {
	return []assertion.Rule{
		{
			ID:     "risk-geometry",
			Field:  "risk_reward",
			Inputs: []string{"direction", "entry", "stop", "take_profit"},
			Predicate: func(in assertion.Inputs) bool {
				entry, ok1 := in.Num("entry")
				stop, ok2 := in.Num("stop")
				tp, ok3 := in.Num("take_profit")
				if !ok1 || !ok2 || !ok3 {
					return false
				}
				switch in.Str("direction") {
				case "long":
					return stop < entry && entry < tp
				case "short":
					return tp < entry && entry < stop
				default:
					return false
				}
			},
		},
		{
			ID:     "risk-reward",
			Field:  "risk_reward",
			Inputs: []string{"entry", "stop", "take_profit"},
			Predicate: func(in assertion.Inputs) bool {
				got, ok1 := in.Num("risk_reward")
				entry, ok2 := in.Num("entry")
				stop, ok3 := in.Num("stop")
				tp, ok4 := in.Num("take_profit")
				if !ok1 || !ok2 || !ok3 || !ok4 {
					return false
				}
				want, ok := riskReward(entry, stop, tp)
				return ok && math.Abs(got-want) <= tolerance
			},
		},
	}
}

func confidenceRiskRules() []assertion.Rule {
	return []assertion.Rule{
		assertion.Bounded("win-probability-range", "winProbability", 0, 100,
			assertion.Downgrade{Field: "confidence_tier", Value: nil},
		),
		assertion.Bounded("confidence-range", "confidence_pct", 0, 100),
		assertion.Bounded("risk-budget", "risk_pct", 0, 2),
	}
}

func sentimentRules() []assertion.Rule {
	return []assertion.Rule{
		assertion.Bounded("fng-range", "fear_greed_value", 0, 100,
			assertion.Downgrade{Field: "fear_greed_rating", Value: nil},
		),
		assertion.Bounded("btc-dominance-range", "btc_dominance", 0, 100),
	}
}

// deltaPct is the percentage change from ref to price.
func deltaPct(price, ref float64) (float64, bool) {
	if ref == 0 {
		return 0, false
	}
	return (price - ref) / ref * 100, true
}

// riskReward is reward over risk, both measured from entry.
func riskReward(entry, stop, tp float64) (float64, bool) {
	risk := math.Abs(entry - stop)
	if risk == 0 {
		return 0, false
	}
	return math.Abs(tp-entry) / risk, true
}

// levelPrices extracts the price of each named level from a decoded levels
// list. Levels with a null or missing price are absent from the result.
func levelPrices(v any) map[string]float64 {
	out := make(map[string]float64)
	levels, _ := v.([]any)
	for _, l := range levels {
		obj, ok := l.(map[string]any)
		if !ok {
			continue
		}
		name, _ := obj["level"].(string)
		if price, ok := schema.AsFloat(obj["price"]); ok && name != "" {
			out[name] = price
		}
	}
	return out
}

// levelsOrdered reports whether the known levels descend R2 > R1 > MID > S1
// > S2. Unknown levels are skipped.
func levelsOrdered(prices map[string]float64) bool {
	prev, havePrev := 0.0, false
	for _, name := range levelNames {
		p, ok := prices[name]
		if !ok {
			continue
		}
		if havePrev && p >= prev {
			return false
		}
		prev, havePrev = p, true
	}
	return true
}

// classify places price relative to a complete, ordered level set.
func classify(price float64, prices map[string]float64) (string, bool) {
	for _, name := range levelNames {
		if _, ok := prices[name]; !ok {
			return "", false
		}
	}
	if !levelsOrdered(prices) {
		return "", false
	}

	switch {
	case price > prices["R2"]:
		return "outside_R2", true
	case price >= prices["R1"]:
		return "inside_R1_R2", true
	case price >= prices["MID"]:
		return "inside_R1_MID", true
	case price >= prices["S1"]:
		return "inside_MID_S1", true
	case price >= prices["S2"]:
		return "inside_S1_S2", true
	default:
		return "outside_S2", true
	}
}
