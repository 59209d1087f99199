package report

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dusk-indust/chartflow/internal/orchestrator"
	"github.com/dusk-indust/chartflow/internal/schema"
	"github.com/dusk-indust/chartflow/internal/stages"
)

// Aggregate builds the FinalReport of a run. It reads only accepted stage
// values, so a stage that ended Violated or Failed contributes nulls and
// empty lists. Aggregate never fails and returns the same report for the
// same snapshot.
func Aggregate(s *orchestrator.Snapshot) FinalReport {
	v := values{s: s}

	r := FinalReport{
		Direction:          v.str(stages.TradeSetup, "direction"),
		Entry:              v.num(stages.TradeSetup, "entry"),
		StopLoss:           v.num(stages.TradeSetup, "stop"),
		TakeProfit:         v.num(stages.TradeSetup, "take_profit"),
		WinProbability:     v.integer(stages.ConfidenceRisk, "winProbability"),
		Timeframe:          v.str(stages.Context, "timeframe"),
		Symbol:             v.str(stages.Context, "pair"),
		Confidence:         v.str(stages.ConfidenceRisk, "confidence_tier"),
		Indicators:         indicators(v),
		Patterns:           patterns(v),
		Strategies:         strategies(v),
		MarketCondition:    marketCondition(v),
		EntryConditions:    descriptions(v.list(stages.ActionPlan, "action_plan")),
		ExitConditions:     descriptions(v.list(stages.ActionPlan, "invalidation_triggers")),
		FearAndGreedValue:  v.integer(stages.Sentiment, "fear_greed_value"),
		FearAndGreedRating: v.str(stages.Sentiment, "fear_greed_rating"),
		BTCDominance:       v.num(stages.Sentiment, "btc_dominance"),
		TotalMarketCap:     v.str(stages.Sentiment, "total_market_cap"),
		Notes:              notes(v),
	}

	if s != nil {
		r.Meta = Meta{
			RunID:     s.RunID,
			Timestamp: timestamp(s.StartedAt),
			Analyst:   s.Analyst,
			Error:     stageErrors(s),
		}
	}
	return r
}

// values reads accepted stage fields. Empty strings read as null.
type values struct {
	s *orchestrator.Snapshot
}

func (v values) get(stage, field string) any {
	return v.s.Field(stage, field)
}

func (v values) str(stage, field string) *string {
	s, ok := v.get(stage, field).(string)
	if !ok || strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

func (v values) num(stage, field string) *float64 {
	n, ok := schema.AsFloat(v.get(stage, field))
	if !ok {
		return nil
	}
	return &n
}

func (v values) integer(stage, field string) *int {
	n, ok := schema.AsFloat(v.get(stage, field))
	if !ok {
		return nil
	}
	i := int(math.Round(n))
	return &i
}

func (v values) list(stage, field string) []any {
	l, _ := v.get(stage, field).([]any)
	return l
}

func (v values) object(stage, field string) map[string]any {
	o, _ := v.get(stage, field).(map[string]any)
	return o
}

func indicators(v values) []string {
	out := []string{}
	if state, ok := v.object(stages.Momentum, "kalman_output")["state_description"].(string); ok && state != "" {
		out = append(out, "Kalman: "+state)
	}
	if state := v.str(stages.Derivatives, "funding_rate_state"); state != nil {
		out = append(out, fmt.Sprintf("Funding Rate: %s (%s%%)", *state, formatNum(v.get(stages.Derivatives, "funding_rate_value"))))
	}
	if rating := v.str(stages.Sentiment, "fear_greed_rating"); rating != nil {
		out = append(out, fmt.Sprintf("F&G Status: %s (%s)", *rating, formatNum(v.get(stages.Sentiment, "fear_greed_value"))))
	}
	if market := v.str(stages.News, "market_news_sentiment"); market != nil {
		out = append(out, fmt.Sprintf("News Sentiment: Market %s, Asset %s", *market, orNA(v.str(stages.News, "asset_news_sentiment"))))
	}
	return out
}

func patterns(v values) []string {
	out := []string{}
	if phase := v.str(stages.Structure, "structure_phase"); phase != nil {
		out = append(out, "Market Structure: "+*phase)
	}
	if fvgs := v.list(stages.Liquidity, "fvgs"); len(fvgs) > 0 {
		if fvg, ok := fvgs[0].(map[string]any); ok {
			out = append(out, fmt.Sprintf("Liquidity: %v FVG %s-%s", fvg["type"], formatNum(fvg["bottom"]), formatNum(fvg["top"])))
		}
	}
	if signals := v.list(stages.Liquidity, "breakout_signals"); len(signals) > 0 {
		if sig, ok := signals[0].(map[string]any); ok {
			out = append(out, fmt.Sprintf("Breakout: %v at %s", sig["type"], formatNum(sig["price_level"])))
		}
	}
	return out
}

func strategies(v values) []string {
	out := []string{}
	if t, ok := v.object(stages.Structure, "bos_event")["type"].(string); ok && t != "" {
		out = append(out, "Break of Structure continuation ("+t+")")
	}
	if t, ok := v.object(stages.Structure, "choch_event")["type"].(string); ok && t != "" {
		out = append(out, "Change of Character reversal ("+t+")")
	}
	if monday := v.object(stages.Structure, "monday_status"); monday != nil && (monday["high"] != nil || monday["low"] != nil) {
		out = append(out, "Monday Range")
	}
	if state := v.str(stages.Ranges, "numeric_interaction_state"); state != nil {
		out = append(out, "Predictive Ranges: "+*state)
	}
	if len(v.list(stages.Liquidity, "fvgs")) > 0 {
		out = append(out, "FVG retest")
	}
	return out
}

func marketCondition(v values) *string {
	phase := v.str(stages.Structure, "structure_phase")
	if phase == nil {
		return nil
	}
	var c string
	switch *phase {
	case "trend_up", "trend_down":
		c = "trending"
	default:
		c = "ranging"
	}
	return &c
}

func descriptions(items []any) []string {
	out := []string{}
	for _, it := range items {
		obj, ok := it.(map[string]any)
		if !ok {
			continue
		}
		if d, ok := obj["description"].(string); ok && d != "" {
			out = append(out, d)
		}
	}
	return out
}

func notes(v values) *string {
	var parts []string
	for _, src := range []struct{ stage, label string }{
		{stages.TradeSetup, "Trade Setup Notes"},
		{stages.ConfidenceRisk, "Confidence/Risk Notes"},
		{stages.News, "News Notes"},
	} {
		if n := v.str(src.stage, "notes"); n != nil {
			parts = append(parts, src.label+": "+*n)
		}
	}
	if len(parts) == 0 {
		return nil
	}
	joined := strings.Join(parts, noteSeparator)
	return &joined
}

const noteSeparator = " | "

// stageErrors lists every stage that did not end Accepted, in run order.
func stageErrors(s *orchestrator.Snapshot) *string {
	var parts []string
	for _, e := range s.Entries() {
		if e.Accepted() {
			continue
		}
		parts = append(parts, e.Stage+": "+e.Reason)
	}
	if len(parts) == 0 {
		return nil
	}
	joined := strings.Join(parts, "; ")
	return &joined
}

func formatNum(v any) string {
	n, ok := schema.AsFloat(v)
	if !ok {
		return "N/A"
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}

func orNA(s *string) string {
	if s == nil {
		return "N/A"
	}
	return *s
}
