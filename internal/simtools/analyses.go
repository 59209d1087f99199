package simtools

import "github.com/dusk-indust/chartflow/internal/stages"

// analyses are the canned analyzer answers by stage. Fields the stages
// compute themselves are left null.
func analyses() map[string]map[string]any {
	return map[string]map[string]any{
		stages.Context: {
			"pair":                  "BTCUSDT",
			"timeframe":             "4h",
			"exchange":              "Binance",
			"latest_ohlc_open":      49800.0,
			"latest_ohlc_high":      50350.0,
			"latest_ohlc_low":       49650.0,
			"latest_ohlc_close":     50100.0,
			"ohlc_data_description": "Bullish 4h candle closing near the high after a wick into 49.6k",
			"range_high":            52000.0,
			"range_low":             48000.0,
			"price_now":             nil,
			"price_delta_pct":       nil,
			"tool_status":           stages.ToolSuccess,
			"notes":                 nil,
		},
		stages.Structure: {
			"structure_phase": "trend_up",
			"major_swings": []any{
				map[string]any{"type": "HL"},
				map[string]any{"type": "HH"},
			},
			"bos_event":     map[string]any{"type": "BOS_up", "position": "below"},
			"choch_event":   nil,
			"monday_status": map[string]any{"high": "below", "low": "above"},
			"notes":         "Higher lows intact since the Monday open",
		},
		stages.Ranges: {
			"levels": []any{
				map[string]any{"level": "R2", "price": 52500.0, "approx": false},
				map[string]any{"level": "R1", "price": 51200.0, "approx": false},
				map[string]any{"level": "MID", "price": 50000.0, "approx": true},
				map[string]any{"level": "S1", "price": 48800.0, "approx": false},
				map[string]any{"level": "S2", "price": 47500.0, "approx": false},
			},
			"price_ref":                 nil,
			"numeric_interaction_state": nil,
			"visual_touching_level":     "MID",
			"notes":                     nil,
		},
		stages.Liquidity: {
			"fvgs": []any{
				map[string]any{"top": 49500.0, "bottom": 49200.0, "type": "bullish", "strength_pct": 68.0},
			},
			"order_blocks": []any{
				map[string]any{"top": 49100.0, "bottom": 48850.0, "type": "bullish"},
			},
			"breakout_signals": []any{
				map[string]any{"type": "bullish_breakout", "price_level": 49900.0},
			},
			"notes": nil,
		},
		stages.Momentum: {
			"kalman_output": map[string]any{
				"oscillator_value":     0.42,
				"trend_strength_value": 0.65,
				"state_description":    "bullish, strengthening",
			},
			"volume_delta_output": map[string]any{
				"latest_delta_value": 1250.0,
				"recent_pattern":     "buyers absorbing dips",
			},
			"moak_output": map[string]any{
				"fast_signal_value": 0.31,
				"slow_signal_value": 0.18,
				"state_description": "fast above slow",
			},
			"top_exchanges_description": nil,
			"divergence_flag":           false,
			"notes":                     nil,
		},
		stages.Derivatives: {
			"open_interest_value":     18.2e9,
			"open_interest_trend_raw": "rising",
			"oi_price_interpretation": "Rising OI with rising price: new longs entering",
			"oi_specific_signals": map[string]any{
				"trapped_traders": nil,
				"stop_hunt_risk":  "low",
				"failed_auction":  false,
			},
			"recent_liquidations": []any{
				map[string]any{"type": "short", "level": 49900.0, "size": "medium", "timestamp_description": "last 4h candle"},
			},
			"funding_rate_value": 0.01,
			"funding_rate_state": "neutral",
			"funding_rate_trend": "flat",
			"cvd_value":          3400.0,
			"cvd_analysis": map[string]any{
				"trend":          "rising",
				"interpretation": "Spot buyers leading",
			},
			"overall_interpretation": "Healthy long build-up without crowded funding",
			"divergence_flag_oi":     false,
			"divergence_flag_cvd":    false,
			"notes":                  nil,
		},
		stages.News: {
			"general_market_news":   []any{"Spot ETF inflows extend for a fifth day"},
			"asset_specific_news":   []any{"Bitcoin hashrate prints a record high"},
			"weekly_summary":        "Risk-on week led by majors",
			"market_news_sentiment": "Positive",
			"asset_news_sentiment":  "Neutral",
			"notes":                 nil,
		},
		stages.TradeSetup: {
			"direction":   "long",
			"entry":       50000.0,
			"stop":        48800.0,
			"take_profit": 52500.0,
			"risk_reward": nil,
			"confirmations": []any{
				map[string]any{"factor_type": "structure", "description": "BOS up with higher lows", "strength": "high"},
				map[string]any{"factor_type": "liquidity", "description": "Bullish FVG below price", "strength": "medium"},
			},
			"scenarios": []any{
				map[string]any{"type": "invalidation_point", "description": "4h close below S1", "implication": "long thesis void"},
			},
			"notes": "Entry on MID retest",
		},
		stages.ConfidenceRisk: {
			"winProbability":  62,
			"confidence_pct":  nil,
			"risk_pct":        1.0,
			"confidence_tier": "medium",
			"reasoning":       "Structure and momentum agree; sentiment is cautious",
			"notes":           nil,
		},
		stages.ActionPlan: {
			"action_plan": []any{
				map[string]any{"step_number": 1, "description": "Wait for a 4h close above 50000", "condition": "price holds MID"},
				map[string]any{"step_number": 2, "description": "Enter long at 50000 with stop 48800", "condition": nil},
			},
			"invalidation_triggers": []any{
				map[string]any{"type": "technical", "description": "4h close below 48800", "price_level": 48800.0},
				map[string]any{"type": "event_based", "description": "Funding flips strongly positive", "price_level": nil},
			},
			"notes": nil,
		},
	}
}
