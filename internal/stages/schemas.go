package stages

import "github.com/dusk-indust/chartflow/internal/schema"

// Tool status tags reported by the context stage.
const (
	ToolSuccess  = "TOOL_SUCCESS"
	ToolMismatch = "TOOL_MISMATCH"
	ToolFail     = "TOOL_FAIL"
)

var (
	levelNames       = []string{"R2", "R1", "MID", "S1", "S2"}
	interactionState = []string{"outside_R2", "inside_R1_R2", "inside_R1_MID", "inside_MID_S1", "inside_S1_S2", "outside_S2"}
	newsSentiment    = []string{"Positive", "Negative", "Neutral", "Mixed"}
	spatial          = []string{"above", "below", "at"}
)

func contextSchema() schema.Schema {
	return schema.Schema{
		Name: "context",
		Fields: []schema.Field{
			reqString("pair"),
			reqString("timeframe"),
			nullString("exchange"),
			nullNumber("latest_ohlc_open"),
			nullNumber("latest_ohlc_high"),
			nullNumber("latest_ohlc_low"),
			nullNumber("latest_ohlc_close"),
			nullString("ohlc_data_description"),
			nullNumber("range_high"),
			nullNumber("range_low"),
			nullNumber("price_now"),
			nullNumber("price_delta_pct"),
			reqString("tool_status", ToolFail, ToolMismatch, ToolSuccess),
			notes(),
		},
	}
}

func structureSchema() schema.Schema {
	event := func(name string, types ...string) schema.Field {
		return nullObject(name,
			nullString("type", types...),
			nullString("position", spatial...),
		)
	}
	monday := append(append([]string(nil), spatial...), "inside")

	return schema.Schema{
		Name: "structure",
		Fields: []schema.Field{
			nullString("structure_phase", "accumulation", "distribution", "trend_up", "trend_down", "ranging"),
			list("major_swings", item(reqString("type", "HH", "LL", "LH", "HL"))),
			event("bos_event", "BOS_up", "BOS_down"),
			event("choch_event", "CHoCH_up", "CHoCH_down"),
			nullObject("monday_status",
				nullString("high", monday...),
				nullString("low", monday...),
			),
			notes(),
		},
	}
}

func rangesSchema() schema.Schema {
	return schema.Schema{
		Name: "ranges",
		Fields: []schema.Field{
			list("levels", item(
				reqString("level", levelNames...),
				nullNumber("price"),
				reqBool("approx"),
			)),
			nullNumber("price_ref"),
			nullString("numeric_interaction_state", interactionState...),
			nullString("visual_touching_level", levelNames...),
			notes(),
		},
	}
}

func liquiditySchema() schema.Schema {
	return schema.Schema{
		Name: "liquidity",
		Fields: []schema.Field{
			list("fvgs", item(
				nullNumber("top"),
				nullNumber("bottom"),
				reqString("type", "bullish", "bearish"),
				nullNumber("strength_pct"),
			)),
			list("order_blocks", item()),
			list("breakout_signals", item(
				reqString("type"),
				nullNumber("price_level"),
			)),
			notes(),
		},
	}
}

func momentumSchema() schema.Schema {
	return schema.Schema{
		Name: "momentum",
		Fields: []schema.Field{
			nullObject("kalman_output",
				nullNumber("oscillator_value"),
				nullNumber("trend_strength_value"),
				nullString("state_description"),
			),
			nullObject("volume_delta_output",
				nullNumber("latest_delta_value"),
				nullString("recent_pattern"),
			),
			nullObject("moak_output",
				nullNumber("fast_signal_value"),
				nullNumber("slow_signal_value"),
				nullString("state_description"),
			),
			nullString("top_exchanges_description"),
			nullBool("divergence_flag"),
			notes(),
		},
	}
}

func derivativesSchema() schema.Schema {
	return schema.Schema{
		Name: "derivatives",
		Fields: []schema.Field{
			nullNumber("open_interest_value"),
			nullString("open_interest_trend_raw", "rising", "falling", "flat", "unclear"),
			nullString("oi_price_interpretation"),
			nullObject("oi_specific_signals",
				nullString("trapped_traders"),
				nullString("stop_hunt_risk"),
				nullBool("failed_auction"),
			),
			list("recent_liquidations", item(
				nullString("type", "long", "short"),
				nullNumber("level"),
				nullString("size", "small", "medium", "large", "significant"),
				nullString("timestamp_description"),
			)),
			nullNumber("funding_rate_value"),
			nullString("funding_rate_state"),
			nullString("funding_rate_trend", "rising", "falling", "flat", "volatile"),
			nullNumber("cvd_value"),
			nullObject("cvd_analysis",
				nullString("trend", "rising", "falling", "flat"),
				nullString("interpretation"),
			),
			nullString("overall_interpretation"),
			nullBool("divergence_flag_oi"),
			nullBool("divergence_flag_cvd"),
			notes(),
		},
	}
}

func sentimentSchema() schema.Schema {
	return schema.Schema{
		Name: "sentiment",
		Fields: []schema.Field{
			nullInteger("fear_greed_value"),
			nullString("fear_greed_rating"),
			nullString("historical_comparison_notes"),
			nullNumber("btc_dominance"),
			nullString("total_market_cap"),
			notes(),
		},
	}
}

func newsSchema() schema.Schema {
	return schema.Schema{
		Name: "news",
		Fields: []schema.Field{
			nullList("general_market_news", stringItem()),
			nullList("asset_specific_news", stringItem()),
			nullString("weekly_summary"),
			nullString("market_news_sentiment", newsSentiment...),
			nullString("asset_news_sentiment", newsSentiment...),
			notes(),
		},
	}
}

func tradeSetupSchema() schema.Schema {
	return schema.Schema{
		Name: "tradesetup",
		Fields: []schema.Field{
			nullString("direction", "long", "short"),
			nullNumber("entry"),
			nullNumber("stop"),
			nullNumber("take_profit"),
			nullNumber("risk_reward"),
			list("confirmations", item(
				reqString("factor_type", "structure", "liquidity", "range", "momentum", "derivatives", "sentiment", "news", "macro", "other"),
				reqString("description"),
				nullString("strength", "high", "medium", "low"),
			)),
			list("scenarios", item(
				reqString("type", "alternative_bullish", "alternative_bearish", "invalidation_point", "risk_factor"),
				reqString("description"),
				nullString("implication"),
			)),
			notes(),
		},
	}
}

func confidenceRiskSchema() schema.Schema {
	return schema.Schema{
		Name: "confidencerisk",
		Fields: []schema.Field{
			nullInteger("winProbability"),
			nullInteger("confidence_pct"),
			nullNumber("risk_pct"),
			nullString("confidence_tier", "high", "medium", "low"),
			nullString("reasoning"),
			notes(),
		},
	}
}

func actionPlanSchema() schema.Schema {
	return schema.Schema{
		Name: "actionplan",
		Fields: []schema.Field{
			list("action_plan", item(
				reqInteger("step_number"),
				reqString("description"),
				nullString("condition"),
			)),
			list("invalidation_triggers", item(
				reqString("type", "technical", "time_based", "event_based"),
				reqString("description"),
				nullNumber("price_level"),
			)),
			notes(),
		},
	}
}
