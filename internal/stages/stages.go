// Package stages is the chart-analysis stage catalogue: eleven stages run in
// a fixed order, from reading the chart context through to an action plan.
// Stages reach analyzers and market data only through tool calls.
package stages

import (
	"github.com/dusk-indust/chartflow/internal/orchestrator"
	"github.com/dusk-indust/chartflow/internal/schema"
)

// Stage ids in execution order.
const (
	Context        = "context"
	Structure      = "structure"
	Ranges         = "ranges"
	Liquidity      = "liquidity"
	Momentum       = "momentum"
	Derivatives    = "derivatives"
	Sentiment      = "sentiment"
	News           = "news"
	TradeSetup     = "tradesetup"
	ConfidenceRisk = "confidencerisk"
	ActionPlan     = "actionplan"
)

// Tool names the catalogue calls.
const (
	AnalyzerPrefix    = "analyze-"
	ToolGetPrice      = "get-price"
	ToolFileSearch    = "file-search"
	ToolFngCurrent    = "fng-current"
	ToolFngHistorical = "fng-historical"
	ToolFngInterpret  = "fng-interpret"
	ToolGlobalMarket  = "global-market-data"
	ToolNewsSearch    = "news-search"
)

// Catalogue returns the stage definitions in execution order.
func Catalogue() []orchestrator.StageDefinition {
	structure := analyzer{stage: Structure, schema: structureSchema(), lookups: []string{
		"AlgoAlpha BOS and CHoCH definitions",
		"Monday Range strategy",
		"swing point definitions HH HL LH LL",
	}}
	ranges := analyzer{stage: Ranges, schema: rangesSchema(), lookups: []string{
		"LuxAlgo Predictive Ranges levels R2 R1 MID S1 S2",
	}}
	liquidity := analyzer{stage: Liquidity, schema: liquiditySchema(), lookups: []string{
		"FVG Order Blocks BigBeluga strength",
		"AlgoAlpha Smart Money Breakout signals",
	}}
	momentum := analyzer{stage: Momentum, schema: momentumSchema(), lookups: []string{
		"Kalman oscillator trend strength interpretation",
		"Volume Delta patterns",
		"MOAK fast and slow signal",
	}}
	derivatives := analyzer{stage: Derivatives, schema: derivativesSchema(), lookups: []string{
		"open interest price interpretation",
		"funding rate thresholds",
		"CVD divergence",
	}}
	tradeSetup := analyzer{stage: TradeSetup, schema: tradeSetupSchema()}
	confidenceRisk := analyzer{stage: ConfidenceRisk, schema: confidenceRiskSchema()}
	actionPlan := analyzer{stage: ActionPlan, schema: actionPlanSchema()}

	return []orchestrator.StageDefinition{
		{
			ID:     Context,
			Schema: contextSchema(),
			Rules:  contextRules(),
			Invoke: invokeContext,
		},
		{
			ID:        Structure,
			DependsOn: []string{Context},
			Schema:    structure.schema,
			Invoke:    structure.invoke(nil),
		},
		{
			ID:        Ranges,
			DependsOn: []string{Context},
			Schema:    ranges.schema,
			Rules:     rangesRules(),
			Invoke:    ranges.invoke(refineRanges),
		},
		{
			ID:        Liquidity,
			DependsOn: []string{Context, Structure},
			Schema:    liquidity.schema,
			Invoke:    liquidity.invoke(nil),
		},
		{
			ID:        Momentum,
			DependsOn: []string{Context},
			Schema:    momentum.schema,
			Invoke:    momentum.invoke(nil),
		},
		{
			ID:        Derivatives,
			DependsOn: []string{Context},
			Schema:    derivatives.schema,
			Invoke:    derivatives.invoke(nil),
		},
		{
			ID:     Sentiment,
			Schema: sentimentSchema(),
			Rules:  sentimentRules(),
			Invoke: invokeSentiment,
		},
		{
			ID:        News,
			DependsOn: []string{Context},
			Schema:    newsSchema(),
			Invoke:    invokeNews,
		},
		{
			ID:        TradeSetup,
			DependsOn: []string{Context, Structure, Ranges, Liquidity, Momentum, Derivatives, Sentiment, News},
			Schema:    tradeSetup.schema,
			Rules:     tradeSetupRules(),
			Invoke:    tradeSetup.invoke(refineTradeSetup),
		},
		{
			ID:        ConfidenceRisk,
			DependsOn: []string{Context, Structure, Ranges, Liquidity, Momentum, Derivatives, Sentiment, News, TradeSetup},
			Schema:    confidenceRisk.schema,
			Rules:     confidenceRiskRules(),
			Invoke:    confidenceRisk.invoke(refineConfidenceRisk),
		},
		{
			ID:        ActionPlan,
			DependsOn: []string{Ranges, TradeSetup, ConfidenceRisk},
			Schema:    actionPlan.schema,
			Invoke:    actionPlan.invoke(nil),
		},
	}
}

// Info describes a stage for listings.
type Info struct {
	ID        string        `json:"id"`
	DependsOn []string      `json:"dependsOn"`
	Tools     []string      `json:"tools"`
	Rules     []string      `json:"rules,omitempty"`
	Schema    schema.Schema `json:"schema"`
}

// Describe lists every stage with the tools it calls and its rule ids.
func Describe() []Info {
	defs := Catalogue()
	out := make([]Info, 0, len(defs))
	for _, def := range defs {
		info := Info{
			ID:        def.ID,
			DependsOn: append([]string{}, def.DependsOn...),
			Tools:     toolsFor(def.ID),
			Schema:    def.Schema,
		}
		for _, r := range def.Rules {
			info.Rules = append(info.Rules, r.ID)
		}
		out = append(out, info)
	}
	return out
}

// Tools lists every tool name the catalogue may call, without duplicates,
// in first-use order.
func Tools() []string {
	var out []string
	seen := make(map[string]bool)
	for _, def := range Catalogue() {
		for _, name := range toolsFor(def.ID) {
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	return out
}

func toolsFor(stage string) []string {
	switch stage {
	case Context:
		return []string{AnalyzerTool(Context), ToolGetPrice}
	case Structure, Ranges, Liquidity, Momentum, Derivatives:
		return []string{ToolFileSearch, AnalyzerTool(stage)}
	case Sentiment:
		return []string{ToolFngCurrent, ToolFngHistorical, ToolGlobalMarket, ToolFngInterpret}
	case News:
		return []string{ToolNewsSearch, AnalyzerTool(News)}
	default:
		return []string{AnalyzerTool(stage)}
	}
}
