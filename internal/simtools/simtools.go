// Package simtools answers every tool the stage catalogue calls with canned
// data. It backs offline runs and end-to-end tests; the chart it describes
// is a BTCUSDT 4h setup trading near 50k.
package simtools

import (
	"context"
	"fmt"
	"strings"

	"github.com/dusk-indust/chartflow/internal/schema"
	"github.com/dusk-indust/chartflow/internal/stages"
	"github.com/dusk-indust/chartflow/internal/tool"
)

// Prices are the simulated USD quotes by price-feed slug.
var Prices = map[string]float64{
	"bitcoin":  50000,
	"ethereum": 3000,
	"solana":   150,
}

// New returns a router with every simulated tool registered.
func New() *tool.Router {
	r := tool.NewRouter()
	Register(r)
	return r
}

// Register binds the simulated tools on r, replacing earlier bindings.
func Register(r *tool.Router) {
	r.Register(stages.ToolGetPrice, tool.InvokerFunc(getPrice))
	r.Register(stages.ToolFileSearch, tool.InvokerFunc(fileSearch))
	r.Register(stages.ToolNewsSearch, tool.InvokerFunc(newsSearch))
	r.Register(stages.ToolFngCurrent, fixed(map[string]any{
		"value":                42,
		"value_classification": "Fear",
		"timestamp":            1735603200,
		"time_until_update":    "12 hours",
	}))
	r.Register(stages.ToolFngInterpret, tool.InvokerFunc(fngInterpret))
	r.Register(stages.ToolFngHistorical, tool.InvokerFunc(fngHistorical))
	r.Register(stages.ToolGlobalMarket, fixed(map[string]any{
		"data": map[string]any{
			"active_cryptocurrencies":              10823,
			"markets":                              1045,
			"total_market_cap":                     map[string]any{"usd": 3456789012345.67},
			"total_volume":                         map[string]any{"usd": 123456789012.34},
			"market_cap_percentage":                map[string]any{"btc": 56.78, "eth": 12.34},
			"market_cap_change_percentage_24h_usd": 2.34,
		},
	}))

	for stage, payload := range analyses() {
		r.Register(stages.AnalyzerTool(stage), fixed(payload))
	}
}

func fixed(payload any) tool.InvokerFunc {
	return func(context.Context, tool.Request) tool.Response {
		return tool.Succeeded(payload)
	}
}

func getPrice(_ context.Context, req tool.Request) tool.Response {
	coins, _ := req.Arguments["coins"].(string)
	if strings.TrimSpace(coins) == "" {
		return tool.Failed("get-price: coins is required")
	}
	out := make(map[string]any)
	for _, c := range strings.Split(coins, ",") {
		c = strings.ToLower(strings.TrimSpace(c))
		usd, ok := Prices[c]
		if !ok {
			continue
		}
		out[c] = map[string]any{"usd": usd, "id": c, "symbol": symbolOf(c)}
	}
	return tool.Succeeded(out)
}

func symbolOf(slug string) string {
	switch slug {
	case "bitcoin":
		return "btc"
	case "ethereum":
		return "eth"
	case "solana":
		return "sol"
	default:
		return slug
	}
}

func fngInterpret(_ context.Context, req tool.Request) tool.Response {
	v, ok := schema.AsFloat(req.Arguments["value"])
	if !ok {
		return tool.Failed("fng-interpret: value must be a number")
	}
	classification, interpretation := Interpret(v)
	return tool.Succeeded(map[string]any{
		"value":          v,
		"classification": classification,
		"interpretation": interpretation,
	})
}

// Interpret classifies a Fear & Greed index value.
func Interpret(v float64) (classification, interpretation string) {
	switch {
	case v <= 25:
		return "Extreme Fear", "Market is in extreme fear, potentially oversold conditions"
	case v <= 45:
		return "Fear", "Market sentiment is fearful, caution advised"
	case v <= 55:
		return "Neutral", "Market sentiment is neutral, balanced conditions"
	case v <= 75:
		return "Greed", "Market sentiment is greedy, potential for correction"
	default:
		return "Extreme Greed", "Market is in extreme greed, potentially overbought"
	}
}

func fngHistorical(_ context.Context, req tool.Request) tool.Response {
	days := 30.0
	if d, ok := schema.AsFloat(req.Arguments["days"]); ok && d > 0 {
		days = d
	}
	return tool.Succeeded(map[string]any{
		"current_value":        42,
		"average_last_30_days": 38,
		"comparison":           fmt.Sprintf("Current value is 4 points higher than %g-day average", days),
		"trend":                "slightly_improving",
		"notes":                "Fear levels have decreased slightly over the past month",
	})
}

func fileSearch(_ context.Context, req tool.Request) tool.Response {
	q, _ := req.Arguments["query"].(string)
	if q == "" {
		return tool.Failed("file-search: query is required")
	}
	return tool.Succeeded(map[string]any{
		"results": []any{
			map[string]any{
				"content": "Reference notes for " + q + ".",
				"source":  "knowledge/" + slug(q) + ".md",
			},
		},
	})
}

func newsSearch(_ context.Context, req tool.Request) tool.Response {
	q, _ := req.Arguments["query"].(string)
	if q == "" {
		return tool.Failed("news-search: query is required")
	}
	return tool.Succeeded(map[string]any{
		"results": []any{
			map[string]any{"title": "Headlines: " + q, "snippet": "Spot ETF inflows extend for a fifth day."},
		},
	})
}

func slug(s string) string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	return strings.Join(fields, "-")
}
