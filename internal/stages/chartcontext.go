package stages

import (
	"context"
	"fmt"
	"strings"

	"github.com/dusk-indust/chartflow/internal/orchestrator"
	"github.com/dusk-indust/chartflow/internal/schema"
	"github.com/dusk-indust/chartflow/internal/tool"
)

// quoteSuffixes are tried in order; at most one is stripped.
var quoteSuffixes = []string{"FDUSD", "USDT", "USDC", "BUSD", "USD", "EUR", "BTC"}

// coinSlugs maps common tickers to their price-feed slug. Unknown tickers
// are looked up by their lower-case symbol.
var coinSlugs = map[string]string{
	"btc":  "bitcoin",
	"eth":  "ethereum",
	"sol":  "solana",
	"bnb":  "binancecoin",
	"xrp":  "ripple",
	"ada":  "cardano",
	"doge": "dogecoin",
	"dot":  "polkadot",
	"avax": "avalanche-2",
	"link": "chainlink",
	"ltc":  "litecoin",
	"hype": "hyperliquid",
}

// CoinSlug derives the price-feed slug of a pair such as "BTCUSDT",
// "ETH/USD" or "SOL-PERP". It returns "" when no base asset remains.
func CoinSlug(pair string) string {
	base := strings.ToLower(BaseAsset(pair))
	if slug, ok := coinSlugs[base]; ok {
		return slug
	}
	return base
}

// BaseAsset strips the exchange prefix, separators and quote currency from
// pair, leaving the upper-case base ticker.
func BaseAsset(pair string) string {
	p := strings.ToUpper(strings.TrimSpace(pair))
	if i := strings.LastIndex(p, ":"); i >= 0 {
		p = p[i+1:]
	}
	p = strings.NewReplacer("/", "", "-", "", "_", "", ".P", "").Replace(p)

	p = strings.TrimSuffix(p, "PERP")
	for _, q := range quoteSuffixes {
		if len(p) > len(q) && strings.HasSuffix(p, q) {
			return strings.TrimSuffix(p, q)
		}
	}
	return p
}

// invokeContext reads the chart through the context analyzer, then checks
// a live quote for the pair. The stage owns tool_status, price_now and
// price_delta_pct; the analyzer supplies everything read from the chart.
func invokeContext(ctx context.Context, view *orchestrator.Snapshot, tools tool.Invoker) (orchestrator.Result, error) {
	a := analyzer{stage: Context, schema: contextSchema()}
	candidate, ok, errs := a.analyze(ctx, view, tools, nil)
	obj, isObj := candidate.(map[string]any)
	if !isObj {
		return orchestrator.Result{Candidate: candidate, ToolErrors: errs}, nil
	}

	obj["price_now"] = nil
	obj["price_delta_pct"] = nil
	if !ok {
		obj["tool_status"] = ToolFail
		return orchestrator.Result{Candidate: obj, ToolErrors: errs}, nil
	}

	pair, _ := obj["pair"].(string)
	status, price, note, terr := quote(ctx, tools, CoinSlug(pair))
	if terr != nil {
		errs = append(errs, terr)
	}

	obj["tool_status"] = status
	if price != nil {
		obj["price_now"] = *price
		if closePrice, ok := schema.AsFloat(obj["latest_ohlc_close"]); ok {
			if d, ok := deltaPct(*price, closePrice); ok {
				obj["price_delta_pct"] = d
			}
		}
	}
	obj["notes"] = joinNotes("["+status+"] "+note, obj["notes"])

	return orchestrator.Result{Candidate: obj, ToolErrors: errs}, nil
}

// quote fetches the live price of slug and classifies the result. A price
// is returned only when the tool answered for the requested asset.
func quote(ctx context.Context, tools tool.Invoker, slug string) (status string, price *float64, note string, terr *tool.Error) {
	if slug == "" {
		return ToolFail, nil, "pair unreadable, price lookup skipped", nil
	}

	resp := tools.Invoke(ctx, tool.Request{
		Tool:      ToolGetPrice,
		Arguments: map[string]any{"coins": slug, "currencies": "usd"},
	})
	if !resp.OK {
		terr = resp.Err(ToolGetPrice)
		return ToolFail, nil, fmt.Sprintf("%s failed: %s", ToolGetPrice, resp.Diagnostic), terr
	}

	payload, ok := resp.Object()
	if !ok {
		return ToolFail, nil, ToolGetPrice + " returned no object", nil
	}
	entry, ok := payload[slug].(map[string]any)
	if !ok {
		return ToolMismatch, nil, fmt.Sprintf("asset %q missing from quote", slug), nil
	}
	if id, ok := entry["id"].(string); ok && id != "" && id != slug {
		return ToolMismatch, nil, fmt.Sprintf("asset mismatch: asked %q, got %q", slug, id), nil
	}
	usd, ok := schema.AsFloat(entry["usd"])
	if !ok || usd <= 0 {
		return ToolFail, nil, ToolGetPrice + " returned no price", nil
	}
	return ToolSuccess, &usd, "asset matched", nil
}
