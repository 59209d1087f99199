// Package report merges a finished run into the single FinalReport handed
// back to callers.
package report

import (
	"encoding/json"
	"fmt"
	"time"
)

// Meta identifies the run a report came from.
type Meta struct {
	RunID     string  `json:"runId"`
	Timestamp string  `json:"timestamp"`
	Analyst   string  `json:"analyst"`
	Error     *string `json:"error"`
}

// FinalReport is the trading signal assembled from every stage. Fields
// contributed by a stage that did not end Accepted are null or empty.
type FinalReport struct {
	Direction          *string  `json:"direction"`
	Entry              *float64 `json:"entry"`
	StopLoss           *float64 `json:"stopLoss"`
	TakeProfit         *float64 `json:"takeProfit"`
	WinProbability     *int     `json:"winProbability"`
	Timeframe          *string  `json:"timeframe"`
	Symbol             *string  `json:"symbol"`
	Confidence         *string  `json:"confidence"`
	Indicators         []string `json:"indicators"`
	Patterns           []string `json:"patterns"`
	Strategies         []string `json:"strategies"`
	MarketCondition    *string  `json:"marketCondition"`
	EntryConditions    []string `json:"entryConditions"`
	ExitConditions     []string `json:"exitConditions"`
	FearAndGreedValue  *int     `json:"fearAndGreedValue"`
	FearAndGreedRating *string  `json:"fearAndGreedRating"`
	BTCDominance       *float64 `json:"btcDominance"`
	TotalMarketCap     *string  `json:"totalMarketCap"`
	Notes              *string  `json:"notes"`
	Meta               Meta     `json:"_meta"`
}

// SummarySeparator divides the JSON document from the summary in Render.
const SummarySeparator = "--- SUMMARY ---"

// Render writes the report as indented JSON followed by the markdown
// summary.
func (r FinalReport) Render() ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("report: encode: %w", err)
	}
	out := append(data, '\n')
	out = append(out, SummarySeparator...)
	out = append(out, '\n')
	out = append(out, r.Summary()...)
	return out, nil
}

// Failed reports whether any stage ended Violated or Failed.
func (r FinalReport) Failed() bool {
	return r.Meta.Error != nil
}

func timestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
