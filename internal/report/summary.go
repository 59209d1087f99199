package report

import (
	"fmt"
	"strconv"
	"strings"
)

// Summary renders the short markdown recommendation that accompanies the
// JSON report.
func (r FinalReport) Summary() string {
	direction := "No clear direction"
	reason := "strong confluence of technical factors"
	if r.Direction != nil {
		switch *r.Direction {
		case "long":
			direction = "Long"
			reason = "bullish market structure and liquidity support"
		case "short":
			direction = "Short"
			reason = "bearish market structure and liquidity resistance"
		}
	}

	subject := direction
	if r.Symbol != nil {
		subject += " " + *r.Symbol
	}

	var factors []string
	if len(r.Indicators) > 0 {
		factors = append(factors, "Indicators: "+strings.Join(head(r.Indicators, 2), ", "))
	}
	if len(r.Patterns) > 0 {
		factors = append(factors, "Patterns: "+strings.Join(head(r.Patterns, 2), ", "))
	}
	if r.Notes != nil {
		first, _, _ := strings.Cut(*r.Notes, noteSeparator)
		factors = append(factors, "Additional Context: "+first)
	}
	for len(factors) < 2 {
		factors = append(factors, "N/A")
	}

	risk := "No specific risks identified."
	if len(r.ExitConditions) > 0 {
		risk = r.ExitConditions[0]
	}

	win := "N/A"
	if r.WinProbability != nil {
		win = strconv.Itoa(*r.WinProbability)
	}
	confidence := "N/A"
	if r.Confidence != nil {
		confidence = *r.Confidence
	}
	stop := "N/A"
	if r.StopLoss != nil {
		stop = strconv.FormatFloat(*r.StopLoss, 'f', -1, 64)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Recommendation: %s based on %s.\n", subject, reason)
	sb.WriteString("Key Factors:\n")
	fmt.Fprintf(&sb, "* %s\n", factors[0])
	fmt.Fprintf(&sb, "* %s\n", factors[1])
	fmt.Fprintf(&sb, "* Key Risk: %s. Win Probability: %s%%. Confidence: %s. Stop: %s.\n",
		strings.TrimSuffix(risk, "."), win, confidence, stop)
	return sb.String()
}

func head(items []string, n int) []string {
	if len(items) < n {
		return items
	}
	return items[:n]
}
