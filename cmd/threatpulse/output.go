package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kalambet/threatpulse/internal/threat"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"
)

func colorize(color, text string) string {
	if noColor {
		return text
	}
	return color + text + colorReset
}

func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorGreen, "✓ "+msg))
}

func printError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorRed, "✗ "+msg))
}

func printWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorYellow, "⚠ "+msg))
}

func printStatus(label string, format string, args ...any) {
	val := fmt.Sprintf(format, args...)
	l := colorize(colorBold, label+":")
	fmt.Fprintf(os.Stderr, "  %s %s\n", l, val)
}

func severityColor(s threat.Severity) string {
	switch s {
	case threat.SeverityCritical, threat.SeverityHigh:
		return colorRed
	case threat.SeverityMedium:
		return colorYellow
	default:
		return colorGreen
	}
}

func printAnalysis(w io.Writer, a threat.Analysis) {
	fmt.Fprintf(w, "%s %s\n", colorize(colorBold, "Category:"), a.Category)
	fmt.Fprintf(w, "%s %s\n", colorize(colorBold, "Threat:"), a.ThreatType)
	fmt.Fprintf(w, "%s %d/100 (%s)\n", colorize(colorBold, "Risk:"), a.RiskScore,
		colorize(severityColor(a.Severity), string(a.Severity)))
	fmt.Fprintf(w, "%s %d%%\n", colorize(colorBold, "Confidence:"), a.Confidence)
	fmt.Fprintf(w, "%s %s\n", colorize(colorBold, "Summary:"), a.Summary)

	if len(a.RelevantFor) > 0 {
		who := make([]string, len(a.RelevantFor))
		for i, p := range a.RelevantFor {
			who[i] = p.TravelStyle + "/" + p.Experience
		}
		fmt.Fprintf(w, "%s %s\n", colorize(colorBold, "Relevant for:"), strings.Join(who, ", "))
	}
	for _, in := range a.ActionableInsights {
		fmt.Fprintf(w, "  %s %s\n", colorize(colorCyan, "→"), in)
	}
}

func printRecommendations(w io.Writer, recs []string) {
	for i, r := range recs {
		fmt.Fprintf(w, "%d. %s\n", i+1, r)
	}
}
