package threat

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"strconv"
	"strings"
)

const (
	defaultSummary  = "Travel safety incident reported"
	degradedSummary = "Unable to analyze report automatically"
	degradedInsight = "Exercise standard travel precautions"
	otherThreat     = "other"
)

var errNoJSON = errors.New("no JSON object found in response")

// Defaults is the record merged under any field a model reply leaves out.
func Defaults() Analysis {
	return Analysis{
		Category:           CategoryStreetSmart,
		RiskScore:          50,
		Confidence:         50,
		Summary:            defaultSummary,
		ThreatType:         otherThreat,
		Severity:           SeverityMedium,
		RelevantFor:        []TravelerProfile{},
		ActionableInsights: []string{},
	}
}

// Degraded is the fixed low-confidence record returned when a model reply
// cannot be parsed at all.
func Degraded() Analysis {
	return Analysis{
		Category:           CategoryStreetSmart,
		RiskScore:          50,
		Confidence:         30,
		Summary:            degradedSummary,
		ThreatType:         otherThreat,
		Severity:           SeverityMedium,
		RelevantFor:        []TravelerProfile{},
		ActionableInsights: []string{degradedInsight},
	}
}

// Normalize converts a free-text model reply into an Analysis. It never
// fails: an unparsable reply yields Degraded() and degraded is true.
func Normalize(raw string) (a Analysis, degraded bool) {
	a, err := Parse(raw)
	if err != nil {
		slog.Warn("failed to parse analysis from model response", "error", err, "response", raw)
		return Degraded(), true
	}
	return a, false
}

// ExtractJSON returns the substring spanning the first '{' to the last '}'.
func ExtractJSON(raw string) (string, error) {
	first := strings.Index(raw, "{")
	last := strings.LastIndex(raw, "}")
	if first == -1 || last < first {
		return "", errNoJSON
	}
	return raw[first : last+1], nil
}

// Parse is Normalize without the degraded fallback: it reports why a reply
// could not be read.
func Parse(raw string) (Analysis, error) {
	obj, err := ExtractJSON(raw)
	if err != nil {
		return Analysis{}, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(obj), &fields); err != nil {
		return Analysis{}, err
	}

	return merge(Defaults(), fields), nil
}

// merge overlays each decodable field onto base. A field that is missing,
// null, or of the wrong shape keeps its default.
func merge(base Analysis, fields map[string]json.RawMessage) Analysis {
	if s, ok := stringField(fields, "category"); ok {
		if c, known := parseCategory(s); known {
			base.Category = c
		}
	}
	if n, ok := intField(fields, "riskScore"); ok {
		base.RiskScore = n
	}
	if n, ok := intField(fields, "confidence"); ok {
		base.Confidence = n
	}
	if s, ok := stringField(fields, "summary"); ok {
		base.Summary = s
	}
	if s, ok := stringField(fields, "threatType"); ok {
		base.ThreatType = s
	}
	if s, ok := stringField(fields, "severity"); ok {
		if sev, known := parseSeverity(s); known {
			base.Severity = sev
		}
	}
	if v, ok := fields["relevantFor"]; ok {
		var profiles []TravelerProfile
		if err := json.Unmarshal(v, &profiles); err == nil && profiles != nil {
			base.RelevantFor = profiles
		}
	}
	if v, ok := fields["actionableInsights"]; ok {
		var insights []string
		if err := json.Unmarshal(v, &insights); err == nil && insights != nil {
			base.ActionableInsights = nonEmpty(insights)
		}
	}
	return Clamp(base)
}

func stringField(fields map[string]json.RawMessage, key string) (string, bool) {
	v, ok := fields[key]
	if !ok {
		return "", false
	}
	var s *string
	if err := json.Unmarshal(v, &s); err != nil || s == nil {
		return "", false
	}
	trimmed := strings.TrimSpace(*s)
	return trimmed, trimmed != ""
}

func intField(fields map[string]json.RawMessage, key string) (int, bool) {
	v, ok := fields[key]
	if !ok {
		return 0, false
	}
	f, ok := number(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	// Bound before converting so huge values cannot overflow int.
	return int(math.Round(math.Max(-1, math.Min(101, f)))), true
}

// number reads a JSON number, or a string holding one ("85").
func number(v json.RawMessage) (float64, bool) {
	var f *float64
	if err := json.Unmarshal(v, &f); err == nil {
		if f == nil {
			return 0, false
		}
		return *f, true
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return 0, false
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func parseCategory(s string) (Category, bool) {
	switch c := Category(strings.ToLower(s)); c {
	case CategoryStreetSmart, CategoryDigitalRisks, CategoryLocalIntel:
		return c, true
	}
	return "", false
}

func parseSeverity(s string) (Severity, bool) {
	switch sev := Severity(strings.ToLower(s)); sev {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return sev, true
	}
	return "", false
}

func nonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
