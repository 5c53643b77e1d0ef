package threat

var (
	digitalLabels = map[string]bool{"surveillance": true, "digital-risk": true, "fraud": true}
	streetLabels  = map[string]bool{"scam": true, "theft": true, "pickpocket": true, "robbery": true}
)

// CategoryFor maps a raw threat label to its category. Unknown labels are
// local intel.
func CategoryFor(label string) Category {
	switch {
	case digitalLabels[label]:
		return CategoryDigitalRisks
	case streetLabels[label]:
		return CategoryStreetSmart
	default:
		return CategoryLocalIntel
	}
}

// SeverityFor maps a 0-100 score to a severity tier. Boundaries resolve to
// the higher tier.
func SeverityFor(score int) Severity {
	switch {
	case score >= 80:
		return SeverityCritical
	case score >= 60:
		return SeverityHigh
	case score >= 40:
		return SeverityMedium
	default:
		return SeverityLow
	}
}
