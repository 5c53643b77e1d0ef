package threat

// Category is the coarse bucket a threat belongs to.
type Category string

const (
	CategoryStreetSmart  Category = "street-smart"
	CategoryDigitalRisks Category = "digital-risks"
	CategoryLocalIntel   Category = "local-intel"
)

// Severity is the tier derived from a numeric risk value.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Travel styles and experience levels understood by the recommendation rules.
// Both fields of TravelerProfile are open strings; these are the known values.
const (
	StyleSolo   = "solo"
	StyleGroup  = "group"
	StyleFamily = "family"

	ExperienceBeginner     = "beginner"
	ExperienceIntermediate = "intermediate"
	ExperienceExpert       = "expert"
)

// TravelerProfile describes who a threat or recommendation is relevant for.
type TravelerProfile struct {
	TravelStyle string `json:"travelStyle"`
	Experience  string `json:"experience"`
}

// ReportSummary is the projection of a prior report used as prompt context.
type ReportSummary struct {
	ThreatType string `json:"threatType"`
	Title      string `json:"title"`
}

// Analysis is the canonical threat assessment for a single report. Every
// field is always populated; slices are empty rather than nil.
type Analysis struct {
	Category           Category          `json:"category"`
	RiskScore          int               `json:"riskScore"`
	Confidence         int               `json:"confidence"`
	Summary            string            `json:"summary"`
	ThreatType         string            `json:"threatType"`
	Severity           Severity          `json:"severity"`
	RelevantFor        []TravelerProfile `json:"relevantFor"`
	ActionableInsights []string          `json:"actionableInsights"`
}

// Clamp returns a copy of a with RiskScore and Confidence bounded to [0,100]
// and nil slices replaced by empty ones.
func Clamp(a Analysis) Analysis {
	a.RiskScore = clampScore(a.RiskScore)
	a.Confidence = clampScore(a.Confidence)
	if a.RelevantFor == nil {
		a.RelevantFor = []TravelerProfile{}
	}
	if a.ActionableInsights == nil {
		a.ActionableInsights = []string{}
	}
	return a
}

func clampScore(v int) int {
	return min(100, max(0, v))
}
