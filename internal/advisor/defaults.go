package advisor

import "github.com/kalambet/threatpulse/internal/threat"

const maxDefaults = 4

var baseline = []string{
	"Stay aware of your surroundings, especially in crowded areas",
	"Keep copies of important documents in separate locations",
	"Use reputable transportation services and verify driver details",
}

const (
	soloAdvice     = "Share your itinerary with trusted contacts"
	beginnerAdvice = "Research local customs and common scams before arriving"
)

// Defaults returns the rule-based recommendations for profile: the baseline
// followed by style and experience specific items, capped at four.
func Defaults(profile threat.TravelerProfile) []string {
	recs := make([]string, 0, len(baseline)+2)
	recs = append(recs, baseline...)

	if profile.TravelStyle == threat.StyleSolo {
		recs = append(recs, soloAdvice)
	}
	if profile.Experience == threat.ExperienceBeginner {
		recs = append(recs, beginnerAdvice)
	}

	if len(recs) > maxDefaults {
		recs = recs[:maxDefaults]
	}
	return recs
}
