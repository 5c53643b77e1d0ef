package advisor

import (
	"strings"
	"unicode"
)

const maxRecommendations = 5

// ParseRecommendations pulls bulleted or numbered lines out of free text,
// strips their markers, and keeps at most five.
func ParseRecommendations(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !isListItem(line) {
			continue
		}
		item := strings.TrimSpace(strings.TrimLeftFunc(line, isMarker))
		if item == "" {
			continue
		}
		out = append(out, item)
		if len(out) == maxRecommendations {
			break
		}
	}
	return out
}

func isListItem(line string) bool {
	r := []rune(line)[0]
	return r == '-' || r == '•' || unicode.IsDigit(r)
}

func isMarker(r rune) bool {
	switch r {
	case '-', '•', '*', '.', ')':
		return true
	}
	return unicode.IsDigit(r) || unicode.IsSpace(r)
}
