// Package summary renders ranked programs as a chat reply.
package summary

import (
	"fmt"
	"strings"

	"github.com/techrealm/programdex/internal/domain/search/result"
)

// NoMatches is the reply when retrieval returns nothing.
const NoMatches = "I couldn't find any programs matching your query. " +
	"Could you provide more details about what you're looking for?"

// MaxRecommendations is how many programs get a formatted block.
const MaxRecommendations = 3

const missing = "N/A"

// Compose builds the deterministic reply text for results.
func Compose(results []result.Result) string {
	if len(results) == 0 {
		return NoMatches
	}

	var b strings.Builder
	fmt.Fprintf(&b, "I found %d relevant programs for your query. ", len(results))
	b.WriteString("\n\nTop recommendations:\n")

	for i := range results {
		if i == MaxRecommendations {
			break
		}
		p := results[i].Program()
		fmt.Fprintf(&b, "\n%d. %s at %s", i+1, orNA(p.Name), orNA(p.University))
		fmt.Fprintf(&b, "\n   - Degree: %s", orNA(p.DegreeType))
		fmt.Fprintf(&b, "\n   - Duration: %s", orNA(p.Duration))
		fmt.Fprintf(&b, "\n   - Tuition: %s", orNA(p.TuitionFee))
		fmt.Fprintf(&b, "\n   - Country: %s\n", orNA(p.Country))
	}
	return b.String()
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return missing
	}
	return s
}
