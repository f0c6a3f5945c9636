package classify

import (
	"context"
	"strings"

	"dailybrief/internal/domain"
)

// categoryKeywords drives the offline fallback used when the remote
// classifier is unavailable for an article.
var categoryKeywords = map[string][]string{
	"sports": {
		"match", "league", "tournament", "goal", "coach", "transfer",
		"season", "playoff", "champion", "stadium", "fixture", "grand prix",
	},
	"economy_finance": {
		"inflation", "interest rate", "stocks", "earnings", "gdp",
		"central bank", "market", "bond", "currency", "recession", "ipo",
	},
	"technology_ai_science": {
		"artificial intelligence", "ai model", "startup", "chip",
		"semiconductor", "software", "research", "quantum", "rocket",
		"satellite", "algorithm",
	},
	"politics_geopolitics": {
		"election", "parliament", "president", "minister", "sanctions",
		"treaty", "diplomacy", "congress", "summit", "ceasefire", "coalition",
	},
	"energy_climate_environment": {
		"oil", "gas", "renewable", "solar", "wind power", "emissions",
		"climate", "drought", "wildfire", "flood", "opec",
	},
	"healthcare_pharma": {
		"vaccine", "clinical trial", "fda", "hospital", "outbreak",
		"drug", "pandemic", "treatment", "virus", "who",
	},
}

// subcategoryKeywords refines a matched category when a stronger token
// appears. Names follow the remote classifier vocabulary.
var subcategoryKeywords = map[string]map[string][]string{
	"sports": {
		"football_epl":   {"premier league", "epl", "arsenal", "liverpool", "manchester"},
		"basketball_nba": {"nba", "lakers", "celtics"},
		"formula1":       {"formula 1", "grand prix", "f1"},
		"tennis_atp":     {"atp", "wimbledon", "roland garros"},
	},
	"economy_finance": {
		"central_banks":      {"central bank", "fed", "ecb", "rate decision"},
		"corporate_earnings": {"earnings", "quarterly results"},
	},
	"technology_ai_science": {
		"ai_research":    {"artificial intelligence", "ai model", "llm"},
		"semiconductors": {"chip", "semiconductor", "foundry"},
	},
}

const fallbackCategory = "world"

// KeywordClassifier is the offline classification fallback. It satisfies the
// same port as the remote classifier and never fails.
type KeywordClassifier struct{}

// NewKeywordClassifier builds the fallback classifier.
func NewKeywordClassifier() *KeywordClassifier { return &KeywordClassifier{} }

// Classify scores keyword hits per category and derives a deliberately
// conservative confidence and importance from the hit count. Results carry
// AIClassified=false so a later run can re-classify the article properly.
func (c *KeywordClassifier) Classify(_ context.Context, text, _ string) (domain.Classification, error) {
	lower := strings.ToLower(text)

	best := fallbackCategory
	bestHits := 0
	for category, words := range categoryKeywords {
		hits := 0
		for _, w := range words {
			if strings.Contains(lower, w) {
				hits++
			}
		}
		if hits > bestHits || (hits == bestHits && hits > 0 && category < best) {
			best = category
			bestHits = hits
		}
	}

	confidence := float64(bestHits) / float64(bestHits+3)
	if confidence < 0.2 {
		confidence = 0.2
	}
	if confidence > 0.9 {
		confidence = 0.9
	}

	return domain.Classification{
		Category:        best,
		Subcategory:     matchSubcategory(best, lower),
		Confidence:      confidence,
		ImportanceScore: 10 + int(confidence*66),
		Reasons:         "keyword fallback",
		AIClassified:    false,
	}, nil
}

func matchSubcategory(category, lower string) string {
	subs, ok := subcategoryKeywords[category]
	if !ok {
		return ""
	}
	bestSub := ""
	bestHits := 0
	for sub, words := range subs {
		hits := 0
		for _, w := range words {
			if strings.Contains(lower, w) {
				hits++
			}
		}
		if hits > bestHits || (hits == bestHits && hits > 0 && sub < bestSub) {
			bestSub = sub
			bestHits = hits
		}
	}
	return bestSub
}
