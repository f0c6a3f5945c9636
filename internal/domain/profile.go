package domain

import "strings"

// Interest is one entry in a user's ordered interest list: either a bare
// category, or a category narrowed to a set of specific subcategories.
type Interest struct {
	Category      string   `json:"category"`
	Subcategories []string `json:"subcategories,omitempty"`
}

// UserProfile is the read-only personalization input owned by the identity
// subsystem. Interests keep their original order; that order breaks ties
// when learned preferences are equal.
type UserProfile struct {
	UserID    string     `json:"user_id"`
	Locale    string     `json:"locale"`
	City      string     `json:"city,omitempty"`
	Language  string     `json:"language"`
	Premium   bool       `json:"premium"`
	Interests []Interest `json:"interests"`
}

// Categories returns the bare-category interests in profile order.
func (p UserProfile) Categories() []string {
	var cats []string
	for _, in := range p.Interests {
		if len(in.Subcategories) == 0 {
			cats = append(cats, in.Category)
		}
	}
	return cats
}

// Subcategories returns all specific subcategory interests, normalized,
// flattened in profile order.
func (p UserProfile) Subcategories() []string {
	var subs []string
	seen := map[string]struct{}{}
	for _, in := range p.Interests {
		for _, s := range in.Subcategories {
			norm := NormalizeSubcategory(s)
			if _, ok := seen[norm]; ok {
				continue
			}
			seen[norm] = struct{}{}
			subs = append(subs, norm)
		}
	}
	return subs
}

// InterestedInCategory reports whether the category appears anywhere in the
// interest list, bare or as the key of a subcategory set.
func (p UserProfile) InterestedInCategory(category string) bool {
	for _, in := range p.Interests {
		if in.Category == category {
			return true
		}
	}
	return false
}

// InterestedInSubcategory reports whether the normalized subcategory is
// listed under the matching category's subcategory set.
func (p UserProfile) InterestedInSubcategory(category, subcategory string) bool {
	norm := NormalizeSubcategory(subcategory)
	if norm == "" {
		return false
	}
	for _, in := range p.Interests {
		if in.Category != category {
			continue
		}
		for _, s := range in.Subcategories {
			if NormalizeSubcategory(s) == norm {
				return true
			}
		}
	}
	return false
}

// subcategorySynonyms maps shorthand subcategory names users type to the
// canonical names the classifier emits.
var subcategorySynonyms = map[string]string{
	"epl":            "football_epl",
	"premier_league": "football_epl",
	"bundesliga":     "football_bundesliga",
	"laliga":         "football_laliga",
	"nba":            "basketball_nba",
	"euroleague":     "basketball_euroleague",
	"nfl":            "american_football_nfl",
	"f1":             "formula1",
	"nhl":            "ice_hockey",
	"hockey":         "ice_hockey",
	"earnings":       "corporate_earnings",
	"central_bank":   "central_banks",
	"chips":          "semiconductors",
	"ai":             "ai_research",
}

// NormalizeSubcategory lowercases a subcategory name and resolves shorthand
// synonyms to the canonical classifier vocabulary.
func NormalizeSubcategory(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.ReplaceAll(key, " ", "_")
	if canonical, ok := subcategorySynonyms[key]; ok {
		return canonical
	}
	return key
}
