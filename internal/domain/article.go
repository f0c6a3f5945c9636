package domain

import "time"

// Article is a raw item as delivered by a source, before classification.
type Article struct {
	Title       string
	Description string
	Content     string
	URL         string
	Source      string
	Language    string
	PublishedAt time.Time
}

// Text returns the material passed to classification and keyword matching.
func (a Article) Text() string {
	if a.Description == "" {
		return a.Title + "\n\n" + a.Content
	}
	return a.Title + "\n\n" + a.Description
}

// ContextualFactors are classifier-assigned context scores, each 0-100.
type ContextualFactors struct {
	TimeSensitivity        int `json:"time_sensitivity"`
	GlobalImpact           int `json:"global_impact"`
	PersonalRelevance      int `json:"personal_relevance"`
	HistoricalSignificance int `json:"historical_significance"`
	EmotionalIntensity     int `json:"emotional_intensity"`
}

// Classification is the structured result for one article, whether produced
// by the remote classifier or the keyword fallback.
type Classification struct {
	Category        string            `json:"category"`
	Subcategory     string            `json:"subcategory,omitempty"`
	Confidence      float64           `json:"confidence"`
	ImportanceScore int               `json:"importance_score"`
	Reasons         string            `json:"reasons,omitempty"`
	Contextual      ContextualFactors `json:"contextual_factors"`
	AIClassified    bool              `json:"ai_classified"`
}

// ClassifiedArticle is an article enriched with classification results and
// an advisory summary. Relevance is per-user: it stays zero in the shared
// pool and is only set on the per-user copies the scorer produces.
type ClassifiedArticle struct {
	ID             int64
	Article        Article
	Classification Classification
	Summary        string
	Relevance      float64
	FetchedAt      time.Time
}

// BundleItem is one article inside a cached per-user bundle.
type BundleItem struct {
	ID              int64   `json:"id"`
	Title           string  `json:"title"`
	URL             string  `json:"url"`
	Source          string  `json:"source"`
	Category        string  `json:"category"`
	Subcategory     string  `json:"subcategory,omitempty"`
	RelevanceScore  float64 `json:"relevance_score"`
	ImportanceScore int     `json:"importance_score"`
	Confidence      float64 `json:"confidence"`
	Summary         string  `json:"summary"`
}

// Bundle is the cached daily output for one user: up to BundleSize articles
// sorted by descending relevance, optionally with a companion script.
type Bundle struct {
	GeneratedAt time.Time    `json:"generated_at"`
	Items       []BundleItem `json:"top_7"`
	Script      string       `json:"companion_script,omitempty"`
}

// BundleSize is the maximum number of articles in a user bundle.
const BundleSize = 7
