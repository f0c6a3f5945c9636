package domain

import "time"

// Rating values accepted in feedback events.
const (
	RatingDislike = -1
	RatingNeutral = 0
	RatingLike    = 1
)

// FeedbackEvent is one explicit user reaction to a bundled article.
// Events are append-only; they drive both the preference learner and the
// adaptive weight store.
type FeedbackEvent struct {
	UserID      string
	ArticleID   int64
	Category    string
	Subcategory string
	Rating      int
	// Predicted is the relevance the scorer assigned when the article was
	// bundled, on the 0-100 scale used by the adaptation accuracy buckets.
	Predicted float64
	Comment   string
	CreatedAt time.Time
}

// ValidRating reports whether r is one of the three accepted values.
func ValidRating(r int) bool {
	return r == RatingDislike || r == RatingNeutral || r == RatingLike
}
