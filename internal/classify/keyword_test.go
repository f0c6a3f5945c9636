package classify

import (
	"context"
	"testing"
)

func TestKeywordClassifierCategories(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		text string
		want string
	}{
		{
			name: "sports",
			text: "The league match ended with a late goal as the champion coach celebrated",
			want: "sports",
		},
		{
			name: "finance",
			text: "Inflation surprise forces the central bank to weigh an interest rate hike as stocks slide",
			want: "economy_finance",
		},
		{
			name: "tech",
			text: "Startup trains new ai model on custom semiconductor clusters",
			want: "technology_ai_science",
		},
		{
			name: "no signal falls back",
			text: "Local bakery celebrates anniversary with free bread",
			want: "world",
		},
	}

	c := NewKeywordClassifier()
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := c.Classify(context.Background(), tc.text, "")
			if err != nil {
				t.Fatalf("classify: %v", err)
			}
			if got.Category != tc.want {
				t.Fatalf("category = %q, want %q", got.Category, tc.want)
			}
			if got.AIClassified {
				t.Error("fallback result marked as ai-classified")
			}
		})
	}
}

func TestKeywordClassifierSubcategory(t *testing.T) {
	t.Parallel()

	c := NewKeywordClassifier()
	got, err := c.Classify(context.Background(), "Arsenal climb the premier league table after a dominant match in the season opener", "")
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if got.Category != "sports" || got.Subcategory != "football_epl" {
		t.Fatalf("got %s/%s, want sports/football_epl", got.Category, got.Subcategory)
	}
}

func TestKeywordClassifierBounds(t *testing.T) {
	t.Parallel()

	c := NewKeywordClassifier()
	texts := []string{
		"nothing relevant here at all",
		"match league tournament goal coach transfer season playoff champion stadium fixture",
		"inflation interest rate stocks earnings gdp central bank market bond currency recession ipo",
	}
	for _, text := range texts {
		got, err := c.Classify(context.Background(), text, "")
		if err != nil {
			t.Fatalf("classify: %v", err)
		}
		if got.Confidence < 0.2 || got.Confidence > 0.9 {
			t.Errorf("confidence %.2f out of [0.2, 0.9] for %q", got.Confidence, text)
		}
		if got.ImportanceScore < 10 || got.ImportanceScore > 70 {
			t.Errorf("importance %d out of [10, 70] for %q", got.ImportanceScore, text)
		}
	}
}
