package quiz

import (
	"math"
	"slices"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Scores maps each category of a test to the number of questions credited
// to it.
type Scores map[Category]int

// Total returns the sum of all category scores.
func (s Scores) Total() int {
	total := 0
	for _, n := range s {
		total += n
	}
	return total
}

// CategoryScore is one row of a ranking.
type CategoryScore struct {
	Category Category `json:"category"`
	Label    string   `json:"label"`
	Score    int      `json:"score"`
}

// ComputeScores tallies the answers against the bank. Every category of the
// test starts at zero; unanswered questions and answers that resolve to no
// category contribute nothing.
func ComputeScores(t *Test, answers []*int) Scores {
	scores := make(Scores, len(t.Categories))
	for _, c := range t.Categories {
		scores[c] = 0
	}
	for i, q := range t.Questions {
		if i >= len(answers) || answers[i] == nil {
			continue
		}
		if c, ok := q.Resolve(*answers[i]); ok {
			scores[c]++
		}
	}
	return scores
}

// Rank orders the enumeration by descending score. Equal scores keep their
// enumeration order.
func Rank(scores Scores, categories []Category) []CategoryScore {
	ranked := make([]CategoryScore, 0, len(categories))
	for _, c := range categories {
		ranked = append(ranked, CategoryScore{Category: c, Label: Label(c), Score: scores[c]})
	}
	slices.SortStableFunc(ranked, func(a, b CategoryScore) int {
		return b.Score - a.Score
	})
	return ranked
}

// Recommend returns the recommendation for category, or the test's
// fallback record when the table has no entry for it.
func (t *Test) Recommend(c Category) Recommendation {
	if r, ok := t.Recommendations[c]; ok {
		return r
	}
	return t.Recommendations[t.Fallback]
}

// Label turns a category tag into a display label.
func Label(c Category) string {
	return cases.Title(language.English).String(string(c))
}

// Percent is score as a rounded percentage of the question count.
func Percent(score, questions int) int {
	if questions == 0 {
		return 0
	}
	return int(math.Round(float64(score) / float64(questions) * 100))
}
