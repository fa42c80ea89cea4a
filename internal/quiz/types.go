// Package quiz implements the aptitude quizzes: fixed question banks,
// per-session answer state, category scoring and recommendation lookup.
package quiz

import (
	"errors"
	"fmt"
)

// Category is a label used both to group questions and as the key into a
// test's recommendation table.
type Category string

// Variant selects how an answer resolves to a category.
type Variant int

const (
	// VariantSelfReport credits the category tied to the chosen option.
	VariantSelfReport Variant = iota
	// VariantGraded credits the question's category only for a correct answer.
	VariantGraded
)

func (v Variant) String() string {
	switch v {
	case VariantSelfReport:
		return "self-report"
	case VariantGraded:
		return "graded"
	default:
		return "unknown"
	}
}

var (
	ErrQuestionOutOfRange = errors.New("question index out of range")
	ErrOptionOutOfRange   = errors.New("option index out of range")
	ErrNotSubmitted       = errors.New("test not submitted")
)

// Question is one item of a question bank.
type Question interface {
	Prompt() string
	Options() []string
	// Resolve reports the category credited when option is chosen.
	Resolve(option int) (Category, bool)
}

// SelfReportQuestion maps each option to its own category.
type SelfReportQuestion struct {
	Text       string
	Choices    []string
	Categories []Category
}

func (q SelfReportQuestion) Prompt() string    { return q.Text }
func (q SelfReportQuestion) Options() []string { return q.Choices }

func (q SelfReportQuestion) Resolve(option int) (Category, bool) {
	if option < 0 || option >= len(q.Categories) {
		return "", false
	}
	return q.Categories[option], true
}

// GradedQuestion has one correct option and a single category.
type GradedQuestion struct {
	Text     string
	Choices  []string
	Correct  int
	Category Category
}

func (q GradedQuestion) Prompt() string    { return q.Text }
func (q GradedQuestion) Options() []string { return q.Choices }

func (q GradedQuestion) Resolve(option int) (Category, bool) {
	if option != q.Correct {
		return "", false
	}
	return q.Category, true
}

// Recommendation is the static career suggestion for a top category.
type Recommendation struct {
	Strength    string   `json:"strength"`
	Streams     []string `json:"streams"`
	Description string   `json:"description"`
}

// Test is an immutable question bank with its category enumeration and
// recommendation table.
type Test struct {
	ID              string
	Title           string
	Variant         Variant
	Questions       []Question
	Categories      []Category
	Recommendations map[Category]Recommendation
	Fallback        Category
}

// Len returns the number of questions.
func (t *Test) Len() int {
	return len(t.Questions)
}

// Validate checks the bank invariants.
func (t *Test) Validate() error {
	if len(t.Questions) == 0 {
		return fmt.Errorf("test %s: no questions", t.ID)
	}
	if len(t.Categories) == 0 {
		return fmt.Errorf("test %s: no categories", t.ID)
	}
	known := make(map[Category]bool, len(t.Categories))
	for _, c := range t.Categories {
		if known[c] {
			return fmt.Errorf("test %s: duplicate category %q", t.ID, c)
		}
		known[c] = true
	}
	if _, ok := t.Recommendations[t.Fallback]; !ok {
		return fmt.Errorf("test %s: fallback %q has no recommendation", t.ID, t.Fallback)
	}

	for i, q := range t.Questions {
		switch q := q.(type) {
		case SelfReportQuestion:
			if t.Variant != VariantSelfReport {
				return fmt.Errorf("test %s: question %d: self-report question in %s test", t.ID, i, t.Variant)
			}
			if len(q.Choices) != len(q.Categories) {
				return fmt.Errorf("test %s: question %d: %d options but %d categories", t.ID, i, len(q.Choices), len(q.Categories))
			}
			for _, c := range q.Categories {
				if !known[c] {
					return fmt.Errorf("test %s: question %d: unknown category %q", t.ID, i, c)
				}
			}
		case GradedQuestion:
			if t.Variant != VariantGraded {
				return fmt.Errorf("test %s: question %d: graded question in %s test", t.ID, i, t.Variant)
			}
			if q.Correct < 0 || q.Correct >= len(q.Choices) {
				return fmt.Errorf("test %s: question %d: correct index %d out of range", t.ID, i, q.Correct)
			}
			if !known[q.Category] {
				return fmt.Errorf("test %s: question %d: unknown category %q", t.ID, i, q.Category)
			}
		default:
			return fmt.Errorf("test %s: question %d: unsupported type %T", t.ID, i, q)
		}
	}
	return nil
}
