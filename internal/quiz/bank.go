package quiz

import (
	"fmt"
	"sort"
)

// Built-in test IDs.
const (
	PersonalityID = "personality"
	AptitudeID    = "aptitude"
)

// Registry holds the named tests served to students.
type Registry struct {
	tests map[string]*Test
}

// NewRegistry validates and registers tests.
func NewRegistry(tests ...*Test) (*Registry, error) {
	r := &Registry{tests: make(map[string]*Test, len(tests))}
	for _, t := range tests {
		if err := t.Validate(); err != nil {
			return nil, err
		}
		if _, dup := r.tests[t.ID]; dup {
			return nil, fmt.Errorf("duplicate test id %q", t.ID)
		}
		r.tests[t.ID] = t
	}
	return r, nil
}

// DefaultRegistry returns the registry with the built-in tests.
func DefaultRegistry() (*Registry, error) {
	return NewRegistry(Personality(), Aptitude())
}

// Get returns a test by ID.
func (r *Registry) Get(id string) (*Test, bool) {
	t, ok := r.tests[id]
	return t, ok
}

// IDs returns the registered test IDs in sorted order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.tests))
	for id := range r.tests {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

const (
	Analytical    Category = "analytical"
	Social        Category = "social"
	Creative      Category = "creative"
	Research      Category = "research"
	Leadership    Category = "leadership"
	Communication Category = "communication"
	Practical     Category = "practical"
	Visual        Category = "visual"
	Organized     Category = "organized"

	Logical   Category = "logical"
	Numerical Category = "numerical"
	Verbal    Category = "verbal"
)

// Personality is the self-report strengths questionnaire.
func Personality() *Test {
	return &Test{
		ID:      PersonalityID,
		Title:   "Discover Your Strengths",
		Variant: VariantSelfReport,
		Categories: []Category{
			Analytical, Social, Creative, Research, Leadership,
			Communication, Practical, Visual, Organized,
		},
		Questions: []Question{
			SelfReportQuestion{
				Text: "You prefer to solve problems by:",
				Choices: []string{
					"Using logical analysis and step-by-step reasoning",
					"Discussing with others and brainstorming",
					"Experimenting and trying different approaches",
					"Researching and gathering information first",
				},
				Categories: []Category{Analytical, Social, Practical, Research},
			},
			SelfReportQuestion{
				Text: "In group projects, you usually:",
				Choices: []string{
					"Take the leadership role and organize tasks",
					"Focus on creative ideas and innovation",
					"Handle data analysis and technical details",
					"Ensure everyone communicates effectively",
				},
				Categories: []Category{Leadership, Creative, Analytical, Communication},
			},
			SelfReportQuestion{
				Text: "You feel most energized when:",
				Choices: []string{
					"Working with numbers and data",
					"Helping people solve their problems",
					"Creating something new or artistic",
					"Learning about how things work",
				},
				Categories: []Category{Analytical, Social, Creative, Research},
			},
			SelfReportQuestion{
				Text: "Your ideal work environment would be:",
				Choices: []string{
					"A structured office with clear procedures",
					"A collaborative space with team interaction",
					"A flexible environment allowing creativity",
					"A quiet space for focused thinking",
				},
				Categories: []Category{Organized, Social, Creative, Analytical},
			},
			SelfReportQuestion{
				Text: "When learning something new, you prefer:",
				Choices: []string{
					"Hands-on practice and real examples",
					"Visual diagrams and infographics",
					"Reading detailed explanations",
					"Group discussions and explanations",
				},
				Categories: []Category{Practical, Visual, Research, Social},
			},
			SelfReportQuestion{
				Text: "You're most proud of achievements that involve:",
				Choices: []string{
					"Solving complex technical problems",
					"Making a positive impact on others",
					"Creating something beautiful or innovative",
					"Organizing successful events or projects",
				},
				Categories: []Category{Analytical, Social, Creative, Leadership},
			},
		},
		// visual and organized have no record of their own and use the fallback.
		Recommendations: map[Category]Recommendation{
			Analytical: {
				Strength:    "Analytical Thinking",
				Streams:     []string{"Computer Science", "Engineering", "Mathematics", "Data Science"},
				Description: "You excel at logical reasoning and problem-solving through systematic analysis.",
			},
			Social: {
				Strength:    "Social & Communication Skills",
				Streams:     []string{"Psychology", "Social Work", "Commerce", "Management"},
				Description: "You have strong interpersonal skills and enjoy helping others.",
			},
			Creative: {
				Strength:    "Creative & Innovative Thinking",
				Streams:     []string{"Design", "Arts", "Media", "Architecture"},
				Description: "You have a natural ability to think outside the box and create unique solutions.",
			},
			Research: {
				Strength:    "Research & Investigation",
				Streams:     []string{"Sciences", "Research", "Medicine", "Academia"},
				Description: "You enjoy discovering new information and understanding complex topics deeply.",
			},
			Leadership: {
				Strength:    "Leadership & Organization",
				Streams:     []string{"Management", "Business", "Public Administration", "Entrepreneurship"},
				Description: "You have natural leadership qualities and can organize teams effectively.",
			},
			Communication: {
				Strength:    "Communication & Language",
				Streams:     []string{"Journalism", "Literature", "Public Relations", "Teaching"},
				Description: "You excel at expressing ideas clearly and connecting with diverse audiences.",
			},
			Practical: {
				Strength:    "Practical Problem-Solving",
				Streams:     []string{"Engineering", "Medicine", "Technical Trades", "Applied Sciences"},
				Description: "You prefer hands-on approaches and real-world applications.",
			},
		},
		Fallback: Analytical,
	}
}

// Aptitude is the graded reasoning test.
func Aptitude() *Test {
	return &Test{
		ID:         AptitudeID,
		Title:      "Aptitude Test",
		Variant:    VariantGraded,
		Categories: []Category{Logical, Numerical, Verbal, Analytical},
		Questions: []Question{
			GradedQuestion{
				Text:     "If all roses are flowers and some flowers fade quickly, which statement must be true?",
				Choices:  []string{"All roses fade quickly", "Some roses are flowers", "No roses fade quickly", "All flowers are roses"},
				Correct:  1,
				Category: Logical,
			},
			GradedQuestion{
				Text:     "What comes next in the series: 2, 6, 12, 20, 30, ?",
				Choices:  []string{"40", "42", "44", "36"},
				Correct:  1,
				Category: Logical,
			},
			GradedQuestion{
				Text:     "A shirt costs ₹800 after a 20% discount. What was the original price?",
				Choices:  []string{"₹960", "₹1,000", "₹1,040", "₹900"},
				Correct:  1,
				Category: Numerical,
			},
			GradedQuestion{
				Text:     "If 5 workers finish a job in 12 days, how many days will 6 workers take?",
				Choices:  []string{"8", "9", "10", "14"},
				Correct:  2,
				Category: Numerical,
			},
			GradedQuestion{
				Text:     "Choose the word closest in meaning to \"Abundant\":",
				Choices:  []string{"Scarce", "Plentiful", "Hidden", "Rapid"},
				Correct:  1,
				Category: Verbal,
			},
			GradedQuestion{
				Text:     "Pick the correctly spelled word:",
				Choices:  []string{"Accomodate", "Acommodate", "Accommodate", "Acomodate"},
				Correct:  2,
				Category: Verbal,
			},
			GradedQuestion{
				Text:     "A is taller than B, C is shorter than B, and D is taller than A. Who is the shortest?",
				Choices:  []string{"A", "B", "C", "D"},
				Correct:  2,
				Category: Analytical,
			},
			GradedQuestion{
				Text:     "A cube painted on all faces is cut into 27 equal cubes. How many small cubes have exactly two painted faces?",
				Choices:  []string{"8", "12", "6", "1"},
				Correct:  1,
				Category: Analytical,
			},
		},
		Recommendations: map[Category]Recommendation{
			Logical: {
				Strength:    "Logical Reasoning",
				Streams:     []string{"Computer Science", "Law", "Mathematics", "Philosophy"},
				Description: "You spot patterns and draw sound conclusions from given facts.",
			},
			Numerical: {
				Strength:    "Numerical Ability",
				Streams:     []string{"Commerce", "Economics", "Engineering", "Data Science"},
				Description: "You work quickly and accurately with numbers, ratios and percentages.",
			},
			Verbal: {
				Strength:    "Verbal Ability",
				Streams:     []string{"Journalism", "Literature", "Law", "Mass Communication"},
				Description: "You have a strong command of vocabulary and written language.",
			},
			Analytical: {
				Strength:    "Analytical Thinking",
				Streams:     []string{"Engineering", "Architecture", "Research", "Management"},
				Description: "You break complex situations into parts and reason about how they fit together.",
			},
		},
		Fallback: Logical,
	}
}
