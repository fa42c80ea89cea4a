package catalog

import (
	"fmt"
	"time"
)

// Class is a selectable school class.
type Class struct {
	Value string `yaml:"value" json:"value"`
	Label string `yaml:"label" json:"label"`
}

// Course is an undergraduate course suggested for a stream.
type Course struct {
	Name        string `yaml:"name" json:"name"`
	Duration    string `yaml:"duration" json:"duration"`
	Eligibility string `yaml:"eligibility" json:"eligibility"`
	CareerPath  string `yaml:"career_path" json:"career_path"`
}

// Stream is a subject stream with its suggested courses.
type Stream struct {
	Name    string   `yaml:"name" json:"name"`
	Courses []Course `yaml:"courses" json:"courses"`
}

// College is a ranked institution in a state.
type College struct {
	Name     string `yaml:"name" json:"name"`
	Location string `yaml:"location" json:"location"`
	NIRFRank int    `yaml:"nirf_rank" json:"nirf_rank"`
}

// State is a selectable state with its districts and colleges.
type State struct {
	Name      string    `yaml:"name" json:"name"`
	Districts []string  `yaml:"districts" json:"districts"`
	Colleges  []College `yaml:"colleges" json:"colleges,omitempty"`
}

// Scholarship is a financial aid option.
type Scholarship struct {
	Name        string `yaml:"name" json:"name"`
	Amount      string `yaml:"amount" json:"amount"`
	Eligibility string `yaml:"eligibility" json:"eligibility"`
}

// PGOption is a postgraduate pathway.
type PGOption struct {
	Course       string `yaml:"course" json:"course"`
	Requirements string `yaml:"requirements" json:"requirements"`
	Scholarships string `yaml:"scholarships" json:"scholarships"`
}

// Exam is an entrance exam listing.
type Exam struct {
	Name                 string `yaml:"name" json:"name"`
	Date                 string `yaml:"date" json:"date"`
	Type                 string `yaml:"type" json:"type"`
	Description          string `yaml:"description" json:"description"`
	RegistrationDeadline string `yaml:"registration_deadline" json:"registration_deadline"`
	Eligibility          string `yaml:"eligibility" json:"eligibility"`
	Website              string `yaml:"website" json:"website,omitempty"`
}

// Month parses the month of the exam date ("May 2025").
func (e Exam) Month() (time.Month, error) {
	t, err := time.Parse("January 2006", e.Date)
	if err != nil {
		return 0, fmt.Errorf("exam %s: parse date %q: %w", e.Name, e.Date, err)
	}
	return t.Month(), nil
}

// ExamCategory is a summary tile on the exam page.
type ExamCategory struct {
	Name  string `yaml:"name" json:"name"`
	Count int    `yaml:"count" json:"count"`
}

// FAQ is a canned assistant question and answer.
type FAQ struct {
	Question string `yaml:"question" json:"question"`
	Answer   string `yaml:"answer" json:"answer"`
}

// Contact holds the site's contact details.
type Contact struct {
	Email string `yaml:"email" json:"email"`
	Phone string `yaml:"phone" json:"phone"`
}

// document is the shape of one content file. Every section is optional;
// a catalog is the merge of all documents.
type document struct {
	Classes              []Class        `yaml:"classes"`
	FallbackStream       string         `yaml:"fallback_stream"`
	Streams              []Stream       `yaml:"streams"`
	FallbackCollegeState string         `yaml:"fallback_college_state"`
	States               []State        `yaml:"states"`
	Scholarships         []Scholarship  `yaml:"scholarships"`
	PGOptions            []PGOption     `yaml:"pg_options"`
	Exams                []Exam         `yaml:"exams"`
	ExamCategories       []ExamCategory `yaml:"exam_categories"`
	FAQs                 []FAQ          `yaml:"faqs"`
	Contact              *Contact       `yaml:"contact"`
}
