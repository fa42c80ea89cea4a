package quiz

import "fmt"

// Direction moves the question cursor.
type Direction int

const (
	Previous Direction = -1
	Next     Direction = 1
)

// Status is the lifecycle state of a quiz session.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusSubmitted  Status = "submitted"
)

const breakdownSize = 3

// State is the serialisable answer state of one quiz attempt.
type State struct {
	Current int    `json:"current"`
	Answers []*int `json:"answers"`
	Status  Status `json:"status"`
}

// Session binds a State to the test it belongs to. Methods mutate the
// bound State in place.
type Session struct {
	test  *Test
	state *State
}

// Resume attaches state to the test, normalising a zero or stale state.
func (t *Test) Resume(state *State) *Session {
	if len(state.Answers) != t.Len() {
		answers := make([]*int, t.Len())
		copy(answers, state.Answers)
		state.Answers = answers
	}
	if state.Status == "" {
		state.Status = StatusInProgress
	}
	state.Current = clamp(state.Current, 0, t.Len()-1)
	return &Session{test: t, state: state}
}

// Test returns the bank the session runs against.
func (s *Session) Test() *Test {
	return s.test
}

// Select records option as the answer to question, overwriting any
// previous answer.
func (s *Session) Select(question, option int) error {
	if question < 0 || question >= s.test.Len() {
		return fmt.Errorf("question %d: %w", question, ErrQuestionOutOfRange)
	}
	if option < 0 || option >= len(s.test.Questions[question].Options()) {
		return fmt.Errorf("question %d option %d: %w", question, option, ErrOptionOutOfRange)
	}
	o := option
	s.state.Answers[question] = &o
	return nil
}

// Advance moves the cursor one step, staying inside the bank.
func (s *Session) Advance(d Direction) int {
	s.state.Current = clamp(s.state.Current+int(d), 0, s.test.Len()-1)
	return s.state.Current
}

// Answer returns the recorded answer for question.
func (s *Session) Answer(question int) (int, bool) {
	if question < 0 || question >= len(s.state.Answers) || s.state.Answers[question] == nil {
		return 0, false
	}
	return *s.state.Answers[question], true
}

// CanAdvance reports whether the current question has an answer. The UI
// uses it to gate Next and Submit.
func (s *Session) CanAdvance() bool {
	_, ok := s.Answer(s.state.Current)
	return ok
}

// Answered counts the questions with a recorded answer.
func (s *Session) Answered() int {
	n := 0
	for _, a := range s.state.Answers {
		if a != nil {
			n++
		}
	}
	return n
}

// Submit moves the session to its terminal state and returns the result.
func (s *Session) Submit() Result {
	s.state.Status = StatusSubmitted
	return s.result()
}

// Submitted reports whether Submit has been called since the last Reset.
func (s *Session) Submitted() bool {
	return s.state.Status == StatusSubmitted
}

// Result returns the scored outcome of a submitted session.
func (s *Session) Result() (Result, error) {
	if !s.Submitted() {
		return Result{}, ErrNotSubmitted
	}
	return s.result(), nil
}

// Reset clears every answer and returns to the first question.
func (s *Session) Reset() {
	s.state.Answers = make([]*int, s.test.Len())
	s.state.Current = 0
	s.state.Status = StatusInProgress
}

// Scores computes the category tallies for the current answers.
func (s *Session) Scores() Scores {
	return ComputeScores(s.test, s.state.Answers)
}

// View describes the current question for display.
func (s *Session) View() QuestionView {
	q := s.test.Questions[s.state.Current]
	v := QuestionView{
		TestID:     s.test.ID,
		Index:      s.state.Current,
		Total:      s.test.Len(),
		Prompt:     q.Prompt(),
		Options:    q.Options(),
		CanAdvance: s.CanAdvance(),
		IsLast:     s.state.Current == s.test.Len()-1,
		Status:     s.state.Status,
	}
	if a, ok := s.Answer(s.state.Current); ok {
		v.Selected = &a
	}
	return v
}

func (s *Session) result() Result {
	scores := s.Scores()
	ranked := Rank(scores, s.test.Categories)
	top := ranked[0].Category

	r := Result{
		TestID:         s.test.ID,
		Variant:        s.test.Variant.String(),
		Questions:      s.test.Len(),
		Answered:       s.Answered(),
		Scores:         ranked,
		Top:            top,
		Recommendation: s.test.Recommend(top),
	}
	if s.test.Variant == VariantGraded {
		r.TotalCorrect = scores.Total()
	}
	for _, cs := range ranked[:min(breakdownSize, len(ranked))] {
		r.Breakdown = append(r.Breakdown, BreakdownRow{
			CategoryScore: cs,
			Percent:       Percent(cs.Score, s.test.Len()),
		})
	}
	return r
}

// QuestionView is the presentation of the current question.
type QuestionView struct {
	TestID     string   `json:"test_id"`
	Index      int      `json:"index"`
	Total      int      `json:"total"`
	Prompt     string   `json:"prompt"`
	Options    []string `json:"options"`
	Selected   *int     `json:"selected,omitempty"`
	CanAdvance bool     `json:"can_advance"`
	IsLast     bool     `json:"is_last"`
	Status     Status   `json:"status"`
}

// Result is the scored outcome of a quiz attempt.
type Result struct {
	TestID         string          `json:"test_id"`
	Variant        string          `json:"variant"`
	Questions      int             `json:"questions"`
	Answered       int             `json:"answered"`
	TotalCorrect   int             `json:"total_correct,omitempty"`
	Scores         []CategoryScore `json:"scores"`
	Top            Category        `json:"top"`
	Recommendation Recommendation  `json:"recommendation"`
	Breakdown      []BreakdownRow  `json:"breakdown"`
}

// BreakdownRow is a top-ranked category with its share of the questions.
type BreakdownRow struct {
	CategoryScore
	Percent int `json:"percent"`
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	return max(lo, min(v, hi))
}
