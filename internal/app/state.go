// Package app owns the per-session application state and the operations the
// HTTP layer exposes on it.
package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/spark-career/spark/internal/assistant"
	"github.com/spark-career/spark/internal/profile"
	"github.com/spark-career/spark/internal/quiz"
)

// Page is a top-level view of the site.
type Page string

const (
	PageHome            Page = "home"
	PageCareerForm      Page = "career-form"
	PageRecommendations Page = "recommendations"
	PageAptitudeTest    Page = "aptitude-test"
	PageExams           Page = "exams"
	PageContact         Page = "contact"
)

var pages = []Page{PageHome, PageCareerForm, PageRecommendations, PageAptitudeTest, PageExams, PageContact}

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrUnknownPage     = errors.New("unknown page")
	ErrUnknownTest     = errors.New("unknown test")
)

// ParsePage validates a page name.
func ParsePage(s string) (Page, error) {
	for _, p := range pages {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("%q: %w", s, ErrUnknownPage)
}

// State is everything the site remembers about one visitor. It lives only
// as long as the session.
type State struct {
	ID        string                 `json:"id"`
	Page      Page                   `json:"page"`
	Form      profile.Form           `json:"form"`
	Quizzes   map[string]*quiz.State `json:"quizzes"`
	Chat      assistant.Transcript   `json:"chat"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// NewState returns the state of a fresh session.
func NewState(id string, now time.Time) *State {
	return &State{
		ID:        id,
		Page:      PageHome,
		Quizzes:   make(map[string]*quiz.State),
		Chat:      assistant.NewTranscript(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Quiz returns the answer state for test, creating it on first use.
func (s *State) Quiz(t *quiz.Test) *quiz.Session {
	if s.Quizzes == nil {
		s.Quizzes = make(map[string]*quiz.State)
	}
	qs, ok := s.Quizzes[t.ID]
	if !ok {
		qs = &quiz.State{}
		s.Quizzes[t.ID] = qs
	}
	return t.Resume(qs)
}
