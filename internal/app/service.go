package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spark-career/spark/internal/analytics"
	"github.com/spark-career/spark/internal/assistant"
	"github.com/spark-career/spark/internal/catalog"
	"github.com/spark-career/spark/internal/profile"
	"github.com/spark-career/spark/internal/quiz"
)

// Config holds the Service's collaborators.
type Config struct {
	Store     *Store
	Catalog   *catalog.Catalog
	Quizzes   *quiz.Registry
	Assistant *assistant.Assistant
	Events    analytics.EventLogger // optional
}

// Service is the root controller: every user-visible operation loads the
// session state, applies one change and saves it.
type Service struct {
	store     *Store
	catalog   *catalog.Catalog
	quizzes   *quiz.Registry
	assistant *assistant.Assistant
	events    analytics.EventLogger
}

// NewService creates the controller.
func NewService(cfg Config) *Service {
	events := cfg.Events
	if events == nil {
		events = analytics.NopEventLogger{}
	}
	return &Service{
		store:     cfg.Store,
		catalog:   cfg.Catalog,
		quizzes:   cfg.Quizzes,
		assistant: cfg.Assistant,
		events:    events,
	}
}

// Catalog returns the static content tables.
func (s *Service) Catalog() *catalog.Catalog { return s.catalog }

// Assistant returns the chat assistant.
func (s *Service) Assistant() *assistant.Assistant { return s.assistant }

// NewSession starts a session.
func (s *Service) NewSession(ctx context.Context) (*State, error) {
	return s.store.Create(ctx)
}

// Resume returns id when it names a live session and otherwise starts a new
// one. The second result reports whether a session was created.
func (s *Service) Resume(ctx context.Context, id string) (string, bool, error) {
	if id != "" {
		_, err := s.store.Get(ctx, id)
		if err == nil {
			return id, false, nil
		}
		if !errors.Is(err, ErrSessionNotFound) {
			return "", false, err
		}
	}
	st, err := s.store.Create(ctx)
	if err != nil {
		return "", false, err
	}
	return st.ID, true, nil
}

// QuizSummary is the progress of one quiz.
type QuizSummary struct {
	Title    string      `json:"title"`
	Variant  string      `json:"variant"`
	Status   quiz.Status `json:"status"`
	Current  int         `json:"current"`
	Answered int         `json:"answered"`
	Total    int         `json:"total"`
}

// StateView is the client-facing summary of a session.
type StateView struct {
	ID          string                 `json:"id"`
	Page        Page                   `json:"page"`
	Form        profile.Form           `json:"form"`
	Quizzes     map[string]QuizSummary `json:"quizzes"`
	ChatLoading bool                   `json:"chat_loading"`
}

// View summarises the session.
func (s *Service) View(ctx context.Context, id string) (StateView, error) {
	st, err := s.store.Get(ctx, id)
	if err != nil {
		return StateView{}, err
	}
	v := StateView{
		ID:          st.ID,
		Page:        st.Page,
		Form:        st.Form,
		Quizzes:     make(map[string]QuizSummary),
		ChatLoading: s.assistant.Loading(st.ID),
	}
	for _, tid := range s.quizzes.IDs() {
		t, _ := s.quizzes.Get(tid)
		qs := st.Quiz(t)
		view := qs.View()
		v.Quizzes[tid] = QuizSummary{
			Title:    t.Title,
			Variant:  t.Variant.String(),
			Status:   view.Status,
			Current:  view.Index,
			Answered: qs.Answered(),
			Total:    t.Len(),
		}
	}
	return v, nil
}

// Navigate switches the current page.
func (s *Service) Navigate(ctx context.Context, id, page string) (Page, error) {
	p, err := ParsePage(page)
	if err != nil {
		return "", err
	}
	if _, err := s.store.Update(ctx, id, func(st *State) error {
		st.Page = p
		return nil
	}); err != nil {
		return "", err
	}
	return p, nil
}

// ChangeField updates one form input.
func (s *Service) ChangeField(ctx context.Context, id, field, value string) (profile.Form, error) {
	f, err := profile.ParseField(field)
	if err != nil {
		return profile.Form{}, err
	}
	st, err := s.store.Update(ctx, id, func(st *State) error {
		return st.Form.Change(f, value)
	})
	if err != nil {
		return profile.Form{}, err
	}
	return st.Form, nil
}

// FormResult is the outcome of submitting the intake form.
type FormResult struct {
	Form profile.Form `json:"form"`
	Page Page         `json:"page"`
}

// SubmitForm validates the form and, when complete, moves to the
// recommendations page.
func (s *Service) SubmitForm(ctx context.Context, id string) (FormResult, error) {
	st, err := s.store.Update(ctx, id, func(st *State) error {
		if st.Form.Submit() {
			st.Page = PageRecommendations
		}
		return nil
	})
	if err != nil {
		return FormResult{}, err
	}
	if st.Form.Submitted {
		analytics.Emit(s.events, analytics.TypeFormSubmitted, map[string]any{
			"class":  st.Form.Data.Class,
			"stream": st.Form.Data.Stream,
			"state":  st.Form.Data.State,
		})
	}
	return FormResult{Form: st.Form, Page: st.Page}, nil
}

// Recommendations lists the content matching the visitor's profile.
type Recommendations struct {
	Profile      profile.FormData      `json:"profile"`
	Courses      []catalog.Course      `json:"courses"`
	Colleges     []catalog.College     `json:"colleges"`
	Scholarships []catalog.Scholarship `json:"scholarships"`
	PGOptions    []catalog.PGOption    `json:"pg_options"`
	Personality  *quiz.Result          `json:"personality,omitempty"`
}

// Recommendations builds the recommendation page for the session's form.
func (s *Service) Recommendations(ctx context.Context, id string) (Recommendations, error) {
	st, err := s.store.Get(ctx, id)
	if err != nil {
		return Recommendations{}, err
	}
	r := Recommendations{
		Profile:      st.Form.Data,
		Courses:      s.catalog.Courses(st.Form.Data.Stream),
		Colleges:     s.catalog.Colleges(st.Form.Data.State),
		Scholarships: s.catalog.Scholarships(),
		PGOptions:    s.catalog.PGOptions(),
	}
	if t, ok := s.quizzes.Get(quiz.PersonalityID); ok {
		if res, err := st.Quiz(t).Result(); err == nil {
			r.Personality = &res
		}
	}
	return r, nil
}

func (s *Service) test(id string) (*quiz.Test, error) {
	t, ok := s.quizzes.Get(id)
	if !ok {
		return nil, fmt.Errorf("%q: %w", id, ErrUnknownTest)
	}
	return t, nil
}

// Question returns the current question of a quiz.
func (s *Service) Question(ctx context.Context, id, testID string) (quiz.QuestionView, error) {
	t, err := s.test(testID)
	if err != nil {
		return quiz.QuestionView{}, err
	}
	st, err := s.store.Get(ctx, id)
	if err != nil {
		return quiz.QuestionView{}, err
	}
	return st.Quiz(t).View(), nil
}

// updateQuiz runs fn against the session's attempt at testID and returns
// the resulting question view.
func (s *Service) updateQuiz(ctx context.Context, id, testID string, fn func(*quiz.Session) error) (quiz.QuestionView, error) {
	t, err := s.test(testID)
	if err != nil {
		return quiz.QuestionView{}, err
	}
	var view quiz.QuestionView
	_, err = s.store.Update(ctx, id, func(st *State) error {
		qs := st.Quiz(t)
		if err := fn(qs); err != nil {
			return err
		}
		view = qs.View()
		return nil
	})
	return view, err
}

// Answer records an answer to a quiz question.
func (s *Service) Answer(ctx context.Context, id, testID string, question, option int) (quiz.QuestionView, error) {
	return s.updateQuiz(ctx, id, testID, func(qs *quiz.Session) error {
		return qs.Select(question, option)
	})
}

// Advance moves a quiz cursor.
func (s *Service) Advance(ctx context.Context, id, testID string, d quiz.Direction) (quiz.QuestionView, error) {
	return s.updateQuiz(ctx, id, testID, func(qs *quiz.Session) error {
		qs.Advance(d)
		return nil
	})
}

// ResetQuiz clears a quiz attempt.
func (s *Service) ResetQuiz(ctx context.Context, id, testID string) (quiz.QuestionView, error) {
	return s.updateQuiz(ctx, id, testID, func(qs *quiz.Session) error {
		qs.Reset()
		return nil
	})
}

// SubmitQuiz finishes a quiz attempt and returns its result.
func (s *Service) SubmitQuiz(ctx context.Context, id, testID string) (quiz.Result, error) {
	t, err := s.test(testID)
	if err != nil {
		return quiz.Result{}, err
	}
	var res quiz.Result
	if _, err := s.store.Update(ctx, id, func(st *State) error {
		res = st.Quiz(t).Submit()
		return nil
	}); err != nil {
		return quiz.Result{}, err
	}
	analytics.Emit(s.events, analytics.TypeQuizSubmitted, map[string]any{
		"test":     t.ID,
		"top":      string(res.Top),
		"answered": res.Answered,
	})
	return res, nil
}

// QuizResult returns the result of a submitted quiz.
func (s *Service) QuizResult(ctx context.Context, id, testID string) (quiz.Result, error) {
	t, err := s.test(testID)
	if err != nil {
		return quiz.Result{}, err
	}
	st, err := s.store.Get(ctx, id)
	if err != nil {
		return quiz.Result{}, err
	}
	return st.Quiz(t).Result()
}

// ChatView is the transcript with the in-flight flag.
type ChatView struct {
	Messages []assistant.Message `json:"messages"`
	Loading  bool                `json:"loading"`
}

// Chat returns the transcript messages after sequence number since.
func (s *Service) Chat(ctx context.Context, id string, since int) (ChatView, error) {
	st, err := s.store.Get(ctx, id)
	if err != nil {
		return ChatView{}, err
	}
	return ChatView{Messages: st.Chat.Since(since), Loading: s.assistant.Loading(id)}, nil
}

// ChatReply is the effect of one chat input.
type ChatReply struct {
	assistant.Outcome
	Page Page `json:"page"`
}

// SendChat passes input to the assistant under the session lock, so
// replies land in the transcript in the order the inputs arrived.
func (s *Service) SendChat(ctx context.Context, id, input string) (ChatReply, error) {
	var out assistant.Outcome
	st, err := s.store.Update(ctx, id, func(st *State) error {
		out = s.assistant.Send(ctx, st.ID, &st.Chat, input)
		if out.Destination != "" {
			st.Page = Page(out.Destination)
		}
		return nil
	})
	if err != nil {
		return ChatReply{}, err
	}

	switch {
	case out.Destination != "":
		analytics.Emit(s.events, analytics.TypeChatNavigation, map[string]any{"destination": string(out.Destination)})
	case len(out.Added) == 2:
		analytics.Emit(s.events, analytics.TypeChatCompletion, map[string]any{"error": out.Added[1].IsError})
	}
	if out.Added == nil {
		out.Added = []assistant.Message{}
	}
	return ChatReply{Outcome: out, Page: st.Page}, nil
}

// AskFAQ appends a canned question and answer to the transcript.
func (s *Service) AskFAQ(ctx context.Context, id string, index int) ([]assistant.Message, error) {
	var added []assistant.Message
	if _, err := s.store.Update(ctx, id, func(st *State) error {
		var err error
		added, err = s.assistant.Ask(&st.Chat, index)
		return err
	}); err != nil {
		return nil, err
	}
	analytics.Emit(s.events, analytics.TypeFAQAsked, map[string]any{"index": index})
	return added, nil
}

// SessionExpired releases per-session resources held outside the store.
func (s *Service) SessionExpired(id string) {
	s.assistant.Forget(id)
	slog.Debug("session expired", "session_id", id)
}
