package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/spark-career/spark/internal/ai"
	"github.com/spark-career/spark/internal/analytics"
	"github.com/spark-career/spark/internal/app"
	"github.com/spark-career/spark/internal/assistant"
	"github.com/spark-career/spark/internal/catalog"
	"github.com/spark-career/spark/internal/profile"
	"github.com/spark-career/spark/internal/quiz"
)

type fixture struct {
	svc     *app.Service
	catalog *catalog.Catalog
	mock    *ai.MockProvider
	events  *analytics.MemoryEventLogger
	id      string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("catalog.Default() error = %v", err)
	}
	quizzes, err := quiz.DefaultRegistry()
	if err != nil {
		t.Fatalf("quiz.DefaultRegistry() error = %v", err)
	}
	mock := ai.NewMockProvider("Engineering is a great fit.")
	router := ai.NewRouter()
	router.Register("mock", mock)
	events := analytics.NewMemoryEventLogger()

	svc := app.NewService(app.Config{
		Store:     app.NewStore(app.NewMemoryBackend(), time.Hour),
		Catalog:   cat,
		Quizzes:   quizzes,
		Assistant: assistant.New(assistant.Config{AI: router, FAQs: cat.FAQs()}),
		Events:    events,
	})
	st, err := svc.NewSession(t.Context())
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	return &fixture{svc: svc, catalog: cat, mock: mock, events: events, id: st.ID}
}

func (f *fixture) eventTypes() []string {
	var types []string
	for _, e := range f.events.Events() {
		types = append(types, e.Type)
	}
	return types
}

func TestService_Navigate(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()

	page, err := f.svc.Navigate(ctx, f.id, "exams")
	if err != nil || page != app.PageExams {
		t.Fatalf("Navigate(exams) = %q, %v", page, err)
	}
	if _, err := f.svc.Navigate(ctx, f.id, "admin"); !errors.Is(err, app.ErrUnknownPage) {
		t.Errorf("Navigate(admin) error = %v, want ErrUnknownPage", err)
	}
	if _, err := f.svc.Navigate(ctx, "6f1c1e0a-5d8e-4b4e-9b0a-3f5f5a1c2d3e", "exams"); !errors.Is(err, app.ErrSessionNotFound) {
		t.Errorf("Navigate() on unknown session error = %v, want ErrSessionNotFound", err)
	}

	v, err := f.svc.View(ctx, f.id)
	if err != nil {
		t.Fatal(err)
	}
	if v.Page != app.PageExams {
		t.Errorf("View().Page = %q, want exams", v.Page)
	}
	if len(v.Quizzes) != 2 || v.Quizzes[quiz.AptitudeID].Total == 0 {
		t.Errorf("View().Quizzes = %+v", v.Quizzes)
	}
}

func TestService_FormFlow(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()

	res, err := f.svc.SubmitForm(ctx, f.id)
	if err != nil {
		t.Fatal(err)
	}
	if res.Form.Submitted || len(res.Form.Errors) != len(profile.Fields) || res.Page != app.PageHome {
		t.Fatalf("SubmitForm() on empty form = %+v", res)
	}

	fields := []struct{ field, value string }{
		{"name", "  Priya "},
		{"class", "12th"},
		{"stream", "Computer Science"},
		{"interests", "robots"},
		{"state", "Tamil Nadu"},
		{"district", "Chennai"},
	}
	for _, fv := range fields {
		form, err := f.svc.ChangeField(ctx, f.id, fv.field, fv.value)
		if err != nil {
			t.Fatalf("ChangeField(%s) error = %v", fv.field, err)
		}
		if _, ok := form.Errors[profile.Field(fv.field)]; ok {
			t.Errorf("error for %s not cleared", fv.field)
		}
	}
	if _, err := f.svc.ChangeField(ctx, f.id, "age", "17"); !errors.Is(err, profile.ErrUnknownField) {
		t.Errorf("ChangeField(age) error = %v, want ErrUnknownField", err)
	}

	res, err = f.svc.SubmitForm(ctx, f.id)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Form.Submitted || res.Page != app.PageRecommendations {
		t.Fatalf("SubmitForm() = %+v, want submitted on recommendations", res)
	}
	if diff := cmp.Diff([]string{analytics.TypeFormSubmitted}, f.eventTypes()); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}

	recs, err := f.svc.Recommendations(ctx, f.id)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(f.catalog.Courses("Computer Science"), recs.Courses); diff != "" {
		t.Errorf("Courses mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(f.catalog.Colleges("Tamil Nadu"), recs.Colleges); diff != "" {
		t.Errorf("Colleges mismatch (-want +got):\n%s", diff)
	}
	if len(recs.Scholarships) != 4 || len(recs.PGOptions) != 3 {
		t.Errorf("got %d scholarships and %d pg options", len(recs.Scholarships), len(recs.PGOptions))
	}
	if recs.Personality != nil {
		t.Error("Personality should be empty before the quiz is submitted")
	}
}

func TestService_QuizFlow(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()
	id := quiz.PersonalityID

	if _, err := f.svc.Question(ctx, f.id, "iq"); !errors.Is(err, app.ErrUnknownTest) {
		t.Errorf("Question(iq) error = %v, want ErrUnknownTest", err)
	}
	if _, err := f.svc.QuizResult(ctx, f.id, id); !errors.Is(err, quiz.ErrNotSubmitted) {
		t.Errorf("QuizResult() before submit error = %v, want ErrNotSubmitted", err)
	}

	view, err := f.svc.Advance(ctx, f.id, id, quiz.Previous)
	if err != nil {
		t.Fatal(err)
	}
	if view.Index != 0 || view.CanAdvance {
		t.Errorf("Advance(Previous) on the first question = %+v", view)
	}

	view, err = f.svc.Answer(ctx, f.id, id, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if view.Selected == nil || *view.Selected != 0 || !view.CanAdvance {
		t.Errorf("Answer() view = %+v", view)
	}
	if _, err := f.svc.Answer(ctx, f.id, id, 0, 99); !errors.Is(err, quiz.ErrOptionOutOfRange) {
		t.Errorf("Answer() bad option error = %v, want ErrOptionOutOfRange", err)
	}

	view, err = f.svc.Advance(ctx, f.id, id, quiz.Next)
	if err != nil || view.Index != 1 {
		t.Fatalf("Advance(Next) = %d, %v", view.Index, err)
	}

	res, err := f.svc.SubmitQuiz(ctx, f.id, id)
	if err != nil {
		t.Fatal(err)
	}
	if res.Answered != 1 {
		t.Errorf("Answered = %d, want 1", res.Answered)
	}
	got, err := f.svc.QuizResult(ctx, f.id, id)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(res, got); diff != "" {
		t.Errorf("QuizResult() mismatch (-want +got):\n%s", diff)
	}

	recs, _ := f.svc.Recommendations(ctx, f.id)
	if recs.Personality == nil || recs.Personality.Top != res.Top {
		t.Errorf("Recommendations().Personality = %+v", recs.Personality)
	}

	view, err = f.svc.ResetQuiz(ctx, f.id, id)
	if err != nil {
		t.Fatal(err)
	}
	if view.Index != 0 || view.Selected != nil || view.Status != quiz.StatusInProgress {
		t.Errorf("ResetQuiz() view = %+v", view)
	}
	if diff := cmp.Diff([]string{analytics.TypeQuizSubmitted}, f.eventTypes()); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestService_SendChat(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()

	reply, err := f.svc.SendChat(ctx, f.id, "please take me to exams")
	if err != nil {
		t.Fatal(err)
	}
	if reply.Destination != assistant.DestExams || reply.Page != app.PageExams || len(reply.Added) != 2 {
		t.Errorf("SendChat(navigation) = %+v", reply)
	}
	if f.mock.Calls() != 0 {
		t.Error("navigation should not reach the provider")
	}

	reply, err = f.svc.SendChat(ctx, f.id, "Which stream suits me?")
	if err != nil {
		t.Fatal(err)
	}
	if len(reply.Added) != 2 || reply.Added[1].Text != "Engineering is a great fit." {
		t.Errorf("SendChat() added = %+v", reply.Added)
	}

	reply, err = f.svc.SendChat(ctx, f.id, "   ")
	if err != nil {
		t.Fatal(err)
	}
	if !reply.Ignored || len(reply.Added) != 0 {
		t.Errorf("SendChat(blank) = %+v", reply)
	}

	chat, err := f.svc.Chat(ctx, f.id, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(chat.Messages) != 5 || chat.Loading {
		t.Errorf("Chat() = %d messages, loading %v", len(chat.Messages), chat.Loading)
	}
	for i, m := range chat.Messages {
		if m.Seq != i+1 {
			t.Errorf("message %d has seq %d", i, m.Seq)
		}
	}
	want := []string{analytics.TypeChatNavigation, analytics.TypeChatCompletion}
	if diff := cmp.Diff(want, f.eventTypes()); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

// blockingProvider holds completions until released.
type blockingProvider struct {
	ai.MockProvider
	started chan struct{}
	release chan struct{}
}

func (b *blockingProvider) Complete(ctx context.Context, req ai.CompletionRequest) (ai.CompletionResponse, error) {
	b.started <- struct{}{}
	<-b.release
	return ai.CompletionResponse{Content: req.Messages[len(req.Messages)-1].Content + "!"}, nil
}

func TestService_SendChat_RepliesInInputOrder(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()

	p := &blockingProvider{started: make(chan struct{}), release: make(chan struct{})}
	router := ai.NewRouter()
	router.Register("blocking", p)
	cat := f.catalog
	quizzes, _ := quiz.DefaultRegistry()
	svc := app.NewService(app.Config{
		Store:     app.NewStore(app.NewMemoryBackend(), time.Hour),
		Catalog:   cat,
		Quizzes:   quizzes,
		Assistant: assistant.New(assistant.Config{AI: router}),
	})
	st, _ := svc.NewSession(ctx)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := svc.SendChat(ctx, st.ID, "first"); err != nil {
			t.Errorf("SendChat(first) error = %v", err)
		}
	}()
	<-p.started

	chat, _ := svc.Chat(ctx, st.ID, 0)
	if !chat.Loading {
		t.Error("Chat().Loading = false while a completion is in flight")
	}

	second := make(chan struct{})
	go func() {
		defer close(second)
		if _, err := svc.SendChat(ctx, st.ID, "second"); err != nil {
			t.Errorf("SendChat(second) error = %v", err)
		}
	}()
	p.release <- struct{}{}
	<-done
	<-p.started
	p.release <- struct{}{}
	<-second

	chat, _ = svc.Chat(ctx, st.ID, 0)
	var texts []string
	for _, m := range chat.Messages[1:] {
		texts = append(texts, m.Text)
	}
	want := []string{"first", "first!", "second", "second!"}
	if diff := cmp.Diff(want, texts); diff != "" {
		t.Errorf("transcript mismatch (-want +got):\n%s", diff)
	}
}

func TestService_AskFAQ(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()

	added, err := f.svc.AskFAQ(ctx, f.id, 3)
	if err != nil {
		t.Fatal(err)
	}
	faq := f.catalog.FAQs()[3]
	if len(added) != 2 || added[0].Text != faq.Question || added[1].Text != faq.Answer {
		t.Errorf("AskFAQ(3) = %+v", added)
	}
	if _, err := f.svc.AskFAQ(ctx, f.id, 4); !errors.Is(err, assistant.ErrUnknownFAQ) {
		t.Errorf("AskFAQ(4) error = %v, want ErrUnknownFAQ", err)
	}

	chat, _ := f.svc.Chat(ctx, f.id, 0)
	if len(chat.Messages) != 3 {
		t.Errorf("len(Messages) = %d, want 3 (failed ask must not append)", len(chat.Messages))
	}
}
