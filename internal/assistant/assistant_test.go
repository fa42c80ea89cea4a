package assistant_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/spark-career/spark/internal/ai"
	"github.com/spark-career/spark/internal/assistant"
	"github.com/spark-career/spark/internal/catalog"
)

func newAssistant(p ai.Provider) *assistant.Assistant {
	router := ai.NewRouter()
	if p != nil {
		router.Register("mock", p)
	}
	return assistant.New(assistant.Config{
		AI: router,
		FAQs: []catalog.FAQ{
			{Question: "What course should I choose for AI?", Answer: "B.Tech Computer Science."},
			{Question: "How to prepare for entrance exams?", Answer: "Start early."},
		},
	})
}

func TestNewTranscript(t *testing.T) {
	tr := assistant.NewTranscript()
	want := []assistant.Message{{Seq: 1, Sender: assistant.SenderBot, Text: assistant.Greeting}}
	if diff := cmp.Diff(want, tr.Messages); diff != "" {
		t.Errorf("NewTranscript() mismatch (-want +got):\n%s", diff)
	}
}

func TestNavigate(t *testing.T) {
	tests := []struct {
		input     string
		wantDest  assistant.Destination
		wantReply string
		wantOK    bool
	}{
		{"take me to exams", assistant.DestExams, "Navigated to Exam Updates.", true},
		{"Go To the EXAM page", assistant.DestExams, "Navigated to Exam Updates.", true},
		{"navigate to aptitude", assistant.DestAptitudeTest, "Navigated to Aptitude Test.", true},
		{"go to the test", assistant.DestAptitudeTest, "Navigated to Aptitude Test.", true},
		{"take me to career guidance", assistant.DestCareerForm, "Navigated to Career Form.", true},
		{"navigate to the form", assistant.DestCareerForm, "Navigated to Career Form.", true},
		// "exam" is checked before "test".
		{"go to the exam test", assistant.DestExams, "Navigated to Exam Updates.", true},
		{"go to the moon", "", "", false},
		{"what exams are there?", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			dest, reply, ok := assistant.Navigate(tt.input)
			if dest != tt.wantDest || reply != tt.wantReply || ok != tt.wantOK {
				t.Errorf("Navigate(%q) = %q, %q, %v", tt.input, dest, reply, ok)
			}
		})
	}
}

func TestSend_EmptyInputIgnored(t *testing.T) {
	mock := ai.NewMockProvider("unused")
	a := newAssistant(mock)
	tr := assistant.NewTranscript()

	out := a.Send(context.Background(), "s1", &tr, "   ")
	if !out.Ignored || len(tr.Messages) != 1 || mock.Calls() != 0 {
		t.Errorf("Send(blank) = %+v, transcript %d, calls %d", out, len(tr.Messages), mock.Calls())
	}
}

func TestSend_Navigation(t *testing.T) {
	mock := ai.NewMockProvider("unused")
	a := newAssistant(mock)
	tr := assistant.NewTranscript()

	out := a.Send(context.Background(), "s1", &tr, "  take me to exams ")
	if out.Destination != assistant.DestExams {
		t.Errorf("Destination = %q, want exams", out.Destination)
	}
	want := []assistant.Message{
		{Seq: 2, Sender: assistant.SenderUser, Text: "take me to exams"},
		{Seq: 3, Sender: assistant.SenderBot, Text: "Navigated to Exam Updates."},
	}
	if diff := cmp.Diff(want, out.Added); diff != "" {
		t.Errorf("Added mismatch (-want +got):\n%s", diff)
	}
	if mock.Calls() != 0 {
		t.Errorf("provider called %d times for navigation", mock.Calls())
	}
}

func TestSend_NavigationWithoutProvider(t *testing.T) {
	a := newAssistant(nil)
	tr := assistant.NewTranscript()

	out := a.Send(context.Background(), "s1", &tr, "go to aptitude test")
	if out.Destination != assistant.DestAptitudeTest {
		t.Errorf("Destination = %q, want aptitude-test", out.Destination)
	}
}

func TestSend_MissingCredential(t *testing.T) {
	a := newAssistant(nil)
	tr := assistant.NewTranscript()

	out := a.Send(context.Background(), "s1", &tr, "hello")
	want := []assistant.Message{
		{Seq: 2, Sender: assistant.SenderBot, Text: assistant.MissingKeyMessage, IsError: true},
	}
	if diff := cmp.Diff(want, out.Added); diff != "" {
		t.Errorf("Added mismatch (-want +got):\n%s", diff)
	}
	if len(tr.Messages) != 2 {
		t.Errorf("user message should not be recorded, transcript = %+v", tr.Messages)
	}
}

func TestSend_Completion(t *testing.T) {
	mock := ai.NewMockProvider("Try B.Tech.")
	a := newAssistant(mock)
	tr := assistant.NewTranscript()

	out := a.Send(context.Background(), "s1", &tr, "what should I study?")
	want := []assistant.Message{
		{Seq: 2, Sender: assistant.SenderUser, Text: "what should I study?"},
		{Seq: 3, Sender: assistant.SenderBot, Text: "Try B.Tech."},
	}
	if diff := cmp.Diff(want, out.Added); diff != "" {
		t.Errorf("Added mismatch (-want +got):\n%s", diff)
	}

	req := mock.LastRequest()
	wantMsgs := []ai.Message{
		{Role: ai.RoleSystem, Content: assistant.SystemPrompt},
		{Role: ai.RoleUser, Content: "what should I study?"},
	}
	if diff := cmp.Diff(wantMsgs, req.Messages); diff != "" {
		t.Errorf("request messages mismatch (-want +got):\n%s", diff)
	}
}

func TestSend_EmptyCompletion(t *testing.T) {
	a := newAssistant(ai.NewMockProvider(""))
	tr := assistant.NewTranscript()

	out := a.Send(context.Background(), "s1", &tr, "hi")
	if got := out.Added[1]; got.Text != assistant.NoResponse || got.IsError {
		t.Errorf("bot message = %+v, want %q", got, assistant.NoResponse)
	}
}

func TestSend_CompletionError(t *testing.T) {
	a := newAssistant(&ai.MockProvider{Err: errors.New("rate limit exceeded")})
	tr := assistant.NewTranscript()

	out := a.Send(context.Background(), "s1", &tr, "hi")
	if len(out.Added) != 2 {
		t.Fatalf("Added = %+v", out.Added)
	}
	if got := out.Added[1]; got.Text != "⚠️ Error: rate limit exceeded" || !got.IsError {
		t.Errorf("bot message = %+v", got)
	}
	if a.Loading("s1") {
		t.Error("loading flag should be cleared after failure")
	}
}

func TestSend_Budget(t *testing.T) {
	mock := ai.NewMockProvider("ok")
	router := ai.NewRouter()
	router.Register("mock", mock)
	a := assistant.New(assistant.Config{AI: router, Budget: ai.NewInMemoryBudget(5)})
	tr := assistant.NewTranscript()

	a.Send(context.Background(), "s1", &tr, "first")
	out := a.Send(context.Background(), "s1", &tr, "second")
	if got := out.Added[1].Text; got != assistant.BudgetMessage {
		t.Errorf("bot message = %q, want budget message", got)
	}
	if mock.Calls() != 1 {
		t.Errorf("provider calls = %d, want 1", mock.Calls())
	}

	other := assistant.NewTranscript()
	if out := a.Send(context.Background(), "s2", &other, "hi"); out.Added[1].Text != "ok" {
		t.Errorf("other session should have its own budget, got %q", out.Added[1].Text)
	}
}

type blockingCompleter struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingCompleter) HasProvider() bool { return true }

func (b *blockingCompleter) Complete(ctx context.Context, _ ai.CompletionRequest) (ai.CompletionResponse, error) {
	close(b.started)
	select {
	case <-b.release:
		return ai.CompletionResponse{Content: "done"}, nil
	case <-ctx.Done():
		return ai.CompletionResponse{}, ctx.Err()
	}
}

func TestSend_LoadingFlag(t *testing.T) {
	bc := &blockingCompleter{started: make(chan struct{}), release: make(chan struct{})}
	a := assistant.New(assistant.Config{AI: bc})
	tr := assistant.NewTranscript()

	done := make(chan assistant.Outcome)
	go func() { done <- a.Send(context.Background(), "s1", &tr, "hi") }()

	<-bc.started
	if !a.Loading("s1") {
		t.Error("Loading() = false during completion")
	}
	if a.Loading("s2") {
		t.Error("Loading() leaked to another session")
	}
	close(bc.release)

	out := <-done
	if out.Added[1].Text != "done" {
		t.Errorf("reply = %q", out.Added[1].Text)
	}
	if a.Loading("s1") {
		t.Error("Loading() = true after completion")
	}
}

func TestAsk(t *testing.T) {
	a := newAssistant(nil)
	tr := assistant.NewTranscript()

	msgs, err := a.Ask(&tr, 1)
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	want := []assistant.Message{
		{Seq: 2, Sender: assistant.SenderUser, Text: "How to prepare for entrance exams?"},
		{Seq: 3, Sender: assistant.SenderBot, Text: "Start early."},
	}
	if diff := cmp.Diff(want, msgs); diff != "" {
		t.Errorf("Ask() mismatch (-want +got):\n%s", diff)
	}

	for _, i := range []int{-1, 2} {
		if _, err := a.Ask(&tr, i); !errors.Is(err, assistant.ErrUnknownFAQ) {
			t.Errorf("Ask(%d) error = %v, want ErrUnknownFAQ", i, err)
		}
	}
}

func TestTranscript_Since(t *testing.T) {
	a := newAssistant(nil)
	tr := assistant.NewTranscript()
	_, _ = a.Ask(&tr, 0)

	if got := tr.Since(1); len(got) != 2 || got[0].Seq != 2 {
		t.Errorf("Since(1) = %+v", got)
	}
	if got := tr.Since(3); len(got) != 0 {
		t.Errorf("Since(3) = %+v, want empty", got)
	}
}

func TestTranscript_KeepsRecentWithMonotonicSeq(t *testing.T) {
	a := newAssistant(nil)
	tr := assistant.NewTranscript()
	for range 150 {
		_, _ = a.Ask(&tr, 0)
	}
	if len(tr.Messages) != 200 {
		t.Fatalf("len(Messages) = %d, want 200", len(tr.Messages))
	}
	for i := 1; i < len(tr.Messages); i++ {
		if tr.Messages[i].Seq != tr.Messages[i-1].Seq+1 {
			t.Fatalf("seq gap at %d: %d -> %d", i, tr.Messages[i-1].Seq, tr.Messages[i].Seq)
		}
	}
	if last := tr.Messages[len(tr.Messages)-1].Seq; last != 301 {
		t.Errorf("last seq = %d, want 301", last)
	}
}
