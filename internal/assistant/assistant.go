// Package assistant implements the site chat: navigation commands, canned
// FAQ answers and forwarding of free-form questions to a completion service.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spark-career/spark/internal/ai"
	"github.com/spark-career/spark/internal/catalog"
)

const (
	SystemPrompt = "You are a helpful assistant for a student career website named S.P.A.R.K. Answer concisely."

	MissingKeyMessage = "⚠️ System Error: API Key missing. Please check your .env file."
	NoResponse        = "No response."
	BudgetMessage     = "You've reached the chat limit for this session. Please try again later."

	defaultMaxTokens = 1024
)

var ErrUnknownFAQ = errors.New("unknown faq")

// Config holds the assistant's collaborators.
type Config struct {
	AI        ai.Completer
	Budget    ai.BudgetChecker // optional
	FAQs      []catalog.FAQ
	Model     string
	MaxTokens int
}

// Assistant answers chat input for many sessions. Callers serialise calls
// for one session; different sessions may be served concurrently.
type Assistant struct {
	ai        ai.Completer
	budget    ai.BudgetChecker
	faqs      []catalog.FAQ
	model     string
	maxTokens int

	mu      sync.Mutex
	loading map[string]int
}

// New creates an assistant.
func New(cfg Config) *Assistant {
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}
	return &Assistant{
		ai:        cfg.AI,
		budget:    cfg.Budget,
		faqs:      cfg.FAQs,
		model:     cfg.Model,
		maxTokens: maxTokens,
		loading:   make(map[string]int),
	}
}

// Outcome describes the effect of one chat input.
type Outcome struct {
	// Destination is set when the input switched pages.
	Destination Destination `json:"destination,omitempty"`
	Added       []Message   `json:"added"`
	Ignored     bool        `json:"ignored,omitempty"`
}

// Send handles one line of user input and appends the resulting messages to
// tr. Completion failures become error messages in the transcript rather
// than returned errors.
func (a *Assistant) Send(ctx context.Context, sessionID string, tr *Transcript, input string) Outcome {
	text := strings.TrimSpace(input)
	if text == "" {
		return Outcome{Ignored: true}
	}

	if dest, reply, ok := Navigate(text); ok {
		slog.Info("chat navigation", "session_id", sessionID, "destination", dest)
		return Outcome{
			Destination: dest,
			Added: []Message{
				tr.append(SenderUser, text, false),
				tr.append(SenderBot, reply, false),
			},
		}
	}

	if a.ai == nil || !a.ai.HasProvider() {
		slog.Warn("chat request without configured provider", "session_id", sessionID)
		return Outcome{Added: []Message{tr.append(SenderBot, MissingKeyMessage, true)}}
	}

	added := []Message{tr.append(SenderUser, text, false)}

	if a.budget != nil {
		ok, err := a.budget.Check(sessionID)
		if err != nil {
			slog.Error("budget check failed", "session_id", sessionID, "error", err)
		} else if !ok {
			return Outcome{Added: append(added, tr.append(SenderBot, BudgetMessage, false))}
		}
	}

	reply, isError := a.complete(ctx, sessionID, text)
	return Outcome{Added: append(added, tr.append(SenderBot, reply, isError))}
}

func (a *Assistant) complete(ctx context.Context, sessionID, text string) (string, bool) {
	a.setLoading(sessionID, true)
	defer a.setLoading(sessionID, false)

	resp, err := a.ai.Complete(ctx, ai.CompletionRequest{
		Messages: []ai.Message{
			{Role: ai.RoleSystem, Content: SystemPrompt},
			{Role: ai.RoleUser, Content: text},
		},
		Model:     a.model,
		MaxTokens: a.maxTokens,
	})
	if err != nil {
		slog.Error("chat completion failed", "session_id", sessionID, "error", err)
		return "⚠️ Error: " + err.Error(), true
	}

	if a.budget != nil {
		if err := a.budget.Record(sessionID, resp.TotalTokens()); err != nil {
			slog.Warn("failed to record token usage", "session_id", sessionID, "error", err)
		}
	}

	if resp.Content == "" {
		return NoResponse, false
	}
	return resp.Content, false
}

// Loading reports whether a completion is in flight for the session.
func (a *Assistant) Loading(sessionID string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.loading[sessionID] > 0
}

func (a *Assistant) setLoading(sessionID string, on bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if on {
		a.loading[sessionID]++
		return
	}
	if a.loading[sessionID]--; a.loading[sessionID] <= 0 {
		delete(a.loading, sessionID)
	}
}

// Forget drops per-session bookkeeping such as token usage.
func (a *Assistant) Forget(sessionID string) {
	if f, ok := a.budget.(interface{ Forget(string) }); ok {
		f.Forget(sessionID)
	}
	a.mu.Lock()
	delete(a.loading, sessionID)
	a.mu.Unlock()
}

// FAQs returns the canned questions in display order.
func (a *Assistant) FAQs() []catalog.FAQ {
	return append([]catalog.FAQ(nil), a.faqs...)
}

// Ask appends the question and canned answer of FAQ index to tr.
func (a *Assistant) Ask(tr *Transcript, index int) ([]Message, error) {
	if index < 0 || index >= len(a.faqs) {
		return nil, fmt.Errorf("faq %d: %w", index, ErrUnknownFAQ)
	}
	faq := a.faqs[index]
	return []Message{
		tr.append(SenderUser, faq.Question, false),
		tr.append(SenderBot, faq.Answer, false),
	}, nil
}
