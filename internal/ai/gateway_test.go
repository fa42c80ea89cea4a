package ai_test

import (
	"context"
	"errors"
	"testing"

	"github.com/spark-career/spark/internal/ai"
)

func TestMockProvider_Complete(t *testing.T) {
	mock := ai.NewMockProvider("test response")

	resp, err := mock.Complete(context.Background(), ai.CompletionRequest{
		Messages: []ai.Message{
			{Role: ai.RoleUser, Content: "Hello"},
		},
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if resp.Content != "test response" {
		t.Errorf("Content = %q, want %q", resp.Content, "test response")
	}
	if resp.Model != "mock" {
		t.Errorf("Model = %q, want %q", resp.Model, "mock")
	}
	if mock.Calls() != 1 || mock.LastRequest().Messages[0].Content != "Hello" {
		t.Errorf("Calls() = %d, LastRequest() = %+v", mock.Calls(), mock.LastRequest())
	}
}

func TestMockProvider_CanceledContext(t *testing.T) {
	mock := ai.NewMockProvider("unused")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := mock.Complete(ctx, ai.CompletionRequest{}); !errors.Is(err, context.Canceled) {
		t.Errorf("Complete() error = %v, want context.Canceled", err)
	}
}

func TestMockProvider_HealthCheck(t *testing.T) {
	mock := ai.NewMockProvider("response")
	if err := mock.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
	if len(mock.Models()) == 0 {
		t.Error("Models() returned empty")
	}
}

func TestCompletionResponse_TotalTokens(t *testing.T) {
	resp := ai.CompletionResponse{InputTokens: 100, OutputTokens: 50}
	if got := resp.TotalTokens(); got != 150 {
		t.Errorf("TotalTokens() = %d, want 150", got)
	}
}
