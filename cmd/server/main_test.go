package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/spark-career/spark/internal/platform/config"
)

func loadConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("SPARK_AI_GROQ_API_KEY", "")
	t.Setenv("SPARK_AI_OPENAI_API_KEY", "")
	t.Setenv("SPARK_CACHE_URL", "")
	t.Setenv("SPARK_DATABASE_URL", "")
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("config.Load() error = %v", err)
	}
	return cfg
}

func TestHealthEndpoints(t *testing.T) {
	a, err := newApplication(t.Context(), loadConfig(t))
	if err != nil {
		t.Fatalf("newApplication() error = %v", err)
	}
	defer a.close()

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "healthz returns 200",
			path:       "/healthz",
			wantStatus: http.StatusOK,
			wantBody:   "{\"status\":\"ok\"}\n",
		},
		{
			name:       "readyz returns 200",
			path:       "/readyz",
			wantStatus: http.StatusOK,
			wantBody:   "{\"status\":\"ready\"}\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			rec := httptest.NewRecorder()

			a.handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if rec.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestNewApplication_BadContentPath(t *testing.T) {
	cfg := loadConfig(t)
	cfg.ContentPath = t.TempDir() + "/missing"
	if _, err := newApplication(t.Context(), cfg); err == nil {
		t.Fatal("newApplication() should fail for a missing content path")
	}
}

func TestNewRouter(t *testing.T) {
	tests := []struct {
		name   string
		groq   string
		openai string
		want   []string
	}{
		{"none", "", "", []string{}},
		{"groq only", "gsk", "", []string{"groq"}},
		{"openai only", "", "sk", []string{"openai"}},
		{"groq before openai", "gsk", "sk", []string{"groq", "openai"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := loadConfig(t)
			cfg.AI.Groq.APIKey = tt.groq
			cfg.AI.OpenAI.APIKey = tt.openai

			got := newRouter(cfg).Providers()
			if got == nil {
				got = []string{}
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Providers() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
