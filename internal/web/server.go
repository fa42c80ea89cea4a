// Package web exposes the application over HTTP and WebSocket.
package web

import (
	"bufio"
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/spark-career/spark/internal/analytics"
	"github.com/spark-career/spark/internal/app"
)

const readyTimeout = 2 * time.Second

// Checker is a dependency probed by /readyz.
type Checker interface {
	HealthCheck(ctx context.Context) error
}

// Options configures the HTTP layer.
type Options struct {
	// SecureCookie marks the session cookie Secure.
	SecureCookie bool
	// SessionTTL is the cookie max age. Zero leaves it a browser-session cookie.
	SessionTTL time.Duration
	Events     analytics.EventLogger
	// Checks are probed by /readyz, keyed by name.
	Checks map[string]Checker
	Now    func() time.Time
}

// Server routes HTTP requests to the application service.
type Server struct {
	svc  *app.Service
	opts Options
}

// New creates the HTTP layer for svc.
func New(svc *app.Service, opts Options) *Server {
	if opts.Events == nil {
		opts.Events = analytics.NopEventLogger{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Server{svc: svc, opts: opts}
}

// Handler returns the HTTP handler with every route registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealthz)
	mux.HandleFunc("GET /readyz", s.handleReadyz)

	api := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, s.withSession(h))
	}
	api("GET /api/state", s.handleState)
	api("POST /api/navigate", s.handleNavigate)

	api("GET /api/profile/options", s.handleProfileOptions)
	api("GET /api/profile/districts", s.handleDistricts)
	api("PATCH /api/profile", s.handleProfileChange)
	api("POST /api/profile/submit", s.handleProfileSubmit)
	api("GET /api/recommendations", s.handleRecommendations)

	api("GET /api/quizzes/{test}", s.handleQuestion)
	api("POST /api/quizzes/{test}/answer", s.handleAnswer)
	api("POST /api/quizzes/{test}/next", s.handleNext)
	api("POST /api/quizzes/{test}/previous", s.handlePrevious)
	api("POST /api/quizzes/{test}/submit", s.handleQuizSubmit)
	api("POST /api/quizzes/{test}/reset", s.handleQuizReset)
	api("GET /api/quizzes/{test}/result", s.handleQuizResult)

	api("GET /api/exams", s.handleExams)
	api("GET /api/exams.xlsx", s.handleExamWorkbook)

	api("GET /api/chat", s.handleChat)
	api("POST /api/chat", s.handleChatSend)
	api("GET /api/faqs", s.handleFAQs)
	api("POST /api/faqs/{index}", s.handleFAQAsk)
	api("GET /api/contact", s.handleContact)

	api("GET /ws/chat", s.handleChatSocket)
	return logRequests(mux)
}

func handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	for name, c := range s.opts.Checks {
		if err := c.HealthCheck(ctx); err != nil {
			slog.Warn("readiness check failed", "check", name, "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unavailable",
				"error":  name + ": " + err.Error(),
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Hijack is needed by the WebSocket upgrade.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	return http.NewResponseController(r.ResponseWriter).Hijack()
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		slog.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
