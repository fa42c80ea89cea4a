package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/spark-career/spark/internal/app"
	"github.com/spark-career/spark/internal/assistant"
	"github.com/spark-career/spark/internal/profile"
	"github.com/spark-career/spark/internal/quiz"
)

const maxBodyBytes = 64 << 10

var errBadRequest = errors.New("bad request")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to write response", "error", err)
	}
}

// statusOf maps an application error to an HTTP status.
func statusOf(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, app.ErrUnknownPage),
		errors.Is(err, profile.ErrUnknownField),
		errors.Is(err, quiz.ErrQuestionOutOfRange),
		errors.Is(err, quiz.ErrOptionOutOfRange):
		return http.StatusBadRequest
	case errors.Is(err, app.ErrSessionNotFound),
		errors.Is(err, app.ErrUnknownTest),
		errors.Is(err, assistant.ErrUnknownFAQ):
		return http.StatusNotFound
	case errors.Is(err, quiz.ErrNotSubmitted):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		msg = http.StatusText(status)
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

// decode reads a JSON request body into v.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("empty body: %w", errBadRequest)
		}
		return fmt.Errorf("decoding body: %v: %w", err, errBadRequest)
	}
	return nil
}
