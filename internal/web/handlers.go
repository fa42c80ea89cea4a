package web

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/spark-career/spark/internal/analytics"
	"github.com/spark-career/spark/internal/assistant"
	"github.com/spark-career/spark/internal/catalog"
	"github.com/spark-career/spark/internal/profile"
	"github.com/spark-career/spark/internal/quiz"
)

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	v, err := s.svc.View(r.Context(), sessionID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Page string `json:"page"`
	}
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	page, err := s.svc.Navigate(r.Context(), sessionID(r), req.Page)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"page": string(page)})
}

// Profile

func (s *Server) handleProfileOptions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, profile.OptionsFrom(s.svc.Catalog()))
}

func (s *Server) handleDistricts(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")
	writeJSON(w, http.StatusOK, map[string]any{
		"state":     state,
		"districts": s.svc.Catalog().Districts(state),
	})
}

func (s *Server) handleProfileChange(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Field string `json:"field"`
		Value string `json:"value"`
	}
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	form, err := s.svc.ChangeField(r.Context(), sessionID(r), req.Field, req.Value)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, form)
}

func (s *Server) handleProfileSubmit(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.SubmitForm(r.Context(), sessionID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	recs, err := s.svc.Recommendations(r.Context(), sessionID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

// Quizzes

func (s *Server) handleQuestion(w http.ResponseWriter, r *http.Request) {
	view, err := s.svc.Question(r.Context(), sessionID(r), r.PathValue("test"))
	writeQuestion(w, r, view, err)
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Question *int `json:"question"`
		Option   *int `json:"option"`
	}
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Question == nil || req.Option == nil {
		writeError(w, r, fmt.Errorf("question and option are required: %w", errBadRequest))
		return
	}
	view, err := s.svc.Answer(r.Context(), sessionID(r), r.PathValue("test"), *req.Question, *req.Option)
	writeQuestion(w, r, view, err)
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	view, err := s.svc.Advance(r.Context(), sessionID(r), r.PathValue("test"), quiz.Next)
	writeQuestion(w, r, view, err)
}

func (s *Server) handlePrevious(w http.ResponseWriter, r *http.Request) {
	view, err := s.svc.Advance(r.Context(), sessionID(r), r.PathValue("test"), quiz.Previous)
	writeQuestion(w, r, view, err)
}

func (s *Server) handleQuizReset(w http.ResponseWriter, r *http.Request) {
	view, err := s.svc.ResetQuiz(r.Context(), sessionID(r), r.PathValue("test"))
	writeQuestion(w, r, view, err)
}

func writeQuestion(w http.ResponseWriter, r *http.Request, view quiz.QuestionView, err error) {
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleQuizSubmit(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.SubmitQuiz(r.Context(), sessionID(r), r.PathValue("test"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleQuizResult(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.QuizResult(r.Context(), sessionID(r), r.PathValue("test"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Exams

// asOf returns the reference time for urgency tiers. A month query
// parameter (1-12) overrides the current month.
func (s *Server) asOf(r *http.Request) (time.Time, error) {
	now := s.opts.Now()
	m := r.URL.Query().Get("month")
	if m == "" {
		return now, nil
	}
	n, err := strconv.Atoi(m)
	if err != nil || n < 1 || n > 12 {
		return time.Time{}, fmt.Errorf("month %q must be 1-12: %w", m, errBadRequest)
	}
	return time.Date(now.Year(), time.Month(n), 1, 0, 0, 0, 0, now.Location()), nil
}

func (s *Server) handleExams(w http.ResponseWriter, r *http.Request) {
	now, err := s.asOf(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	cat := s.svc.Catalog()
	writeJSON(w, http.StatusOK, struct {
		Month      time.Month             `json:"month"`
		Categories []catalog.ExamCategory `json:"categories"`
		Exams      []catalog.ExamStatus   `json:"exams"`
	}{
		Month:      now.Month(),
		Categories: cat.ExamCategories(),
		Exams:      cat.ExamCalendar(now),
	})
}

func (s *Server) handleExamWorkbook(w http.ResponseWriter, r *http.Request) {
	now, err := s.asOf(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := catalog.WriteExamWorkbook(&buf, s.svc.Catalog().ExamCalendar(now)); err != nil {
		writeError(w, r, err)
		return
	}
	analytics.Emit(s.opts.Events, analytics.TypeExamExport, map[string]any{"month": int(now.Month())})

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="exams.xlsx"`)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// Chat

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	since := 0
	if v := r.URL.Query().Get("since"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, r, fmt.Errorf("since %q: %w", v, errBadRequest))
			return
		}
		since = n
	}
	chat, err := s.svc.Chat(r.Context(), sessionID(r), since)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, chat)
}

type chatRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleChatSend(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	reply, err := s.svc.SendChat(r.Context(), sessionID(r), req.Text)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (s *Server) handleFAQs(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"greeting": assistant.FAQGreeting,
		"faqs":     s.svc.Assistant().FAQs(),
	})
}

func (s *Server) handleFAQAsk(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeError(w, r, fmt.Errorf("faq index %q: %w", r.PathValue("index"), errBadRequest))
		return
	}
	added, err := s.svc.AskFAQ(r.Context(), sessionID(r), index)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"added": added})
}

func (s *Server) handleContact(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Catalog().Contact())
}
