package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/wilcolinadev/naturalize/internal/model"
	"github.com/wilcolinadev/naturalize/internal/quiz"
	"github.com/wilcolinadev/naturalize/internal/sessionstore"
	"github.com/wilcolinadev/naturalize/internal/usage"
)

// quickQuizLimit is the plan's daily quick-quiz ceiling.
func (s *Server) quickQuizLimit(plan model.Plan) int {
	if plan == model.PlanPremium {
		return usage.Unlimited
	}
	return s.cfg.FreeQuickQuizLimit
}

// dailyLimit is the plan's daily graded-sentence ceiling.
func (s *Server) dailyLimit(plan model.Plan) int {
	if plan == model.PlanPremium {
		return usage.Unlimited
	}
	return s.cfg.FreeDailyLimit
}

func (s *Server) handleQuickQuestion(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	today := usage.Day(s.now())

	if !user.DailyQuickQuizUsage.Allowed(s.quickQuizLimit(user.Plan), today) {
		writeError(w, http.StatusTooManyRequests, "daily_limit_reached")
		return
	}

	lang := requestLanguage(r)
	question, ok := s.selector.RandomQuestion(lang)
	if !ok {
		writeError(w, http.StatusInternalServerError, "internal_error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"language": lang,
		"question": questionView{ID: question.ID, Question: question.Question, Options: question.Options},
		"usage": map[string]interface{}{
			"count": user.DailyQuickQuizUsage.EffectiveCount(today),
			"limit": s.quickQuizLimit(user.Plan),
		},
	})
}

func (s *Server) handleQuickAnswer(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	lang := requestLanguage(r)
	today := usage.Day(s.now())

	if !user.DailyQuickQuizUsage.Allowed(s.quickQuizLimit(user.Plan), today) {
		writeError(w, http.StatusTooManyRequests, "daily_limit_reached")
		return
	}

	var body struct {
		QuestionID int `json:"question_id"`
		Option     int `json:"option"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body")
		return
	}
	question, ok := s.bank.CivicsQuestion(lang, body.QuestionID)
	if !ok {
		writeError(w, http.StatusNotFound, "question_not_found")
		return
	}
	if body.Option < 0 || body.Option >= len(question.Options) {
		writeError(w, http.StatusBadRequest, "invalid_option")
		return
	}

	correct := body.Option == question.CorrectAnswer
	score := 0
	if correct {
		score = 100
	}

	// Usage and stats persistence never block the graded answer; failures
	// are logged inside the gateway and surfaced as false.
	s.users.IncrementQuickQuizUsage(r.Context(), user.Subject)
	s.users.UpdatePracticeStats(r.Context(), user.Subject, model.StatsDelta{
		QuickQuestionsAnswered: 1,
		ScorePercentage:        score,
	})
	gradedAnswers.WithLabelValues("quick").Inc()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"correct":        correct,
		"correct_answer": question.CorrectAnswer,
		"explanation":    question.Explanation,
	})
}

func (s *Server) handleNextSentence(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	lang := requestLanguage(r)

	recent, err := s.sessions.RecentSentences(r.Context(), user.Subject)
	if err != nil {
		s.log.Error("recent sentences load failed", "subject", user.Subject, "err", err)
		recent = nil
	}

	sentence, ok := s.selector.PickSentence(lang, recent)
	if !ok {
		writeError(w, http.StatusInternalServerError, "internal_error")
		return
	}
	if err := s.sessions.PushRecentSentence(r.Context(), user.Subject, sentence.ID, quiz.RecentSentenceWindow); err != nil {
		s.log.Error("recent sentence push failed", "subject", user.Subject, "err", err)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"language": lang,
		"sentence": sentence,
	})
}

func (s *Server) handleScoreSentence(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	lang := requestLanguage(r)
	today := usage.Day(s.now())

	if !user.DailyQuestionUsage.Allowed(s.dailyLimit(user.Plan), today) {
		writeError(w, http.StatusTooManyRequests, "daily_limit_reached")
		return
	}

	sentenceID, err := strconv.Atoi(chi.URLParam(r, "sentenceID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_sentence_id")
		return
	}
	sentence, ok := s.bank.Sentence(lang, sentenceID)
	if !ok {
		writeError(w, http.StatusNotFound, "sentence_not_found")
		return
	}

	var body struct {
		Transcript       string  `json:"transcript"`
		Mode             string  `json:"mode"`
		TimeSpentSeconds float64 `json:"time_spent_seconds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body")
		return
	}
	mode := body.Mode
	if mode != "writing" {
		mode = "reading"
	}

	score := quiz.Score(body.Transcript, sentence.Sentence)

	s.users.IncrementDailyUsage(r.Context(), user.Subject)
	s.users.UpdatePracticeStats(r.Context(), user.Subject, model.StatsDelta{
		QuickQuestionsAnswered: 1,
		StudyTimeMinutes:       body.TimeSpentSeconds / 60,
		ScorePercentage:        score,
	})
	gradedAnswers.WithLabelValues(mode).Inc()

	if mode == "writing" {
		key := sessionstore.DraftKey(sentence.ID, string(lang))
		if err := s.sessions.ClearDraft(r.Context(), user.Subject, key); err != nil && !errors.Is(err, sessionstore.ErrNotFound) {
			s.log.Error("draft clear failed", "subject", user.Subject, "key", key, "err", err)
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"score":    score,
		"passed":   quiz.Passing(score, quiz.ReadingPassPercent),
		"sentence": sentence.Sentence,
	})
}

// Drafts

func (s *Server) handleGetDraft(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	key, ok := draftKeyFromRequest(w, r)
	if !ok {
		return
	}
	value, err := s.sessions.GetDraft(r.Context(), user.Subject, key)
	if err != nil {
		if errors.Is(err, sessionstore.ErrNotFound) {
			writeError(w, http.StatusNotFound, "draft_not_found")
		} else {
			s.log.Error("draft load failed", "subject", user.Subject, "key", key, "err", err)
			writeError(w, http.StatusInternalServerError, "internal_error")
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"draft": value})
}

func (s *Server) handlePutDraft(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	key, ok := draftKeyFromRequest(w, r)
	if !ok {
		return
	}
	var body struct {
		Draft string `json:"draft"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body")
		return
	}
	if err := s.sessions.SetDraft(r.Context(), user.Subject, key, body.Draft); err != nil {
		s.log.Error("draft save failed", "subject", user.Subject, "key", key, "err", err)
		writeError(w, http.StatusInternalServerError, "internal_error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"draft": body.Draft})
}

func (s *Server) handleDeleteDraft(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	key, ok := draftKeyFromRequest(w, r)
	if !ok {
		return
	}
	if err := s.sessions.ClearDraft(r.Context(), user.Subject, key); err != nil && !errors.Is(err, sessionstore.ErrNotFound) {
		s.log.Error("draft clear failed", "subject", user.Subject, "key", key, "err", err)
		writeError(w, http.StatusInternalServerError, "internal_error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func draftKeyFromRequest(w http.ResponseWriter, r *http.Request) (string, bool) {
	sentenceID, err := strconv.Atoi(chi.URLParam(r, "sentenceID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_sentence_id")
		return "", false
	}
	return sessionstore.DraftKey(sentenceID, string(requestLanguage(r))), true
}

func (s *Server) handlePracticeHistory(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	sessions, err := s.users.ListPracticeSessions(r.Context(), user.ID, limit)
	if err != nil {
		s.log.Error("practice history load failed", "user", user.ID, "err", err)
		writeError(w, http.StatusInternalServerError, "internal_error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"sessions": sessions})
}
