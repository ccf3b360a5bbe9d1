package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/wilcolinadev/naturalize/internal/bank"
	"github.com/wilcolinadev/naturalize/internal/model"
	"github.com/wilcolinadev/naturalize/internal/quiz"
	"github.com/wilcolinadev/naturalize/internal/sessionstore"
	"github.com/wilcolinadev/naturalize/internal/usage"
)

// quizView is the in-progress shape: the current question only, no answer
// key, so the client can't grade ahead.
type quizView struct {
	SessionID string        `json:"session_id"`
	Language  bank.Language `json:"language"`
	Position  int           `json:"position"`
	Total     int           `json:"total"`
	Answered  int           `json:"answered"`
	Completed bool          `json:"completed"`
	Question  *questionView `json:"question,omitempty"`
	Answer    *int          `json:"answer,omitempty"`
}

type questionView struct {
	ID       int      `json:"id"`
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

type resultItem struct {
	ID            int      `json:"id"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	UserAnswer    *int     `json:"user_answer"`
	CorrectAnswer int      `json:"correct_answer"`
	Correct       bool     `json:"correct"`
	Explanation   string   `json:"explanation,omitempty"`
}

type quizResults struct {
	SessionID string        `json:"session_id"`
	Language  bank.Language `json:"language"`
	Score     int           `json:"score"`
	Correct   int           `json:"correct"`
	Total     int           `json:"total"`
	Passed    bool          `json:"passed"`
	Questions []resultItem  `json:"questions"`
}

func (s *Server) handleStartCivicsQuiz(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	lang := requestLanguage(r)
	today := usage.Day(s.now())

	dailyCount := user.DailyQuestionUsage.EffectiveCount(today)
	questions := s.selector.SelectCivics(user.Plan, lang, dailyCount)
	if len(questions) == 0 {
		if user.Plan == model.PlanFree && s.selector.Policy() == quiz.FreeCapped {
			writeError(w, http.StatusForbidden, "daily_limit_reached")
			return
		}
		writeError(w, http.StatusForbidden, "premium_required")
		return
	}

	session, err := quiz.NewSession(uuid.NewString(), user.Subject, questions, s.now())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error")
		return
	}

	if trackingID, err := s.users.StartPracticeSession(r.Context(), user.ID, model.SessionFullExam, len(questions)); err != nil {
		s.log.Error("practice session tracking failed", "subject", user.Subject, "err", err)
	} else {
		session.TrackingID = trackingID
	}

	if err := s.sessions.SaveQuizSession(r.Context(), session); err != nil {
		s.log.Error("quiz session save failed", "session", session.ID, "err", err)
		writeError(w, http.StatusInternalServerError, "internal_error")
		return
	}

	writeJSON(w, http.StatusCreated, s.viewSession(session, lang))
}

func (s *Server) handleGetCivicsQuiz(w http.ResponseWriter, r *http.Request) {
	session, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.viewSession(session, requestLanguage(r)))
}

func (s *Server) handleAnswerCivicsQuiz(w http.ResponseWriter, r *http.Request) {
	session, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	lang := requestLanguage(r)

	var body struct {
		Option int `json:"option"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body")
		return
	}

	question, okQ := s.bank.CivicsQuestion(lang, session.QuestionIDs[session.Position])
	if !okQ {
		writeError(w, http.StatusInternalServerError, "internal_error")
		return
	}
	if err := session.Answer(body.Option, len(question.Options)); err != nil {
		switch {
		case errors.Is(err, quiz.ErrSessionCompleted):
			writeError(w, http.StatusConflict, "session_completed")
		default:
			writeError(w, http.StatusBadRequest, "invalid_option")
		}
		return
	}

	if err := s.sessions.SaveQuizSession(r.Context(), session); err != nil {
		s.log.Error("quiz session save failed", "session", session.ID, "err", err)
		writeError(w, http.StatusInternalServerError, "internal_error")
		return
	}
	gradedAnswers.WithLabelValues("civics").Inc()
	writeJSON(w, http.StatusOK, s.viewSession(session, lang))
}

func (s *Server) handlePreviousCivicsQuiz(w http.ResponseWriter, r *http.Request) {
	session, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	session.Previous()
	if err := s.sessions.SaveQuizSession(r.Context(), session); err != nil {
		s.log.Error("quiz session save failed", "session", session.ID, "err", err)
		writeError(w, http.StatusInternalServerError, "internal_error")
		return
	}
	writeJSON(w, http.StatusOK, s.viewSession(session, requestLanguage(r)))
}

func (s *Server) handleNextCivicsQuiz(w http.ResponseWriter, r *http.Request) {
	session, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	lang := requestLanguage(r)

	completed := session.Advance()
	if err := s.sessions.SaveQuizSession(r.Context(), session); err != nil {
		s.log.Error("quiz session save failed", "session", session.ID, "err", err)
		writeError(w, http.StatusInternalServerError, "internal_error")
		return
	}

	if completed {
		s.finishCivicsQuiz(r, session, lang)
	}

	writeJSON(w, http.StatusOK, s.viewSession(session, lang))
}

// finishCivicsQuiz runs the once-per-session completion side effects. None
// of them can fail the request; grading already happened.
func (s *Server) finishCivicsQuiz(r *http.Request, session *quiz.Session, lang bank.Language) {
	user := userFromContext(r.Context())
	questions := s.bank.ResolveCivics(lang, session.QuestionIDs)
	score := session.ScorePercent(questions)
	now := s.now()

	examsCompleted.Inc()
	s.users.UpdatePracticeStats(r.Context(), user.Subject, model.StatsDelta{
		FullExamsCompleted: 1,
		StudyTimeMinutes:   session.ElapsedMinutes(now),
		ScorePercentage:    score,
	})

	if session.TrackingID == "" {
		return
	}
	seconds := int(now.Sub(session.StartedAt).Seconds())
	data, _ := json.Marshal(map[string]interface{}{"question_ids": session.QuestionIDs})
	if err := s.users.CompletePracticeSession(r.Context(), session.TrackingID,
		session.AnsweredCount(), session.CorrectCount(questions), seconds, score, data); err != nil {
		s.log.Error("practice session completion failed", "session", session.TrackingID, "err", err)
	}
}

func (s *Server) handleRestartCivicsQuiz(w http.ResponseWriter, r *http.Request) {
	session, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	user := userFromContext(r.Context())
	lang := requestLanguage(r)
	today := usage.Day(s.now())

	questions := s.selector.SelectCivics(user.Plan, lang, user.DailyQuestionUsage.EffectiveCount(today))
	if len(questions) == 0 {
		writeError(w, http.StatusForbidden, "premium_required")
		return
	}
	if err := session.Restart(questions, s.now()); err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error")
		return
	}
	if trackingID, err := s.users.StartPracticeSession(r.Context(), user.ID, model.SessionFullExam, len(questions)); err != nil {
		s.log.Error("practice session tracking failed", "subject", user.Subject, "err", err)
	} else {
		session.TrackingID = trackingID
	}
	if err := s.sessions.SaveQuizSession(r.Context(), session); err != nil {
		s.log.Error("quiz session save failed", "session", session.ID, "err", err)
		writeError(w, http.StatusInternalServerError, "internal_error")
		return
	}
	writeJSON(w, http.StatusOK, s.viewSession(session, lang))
}

func (s *Server) handleCivicsQuizResults(w http.ResponseWriter, r *http.Request) {
	session, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	if !session.Completed {
		writeError(w, http.StatusConflict, "session_not_completed")
		return
	}
	lang := requestLanguage(r)
	questions := s.bank.ResolveCivics(lang, session.QuestionIDs)

	items := make([]resultItem, len(questions))
	correct := 0
	for i, q := range questions {
		answer := session.Answers[i]
		isCorrect := answer != nil && *answer == q.CorrectAnswer
		if isCorrect {
			correct++
		}
		items[i] = resultItem{
			ID:            q.ID,
			Question:      q.Question,
			Options:       q.Options,
			UserAnswer:    answer,
			CorrectAnswer: q.CorrectAnswer,
			Correct:       isCorrect,
			Explanation:   q.Explanation,
		}
	}
	score := session.ScorePercent(questions)

	writeJSON(w, http.StatusOK, quizResults{
		SessionID: session.ID,
		Language:  lang,
		Score:     score,
		Correct:   correct,
		Total:     len(session.QuestionIDs),
		Passed:    quiz.Passing(score, quiz.CivicsPassPercent),
		Questions: items,
	})
}

// loadSession fetches the session named in the URL and checks it belongs to
// the authenticated user.
func (s *Server) loadSession(w http.ResponseWriter, r *http.Request) (*quiz.Session, bool) {
	id := chi.URLParam(r, "sessionID")
	session, err := s.sessions.GetQuizSession(r.Context(), id)
	if err != nil {
		if errors.Is(err, sessionstore.ErrNotFound) {
			writeError(w, http.StatusNotFound, "session_not_found")
		} else {
			s.log.Error("quiz session load failed", "session", id, "err", err)
			writeError(w, http.StatusInternalServerError, "internal_error")
		}
		return nil, false
	}
	if session.Subject != userFromContext(r.Context()).Subject {
		writeError(w, http.StatusNotFound, "session_not_found")
		return nil, false
	}
	return session, true
}

func (s *Server) viewSession(session *quiz.Session, lang bank.Language) quizView {
	view := quizView{
		SessionID: session.ID,
		Language:  lang,
		Position:  session.Position,
		Total:     len(session.QuestionIDs),
		Answered:  session.AnsweredCount(),
		Completed: session.Completed,
	}
	if session.Completed {
		return view
	}
	if q, ok := s.bank.CivicsQuestion(lang, session.QuestionIDs[session.Position]); ok {
		view.Question = &questionView{ID: q.ID, Question: q.Question, Options: q.Options}
	}
	view.Answer = session.CurrentAnswer()
	return view
}
