package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wilcolinadev/naturalize/internal/auth"
	"github.com/wilcolinadev/naturalize/internal/bank"
	"github.com/wilcolinadev/naturalize/internal/config"
	"github.com/wilcolinadev/naturalize/internal/logger"
	"github.com/wilcolinadev/naturalize/internal/model"
	"github.com/wilcolinadev/naturalize/internal/quiz"
	"github.com/wilcolinadev/naturalize/internal/sessionstore"
)

// languageCookie is the long-lived preference cookie shared with the web
// client.
const languageCookie = "language"

var (
	gradedAnswers = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "naturalize_graded_answers_total",
		Help: "Graded practice interactions by mode.",
	}, []string{"mode"})
	examsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "naturalize_exams_completed_total",
		Help: "Completed full civics exams.",
	})
)

// UserStore is the slice of the user record gateway the handlers consume.
// *repository.Store implements it; tests substitute a fake.
type UserStore interface {
	FindOrCreateUser(ctx context.Context, subject, email, name, picture string) (model.User, error)
	GetUser(ctx context.Context, subject string) (model.User, error)
	IncrementDailyUsage(ctx context.Context, subject string) bool
	IncrementQuickQuizUsage(ctx context.Context, subject string) bool
	UpdatePracticeStats(ctx context.Context, subject string, delta model.StatsDelta) bool
	StartPracticeSession(ctx context.Context, userID string, sessionType model.SessionType, totalQuestions int) (string, error)
	CompletePracticeSession(ctx context.Context, sessionID string, answered, correct, timeSpentSeconds, scorePercentage int, sessionData json.RawMessage) error
	ListPracticeSessions(ctx context.Context, userID string, limit int) ([]model.PracticeSession, error)
}

type Server struct {
	cfg      config.Config
	users    UserStore
	sessions sessionstore.Store
	bank     *bank.Bank
	selector *quiz.Selector
	log      *logger.Logger
	now      func() time.Time
}

func NewServer(cfg config.Config, users UserStore, sessions sessionstore.Store, b *bank.Bank, selector *quiz.Selector, log *logger.Logger) *Server {
	return &Server{
		cfg:      cfg,
		users:    users,
		sessions: sessions,
		bank:     b,
		selector: selector,
		log:      log,
		now:      time.Now,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)

		r.Get("/me", s.handleMe)
		r.Put("/language", s.handleSetLanguage)

		r.Post("/quiz/civics", s.handleStartCivicsQuiz)
		r.Get("/quiz/civics/{sessionID}", s.handleGetCivicsQuiz)
		r.Post("/quiz/civics/{sessionID}/answer", s.handleAnswerCivicsQuiz)
		r.Post("/quiz/civics/{sessionID}/previous", s.handlePreviousCivicsQuiz)
		r.Post("/quiz/civics/{sessionID}/next", s.handleNextCivicsQuiz)
		r.Post("/quiz/civics/{sessionID}/restart", s.handleRestartCivicsQuiz)
		r.Get("/quiz/civics/{sessionID}/results", s.handleCivicsQuizResults)

		r.Get("/practice/quick", s.handleQuickQuestion)
		r.Post("/practice/quick/answer", s.handleQuickAnswer)

		r.Get("/practice/sentences/next", s.handleNextSentence)
		r.Post("/practice/sentences/{sentenceID}/score", s.handleScoreSentence)

		r.Get("/practice/drafts/{sentenceID}", s.handleGetDraft)
		r.Put("/practice/drafts/{sentenceID}", s.handlePutDraft)
		r.Delete("/practice/drafts/{sentenceID}", s.handleDeleteDraft)

		r.Get("/practice/history", s.handlePracticeHistory)
	})

	return r
}

// Auth

type userKey struct{}

// authMiddleware verifies the identity-provider token and resolves the
// persisted user record, creating it on first login. Every protected route
// goes through here; an absent or bad token is a redirect condition for the
// client, expressed as 401.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing_token")
			return
		}
		claims, err := auth.ParseToken(s.cfg.JWTSecret, s.cfg.JWTIssuer, token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid_token")
			return
		}
		user, err := s.users.FindOrCreateUser(r.Context(), claims.Subject, claims.Email, claims.Name, claims.Picture)
		if err != nil {
			s.log.Error("user record resolve failed", "subject", claims.Subject, "err", err)
			writeError(w, http.StatusInternalServerError, "user_record_unavailable")
			return
		}
		ctx := context.WithValue(r.Context(), userKey{}, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userFromContext(ctx context.Context) model.User {
	user, _ := ctx.Value(userKey{}).(model.User)
	return user
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

// requestLanguage resolves the dataset language: explicit query parameter
// first, then the preference cookie, then English.
func requestLanguage(r *http.Request) bank.Language {
	if q := r.URL.Query().Get("language"); q != "" {
		return bank.ParseLanguage(q)
	}
	if cookie, err := r.Cookie(languageCookie); err == nil {
		return bank.ParseLanguage(cookie.Value)
	}
	return bank.LanguageEN
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userFromContext(r.Context()))
}

func (s *Server) handleSetLanguage(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Language string `json:"language"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body")
		return
	}
	lang := bank.ParseLanguage(body.Language)
	http.SetCookie(w, &http.Cookie{
		Name:     languageCookie,
		Value:    string(lang),
		Path:     "/",
		MaxAge:   int((365 * 24 * time.Hour).Seconds()),
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]string{"language": string(lang)})
}

// Helpers

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}
