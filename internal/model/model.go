// Package model holds the persisted entities shared across the service.
package model

import (
	"time"

	"github.com/wilcolinadev/naturalize/internal/usage"
)

type Plan string

const (
	PlanFree    Plan = "free"
	PlanPremium Plan = "premium"
)

// ParsePlan maps a stored plan string to a known tier, defaulting to free.
func ParsePlan(val string) Plan {
	if Plan(val) == PlanPremium {
		return PlanPremium
	}
	return PlanFree
}

// PracticeStats are the aggregate numbers shown on the dashboard. Updated
// after every graded interaction.
type PracticeStats struct {
	FullExamsCompleted     int     `json:"full_exams_completed"`
	QuickQuestionsAnswered int     `json:"quick_questions_answered"`
	TotalStudyTimeMinutes  float64 `json:"total_study_time_minutes"`
	AverageScore           int     `json:"average_score"`
	BestScore              int     `json:"best_score"`
	CurrentStreak          int     `json:"current_streak"`
	LongestStreak          int     `json:"longest_streak"`
	LastPracticeDate       string  `json:"last_practice_date"`
}

// User is the persisted user record, keyed by the identity-provider subject.
// Never deleted by the application.
type User struct {
	ID                  string        `json:"id"`
	Subject             string        `json:"subject"`
	Email               string        `json:"email"`
	Name                string        `json:"name"`
	Picture             string        `json:"picture,omitempty"`
	Plan                Plan          `json:"plan"`
	DailyQuestionUsage  usage.Counter `json:"daily_question_usage"`
	DailyQuickQuizUsage usage.Counter `json:"daily_quick_quiz_usage"`
	PracticeStats       PracticeStats `json:"practice_stats"`
	CreatedAt           time.Time     `json:"created_at"`
	UpdatedAt           time.Time     `json:"updated_at"`
}

// SessionType tags a tracked practice session row.
type SessionType string

const (
	SessionFullExam  SessionType = "full_exam"
	SessionQuickQuiz SessionType = "quick_quiz"
)

// PracticeSession is one tracked run of a quiz, persisted for history.
type PracticeSession struct {
	ID                string      `json:"id"`
	UserID            string      `json:"user_id"`
	SessionType       SessionType `json:"session_type"`
	QuestionsAnswered int         `json:"questions_answered"`
	CorrectAnswers    int         `json:"correct_answers"`
	TotalQuestions    int         `json:"total_questions"`
	ScorePercentage   *int        `json:"score_percentage"`
	TimeSpentSeconds  int         `json:"time_spent_seconds"`
	StartedAt         time.Time   `json:"started_at"`
	CompletedAt       *time.Time  `json:"completed_at"`
}

// StatsDelta is one graded interaction's contribution to PracticeStats.
type StatsDelta struct {
	FullExamsCompleted     int
	QuickQuestionsAnswered int
	StudyTimeMinutes       float64
	ScorePercentage        int
}

// Apply folds a delta into the stats. The average is a running mean over
// graded events (exams plus quick questions); the streak advances when the
// previous practice day was yesterday, holds when it is already today, and
// restarts otherwise.
func (s PracticeStats) Apply(delta StatsDelta, now time.Time) PracticeStats {
	s.FullExamsCompleted += delta.FullExamsCompleted
	s.QuickQuestionsAnswered += delta.QuickQuestionsAnswered
	s.TotalStudyTimeMinutes += delta.StudyTimeMinutes

	events := s.FullExamsCompleted + s.QuickQuestionsAnswered
	if events <= 1 {
		s.AverageScore = delta.ScorePercentage
	} else {
		total := s.AverageScore*(events-1) + delta.ScorePercentage
		s.AverageScore = int(float64(total)/float64(events) + 0.5)
	}
	if delta.ScorePercentage > s.BestScore {
		s.BestScore = delta.ScorePercentage
	}

	today := now.Format("2006-01-02")
	yesterday := now.AddDate(0, 0, -1).Format("2006-01-02")
	switch s.LastPracticeDate {
	case today:
		// Already counted today.
	case yesterday:
		s.CurrentStreak++
	default:
		s.CurrentStreak = 1
	}
	if s.CurrentStreak > s.LongestStreak {
		s.LongestStreak = s.CurrentStreak
	}
	s.LastPracticeDate = today

	return s
}
