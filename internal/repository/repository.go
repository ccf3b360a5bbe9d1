// Package repository is the user record gateway: the persisted user profile
// (plan, daily counters, aggregate practice stats) and the tracked practice
// session rows, stored in Postgres.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wilcolinadev/naturalize/internal/logger"
	"github.com/wilcolinadev/naturalize/internal/model"
	"github.com/wilcolinadev/naturalize/internal/usage"
)

var ErrUserNotFound = errors.New("repository: user not found")

type Store struct {
	pool *pgxpool.Pool
	log  *logger.Logger
}

func NewStore(pool *pgxpool.Pool, log *logger.Logger) *Store {
	return &Store{pool: pool, log: log}
}

const userColumns = `id, subject, email, name, picture, plan,
	daily_question_usage, daily_quick_quiz_usage, practice_stats,
	created_at, updated_at`

func scanUser(row pgx.Row) (model.User, error) {
	var (
		user          model.User
		plan          string
		questionUsage []byte
		quickUsage    []byte
		stats         []byte
	)
	err := row.Scan(
		&user.ID,
		&user.Subject,
		&user.Email,
		&user.Name,
		&user.Picture,
		&plan,
		&questionUsage,
		&quickUsage,
		&stats,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return model.User{}, err
	}
	user.Plan = model.ParsePlan(plan)
	if err := json.Unmarshal(questionUsage, &user.DailyQuestionUsage); err != nil {
		return model.User{}, err
	}
	if err := json.Unmarshal(quickUsage, &user.DailyQuickQuizUsage); err != nil {
		return model.User{}, err
	}
	if err := json.Unmarshal(stats, &user.PracticeStats); err != nil {
		return model.User{}, err
	}
	return user, nil
}

// GetUser fetches the user record keyed by the identity subject.
func (s *Store) GetUser(ctx context.Context, subject string) (model.User, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE subject = $1`, subject)
	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, ErrUserNotFound
	}
	return user, err
}

// FindOrCreateUser returns the record for the subject, creating it with
// free-plan defaults on the first login.
func (s *Store) FindOrCreateUser(ctx context.Context, subject, email, name, picture string) (model.User, error) {
	user, err := s.GetUser(ctx, subject)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return model.User{}, err
	}

	if name == "" {
		name = email
	}
	if name == "" {
		name = "User"
	}
	today := usage.Day(time.Now())
	zeroCounter, _ := json.Marshal(usage.Counter{Count: 0, Date: today})
	zeroStats, _ := json.Marshal(model.PracticeStats{})

	row := s.pool.QueryRow(ctx, `
		INSERT INTO users (id, subject, email, name, picture, plan,
			daily_question_usage, daily_quick_quiz_usage, practice_stats)
		VALUES ($1, $2, $3, $4, $5, 'free', $6, $6, $7)
		ON CONFLICT (subject) DO UPDATE SET updated_at = now()
		RETURNING `+userColumns,
		uuid.NewString(), subject, email, name, picture, zeroCounter, zeroStats)
	return scanUser(row)
}

// IncrementDailyUsage records one graded interaction today, resetting the
// pair when the stored date is not today. Read-modify-write with
// last-write-wins; concurrent tabs can race, which is accepted. Failure is
// logged and reported as false, never as an error the caller must block on.
func (s *Store) IncrementDailyUsage(ctx context.Context, subject string) bool {
	return s.incrementCounter(ctx, subject, "daily_question_usage")
}

// IncrementQuickQuizUsage is the alternate gating path for quick-quiz mode.
func (s *Store) IncrementQuickQuizUsage(ctx context.Context, subject string) bool {
	return s.incrementCounter(ctx, subject, "daily_quick_quiz_usage")
}

func (s *Store) incrementCounter(ctx context.Context, subject, column string) bool {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT `+column+` FROM users WHERE subject = $1`, subject).Scan(&raw)
	if err != nil {
		s.log.Error("usage counter fetch failed", "subject", subject, "column", column, "err", err)
		return false
	}
	var counter usage.Counter
	if err := json.Unmarshal(raw, &counter); err != nil {
		s.log.Error("usage counter decode failed", "subject", subject, "column", column, "err", err)
		return false
	}

	updated, err := json.Marshal(counter.Increment(usage.Day(time.Now())))
	if err != nil {
		return false
	}
	_, err = s.pool.Exec(ctx, `UPDATE users SET `+column+` = $1, updated_at = now() WHERE subject = $2`, updated, subject)
	if err != nil {
		s.log.Error("usage counter update failed", "subject", subject, "column", column, "err", err)
		return false
	}
	return true
}

// UpdatePracticeStats folds one graded interaction into the aggregate
// stats. Same failure semantics as the counters.
func (s *Store) UpdatePracticeStats(ctx context.Context, subject string, delta model.StatsDelta) bool {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT practice_stats FROM users WHERE subject = $1`, subject).Scan(&raw)
	if err != nil {
		s.log.Error("practice stats fetch failed", "subject", subject, "err", err)
		return false
	}
	var stats model.PracticeStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		s.log.Error("practice stats decode failed", "subject", subject, "err", err)
		return false
	}

	updated, err := json.Marshal(stats.Apply(delta, time.Now()))
	if err != nil {
		return false
	}
	_, err = s.pool.Exec(ctx, `UPDATE users SET practice_stats = $1, updated_at = now() WHERE subject = $2`, updated, subject)
	if err != nil {
		s.log.Error("practice stats update failed", "subject", subject, "err", err)
		return false
	}
	return true
}

// StartPracticeSession opens a tracked session row and returns its ID.
func (s *Store) StartPracticeSession(ctx context.Context, userID string, sessionType model.SessionType, totalQuestions int) (string, error) {
	id := uuid.NewString()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO practice_sessions (id, user_id, session_type, total_questions, started_at)
		VALUES ($1, $2, $3, $4, now())`,
		id, userID, string(sessionType), totalQuestions)
	if err != nil {
		return "", err
	}
	return id, nil
}

// CompletePracticeSession finalizes a tracked session row.
func (s *Store) CompletePracticeSession(ctx context.Context, sessionID string, answered, correct, timeSpentSeconds, scorePercentage int, sessionData json.RawMessage) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE practice_sessions
		SET questions_answered = $1, correct_answers = $2, time_spent_seconds = $3,
			score_percentage = $4, session_data = $5, completed_at = now()
		WHERE id = $6`,
		answered, correct, timeSpentSeconds, scorePercentage, sessionData, sessionID)
	return err
}

// ListPracticeSessions returns the user's most recent tracked sessions.
func (s *Store) ListPracticeSessions(ctx context.Context, userID string, limit int) ([]model.PracticeSession, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, session_type, questions_answered, correct_answers,
			total_questions, score_percentage, time_spent_seconds, started_at, completed_at
		FROM practice_sessions
		WHERE user_id = $1
		ORDER BY started_at DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []model.PracticeSession
	for rows.Next() {
		var (
			session     model.PracticeSession
			sessionType string
		)
		err := rows.Scan(
			&session.ID,
			&session.UserID,
			&sessionType,
			&session.QuestionsAnswered,
			&session.CorrectAnswers,
			&session.TotalQuestions,
			&session.ScorePercentage,
			&session.TimeSpentSeconds,
			&session.StartedAt,
			&session.CompletedAt,
		)
		if err != nil {
			return nil, err
		}
		session.SessionType = model.SessionType(sessionType)
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

// CloseStalePracticeSessions stamps a completion time on rows left open
// past the cutoff so abandoned runs stop looking in-flight. Their score
// stays NULL.
func (s *Store) CloseStalePracticeSessions(ctx context.Context, olderThan time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE practice_sessions
		SET completed_at = now()
		WHERE completed_at IS NULL AND started_at < $1`, olderThan)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
