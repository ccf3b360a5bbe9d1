// Package sessionstore holds the ephemeral per-user state: in-flight quiz
// sessions, the rolling recently-served sentence history, and writing-
// practice drafts. Backed by Redis in production and an in-memory store in
// tests and single-node runs, behind one interface so the session machinery
// never cares which.
package sessionstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/wilcolinadev/naturalize/internal/quiz"
)

var ErrNotFound = errors.New("sessionstore: not found")

type Store interface {
	SaveQuizSession(ctx context.Context, session *quiz.Session) error
	GetQuizSession(ctx context.Context, id string) (*quiz.Session, error)
	DeleteQuizSession(ctx context.Context, id string) error

	// Recent sentence history, newest first, capped at the given window.
	PushRecentSentence(ctx context.Context, subject string, sentenceID, window int) error
	RecentSentences(ctx context.Context, subject string) ([]int, error)

	GetDraft(ctx context.Context, subject, key string) (string, error)
	SetDraft(ctx context.Context, subject, key, value string) error
	ClearDraft(ctx context.Context, subject, key string) error
}

// DraftKey mirrors the client-side storage key: sentence plus language.
func DraftKey(sentenceID int, language string) string {
	return fmt.Sprintf("writing_answer_%d_%s", sentenceID, language)
}
