package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/wilcolinadev/naturalize/internal/db"
	"github.com/wilcolinadev/naturalize/internal/logger"
	"github.com/wilcolinadev/naturalize/internal/model"
	"github.com/wilcolinadev/naturalize/internal/usage"
)

// openTestStore connects to the database named by TEST_DATABASE_URL, or
// skips the test when it is unset.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.NewPool(ctx, url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)
	if err := db.InitSchema(ctx, pool); err != nil {
		t.Fatalf("init schema: %v", err)
	}
	return NewStore(pool, logger.NewNop())
}

func TestFindOrCreateUserIsIdempotent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	subject := "test-" + uuid.NewString()

	created, err := store.FindOrCreateUser(ctx, subject, "a@example.com", "Ana", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Plan != model.PlanFree {
		t.Fatalf("plan = %q, want free", created.Plan)
	}

	again, err := store.FindOrCreateUser(ctx, subject, "other@example.com", "Other", "")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if again.ID != created.ID {
		t.Fatalf("second call created a new record: %s != %s", again.ID, created.ID)
	}
	if again.Email != "a@example.com" {
		t.Fatalf("email rewritten on find: %q", again.Email)
	}
}

func TestIncrementDailyUsagePersists(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	subject := "test-" + uuid.NewString()

	if _, err := store.FindOrCreateUser(ctx, subject, "b@example.com", "Ben", ""); err != nil {
		t.Fatalf("create: %v", err)
	}
	if !store.IncrementDailyUsage(ctx, subject) {
		t.Fatal("increment reported failure")
	}
	if !store.IncrementDailyUsage(ctx, subject) {
		t.Fatal("increment reported failure")
	}

	user, err := store.GetUser(ctx, subject)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	today := usage.Day(time.Now())
	if got := user.DailyQuestionUsage.EffectiveCount(today); got != 2 {
		t.Fatalf("effective count = %d, want 2", got)
	}
	if user.DailyQuickQuizUsage.EffectiveCount(today) != 0 {
		t.Fatal("quick-quiz counter moved with the question counter")
	}
}

func TestPracticeSessionLifecycle(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	subject := "test-" + uuid.NewString()

	user, err := store.FindOrCreateUser(ctx, subject, "c@example.com", "Cai", "")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	id, err := store.StartPracticeSession(ctx, user.ID, model.SessionFullExam, 30)
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	if err := store.CompletePracticeSession(ctx, id, 30, 24, 600, 80, nil); err != nil {
		t.Fatalf("complete session: %v", err)
	}

	sessions, err := store.ListPracticeSessions(ctx, user.ID, 5)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("got %d sessions, want 1", len(sessions))
	}
	got := sessions[0]
	if got.ID != id || got.CorrectAnswers != 24 || got.CompletedAt == nil {
		t.Fatalf("unexpected session row: %+v", got)
	}
	if got.ScorePercentage == nil || *got.ScorePercentage != 80 {
		t.Fatalf("score = %v, want 80", got.ScorePercentage)
	}
}

func TestCloseStalePracticeSessions(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	subject := "test-" + uuid.NewString()

	user, err := store.FindOrCreateUser(ctx, subject, "d@example.com", "Dee", "")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	id, err := store.StartPracticeSession(ctx, user.ID, model.SessionQuickQuiz, 1)
	if err != nil {
		t.Fatalf("start session: %v", err)
	}

	// Fresh rows stay open.
	if _, err := store.CloseStalePracticeSessions(ctx, time.Now().Add(-time.Hour)); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	sessions, err := store.ListPracticeSessions(ctx, user.ID, 5)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if sessions[0].ID == id && sessions[0].CompletedAt != nil {
		t.Fatal("fresh session was closed by the sweep")
	}

	// A future cutoff catches it.
	if _, err := store.CloseStalePracticeSessions(ctx, time.Now().Add(time.Minute)); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	sessions, err = store.ListPracticeSessions(ctx, user.ID, 5)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if sessions[0].CompletedAt == nil {
		t.Fatal("stale session left open")
	}
}
