package sessionstore

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wilcolinadev/naturalize/internal/quiz"
)

// RedisStore keeps sessions, recents and drafts in Redis with TTLs so
// abandoned state ages out on its own.
type RedisStore struct {
	client     *redis.Client
	sessionTTL time.Duration
	recentTTL  time.Duration
}

func NewRedisStore(client *redis.Client, sessionTTL, recentTTL time.Duration) *RedisStore {
	return &RedisStore{client: client, sessionTTL: sessionTTL, recentTTL: recentTTL}
}

func sessionKey(id string) string         { return "quiz_session:" + id }
func recentKey(subject string) string     { return "recent_sentences:" + subject }
func draftKey(subject, key string) string { return "draft:" + subject + ":" + key }

func (s *RedisStore) SaveQuizSession(ctx context.Context, session *quiz.Session) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, sessionKey(session.ID), payload, s.sessionTTL).Err()
}

func (s *RedisStore) GetQuizSession(ctx context.Context, id string) (*quiz.Session, error) {
	payload, err := s.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var session quiz.Session
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *RedisStore) DeleteQuizSession(ctx context.Context, id string) error {
	return s.client.Del(ctx, sessionKey(id)).Err()
}

func (s *RedisStore) PushRecentSentence(ctx context.Context, subject string, sentenceID, window int) error {
	key := recentKey(subject)
	pipe := s.client.Pipeline()
	pipe.LPush(ctx, key, sentenceID)
	pipe.LTrim(ctx, key, 0, int64(window)-1)
	pipe.Expire(ctx, key, s.recentTTL)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisStore) RecentSentences(ctx context.Context, subject string) ([]int, error) {
	values, err := s.client.LRange(ctx, recentKey(subject), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	ids := make([]int, 0, len(values))
	for _, v := range values {
		id, err := strconv.Atoi(v)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *RedisStore) GetDraft(ctx context.Context, subject, key string) (string, error) {
	value, err := s.client.Get(ctx, draftKey(subject, key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	return value, err
}

func (s *RedisStore) SetDraft(ctx context.Context, subject, key, value string) error {
	return s.client.Set(ctx, draftKey(subject, key), value, 0).Err()
}

func (s *RedisStore) ClearDraft(ctx context.Context, subject, key string) error {
	return s.client.Del(ctx, draftKey(subject, key)).Err()
}
