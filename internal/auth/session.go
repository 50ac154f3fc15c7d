package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const sessionKeyFmt = "session:%s"

var ErrSessionNotFound = errors.New("session not found")

// SessionStore remembers the one live session id per username.
type SessionStore interface {
	Set(ctx context.Context, username, sessionID string, ttl time.Duration) error
	Get(ctx context.Context, username string) (string, error)
	Delete(ctx context.Context, username string) error
	Count(ctx context.Context) (int, error)
}

type RedisSessionStore struct {
	rdb *redis.Client
}

func NewRedisSessionStore(rdb *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{rdb: rdb}
}

func (s *RedisSessionStore) Set(ctx context.Context, username, sessionID string, ttl time.Duration) error {
	return s.rdb.Set(ctx, fmt.Sprintf(sessionKeyFmt, username), sessionID, ttl).Err()
}

func (s *RedisSessionStore) Get(ctx context.Context, username string) (string, error) {
	id, err := s.rdb.Get(ctx, fmt.Sprintf(sessionKeyFmt, username)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrSessionNotFound
	}
	return id, err
}

func (s *RedisSessionStore) Delete(ctx context.Context, username string) error {
	return s.rdb.Del(ctx, fmt.Sprintf(sessionKeyFmt, username)).Err()
}

// Count returns the number of users with a live session.
func (s *RedisSessionStore) Count(ctx context.Context) (int, error) {
	var cursor uint64
	users := make(map[string]struct{})
	for {
		keys, next, err := s.rdb.Scan(ctx, cursor, "session:*", 100).Result()
		if err != nil {
			return 0, err
		}
		for _, key := range keys {
			if name := strings.TrimPrefix(key, "session:"); name != "" && name != key {
				users[name] = struct{}{}
			}
		}
		if next == 0 {
			break
		}
		cursor = next
	}
	return len(users), nil
}

type memorySession struct {
	id      string
	expires time.Time
}

// MemorySessionStore keeps sessions in process. Used when no Redis
// address is configured.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]memorySession
	now      func() time.Time
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]memorySession), now: time.Now}
}

func (s *MemorySessionStore) Set(_ context.Context, username, sessionID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[username] = memorySession{id: sessionID, expires: s.now().Add(ttl)}
	return nil
}

func (s *MemorySessionStore) Get(_ context.Context, username string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[username]
	if !ok {
		return "", ErrSessionNotFound
	}
	if !s.now().Before(sess.expires) {
		delete(s.sessions, username)
		return "", ErrSessionNotFound
	}
	return sess.id, nil
}

func (s *MemorySessionStore) Delete(_ context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, username)
	return nil
}

func (s *MemorySessionStore) Count(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	n := 0
	for name, sess := range s.sessions {
		if now.Before(sess.expires) {
			n++
		} else {
			delete(s.sessions, name)
		}
	}
	return n, nil
}
