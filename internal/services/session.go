package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
)

const (
	// SessionDuration is 7 days
	SessionDuration = 7 * 24 * time.Hour
	// SessionKeyPrefix is the Redis key prefix for sessions
	SessionKeyPrefix = "session:"
	// UserSessionKeyPrefix is the Redis key prefix for user->session mapping
	UserSessionKeyPrefix = "user_session:"

	sessionTokenBytes = 32
)

// SessionService issues opaque bearer tokens mapping to a username. One live
// session per user: logging in again replaces the previous token.
//
// Without a Redis client, sessions are kept in process memory and are lost on
// restart.
type SessionService struct {
	client *redis.Client
	ttl    time.Duration

	mu     sync.Mutex
	clock  clockwork.Clock
	tokens map[string]memorySession // token -> session
	byUser map[string]string        // username -> token
}

type memorySession struct {
	username  string
	expiresAt time.Time
}

func NewSessionService(client *redis.Client, clock clockwork.Clock) *SessionService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &SessionService{
		client: client,
		ttl:    SessionDuration,
		clock:  clock,
		tokens: make(map[string]memorySession),
		byUser: make(map[string]string),
	}
}

// CreateSession invalidates any existing session for username, so the 7-day
// timer restarts from this login, and returns a new token.
func (s *SessionService) CreateSession(ctx context.Context, username string) (string, error) {
	if err := s.InvalidateUserSessions(ctx, username); err != nil {
		return "", err
	}

	tokenBytes := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	token := base64.RawURLEncoding.EncodeToString(tokenBytes)

	if s.client == nil {
		s.mu.Lock()
		s.tokens[token] = memorySession{username: username, expiresAt: s.clock.Now().Add(s.ttl)}
		s.byUser[username] = token
		s.mu.Unlock()
		return token, nil
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, SessionKeyPrefix+token, username, s.ttl)
		pipe.Set(ctx, UserSessionKeyPrefix+username, token, s.ttl)
		return nil
	})
	if err != nil {
		return "", err
	}
	return token, nil
}

// ValidateSession returns the username behind token. An unknown or expired
// token is ("", false, nil); only backend failures return an error.
func (s *SessionService) ValidateSession(ctx context.Context, token string) (string, bool, error) {
	if token == "" {
		return "", false, nil
	}

	if s.client == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		sess, ok := s.tokens[token]
		if !ok {
			return "", false, nil
		}
		if !s.clock.Now().Before(sess.expiresAt) {
			s.dropLocked(token)
			return "", false, nil
		}
		return sess.username, true, nil
	}

	username, err := s.client.Get(ctx, SessionKeyPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return username, true, nil
}

// InvalidateSession removes a single token.
func (s *SessionService) InvalidateSession(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	if s.client == nil {
		s.mu.Lock()
		s.dropLocked(token)
		s.mu.Unlock()
		return nil
	}

	username, err := s.client.Get(ctx, SessionKeyPrefix+token).Result()
	if err == nil && username != "" {
		s.client.Del(ctx, UserSessionKeyPrefix+username)
	}
	return s.client.Del(ctx, SessionKeyPrefix+token).Err()
}

// InvalidateUserSessions drops the live session of username, if any. Called on
// login, rename, password change and account deletion.
func (s *SessionService) InvalidateUserSessions(ctx context.Context, username string) error {
	if s.client == nil {
		s.mu.Lock()
		if token, ok := s.byUser[username]; ok {
			s.dropLocked(token)
		}
		s.mu.Unlock()
		return nil
	}

	userKey := UserSessionKeyPrefix + username
	token, err := s.client.Get(ctx, userKey).Result()
	if err == nil && token != "" {
		s.client.Del(ctx, SessionKeyPrefix+token)
	} else if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return s.client.Del(ctx, userKey).Err()
}

func (s *SessionService) dropLocked(token string) {
	sess, ok := s.tokens[token]
	if !ok {
		return
	}
	delete(s.tokens, token)
	if s.byUser[sess.username] == token {
		delete(s.byUser, sess.username)
	}
}
