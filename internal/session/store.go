// Package session implements server-side sessions stored in Redis. The
// browser cookie carries only a signed token naming the session ID; all
// session state, including pending flash messages, lives server-side.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// CookieName is the name of the session cookie.
const CookieName = "shapediary_session"

// TTL is the server-side session lifetime. Each authenticated request slides it.
const TTL = 7 * 24 * time.Hour

// ErrNoSession is returned when the token is invalid, expired, or the
// server-side session no longer exists.
var ErrNoSession = errors.New("no active session")

// Data is the state bound to an authenticated session.
type Data struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
}

// Store creates, resolves and destroys sessions.
type Store struct {
	redis  *redis.Client
	secret []byte
}

// NewStore returns a session store backed by the given Redis client.
func NewStore(rdb *redis.Client, secret string) *Store {
	return &Store{redis: rdb, secret: []byte(secret)}
}

func sessionKey(sid string) string {
	return "session:" + sid
}

func flashKey(sid string) string {
	return "session:" + sid + ":flash"
}

// Create establishes a new session for the user and returns the signed cookie value.
func (s *Store) Create(ctx context.Context, userID uint, username string) (string, error) {
	sid := uuid.New().String()

	payload, err := json.Marshal(Data{UserID: userID, Username: username})
	if err != nil {
		return "", err
	}
	if err := s.redis.Set(ctx, sessionKey(sid), payload, TTL).Err(); err != nil {
		return "", fmt.Errorf("failed to store session: %w", err)
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sid": sid,
		"iat": now.Unix(),
		"exp": now.Add(TTL).Unix(),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// Get resolves a cookie value to session data, sliding the TTL on success.
func (s *Store) Get(ctx context.Context, cookieValue string) (*Data, error) {
	sid, err := s.parseSID(cookieValue)
	if err != nil {
		return nil, ErrNoSession
	}

	raw, err := s.redis.Get(ctx, sessionKey(sid)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var data Data
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, ErrNoSession
	}

	s.redis.Expire(ctx, sessionKey(sid), TTL)
	return &data, nil
}

// Destroy tears down the session and any pending flash messages.
func (s *Store) Destroy(ctx context.Context, cookieValue string) {
	sid, err := s.parseSID(cookieValue)
	if err != nil {
		return
	}
	s.redis.Del(ctx, sessionKey(sid), flashKey(sid))
}

// AddFlash queues a one-shot message shown on the next rendered page.
func (s *Store) AddFlash(ctx context.Context, cookieValue, message string) {
	sid, err := s.parseSID(cookieValue)
	if err != nil {
		return
	}
	s.redis.RPush(ctx, flashKey(sid), message)
	s.redis.Expire(ctx, flashKey(sid), TTL)
}

// PopFlashes returns and clears all queued flash messages.
func (s *Store) PopFlashes(ctx context.Context, cookieValue string) []string {
	sid, err := s.parseSID(cookieValue)
	if err != nil {
		return nil
	}
	msgs, err := s.redis.LRange(ctx, flashKey(sid), 0, -1).Result()
	if err != nil || len(msgs) == 0 {
		return nil
	}
	s.redis.Del(ctx, flashKey(sid))
	return msgs
}

// parseSID validates the signed cookie token and extracts the session ID.
func (s *Store) parseSID(cookieValue string) (string, error) {
	if cookieValue == "" {
		return "", ErrNoSession
	}

	token, err := jwt.Parse(cookieValue, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrNoSession
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrNoSession
	}
	sid, ok := claims["sid"].(string)
	if !ok || sid == "" {
		return "", ErrNoSession
	}
	return sid, nil
}
