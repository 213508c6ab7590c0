package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	DefaultTTL       = 24 * 7 * time.Hour
	sessionKeyPrefix = "gymprogram-session||"
)

var (
	ErrNoSession      = errors.New("no session for token")
	ErrSessionExpired = errors.New("session expired")
)

var _ Resolver = (*SessionResolver)(nil)
var _ Resolver = (*TestResolver)(nil)

// Resolver maps a session token to the id of the logged in user. Login
// itself is handled by the account service, which writes the sessions.
type Resolver interface {
	UserID(ctx context.Context, token string) (string, error)
}

type SessionResolver struct {
	ttl         time.Duration
	redisClient redis.Cmdable
}

func NewSessionResolver(ttl time.Duration, redisClient redis.Cmdable) *SessionResolver {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &SessionResolver{
		ttl:         ttl,
		redisClient: redisClient,
	}
}

func SessionKey(token string) string {
	return sessionKeyPrefix + token
}

// SessionValue is the stored form of a session: "<userID>|<createdAtUnix>".
func SessionValue(userID string, createdAt time.Time) string {
	return fmt.Sprintf("%s|%d", userID, createdAt.Unix())
}

func (r *SessionResolver) UserID(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrNoSession
	}

	val, err := r.redisClient.Get(ctx, SessionKey(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNoSession
		}
		return "", err
	}

	userID, createdAtUnixStr, found := strings.Cut(val, "|")
	if !found || userID == "" {
		return "", fmt.Errorf("malformed session value for token")
	}
	createdAtUnix, err := strconv.ParseInt(createdAtUnixStr, 10, 64)
	if err != nil {
		return "", fmt.Errorf("parse session created at: %w", err)
	}

	if time.Since(time.Unix(createdAtUnix, 0)) > r.ttl {
		return "", ErrSessionExpired
	}
	return userID, nil
}

// TestResolver resolves tokens from an in-memory map.
type TestResolver struct {
	Sessions map[string]string
}

func NewTestResolver() *TestResolver {
	return &TestResolver{
		Sessions: map[string]string{},
	}
}

func (r *TestResolver) UserID(_ context.Context, token string) (string, error) {
	userID, ok := r.Sessions[token]
	if !ok {
		return "", ErrNoSession
	}
	return userID, nil
}
