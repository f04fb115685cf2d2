// Package sessions keeps the server-side record of issued JWTs so that a
// signed token is only honoured while its entry is still present.
package sessions

import (
	"context"
	"errors"
	"fmt"
	"time"

	config "github.com/anjiri1684/studyhub/configs"
)

var ErrUnavailable = errors.New("session store unavailable")

type Kind string

const (
	Access  Kind = "access"
	Refresh Kind = "refresh"
)

// Record is the JSON value stored under each token key.
type Record struct {
	UserID    string    `json:"userId"`
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (r Record) Expired(now time.Time) bool {
	return !r.ExpiresAt.After(now)
}

type Counts struct {
	AccessTokens  int64 `json:"accessTokens"`
	RefreshTokens int64 `json:"refreshTokens"`
	Total         int64 `json:"total"`
}

type Store interface {
	Save(ctx context.Context, kind Kind, userID, token string, ttl time.Duration) error
	IsValid(ctx context.Context, kind Kind, userID, token string) (bool, error)
	Remove(ctx context.Context, kind Kind, userID, token string) error
	// RemoveToken deletes the token whichever kind it was issued as.
	RemoveToken(ctx context.Context, userID, token string) error
	RemoveAllUserTokens(ctx context.Context, userID string) error
	ActiveSessions(ctx context.Context, userID string) (Counts, error)
	CleanupExpiredTokens(ctx context.Context) (int, error)
}

// Default is the store used by the HTTP layer. main installs the Redis store.
var Default Store

func tokenKey(kind Kind, userID, token string) string {
	return fmt.Sprintf("%s_token:%s:%s", kind, userID, token)
}

func userSetKey(kind Kind, userID string) string {
	return fmt.Sprintf("user_%s_tokens:%s", kind, userID)
}

func AccessTTL() time.Duration {
	return config.DurationOrDefault("ACCESS_TOKEN_TTL", 15*time.Minute)
}

func RefreshTTL() time.Duration {
	return config.DurationOrDefault("REFRESH_TOKEN_TTL", 24*time.Hour)
}

func RegistrationTTL() time.Duration {
	return config.DurationOrDefault("REGISTRATION_TOKEN_TTL", 24*time.Hour)
}
