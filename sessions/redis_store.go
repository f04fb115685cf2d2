package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anjiri1684/studyhub/logger"
	goredis "github.com/redis/go-redis/v9"
)

type RedisStore struct {
	rdb *goredis.Client
	log *logger.Logger
	now func() time.Time
}

// NewRedisStore connects to the given redis:// URL and pings it once.
func NewRedisStore(ctx context.Context, url string) (*RedisStore, error) {
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("missing REDIS_URL")
	}
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.DialTimeout = 5 * time.Second

	rdb := goredis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisStore{
		rdb: rdb,
		log: logger.Log.With("service", "SessionStore"),
		now: time.Now,
	}, nil
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

func (s *RedisStore) Save(ctx context.Context, kind Kind, userID, token string, ttl time.Duration) error {
	now := s.now()
	raw, err := json.Marshal(Record{
		UserID:    userID,
		Token:     token,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	})
	if err != nil {
		return err
	}

	_, err = s.rdb.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.SetEx(ctx, tokenKey(kind, userID, token), raw, ttl)
		p.SAdd(ctx, userSetKey(kind, userID), token)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: save %s token: %v", ErrUnavailable, kind, err)
	}
	return nil
}

func (s *RedisStore) IsValid(ctx context.Context, kind Kind, userID, token string) (bool, error) {
	raw, err := s.rdb.Get(ctx, tokenKey(kind, userID, token)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: read %s token: %v", ErrUnavailable, kind, err)
	}

	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return false, nil
	}
	if rec.Expired(s.now()) {
		if err := s.Remove(ctx, kind, userID, token); err != nil {
			s.log.Warn("failed to drop expired token", "kind", kind, "user_id", userID, "error", err)
		}
		return false, nil
	}
	return true, nil
}

func (s *RedisStore) Remove(ctx context.Context, kind Kind, userID, token string) error {
	_, err := s.rdb.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.Del(ctx, tokenKey(kind, userID, token))
		p.SRem(ctx, userSetKey(kind, userID), token)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: remove %s token: %v", ErrUnavailable, kind, err)
	}
	return nil
}

func (s *RedisStore) RemoveToken(ctx context.Context, userID, token string) error {
	for _, kind := range []Kind{Access, Refresh} {
		n, err := s.rdb.Exists(ctx, tokenKey(kind, userID, token)).Result()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		if n > 0 {
			return s.Remove(ctx, kind, userID, token)
		}
	}
	return nil
}

func (s *RedisStore) RemoveAllUserTokens(ctx context.Context, userID string) error {
	for _, kind := range []Kind{Access, Refresh} {
		setKey := userSetKey(kind, userID)
		tokens, err := s.rdb.SMembers(ctx, setKey).Result()
		if err != nil {
			return fmt.Errorf("%w: list %s tokens: %v", ErrUnavailable, kind, err)
		}
		keys := make([]string, 0, len(tokens)+1)
		for _, t := range tokens {
			keys = append(keys, tokenKey(kind, userID, t))
		}
		keys = append(keys, setKey)
		if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("%w: delete %s tokens: %v", ErrUnavailable, kind, err)
		}
	}
	return nil
}

func (s *RedisStore) ActiveSessions(ctx context.Context, userID string) (Counts, error) {
	var access, refresh *goredis.IntCmd
	_, err := s.rdb.Pipelined(ctx, func(p goredis.Pipeliner) error {
		access = p.SCard(ctx, userSetKey(Access, userID))
		refresh = p.SCard(ctx, userSetKey(Refresh, userID))
		return nil
	})
	if err != nil {
		return Counts{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	c := Counts{AccessTokens: access.Val(), RefreshTokens: refresh.Val()}
	c.Total = c.AccessTokens + c.RefreshTokens
	return c, nil
}

// CleanupExpiredTokens walks every token key with SCAN and drops entries whose
// stored expiry has passed, then prunes set members whose key is gone.
func (s *RedisStore) CleanupExpiredTokens(ctx context.Context) (int, error) {
	removed := 0
	now := s.now()

	for _, kind := range []Kind{Access, Refresh} {
		iter := s.rdb.Scan(ctx, 0, string(kind)+"_token:*", 200).Iterator()
		for iter.Next(ctx) {
			key := iter.Val()
			raw, err := s.rdb.Get(ctx, key).Bytes()
			if errors.Is(err, goredis.Nil) {
				continue
			}
			if err != nil {
				return removed, fmt.Errorf("%w: %v", ErrUnavailable, err)
			}
			var rec Record
			if err := json.Unmarshal(raw, &rec); err != nil || rec.Expired(now) {
				if err := s.Remove(ctx, kind, rec.UserID, rec.Token); err != nil {
					return removed, err
				}
				if rec.Token == "" {
					s.rdb.Del(ctx, key)
				}
				removed++
			}
		}
		if err := iter.Err(); err != nil {
			return removed, fmt.Errorf("%w: scan: %v", ErrUnavailable, err)
		}

		sets := s.rdb.Scan(ctx, 0, "user_"+string(kind)+"_tokens:*", 200).Iterator()
		for sets.Next(ctx) {
			setKey := sets.Val()
			userID := strings.TrimPrefix(setKey, "user_"+string(kind)+"_tokens:")
			members, err := s.rdb.SMembers(ctx, setKey).Result()
			if err != nil {
				return removed, fmt.Errorf("%w: %v", ErrUnavailable, err)
			}
			for _, t := range members {
				n, err := s.rdb.Exists(ctx, tokenKey(kind, userID, t)).Result()
				if err != nil {
					return removed, fmt.Errorf("%w: %v", ErrUnavailable, err)
				}
				if n == 0 {
					s.rdb.SRem(ctx, setKey, t)
				}
			}
		}
		if err := sets.Err(); err != nil {
			return removed, fmt.Errorf("%w: scan: %v", ErrUnavailable, err)
		}
	}
	return removed, nil
}
