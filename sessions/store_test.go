package sessions

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
)

func exerciseStore(t *testing.T, s Store, advance func(time.Duration)) {
	t.Helper()
	ctx := context.Background()
	uid := uuid.NewString()

	if err := s.Save(ctx, Access, uid, "a1", time.Minute); err != nil {
		t.Fatalf("save access: %v", err)
	}
	if err := s.Save(ctx, Refresh, uid, "r1", time.Hour); err != nil {
		t.Fatalf("save refresh: %v", err)
	}

	ok, err := s.IsValid(ctx, Access, uid, "a1")
	if err != nil || !ok {
		t.Fatalf("IsValid(access) = %v, %v; want true", ok, err)
	}
	if ok, _ := s.IsValid(ctx, Refresh, uid, "a1"); ok {
		t.Fatal("access token must not validate as refresh")
	}

	counts, err := s.ActiveSessions(ctx, uid)
	if err != nil {
		t.Fatalf("active sessions: %v", err)
	}
	if counts.AccessTokens != 1 || counts.RefreshTokens != 1 || counts.Total != 2 {
		t.Fatalf("counts = %+v", counts)
	}

	if err := s.RemoveToken(ctx, uid, "r1"); err != nil {
		t.Fatalf("remove token: %v", err)
	}
	if ok, _ := s.IsValid(ctx, Refresh, uid, "r1"); ok {
		t.Fatal("refresh token still valid after RemoveToken")
	}

	if err := s.Save(ctx, Access, uid, "a2", time.Minute); err != nil {
		t.Fatalf("save second access: %v", err)
	}
	if err := s.RemoveAllUserTokens(ctx, uid); err != nil {
		t.Fatalf("remove all: %v", err)
	}
	counts, _ = s.ActiveSessions(ctx, uid)
	if counts.Total != 0 {
		t.Fatalf("counts after remove all = %+v", counts)
	}

	if advance != nil {
		if err := s.Save(ctx, Access, uid, "short", time.Second); err != nil {
			t.Fatalf("save short: %v", err)
		}
		advance(2 * time.Second)
		if ok, _ := s.IsValid(ctx, Access, uid, "short"); ok {
			t.Fatal("expired token reported valid")
		}
	}
}

func TestMemoryStore(t *testing.T) {
	m := NewMemoryStore()
	now := time.Now()
	m.Now = func() time.Time { return now }
	exerciseStore(t, m, func(d time.Duration) { now = now.Add(d) })
}

func TestMemoryStoreCleanup(t *testing.T) {
	m := NewMemoryStore()
	now := time.Now()
	m.Now = func() time.Time { return now }
	ctx := context.Background()

	_ = m.Save(ctx, Access, "u1", "old", time.Minute)
	_ = m.Save(ctx, Refresh, "u1", "fresh", time.Hour)
	now = now.Add(10 * time.Minute)

	removed, err := m.CleanupExpiredTokens(ctx)
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	counts, _ := m.ActiveSessions(ctx, "u1")
	if counts.AccessTokens != 0 || counts.RefreshTokens != 1 {
		t.Fatalf("counts = %+v", counts)
	}
}

func TestRedisStore(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	s, err := NewRedisStore(context.Background(), url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer s.Close()

	now := time.Now()
	s.now = func() time.Time { return now }
	exerciseStore(t, s, func(d time.Duration) { now = now.Add(d) })
}

func TestKeyFormat(t *testing.T) {
	if got := tokenKey(Access, "u", "t"); got != "access_token:u:t" {
		t.Fatalf("tokenKey = %q", got)
	}
	if got := userSetKey(Refresh, "u"); got != "user_refresh_tokens:u" {
		t.Fatalf("userSetKey = %q", got)
	}
}
