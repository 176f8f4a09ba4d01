package repository

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/yourorg/orderdesk/internal/domain"
	"github.com/yourorg/orderdesk/internal/infrastructure/redis"
)

func exerciseTokenStore(t *testing.T, s domain.TokenStore) {
	t.Helper()
	ctx := context.Background()

	if _, err := s.Load(ctx); !errors.Is(err, domain.ErrNoToken) {
		t.Fatalf("expected ErrNoToken on empty store, got %v", err)
	}
	if err := s.Save(ctx, "tok-1"); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := s.Load(ctx)
	if err != nil || got != "tok-1" {
		t.Fatalf("load = %q, %v", got, err)
	}
	if err := s.Remove(ctx); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := s.Load(ctx); !errors.Is(err, domain.ErrNoToken) {
		t.Fatalf("expected ErrNoToken after remove, got %v", err)
	}
	if err := s.Remove(ctx); err != nil {
		t.Fatalf("removing twice should succeed, got %v", err)
	}
}

func TestFileTokenStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token")
	s := NewFileTokenStore(path)
	exerciseTokenStore(t, s)

	if err := s.Save(context.Background(), "tok-2"); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("token file should be private, got %v", perm)
	}
}

func TestMemoryTokenStoreIsScopedBySession(t *testing.T) {
	shared := NewMemoryTokens()
	a := NewMemoryTokenStore(shared, "a", time.Hour)
	b := NewMemoryTokenStore(shared, "b", time.Hour)
	exerciseTokenStore(t, a)

	_ = a.Save(context.Background(), "tok-a")
	if _, err := b.Load(context.Background()); !errors.Is(err, domain.ErrNoToken) {
		t.Fatalf("sessions must not share tokens, got %v", err)
	}
}

func TestRedisTokenStore(t *testing.T) {
	url := os.Getenv("ORDERDESK_TEST_REDIS_URL")
	if url == "" {
		t.Skip("ORDERDESK_TEST_REDIS_URL not set")
	}
	client, err := redis.NewClient(context.Background(), url, nil)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer client.Close()

	exerciseTokenStore(t, NewRedisTokenStore(client, "test-"+t.Name(), time.Minute, nil))
}
