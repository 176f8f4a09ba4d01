package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/yourorg/orderdesk/internal/domain"
	"github.com/yourorg/orderdesk/internal/infrastructure/redis"
	"github.com/yourorg/orderdesk/pkg/cache"
)

// TokenKeyPrefix namespaces persisted console tokens in Redis.
const TokenKeyPrefix = "orderdesk:token:"

// RedisTokenStore persists one console session's token in Redis. Each load
// extends the ttl.
type RedisTokenStore struct {
	redis  *redis.Client
	key    string
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisTokenStore scopes a store to the console session sessionID.
func NewRedisTokenStore(client *redis.Client, sessionID string, ttl time.Duration, logger *slog.Logger) *RedisTokenStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisTokenStore{
		redis:  client,
		key:    TokenKeyPrefix + sessionID,
		ttl:    ttl,
		logger: logger,
	}
}

func (s *RedisTokenStore) Load(ctx context.Context) (string, error) {
	token, err := s.redis.Get(ctx, s.key)
	if err != nil {
		if redis.IsNil(err) {
			return "", domain.ErrNoToken
		}
		return "", fmt.Errorf("failed to load token: %w", err)
	}
	if err := s.redis.Touch(ctx, s.key, s.ttl); err != nil {
		s.logger.Warn("failed to extend token ttl", slog.String("error", err.Error()))
	}
	return token, nil
}

func (s *RedisTokenStore) Save(ctx context.Context, token string) error {
	if err := s.redis.Set(ctx, s.key, token, s.ttl); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	return nil
}

func (s *RedisTokenStore) Remove(ctx context.Context) error {
	if err := s.redis.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}

// MemoryTokenStore keeps tokens in process memory, for running the console
// without Redis. Tokens do not survive a restart.
type MemoryTokenStore struct {
	entries *cache.Cache[string]
	key     string
	ttl     time.Duration
}

// NewMemoryTokens returns the shared map MemoryTokenStores are scoped onto.
func NewMemoryTokens() *cache.Cache[string] {
	return cache.New[string]()
}

func NewMemoryTokenStore(entries *cache.Cache[string], sessionID string, ttl time.Duration) *MemoryTokenStore {
	return &MemoryTokenStore{entries: entries, key: TokenKeyPrefix + sessionID, ttl: ttl}
}

func (s *MemoryTokenStore) Load(context.Context) (string, error) {
	token, ok := s.entries.Get(s.key)
	if !ok {
		return "", domain.ErrNoToken
	}
	return token, nil
}

func (s *MemoryTokenStore) Save(_ context.Context, token string) error {
	s.entries.Set(s.key, token, s.ttl)
	return nil
}

func (s *MemoryTokenStore) Remove(context.Context) error {
	s.entries.Delete(s.key)
	return nil
}

// FileTokenStore persists the CLI's token in a file readable only by the
// user.
type FileTokenStore struct {
	path string
}

func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{path: path}
}

// DefaultTokenPath is ~/.orderdesk/token.
func DefaultTokenPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to find home directory: %w", err)
	}
	return filepath.Join(home, ".orderdesk", "token"), nil
}

func (s *FileTokenStore) Path() string { return s.path }

func (s *FileTokenStore) Load(context.Context) (string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", domain.ErrNoToken
		}
		return "", fmt.Errorf("failed to read token file: %w", err)
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", domain.ErrNoToken
	}
	return token, nil
}

func (s *FileTokenStore) Save(_ context.Context, token string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}
	if err := os.WriteFile(s.path, []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

func (s *FileTokenStore) Remove(context.Context) error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove token file: %w", err)
	}
	return nil
}
