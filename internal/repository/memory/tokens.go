package memory

import (
	"context"
	"fmt"
	"gcoin-shop/internal/repository"
	"sync"
	"time"
)

type tokenEntry struct {
	userID    string
	expiresAt time.Time
}

// TokenStorage is the in-process counterpart of the Redis refresh token store.
type TokenStorage struct {
	mu     sync.Mutex
	tokens map[string]tokenEntry
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenStorage(ttl time.Duration) *TokenStorage {
	return &TokenStorage{
		tokens: make(map[string]tokenEntry),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (s *TokenStorage) StoreRefreshToken(_ context.Context, userID, refreshToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := tokenEntry{userID: userID}
	if s.ttl > 0 {
		entry.expiresAt = s.now().Add(s.ttl)
	}
	s.tokens[refreshToken] = entry

	return nil
}

func (s *TokenStorage) ConsumeRefreshToken(_ context.Context, refreshToken string) (string, error) {
	const op = "storage.memory.ConsumeRefreshToken"

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.tokens[refreshToken]
	if !ok {
		return "", fmt.Errorf("%s: %w", op, repository.ErrTokenNotFound)
	}
	delete(s.tokens, refreshToken)

	if !entry.expiresAt.IsZero() && s.now().After(entry.expiresAt) {
		return "", fmt.Errorf("%s: %w", op, repository.ErrTokenNotFound)
	}

	return entry.userID, nil
}

func (s *TokenStorage) Close() error {
	return nil
}
