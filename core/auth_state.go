package core

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"
	"time"
)

const authStateTokenAttempts = 5

// MemoryAuthStateStore keeps authorization states in process. It is the
// default when no persistent store is configured.
type MemoryAuthStateStore struct {
	mu      sync.Mutex
	now     func() time.Time
	entries map[string]AuthState
}

func NewMemoryAuthStateStore() *MemoryAuthStateStore {
	return &MemoryAuthStateStore{
		now:     time.Now,
		entries: map[string]AuthState{},
	}
}

func (s *MemoryAuthStateStore) Create(_ context.Context, in AuthStateInput) (AuthState, error) {
	if s == nil {
		return AuthState{}, fmt.Errorf("core: auth state store is not configured")
	}
	now := s.now().UTC()
	state := AuthState{
		UserID:    strings.TrimSpace(in.UserID),
		AccountID: strings.TrimSpace(in.AccountID),
		Scopes:    in.Scopes,
		CreatedAt: now,
		ExpiresAt: now.Add(in.TTL),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for attempt := 0; attempt < authStateTokenAttempts; attempt++ {
		token, err := GenerateAuthStateToken()
		if err != nil {
			return AuthState{}, err
		}
		if _, exists := s.entries[token]; exists {
			continue
		}
		state.Token = token
		s.entries[token] = state
		return state, nil
	}
	return AuthState{}, fmt.Errorf("core: could not allocate a unique authorization state")
}

func (s *MemoryAuthStateStore) Consume(_ context.Context, token string) (AuthState, error) {
	if s == nil {
		return AuthState{}, fmt.Errorf("core: auth state store is not configured")
	}
	token = strings.TrimSpace(token)

	s.mu.Lock()
	state, ok := s.entries[token]
	if ok {
		delete(s.entries, token)
	}
	s.mu.Unlock()

	if !ok || state.Expired(s.now().UTC()) {
		return AuthState{}, ErrAuthStateNotFound
	}
	return state, nil
}

// PurgeExpired drops states that expired at or before the given time.
func (s *MemoryAuthStateStore) PurgeExpired(_ context.Context, before time.Time) (int, error) {
	if s == nil {
		return 0, fmt.Errorf("core: auth state store is not configured")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	purged := 0
	for token, state := range s.entries {
		if state.Expired(before) {
			delete(s.entries, token)
			purged++
		}
	}
	return purged, nil
}

// GenerateAuthStateToken returns 24 random bytes as unpadded base64url.
func GenerateAuthStateToken() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("core: generate authorization state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
