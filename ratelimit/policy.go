// Package ratelimit tracks upstream throttling signals per host and refuses
// calls while a host is known to be throttled.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-accountsync/core"
	goerrors "github.com/goliatone/go-errors"
)

// Upstream response headers. The error limit counts failed requests in the
// current window; when it reaches zero every call fails until the reset.
const (
	HeaderErrorLimitRemain = "X-Esi-Error-Limit-Remain"
	HeaderErrorLimitReset  = "X-Esi-Error-Limit-Reset"
	HeaderRetryAfter       = "Retry-After"

	// StatusEnhanceYourCalm is sent once the error limit is exhausted.
	StatusEnhanceYourCalm = 420
)

var ErrStateNotFound = errors.New("ratelimit: state not found")

type Key struct {
	Host   string
	Bucket string
}

type State struct {
	Key            Key
	ErrorsRemain   int
	ResetAt        *time.Time
	ThrottledUntil *time.Time
	LastStatus     int
	Attempts       int
	UpdatedAt      time.Time
}

type StateStore interface {
	Get(ctx context.Context, key Key) (State, error)
	Upsert(ctx context.Context, state State) error
}

type ThrottledError struct {
	Host       string
	RetryAfter time.Duration
}

func (e ThrottledError) Error() string {
	return fmt.Sprintf("ratelimit: upstream %q throttled for %s", strings.TrimSpace(e.Host), e.RetryAfter)
}

func (e ThrottledError) ToServiceError() *goerrors.Error {
	metadata := map[string]any{"host": strings.TrimSpace(e.Host)}
	if e.RetryAfter > 0 {
		metadata["retry_after_ms"] = e.RetryAfter.Milliseconds()
	}
	return goerrors.New(e.Error(), goerrors.CategoryRateLimit).
		WithCode(http.StatusTooManyRequests).
		WithTextCode(core.ErrorUpstreamThrottled).
		WithMetadata(metadata)
}

// Response is what the policy needs from an upstream response.
type Response struct {
	StatusCode int
	Header     http.Header
}

type AdaptivePolicy struct {
	Store          StateStore
	Now            func() time.Time
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

func NewAdaptivePolicy(store StateStore) *AdaptivePolicy {
	return &AdaptivePolicy{
		Store:          store,
		Now:            func() time.Time { return time.Now().UTC() },
		InitialBackoff: time.Second,
		MaxBackoff:     time.Minute,
	}
}

// BeforeCall returns a ThrottledError while the host is throttled.
func (p *AdaptivePolicy) BeforeCall(ctx context.Context, key Key) error {
	if p == nil || p.Store == nil {
		return nil
	}
	key = normalizeKey(key)
	state, err := p.Store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrStateNotFound) {
			return nil
		}
		return err
	}

	now := p.now()
	if until := state.ThrottledUntil; until != nil && now.Before(*until) {
		return ThrottledError{Host: key.Host, RetryAfter: until.Sub(now)}
	}
	if state.ErrorsRemain == 0 && state.ResetAt != nil && now.Before(*state.ResetAt) {
		return ThrottledError{Host: key.Host, RetryAfter: state.ResetAt.Sub(now)}
	}
	return nil
}

// AfterCall records the throttling signals of a response.
func (p *AdaptivePolicy) AfterCall(ctx context.Context, key Key, res Response) error {
	if p == nil || p.Store == nil {
		return nil
	}
	key = normalizeKey(key)
	now := p.now()
	state, err := p.Store.Get(ctx, key)
	if err != nil && !errors.Is(err, ErrStateNotFound) {
		return err
	}
	if errors.Is(err, ErrStateNotFound) {
		state = State{Key: key, ErrorsRemain: -1}
	}

	state.LastStatus = res.StatusCode
	state.UpdatedAt = now
	if remain, ok := headerInt(res.Header, HeaderErrorLimitRemain); ok {
		state.ErrorsRemain = remain
	}
	if reset, ok := headerInt(res.Header, HeaderErrorLimitReset); ok && reset >= 0 {
		resetAt := now.Add(time.Duration(reset) * time.Second)
		state.ResetAt = &resetAt
	}

	if isThrottled(res.StatusCode, state, now) {
		state.Attempts++
		delay, ok := retryAfter(res.Header, now)
		if !ok && state.ResetAt != nil && state.ResetAt.After(now) {
			delay, ok = state.ResetAt.Sub(now), true
		}
		if !ok {
			delay = p.nextBackoff(state.Attempts)
		}
		until := now.Add(delay)
		state.ThrottledUntil = &until
		return p.Store.Upsert(ctx, state)
	}

	state.Attempts = 0
	state.ThrottledUntil = nil
	return p.Store.Upsert(ctx, state)
}

func (p *AdaptivePolicy) now() time.Time {
	if p != nil && p.Now != nil {
		return p.Now().UTC()
	}
	return time.Now().UTC()
}

func (p *AdaptivePolicy) nextBackoff(attempt int) time.Duration {
	initial := p.InitialBackoff
	if initial <= 0 {
		initial = time.Second
	}
	maximum := p.MaxBackoff
	if maximum <= 0 {
		maximum = time.Minute
	}
	delay := initial
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= maximum {
			return maximum
		}
	}
	return delay
}

func isThrottled(statusCode int, state State, now time.Time) bool {
	switch statusCode {
	case http.StatusTooManyRequests, StatusEnhanceYourCalm:
		return true
	}
	return state.ErrorsRemain == 0 && state.ResetAt != nil && state.ResetAt.After(now)
}

func retryAfter(header http.Header, now time.Time) (time.Duration, bool) {
	raw := strings.TrimSpace(header.Get(HeaderRetryAfter))
	if raw == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(raw); err == nil {
		if seconds <= 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	if retryAt, err := http.ParseTime(raw); err == nil && retryAt.After(now) {
		return retryAt.Sub(now), true
	}
	return 0, false
}

func headerInt(header http.Header, key string) (int, bool) {
	value := strings.TrimSpace(header.Get(key))
	if value == "" {
		return 0, false
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, false
	}
	return parsed, true
}

func normalizeKey(key Key) Key {
	return Key{
		Host:   strings.TrimSpace(strings.ToLower(key.Host)),
		Bucket: strings.TrimSpace(strings.ToLower(key.Bucket)),
	}
}

type MemoryStateStore struct {
	mu    sync.RWMutex
	items map[Key]State
}

func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{items: map[Key]State{}}
}

func (s *MemoryStateStore) Get(_ context.Context, key Key) (State, error) {
	if s == nil {
		return State{}, fmt.Errorf("ratelimit: state store is nil")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.items[normalizeKey(key)]
	if !ok {
		return State{}, ErrStateNotFound
	}
	return state, nil
}

func (s *MemoryStateStore) Upsert(_ context.Context, state State) error {
	if s == nil {
		return fmt.Errorf("ratelimit: state store is nil")
	}
	state.Key = normalizeKey(state.Key)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[state.Key] = state
	return nil
}
