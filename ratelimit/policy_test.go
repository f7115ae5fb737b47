package ratelimit

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/goliatone/go-accountsync/core"
)

func fixedPolicy(now *time.Time) *AdaptivePolicy {
	policy := NewAdaptivePolicy(NewMemoryStateStore())
	policy.Now = func() time.Time { return *now }
	return policy
}

func TestAdaptivePolicy_BeforeCallAllowsWhenNoState(t *testing.T) {
	policy := NewAdaptivePolicy(NewMemoryStateStore())
	if err := policy.BeforeCall(context.Background(), Key{Host: "esi.evetech.net"}); err != nil {
		t.Fatalf("expected no error when no state exists, got %v", err)
	}
}

func TestAdaptivePolicy_ExhaustedErrorLimitThrottlesUntilReset(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0).UTC()
	policy := fixedPolicy(&now)
	key := Key{Host: "ESI.evetech.net"}

	header := http.Header{}
	header.Set(HeaderErrorLimitRemain, "0")
	header.Set(HeaderErrorLimitReset, "30")
	if err := policy.AfterCall(ctx, key, Response{StatusCode: http.StatusNotFound, Header: header}); err != nil {
		t.Fatalf("after call: %v", err)
	}

	err := policy.BeforeCall(ctx, Key{Host: "esi.evetech.net"})
	var throttled ThrottledError
	if !errors.As(err, &throttled) {
		t.Fatalf("expected throttled error, got %v", err)
	}
	if throttled.RetryAfter != 30*time.Second {
		t.Fatalf("expected retry after 30s, got %s", throttled.RetryAfter)
	}

	now = now.Add(31 * time.Second)
	if err := policy.BeforeCall(ctx, key); err != nil {
		t.Fatalf("expected calls to resume after reset, got %v", err)
	}
}

func TestAdaptivePolicy_EnhanceYourCalmUsesRetryAfter(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0).UTC()
	policy := fixedPolicy(&now)
	key := Key{Host: "esi.evetech.net"}

	header := http.Header{}
	header.Set(HeaderRetryAfter, "12")
	if err := policy.AfterCall(ctx, key, Response{StatusCode: StatusEnhanceYourCalm, Header: header}); err != nil {
		t.Fatalf("after call: %v", err)
	}
	err := policy.BeforeCall(ctx, key)
	var throttled ThrottledError
	if !errors.As(err, &throttled) || throttled.RetryAfter != 12*time.Second {
		t.Fatalf("expected 12s throttle, got %v", err)
	}

	now = now.Add(13 * time.Second)
	if err := policy.AfterCall(ctx, key, Response{StatusCode: http.StatusOK, Header: http.Header{}}); err != nil {
		t.Fatalf("after call ok: %v", err)
	}
	state, err := policy.Store.Get(ctx, key)
	if err != nil {
		t.Fatalf("get state: %v", err)
	}
	if state.ThrottledUntil != nil || state.Attempts != 0 {
		t.Fatalf("expected throttle to clear after success, got %+v", state)
	}
}

func TestAdaptivePolicy_BacksOffWithoutHints(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0).UTC()
	policy := fixedPolicy(&now)
	policy.MaxBackoff = 3 * time.Second
	key := Key{Host: "login.eveonline.com"}

	for i := 0; i < 3; i++ {
		if err := policy.AfterCall(ctx, key, Response{StatusCode: http.StatusTooManyRequests}); err != nil {
			t.Fatalf("after call %d: %v", i, err)
		}
	}
	state, err := policy.Store.Get(ctx, key)
	if err != nil {
		t.Fatalf("get state: %v", err)
	}
	if state.Attempts != 3 || state.ThrottledUntil == nil {
		t.Fatalf("unexpected state %+v", state)
	}
	if got := state.ThrottledUntil.Sub(now); got != 3*time.Second {
		t.Fatalf("expected backoff capped at 3s, got %s", got)
	}
}

func TestAdaptivePolicy_ServerErrorsDoNotThrottle(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0).UTC()
	policy := fixedPolicy(&now)
	key := Key{Host: "esi.evetech.net"}

	header := http.Header{}
	header.Set(HeaderErrorLimitRemain, "87")
	header.Set(HeaderErrorLimitReset, "40")
	if err := policy.AfterCall(ctx, key, Response{StatusCode: http.StatusBadGateway, Header: header}); err != nil {
		t.Fatalf("after call: %v", err)
	}
	if err := policy.BeforeCall(ctx, key); err != nil {
		t.Fatalf("expected calls allowed with error budget left, got %v", err)
	}
}

func TestThrottledError_ToServiceError(t *testing.T) {
	mapped := ThrottledError{Host: "esi.evetech.net", RetryAfter: 3 * time.Second}.ToServiceError()
	if mapped == nil {
		t.Fatalf("expected mapped error")
	}
	if mapped.TextCode != core.ErrorUpstreamThrottled {
		t.Fatalf("expected %q text code, got %q", core.ErrorUpstreamThrottled, mapped.TextCode)
	}
	if mapped.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status code 429, got %d", mapped.Code)
	}
}
