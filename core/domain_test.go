package core

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestTrackerScopeNormalize(t *testing.T) {
	ref := TrackerScope{Family: TrackerFamilyReference, AccountID: "acct_1"}.Normalize()
	if ref.AccountID != "" || ref.Endpoint != DefaultReferenceEndpoint {
		t.Fatalf("unexpected reference scope %+v", ref)
	}
	if err := ref.Validate(); err != nil {
		t.Fatalf("expected reference scope valid: %v", err)
	}

	acct := TrackerScope{AccountID: " acct_1 ", Endpoint: " CHAR_ASSETS "}.Normalize()
	if acct.Family != TrackerFamilyAccount || acct.AccountID != "acct_1" || acct.Endpoint != "CHAR_ASSETS" {
		t.Fatalf("unexpected account scope %+v", acct)
	}
	if acct.Key() != "account:acct_1:CHAR_ASSETS" {
		t.Fatalf("unexpected key %q", acct.Key())
	}

	if err := (TrackerScope{Family: TrackerFamilyAccount, Endpoint: "CHAR_ASSETS"}).Validate(); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected missing account to be invalid, got %v", err)
	}
	if err := (TrackerScope{Family: "ship", AccountID: "a", Endpoint: "e"}).Validate(); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected unknown family to be invalid, got %v", err)
	}
}

func TestTrackerState(t *testing.T) {
	now := time.Now().UTC()
	tracker := Tracker{}
	if tracker.State() != TrackerStateUnstarted {
		t.Fatalf("expected UNSTARTED")
	}
	tracker.SyncStart = &now
	if tracker.State() != TrackerStateStarted {
		t.Fatalf("expected STARTED")
	}
	tracker.SyncEnd = &now
	if tracker.State() != TrackerStateFinished || !tracker.Finished() {
		t.Fatalf("expected FINISHED")
	}
}

func TestCredentialRedacted(t *testing.T) {
	original := Credential{
		Key:   &KeyCredential{KeyID: 1, VerificationCode: "vcode"},
		OAuth: &OAuthCredential{AccessToken: "a", RefreshToken: "r", Scopes: "s"},
	}
	redacted := original.Redacted()
	if redacted.Key.VerificationCode != "" || redacted.OAuth.AccessToken != "" || redacted.OAuth.RefreshToken != "" {
		t.Fatalf("expected secrets removed, got %+v %+v", redacted.Key, redacted.OAuth)
	}
	if original.Key.VerificationCode != "vcode" || original.OAuth.AccessToken != "a" {
		t.Fatalf("expected original credential untouched")
	}
	if redacted.OAuth.Scopes != "s" || redacted.Key.KeyID != 1 {
		t.Fatalf("expected non-secret fields kept")
	}
}

func TestNormalizeHistoryWindow(t *testing.T) {
	cfg := HistoryConfig{DefaultMaxResults: 20, MaxResultsCeiling: 100}
	cases := []struct {
		before int64
		max    int
		want   HistoryWindow
	}{
		{before: -1, max: 0, want: HistoryWindow{Before: NoCursor, Limit: 20}},
		{before: -50, max: -3, want: HistoryWindow{Before: NoCursor, Limit: 20}},
		{before: 1000, max: 500, want: HistoryWindow{Before: 1000, Limit: 100}},
		{before: 0, max: 7, want: HistoryWindow{Before: 0, Limit: 7}},
	}
	for _, tc := range cases {
		if got := NormalizeHistoryWindow(tc.before, tc.max, cfg); got != tc.want {
			t.Fatalf("NormalizeHistoryWindow(%d, %d) = %+v, want %+v", tc.before, tc.max, got, tc.want)
		}
	}

	start := time.UnixMilli(1000).UTC()
	window := HistoryWindow{Before: 1000, Limit: 1}
	if window.Includes(Tracker{SyncStart: &start}) {
		t.Fatalf("expected start == before to be excluded")
	}
	if (HistoryWindow{Before: NoCursor}).Includes(Tracker{}) {
		t.Fatalf("expected unstarted tracker excluded")
	}
}

func TestMemoryAuthStateStore_SingleUseAndExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryAuthStateStore()

	state, err := store.Create(ctx, AuthStateInput{UserID: "usr_1", AccountID: "acct_1", Scopes: "a b", TTL: time.Minute})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(state.Token) != 32 {
		t.Fatalf("expected 32 char token, got %d", len(state.Token))
	}
	consumed, err := store.Consume(ctx, state.Token)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if consumed.AccountID != "acct_1" || consumed.Scopes != "a b" {
		t.Fatalf("unexpected consumed state %+v", consumed)
	}
	if _, err := store.Consume(ctx, state.Token); !errors.Is(err, ErrAuthStateNotFound) {
		t.Fatalf("expected second consume to fail, got %v", err)
	}

	expired, err := store.Create(ctx, AuthStateInput{UserID: "usr_1", AccountID: "acct_1", TTL: -time.Millisecond})
	if err != nil {
		t.Fatalf("create expired: %v", err)
	}
	if _, err := store.Consume(ctx, expired.Token); !errors.Is(err, ErrAuthStateNotFound) {
		t.Fatalf("expected expired state to be absent, got %v", err)
	}
}

func TestMemoryAuthStateStore_PurgeExpired(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryAuthStateStore()
	if _, err := store.Create(ctx, AuthStateInput{UserID: "u", AccountID: "a", TTL: -time.Second}); err != nil {
		t.Fatalf("create: %v", err)
	}
	live, err := store.Create(ctx, AuthStateInput{UserID: "u", AccountID: "a", TTL: time.Hour})
	if err != nil {
		t.Fatalf("create live: %v", err)
	}
	purged, err := store.PurgeExpired(ctx, time.Now())
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if purged != 1 {
		t.Fatalf("expected 1 purged state, got %d", purged)
	}
	if _, err := store.Consume(ctx, live.Token); err != nil {
		t.Fatalf("expected live state kept: %v", err)
	}
}

func TestCallerCapabilityChecker(t *testing.T) {
	ctx := context.Background()
	checker := CallerCapabilityChecker{}
	account := Account{ID: "acct_1", UserID: "usr_1"}

	if err := checker.RequireAccountAccess(ctx, Caller{}, account); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("expected anonymous rejected, got %v", err)
	}
	if err := checker.RequireAccountAccess(ctx, Caller{UserID: "usr_2"}, account); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected non-owner forbidden, got %v", err)
	}
	if err := checker.RequireAccountAccess(ctx, Caller{UserID: "usr_1"}, account); err != nil {
		t.Fatalf("expected owner allowed: %v", err)
	}
	if err := checker.RequireAccountAccess(ctx, Caller{UserID: "ops", Admin: true}, account); err != nil {
		t.Fatalf("expected admin allowed: %v", err)
	}
	if err := checker.RequireAdmin(ctx, Caller{UserID: "usr_1"}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected non-admin forbidden, got %v", err)
	}
}

func TestUpstreamConfigURLs(t *testing.T) {
	cfg := UpstreamConfig{AppPath: "https://app.example/", CallbackPath: "/cb", ReauthFragment: "account"}
	if got := cfg.CallbackURL(); got != "https://app.example/cb" {
		t.Fatalf("unexpected callback url %q", got)
	}
	if got := cfg.CompletionURL(); got != "https://app.example/#account" {
		t.Fatalf("unexpected completion url %q", got)
	}
}
