package sqlstore_test

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-accountsync/accessmask"
	"github.com/goliatone/go-accountsync/core"
	sqlstore "github.com/goliatone/go-accountsync/store/sql"
	persistence "github.com/goliatone/go-persistence-bun"
)

func TestMigrationSmokeApplySQLite(t *testing.T) {
	client, cleanup := newSQLiteClient(t)
	defer cleanup()

	for _, table := range []string{"sync_accounts", "sync_auth_states", "sync_trackers", "sync_access_keys"} {
		var tableName string
		if err := client.DB().NewRaw(
			"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?",
			table,
		).Scan(context.Background(), &tableName); err != nil {
			t.Fatalf("query sqlite master for %s: %v", table, err)
		}
		if tableName != table {
			t.Fatalf("expected %s table, got %q", table, tableName)
		}
	}
}

func TestAccountStore_SoftDeleteAndRestore(t *testing.T) {
	ctx := context.Background()
	factory := newFactory(t)
	accounts := factory.AccountStore()

	created, err := accounts.Create(ctx, core.CreateAccountInput{UserID: "usr_1", Name: "main", Character: true})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	loaded, err := accounts.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if loaded.UserID != "usr_1" || !loaded.Character {
		t.Fatalf("unexpected account %+v", loaded)
	}

	if err := accounts.SoftDelete(ctx, created.ID); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	if _, err := accounts.Get(ctx, created.ID); !errors.Is(err, core.ErrAccountNotFound) {
		t.Fatalf("expected soft-deleted account to read as missing, got %v", err)
	}
	if err := accounts.SoftDelete(ctx, created.ID); !errors.Is(err, core.ErrAccountNotFound) {
		t.Fatalf("expected second soft delete to report missing, got %v", err)
	}
	if err := accounts.Restore(ctx, created.ID); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if _, err := accounts.Get(ctx, created.ID); err != nil {
		t.Fatalf("expected restored account: %v", err)
	}
	if err := accounts.Restore(ctx, "missing"); !errors.Is(err, core.ErrAccountNotFound) {
		t.Fatalf("expected restore of unknown id to fail, got %v", err)
	}
}

func TestCredentialStore_KindsAreIndependentAndEncrypted(t *testing.T) {
	ctx := context.Background()
	factory := newFactory(t, sqlstore.WithSecretProvider(reversingSecrets{}))
	account, err := factory.AccountStore().Create(ctx, core.CreateAccountInput{UserID: "usr_1", Name: "main"})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	creds := factory.CredentialStore()
	identity := core.Identity{CharacterID: 42, CharacterName: "Alice", CorporationID: 7, CorporationName: "Acme"}

	withOAuth, err := creds.SetOAuthCredential(ctx, account.ID, core.OAuthCredential{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		ExpiresAt:    time.Now().Add(20 * time.Minute),
		Scopes:       "esi-assets.read_assets.v1",
		Identity:     identity,
	})
	if err != nil {
		t.Fatalf("set oauth credential: %v", err)
	}
	if withOAuth.OAuth == nil || withOAuth.OAuth.AccessToken != "access-1" || withOAuth.Key != nil {
		t.Fatalf("unexpected credential after oauth set %+v", withOAuth)
	}
	if withOAuth.Version != 1 {
		t.Fatalf("expected version 1, got %d", withOAuth.Version)
	}

	var stored []byte
	if err := factory.DB().NewRaw(
		"SELECT oauth_access_token FROM sync_accounts WHERE id = ?", account.ID,
	).Scan(ctx, &stored); err != nil {
		t.Fatalf("read raw token: %v", err)
	}
	if string(stored) == "access-1" {
		t.Fatalf("expected token encrypted at rest")
	}

	withKey, err := creds.SetKeyCredential(ctx, account.ID, core.KeyCredential{
		KeyID:            1001,
		VerificationCode: "vcode",
		Identity:         identity,
	})
	if err != nil {
		t.Fatalf("set key credential: %v", err)
	}
	if withKey.Key == nil || withKey.OAuth == nil {
		t.Fatalf("expected both kinds present, got %+v", withKey)
	}
	if withKey.Key.VerificationCode != "vcode" {
		t.Fatalf("expected decrypted verification code, got %q", withKey.Key.VerificationCode)
	}

	_, err = creds.SetKeyCredential(ctx, account.ID, core.KeyCredential{
		KeyID:    1002,
		Identity: core.Identity{CharacterID: 99},
	})
	if !errors.Is(err, core.ErrInconsistentUpdate) {
		t.Fatalf("expected inconsistent update for another character, got %v", err)
	}

	cleared, err := creds.ClearCredential(ctx, account.ID, core.CredentialKindOAuth)
	if err != nil {
		t.Fatalf("clear oauth: %v", err)
	}
	if cleared.OAuth != nil || cleared.Key == nil || cleared.Key.KeyID != 1001 {
		t.Fatalf("expected only the oauth credential cleared, got %+v", cleared)
	}
	if cleared.Version != 3 {
		t.Fatalf("expected version 3, got %d", cleared.Version)
	}
}

func TestCredentialStore_MissingAccount(t *testing.T) {
	ctx := context.Background()
	factory := newFactory(t)
	account, err := factory.AccountStore().Create(ctx, core.CreateAccountInput{UserID: "usr_1", Name: "main"})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	if err := factory.AccountStore().SoftDelete(ctx, account.ID); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	_, err = factory.CredentialStore().SetOAuthCredential(ctx, account.ID, core.OAuthCredential{AccessToken: "a"})
	if !errors.Is(err, core.ErrAccountNotFound) {
		t.Fatalf("expected account not found, got %v", err)
	}
}

func TestTrackerStore_SingleFlightUnderConcurrency(t *testing.T) {
	ctx := context.Background()
	factory := newFactory(t)
	trackers := factory.TrackerStore()
	scope := core.TrackerScope{Family: core.TrackerFamilyAccount, AccountID: "acct_1", Endpoint: "CHAR_ASSETS"}

	const workers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		ids     = map[string]int{}
		created int
		errs    []error
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tracker, wasCreated, err := trackers.CreateOrGetUnfinished(ctx, scope)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			ids[tracker.ID]++
			if wasCreated {
				created++
			}
		}()
	}
	wg.Wait()

	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(ids) != 1 || created != 1 {
		t.Fatalf("expected one tracker created once, got ids=%v created=%d", ids, created)
	}
}

func TestTrackerStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	factory := newFactory(t)
	trackers := factory.TrackerStore()
	scope := core.TrackerScope{Family: core.TrackerFamilyAccount, AccountID: "acct_1", Endpoint: "CHAR_ASSETS"}

	tracker, created, err := trackers.CreateOrGetUnfinished(ctx, scope)
	if err != nil || !created {
		t.Fatalf("create tracker: created=%v err=%v", created, err)
	}
	if tracker.State() != core.TrackerStateUnstarted {
		t.Fatalf("expected unstarted tracker, got %s", tracker.State())
	}

	startAt := time.UnixMilli(1_700_000_000_000).UTC()
	started, err := trackers.Start(ctx, tracker.ID, startAt)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if started.SyncStart == nil || !started.SyncStart.Equal(startAt) {
		t.Fatalf("unexpected start %v", started.SyncStart)
	}
	again, err := trackers.Start(ctx, tracker.ID, startAt.Add(time.Minute))
	if err != nil {
		t.Fatalf("restart: %v", err)
	}
	if !again.SyncStart.Equal(startAt) {
		t.Fatalf("expected start to be idempotent")
	}

	finished, err := trackers.Finish(ctx, tracker.ID, core.FinishTrackerInput{
		Status: core.TrackerStatusOK,
		Detail: "done",
		At:     startAt.Add(2 * time.Minute),
	})
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if finished.State() != core.TrackerStateFinished || finished.Status != core.TrackerStatusOK {
		t.Fatalf("unexpected finished tracker %+v", finished)
	}

	_, err = trackers.Finish(ctx, tracker.ID, core.FinishTrackerInput{Status: core.TrackerStatusError, At: time.Now()})
	if !errors.Is(err, core.ErrTrackerAlreadyFinished) {
		t.Fatalf("expected already finished, got %v", err)
	}
	if _, err := trackers.Start(ctx, tracker.ID, time.Now()); !errors.Is(err, core.ErrTrackerAlreadyFinished) {
		t.Fatalf("expected start on finished tracker to fail, got %v", err)
	}
	unchanged, err := trackers.Get(ctx, tracker.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if unchanged.Status != core.TrackerStatusOK || unchanged.Detail != "done" {
		t.Fatalf("expected finished tracker unchanged, got %+v", unchanged)
	}

	next, created, err := trackers.CreateOrGetUnfinished(ctx, scope)
	if err != nil || !created || next.ID == tracker.ID {
		t.Fatalf("expected a new tracker after finish: created=%v err=%v", created, err)
	}
	if _, err := trackers.Get(ctx, "missing"); !errors.Is(err, core.ErrTrackerNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestTrackerStore_ForceFinishUnstartedReference(t *testing.T) {
	ctx := context.Background()
	factory := newFactory(t)
	trackers := factory.TrackerStore()

	tracker, _, err := trackers.CreateOrGetUnfinished(ctx, core.TrackerScope{Family: core.TrackerFamilyReference})
	if err != nil {
		t.Fatalf("create reference tracker: %v", err)
	}
	if tracker.Endpoint != core.DefaultReferenceEndpoint || tracker.AccountID != "" {
		t.Fatalf("unexpected reference tracker %+v", tracker)
	}
	at := time.UnixMilli(1_700_000_100_000).UTC()
	forced, err := trackers.ForceFinish(ctx, tracker.ID, at, core.ForceFinishDetail)
	if err != nil {
		t.Fatalf("force finish: %v", err)
	}
	if forced.Status != core.TrackerStatusWarning || forced.Detail != core.ForceFinishDetail {
		t.Fatalf("unexpected forced tracker %+v", forced)
	}
	if !forced.SyncStart.Equal(*forced.SyncEnd) || !forced.SyncEnd.Equal(at) {
		t.Fatalf("expected start == end == at, got %v %v", forced.SyncStart, forced.SyncEnd)
	}

	again, err := trackers.ForceFinish(ctx, tracker.ID, at.Add(time.Hour), "other")
	if err != nil {
		t.Fatalf("second force finish: %v", err)
	}
	if again.Detail != core.ForceFinishDetail || !again.SyncEnd.Equal(at) {
		t.Fatalf("expected force finish on finished tracker to be a no-op, got %+v", again)
	}
}

func TestTrackerStore_HistoryOrdersSameMillisecondByID(t *testing.T) {
	ctx := context.Background()
	trackers := newFactory(t).TrackerStore()
	at := time.UnixMilli(1_700_000_000_000).UTC()
	scope := core.TrackerScope{Family: core.TrackerFamilyAccount, AccountID: "acct_tie", Endpoint: "CHAR_ASSETS"}

	ids := make([]string, 0, 3)
	for i := 0; i < 3; i++ {
		tracker, _, err := trackers.CreateOrGetUnfinished(ctx, scope)
		if err != nil {
			t.Fatalf("create tracker: %v", err)
		}
		if _, err := trackers.Start(ctx, tracker.ID, at); err != nil {
			t.Fatalf("start tracker: %v", err)
		}
		if _, err := trackers.Finish(ctx, tracker.ID, core.FinishTrackerInput{Status: core.TrackerStatusOK, At: at}); err != nil {
			t.Fatalf("finish tracker: %v", err)
		}
		ids = append(ids, tracker.ID)
	}
	slices.Sort(ids)
	slices.Reverse(ids)

	for attempt := 0; attempt < 2; attempt++ {
		page, err := trackers.History(ctx, scope, core.HistoryWindow{Before: core.NoCursor, Limit: 3})
		if err != nil {
			t.Fatalf("history: %v", err)
		}
		got := make([]string, 0, len(page))
		for _, tracker := range page {
			got = append(got, tracker.ID)
		}
		if !slices.Equal(got, ids) {
			t.Fatalf("expected id-descending order %v for equal start times, got %v", ids, got)
		}
	}

	// The cursor is exclusive, so the rest of the same-millisecond group is skipped.
	next, err := trackers.History(ctx, scope, core.HistoryWindow{Before: at.UnixMilli(), Limit: 3})
	if err != nil {
		t.Fatalf("history next page: %v", err)
	}
	if len(next) != 0 {
		t.Fatalf("expected no trackers before the shared start, got %d", len(next))
	}
}

func TestTrackerStore_HistoryAndListings(t *testing.T) {
	ctx := context.Background()
	factory := newFactory(t)
	trackers := factory.TrackerStore()
	base := time.UnixMilli(1_700_000_000_000).UTC()

	run := func(endpoint string, offset time.Duration, status core.TrackerStatus) core.Tracker {
		t.Helper()
		scope := core.TrackerScope{Family: core.TrackerFamilyAccount, AccountID: "acct_1", Endpoint: endpoint}
		tracker, _, err := trackers.CreateOrGetUnfinished(ctx, scope)
		if err != nil {
			t.Fatalf("create tracker: %v", err)
		}
		if _, err := trackers.Start(ctx, tracker.ID, base.Add(offset)); err != nil {
			t.Fatalf("start tracker: %v", err)
		}
		finished, err := trackers.Finish(ctx, tracker.ID, core.FinishTrackerInput{Status: status, At: base.Add(offset + time.Second)})
		if err != nil {
			t.Fatalf("finish tracker: %v", err)
		}
		return finished
	}
	run("CHAR_ASSETS", 0, core.TrackerStatusOK)
	run("CHAR_ASSETS", time.Minute, core.TrackerStatusError)
	third := run("CHAR_ASSETS", 2*time.Minute, core.TrackerStatusOK)
	run("CHAR_WALLET_BALANCE", 3*time.Minute, core.TrackerStatusOK)

	pending, _, err := trackers.CreateOrGetUnfinished(ctx, core.TrackerScope{
		Family: core.TrackerFamilyAccount, AccountID: "acct_1", Endpoint: "CHAR_CONTACTS",
	})
	if err != nil {
		t.Fatalf("create pending tracker: %v", err)
	}

	scope := core.TrackerScope{Family: core.TrackerFamilyAccount, AccountID: "acct_1", Endpoint: "CHAR_ASSETS"}
	page, err := trackers.History(ctx, scope, core.HistoryWindow{Before: core.NoCursor, Limit: 2})
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(page) != 2 || page[0].ID != third.ID {
		t.Fatalf("expected newest two CHAR_ASSETS trackers, got %+v", page)
	}
	cursor := page[1].SyncStart.UnixMilli()
	rest, err := trackers.History(ctx, scope, core.HistoryWindow{Before: cursor, Limit: 10})
	if err != nil {
		t.Fatalf("history page 2: %v", err)
	}
	if len(rest) != 1 || !rest[0].SyncStart.Equal(base) {
		t.Fatalf("expected the oldest tracker on page 2, got %+v", rest)
	}

	all, err := trackers.History(ctx, core.TrackerScope{Family: core.TrackerFamilyAccount, AccountID: "acct_1"},
		core.HistoryWindow{Before: core.NoCursor, Limit: 10})
	if err != nil {
		t.Fatalf("history all endpoints: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("expected 4 started trackers across endpoints, got %d", len(all))
	}

	unfinished, err := trackers.ListUnfinished(ctx, core.UnfinishedFilter{Family: core.TrackerFamilyAccount})
	if err != nil {
		t.Fatalf("list unfinished: %v", err)
	}
	if len(unfinished) != 1 || unfinished[0].ID != pending.ID {
		t.Fatalf("expected the pending tracker, got %+v", unfinished)
	}
	started, err := trackers.ListUnfinished(ctx, core.UnfinishedFilter{StartedOnly: true})
	if err != nil {
		t.Fatalf("list started: %v", err)
	}
	if len(started) != 0 {
		t.Fatalf("expected no started unfinished trackers, got %d", len(started))
	}

	since, err := trackers.ListFinishedSince(ctx, core.TrackerScope{Family: core.TrackerFamilyAccount, AccountID: "acct_1"},
		base.Add(90*time.Second))
	if err != nil {
		t.Fatalf("list finished since: %v", err)
	}
	if len(since) != 2 {
		t.Fatalf("expected 2 trackers finished since cutoff, got %d", len(since))
	}
}

func TestAuthStateStore_ConsumeIsSingleUse(t *testing.T) {
	ctx := context.Background()
	factory := newFactory(t)
	states := factory.AuthStateStore()

	state, err := states.Create(ctx, core.AuthStateInput{UserID: "usr_1", AccountID: "acct_1", Scopes: "a b", TTL: time.Minute})
	if err != nil {
		t.Fatalf("create state: %v", err)
	}
	consumed, err := states.Consume(ctx, state.Token)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if consumed.AccountID != "acct_1" || consumed.Scopes != "a b" {
		t.Fatalf("unexpected consumed state %+v", consumed)
	}
	if _, err := states.Consume(ctx, state.Token); !errors.Is(err, core.ErrAuthStateNotFound) {
		t.Fatalf("expected replay to fail, got %v", err)
	}

	expired, err := states.Create(ctx, core.AuthStateInput{UserID: "usr_1", AccountID: "acct_1", TTL: -time.Second})
	if err != nil {
		t.Fatalf("create expired: %v", err)
	}
	if _, err := states.Consume(ctx, expired.Token); !errors.Is(err, core.ErrAuthStateNotFound) {
		t.Fatalf("expected expired state rejected, got %v", err)
	}
}

func TestAuthStateStore_PurgeExpired(t *testing.T) {
	ctx := context.Background()
	factory := newFactory(t)
	states := factory.AuthStates()

	for i := 0; i < 3; i++ {
		if _, err := states.Create(ctx, core.AuthStateInput{UserID: "u", AccountID: "a", TTL: -time.Second}); err != nil {
			t.Fatalf("create expired: %v", err)
		}
	}
	live, err := states.Create(ctx, core.AuthStateInput{UserID: "u", AccountID: "a", TTL: time.Hour})
	if err != nil {
		t.Fatalf("create live: %v", err)
	}
	purged, err := states.PurgeExpired(ctx, time.Now())
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if purged != 3 {
		t.Fatalf("expected 3 purged, got %d", purged)
	}
	if _, err := states.Consume(ctx, live.Token); err != nil {
		t.Fatalf("expected live state kept: %v", err)
	}
}

func TestAccessKeyStore_CRUD(t *testing.T) {
	ctx := context.Background()
	factory := newFactory(t)
	account, err := factory.AccountStore().Create(ctx, core.CreateAccountInput{UserID: "usr_1", Name: "main"})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	keys := factory.AccessKeyStore()
	mask := accessmask.NewMask(16).Set(0).Set(9)
	expiry := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)

	created, err := keys.Create(ctx, core.AccessKey{AccountID: account.ID, Name: "reader", Expiry: expiry, Limit: -1, Mask: mask})
	if err != nil {
		t.Fatalf("create key: %v", err)
	}
	if created.ID == "" || !created.Mask.Equal(mask) {
		t.Fatalf("unexpected created key %+v", created)
	}
	if _, err := keys.Create(ctx, core.AccessKey{AccountID: account.ID, Name: "reader", Limit: -1, Mask: mask}); !errors.Is(err, core.ErrAccessKeyNameInUse) {
		t.Fatalf("expected name in use, got %v", err)
	}

	created.Name = "reader-v2"
	created.Limit = 10
	updated, err := keys.Update(ctx, created)
	if err != nil {
		t.Fatalf("update key: %v", err)
	}
	if updated.Name != "reader-v2" || updated.Limit != 10 {
		t.Fatalf("unexpected updated key %+v", updated)
	}
	loaded, err := keys.Get(ctx, account.ID, created.ID)
	if err != nil {
		t.Fatalf("get key: %v", err)
	}
	if !loaded.Expiry.Equal(expiry) || !loaded.Mask.Equal(mask) {
		t.Fatalf("unexpected loaded key %+v", loaded)
	}
	if _, err := keys.Get(ctx, "other-account", created.ID); !errors.Is(err, core.ErrAccessKeyNotFound) {
		t.Fatalf("expected key scoped to its account, got %v", err)
	}

	listed, err := keys.List(ctx, account.ID)
	if err != nil {
		t.Fatalf("list keys: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("expected one key, got %d", len(listed))
	}
	if err := keys.Delete(ctx, account.ID, created.ID); err != nil {
		t.Fatalf("delete key: %v", err)
	}
	if err := keys.Delete(ctx, account.ID, created.ID); !errors.Is(err, core.ErrAccessKeyNotFound) {
		t.Fatalf("expected second delete to report missing, got %v", err)
	}
}

func TestRepositoryFactory_WiresService(t *testing.T) {
	ctx := context.Background()
	client, cleanup := newSQLiteClient(t)
	defer cleanup()

	svc, err := core.NewService(core.DefaultConfig(),
		core.WithPersistenceClient(client),
		core.WithRepositoryFactory(sqlstore.NewRepositoryFactory()),
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	deps := svc.Dependencies()
	if _, ok := deps.AuthStateStore.(*sqlstore.AuthStateStore); !ok {
		t.Fatalf("expected sql auth state store, got %T", deps.AuthStateStore)
	}
	if _, ok := deps.AccessKeyStore.(*sqlstore.AccessKeyStore); !ok {
		t.Fatalf("expected sql access key store, got %T", deps.AccessKeyStore)
	}

	account, err := deps.AccountStore.Create(ctx, core.CreateAccountInput{UserID: "usr_1", Name: "main"})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	got, err := svc.GetAccount(ctx, core.AccountRequest{Caller: core.Caller{UserID: "usr_1"}, AccountID: account.ID})
	if err != nil {
		t.Fatalf("get account through service: %v", err)
	}
	if got.ID != account.ID {
		t.Fatalf("unexpected account %+v", got)
	}
}

func TestResolveBunDB_RejectsUnsupportedClients(t *testing.T) {
	if _, err := sqlstore.NewRepositoryFactory().BuildStores(nil); err == nil {
		t.Fatalf("expected nil client rejected")
	}
	if _, err := sqlstore.NewRepositoryFactory().BuildStores("dsn"); err == nil {
		t.Fatalf("expected unsupported client rejected")
	}
}

func newFactory(t *testing.T, opts ...sqlstore.FactoryOption) *sqlstore.RepositoryFactory {
	t.Helper()
	client, cleanup := newSQLiteClient(t)
	t.Cleanup(cleanup)
	factory, err := sqlstore.NewRepositoryFactoryFromPersistence(client, opts...)
	if err != nil {
		t.Fatalf("new repository factory: %v", err)
	}
	return factory
}

func newSQLiteClient(t *testing.T) (*persistence.Client, func()) {
	t.Helper()

	dsn := fmt.Sprintf(
		"file:accountsync-test-%d?mode=memory&cache=shared&_foreign_keys=on",
		time.Now().UnixNano(),
	)
	client, err := sqlstore.Open(context.Background(), sqlstore.DatabaseConfig{
		Driver:      sqlstore.DriverSQLite,
		DSN:         dsn,
		PingTimeout: time.Second,
		Migrate:     true,
	})
	if err != nil {
		t.Fatalf("open sqlite client: %v", err)
	}
	return client, func() {
		_ = client.Close()
	}
}

// reversingSecrets is enough to prove secrets never reach the row as given.
type reversingSecrets struct{}

func (reversingSecrets) Encrypt(_ context.Context, plaintext []byte) ([]byte, error) {
	return reverse(plaintext), nil
}

func (reversingSecrets) Decrypt(_ context.Context, ciphertext []byte) ([]byte, error) {
	return reverse(ciphertext), nil
}

func reverse(in []byte) []byte {
	out := make([]byte, len(in))
	for i, b := range in {
		out[len(in)-1-i] = b
	}
	return out
}
