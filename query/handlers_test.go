package query

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-accountsync/catalog"
	"github.com/goliatone/go-accountsync/core"
	goerrors "github.com/goliatone/go-errors"
)

type stubReader struct {
	history []core.HistoryRequest
}

func (s *stubReader) GetAccount(_ context.Context, req core.AccountRequest) (core.Account, error) {
	return core.Account{ID: req.AccountID, UserID: req.Caller.UserID}, nil
}

func (s *stubReader) GetCredential(_ context.Context, req core.AccountRequest) (core.Credential, error) {
	return core.Credential{AccountID: req.AccountID}, nil
}

func (s *stubReader) GetTracker(_ context.Context, req core.TrackerRequest) (core.Tracker, error) {
	return core.Tracker{ID: req.TrackerID}, nil
}

func (s *stubReader) TrackerHistory(_ context.Context, req core.HistoryRequest) ([]core.Tracker, error) {
	s.history = append(s.history, req)
	start := time.UnixMilli(1_700_000_000_000).UTC()
	return []core.Tracker{{ID: "trk_1", AccountID: req.AccountID, SyncStart: &start}}, nil
}

func (s *stubReader) ListUnfinishedTrackers(_ context.Context, req core.ListUnfinishedRequest) ([]core.Tracker, error) {
	if !req.Caller.Admin {
		return nil, core.ErrForbidden
	}
	return []core.Tracker{{ID: "trk_2"}}, nil
}

func (s *stubReader) EndpointStats(context.Context, core.EndpointStatsRequest) ([]core.EndpointStats, error) {
	return []core.EndpointStats{{Endpoint: "CHAR_ASSETS", Attempts: 3, Failures: 1}}, nil
}

func (s *stubReader) ListAccessKeys(_ context.Context, req core.AccessKeyRequest) ([]core.AccessKeyView, error) {
	return []core.AccessKeyView{{ID: "key_1", AccountID: req.AccountID}}, nil
}

func (s *stubReader) ListScopes(_ context.Context, req core.CatalogRequest) ([]catalog.Scope, error) {
	return []catalog.Scope{{Name: "esi-assets.read_assets.v1", Character: req.Character}}, nil
}

func (s *stubReader) ListSyncEndpoints(_ context.Context, req core.CatalogRequest) ([]catalog.Endpoint, error) {
	return []catalog.Endpoint{{Name: "CHAR_ASSETS", Character: req.Character}}, nil
}

var _ Reader = (*stubReader)(nil)

func TestQueries_DelegateToReader(t *testing.T) {
	ctx := context.Background()
	reader := &stubReader{}

	account, err := NewGetAccountQuery(reader).Query(ctx, GetAccountMessage{Request: core.AccountRequest{
		Caller:    core.Caller{UserID: "usr_1"},
		AccountID: "acc_1",
	}})
	if err != nil || account.ID != "acc_1" || account.UserID != "usr_1" {
		t.Fatalf("unexpected account %+v err %v", account, err)
	}

	credential, err := NewGetCredentialQuery(reader).Query(ctx, GetCredentialMessage{Request: core.AccountRequest{AccountID: "acc_1"}})
	if err != nil || credential.AccountID != "acc_1" {
		t.Fatalf("unexpected credential %+v err %v", credential, err)
	}

	tracker, err := NewGetTrackerQuery(reader).Query(ctx, GetTrackerMessage{Request: core.TrackerRequest{TrackerID: "trk_1"}})
	if err != nil || tracker.ID != "trk_1" {
		t.Fatalf("unexpected tracker %+v err %v", tracker, err)
	}

	history, err := NewTrackerHistoryQuery(reader).Query(ctx, TrackerHistoryMessage{Request: core.HistoryRequest{
		AccountID:  "acc_1",
		Before:     core.NoCursor,
		MaxResults: 10,
	}})
	if err != nil || len(history) != 1 {
		t.Fatalf("unexpected history %+v err %v", history, err)
	}
	if len(reader.history) != 1 || reader.history[0].MaxResults != 10 || reader.history[0].Before != core.NoCursor {
		t.Fatalf("expected history request to pass through, got %+v", reader.history)
	}

	if _, err := NewListUnfinishedQuery(reader).Query(ctx, ListUnfinishedMessage{}); err == nil {
		t.Fatalf("expected non-admin unfinished listing to fail")
	}
	unfinished, err := NewListUnfinishedQuery(reader).Query(ctx, ListUnfinishedMessage{Request: core.ListUnfinishedRequest{Caller: core.SystemCaller}})
	if err != nil || len(unfinished) != 1 {
		t.Fatalf("unexpected unfinished %+v err %v", unfinished, err)
	}

	stats, err := NewEndpointStatsQuery(reader).Query(ctx, EndpointStatsMessage{Request: core.EndpointStatsRequest{AccountID: "acc_1"}})
	if err != nil || len(stats) != 1 || stats[0].Failures != 1 {
		t.Fatalf("unexpected stats %+v err %v", stats, err)
	}

	keys, err := NewListAccessKeysQuery(reader).Query(ctx, ListAccessKeysMessage{Request: core.AccessKeyRequest{AccountID: "acc_1"}})
	if err != nil || len(keys) != 1 || keys[0].AccountID != "acc_1" {
		t.Fatalf("unexpected keys %+v err %v", keys, err)
	}

	scopes, err := NewListScopesQuery(reader).Query(ctx, ListScopesMessage{Request: core.CatalogRequest{Character: true}})
	if err != nil || len(scopes) != 1 || !scopes[0].Character {
		t.Fatalf("unexpected scopes %+v err %v", scopes, err)
	}
	endpoints, err := NewListSyncEndpointsQuery(reader).Query(ctx, ListSyncEndpointsMessage{Request: core.CatalogRequest{Character: true}})
	if err != nil || len(endpoints) != 1 || !endpoints[0].Character {
		t.Fatalf("unexpected endpoints %+v err %v", endpoints, err)
	}
}

func TestMessages_ValidateReturnsRichErrors(t *testing.T) {
	cases := map[string]interface{ Validate() error }{
		"get account":        GetAccountMessage{},
		"get tracker":        GetTrackerMessage{},
		"history no account": TrackerHistoryMessage{},
		"history bad cursor": TrackerHistoryMessage{Request: core.HistoryRequest{AccountID: "acc_1", Before: -5}},
		"list keys":          ListAccessKeysMessage{},
		"endpoint stats":     EndpointStatsMessage{},
	}
	for name, msg := range cases {
		err := msg.Validate()
		if err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
		var rich *goerrors.Error
		if !goerrors.As(err, &rich) {
			t.Fatalf("%s: expected go-errors envelope, got %T", name, err)
		}
		if rich.TextCode != core.ErrorBadInput {
			t.Fatalf("%s: expected %q text code, got %q", name, core.ErrorBadInput, rich.TextCode)
		}
	}

	reference := TrackerHistoryMessage{Request: core.HistoryRequest{Family: core.TrackerFamilyReference, Before: core.NoCursor}}
	if err := reference.Validate(); err != nil {
		t.Fatalf("expected reference history without account to validate, got %v", err)
	}
}

func TestQuery_NilReaderReturnsRichError(t *testing.T) {
	var q *TrackerHistoryQuery
	_, err := q.Query(context.Background(), TrackerHistoryMessage{})
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.Category != goerrors.CategoryInternal {
		t.Fatalf("expected internal category, got %q", rich.Category)
	}
}
