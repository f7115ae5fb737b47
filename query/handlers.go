package query

import (
	"context"

	"github.com/goliatone/go-accountsync/catalog"
	"github.com/goliatone/go-accountsync/core"
)

type AccountReader interface {
	GetAccount(ctx context.Context, req core.AccountRequest) (core.Account, error)
	GetCredential(ctx context.Context, req core.AccountRequest) (core.Credential, error)
}

type TrackerReader interface {
	GetTracker(ctx context.Context, req core.TrackerRequest) (core.Tracker, error)
	TrackerHistory(ctx context.Context, req core.HistoryRequest) ([]core.Tracker, error)
	ListUnfinishedTrackers(ctx context.Context, req core.ListUnfinishedRequest) ([]core.Tracker, error)
	EndpointStats(ctx context.Context, req core.EndpointStatsRequest) ([]core.EndpointStats, error)
}

type AccessKeyReader interface {
	ListAccessKeys(ctx context.Context, req core.AccessKeyRequest) ([]core.AccessKeyView, error)
}

type CatalogReader interface {
	ListScopes(ctx context.Context, req core.CatalogRequest) ([]catalog.Scope, error)
	ListSyncEndpoints(ctx context.Context, req core.CatalogRequest) ([]catalog.Endpoint, error)
}

// Reader is the full read surface of core.Service.
type Reader interface {
	AccountReader
	TrackerReader
	AccessKeyReader
	CatalogReader
}

type GetAccountQuery struct {
	reader AccountReader
}

func NewGetAccountQuery(reader AccountReader) *GetAccountQuery {
	return &GetAccountQuery{reader: reader}
}

func (q *GetAccountQuery) Query(ctx context.Context, msg GetAccountMessage) (core.Account, error) {
	if q == nil || q.reader == nil {
		return core.Account{}, queryDependencyError("query: account reader is required")
	}
	return q.reader.GetAccount(ctx, msg.Request)
}

type GetCredentialQuery struct {
	reader AccountReader
}

func NewGetCredentialQuery(reader AccountReader) *GetCredentialQuery {
	return &GetCredentialQuery{reader: reader}
}

func (q *GetCredentialQuery) Query(ctx context.Context, msg GetCredentialMessage) (core.Credential, error) {
	if q == nil || q.reader == nil {
		return core.Credential{}, queryDependencyError("query: account reader is required")
	}
	return q.reader.GetCredential(ctx, msg.Request)
}

type GetTrackerQuery struct {
	reader TrackerReader
}

func NewGetTrackerQuery(reader TrackerReader) *GetTrackerQuery {
	return &GetTrackerQuery{reader: reader}
}

func (q *GetTrackerQuery) Query(ctx context.Context, msg GetTrackerMessage) (core.Tracker, error) {
	if q == nil || q.reader == nil {
		return core.Tracker{}, queryDependencyError("query: tracker reader is required")
	}
	return q.reader.GetTracker(ctx, msg.Request)
}

type TrackerHistoryQuery struct {
	reader TrackerReader
}

func NewTrackerHistoryQuery(reader TrackerReader) *TrackerHistoryQuery {
	return &TrackerHistoryQuery{reader: reader}
}

func (q *TrackerHistoryQuery) Query(ctx context.Context, msg TrackerHistoryMessage) ([]core.Tracker, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: tracker reader is required")
	}
	return q.reader.TrackerHistory(ctx, msg.Request)
}

type ListUnfinishedQuery struct {
	reader TrackerReader
}

func NewListUnfinishedQuery(reader TrackerReader) *ListUnfinishedQuery {
	return &ListUnfinishedQuery{reader: reader}
}

func (q *ListUnfinishedQuery) Query(ctx context.Context, msg ListUnfinishedMessage) ([]core.Tracker, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: tracker reader is required")
	}
	return q.reader.ListUnfinishedTrackers(ctx, msg.Request)
}

type EndpointStatsQuery struct {
	reader TrackerReader
}

func NewEndpointStatsQuery(reader TrackerReader) *EndpointStatsQuery {
	return &EndpointStatsQuery{reader: reader}
}

func (q *EndpointStatsQuery) Query(ctx context.Context, msg EndpointStatsMessage) ([]core.EndpointStats, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: tracker reader is required")
	}
	return q.reader.EndpointStats(ctx, msg.Request)
}

type ListAccessKeysQuery struct {
	reader AccessKeyReader
}

func NewListAccessKeysQuery(reader AccessKeyReader) *ListAccessKeysQuery {
	return &ListAccessKeysQuery{reader: reader}
}

func (q *ListAccessKeysQuery) Query(ctx context.Context, msg ListAccessKeysMessage) ([]core.AccessKeyView, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: access key reader is required")
	}
	return q.reader.ListAccessKeys(ctx, msg.Request)
}

type ListScopesQuery struct {
	reader CatalogReader
}

func NewListScopesQuery(reader CatalogReader) *ListScopesQuery {
	return &ListScopesQuery{reader: reader}
}

func (q *ListScopesQuery) Query(ctx context.Context, msg ListScopesMessage) ([]catalog.Scope, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: catalog reader is required")
	}
	return q.reader.ListScopes(ctx, msg.Request)
}

type ListSyncEndpointsQuery struct {
	reader CatalogReader
}

func NewListSyncEndpointsQuery(reader CatalogReader) *ListSyncEndpointsQuery {
	return &ListSyncEndpointsQuery{reader: reader}
}

func (q *ListSyncEndpointsQuery) Query(ctx context.Context, msg ListSyncEndpointsMessage) ([]catalog.Endpoint, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: catalog reader is required")
	}
	return q.reader.ListSyncEndpoints(ctx, msg.Request)
}
