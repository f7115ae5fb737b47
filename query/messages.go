package query

import (
	"strings"

	"github.com/goliatone/go-accountsync/core"
)

const (
	TypeGetAccount        = "accountsync.query.account.get"
	TypeGetCredential     = "accountsync.query.credential.get"
	TypeGetTracker        = "accountsync.query.tracker.get"
	TypeTrackerHistory    = "accountsync.query.tracker.history"
	TypeListUnfinished    = "accountsync.query.tracker.unfinished"
	TypeEndpointStats     = "accountsync.query.tracker.endpoint_stats"
	TypeListAccessKeys    = "accountsync.query.access_key.list"
	TypeListScopes        = "accountsync.query.catalog.scopes"
	TypeListSyncEndpoints = "accountsync.query.catalog.endpoints"
)

type GetAccountMessage struct {
	Request core.AccountRequest
}

func (GetAccountMessage) Type() string { return TypeGetAccount }

func (m GetAccountMessage) Validate() error {
	return requireAccountID(m.Request.AccountID)
}

type GetCredentialMessage struct {
	Request core.AccountRequest
}

func (GetCredentialMessage) Type() string { return TypeGetCredential }

func (m GetCredentialMessage) Validate() error {
	return requireAccountID(m.Request.AccountID)
}

type GetTrackerMessage struct {
	Request core.TrackerRequest
}

func (GetTrackerMessage) Type() string { return TypeGetTracker }

func (m GetTrackerMessage) Validate() error {
	if strings.TrimSpace(m.Request.TrackerID) == "" {
		return queryValidationError("tracker_id", "tracker id is required")
	}
	return nil
}

type TrackerHistoryMessage struct {
	Request core.HistoryRequest
}

func (TrackerHistoryMessage) Type() string { return TypeTrackerHistory }

func (m TrackerHistoryMessage) Validate() error {
	if m.Request.Family != core.TrackerFamilyReference {
		if err := requireAccountID(m.Request.AccountID); err != nil {
			return err
		}
	}
	if m.Request.Before < core.NoCursor {
		return queryValidationError("before", "before must be -1 or a Unix millisecond timestamp")
	}
	return nil
}

type ListUnfinishedMessage struct {
	Request core.ListUnfinishedRequest
}

func (ListUnfinishedMessage) Type() string { return TypeListUnfinished }

func (ListUnfinishedMessage) Validate() error { return nil }

type EndpointStatsMessage struct {
	Request core.EndpointStatsRequest
}

func (EndpointStatsMessage) Type() string { return TypeEndpointStats }

func (m EndpointStatsMessage) Validate() error {
	return requireAccountID(m.Request.AccountID)
}

type ListAccessKeysMessage struct {
	Request core.AccessKeyRequest
}

func (ListAccessKeysMessage) Type() string { return TypeListAccessKeys }

func (m ListAccessKeysMessage) Validate() error {
	return requireAccountID(m.Request.AccountID)
}

type ListScopesMessage struct {
	Request core.CatalogRequest
}

func (ListScopesMessage) Type() string { return TypeListScopes }

func (ListScopesMessage) Validate() error { return nil }

type ListSyncEndpointsMessage struct {
	Request core.CatalogRequest
}

func (ListSyncEndpointsMessage) Type() string { return TypeListSyncEndpoints }

func (ListSyncEndpointsMessage) Validate() error { return nil }

func requireAccountID(accountID string) error {
	if strings.TrimSpace(accountID) == "" {
		return queryValidationError("account_id", "account id is required")
	}
	return nil
}
