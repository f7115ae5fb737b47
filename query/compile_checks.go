package query

import (
	"github.com/goliatone/go-accountsync/catalog"
	"github.com/goliatone/go-accountsync/core"
	gocmd "github.com/goliatone/go-command"
)

var (
	_ gocmd.Querier[GetAccountMessage, core.Account]              = (*GetAccountQuery)(nil)
	_ gocmd.Querier[GetCredentialMessage, core.Credential]        = (*GetCredentialQuery)(nil)
	_ gocmd.Querier[GetTrackerMessage, core.Tracker]              = (*GetTrackerQuery)(nil)
	_ gocmd.Querier[TrackerHistoryMessage, []core.Tracker]        = (*TrackerHistoryQuery)(nil)
	_ gocmd.Querier[ListUnfinishedMessage, []core.Tracker]        = (*ListUnfinishedQuery)(nil)
	_ gocmd.Querier[EndpointStatsMessage, []core.EndpointStats]   = (*EndpointStatsQuery)(nil)
	_ gocmd.Querier[ListAccessKeysMessage, []core.AccessKeyView]  = (*ListAccessKeysQuery)(nil)
	_ gocmd.Querier[ListScopesMessage, []catalog.Scope]           = (*ListScopesQuery)(nil)
	_ gocmd.Querier[ListSyncEndpointsMessage, []catalog.Endpoint] = (*ListSyncEndpointsQuery)(nil)

	_ Reader = (*core.Service)(nil)
)
