package accountsync

import (
	"fmt"

	accountcommand "github.com/goliatone/go-accountsync/command"
	accountquery "github.com/goliatone/go-accountsync/query"
)

type CommandQueryService interface {
	accountcommand.MutatingService
	accountquery.Reader
}

type Commands struct {
	CreateAccount      *accountcommand.CreateAccountCommand
	DeleteAccount      *accountcommand.DeleteAccountCommand
	RestoreAccount     *accountcommand.RestoreAccountCommand
	InitiateExchange   *accountcommand.InitiateExchangeCommand
	CompleteExchange   *accountcommand.CompleteExchangeCommand
	SetKeyCredential   *accountcommand.SetKeyCredentialCommand
	ClearCredential    *accountcommand.ClearCredentialCommand
	RequestSync        *accountcommand.RequestSyncCommand
	StartTracker       *accountcommand.StartTrackerCommand
	FinishTracker      *accountcommand.FinishTrackerCommand
	ForceFinishTracker *accountcommand.ForceFinishTrackerCommand
	SaveAccessKey      *accountcommand.SaveAccessKeyCommand
	DeleteAccessKey    *accountcommand.DeleteAccessKeyCommand
	PurgeExpiredStates *accountcommand.PurgeExpiredStatesCommand
}

type Queries struct {
	GetAccount        *accountquery.GetAccountQuery
	GetCredential     *accountquery.GetCredentialQuery
	GetTracker        *accountquery.GetTrackerQuery
	TrackerHistory    *accountquery.TrackerHistoryQuery
	ListUnfinished    *accountquery.ListUnfinishedQuery
	EndpointStats     *accountquery.EndpointStatsQuery
	ListAccessKeys    *accountquery.ListAccessKeysQuery
	ListScopes        *accountquery.ListScopesQuery
	ListSyncEndpoints *accountquery.ListSyncEndpointsQuery
}

// Facade exposes every public operation as a go-command handler. HTTP
// routers and schedulers dispatch through it instead of calling the
// service directly.
type Facade struct {
	service  CommandQueryService
	commands Commands
	queries  Queries
}

type FacadeOption func(*facadeOptions)

type facadeOptions struct {
	historyReader accountquery.TrackerReader
}

// WithTrackerReader serves tracker reads from a different reader, such as a
// replica-backed service.
func WithTrackerReader(reader accountquery.TrackerReader) FacadeOption {
	return func(options *facadeOptions) {
		options.historyReader = reader
	}
}

func NewFacade(service CommandQueryService, opts ...FacadeOption) (*Facade, error) {
	if service == nil {
		return nil, fmt.Errorf("accountsync: command/query service is required")
	}
	cfg := facadeOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	trackers := cfg.historyReader
	if trackers == nil {
		trackers = service
	}

	facade := &Facade{service: service}
	facade.commands = Commands{
		CreateAccount:      accountcommand.NewCreateAccountCommand(service),
		DeleteAccount:      accountcommand.NewDeleteAccountCommand(service),
		RestoreAccount:     accountcommand.NewRestoreAccountCommand(service),
		InitiateExchange:   accountcommand.NewInitiateExchangeCommand(service),
		CompleteExchange:   accountcommand.NewCompleteExchangeCommand(service),
		SetKeyCredential:   accountcommand.NewSetKeyCredentialCommand(service),
		ClearCredential:    accountcommand.NewClearCredentialCommand(service),
		RequestSync:        accountcommand.NewRequestSyncCommand(service),
		StartTracker:       accountcommand.NewStartTrackerCommand(service),
		FinishTracker:      accountcommand.NewFinishTrackerCommand(service),
		ForceFinishTracker: accountcommand.NewForceFinishTrackerCommand(service),
		SaveAccessKey:      accountcommand.NewSaveAccessKeyCommand(service),
		DeleteAccessKey:    accountcommand.NewDeleteAccessKeyCommand(service),
		PurgeExpiredStates: accountcommand.NewPurgeExpiredStatesCommand(service),
	}
	facade.queries = Queries{
		GetAccount:        accountquery.NewGetAccountQuery(service),
		GetCredential:     accountquery.NewGetCredentialQuery(service),
		GetTracker:        accountquery.NewGetTrackerQuery(trackers),
		TrackerHistory:    accountquery.NewTrackerHistoryQuery(trackers),
		ListUnfinished:    accountquery.NewListUnfinishedQuery(trackers),
		EndpointStats:     accountquery.NewEndpointStatsQuery(trackers),
		ListAccessKeys:    accountquery.NewListAccessKeysQuery(service),
		ListScopes:        accountquery.NewListScopesQuery(service),
		ListSyncEndpoints: accountquery.NewListSyncEndpointsQuery(service),
	}
	return facade, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Service() CommandQueryService {
	if f == nil {
		return nil
	}
	return f.service
}
