package command

import (
	"context"

	"github.com/goliatone/go-accountsync/core"
	gocmd "github.com/goliatone/go-command"
)

type AccountService interface {
	CreateAccount(ctx context.Context, req core.CreateAccountRequest) (core.Account, error)
	DeleteAccount(ctx context.Context, req core.AccountRequest) error
	RestoreAccount(ctx context.Context, req core.AccountRequest) (core.Account, error)
}

type CredentialService interface {
	InitiateCredentialExchange(ctx context.Context, req core.InitiateExchangeRequest) (core.InitiateExchangeResult, error)
	CompleteCredentialExchange(ctx context.Context, req core.CompleteExchangeRequest) (core.CompleteExchangeResult, error)
	SetKeyCredential(ctx context.Context, req core.SetKeyCredentialRequest) (core.Credential, error)
	ClearCredential(ctx context.Context, req core.ClearCredentialRequest) (core.Credential, error)
}

type TrackerService interface {
	RequestSync(ctx context.Context, req core.RequestSyncRequest) (core.RequestSyncResult, error)
	StartTracker(ctx context.Context, req core.TrackerRequest) (core.Tracker, error)
	FinishTracker(ctx context.Context, req core.FinishTrackerRequest) (core.Tracker, error)
	ForceFinishTracker(ctx context.Context, req core.TrackerRequest) (core.Tracker, error)
}

type AccessKeyService interface {
	SaveAccessKey(ctx context.Context, req core.SaveAccessKeyRequest) (core.AccessKeyView, error)
	DeleteAccessKey(ctx context.Context, req core.AccessKeyRequest) error
}

type AuthStateService interface {
	PurgeExpiredAuthStates(ctx context.Context, req core.PurgeAuthStatesRequest) (int, error)
}

// MutatingService is the full write surface of core.Service.
type MutatingService interface {
	AccountService
	CredentialService
	TrackerService
	AccessKeyService
	AuthStateService
}

type CreateAccountCommand struct {
	service AccountService
}

func NewCreateAccountCommand(service AccountService) *CreateAccountCommand {
	return &CreateAccountCommand{service: service}
}

func (c *CreateAccountCommand) Execute(ctx context.Context, msg CreateAccountMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: account service is required")
	}
	out, err := c.service.CreateAccount(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type DeleteAccountCommand struct {
	service AccountService
}

func NewDeleteAccountCommand(service AccountService) *DeleteAccountCommand {
	return &DeleteAccountCommand{service: service}
}

func (c *DeleteAccountCommand) Execute(ctx context.Context, msg DeleteAccountMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: account service is required")
	}
	return c.service.DeleteAccount(ctx, msg.Request)
}

type RestoreAccountCommand struct {
	service AccountService
}

func NewRestoreAccountCommand(service AccountService) *RestoreAccountCommand {
	return &RestoreAccountCommand{service: service}
}

func (c *RestoreAccountCommand) Execute(ctx context.Context, msg RestoreAccountMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: account service is required")
	}
	out, err := c.service.RestoreAccount(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type InitiateExchangeCommand struct {
	service CredentialService
}

func NewInitiateExchangeCommand(service CredentialService) *InitiateExchangeCommand {
	return &InitiateExchangeCommand{service: service}
}

func (c *InitiateExchangeCommand) Execute(ctx context.Context, msg InitiateExchangeMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: credential service is required")
	}
	out, err := c.service.InitiateCredentialExchange(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type CompleteExchangeCommand struct {
	service CredentialService
}

func NewCompleteExchangeCommand(service CredentialService) *CompleteExchangeCommand {
	return &CompleteExchangeCommand{service: service}
}

func (c *CompleteExchangeCommand) Execute(ctx context.Context, msg CompleteExchangeMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: credential service is required")
	}
	out, err := c.service.CompleteCredentialExchange(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type SetKeyCredentialCommand struct {
	service CredentialService
}

func NewSetKeyCredentialCommand(service CredentialService) *SetKeyCredentialCommand {
	return &SetKeyCredentialCommand{service: service}
}

func (c *SetKeyCredentialCommand) Execute(ctx context.Context, msg SetKeyCredentialMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: credential service is required")
	}
	out, err := c.service.SetKeyCredential(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type ClearCredentialCommand struct {
	service CredentialService
}

func NewClearCredentialCommand(service CredentialService) *ClearCredentialCommand {
	return &ClearCredentialCommand{service: service}
}

func (c *ClearCredentialCommand) Execute(ctx context.Context, msg ClearCredentialMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: credential service is required")
	}
	out, err := c.service.ClearCredential(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type RequestSyncCommand struct {
	service TrackerService
}

func NewRequestSyncCommand(service TrackerService) *RequestSyncCommand {
	return &RequestSyncCommand{service: service}
}

func (c *RequestSyncCommand) Execute(ctx context.Context, msg RequestSyncMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: tracker service is required")
	}
	out, err := c.service.RequestSync(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type StartTrackerCommand struct {
	service TrackerService
}

func NewStartTrackerCommand(service TrackerService) *StartTrackerCommand {
	return &StartTrackerCommand{service: service}
}

func (c *StartTrackerCommand) Execute(ctx context.Context, msg StartTrackerMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: tracker service is required")
	}
	out, err := c.service.StartTracker(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type FinishTrackerCommand struct {
	service TrackerService
}

func NewFinishTrackerCommand(service TrackerService) *FinishTrackerCommand {
	return &FinishTrackerCommand{service: service}
}

func (c *FinishTrackerCommand) Execute(ctx context.Context, msg FinishTrackerMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: tracker service is required")
	}
	out, err := c.service.FinishTracker(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type ForceFinishTrackerCommand struct {
	service TrackerService
}

func NewForceFinishTrackerCommand(service TrackerService) *ForceFinishTrackerCommand {
	return &ForceFinishTrackerCommand{service: service}
}

func (c *ForceFinishTrackerCommand) Execute(ctx context.Context, msg ForceFinishTrackerMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: tracker service is required")
	}
	out, err := c.service.ForceFinishTracker(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type SaveAccessKeyCommand struct {
	service AccessKeyService
}

func NewSaveAccessKeyCommand(service AccessKeyService) *SaveAccessKeyCommand {
	return &SaveAccessKeyCommand{service: service}
}

func (c *SaveAccessKeyCommand) Execute(ctx context.Context, msg SaveAccessKeyMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: access key service is required")
	}
	out, err := c.service.SaveAccessKey(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type DeleteAccessKeyCommand struct {
	service AccessKeyService
}

func NewDeleteAccessKeyCommand(service AccessKeyService) *DeleteAccessKeyCommand {
	return &DeleteAccessKeyCommand{service: service}
}

func (c *DeleteAccessKeyCommand) Execute(ctx context.Context, msg DeleteAccessKeyMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: access key service is required")
	}
	return c.service.DeleteAccessKey(ctx, msg.Request)
}

type PurgeExpiredStatesCommand struct {
	service AuthStateService
}

func NewPurgeExpiredStatesCommand(service AuthStateService) *PurgeExpiredStatesCommand {
	return &PurgeExpiredStatesCommand{service: service}
}

func (c *PurgeExpiredStatesCommand) Execute(ctx context.Context, msg PurgeExpiredStatesMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: auth state service is required")
	}
	out, err := c.service.PurgeExpiredAuthStates(ctx, core.PurgeAuthStatesRequest{Caller: msg.Caller})
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
