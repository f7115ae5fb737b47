package command

import (
	"strings"

	"github.com/goliatone/go-accountsync/core"
)

const (
	TypeCreateAccount      = "accountsync.command.account.create"
	TypeDeleteAccount      = "accountsync.command.account.delete"
	TypeRestoreAccount     = "accountsync.command.account.restore"
	TypeInitiateExchange   = "accountsync.command.credential.exchange.initiate"
	TypeCompleteExchange   = "accountsync.command.credential.exchange.complete"
	TypeSetKeyCredential   = "accountsync.command.credential.key.set"
	TypeClearCredential    = "accountsync.command.credential.clear"
	TypeRequestSync        = "accountsync.command.tracker.request"
	TypeStartTracker       = "accountsync.command.tracker.start"
	TypeFinishTracker      = "accountsync.command.tracker.finish"
	TypeForceFinishTracker = "accountsync.command.tracker.force_finish"
	TypeSaveAccessKey      = "accountsync.command.access_key.save"
	TypeDeleteAccessKey    = "accountsync.command.access_key.delete"
	TypePurgeExpiredStates = "accountsync.command.auth_state.purge"
)

type CreateAccountMessage struct {
	Request core.CreateAccountRequest
}

func (CreateAccountMessage) Type() string { return TypeCreateAccount }

func (m CreateAccountMessage) Validate() error {
	if strings.TrimSpace(m.Request.Name) == "" {
		return commandValidationError("name", "account name is required")
	}
	return nil
}

type DeleteAccountMessage struct {
	Request core.AccountRequest
}

func (DeleteAccountMessage) Type() string { return TypeDeleteAccount }

func (m DeleteAccountMessage) Validate() error {
	return requireAccountID(m.Request.AccountID)
}

type RestoreAccountMessage struct {
	Request core.AccountRequest
}

func (RestoreAccountMessage) Type() string { return TypeRestoreAccount }

func (m RestoreAccountMessage) Validate() error {
	return requireAccountID(m.Request.AccountID)
}

type InitiateExchangeMessage struct {
	Request core.InitiateExchangeRequest
}

func (InitiateExchangeMessage) Type() string { return TypeInitiateExchange }

func (m InitiateExchangeMessage) Validate() error {
	if err := requireAccountID(m.Request.AccountID); err != nil {
		return err
	}
	if len(m.Request.Scopes) == 0 {
		return commandValidationError("scopes", "at least one scope is required")
	}
	return nil
}

// CompleteExchangeMessage is dispatched by the callback route; it carries
// no caller because the state token identifies the flow.
type CompleteExchangeMessage struct {
	Request core.CompleteExchangeRequest
}

func (CompleteExchangeMessage) Type() string { return TypeCompleteExchange }

func (m CompleteExchangeMessage) Validate() error {
	if strings.TrimSpace(m.Request.State) == "" {
		return commandValidationError("state", "state is required")
	}
	if strings.TrimSpace(m.Request.Code) == "" {
		return commandValidationError("code", "authorization code is required")
	}
	return nil
}

type SetKeyCredentialMessage struct {
	Request core.SetKeyCredentialRequest
}

func (SetKeyCredentialMessage) Type() string { return TypeSetKeyCredential }

func (m SetKeyCredentialMessage) Validate() error {
	if err := requireAccountID(m.Request.AccountID); err != nil {
		return err
	}
	if m.Request.KeyID <= 0 {
		return commandValidationError("key_id", "key id must be positive")
	}
	if strings.TrimSpace(m.Request.VerificationCode) == "" {
		return commandValidationError("verification_code", "verification code is required")
	}
	if m.Request.CharacterID <= 0 {
		return commandValidationError("character_id", "character id must be positive")
	}
	return nil
}

type ClearCredentialMessage struct {
	Request core.ClearCredentialRequest
}

func (ClearCredentialMessage) Type() string { return TypeClearCredential }

func (m ClearCredentialMessage) Validate() error {
	if err := requireAccountID(m.Request.AccountID); err != nil {
		return err
	}
	return commandWrapValidation(m.Request.Kind.Validate(), "command: invalid credential kind")
}

type RequestSyncMessage struct {
	Request core.RequestSyncRequest
}

func (RequestSyncMessage) Type() string { return TypeRequestSync }

func (m RequestSyncMessage) Validate() error {
	return commandWrapValidation(m.Request.Scope.Normalize().Validate(), "command: invalid tracker scope")
}

type StartTrackerMessage struct {
	Request core.TrackerRequest
}

func (StartTrackerMessage) Type() string { return TypeStartTracker }

func (m StartTrackerMessage) Validate() error {
	return requireTrackerID(m.Request.TrackerID)
}

type FinishTrackerMessage struct {
	Request core.FinishTrackerRequest
}

func (FinishTrackerMessage) Type() string { return TypeFinishTracker }

func (m FinishTrackerMessage) Validate() error {
	if err := requireTrackerID(m.Request.TrackerID); err != nil {
		return err
	}
	return commandWrapValidation(m.Request.Status.Validate(), "command: invalid tracker status")
}

type ForceFinishTrackerMessage struct {
	Request core.TrackerRequest
}

func (ForceFinishTrackerMessage) Type() string { return TypeForceFinishTracker }

func (m ForceFinishTrackerMessage) Validate() error {
	return requireTrackerID(m.Request.TrackerID)
}

type SaveAccessKeyMessage struct {
	Request core.SaveAccessKeyRequest
}

func (SaveAccessKeyMessage) Type() string { return TypeSaveAccessKey }

func (m SaveAccessKeyMessage) Validate() error {
	if err := requireAccountID(m.Request.AccountID); err != nil {
		return err
	}
	if strings.TrimSpace(m.Request.Name) == "" {
		return commandValidationError("name", "access key name is required")
	}
	if m.Request.Limit < -1 {
		return commandValidationError("limit", "limit must be -1 or greater")
	}
	return nil
}

type DeleteAccessKeyMessage struct {
	Request core.AccessKeyRequest
}

func (DeleteAccessKeyMessage) Type() string { return TypeDeleteAccessKey }

func (m DeleteAccessKeyMessage) Validate() error {
	if err := requireAccountID(m.Request.AccountID); err != nil {
		return err
	}
	if strings.TrimSpace(m.Request.KeyID) == "" {
		return commandValidationError("key_id", "access key id is required")
	}
	return nil
}

type PurgeExpiredStatesMessage struct {
	Caller core.Caller
}

func (PurgeExpiredStatesMessage) Type() string { return TypePurgeExpiredStates }

func (PurgeExpiredStatesMessage) Validate() error { return nil }

func requireAccountID(accountID string) error {
	if strings.TrimSpace(accountID) == "" {
		return commandValidationError("account_id", "account id is required")
	}
	return nil
}

func requireTrackerID(trackerID string) error {
	if strings.TrimSpace(trackerID) == "" {
		return commandValidationError("tracker_id", "tracker id is required")
	}
	return nil
}
