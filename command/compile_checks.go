package command

import (
	"github.com/goliatone/go-accountsync/core"
	gocmd "github.com/goliatone/go-command"
)

var (
	_ gocmd.Commander[CreateAccountMessage]      = (*CreateAccountCommand)(nil)
	_ gocmd.Commander[DeleteAccountMessage]      = (*DeleteAccountCommand)(nil)
	_ gocmd.Commander[RestoreAccountMessage]     = (*RestoreAccountCommand)(nil)
	_ gocmd.Commander[InitiateExchangeMessage]   = (*InitiateExchangeCommand)(nil)
	_ gocmd.Commander[CompleteExchangeMessage]   = (*CompleteExchangeCommand)(nil)
	_ gocmd.Commander[SetKeyCredentialMessage]   = (*SetKeyCredentialCommand)(nil)
	_ gocmd.Commander[ClearCredentialMessage]    = (*ClearCredentialCommand)(nil)
	_ gocmd.Commander[RequestSyncMessage]        = (*RequestSyncCommand)(nil)
	_ gocmd.Commander[StartTrackerMessage]       = (*StartTrackerCommand)(nil)
	_ gocmd.Commander[FinishTrackerMessage]      = (*FinishTrackerCommand)(nil)
	_ gocmd.Commander[ForceFinishTrackerMessage] = (*ForceFinishTrackerCommand)(nil)
	_ gocmd.Commander[SaveAccessKeyMessage]      = (*SaveAccessKeyCommand)(nil)
	_ gocmd.Commander[DeleteAccessKeyMessage]    = (*DeleteAccessKeyCommand)(nil)
	_ gocmd.Commander[PurgeExpiredStatesMessage] = (*PurgeExpiredStatesCommand)(nil)

	_ MutatingService = (*core.Service)(nil)
)
