package core

import (
	"context"
	"fmt"
	"strings"
)

// CallerCapabilityChecker trusts the Caller as authenticated by the host:
// admins may do anything, users may act on the accounts they own.
type CallerCapabilityChecker struct{}

func (CallerCapabilityChecker) RequireAdmin(_ context.Context, caller Caller) error {
	if caller.Anonymous() {
		return ErrNotAuthorized
	}
	if !caller.Admin {
		return fmt.Errorf("%w: admin required", ErrForbidden)
	}
	return nil
}

func (CallerCapabilityChecker) RequireAccountAccess(_ context.Context, caller Caller, account Account) error {
	if caller.Anonymous() {
		return ErrNotAuthorized
	}
	if caller.Admin {
		return nil
	}
	if strings.TrimSpace(account.UserID) != strings.TrimSpace(caller.UserID) {
		return fmt.Errorf("%w: account %q", ErrForbidden, account.ID)
	}
	return nil
}
