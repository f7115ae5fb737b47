package core

import (
	"github.com/goliatone/go-accountsync/accessmask"
	glog "github.com/goliatone/go-logger/glog"
)

var (
	_ CapabilityChecker = CallerCapabilityChecker{}
	_ AuthStateStore    = (*MemoryAuthStateStore)(nil)
	_ CredentialDeriver = (*accessmask.Signer)(nil)
	_ MetricsRecorder   = NopMetricsRecorder{}

	_ Logger         = glog.Nop()
	_ LoggerProvider = glog.ProviderFromLogger(glog.Nop())
)
