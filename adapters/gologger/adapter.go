package gologger

import (
	job "github.com/goliatone/go-job"
	glog "github.com/goliatone/go-logger/glog"
)

// SyncWorkerLoggerName names the logger handed to sync workers and their
// go-job queue.
const SyncWorkerLoggerName = "accountsync.sync_worker"

// Resolve uses deterministic precedence provider > logger > nop.
func Resolve(name string, provider glog.LoggerProvider, logger glog.Logger) (glog.LoggerProvider, glog.Logger) {
	return glog.Resolve(name, provider, logger)
}

func ToJobProvider(provider glog.LoggerProvider) job.LoggerProvider {
	if provider == nil {
		return nil
	}
	return job.GoLoggerProvider(provider)
}

func ToJobLogger(logger glog.Logger) job.Logger {
	if logger == nil {
		return nil
	}
	return job.GoLogger(logger)
}

// ResolveForJob resolves the glog pair and returns it together with the
// go-job equivalents.
func ResolveForJob(
	name string,
	provider glog.LoggerProvider,
	logger glog.Logger,
) (glog.LoggerProvider, glog.Logger, job.LoggerProvider, job.Logger) {
	resolvedProvider, resolvedLogger := Resolve(name, provider, logger)
	return resolvedProvider, resolvedLogger, ToJobProvider(resolvedProvider), ToJobLogger(resolvedLogger)
}

// SyncWorkerLoggers returns the logger for a sync worker and the go-job
// logger for the queue feeding it, both named SyncWorkerLoggerName.
func SyncWorkerLoggers(provider glog.LoggerProvider, logger glog.Logger) (glog.Logger, job.Logger) {
	_, resolved, _, jobLogger := ResolveForJob(SyncWorkerLoggerName, provider, logger)
	return glog.Ensure(resolved), jobLogger
}
