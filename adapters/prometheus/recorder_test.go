package prometheus

import (
	"context"
	"testing"

	"github.com/goliatone/go-accountsync/core"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorder_RecordsOperationSeries(t *testing.T) {
	registry := prom.NewRegistry()
	recorder, err := NewRecorder(registry)
	if err != nil {
		t.Fatalf("new recorder: %v", err)
	}
	ctx := context.Background()
	tags := map[string]string{
		"operation": "request_sync",
		"status":    "success",
		"family":    "account",
		"endpoint":  "CHAR_ASSETS",
		"ignored":   "dropped",
	}

	recorder.IncCounter(ctx, "accountsync.request_sync.total", 1, tags)
	recorder.IncCounter(ctx, "accountsync.request_sync.total", 2, tags)
	recorder.ObserveHistogram(ctx, "accountsync.request_sync.duration_ms", 12, tags)

	got := testutil.ToFloat64(recorder.operations.WithLabelValues("request_sync", "success", "account", "CHAR_ASSETS"))
	if got != 3 {
		t.Fatalf("expected counter 3, got %v", got)
	}
	if count := testutil.CollectAndCount(recorder.durations); count != 1 {
		t.Fatalf("expected one histogram series, got %d", count)
	}
}

func TestRecorder_DerivesOperationFromName(t *testing.T) {
	registry := prom.NewRegistry()
	recorder, err := NewRecorder(registry, WithNamespace("sync"))
	if err != nil {
		t.Fatalf("new recorder: %v", err)
	}
	recorder.IncCounter(context.Background(), "accountsync.create_account.total", 1, map[string]string{"status": "failure"})

	got := testutil.ToFloat64(recorder.operations.WithLabelValues("create_account", "failure", "", ""))
	if got != 1 {
		t.Fatalf("expected derived operation label, got %v", got)
	}
	if count := testutil.CollectAndCount(registry, "sync_operations_total"); count != 1 {
		t.Fatalf("expected namespaced series, got %d", count)
	}
}

func TestRecorder_SharesCollectorsOnOneRegistry(t *testing.T) {
	registry := prom.NewRegistry()
	first, err := NewRecorder(registry)
	if err != nil {
		t.Fatalf("first recorder: %v", err)
	}
	second, err := NewRecorder(registry)
	if err != nil {
		t.Fatalf("second recorder: %v", err)
	}
	tags := map[string]string{"operation": "finish_tracker", "status": "success"}
	first.IncCounter(context.Background(), "", 1, tags)
	second.IncCounter(context.Background(), "", 1, tags)

	got := testutil.ToFloat64(first.operations.WithLabelValues("finish_tracker", "success", "", ""))
	if got != 2 {
		t.Fatalf("expected shared counter 2, got %v", got)
	}
}

func TestRecorder_WiresIntoService(t *testing.T) {
	registry := prom.NewRegistry()
	recorder, err := NewRecorder(registry)
	if err != nil {
		t.Fatalf("new recorder: %v", err)
	}
	svc, err := core.NewService(core.DefaultConfig(), core.WithMetricsRecorder(recorder))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if _, err := svc.RequestSync(context.Background(), core.RequestSyncRequest{
		Caller: core.Caller{UserID: "usr_1"},
	}); err == nil {
		t.Fatalf("expected invalid scope to fail")
	}
	// An empty family defaults to the account family before the request is
	// observed, so the failure lands on that series.
	got := testutil.ToFloat64(recorder.operations.WithLabelValues("request_sync", "failure", "account", ""))
	if got != 1 {
		t.Fatalf("expected failed request_sync to be counted, got %v", got)
	}
	if count := testutil.CollectAndCount(recorder.operations); count != 1 {
		t.Fatalf("expected a single request_sync series, got %d", count)
	}
}

func TestNewRecorder_RequiresRegisterer(t *testing.T) {
	if _, err := NewRecorder(nil); err == nil {
		t.Fatalf("expected nil registerer to fail")
	}
}
