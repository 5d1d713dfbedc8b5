package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNewManagerWithOptions(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewManager(
		WithNamespace("testns"),
		WithSubsystem("testsub"),
		WithPrometheusRegistry(reg),
	)
	if m == nil {
		t.Fatal("NewManager returned nil")
	}
	if m.namespace != "testns" {
		t.Errorf("expected namespace testns, got %s", m.namespace)
	}
	if m.subsystem != "testsub" {
		t.Errorf("expected subsystem testsub, got %s", m.subsystem)
	}
}

func TestGlobalHelpersDoNotPanic(t *testing.T) {
	RecordVoteProcessed()
	RecordVoteError()
	RecordMatchupServed()
	RecordEloUpdate()
	RecordRateLimited()
	RecordDailyVote()
	RecordDailyVoteRejected()
	RecordDailyRotation()
	RecordDuoVote()
	RecordDuoCreated()
	RecordDuoDeleted()
	RecordWeightRebuild()
	RecordWeightRebuildDuration(12.5)
	UpdatePairQueueSize(12)
	RecordStoreOpLatency(0.2)
	UpdateStoreKeys(100)
	RecordStoreError()
	RecordOwnerSync()
	RecordOwnerSyncError()
	UpdateLeaderboardSize(42)
	UpdateGlobalVotes(1000)
	RecordHTTPRequest("vote", "POST", "200")
	RecordHTTPRequestDuration("vote", "POST", "200", 3.2)
	RecordErrorByComponent("store", "unavailable")
	RecordErrorByEndpoint("vote", "POST", "client_error")
	UpdateSystemMemoryUsage(1 << 20)
	UpdateSystemGoroutineCount(8)
	RecordSystemGCPauseTime(0.5)
}

func TestGetRegistry(t *testing.T) {
	if GetRegistry() == nil {
		t.Fatal("GetRegistry returned nil")
	}
}
