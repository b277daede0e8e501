package metrics

import (
	"testing"
	"time"
)

func TestLatencyTrackerStats(t *testing.T) {
	tracker := NewLatencyTracker(100)
	for i := 1; i <= 10; i++ {
		tracker.Record(time.Duration(i) * time.Millisecond)
	}

	stats := tracker.Stats()
	if stats.Count != 10 {
		t.Errorf("Count = %d, want 10", stats.Count)
	}
	if stats.Min != 1*time.Millisecond {
		t.Errorf("Min = %v, want 1ms", stats.Min)
	}
	if stats.Max != 10*time.Millisecond {
		t.Errorf("Max = %v, want 10ms", stats.Max)
	}
	// Index int(9*0.5)=4 over sorted 1..10ms.
	if stats.P50 != 5*time.Millisecond {
		t.Errorf("P50 = %v, want 5ms", stats.P50)
	}
	if stats.P95 != 9*time.Millisecond {
		t.Errorf("P95 = %v, want 9ms", stats.P95)
	}
}

func TestLatencyTrackerEmpty(t *testing.T) {
	tracker := NewLatencyTracker(10)
	if stats := tracker.Stats(); stats.Count != 0 {
		t.Errorf("Count = %d, want 0", stats.Count)
	}
}

func TestLatencyTrackerWindowEviction(t *testing.T) {
	tracker := NewLatencyTracker(10)
	for i := 0; i < 25; i++ {
		tracker.Record(time.Millisecond)
	}
	if stats := tracker.Stats(); stats.Count > 10 {
		t.Errorf("Count = %d, window must cap at 10", stats.Count)
	}
}

func TestLatencyRegistry(t *testing.T) {
	registry := NewLatencyRegistry(100)
	registry.Record(StageClassify, 2*time.Millisecond)
	registry.Record(StageClassify, 4*time.Millisecond)
	registry.Record(StageUpsert, 8*time.Millisecond)

	if got := registry.Stats(StageClassify).Count; got != 2 {
		t.Errorf("classify count = %d, want 2", got)
	}
	if got := registry.Stats(StageUpsert).Avg; got != 8*time.Millisecond {
		t.Errorf("upsert avg = %v, want 8ms", got)
	}
	if got := registry.Stats("unknown").Count; got != 0 {
		t.Errorf("unknown stage count = %d, want 0", got)
	}

	all := registry.AllStats()
	if len(all) != 2 {
		t.Errorf("AllStats stages = %d, want 2", len(all))
	}
}
