package domain

import (
	"testing"
	"time"
)

// TestSelectorReliabilityMonotonic verifies the counters only ever grow.
func TestSelectorReliabilityMonotonic(t *testing.T) {
	var r SelectorReliability

	outcomes := []bool{true, false, true, true, false}
	prevAttempts, prevSuccesses := 0, 0
	for _, success := range outcomes {
		r.RecordAttempt(success, time.Now())
		if r.TotalAttempts <= prevAttempts {
			t.Fatalf("TotalAttempts = %d, must exceed previous %d", r.TotalAttempts, prevAttempts)
		}
		if r.SuccessCount < prevSuccesses {
			t.Fatalf("SuccessCount = %d, decreased from %d", r.SuccessCount, prevSuccesses)
		}
		prevAttempts, prevSuccesses = r.TotalAttempts, r.SuccessCount
	}

	if r.TotalAttempts != 5 || r.SuccessCount != 3 {
		t.Errorf("counters = %d/%d, want 3/5", r.SuccessCount, r.TotalAttempts)
	}
	if got := r.SuccessRate(); got != 0.6 {
		t.Errorf("SuccessRate = %.2f, want 0.60", got)
	}
}

func TestSelectorReliabilityZero(t *testing.T) {
	var r SelectorReliability
	if got := r.SuccessRate(); got != 0 {
		t.Errorf("SuccessRate = %.2f, want 0 for no attempts", got)
	}
}

// TestVariantsClusterLookup tests the cluster accessor and option lookup.
func TestVariantsClusterLookup(t *testing.T) {
	v := NewProductVariants()
	v.Color.Options = append(v.Color.Options, VariantOption{Value: "Navy", NormalizedValue: "navy"})

	if c := v.Cluster(ClusterColor); c == nil || c.Type != ClusterColor {
		t.Fatal("Cluster(color) must return the color cluster")
	}
	if v.Cluster("availability") != nil {
		t.Error("non-cluster attribute type must return nil")
	}
	if opt := v.Color.FindOption("navy"); opt == nil || opt.Value != "Navy" {
		t.Error("FindOption must match on the normalized value")
	}
	if v.Color.FindOption("black") != nil {
		t.Error("FindOption must return nil for unseen values")
	}
}
