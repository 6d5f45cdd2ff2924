package ratelimit

import "testing"

func TestQuotaTracker_WithinBudget(t *testing.T) {
	t.Parallel()
	q := NewQuotaTracker()

	if !q.Check("key1", 10.0) {
		t.Error("new key should be within budget")
	}
}

func TestQuotaTracker_OverBudget(t *testing.T) {
	t.Parallel()
	q := NewQuotaTracker()

	q.Consume("key1", 10.0)

	if q.Check("key1", 10.0) {
		t.Error("key at limit should be over budget")
	}
}

func TestQuotaTracker_Consume(t *testing.T) {
	t.Parallel()
	q := NewQuotaTracker()

	q.Consume("key1", 3.0)
	q.Consume("key1", 4.0)

	if !q.Check("key1", 10.0) {
		t.Error("key at 7/10 should be within budget")
	}

	q.Consume("key1", 4.0)

	if q.Check("key1", 10.0) {
		t.Error("key at 11/10 should be over budget")
	}
}

func TestQuotaTracker_UnlimitedBudget(t *testing.T) {
	t.Parallel()
	q := NewQuotaTracker()

	q.Consume("key1", 1000000)

	if !q.Check("key1", 0) {
		t.Error("unlimited budget (0) should always pass")
	}
}

func TestQuotaTracker_Preload(t *testing.T) {
	t.Parallel()
	q := NewQuotaTracker()

	q.Preload("preloaded", 10.0)
	q.Consume("preloaded", 9.0)

	if !q.Check("preloaded", 10.0) {
		t.Error("preloaded key at 9/10 should be within budget")
	}

	q.Consume("preloaded", 2.0)
	if q.Check("preloaded", 10.0) {
		t.Error("preloaded key at 11/10 should be over budget")
	}
}

func TestQuotaTracker_PreloadIdempotent(t *testing.T) {
	t.Parallel()
	q := NewQuotaTracker()

	q.Consume("existing", 5.0)
	q.Preload("existing", 10.0)

	// Preload should not overwrite existing entry.
	if !q.Check("existing", 10.0) {
		t.Error("existing key at 5/10 should be within budget")
	}
}
