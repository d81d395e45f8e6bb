package ring

import (
	"testing"
	"unsafe"

	"github.com/ftahirops/herakles/model"
)

// TestRingRecordSize covers I10: a ring record's serialised form is
// exactly 256 bytes.
func TestRingRecordSize(t *testing.T) {
	var rec model.RingRecord
	if got := unsafe.Sizeof(rec); got != model.RingRecordSize {
		t.Fatalf("unsafe.Sizeof(RingRecord{}) = %d, want %d", got, model.RingRecordSize)
	}
}

// TestRingWrapAround covers S4: capacity 3, push 5 records with
// timestamps 1000..1400, history() returns the last 3 oldest-first.
func TestRingWrapAround(t *testing.T) {
	r := newSubgroupRing(3)
	for _, ts := range []int64{1000, 1100, 1200, 1300, 1400} {
		r.Record(model.RingRecord{TimestampUnix: ts})
	}
	hist := r.History()
	if len(hist) != 3 {
		t.Fatalf("len(history) = %d, want 3", len(hist))
	}
	want := []int64{1200, 1300, 1400}
	for i, rec := range hist {
		if rec.TimestampUnix != want[i] {
			t.Errorf("history[%d].TimestampUnix = %d, want %d", i, rec.TimestampUnix, want[i])
		}
	}
}

// TestRingCapacityNeverExceeded covers I4.
func TestRingCapacityNeverExceeded(t *testing.T) {
	r := newSubgroupRing(3)
	for i := 0; i < 10; i++ {
		r.Record(model.RingRecord{TimestampUnix: int64(i)})
		if r.Len() > r.Capacity() {
			t.Fatalf("Len() %d exceeds Capacity() %d", r.Len(), r.Capacity())
		}
	}
}

// TestRingHistoryMonotonic covers the non-decreasing timestamp portion of I4.
func TestRingHistoryMonotonic(t *testing.T) {
	r := newSubgroupRing(5)
	for i := int64(0); i < 8; i++ {
		r.Record(model.RingRecord{TimestampUnix: i * 100})
	}
	hist := r.History()
	for i := 1; i < len(hist); i++ {
		if hist[i].TimestampUnix < hist[i-1].TimestampUnix {
			t.Fatalf("history not monotonic at %d: %d < %d", i, hist[i].TimestampUnix, hist[i-1].TimestampUnix)
		}
	}
}

// TestCapacityFormula covers the E = clamp(...) computation (§3, §4.7).
func TestCapacityFormula(t *testing.T) {
	budget := uint64(DefaultBudgetMB) * 1024 * 1024
	got := Capacity(budget, 1, DefaultEMin, DefaultEMax)
	if got != DefaultEMax {
		t.Errorf("Capacity with n0=1 = %d, want clamp to EMax=%d", got, DefaultEMax)
	}
	got = Capacity(budget, 10000, DefaultEMin, DefaultEMax)
	if got != DefaultEMin {
		t.Errorf("Capacity with large n0 = %d, want clamp to EMin=%d", got, DefaultEMin)
	}
}

func TestIndexHistoryStats(t *testing.T) {
	idx := NewIndex(10, 5.0)
	idx.Record("web:nginx", model.RingRecord{TimestampUnix: 1})
	idx.Record("web:nginx", model.RingRecord{TimestampUnix: 2})

	hist := idx.History("web:nginx")
	if len(hist) != 2 {
		t.Fatalf("len(history) = %d, want 2", len(hist))
	}
	stats := idx.Stats()
	if stats.SubgroupCount != 1 {
		t.Errorf("SubgroupCount = %d, want 1", stats.SubgroupCount)
	}
	if stats.HistorySeconds != 50.0 {
		t.Errorf("HistorySeconds = %v, want 50", stats.HistorySeconds)
	}
}
