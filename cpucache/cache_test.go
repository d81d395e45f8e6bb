package cpucache

import (
	"math"
	"testing"
	"time"
)

// TestCacheDeltaPercent covers S2: 5.0s then 7.5s ten seconds apart
// yields cpu_percent = 25.0.
func TestCacheDeltaPercent(t *testing.T) {
	c := New()
	t0 := time.Unix(0, 0)
	if pct := c.Update(2000, 5.0, t0); pct != 0 {
		t.Errorf("first sample pct = %v, want 0", pct)
	}
	pct := c.Update(2000, 7.5, t0.Add(10*time.Second))
	if math.Abs(pct-25.0) > 1e-9 {
		t.Errorf("pct = %v, want 25.0", pct)
	}
}

// TestCacheRegressionClampsToZero covers B3: PID reuse (cumulative value
// regresses) clamps the delta to zero and replaces the baseline.
func TestCacheRegressionClampsToZero(t *testing.T) {
	c := New()
	t0 := time.Unix(0, 0)
	c.Update(3000, 100.0, t0)
	pct := c.Update(3000, 1.0, t0.Add(5*time.Second))
	if pct != 0 {
		t.Errorf("pct after regression = %v, want 0", pct)
	}
	pct = c.Update(3000, 2.0, t0.Add(10*time.Second))
	if math.Abs(pct-(1.0/5.0*100)) > 1e-9 {
		t.Errorf("pct after replaced baseline = %v, want %v", pct, 1.0/5.0*100)
	}
}

func TestCacheGC(t *testing.T) {
	c := New()
	t0 := time.Unix(0, 0)
	c.Update(1, 1, t0)
	c.Update(2, 1, t0)
	c.GC(map[int]struct{}{1: {}})
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}
