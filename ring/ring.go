// Package ring implements the bounded circular history of per-subgroup
// RingRecord samples.
package ring

import (
	"sync"

	"github.com/ftahirops/herakles/model"
)

// Defaults for ring capacity computation (§3, §4.7).
const (
	DefaultBudgetMB = 15
	DefaultEMin     = 10
	DefaultEMax     = 120
)

// Capacity computes E = clamp(floor(budgetBytes / 256 / max(1, n0)), eMin, eMax).
func Capacity(budgetBytes uint64, n0, eMin, eMax int) int {
	if n0 < 1 {
		n0 = 1
	}
	e := int(budgetBytes / model.RingRecordSize / uint64(n0))
	if e < eMin {
		e = eMin
	}
	if e > eMax {
		e = eMax
	}
	return e
}

// SubgroupRing is a fixed-capacity circular buffer of RingRecord for one
// subgroup key, guarded by a per-ring mutex so readers and writers of
// different rings never contend.
type SubgroupRing struct {
	mu        sync.RWMutex
	buf       []model.RingRecord
	capacity  int
	writeIdx  int
	fill      int
}

func newSubgroupRing(capacity int) *SubgroupRing {
	return &SubgroupRing{
		buf:      make([]model.RingRecord, capacity),
		capacity: capacity,
	}
}

// Record overwrites the slot at write_index and advances it, growing the
// fill count up to capacity.
func (r *SubgroupRing) Record(rec model.RingRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buf[r.writeIdx] = rec
	r.writeIdx = (r.writeIdx + 1) % r.capacity
	if r.fill < r.capacity {
		r.fill++
	}
}

// History returns all filled records oldest-first.
func (r *SubgroupRing) History() []model.RingRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.RingRecord, r.fill)
	if r.fill < r.capacity {
		copy(out, r.buf[:r.fill])
		return out
	}
	// Full: oldest record is at writeIdx (the next slot to be overwritten).
	n := copy(out, r.buf[r.writeIdx:])
	copy(out[n:], r.buf[:r.writeIdx])
	return out
}

// Len returns the current fill count.
func (r *SubgroupRing) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.fill
}

// Capacity returns E for this ring.
func (r *SubgroupRing) Capacity() int {
	return r.capacity
}

// Index is a concurrent map from subgroup key to SubgroupRing. Capacity E
// is fixed at construction for the lifetime of the index.
type Index struct {
	mu       sync.RWMutex
	rings    map[string]*SubgroupRing
	capacity int
	interval float64 // sampling interval in seconds, for Stats()
}

// NewIndex creates an index whose rings will all share the given
// capacity (computed once by the caller via Capacity()).
func NewIndex(capacity int, intervalSeconds float64) *Index {
	return &Index{
		rings:    make(map[string]*SubgroupRing),
		capacity: capacity,
		interval: intervalSeconds,
	}
}

// Record looks up or lazily creates the ring for key and pushes rec.
func (idx *Index) Record(key string, rec model.RingRecord) {
	idx.getOrCreate(key).Record(rec)
}

// History returns the oldest-first record list for key, or nil if the
// key has never been recorded.
func (idx *Index) History(key string) []model.RingRecord {
	idx.mu.RLock()
	r, ok := idx.rings[key]
	idx.mu.RUnlock()
	if !ok {
		return nil
	}
	return r.History()
}

func (idx *Index) getOrCreate(key string) *SubgroupRing {
	idx.mu.RLock()
	r, ok := idx.rings[key]
	idx.mu.RUnlock()
	if ok {
		return r
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	if r, ok = idx.rings[key]; ok {
		return r
	}
	r = newSubgroupRing(idx.capacity)
	idx.rings[key] = r
	return r
}

// Stats describes the ring index's geometry, for the health/details views.
type Stats struct {
	Capacity       int
	RecordBytes    int
	IntervalSeconds float64
	SubgroupCount  int
	EstimatedBytes uint64
	HistorySeconds float64
}

// Stats returns the current geometry snapshot.
func (idx *Index) Stats() Stats {
	idx.mu.RLock()
	n := len(idx.rings)
	idx.mu.RUnlock()

	return Stats{
		Capacity:        idx.capacity,
		RecordBytes:     model.RingRecordSize,
		IntervalSeconds: idx.interval,
		SubgroupCount:   n,
		EstimatedBytes:  uint64(n) * uint64(idx.capacity) * model.RingRecordSize,
		HistorySeconds:  float64(idx.capacity) * idx.interval,
	}
}

// Keys returns the current set of subgroup keys with a ring.
func (idx *Index) Keys() []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	keys := make([]string, 0, len(idx.rings))
	for k := range idx.rings {
		keys = append(keys, k)
	}
	return keys
}
