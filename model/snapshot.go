package model

import "time"

// Snapshot is the published atomic view of every included process from
// one refresh, plus metadata describing the refresh itself.
type Snapshot struct {
	Processes map[int]ProcessSample

	RefreshStart    time.Time
	RefreshDuration time.Duration
	Success         bool
	InFlight        bool

	Global GlobalMetrics
}

// Clone returns a shallow copy of the snapshot suitable for use as a
// read baseline by the next refresh; the PID map is a new map holding
// copies of the (value-type) samples.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return &Snapshot{Processes: map[int]ProcessSample{}}
	}
	out := &Snapshot{
		Processes:       make(map[int]ProcessSample, len(s.Processes)),
		RefreshStart:    s.RefreshStart,
		RefreshDuration: s.RefreshDuration,
		Success:         s.Success,
		InFlight:        s.InFlight,
		Global:          s.Global,
	}
	for pid, ps := range s.Processes {
		out.Processes[pid] = ps
	}
	return out
}

// TopKEntry is one ranked member of a subgroup top-3 array.
type TopKEntry struct {
	PID   uint32
	Value uint32 // scaled CPU (percent*1000, floored) or KB
	Name  [16]byte
}

// SetName copies s into Name, truncating to 15 bytes and null-terminating.
func (e *TopKEntry) SetName(s string) {
	n := copy(e.Name[:15], s)
	e.Name[n] = 0
}

// NameString returns Name up to its first NUL byte.
func (e TopKEntry) NameString() string {
	for i, b := range e.Name {
		if b == 0 {
			return string(e.Name[:i])
		}
	}
	return string(e.Name[:])
}

// SubgroupAggregate is produced per scrape for one (group, subgroup) pair.
type SubgroupAggregate struct {
	Group    string
	Subgroup string

	RSSSum uint64
	PSSSum uint64
	USSSum uint64
	SwapSum uint64

	CPUPercentSum float64
	CPUSecondsSum float64
	CPUUserSecondsSum   float64
	CPUSystemSecondsSum float64

	MemberCount int

	TopCPU [3]TopKEntry
	TopRSS [3]TopKEntry
	TopPSS [3]TopKEntry

	NetRxBytes  uint64
	NetTxBytes  uint64
	IOReadBytes  uint64
	IOWriteBytes uint64
	IOReadOps    uint64
	IOWriteOps   uint64

	// ConnCounts holds live socket counts by protocol ("tcp", "udp"),
	// attributed to this subgroup via fd-to-inode resolution (§6).
	ConnCounts map[string]uint64
}

// RingRecord is the fixed-size (256 B) on-disk/in-memory history layout
// for one subgroup at one sample instant. The struct is POD and must
// serialise to exactly 256 bytes; field order and sizes are deliberate.
type RingRecord struct {
	TimestampUnix int64 // 8
	RSSKb         uint64 // 8
	PSSKb         uint64 // 8
	USSKb         uint64 // 8
	CPUPercent    float32 // 4
	CPUTimeSeconds float32 // 4

	TopCPU [3]TopKEntry // 3 * 24 = 72
	TopRSS [3]TopKEntry // 72
	TopPSS [3]TopKEntry // 72
}

// RingRecordSize is the mandated on-the-wire size of RingRecord.
const RingRecordSize = 256

// HealthCounters tracks running statistics for durations and sizes plus
// monotonic error/scan counters, consumed by the /health view.
type HealthCounters struct {
	RefreshCount       uint64
	RefreshErrorCount  uint64
	PermissionDenied   uint64
	ParsingErrors      uint64
	ProcReadErrors     uint64
	EbpfInitFailures   uint64
	EbpfLostEvents     uint64

	RefreshDurationStat DurationStat
	RefreshSizeStat     SizeStat

	LastRefreshAt time.Time
}

// DurationStat is a running count/sum/min/max/last for a duration series.
type DurationStat struct {
	Count uint64
	Sum   time.Duration
	Min   time.Duration
	Max   time.Duration
	Last  time.Duration
}

// Observe folds d into the statistic.
func (d *DurationStat) Observe(dur time.Duration) {
	if d.Count == 0 || dur < d.Min {
		d.Min = dur
	}
	if dur > d.Max {
		d.Max = dur
	}
	d.Count++
	d.Sum += dur
	d.Last = dur
}

// Mean returns the average observed duration, or 0 if no observations.
func (d DurationStat) Mean() time.Duration {
	if d.Count == 0 {
		return 0
	}
	return d.Sum / time.Duration(d.Count)
}

// SizeStat is a running count/sum/min/max/last for a byte-size series.
type SizeStat struct {
	Count uint64
	Sum   uint64
	Min   uint64
	Max   uint64
	Last  uint64
}

// Observe folds v into the statistic.
func (s *SizeStat) Observe(v uint64) {
	if s.Count == 0 || v < s.Min {
		s.Min = v
	}
	if v > s.Max {
		s.Max = v
	}
	s.Count++
	s.Sum += v
	s.Last = v
}

// BufferUsage holds atomic high-water marks for named read buffers.
// The fields are plain uint64 here; callers update them via atomic
// compare-and-swap max (see util.CASMaxUint64).
type BufferUsage struct {
	GenericHighWater      uint64
	SmapsHighWater        uint64
	SmapsRollupHighWater  uint64
}
