package model

import "time"

// ProcessSample is one record per included process per refresh.
type ProcessSample struct {
	PID  int
	Name string // command name, typically <= 15 bytes

	RSS  uint64 // bytes
	PSS  uint64 // bytes
	USS  uint64 // bytes
	Swap uint64 // bytes

	CPUPercent      float32 // instantaneous, over the last delta
	CPUTimeSeconds  float64 // cumulative, user+system
	CPUUserSeconds   float64 // cumulative, user mode only
	CPUSystemSeconds float64 // cumulative, kernel mode only
	StartTimeSecs   float64 // seconds since boot

	ReadBytes  uint64 // cumulative block bytes read
	WriteBytes uint64 // cumulative block bytes written
	RxBytes    uint64 // cumulative network bytes received (0 if eBPF absent)
	TxBytes    uint64 // cumulative network bytes transmitted (0 if eBPF absent)

	// Baselines for rate derivation; carried forward from the previous
	// sample for this PID, or seeded with current values on first sighting.
	LastReadBytes  uint64
	LastWriteBytes uint64
	LastRxBytes    uint64
	LastTxBytes    uint64
	LastUpdateTime time.Time

	SampleTime time.Time
}

// Group and Subgroup classify the process; filled in by the aggregator,
// not by the proc reader. Kept alongside the sample for convenience in
// the scan/aggregate pipeline.
type Classified struct {
	Sample   ProcessSample
	Group    string
	Subgroup string
}
