package scan

import (
	"strings"
	"time"
)

// Options configures one Engine.
type Options struct {
	ProcRoot string // default "/proc"

	FreshnessWindow time.Duration // default 5s
	WorkerCount     int           // default: runtime.NumCPU()

	MinUSSKb uint64 // B1: samples below this are dropped

	IncludeNames []string // empty = include all
	ExcludeNames []string

	SmapsBufSize int // initial buffer size for smaps parsing

	// TestDataFile, if set, is a JSON file of synthetic per-process
	// samples loaded instead of scanning ProcRoot (§4.5 step 3).
	TestDataFile string
}

func (o Options) included(name string) bool {
	if len(o.ExcludeNames) > 0 && containsFold(o.ExcludeNames, name) {
		return false
	}
	if len(o.IncludeNames) == 0 {
		return true
	}
	return containsFold(o.IncludeNames, name)
}

func containsFold(list []string, name string) bool {
	for _, n := range list {
		if strings.EqualFold(n, name) {
			return true
		}
	}
	return false
}

// DefaultOptions returns Options with every zero-value field defaulted.
func DefaultOptions() Options {
	return Options{
		ProcRoot:        "/proc",
		FreshnessWindow: 5 * time.Second,
		MinUSSKb:        0,
		SmapsBufSize:    4096,
	}
}
