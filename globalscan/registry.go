// Package globalscan assembles the system-wide half of a snapshot
// (model.GlobalMetrics) by running a fixed list of /proc readers, each
// tolerant of its own failure so one missing file never blanks the rest.
package globalscan

import "github.com/ftahirops/herakles/model"

// Source reads one subsystem's counters into g. A non-nil error is
// logged by the caller but never aborts the remaining sources.
type Source func(g *model.GlobalMetrics) error

// Registry runs all registered sources in sequence.
type Registry struct {
	sources []Source
}

// NewRegistry returns a registry with all default global-metric sources.
func NewRegistry() *Registry {
	return &Registry{
		sources: []Source{
			collectCPU,
			collectMemory,
			collectPSI,
			collectDisks,
			collectNetwork,
			collectTCPStates,
			collectMounts,
			collectThermal,
			collectUname,
			collectKernel,
			collectFD,
		},
	}
}

// Collect runs every source against a fresh GlobalMetrics, returning the
// accumulated value plus any per-source errors (best-effort, non-fatal).
func (r *Registry) Collect() (model.GlobalMetrics, []error) {
	var g model.GlobalMetrics
	var errs []error
	for _, src := range r.sources {
		if err := src(&g); err != nil {
			errs = append(errs, err)
		}
	}
	return g, errs
}
