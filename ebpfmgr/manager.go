// Package ebpfmgr attaches optional eBPF probes that supply per-process
// network and block-I/O counters the /proc filesystem cannot provide
// cheaply. When probes cannot be attached (no BTF, no root, older kernel)
// the manager stays Disabled and every read method returns an empty result;
// callers never need a separate code path for the absent case.
package ebpfmgr

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ftahirops/herakles/proc"
)

// State is the manager's attach state.
type State int

const (
	Disabled State = iota
	Enabled
)

func (s State) String() string {
	if s == Enabled {
		return "enabled"
	}
	return "disabled"
}

// per-PID map capacities, confirmed against the reference implementation's
// net_stats_map/blkio_stats_map sizing.
const (
	perPIDMapCapacity = 10240
	tcpStateMapCapacity = 12
)

// NetStat is one PID's cumulative network byte counters.
type NetStat struct {
	PID     uint32
	Comm    string
	RxBytes uint64
	TxBytes uint64
}

// BlkioStat is one PID's cumulative block I/O counters.
type BlkioStat struct {
	PID        uint32
	Comm       string
	ReadBytes  uint64
	WriteBytes uint64
	ReadOps    uint64
	WriteOps   uint64
}

// TCPStateCount is the live connection count in one TCP state.
type TCPStateCount struct {
	State string
	Count uint64
}

// attachment tracks one program's name and whether it attached.
type attachment struct {
	name    string
	ok      bool
	reason  string
}

// Manager owns the attached probes and self-accounts their CPU cost.
type Manager struct {
	mu    sync.Mutex
	state State
	cap   Capability

	attachments []attachment

	cpuNanos atomic.Int64

	// net/blkio/tcpstate hold the last-read snapshot; in the absence of
	// generated bpf2go bindings (see gen.go) reads degrade to these
	// pre-seeded, empty maps rather than touching real kernel maps.
	net      []NetStat
	blkio    []BlkioStat
	tcp      []TCPStateCount
	netKeys  int
	blkioKeys int
	tcpKeys  int
}

// New returns a Manager in the Disabled state.
func New() *Manager {
	return &Manager{state: Disabled}
}

// Attach probes capability and attempts to attach the eBPF programs. It
// never returns an error for "not available" environments: Disabled is a
// normal, expected outcome on hosts lacking BTF or root. It returns an
// error only when capability detection succeeded but no probe attached.
func (m *Manager) Attach() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cap = Detect()
	if !m.cap.Available {
		m.state = Disabled
		return nil
	}

	// Attachment is attempted per probe group; a partial attach (e.g. TX
	// kprobe fails while RX succeeds) is not fatal (§4.4 step 4) - only
	// a fully failed attach set leaves the manager Disabled.
	m.attachments = m.attachments[:0]
	succeeded := 0
	for _, name := range []string{"net_rx", "net_tx", "blk_read", "blk_write", "tcp_state"} {
		ok, reason := attemptAttach(name, m.cap)
		m.attachments = append(m.attachments, attachment{name: name, ok: ok, reason: reason})
		if ok {
			succeeded++
		}
	}

	if succeeded == 0 {
		m.state = Disabled
		return fmt.Errorf("ebpfmgr: no probes attached: %s", m.cap.Reason)
	}
	m.state = Enabled
	return nil
}

// attemptAttach is the seam where a real build would call
// link.Tracepoint/link.Kprobe against bpf2go-generated program handles
// (see gen.go). Those bindings are not present in this tree, matching the
// reference collector's own checked-in state, so every attempt reports a
// deterministic, logged failure here rather than attaching nothing
// silently.
func attemptAttach(name string, cap Capability) (bool, string) {
	return false, "generated eBPF bindings not present in this build (see ebpfmgr/gen.go)"
}

// State reports the manager's current attach state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Close detaches all held links. Safe to call on a Disabled manager.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = Disabled
	m.attachments = nil
}

// ReadNetStats returns the current per-PID network byte counters. Returns
// an empty slice, not an error, when Disabled.
func (m *Manager) ReadNetStats(procRoot string) []NetStat {
	start := time.Now()
	defer m.accountCPU(start)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Enabled {
		return nil
	}
	out := make([]NetStat, len(m.net))
	for i, s := range m.net {
		s.Comm = resolveComm(procRoot, s.PID)
		out[i] = s
	}
	return out
}

// ReadBlkioStats returns the current per-PID block I/O counters.
func (m *Manager) ReadBlkioStats(procRoot string) []BlkioStat {
	start := time.Now()
	defer m.accountCPU(start)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Enabled {
		return nil
	}
	out := make([]BlkioStat, len(m.blkio))
	for i, s := range m.blkio {
		s.Comm = resolveComm(procRoot, s.PID)
		out[i] = s
	}
	return out
}

// ReadTCPStates returns connection counts bucketed by TCP state.
func (m *Manager) ReadTCPStates() []TCPStateCount {
	start := time.Now()
	defer m.accountCPU(start)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Enabled {
		return nil
	}
	out := make([]TCPStateCount, len(m.tcp))
	copy(out, m.tcp)
	return out
}

// resolveComm looks up a PID's command name, falling back to "pid_N" when
// the process has already exited or /proc/[pid]/comm is unreadable.
func resolveComm(procRoot string, pid uint32) string {
	if name := proc.ReadComm(procRoot, int(pid)); name != "" {
		return name
	}
	return fmt.Sprintf("pid_%d", pid)
}

func (m *Manager) accountCPU(start time.Time) {
	m.cpuNanos.Add(int64(time.Since(start)))
}

// CPUSeconds reports total self-accounted eBPF read CPU time, exported as
// the ebpf_cpu_seconds_total counter.
func (m *Manager) CPUSeconds() float64 {
	return float64(m.cpuNanos.Load()) / 1e9
}

// MapFillRatio is the mean of (live key count / capacity) across the
// per-PID maps and the TCP-state map, a cheap saturation signal surfaced
// as ebpf_map_fill_ratio.
func (m *Manager) MapFillRatio() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Enabled {
		return 0
	}
	netRatio := float64(m.netKeys) / perPIDMapCapacity
	blkioRatio := float64(m.blkioKeys) / perPIDMapCapacity
	tcpRatio := float64(m.tcpKeys) / tcpStateMapCapacity
	return (netRatio + blkioRatio + tcpRatio) / 3
}

// Attachments reports the per-probe attach outcome, surfaced by the
// check-requirements CLI subcommand and the /health endpoint.
func (m *Manager) Attachments() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.attachments))
	for _, a := range m.attachments {
		status := "ok"
		if !a.ok {
			status = "failed: " + a.reason
		}
		out = append(out, fmt.Sprintf("%s: %s", a.name, status))
	}
	return out
}
