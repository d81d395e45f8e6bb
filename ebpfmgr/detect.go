package ebpfmgr

import (
	"os"
	"path/filepath"
)

// Capability describes what eBPF probing is available on this host.
type Capability struct {
	Available bool
	BTF       bool
	HasRoot   bool
	Reason    string
	Tracepoints []string // tracepoints confirmed present under tracefs
}

// requiredTracepoints groups the tracepoints each map's attachment prefers.
// Programs without a listed tracepoint use a kprobe fallback instead and
// are always considered available given BTF + root.
var requiredTracepoints = map[string][]string{
	"net_rx":   {"sock/inet_sock_set_state"},
	"net_tx":   {"sock/inet_sock_set_state"},
	"blk_io":   {"block/block_rq_issue", "block/block_rq_complete"},
	"tcp_state": {"sock/inet_sock_set_state"},
}

// Detect probes BTF availability, root, and tracefs tracepoint presence.
func Detect() Capability {
	cap := Capability{}

	if _, err := os.Stat("/sys/kernel/btf/vmlinux"); err == nil {
		cap.BTF = true
	}
	cap.HasRoot = os.Geteuid() == 0

	if !cap.BTF {
		cap.Reason = "kernel BTF not available (/sys/kernel/btf/vmlinux missing)"
		return cap
	}
	if !cap.HasRoot {
		cap.Reason = "root privileges required for eBPF probes"
		return cap
	}

	tracefs := "/sys/kernel/debug/tracing/events"
	if _, err := os.Stat(tracefs); err != nil {
		tracefs = "/sys/kernel/tracing/events"
	}

	seen := map[string]bool{}
	for _, tps := range requiredTracepoints {
		for _, tp := range tps {
			if seen[tp] {
				continue
			}
			if _, err := os.Stat(filepath.Join(tracefs, tp)); err == nil {
				cap.Tracepoints = append(cap.Tracepoints, tp)
				seen[tp] = true
			}
		}
	}

	// kprobes for block I/O and recv/send byte counting need no tracepoint
	// check; BTF + root is sufficient to attempt attachment.
	cap.Available = true
	return cap
}
