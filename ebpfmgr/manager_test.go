package ebpfmgr

import "testing"

// TestManagerDisabledByDefault covers the expected state on hosts/builds
// without generated eBPF bindings: Disabled, empty reads, zero ratios.
func TestManagerDisabledByDefault(t *testing.T) {
	m := New()
	if m.State() != Disabled {
		t.Fatalf("expected Disabled, got %v", m.State())
	}
	if got := m.ReadNetStats("/proc"); got != nil {
		t.Errorf("expected nil net stats when disabled, got %v", got)
	}
	if got := m.ReadBlkioStats("/proc"); got != nil {
		t.Errorf("expected nil blkio stats when disabled, got %v", got)
	}
	if got := m.MapFillRatio(); got != 0 {
		t.Errorf("expected 0 fill ratio when disabled, got %v", got)
	}
}

func TestManagerAttachReportsFailureReason(t *testing.T) {
	m := New()
	_ = m.Attach()
	if m.State() == Enabled {
		t.Fatal("expected Disabled: no generated bindings in this tree")
	}
	attachments := m.Attachments()
	if len(attachments) == 0 {
		t.Fatal("expected per-probe attachment reports")
	}
}

func TestManagerCloseIsSafeWhenDisabled(t *testing.T) {
	m := New()
	m.Close() // must not panic
}
