package globalscan

import "testing"

// TestCollectPopulatesUname exercises the real registry against the
// running system's /proc; uname is syscall-backed so it always succeeds
// even in minimal test sandboxes lacking most /proc files.
func TestCollectPopulatesUname(t *testing.T) {
	g, _ := NewRegistry().Collect()
	if g.Uname.Sysname == "" {
		t.Errorf("expected Uname.Sysname to be populated")
	}
}
