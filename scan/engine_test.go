package scan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ftahirops/herakles/classify"
	"github.com/ftahirops/herakles/ring"
)

func writeFakeProcess(t *testing.T, root string, pid int, comm string, rssKB uint64) {
	t.Helper()
	dir := filepath.Join(root, itoa(pid))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "comm"), []byte(comm+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	stat := itoa(pid) + " (" + comm + ") S 1 " + itoa(pid) + " " + itoa(pid) +
		" 0 -1 4194304 0 0 0 0 100 50 0 0 20 0 1 0 12345 0 0 18446744073709551615 0 0 0 0 0 0 0 0 0 0 0 0 17 0 0 0 0 0 0 0 0 0 0 0 0 0 0\n"
	if err := os.WriteFile(filepath.Join(dir, "stat"), []byte(stat), 0o644); err != nil {
		t.Fatal(err)
	}
	rollup := "Rss:            " + itoa(int(rssKB)) + " kB\nPss:            " + itoa(int(rssKB)) + " kB\nPrivate_Clean:         0 kB\nPrivate_Dirty:         " + itoa(int(rssKB)) + " kB\n"
	if err := os.WriteFile(filepath.Join(dir, "smaps_rollup"), []byte(rollup), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "status"), []byte("VmSwap:\t0 kB\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "io"), []byte("read_bytes: 0\nwrite_bytes: 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// TestRefreshProducesSampleAndAggregate covers the full C5 refresh path
// against a synthetic /proc root, including the C6 aggregation trigger.
func TestRefreshProducesSampleAndAggregate(t *testing.T) {
	root := t.TempDir()
	writeFakeProcess(t, root, 4242, "nginx", 1024)

	table := classify.NewTableForTest(map[string]classify.GroupSubgroup{
		"nginx": {Group: "web", Subgroup: "nginx"},
	})
	rings := ring.NewIndex(10, 15)

	opts := DefaultOptions()
	opts.ProcRoot = root
	e := New(opts, nil, table, classify.Config{}, rings)

	e.Refresh()

	snap := e.Snapshot()
	if !snap.Success {
		t.Fatal("expected successful refresh")
	}
	s, ok := snap.Processes[4242]
	if !ok {
		t.Fatal("expected pid 4242 in snapshot")
	}
	if s.RSS != 1024*1024 {
		t.Errorf("RSS = %d, want %d", s.RSS, 1024*1024)
	}
	if s.LastReadBytes != s.ReadBytes {
		t.Errorf("B2: first sighting should seed baseline equal to cumulative value")
	}

	agg := e.LastAggregate()
	sg, ok := agg.Subgroups["web:nginx"]
	if !ok {
		t.Fatal("expected web:nginx aggregate")
	}
	if sg.RSSSum != s.RSS {
		t.Errorf("RSSSum = %d, want %d", sg.RSSSum, s.RSS)
	}

	if len(rings.History("web:nginx")) != 1 {
		t.Errorf("expected one ring record pushed")
	}
}

func TestMaybeRefreshSkipsWhenFresh(t *testing.T) {
	root := t.TempDir()
	table := classify.NewTableForTest(nil)
	opts := DefaultOptions()
	opts.ProcRoot = root
	e := New(opts, nil, table, classify.Config{}, nil)
	e.Refresh()

	before := e.Health().RefreshCount
	e.MaybeRefresh() // snapshot is fresh; should not trigger another refresh
	if e.Health().RefreshCount != before {
		t.Errorf("expected no additional refresh while snapshot is fresh")
	}
}
