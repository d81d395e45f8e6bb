package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/ftahirops/herakles/classify"
	"github.com/ftahirops/herakles/ring"
	"github.com/ftahirops/herakles/scan"
)

func writeFakeProc(t *testing.T, root string, pid int) {
	t.Helper()
	dir := filepath.Join(root, itoaTest(pid))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	stat := itoaTest(pid) + " (nginx) S 1 " + itoaTest(pid) + " " + itoaTest(pid) +
		" 0 -1 4194304 0 0 0 0 100 50 0 0 20 0 1 0 12345 0 0 18446744073709551615 0 0 0 0 0 0 0 0 0 0 0 0 17 0 0 0 0 0 0 0 0 0 0 0 0 0 0\n"
	os.WriteFile(filepath.Join(dir, "comm"), []byte("nginx\n"), 0o644)
	os.WriteFile(filepath.Join(dir, "stat"), []byte(stat), 0o644)
	os.WriteFile(filepath.Join(dir, "smaps_rollup"), []byte("Rss:            1024 kB\nPss:            1024 kB\nPrivate_Clean:         0 kB\nPrivate_Dirty:         1024 kB\n"), 0o644)
	os.WriteFile(filepath.Join(dir, "status"), []byte("VmSwap:\t0 kB\n"), 0o644)
	os.WriteFile(filepath.Join(dir, "io"), []byte("read_bytes: 0\nwrite_bytes: 0\n"), 0o644)
}

func itoaTest(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

func TestCollectEmitsMetricFamilies(t *testing.T) {
	root := t.TempDir()
	writeFakeProc(t, root, 777)

	table := classify.NewTableForTest(map[string]classify.GroupSubgroup{
		"nginx": {Group: "web", Subgroup: "nginx"},
	})
	rings := ring.NewIndex(10, 15)
	opts := scan.DefaultOptions()
	opts.ProcRoot = root
	engine := scan.New(opts, nil, table, classify.Config{}, rings)
	engine.Refresh()

	c := New(engine, nil)
	for _, name := range []string{
		"herakles_group_memory_rss_bytes",
		"herakles_cpu_count",
		"herakles_label_cardinality",
	} {
		n, err := testutil.CollectAndCount(c, name)
		if err != nil {
			t.Fatalf("collect %s: %v", name, err)
		}
		if n == 0 {
			t.Errorf("expected at least one sample for %s", name)
		}
	}
}

func TestRecordRequestAccumulates(t *testing.T) {
	root := t.TempDir()
	table := classify.NewTableForTest(nil)
	opts := scan.DefaultOptions()
	opts.ProcRoot = root
	engine := scan.New(opts, nil, table, classify.Config{}, nil)
	engine.Refresh()

	c := New(engine, nil)
	c.RecordRequest("/metrics", "200", 0)
	c.RecordRequest("/metrics", "200", 0)

	c.mu.Lock()
	got := c.httpCounts[httpKey{path: "/metrics", status: "200"}]
	c.mu.Unlock()
	if got != 2 {
		t.Errorf("request count = %d, want 2", got)
	}
}
