package forensic

import (
	"testing"

	"github.com/ftahirops/herakles/classify"
	"github.com/ftahirops/herakles/model"
	"github.com/ftahirops/herakles/ring"
)

func table() *classify.Table {
	return classify.NewTableForTest(map[string]classify.GroupSubgroup{
		"nginx": {Group: "web", Subgroup: "nginx"},
	})
}

func TestClassifyPhaseBoundaries(t *testing.T) {
	cases := []struct {
		uptime float64
		want   Phase
	}{
		{uptime: 5, want: Newborn},
		{uptime: 60, want: Live},
		{uptime: 400, want: Stabilization},
		{uptime: 4000, want: Historical},
	}
	for _, c := range cases {
		if got := classifyPhase(c.uptime, 15); got != c.want {
			t.Errorf("classifyPhase(%v) = %v, want %v", c.uptime, got, c.want)
		}
	}
}

func TestAnalyzeCriticalAnomaly(t *testing.T) {
	snap := &model.Snapshot{Processes: map[int]model.ProcessSample{
		1: {PID: 1, Name: "nginx", RSS: 300 * 1024 * 1024, StartTimeSecs: 0},
	}}
	rings := ring.NewIndex(10, 15)
	for i, kb := range []uint64{100 * 1024, 100 * 1024, 100 * 1024} {
		rings.Record("web:nginx", model.RingRecord{TimestampUnix: int64(1000 + i*15), RSSKb: kb})
	}

	res := Analyze(snap, table(), classify.Config{}, rings, 15, 15, 5000)
	if len(res.Anomalies) != 1 {
		t.Fatalf("expected 1 anomaly, got %d: %+v", len(res.Anomalies), res.Anomalies)
	}
	if res.Anomalies[0].Severity != Critical {
		t.Errorf("severity = %v, want Critical (300MB current vs 100MB baseline = 3.0 ratio)", res.Anomalies[0].Severity)
	}
}

func TestAnalyzeNewbornHasNoAnomaly(t *testing.T) {
	snap := &model.Snapshot{Processes: map[int]model.ProcessSample{
		1: {PID: 1, Name: "nginx", RSS: 300 * 1024 * 1024, StartTimeSecs: 4999},
	}}
	rings := ring.NewIndex(10, 15)
	rings.Record("web:nginx", model.RingRecord{TimestampUnix: 1000, RSSKb: 100 * 1024})

	res := Analyze(snap, table(), classify.Config{}, rings, 15, 15, 5000)
	if len(res.Anomalies) != 0 {
		t.Fatalf("newborn subgroup should not be scored, got %+v", res.Anomalies)
	}
	if res.Subgroups[0].Phase != Newborn {
		t.Errorf("phase = %v, want Newborn", res.Subgroups[0].Phase)
	}
}
