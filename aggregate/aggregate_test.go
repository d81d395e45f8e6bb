package aggregate

import (
	"testing"

	"github.com/ftahirops/herakles/classify"
	"github.com/ftahirops/herakles/model"
)

func tableWith(entries map[string]classify.GroupSubgroup) *classify.Table {
	return classify.NewTableForTest(entries)
}

// TestAggregateRSSSumExact covers I2: aggregate.rss = sum of member rss.
func TestAggregateRSSSumExact(t *testing.T) {
	snap := &model.Snapshot{Processes: map[int]model.ProcessSample{
		1: {PID: 1, Name: "nginx", RSS: 100, PSS: 80, USS: 60},
		2: {PID: 2, Name: "nginx", RSS: 200, PSS: 150, USS: 120},
	}}
	table := tableWith(map[string]classify.GroupSubgroup{"nginx": {Group: "web", Subgroup: "nginx"}})

	res := Aggregate(snap, table, classify.Config{})
	agg := res.Subgroups["web:nginx"]
	if agg == nil {
		t.Fatal("expected web:nginx aggregate")
	}
	if agg.RSSSum != 300 {
		t.Errorf("RSSSum = %d, want 300", agg.RSSSum)
	}
}

// TestAggregateS1 covers S1's single-process scenario.
func TestAggregateS1(t *testing.T) {
	snap := &model.Snapshot{Processes: map[int]model.ProcessSample{
		1000: {PID: 1000, Name: "nginx", RSS: 102400, PSS: 81920, USS: 61440, CPUTimeSeconds: 1.5},
	}}
	table := tableWith(map[string]classify.GroupSubgroup{"nginx": {Group: "web", Subgroup: "nginx"}})

	res := Aggregate(snap, table, classify.Config{})
	agg := res.Subgroups["web:nginx"]
	if agg.RSSSum != 102400 || agg.PSSSum != 81920 || agg.USSSum != 61440 {
		t.Fatalf("sums = %+v", agg)
	}
	if agg.TopRSS[0].PID != 1000 || agg.TopRSS[0].Value != 100 {
		t.Errorf("TopRSS[0] = %+v, want pid=1000 value=100kb", agg.TopRSS[0])
	}
}

// TestTopKOrderAndSentinel covers I3.
func TestTopKOrderAndSentinel(t *testing.T) {
	snap := &model.Snapshot{Processes: map[int]model.ProcessSample{
		1: {PID: 1, Name: "nginx", RSS: 500},
		2: {PID: 2, Name: "nginx", RSS: 900},
		3: {PID: 3, Name: "nginx", RSS: 100},
	}}
	table := tableWith(map[string]classify.GroupSubgroup{"nginx": {Group: "web", Subgroup: "nginx"}})

	res := Aggregate(snap, table, classify.Config{})
	top := res.Subgroups["web:nginx"].TopRSS
	if top[0].PID != 2 || top[1].PID != 1 || top[2].PID != 3 {
		t.Fatalf("unexpected ranking: %+v", top)
	}
	for i := 1; i < 3; i++ {
		if top[i].Value > top[i-1].Value {
			t.Errorf("rank %d value %d exceeds rank %d value %d", i, top[i].Value, i-1, top[i-1].Value)
		}
	}
}

func TestTopKSentinelWhenFewerThanThree(t *testing.T) {
	snap := &model.Snapshot{Processes: map[int]model.ProcessSample{
		1: {PID: 1, Name: "nginx", RSS: 500},
	}}
	table := tableWith(map[string]classify.GroupSubgroup{"nginx": {Group: "web", Subgroup: "nginx"}})

	res := Aggregate(snap, table, classify.Config{})
	top := res.Subgroups["web:nginx"].TopRSS
	if top[1].PID != 0 || top[2].PID != 0 {
		t.Fatalf("unused ranks should carry sentinel PID 0, got %+v", top)
	}
}

func TestOverlayConnectionsCountsByProto(t *testing.T) {
	snap := &model.Snapshot{Processes: map[int]model.ProcessSample{
		1: {PID: 1, Name: "nginx", RSS: 100},
	}}
	table := tableWith(map[string]classify.GroupSubgroup{"nginx": {Group: "web", Subgroup: "nginx"}})
	res := Aggregate(snap, table, classify.Config{})

	rows := []ConnRow{
		{PID: 100, Comm: "nginx", Proto: "tcp"},
		{PID: 101, Comm: "nginx", Proto: "tcp"},
		{PID: 102, Comm: "nginx", Proto: "udp"},
		{PID: 999, Comm: "unclassified-thing", Proto: "tcp"},
	}
	OverlayConnections(res, table, classify.Config{}, rows)

	agg := res.Subgroups["web:nginx"]
	if agg.ConnCounts["tcp"] != 2 {
		t.Errorf("ConnCounts[tcp] = %d, want 2", agg.ConnCounts["tcp"])
	}
	if agg.ConnCounts["udp"] != 1 {
		t.Errorf("ConnCounts[udp] = %d, want 1", agg.ConnCounts["udp"])
	}
}
