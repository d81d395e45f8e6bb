// Package aggregate computes per-(group,subgroup) sums and top-3 rankings
// from a published snapshot, and builds the RingRecord pushed into history.
package aggregate

import (
	"time"

	"github.com/ftahirops/herakles/classify"
	"github.com/ftahirops/herakles/model"
)

// Result is the full aggregation output for one refresh.
type Result struct {
	Subgroups map[string]*model.SubgroupAggregate // key = "group:subgroup"
}

type builder struct {
	agg       *model.SubgroupAggregate
	cpuTop    topK
	rssTop    topK
	pssTop    topK
}

// Aggregate classifies every sample in snap and accumulates sums and
// top-3 rankings per subgroup.
func Aggregate(snap *model.Snapshot, table *classify.Table, cfg classify.Config) Result {
	builders := make(map[string]*builder)

	for pid, sample := range snap.Processes {
		gs := table.ClassifyWithConfig(sample.Name, cfg)
		if gs == nil {
			continue
		}
		key := gs.Key()
		b, ok := builders[key]
		if !ok {
			b = &builder{agg: &model.SubgroupAggregate{Group: gs.Group, Subgroup: gs.Subgroup}}
			builders[key] = b
		}
		accumulate(b, pid, sample)
	}

	out := Result{Subgroups: make(map[string]*model.SubgroupAggregate, len(builders))}
	for key, b := range builders {
		finalize(b)
		out.Subgroups[key] = b.agg
	}
	return out
}

func accumulate(b *builder, pid int, s model.ProcessSample) {
	b.agg.RSSSum += s.RSS
	b.agg.PSSSum += s.PSS
	b.agg.USSSum += s.USS
	b.agg.SwapSum += s.Swap
	b.agg.CPUPercentSum += float64(s.CPUPercent)
	b.agg.CPUSecondsSum += s.CPUTimeSeconds
	b.agg.CPUUserSecondsSum += s.CPUUserSeconds
	b.agg.CPUSystemSecondsSum += s.CPUSystemSeconds
	b.agg.MemberCount++

	b.cpuTop.Offer(uint32(pid), uint64(s.CPUPercent*1000), s.Name)
	b.rssTop.Offer(uint32(pid), s.RSS/1024, s.Name)
	b.pssTop.Offer(uint32(pid), s.PSS/1024, s.Name)
}

func finalize(b *builder) {
	identity := func(v uint64) uint32 { return uint32(v) }
	b.agg.TopCPU = toEntries(b.cpuTop.Entries(identity))
	b.agg.TopRSS = toEntries(b.rssTop.Entries(identity))
	b.agg.TopPSS = toEntries(b.pssTop.Entries(identity))
}

func toEntries(in [3]entryOut) [3]model.TopKEntry {
	var out [3]model.TopKEntry
	for i, e := range in {
		if e.pid == 0 {
			continue
		}
		out[i].PID = e.pid
		out[i].Value = e.value
		out[i].SetName(e.name)
	}
	return out
}

// BuildRingRecord serialises one subgroup's aggregate into a RingRecord
// at the given instant.
func BuildRingRecord(agg *model.SubgroupAggregate, at time.Time) model.RingRecord {
	return model.RingRecord{
		TimestampUnix:  at.Unix(),
		RSSKb:          agg.RSSSum / 1024,
		PSSKb:          agg.PSSSum / 1024,
		USSKb:          agg.USSSum / 1024,
		CPUPercent:     float32(agg.CPUPercentSum),
		CPUTimeSeconds: float32(agg.CPUSecondsSum),
		TopCPU:         agg.TopCPU,
		TopRSS:         agg.TopRSS,
		TopPSS:         agg.TopPSS,
	}
}

// OverlayEbpf folds per-PID eBPF network/block-IO rows into the matching
// subgroup totals by re-classifying each row's comm field (§4.6).
func OverlayEbpf(res Result, table *classify.Table, cfg classify.Config, rows []EbpfRow) {
	bySubgroup := make(map[string]*model.SubgroupAggregate, len(res.Subgroups))
	for k, v := range res.Subgroups {
		bySubgroup[k] = v
	}
	for _, row := range rows {
		gs := table.ClassifyWithConfig(row.Comm, cfg)
		if gs == nil {
			continue
		}
		agg, ok := bySubgroup[gs.Key()]
		if !ok {
			continue
		}
		agg.NetRxBytes += row.RxBytes
		agg.NetTxBytes += row.TxBytes
		agg.IOReadBytes += row.ReadBytes
		agg.IOWriteBytes += row.WriteBytes
		agg.IOReadOps += row.ReadOps
		agg.IOWriteOps += row.WriteOps
	}
}

// EbpfRow is one per-PID eBPF-sourced counter row used for re-classification.
type EbpfRow struct {
	PID        int
	Comm       string
	RxBytes    uint64
	TxBytes    uint64
	ReadBytes  uint64
	WriteBytes uint64
	ReadOps    uint64
	WriteOps   uint64
}

// ConnRow is one socket whose owning PID has been resolved, used to
// attribute a live connection to a subgroup by re-classifying the owner's
// comm (§6's net_connections_total).
type ConnRow struct {
	PID   int
	Comm  string
	Proto string
}

// OverlayConnections folds resolved socket-ownership rows into per-subgroup
// connection counts by protocol, mirroring OverlayEbpf's re-classification
// pattern.
func OverlayConnections(res Result, table *classify.Table, cfg classify.Config, rows []ConnRow) {
	bySubgroup := make(map[string]*model.SubgroupAggregate, len(res.Subgroups))
	for k, v := range res.Subgroups {
		bySubgroup[k] = v
	}
	for _, row := range rows {
		gs := table.ClassifyWithConfig(row.Comm, cfg)
		if gs == nil {
			continue
		}
		agg, ok := bySubgroup[gs.Key()]
		if !ok {
			continue
		}
		if agg.ConnCounts == nil {
			agg.ConnCounts = make(map[string]uint64, 2)
		}
		agg.ConnCounts[row.Proto]++
	}
}
