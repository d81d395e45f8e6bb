// Package forensic implements the per-subgroup anomaly analyser (C9): it
// partitions a subgroup by how long its members have run, compares the
// current aggregate against a ring-derived baseline appropriate to that
// phase, and scores the result for severity.
package forensic

import (
	"sort"

	"github.com/ftahirops/herakles/aggregate"
	"github.com/ftahirops/herakles/classify"
	"github.com/ftahirops/herakles/model"
	"github.com/ftahirops/herakles/ring"
)

// Phase buckets a subgroup by the uptime of its longest-lived member.
type Phase int

const (
	Newborn Phase = iota
	Live
	Stabilization
	Historical
)

func (p Phase) String() string {
	switch p {
	case Live:
		return "live"
	case Stabilization:
		return "stabilization"
	case Historical:
		return "historical"
	default:
		return "newborn"
	}
}

// Severity is the anomaly-score band.
type Severity int

const (
	Normal Severity = iota
	Minor
	Moderate
	Critical
)

func (s Severity) String() string {
	switch s {
	case Critical:
		return "critical"
	case Moderate:
		return "moderate"
	case Minor:
		return "minor"
	default:
		return "normal"
	}
}

// severityFor applies the band thresholds to a current/baseline ratio.
func severityFor(ratio float64) Severity {
	switch {
	case ratio >= 2.0:
		return Critical
	case ratio >= 1.5:
		return Moderate
	case ratio >= 1.2:
		return Minor
	default:
		return Normal
	}
}

// MinMaxAvg is a running triplet with the timestamp each extreme was seen.
type MinMaxAvg struct {
	Min, Max, Avg   uint64
	MinAt, MaxAt    int64
}

// SubgroupAnalysis is one subgroup's forensic result for one scrape.
type SubgroupAnalysis struct {
	Group, Subgroup string
	Phase           Phase
	UptimeSeconds   float64

	CurrentRSSKb uint64
	CurrentPSSKb uint64
	CurrentUSSKb uint64

	BaselineRSSKb float64
	BaselinePSSKb float64
	BaselineUSSKb float64

	RSSStat MinMaxAvg // populated only in Stabilization/Historical
	PSSStat MinMaxAvg
	USSStat MinMaxAvg

	GrowthRatePerHourKb float64 // RSS growth rate; populated only in Historical

	WorstRatio   float64
	WorstMetric  string
	Severity     Severity
}

// Anomaly is a surfaced non-normal finding, emitted sorted severity-descending.
type Anomaly struct {
	Group, Subgroup string
	Metric          string
	Ratio           float64
	Severity        Severity
}

// Result is the full analyser output for one run.
type Result struct {
	Subgroups []SubgroupAnalysis
	Anomalies []Anomaly // non-normal only, severity-descending
}

// Analyze runs the phase partition and anomaly scoring over every
// classified subgroup in snap.
func Analyze(snap *model.Snapshot, table *classify.Table, cfg classify.Config, rings *ring.Index, historyWindowSeconds, intervalSeconds, systemUptimeSeconds float64) Result {
	agg := aggregate.Aggregate(snap, table, cfg)

	maxUptime := make(map[string]float64, len(agg.Subgroups))
	for _, sample := range snap.Processes {
		gs := table.ClassifyWithConfig(sample.Name, cfg)
		if gs == nil {
			continue
		}
		age := systemUptimeSeconds - sample.StartTimeSecs
		if age < 0 {
			age = 0
		}
		if age > maxUptime[gs.Key()] {
			maxUptime[gs.Key()] = age
		}
	}

	var out Result
	for key, a := range agg.Subgroups {
		uptime := maxUptime[key]
		sa := SubgroupAnalysis{
			Group:         a.Group,
			Subgroup:      a.Subgroup,
			Phase:         classifyPhase(uptime, historyWindowSeconds),
			UptimeSeconds: uptime,
			CurrentRSSKb:  a.RSSSum / 1024,
			CurrentPSSKb:  a.PSSSum / 1024,
			CurrentUSSKb:  a.USSSum / 1024,
		}

		hist := rings.History(key)
		analyzePhase(&sa, hist, intervalSeconds)
		out.Subgroups = append(out.Subgroups, sa)
		out.Anomalies = append(out.Anomalies, anomaliesFor(sa)...)
	}

	sort.Slice(out.Anomalies, func(i, j int) bool {
		if out.Anomalies[i].Severity != out.Anomalies[j].Severity {
			return out.Anomalies[i].Severity > out.Anomalies[j].Severity
		}
		return out.Anomalies[i].Ratio > out.Anomalies[j].Ratio
	})
	sort.Slice(out.Subgroups, func(i, j int) bool {
		if out.Subgroups[i].Group != out.Subgroups[j].Group {
			return out.Subgroups[i].Group < out.Subgroups[j].Group
		}
		return out.Subgroups[i].Subgroup < out.Subgroups[j].Subgroup
	})
	return out
}

func classifyPhase(uptimeSeconds, historyWindowSeconds float64) Phase {
	switch {
	case uptimeSeconds < historyWindowSeconds:
		return Newborn
	case uptimeSeconds < 300:
		return Live
	case uptimeSeconds < 3600:
		return Stabilization
	default:
		return Historical
	}
}

func analyzePhase(sa *SubgroupAnalysis, hist []model.RingRecord, intervalSeconds float64) {
	switch sa.Phase {
	case Newborn:
		return // insufficient baseline; informational only
	case Live:
		window := windowRecords(hist, 300, intervalSeconds)
		sa.BaselineRSSKb, sa.BaselinePSSKb, sa.BaselineUSSKb = averages(window)
	case Stabilization:
		sa.BaselineRSSKb, sa.BaselinePSSKb, sa.BaselineUSSKb = averages(hist)
		sa.RSSStat = tripletFor(hist, func(r model.RingRecord) uint64 { return r.RSSKb })
		sa.PSSStat = tripletFor(hist, func(r model.RingRecord) uint64 { return r.PSSKb })
		sa.USSStat = tripletFor(hist, func(r model.RingRecord) uint64 { return r.USSKb })
	case Historical:
		sa.BaselineRSSKb, sa.BaselinePSSKb, sa.BaselineUSSKb = averages(hist)
		sa.RSSStat = tripletFor(hist, func(r model.RingRecord) uint64 { return r.RSSKb })
		sa.PSSStat = tripletFor(hist, func(r model.RingRecord) uint64 { return r.PSSKb })
		sa.USSStat = tripletFor(hist, func(r model.RingRecord) uint64 { return r.USSKb })
		sa.GrowthRatePerHourKb = linearGrowthPerHour(hist)
	}

	score(sa)
}

func windowRecords(hist []model.RingRecord, windowSeconds, intervalSeconds float64) []model.RingRecord {
	if intervalSeconds <= 0 {
		return hist
	}
	n := int(windowSeconds / intervalSeconds)
	if n <= 0 || n >= len(hist) {
		return hist
	}
	return hist[len(hist)-n:]
}

func averages(hist []model.RingRecord) (rss, pss, uss float64) {
	if len(hist) == 0 {
		return 0, 0, 0
	}
	var sumRSS, sumPSS, sumUSS uint64
	for _, r := range hist {
		sumRSS += r.RSSKb
		sumPSS += r.PSSKb
		sumUSS += r.USSKb
	}
	n := float64(len(hist))
	return float64(sumRSS) / n, float64(sumPSS) / n, float64(sumUSS) / n
}

func tripletFor(hist []model.RingRecord, field func(model.RingRecord) uint64) MinMaxAvg {
	if len(hist) == 0 {
		return MinMaxAvg{}
	}
	m := MinMaxAvg{Min: field(hist[0]), Max: field(hist[0]), MinAt: hist[0].TimestampUnix, MaxAt: hist[0].TimestampUnix}
	var sum uint64
	for _, r := range hist {
		v := field(r)
		sum += v
		if v < m.Min {
			m.Min = v
			m.MinAt = r.TimestampUnix
		}
		if v > m.Max {
			m.Max = v
			m.MaxAt = r.TimestampUnix
		}
	}
	m.Avg = sum / uint64(len(hist))
	return m
}

// linearGrowthPerHour fits the simplest possible trend: the slope between
// the first and last record in the ring, extrapolated to an hourly rate.
func linearGrowthPerHour(hist []model.RingRecord) float64 {
	if len(hist) < 2 {
		return 0
	}
	first, last := hist[0], hist[len(hist)-1]
	dt := last.TimestampUnix - first.TimestampUnix
	if dt <= 0 {
		return 0
	}
	dRSS := float64(last.RSSKb) - float64(first.RSSKb)
	return dRSS / float64(dt) * 3600
}

func score(sa *SubgroupAnalysis) {
	ratios := map[string]float64{}
	if sa.BaselineRSSKb > 0 {
		ratios["rss"] = float64(sa.CurrentRSSKb) / sa.BaselineRSSKb
	}
	if sa.BaselinePSSKb > 0 {
		ratios["pss"] = float64(sa.CurrentPSSKb) / sa.BaselinePSSKb
	}
	if sa.BaselineUSSKb > 0 {
		ratios["uss"] = float64(sa.CurrentUSSKb) / sa.BaselineUSSKb
	}

	var worstMetric string
	var worstRatio float64
	for metric, ratio := range ratios {
		if ratio > worstRatio {
			worstRatio = ratio
			worstMetric = metric
		}
	}
	sa.WorstMetric = worstMetric
	sa.WorstRatio = worstRatio
	sa.Severity = severityFor(worstRatio)
}

func anomaliesFor(sa SubgroupAnalysis) []Anomaly {
	if sa.Severity == Normal || sa.WorstMetric == "" {
		return nil
	}
	return []Anomaly{{
		Group:    sa.Group,
		Subgroup: sa.Subgroup,
		Metric:   sa.WorstMetric,
		Ratio:    sa.WorstRatio,
		Severity: sa.Severity,
	}}
}
