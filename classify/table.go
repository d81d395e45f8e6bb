// Package classify maps process command names to a (group, subgroup)
// pair used by the aggregator to bucket processes.
package classify

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// GroupSubgroup is an interned (group, subgroup) pair. Both fields are
// plain strings; Go's string interning of identical literals and the
// small domain of names keep allocations low without a custom intern
// table.
type GroupSubgroup struct {
	Group    string
	Subgroup string
}

// Key returns the "{group}:{subgroup}" aggregation/ring key.
func (gs GroupSubgroup) Key() string {
	return gs.Group + ":" + gs.Subgroup
}

var otherUnknown = GroupSubgroup{Group: "other", Subgroup: "unknown"}
var otherOther = GroupSubgroup{Group: "other", Subgroup: "other"}

// subgroupFile is the schema of subgroups.toml.
type subgroupFile struct {
	Subgroups []subgroupEntry `toml:"subgroups"`
}

type subgroupEntry struct {
	Group          string   `toml:"group"`
	Subgroup       string   `toml:"subgroup"`
	Matches        []string `toml:"matches"`
	CmdlineMatches []string `toml:"cmdline_matches"`
}

// Table is an immutable-after-load map from command name to (group, subgroup).
type Table struct {
	byName map[string]GroupSubgroup
}

// BuiltinEntries is the built-in classification table, grounded on the
// most common daemon/process families one finds on a general-purpose
// Linux host.
func BuiltinEntries() map[string]GroupSubgroup {
	return map[string]GroupSubgroup{
		"nginx":      {Group: "web", Subgroup: "nginx"},
		"apache2":    {Group: "web", Subgroup: "apache"},
		"httpd":      {Group: "web", Subgroup: "apache"},
		"caddy":      {Group: "web", Subgroup: "caddy"},
		"postgres":   {Group: "db", Subgroup: "postgres"},
		"mysqld":     {Group: "db", Subgroup: "mysql"},
		"mariadbd":   {Group: "db", Subgroup: "mysql"},
		"mongod":     {Group: "db", Subgroup: "mongo"},
		"redis-server": {Group: "db", Subgroup: "redis"},
		"sshd":       {Group: "system", Subgroup: "sshd"},
		"systemd":    {Group: "system", Subgroup: "init"},
		"containerd": {Group: "container", Subgroup: "containerd"},
		"dockerd":    {Group: "container", Subgroup: "docker"},
		"kubelet":    {Group: "container", Subgroup: "kubelet"},
		"java":       {Group: "app", Subgroup: "java"},
		"node":       {Group: "app", Subgroup: "node"},
		"python3":    {Group: "app", Subgroup: "python"},
	}
}

// Load builds the classification table from the built-in entries,
// augmented first by /etc/herakles/subgroups.toml and then by
// ./subgroups.toml, if present; later files override earlier ones on
// name collisions. A missing overlay file is not an error.
func Load() (*Table, error) {
	return LoadFrom([]string{"/etc/herakles/subgroups.toml", "subgroups.toml"})
}

// LoadFrom builds the classification table from the built-in entries,
// augmented in order by each path in paths; later paths override earlier
// ones on name collisions. A missing overlay file is not an error.
func LoadFrom(paths []string) (*Table, error) {
	t := &Table{byName: make(map[string]GroupSubgroup)}
	for name, gs := range BuiltinEntries() {
		t.byName[name] = gs
	}
	for _, path := range paths {
		if err := t.mergeFile(path); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (t *Table) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}
	var sf subgroupFile
	if err := toml.Unmarshal(data, &sf); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	for _, e := range sf.Subgroups {
		gs := GroupSubgroup{Group: e.Group, Subgroup: e.Subgroup}
		for _, m := range e.Matches {
			t.byName[m] = gs
		}
		for _, m := range e.CmdlineMatches {
			t.byName[m] = gs
		}
	}
	return nil
}

// ClassifyRaw is a direct lookup, falling back to ("other","unknown").
func (t *Table) ClassifyRaw(name string) GroupSubgroup {
	if gs, ok := t.byName[name]; ok {
		return gs
	}
	return otherUnknown
}

// Config carries the filter options consulted by ClassifyWithConfig.
type Config struct {
	DisableOthers  bool
	SearchMode     string // "", "include", "exclude"
	SearchGroups   []string
	SearchSubgroups []string
}

// ClassifyWithConfig applies classify_raw plus the search/disable filters.
// A nil return means the process is excluded from aggregation entirely.
func (t *Table) ClassifyWithConfig(name string, cfg Config) *GroupSubgroup {
	gs := t.ClassifyRaw(name)

	if cfg.DisableOthers && gs.Group == "other" {
		return nil
	}

	switch cfg.SearchMode {
	case "include":
		if !matchesSearch(gs, cfg) {
			return nil
		}
	case "exclude":
		if matchesSearch(gs, cfg) {
			return nil
		}
	}

	if gs.Group == "other" && gs.Subgroup == "unknown" {
		gs = otherOther
	}
	return &gs
}

func matchesSearch(gs GroupSubgroup, cfg Config) bool {
	for _, g := range cfg.SearchGroups {
		if strings.EqualFold(g, gs.Group) {
			return true
		}
	}
	for _, s := range cfg.SearchSubgroups {
		if strings.EqualFold(s, gs.Subgroup) {
			return true
		}
	}
	return false
}
