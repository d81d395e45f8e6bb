package classify

import "testing"

func newTestTable() *Table {
	t := &Table{byName: map[string]GroupSubgroup{
		"postgres": {Group: "db", Subgroup: "postgres"},
		"nginx":    {Group: "web", Subgroup: "nginx"},
	}}
	return t
}

func TestClassifyRawFallback(t *testing.T) {
	tbl := newTestTable()
	if got := tbl.ClassifyRaw("unknown-thing"); got != (GroupSubgroup{Group: "other", Subgroup: "unknown"}) {
		t.Errorf("ClassifyRaw fallback = %+v", got)
	}
}

// TestClassifyWithConfigIncludeFilter covers S3.
func TestClassifyWithConfigIncludeFilter(t *testing.T) {
	tbl := newTestTable()
	cfg := Config{SearchMode: "include", SearchGroups: []string{"db"}}

	if got := tbl.ClassifyWithConfig("postgres", cfg); got == nil || got.Group != "db" {
		t.Errorf("postgres should survive include filter, got %+v", got)
	}
	if got := tbl.ClassifyWithConfig("nginx", cfg); got != nil {
		t.Errorf("nginx should be excluded, got %+v", got)
	}
}

// TestClassifyIsPure covers I9: identical inputs produce structurally
// equal outputs across repeated calls.
func TestClassifyIsPure(t *testing.T) {
	tbl := newTestTable()
	cfg := Config{}
	a := tbl.ClassifyWithConfig("nginx", cfg)
	b := tbl.ClassifyWithConfig("nginx", cfg)
	if *a != *b {
		t.Errorf("classify not pure: %+v != %+v", a, b)
	}
}

func TestNormalizeOtherUnknown(t *testing.T) {
	tbl := newTestTable()
	got := tbl.ClassifyWithConfig("totally-unclassified", Config{})
	if got == nil || got.Group != "other" || got.Subgroup != "other" {
		t.Errorf("expected other/other, got %+v", got)
	}
}
