package classify

// NewTableForTest builds a Table from an explicit name->GroupSubgroup map,
// bypassing file loading. Exported for use by other packages' tests.
func NewTableForTest(entries map[string]GroupSubgroup) *Table {
	byName := make(map[string]GroupSubgroup, len(entries))
	for k, v := range entries {
		byName[k] = v
	}
	return &Table{byName: byName}
}
