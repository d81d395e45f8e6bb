package proc

import (
	"os"
	"path/filepath"
	"strconv"
)

// DefaultRoot is the default /proc mount point.
const DefaultRoot = "/proc"

// EnumeratePIDs yields every directory under root whose name is all
// ASCII digits and which contains either smaps or smaps_rollup. If cap
// is > 0, enumeration stops early once cap PIDs have been found; order
// is unspecified in that case.
func EnumeratePIDs(root string, cap int) ([]int, error) {
	if root == "" {
		root = DefaultRoot
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, newError(ErrorKindProcRead, root, err)
	}

	pids := make([]int, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		name := e.Name()
		pid, err := strconv.Atoi(name)
		if err != nil || pid <= 0 {
			continue
		}
		dir := filepath.Join(root, name)
		if !hasSmaps(dir) {
			continue
		}
		pids = append(pids, pid)
		if cap > 0 && len(pids) >= cap {
			break
		}
	}
	return pids, nil
}

func hasSmaps(dir string) bool {
	if _, err := os.Stat(filepath.Join(dir, "smaps_rollup")); err == nil {
		return true
	}
	if _, err := os.Stat(filepath.Join(dir, "smaps")); err == nil {
		return true
	}
	return false
}
