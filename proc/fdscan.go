package proc

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// ResolveSocketOwners maps each requested socket inode to its owning PID by
// walking every /proc/[pid]/fd directory once and matching the
// "socket:[inode]" symlink targets. Inodes already closed, or owned by a
// process this user cannot see into, are simply absent from the result.
func ResolveSocketOwners(procRoot string, inodes map[uint64]struct{}) map[uint64]int {
	want := make(map[string]uint64, len(inodes))
	for inode := range inodes {
		want[fmt.Sprintf("socket:[%d]", inode)] = inode
	}
	owners := make(map[uint64]int, len(want))
	if len(want) == 0 {
		return owners
	}

	entries, err := os.ReadDir(procRoot)
	if err != nil {
		return owners
	}
	for _, e := range entries {
		if len(want) == 0 {
			break
		}
		if !e.IsDir() {
			continue
		}
		pid, err := strconv.Atoi(e.Name())
		if err != nil {
			continue
		}
		fdDir := filepath.Join(procRoot, e.Name(), "fd")
		fds, err := os.ReadDir(fdDir)
		if err != nil {
			continue
		}
		for _, fd := range fds {
			target, err := os.Readlink(filepath.Join(fdDir, fd.Name()))
			if err != nil {
				continue
			}
			if inode, ok := want[target]; ok {
				owners[inode] = pid
				delete(want, target)
			}
		}
	}
	return owners
}
