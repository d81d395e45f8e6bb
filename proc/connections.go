package proc

import (
	"strconv"
	"strings"

	"github.com/ftahirops/herakles/util"
)

// ConnInode is one observed TCP or UDP socket, identified by its kernel
// inode so the owning process can be resolved separately via
// ResolveSocketOwners.
type ConnInode struct {
	Inode uint64
	Proto string // "tcp" or "udp"
}

// ReadConnInodes lists every live TCP/UDP socket inode from
// /proc/net/{tcp,tcp6,udp,udp6}, for per-process connection attribution
// (§6's net_connections_total).
func ReadConnInodes() ([]ConnInode, error) {
	sources := []struct {
		path  string
		proto string
	}{
		{"/proc/net/tcp", "tcp"},
		{"/proc/net/tcp6", "tcp"},
		{"/proc/net/udp", "udp"},
		{"/proc/net/udp6", "udp"},
	}
	var out []ConnInode
	var lastErr error
	read := false
	for _, src := range sources {
		lines, err := util.ReadFileLines(src.path)
		if err != nil {
			lastErr = err
			continue
		}
		read = true
		if len(lines) < 2 {
			continue
		}
		for _, line := range lines[1:] {
			if ci, ok := parseConnInodeLine(line, src.proto); ok {
				out = append(out, ci)
			}
		}
	}
	if !read {
		return nil, newError(ErrorKindProcRead, "/proc/net/tcp", lastErr)
	}
	return out, nil
}

// parseConnInodeLine parses one data line of /proc/net/{tcp,udp}(6) and
// returns its socket inode. Malformed lines and inode 0 (unbound sockets)
// are skipped.
func parseConnInodeLine(line, proto string) (ConnInode, bool) {
	fields := strings.Fields(line)
	if len(fields) < 10 {
		return ConnInode{}, false
	}
	inode, err := strconv.ParseUint(fields[9], 10, 64)
	if err != nil || inode == 0 {
		return ConnInode{}, false
	}
	return ConnInode{Inode: inode, Proto: proto}, true
}
