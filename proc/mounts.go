package proc

import (
	"strings"

	"github.com/ftahirops/herakles/model"
	"github.com/ftahirops/herakles/util"
	"golang.org/x/sys/unix"
)

// pseudoFS lists filesystem types excluded from mount-point metrics.
var pseudoFS = map[string]bool{
	"sysfs": true, "proc": true, "devtmpfs": true, "tmpfs": true,
	"cgroup": true, "cgroup2": true, "debugfs": true, "tracefs": true,
	"securityfs": true, "hugetlbfs": true, "mqueue": true, "fusectl": true,
	"configfs": true, "pstore": true, "bpf": true, "ramfs": true,
	"rpc_pipefs": true, "nsfs": true, "autofs": true, "efivarfs": true,
	"squashfs": true, "iso9660": true, "devpts": true, "overlay": true,
}

// ReadMounts parses /proc/mounts and calls statvfs per real, deduplicated
// device mount, filtering pseudo filesystems.
func ReadMounts() ([]model.MountStats, error) {
	lines, err := util.ReadFileLines("/proc/mounts")
	if err != nil {
		return nil, newError(ErrorKindProcRead, "/proc/mounts", err)
	}

	seen := make(map[string]bool)
	var mounts []model.MountStats
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		dev, mountPoint, fsType := fields[0], fields[1], fields[2]
		if pseudoFS[fsType] || !strings.HasPrefix(dev, "/") || seen[dev] {
			continue
		}
		seen[dev] = true

		var stat unix.Statfs_t
		if err := unix.Statfs(mountPoint, &stat); err != nil {
			continue
		}
		bsize := uint64(stat.Bsize)
		mounts = append(mounts, model.MountStats{
			Device:     dev,
			MountPoint: mountPoint,
			FSType:     fsType,
			SizeBytes:  stat.Blocks * bsize,
			AvailBytes: stat.Bavail * bsize,
			Files:      stat.Files,
			FilesFree:  stat.Ffree,
		})
	}
	return mounts, nil
}
