package proc

import (
	"bytes"
	"strings"

	"github.com/ftahirops/herakles/model"
	"github.com/ftahirops/herakles/util"
	"golang.org/x/sys/unix"
)

// ReadUname fills a UnameInfo from the uname(2) syscall.
func ReadUname() (model.UnameInfo, error) {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return model.UnameInfo{}, newError(ErrorKindProcRead, "uname", err)
	}
	return model.UnameInfo{
		Sysname: cstr(uts.Sysname[:]),
		Release: cstr(uts.Release[:]),
		Version: cstr(uts.Version[:]),
		Machine: cstr(uts.Machine[:]),
	}, nil
}

func cstr(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

// ReadFD returns allocated/max file-descriptor counts from /proc/sys/fs/file-nr.
func ReadFD() (model.FDStats, error) {
	content, err := util.ReadFileString("/proc/sys/fs/file-nr")
	if err != nil {
		return model.FDStats{}, newError(ErrorKindProcRead, "/proc/sys/fs/file-nr", err)
	}
	fields := strings.Fields(content)
	if len(fields) < 3 {
		return model.FDStats{}, nil
	}
	return model.FDStats{
		Allocated: util.ParseUint64(fields[0]),
		Max:       util.ParseUint64(fields[2]),
	}, nil
}
