package proc

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ftahirops/herakles/util"
)

// MemoryReading is the decoded result of a smaps/smaps_rollup parse.
type MemoryReading struct {
	RSSBytes uint64
	PSSBytes uint64
	USSBytes uint64
	BytesRead int
}

// ReadMemory prefers smaps_rollup over smaps for pid under root, summing
// Rss/Pss/(Private_Clean+Private_Dirty) kB lines into bytes. bufSize
// sizes the line-buffered reader. On permission error the returned
// error's Kind is ErrorKindPermission; on any other open/read error it
// is ErrorKindNotReadable.
func ReadMemory(root string, pid int, bufSize int) (MemoryReading, error) {
	base := fmt.Sprintf("%s/%d", root, pid)
	rollup := base + "/smaps_rollup"
	if f, err := os.Open(rollup); err == nil {
		defer f.Close()
		return parseSmaps(f, rollup, bufSize)
	}
	smaps := base + "/smaps"
	f, err := os.Open(smaps)
	if err != nil {
		if os.IsPermission(err) {
			return MemoryReading{}, newError(ErrorKindPermission, smaps, err)
		}
		return MemoryReading{}, newError(ErrorKindNotReadable, smaps, err)
	}
	defer f.Close()
	return parseSmaps(f, smaps, bufSize)
}

func parseSmaps(f *os.File, path string, bufSize int) (MemoryReading, error) {
	if bufSize <= 0 {
		bufSize = 256 * 1024
	}
	r := bufio.NewReaderSize(f, bufSize)

	var reading MemoryReading
	var privClean, privDirty uint64
	total := 0

	for {
		line, err := r.ReadString('\n')
		total += len(line)
		if line != "" {
			parseSmapsLine(line, &reading, &privClean, &privDirty)
		}
		if err != nil {
			if err == io.EOF {
				break
			}
			return reading, newError(ErrorKindNotReadable, path, err)
		}
	}
	reading.USSBytes = (privClean + privDirty) * 1024
	reading.BytesRead = total
	return reading, nil
}

func parseSmapsLine(line string, reading *MemoryReading, privClean, privDirty *uint64) {
	switch {
	case strings.HasPrefix(line, "Rss:"):
		reading.RSSBytes += valueKB(line) * 1024
	case strings.HasPrefix(line, "Pss:"):
		reading.PSSBytes += valueKB(line) * 1024
	case strings.HasPrefix(line, "Private_Clean:"):
		*privClean += valueKB(line)
	case strings.HasPrefix(line, "Private_Dirty:"):
		*privDirty += valueKB(line)
	}
}

func valueKB(line string) uint64 {
	idx := strings.IndexByte(line, ':')
	if idx < 0 {
		return 0
	}
	return util.ParseUint64(strings.TrimSuffix(strings.TrimSpace(line[idx+1:]), " kB"))
}
