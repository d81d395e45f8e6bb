package proc

import (
	"encoding/hex"
	"strings"

	"github.com/ftahirops/herakles/model"
	"github.com/ftahirops/herakles/util"
)

// ReadTCPConnState counts TCP sockets per connection state from
// /proc/net/tcp and /proc/net/tcp6. State values follow the kernel's
// enum_tcp_state: 01=ESTABLISHED, 02=SYN_SENT, 03=SYN_RECV, 04=FIN_WAIT1,
// 05=FIN_WAIT2, 06=TIME_WAIT, 07=CLOSE, 08=CLOSE_WAIT, 09=LAST_ACK,
// 0A=LISTEN, 0B=CLOSING.
func ReadTCPConnState() (model.TCPConnState, error) {
	var st model.TCPConnState
	var lastErr error
	read := false
	for _, path := range []string{"/proc/net/tcp", "/proc/net/tcp6"} {
		lines, err := util.ReadFileLines(path)
		if err != nil {
			lastErr = err
			continue
		}
		read = true
		if len(lines) < 2 {
			continue
		}
		for _, line := range lines[1:] {
			addTCPStateLine(&st, line)
		}
	}
	if !read {
		return model.TCPConnState{}, newError(ErrorKindProcRead, "/proc/net/tcp", lastErr)
	}
	return st, nil
}

// addTCPStateLine parses one data line of /proc/net/tcp(6) and increments
// the matching counter in st. Malformed lines are skipped.
func addTCPStateLine(st *model.TCPConnState, line string) {
	fields := strings.Fields(line)
	if len(fields) < 4 {
		return
	}
	stateBytes, err := hex.DecodeString(fields[3])
	if err != nil || len(stateBytes) == 0 {
		return
	}
	switch stateBytes[0] {
	case 0x01:
		st.Established++
	case 0x02:
		st.SynSent++
	case 0x03:
		st.SynRecv++
	case 0x04:
		st.FinWait1++
	case 0x05:
		st.FinWait2++
	case 0x06:
		st.TimeWait++
	case 0x07:
		st.Close++
	case 0x08:
		st.CloseWait++
	case 0x09:
		st.LastAck++
	case 0x0A:
		st.Listen++
	case 0x0B:
		st.Closing++
	}
}
