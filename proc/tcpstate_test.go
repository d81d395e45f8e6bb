package proc

import (
	"testing"

	"github.com/ftahirops/herakles/model"
)

func TestAddTCPStateLineCountsEachState(t *testing.T) {
	lines := []string{
		"   0: 0100007F:1F90 00000000:0000 0A 00000000:00000000 00:00000000 00000000  1000        0 12345 1 0000000000000000 100 0 0 10 0",
		"   1: 0100007F:1F91 0100007F:C350 01 00000000:00000000 00:00000000 00000000  1000        0 12346 1 0000000000000000 100 0 0 10 0",
		"   2: 0100007F:1F92 0100007F:C351 06 00000000:00000000 00:00000000 00000000  1000        0 0 1 0000000000000000 100 0 0 10 0",
		"   3: bogus line with too few fields",
	}
	var st model.TCPConnState
	for _, l := range lines {
		addTCPStateLine(&st, l)
	}

	if st.Listen != 1 {
		t.Errorf("Listen = %d, want 1", st.Listen)
	}
	if st.Established != 1 {
		t.Errorf("Established = %d, want 1", st.Established)
	}
	if st.TimeWait != 1 {
		t.Errorf("TimeWait = %d, want 1", st.TimeWait)
	}
}
