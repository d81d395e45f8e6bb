package proc

import "testing"

func TestParseConnInodeLineExtractsInode(t *testing.T) {
	line := "   1: 0100007F:1F91 0100007F:C350 01 00000000:00000000 00:00000000 00000000  1000        0 12346 1 0000000000000000 100 0 0 10 0"
	ci, ok := parseConnInodeLine(line, "tcp")
	if !ok {
		t.Fatal("expected line to parse")
	}
	if ci.Inode != 12346 || ci.Proto != "tcp" {
		t.Errorf("got %+v, want inode=12346 proto=tcp", ci)
	}
}

func TestParseConnInodeLineSkipsUnboundSockets(t *testing.T) {
	line := "   0: 00000000:0000 00000000:0000 07 00000000:00000000 00:00000000 00000000  1000        0 0 1 0000000000000000 100 0 0 10 0"
	if _, ok := parseConnInodeLine(line, "udp"); ok {
		t.Fatal("expected inode 0 to be skipped")
	}
}

func TestParseConnInodeLineSkipsMalformed(t *testing.T) {
	if _, ok := parseConnInodeLine("bogus line", "tcp"); ok {
		t.Fatal("expected malformed line to be rejected")
	}
}
