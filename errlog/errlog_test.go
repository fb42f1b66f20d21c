package errlog

import (
	"bytes"
	"testing"
)

func TestLogKeepsEarliestWhenFull(t *testing.T) {
	l := New()
	for i := 0; i < Capacity; i++ {
		if !l.Log(uint8(i%8), Code(i%4)) {
			t.Fatalf("entry %d dropped before capacity", i)
		}
	}
	if l.Log(7, 99) {
		t.Fatal("expected entry past capacity to be dropped")
	}
	if got := l.Count(); got != Capacity {
		t.Fatalf("Count = %d, want %d", got, Capacity)
	}
	if got := l.Dropped(); got != 1 {
		t.Fatalf("Dropped = %d, want 1", got)
	}
	first := l.Entries()[0]
	if first.PID != 0 || first.Code != 0 {
		t.Fatalf("first entry overwritten: %+v", first)
	}
	last := l.Entries()[Capacity-1]
	if last.Code == 99 {
		t.Fatal("log behaved like a ring")
	}
}

func TestObserverAndClear(t *testing.T) {
	l := New()
	var seen []Entry
	l.OnLog(func(e Entry) { seen = append(seen, e) })
	l.Log(3, DefaultState)
	l.Log(1, FirstLocal)
	if len(seen) != 2 || seen[1] != (Entry{PID: 1, Code: FirstLocal}) {
		t.Fatalf("observer saw %+v", seen)
	}
	l.Clear()
	if l.Count() != 0 || l.Dropped() != 0 {
		t.Fatal("Clear left entries behind")
	}
}

func TestDump(t *testing.T) {
	l := New()
	l.Log(0, DefaultState)
	l.Log(8, RegisterTestMux)
	var buf bytes.Buffer
	if err := l.Dump(&buf); err != nil {
		t.Fatal(err)
	}
	if got, want := buf.String(), "0:0\n8:1\ncount=2 dropped=0\n"; got != want {
		t.Fatalf("Dump = %q, want %q", got, want)
	}
}
