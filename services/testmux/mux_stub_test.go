//go:build !debugmux

package testmux

import "testing"

func TestStubIsNoop(t *testing.T) {
	m := New(nil, func(uint8, uint8) { t.Fatal("stub wrote output") })
	p, err := m.Register(0)
	if err != nil {
		t.Fatal(err)
	}
	p.Set(0xFF)
	if p.Bits() != 0 || m.Select(0, 0) != nil || m.Signals() != 0 || Enabled {
		t.Fatal("stub mux is not inert")
	}
}
