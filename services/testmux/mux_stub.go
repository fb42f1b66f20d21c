//go:build !debugmux

package testmux

import "hai-firmware/errlog"

const Enabled = false

type Mux struct{}

func New(*errlog.Log, Output) *Mux { return &Mux{} }

func (m *Mux) Register(pid uint8) (*Probe, error)      { return nil, nil }
func (m *Mux) Select(slot uint8, pid uint8) error      { return nil }
func (m *Mux) SelectSignal(slot uint8, ch uint8) error { return nil }
func (m *Mux) Signals() uint8                          { return 0 }
func (m *Mux) Routed(slot uint8) (uint8, bool)         { return 0, false }
