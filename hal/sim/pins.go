package sim

import (
	"sync"

	"hai-firmware/bus"
	"hai-firmware/types"
)

// Pin is a digital output that counts rising edges.
type Pin struct {
	mu    sync.Mutex
	level bool
	Rises int
}

func (p *Pin) Set(on bool) {
	p.mu.Lock()
	if on && !p.level {
		p.Rises++
	}
	p.level = on
	p.mu.Unlock()
}

func (p *Pin) Get() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.level
}

// RGB records the indicator colour and publishes changes on led/color.
type RGB struct {
	mu      sync.Mutex
	c       types.Color
	History []types.Color
	conn    *bus.Connection
}

func NewRGB(conn *bus.Connection) *RGB { return &RGB{conn: conn} }

func (l *RGB) SetColor(r, g, b uint8) {
	c := types.Color{R: r, G: g, B: b}
	l.mu.Lock()
	changed := c != l.c
	l.c = c
	if changed {
		l.History = append(l.History, c)
	}
	conn := l.conn
	l.mu.Unlock()
	if changed && conn != nil {
		conn.Publish(conn.NewMessage(bus.T(types.TopicLED, "color"), c, true))
	}
}

func (l *RGB) Color() types.Color {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.c
}
