// Package scanner delivers scanned codes to a single consumer.
package scanner

import (
	"strings"
	"sync"
)

// Gate lets exactly one code through per armed period. The consumer
// re-arms it once it is ready for the next scan.
type Gate struct {
	mu    sync.Mutex
	armed bool
}

// NewGate returns an armed gate.
func NewGate() *Gate {
	return &Gate{armed: true}
}

func (g *Gate) Arm() {
	g.mu.Lock()
	g.armed = true
	g.mu.Unlock()
}

func (g *Gate) Disarm() {
	g.mu.Lock()
	g.armed = false
	g.mu.Unlock()
}

func (g *Gate) Armed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.armed
}

// Accept reports whether code is taken. A taken code disarms the gate;
// blank codes and codes seen while disarmed are dropped.
func (g *Gate) Accept(code string) (string, bool) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.armed {
		return "", false
	}
	g.armed = false
	return code, true
}
