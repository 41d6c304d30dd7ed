// Package nav carries screen-stack directives from the flows to whatever
// hosts them (the CLI, or a test recorder).
package nav

import (
	"sync"

	"github.com/rs/zerolog"
)

type Route string

const (
	RouteLogin          Route = "/login"
	RouteHome           Route = "/(tabs)"
	RouteStock          Route = "/stock"
	RouteProductDetails Route = "/ProductDetails"
)

// Navigator receives directives to replace or push the current screen.
type Navigator interface {
	Replace(route Route)
	Push(route Route)
	Back()
}

// LogNavigator only records directives in the log; the CLI has no screen
// stack of its own.
type LogNavigator struct {
	log zerolog.Logger
}

func NewLogNavigator(log zerolog.Logger) *LogNavigator {
	return &LogNavigator{log: log}
}

func (n *LogNavigator) Replace(route Route) {
	n.log.Debug().Str("route", string(route)).Msg("navigate replace")
}

func (n *LogNavigator) Push(route Route) {
	n.log.Debug().Str("route", string(route)).Msg("navigate push")
}

func (n *LogNavigator) Back() {
	n.log.Debug().Msg("navigate back")
}

// Directive is one recorded navigation call.
type Directive struct {
	Kind  string // "replace", "push" or "back"
	Route Route
}

// Recorder keeps every directive in order.
type Recorder struct {
	mu         sync.Mutex
	directives []Directive
}

func (r *Recorder) Replace(route Route) { r.add(Directive{Kind: "replace", Route: route}) }
func (r *Recorder) Push(route Route)    { r.add(Directive{Kind: "push", Route: route}) }
func (r *Recorder) Back()               { r.add(Directive{Kind: "back"}) }

func (r *Recorder) add(d Directive) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.directives = append(r.directives, d)
}

// Directives returns a copy of what was recorded so far.
func (r *Recorder) Directives() []Directive {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Directive, len(r.directives))
	copy(out, r.directives)
	return out
}

// Last returns the most recent directive.
func (r *Recorder) Last() (Directive, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.directives) == 0 {
		return Directive{}, false
	}
	return r.directives[len(r.directives)-1], true
}
