package httpapi

import "net/http"

// Middleware is one pipeline stage. A stage either delegates to next or
// writes a final response itself, halting the chain.
type Middleware func(next http.Handler) http.Handler

// Chain wraps h with the given stages so that mws[0] runs first. Composition
// is associative: Chain(h, a, b, c) == Chain(Chain(h, c), a, b).
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// group binds an ordered gate list to a mux. Nested groups concatenate their
// gate lists outer-to-inner, so an enclosing authentication group always runs
// before an inner role group.
type group struct {
	mux   *http.ServeMux
	gates []Middleware
}

func newGroup(mux *http.ServeMux, gates ...Middleware) group {
	return group{mux: mux, gates: gates}
}

// Group returns a child group carrying the parent's gates plus its own.
func (g group) Group(gates ...Middleware) group {
	combined := make([]Middleware, 0, len(g.gates)+len(gates))
	combined = append(combined, g.gates...)
	combined = append(combined, gates...)
	return group{mux: g.mux, gates: combined}
}

// Handle registers the handler wrapped by the group's full gate list.
func (g group) Handle(pattern string, h http.HandlerFunc) {
	g.mux.Handle(pattern, Chain(h, g.gates...))
}
