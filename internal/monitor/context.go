package monitor

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/kozaktomas/facegate/internal/constants"
)

// Context is the state shared by the recognition loop and the message
// listener.
type Context struct {
	present atomic.Bool

	mu        sync.Mutex
	lastState State
	lastEmit  time.Time
}

// NewContext returns a context with presence off and no previous state.
func NewContext() *Context {
	return &Context{}
}

// Present reports the presence signal.
func (c *Context) Present() bool {
	return c.present.Load()
}

// setPresent stores the presence signal and reports whether it changed.
func (c *Context) setPresent(v bool) bool {
	return c.present.Swap(v) != v
}

// Last returns the last recorded state and when it was recorded.
func (c *Context) Last() (State, time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastState, c.lastEmit
}

// Machine applies the debounce rules to derived states.
type Machine struct {
	ctx    *Context
	window time.Duration

	// OnTransition is called for every recorded transition, emitted or not.
	OnTransition func(State)
}

// NewMachine creates a machine with the standard one second debounce window.
func NewMachine(ctx *Context) *Machine {
	return &Machine{ctx: ctx, window: constants.DebounceWindow}
}

// Observe records d if it is a real transition: a state different from the
// last recorded one, more than the debounce window after the last record.
// Every recorded transition restarts the window. It returns true only when
// the recorded state is authorized and an alert must be emitted.
func (m *Machine) Observe(now time.Time, d Decision) bool {
	m.ctx.mu.Lock()
	if d.State == m.ctx.lastState || now.Sub(m.ctx.lastEmit) <= m.window {
		m.ctx.mu.Unlock()
		return false
	}
	m.ctx.lastState = d.State
	m.ctx.lastEmit = now
	m.ctx.mu.Unlock()

	if m.OnTransition != nil {
		m.OnTransition(d.State)
	}
	return d.State == StateAuthorized
}
