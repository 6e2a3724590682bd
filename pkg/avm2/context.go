package avm2

import (
	"time"

	"lantern/pkg/amf"
	"lantern/pkg/display"
	"lantern/pkg/gc"
	"lantern/pkg/host"
	"lantern/pkg/wstr"
)

// Context is the per-arena state record threaded through every public
// entry point. The core holds no module-level mutable state.
type Context struct {
	Arena     *gc.Arena
	Stage     *display.Stage
	Log       host.Log
	UI        host.UI
	Audio     host.Audio
	Storage   host.Storage
	Navigator host.Navigator
	Clock     host.Clock
	Scheduler host.Scheduler
	Interner  *wstr.Interner

	// Origin is the movie origin used to key shared objects.
	Origin string

	// MovieURL is reported by loaderInfo.url.
	MovieURL string

	// ExternalCall bridges ExternalInterface.call to a registered host
	// method. Nil when the container exposes none.
	ExternalCall func(name string, args []amf.Value) amf.Value

	// UncaughtError receives errors that unwound past every handler,
	// after the uncaughtError event had no listeners.
	UncaughtError func(err *Error)

	// StopFlag is polled between opcodes for cooperative cancellation.
	StopFlag func() bool

	// Start of the current script slice; the budget is measured from
	// here.
	SliceStart time.Time
	// Budget is the maximum execution duration per slice. Zero means
	// unlimited.
	Budget time.Duration
}

// overBudget reports whether the current slice exceeded its allowance.
func (c *Context) overBudget() bool {
	if c.Budget == 0 || c.Clock == nil {
		return false
	}
	return c.Clock.Now().Sub(c.SliceStart) > c.Budget
}

// BeginSlice stamps the start of a script slice. The player calls this
// before dispatching events or frame scripts.
func (c *Context) BeginSlice() {
	if c.Clock != nil {
		c.SliceStart = c.Clock.Now()
	}
}
