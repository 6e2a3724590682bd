// Package host declares the capabilities the scripting core consumes
// from its embedder, plus default backends: null renderer/audio/ui for
// headless use, memory and sqlite storage, an http navigator, and a
// commonlog-backed log sink. Every capability is an explicit interface;
// the core never reaches for a global.
package host

import (
	"time"

	"github.com/tliron/commonlog"
)

// Renderer registers and updates drawable resources. The core never
// draws; it only pushes state.
type Renderer interface {
	RegisterShape(id int, data []byte)
	RegisterBitmap(id int, width, height int, rgba []byte)
	UpdateTexture(id int, rgba []byte)
	RenderOffscreen(id int, width, height int) []byte
}

// Audio controls sound playback.
type Audio interface {
	RegisterSound(id int, data []byte)
	StartSound(id int, loops int) (handle int)
	StopSound(handle int)
	SetGlobalVolume(volume float64)
	StopAll()
}

// Response is one fetched resource, delivered asynchronously.
type Response struct {
	RequestID string
	URL       string
	Status    int
	Headers   map[string]string
	Body      []byte
	Err       error
}

// Navigator fetches URLs. Implementations run the request off-thread and
// deliver the response to the sink on a later core tick; script code
// never blocks on the network.
type Navigator interface {
	Fetch(url, method string, headers map[string]string, body []byte) (requestID string)
	// Poll drains completed responses. Called by the player each tick.
	Poll() []Response
}

// Storage persists per-origin named byte blobs (shared objects). The
// core assumes read-what-you-wrote.
type Storage interface {
	Load(origin, name string) ([]byte, bool, error)
	Save(origin, name string, data []byte) error
	Delete(origin, name string) error
}

// UI is the platform shim for cursor, clipboard, and focus.
type UI interface {
	SetMouseCursor(cursor string)
	SetFullscreen(enabled bool) error
	SetClipboard(text string)
	Clipboard() string
	ShowVirtualKeyboard(visible bool)
	Gamepads() []string
}

// Clock supplies monotonic time.
type Clock interface {
	Now() time.Time
}

// Scheduler registers script timers. The player owns the table and
// fires due entries during Tick, in due order.
type Scheduler interface {
	Add(delayMs float64, repeating bool, fire func()) (id int)
	Remove(id int) bool
}

// SystemClock is the real clock.
type SystemClock struct{}

// Now returns the wall time; Go's time.Time carries the monotonic
// reading the frame pacer needs.
func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock steps manually; used by tests and deterministic replays.
type FixedClock struct {
	Current time.Time
}

func (c *FixedClock) Now() time.Time { return c.Current }

// Advance moves the clock forward.
func (c *FixedClock) Advance(d time.Duration) { c.Current = c.Current.Add(d) }

// Log is the ordered, categorized message sink.
type Log interface {
	Error(format string, args ...any)
	Warning(format string, args ...any)
	Info(format string, args ...any)
	Debug(format string, args ...any)
	// Trace receives script trace() output verbatim.
	Trace(message string)
}

// CommonLog adapts a commonlog logger to the Log interface.
type CommonLog struct {
	logger commonlog.Logger
}

// NewCommonLog creates the default log backend.
func NewCommonLog(name string) *CommonLog {
	return &CommonLog{logger: commonlog.GetLogger(name)}
}

func (l *CommonLog) Error(format string, args ...any)   { l.logger.Errorf(format, args...) }
func (l *CommonLog) Warning(format string, args ...any) { l.logger.Warningf(format, args...) }
func (l *CommonLog) Info(format string, args ...any)    { l.logger.Infof(format, args...) }
func (l *CommonLog) Debug(format string, args ...any)   { l.logger.Debugf(format, args...) }
func (l *CommonLog) Trace(message string)               { l.logger.Infof("trace: %s", message) }

// CaptureLog records messages for tests.
type CaptureLog struct {
	Errors   []string
	Warnings []string
	Infos    []string
	Debugs   []string
	Traces   []string
}

func (l *CaptureLog) Error(format string, args ...any) {
	l.Errors = append(l.Errors, sprintf(format, args...))
}
func (l *CaptureLog) Warning(format string, args ...any) {
	l.Warnings = append(l.Warnings, sprintf(format, args...))
}
func (l *CaptureLog) Info(format string, args ...any) {
	l.Infos = append(l.Infos, sprintf(format, args...))
}
func (l *CaptureLog) Debug(format string, args ...any) {
	l.Debugs = append(l.Debugs, sprintf(format, args...))
}
func (l *CaptureLog) Trace(message string) {
	l.Traces = append(l.Traces, message)
}
