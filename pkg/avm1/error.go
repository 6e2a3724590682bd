package avm1

import "fmt"

// ErrorKind categorizes runtime failures. Most AVM1 operations swallow
// errors and yield undefined; these surface only from throw, resource
// limits, and the host boundary.
type ErrorKind uint8

const (
	ErrThrown ErrorKind = iota // a script `throw`; Thrown carries the value
	ErrType
	ErrReference
	ErrOutOfMemory
	ErrStackOverflow
	ErrTimeout
	ErrAborted // cooperative stop requested by the host
)

func (k ErrorKind) String() string {
	switch k {
	case ErrThrown:
		return "Thrown"
	case ErrType:
		return "TypeError"
	case ErrReference:
		return "ReferenceError"
	case ErrOutOfMemory:
		return "OutOfMemory"
	case ErrStackOverflow:
		return "StackOverflow"
	case ErrTimeout:
		return "Timeout"
	case ErrAborted:
		return "Aborted"
	}
	return "Error"
}

// Error is the failure type flowing out of interpreter operations.
type Error struct {
	Kind    ErrorKind
	Message string
	Thrown  Value // valid when Kind == ErrThrown
}

func (e *Error) Error() string {
	if e.Kind == ErrThrown {
		return "thrown script value"
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// ThrownError wraps a script value thrown by ActionThrow.
func ThrownError(v Value) *Error {
	return &Error{Kind: ErrThrown, Thrown: v}
}

func typeError(format string, args ...any) *Error {
	return &Error{Kind: ErrType, Message: fmt.Sprintf(format, args...)}
}

func stackOverflowError() *Error {
	return &Error{Kind: ErrStackOverflow, Message: "recursion limit reached"}
}

func timeoutError() *Error {
	return &Error{Kind: ErrTimeout, Message: "script exceeded execution budget"}
}

func abortedError() *Error {
	return &Error{Kind: ErrAborted, Message: "execution stopped by host"}
}

func oomError(cause error) *Error {
	return &Error{Kind: ErrOutOfMemory, Message: cause.Error()}
}
