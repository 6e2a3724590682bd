package avm2

import "fmt"

// ErrorKind categorizes runtime failures. Unlike the first VM, most of
// these double as script-visible error classes: when an interpreter
// error crosses into a catch block it is materialized as an instance of
// the matching class.
type ErrorKind uint8

const (
	ErrThrown ErrorKind = iota // a script `throw`; Thrown carries the value
	ErrType
	ErrReference
	ErrRange
	ErrArgument
	ErrVerify
	ErrIO
	ErrEOF
	ErrIllegalOperation
	ErrSecurity
	ErrGeneric
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
	case ErrRange:
		return "RangeError"
	case ErrArgument:
		return "ArgumentError"
	case ErrVerify:
		return "VerifyError"
	case ErrIO:
		return "IOError"
	case ErrEOF:
		return "EOFError"
	case ErrIllegalOperation:
		return "IllegalOperationError"
	case ErrSecurity:
		return "SecurityError"
	case ErrGeneric:
		return "Error"
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

// ClassName returns the builtin error class a kind materializes as, or
// "" for the resource kinds that never become catchable script values.
func (k ErrorKind) ClassName() string {
	switch k {
	case ErrType:
		return "TypeError"
	case ErrReference:
		return "ReferenceError"
	case ErrRange:
		return "RangeError"
	case ErrArgument:
		return "ArgumentError"
	case ErrVerify:
		return "VerifyError"
	case ErrIO:
		return "IOError"
	case ErrEOF:
		return "EOFError"
	case ErrIllegalOperation:
		return "IllegalOperationError"
	case ErrSecurity:
		return "SecurityError"
	case ErrGeneric:
		return "Error"
	}
	return ""
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

// Catchable reports whether a catch handler may observe this error.
// Resource exhaustion and host stops unwind past every handler.
func (e *Error) Catchable() bool {
	switch e.Kind {
	case ErrOutOfMemory, ErrStackOverflow, ErrTimeout, ErrAborted:
		return false
	}
	return true
}

// ThrownError wraps a script value raised by the throw opcode.
func ThrownError(v Value) *Error {
	return &Error{Kind: ErrThrown, Thrown: v}
}

func typeError(format string, args ...any) *Error {
	return &Error{Kind: ErrType, Message: fmt.Sprintf(format, args...)}
}

func referenceError(format string, args ...any) *Error {
	return &Error{Kind: ErrReference, Message: fmt.Sprintf(format, args...)}
}

func rangeError(format string, args ...any) *Error {
	return &Error{Kind: ErrRange, Message: fmt.Sprintf(format, args...)}
}

func argumentError(format string, args ...any) *Error {
	return &Error{Kind: ErrArgument, Message: fmt.Sprintf(format, args...)}
}

func verifyError(format string, args ...any) *Error {
	return &Error{Kind: ErrVerify, Message: fmt.Sprintf(format, args...)}
}

// EOFError is raised by ByteArray reads past the end of the buffer.
func EOFError(format string, args ...any) *Error {
	return &Error{Kind: ErrEOF, Message: fmt.Sprintf(format, args...)}
}

// TypeError builds the script-catchable type failure; exported for the
// globals packages.
func TypeError(format string, args ...any) *Error {
	return typeError(format, args...)
}

// ReferenceError builds the script-catchable resolution failure.
func ReferenceError(format string, args ...any) *Error {
	return referenceError(format, args...)
}

// RangeError builds the script-catchable range failure.
func RangeError(format string, args ...any) *Error {
	return rangeError(format, args...)
}

// ArgumentError builds the script-catchable arity failure.
func ArgumentError(format string, args ...any) *Error {
	return argumentError(format, args...)
}

// IOError builds the script-catchable stream failure.
func IOError(format string, args ...any) *Error {
	return &Error{Kind: ErrIO, Message: fmt.Sprintf(format, args...)}
}

// IllegalOperationError marks an unimplemented or forbidden operation.
func IllegalOperationError(format string, args ...any) *Error {
	return &Error{Kind: ErrIllegalOperation, Message: fmt.Sprintf(format, args...)}
}

// SecurityError marks a sandbox violation reported by the host layer.
func SecurityError(format string, args ...any) *Error {
	return &Error{Kind: ErrSecurity, Message: fmt.Sprintf(format, args...)}
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

// asVMError normalizes arbitrary Go errors crossing the interpreter
// boundary into *Error, so handler matching has one shape to inspect.
func asVMError(err error) *Error {
	if e, ok := err.(*Error); ok {
		return e
	}
	return &Error{Kind: ErrGeneric, Message: err.Error()}
}
