package errcode

// Code is a stable error identifier for collaborator-facing results.
// It is a string newtype, comparable, allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes (short, stable).
const (
	OK       Code = "ok"
	Busy     Code = "busy"
	NotReady Code = "not_ready"

	// Radio
	NotifyFailed          Code = "notify_failed"
	NotConnected          Code = "not_connected"
	AdvFailed             Code = "advertising_failed"
	UnknownCharacteristic Code = "unknown_characteristic"

	// Process table / debug mux
	UnknownProcess    Code = "unknown_process"
	AlreadyRegistered Code = "already_registered"
	NotRegistered     Code = "not_registered"
	AlreadyAssigned   Code = "already_assigned"
	ChannelOutOfRange Code = "channel_out_of_range"
	TooManyProcesses  Code = "too_many_processes"
	InvalidConfig     Code = "invalid_config"

	Error Code = "error" // generic fallback
)

// E keeps context and a cause alongside a Code.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	s := string(e.C)
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	return s
}
func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Of extracts a Code from an error, defaulting to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	if c, ok := err.(Code); ok {
		return c
	}
	type coder interface{ Code() Code }
	if x, ok := err.(coder); ok {
		return x.Code()
	}
	return Error
}

// Wrap returns an *E for op carrying code c and an optional message.
func Wrap(c Code, op, msg string) error {
	return &E{C: c, Op: op, Msg: msg}
}
