package errcode

// Code is a stable error identifier.
// It is a string newtype, comparable, allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes (short, stable). All of these surface during startup;
// runtime register writes have no failure channel.
const (
	OK                Code = "ok"
	InvalidLine       Code = "invalid_line"
	LineUnavailable   Code = "line_unavailable"
	IRQRegisterFailed Code = "irq_register_failed"
	RegisterMapFailed Code = "register_map_failed"
	InvalidParams     Code = "invalid_params"
	AlreadyClosed     Code = "already_closed"

	Error Code = "error" // generic fallback
)

// E keeps context and a cause alongside a Code.
type E struct {
	C   Code
	Op  string
	Err error
}

func (e *E) Error() string {
	if e.Op != "" {
		return e.Op + ": " + string(e.C)
	}
	return string(e.C)
}
func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Wrap annotates err with a code and an operation name.
func Wrap(c Code, op string, err error) error {
	return &E{C: c, Op: op, Err: err}
}

// Of extracts a Code from an error, walking wrapped causes.
// Defaults to Error.
func Of(err error) Code {
	for err != nil {
		if c, ok := err.(Code); ok {
			return c
		}
		type coder interface{ Code() Code }
		if x, ok := err.(coder); ok {
			return x.Code()
		}
		type unwrapper interface{ Unwrap() error }
		u, ok := err.(unwrapper)
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	if err == nil {
		return OK
	}
	return Error
}
