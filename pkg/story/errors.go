package story

import "fmt"

// InputError reports a caller-supplied request failing a basic precondition.
// No model call is made once one is raised.
type InputError struct {
	Field  string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid input %q: %s", e.Field, e.Reason)
}

// ParseError reports a model reply that could not be interpreted as the
// expected shape after every fallback strategy. Raw keeps the reply text
// for diagnostics.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unparseable model reply: %v", e.Err)
	}
	return "unparseable model reply"
}

func (e *ParseError) Unwrap() error { return e.Err }
