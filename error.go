package amqp

import (
	"fmt"

	"github.com/pkg/errors"
)

// Well-known error condition symbols.
const (
	ConditionInternalError  Symbol = "amqp:internal-error"
	ConditionNotFound       Symbol = "amqp:not-found"
	ConditionDecodeError    Symbol = "amqp:decode-error"
	ConditionNotImplemented Symbol = "amqp:not-implemented"
)

// Error is a protocol-level failure raised by the codec. The condition names
// the failure class; the description is diagnostic text and is not machine
// parsed. Failures of the underlying reader or writer are not wrapped in an
// Error; they propagate verbatim.
type Error struct {
	Condition   Symbol
	Description string
}

func (e *Error) Error() string {
	return string(e.Condition) + ": " + e.Description
}

// errorDecode constructs an amqp:decode-error failure.
func errorDecode(description string) error {
	return &Error{Condition: ConditionDecodeError, Description: description}
}

func errorDecodef(format string, args ...interface{}) error {
	return errorDecode(fmt.Sprintf(format, args...))
}

// Wrappers around pkg/errors keep call sites terse.
func errorNew(s string) error { return errors.New(s) }

func errorErrorf(format string, args ...interface{}) error {
	return errors.Errorf(format, args...)
}

func errorWrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// descError is the descriptor of the AMQP error described type.
var descError = Ulong(0x1D)

// ErrorCondition is the AMQP error described type (descriptor 0x1D): a
// condition naming the failure class and a human-readable description. The
// body is a described list whose first two slots are the condition (symbol
// or string) and the description (string).
type ErrorCondition struct {
	Condition   string
	Description string
}

// Encode writes the error as a described list.
func (e *ErrorCondition) Encode(w Writer) (TypeCode, error) {
	enc := NewFrameEncoder(descError)
	if err := enc.EncodeArg(e.Condition); err != nil {
		return 0, err
	}
	if err := enc.EncodeArg(e.Description); err != nil {
		return 0, err
	}
	return enc.Encode(w)
}

// fromValue fills e from a decoded described value.
func (e *ErrorCondition) fromValue(v Value) error {
	d, ok := v.(Described)
	if !ok {
		return errorDecode("Missing expected error descriptor")
	}
	if !Equal(d.Descriptor, descError) {
		return errorDecodef("Expected error descriptor but found %v", d.Descriptor)
	}
	args, ok := d.Body.(List)
	if !ok {
		return errorDecode("Expected list with condition and description")
	}
	if len(args) > 0 {
		s, err := stringOrSymbol(args[0])
		if err != nil {
			return err
		}
		e.Condition = s
	}
	if len(args) > 1 {
		s, err := stringOrSymbol(args[1])
		if err != nil {
			return err
		}
		e.Description = s
	}
	return nil
}

func stringOrSymbol(v Value) (string, error) {
	switch s := v.(type) {
	case String:
		return string(s), nil
	case Symbol:
		return string(s), nil
	}
	return "", errorDecode("Error converting value to string")
}
