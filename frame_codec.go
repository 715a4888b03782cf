package amqp

import (
	"bytes"
	"encoding/binary"
	"math"
)

// FrameEncoder accumulates the positional arguments of a described list,
// the shape AMQP uses for frame bodies and for named composites such as the
// error type. Arguments are encoded once into an internal buffer; Encode
// then writes the described constructor, the descriptor and the list
// envelope around them.
type FrameEncoder struct {
	desc   Value
	args   bytes.Buffer
	nelems int
}

// NewFrameEncoder starts a fresh accumulator for the given descriptor.
func NewFrameEncoder(desc Value) *FrameEncoder {
	return &FrameEncoder{desc: desc}
}

// EncodeArg appends one positional argument. Anything Marshal accepts is a
// valid argument; nil encodes an empty (null) slot.
func (e *FrameEncoder) EncodeArg(arg interface{}) error {
	if _, err := Marshal(&e.args, arg); err != nil {
		return err
	}
	e.nelems++
	return nil
}

// Encode finalizes the described list. Size-class selection follows the
// list rules: List0 when empty, List8 while the buffered arguments fit,
// List32 otherwise.
func (e *FrameEncoder) Encode(w Writer) (TypeCode, error) {
	if err := w.WriteByte(byte(TypeCodeDescribed)); err != nil {
		return 0, err
	}
	if _, err := e.desc.Encode(w); err != nil {
		return 0, err
	}

	n := e.args.Len()
	switch {
	case uint64(n) > list32Max:
		return 0, errorDecodef("Encoded list size cannot be longer than %d bytes", uint64(list32Max))
	case n > list8Max || e.nelems > math.MaxUint8:
		var buf [9]byte
		buf[0] = byte(TypeCodeList32)
		binary.BigEndian.PutUint32(buf[1:5], uint32(4+n))
		binary.BigEndian.PutUint32(buf[5:9], uint32(e.nelems))
		if _, err := w.Write(buf[:]); err != nil {
			return 0, err
		}
		if _, err := w.Write(e.args.Bytes()); err != nil {
			return 0, err
		}
	case n > 0:
		if _, err := w.Write([]byte{byte(TypeCodeList8), byte(1 + n), byte(e.nelems)}); err != nil {
			return 0, err
		}
		if _, err := w.Write(e.args.Bytes()); err != nil {
			return 0, err
		}
	default:
		if err := w.WriteByte(byte(TypeCodeList0)); err != nil {
			return 0, err
		}
	}
	return TypeCodeDescribed, nil
}

// FrameReader pulls the positional arguments of a decoded described-list
// body in declaration order. Slots are consumed strictly from the front;
// there is no random access, matching the positional layout of AMQP
// performatives.
type FrameReader struct {
	desc Value
	args List
}

// NewFrameReader wraps the body of a described list. The descriptor is kept
// for the caller's benefit only; checking it against an expectation is the
// caller's job.
func NewFrameReader(desc Value, body Value) (*FrameReader, error) {
	args, ok := body.(List)
	if !ok {
		return nil, errorDecode("Error decoding frame arguments")
	}
	return &FrameReader{desc: desc, args: args}, nil
}

// DecodeRequired consumes the next slot into target. An exhausted list is a
// decode error, as is a null slot when target is not an optional type.
func (r *FrameReader) DecodeRequired(target interface{}) error {
	if len(r.args) == 0 {
		return errorDecode("Unexpected end of list")
	}
	return r.next(target)
}

// DecodeOptional consumes the next slot into target; an exhausted list
// leaves target at its prior value.
func (r *FrameReader) DecodeOptional(target interface{}) error {
	if len(r.args) == 0 {
		return nil
	}
	return r.next(target)
}

func (r *FrameReader) next(target interface{}) error {
	arg := r.args[0]
	r.args = r.args[1:]
	return convertValue(arg, target)
}
