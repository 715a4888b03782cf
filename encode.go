package amqp

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"unicode/utf8"
)

// Encoder is implemented by types that can write themselves as a
// self-describing AMQP value. Encode reports the type code it chose; array
// encoding enforces element homogeneity by comparing the constructor byte
// each element writes first.
type Encoder interface {
	Encode(w Writer) (TypeCode, error)
}

// Size-class limits for compound types. The size field of the 8-bit forms
// counts the count byte as well, so the payload itself must stay one short
// of the field's maximum; the 32-bit forms reserve four bytes the same way.
const (
	list8Max  = math.MaxUint8 - 1
	list32Max = math.MaxUint32 - 4
)

func (Null) Encode(w Writer) (TypeCode, error) {
	return TypeCodeNull, w.WriteByte(byte(TypeCodeNull))
}

// Encode emits the single-byte forms. The wide form (0x56) is accepted on
// decode but never produced.
func (v Bool) Encode(w Writer) (TypeCode, error) {
	code := TypeCodeBoolFalse
	if v {
		code = TypeCodeBoolTrue
	}
	return code, w.WriteByte(byte(code))
}

func (v Ubyte) Encode(w Writer) (TypeCode, error) {
	_, err := w.Write([]byte{byte(TypeCodeUbyte), byte(v)})
	return TypeCodeUbyte, err
}

func (v Ushort) Encode(w Writer) (TypeCode, error) {
	var buf [3]byte
	buf[0] = byte(TypeCodeUshort)
	binary.BigEndian.PutUint16(buf[1:], uint16(v))
	_, err := w.Write(buf[:])
	return TypeCodeUshort, err
}

func (v Uint) Encode(w Writer) (TypeCode, error) {
	switch {
	case v == 0:
		return TypeCodeUint0, w.WriteByte(byte(TypeCodeUint0))
	case v <= math.MaxUint8:
		_, err := w.Write([]byte{byte(TypeCodeSmallUint), byte(v)})
		return TypeCodeSmallUint, err
	default:
		var buf [5]byte
		buf[0] = byte(TypeCodeUint)
		binary.BigEndian.PutUint32(buf[1:], uint32(v))
		_, err := w.Write(buf[:])
		return TypeCodeUint, err
	}
}

func (v Ulong) Encode(w Writer) (TypeCode, error) {
	switch {
	case v == 0:
		return TypeCodeUlong0, w.WriteByte(byte(TypeCodeUlong0))
	case v <= math.MaxUint8:
		_, err := w.Write([]byte{byte(TypeCodeSmallUlong), byte(v)})
		return TypeCodeSmallUlong, err
	default:
		var buf [9]byte
		buf[0] = byte(TypeCodeUlong)
		binary.BigEndian.PutUint64(buf[1:], uint64(v))
		_, err := w.Write(buf[:])
		return TypeCodeUlong, err
	}
}

func (v Byte) Encode(w Writer) (TypeCode, error) {
	_, err := w.Write([]byte{byte(TypeCodeByte), byte(v)})
	return TypeCodeByte, err
}

func (v Short) Encode(w Writer) (TypeCode, error) {
	var buf [3]byte
	buf[0] = byte(TypeCodeShort)
	binary.BigEndian.PutUint16(buf[1:], uint16(v))
	_, err := w.Write(buf[:])
	return TypeCodeShort, err
}

func (v Int) Encode(w Writer) (TypeCode, error) {
	if v >= math.MinInt8 && v <= math.MaxInt8 {
		_, err := w.Write([]byte{byte(TypeCodeSmallInt), byte(int8(v))})
		return TypeCodeSmallInt, err
	}
	var buf [5]byte
	buf[0] = byte(TypeCodeInt)
	binary.BigEndian.PutUint32(buf[1:], uint32(v))
	_, err := w.Write(buf[:])
	return TypeCodeInt, err
}

func (v Long) Encode(w Writer) (TypeCode, error) {
	if v >= math.MinInt8 && v <= math.MaxInt8 {
		_, err := w.Write([]byte{byte(TypeCodeSmallLong), byte(int8(v))})
		return TypeCodeSmallLong, err
	}
	var buf [9]byte
	buf[0] = byte(TypeCodeLong)
	binary.BigEndian.PutUint64(buf[1:], uint64(v))
	_, err := w.Write(buf[:])
	return TypeCodeLong, err
}

func (v String) Encode(w Writer) (TypeCode, error) {
	if !utf8.ValidString(string(v)) {
		return 0, errorNew("not a valid UTF-8 string")
	}
	code, err := writeVariableHeader(w, len(v), TypeCodeStr8, TypeCodeStr32, "string")
	if err != nil {
		return 0, err
	}
	_, err = io.WriteString(w, string(v))
	return code, err
}

func (v Symbol) Encode(w Writer) (TypeCode, error) {
	code, err := writeVariableHeader(w, len(v), TypeCodeSym8, TypeCodeSym32, "symbol")
	if err != nil {
		return 0, err
	}
	_, err = io.WriteString(w, string(v))
	return code, err
}

func (v Binary) Encode(w Writer) (TypeCode, error) {
	code, err := writeVariableHeader(w, len(v), TypeCodeBin8, TypeCodeBin32, "binary")
	if err != nil {
		return 0, err
	}
	_, err = w.Write(v)
	return code, err
}

// writeVariableHeader picks the 8- or 32-bit length form for a
// variable-width type and writes the constructor and length.
func writeVariableHeader(w Writer, length int, code8, code32 TypeCode, kind string) (TypeCode, error) {
	switch {
	case length <= math.MaxUint8:
		_, err := w.Write([]byte{byte(code8), byte(length)})
		return code8, err
	case uint64(length) <= list32Max:
		var buf [5]byte
		buf[0] = byte(code32)
		binary.BigEndian.PutUint32(buf[1:], uint32(length))
		_, err := w.Write(buf[:])
		return code32, err
	default:
		return 0, errorDecodef("Encoded %s size cannot be longer than %d bytes", kind, uint64(list32Max))
	}
}

// Encode writes the array with a single leading element constructor. Every
// element must choose the same constructor; the empty array has no wire
// form of its own and is written as null.
func (v Array) Encode(w Writer) (TypeCode, error) {
	if len(v) == 0 {
		return Null{}.Encode(w)
	}

	arraybuf := bufPool.Get().(*bytes.Buffer)
	defer bufPool.Put(arraybuf)
	arraybuf.Reset()
	elembuf := bufPool.Get().(*bytes.Buffer)
	defer bufPool.Put(elembuf)

	var ctor byte
	for i, e := range v {
		elembuf.Reset()
		if _, err := e.Encode(elembuf); err != nil {
			return 0, err
		}
		b := elembuf.Bytes()
		if i == 0 {
			ctor = b[0]
		} else if b[0] != ctor {
			return 0, errorDecodef("Array element constructor 0x%X does not match 0x%X", b[0], ctor)
		}
		arraybuf.Write(b[1:])
	}

	// the size field also covers the element constructor, one byte more
	// than a list with the same payload
	n := arraybuf.Len()
	switch {
	case uint64(n)+1 > list32Max:
		return 0, errorDecodef("Encoded array size cannot be longer than %d bytes", uint64(list32Max))
	case n+1 > list8Max || len(v) > math.MaxUint8:
		var buf [9]byte
		buf[0] = byte(TypeCodeArray32)
		binary.BigEndian.PutUint32(buf[1:5], uint32(5+n))
		binary.BigEndian.PutUint32(buf[5:9], uint32(len(v)))
		if _, err := w.Write(buf[:]); err != nil {
			return 0, err
		}
		if err := w.WriteByte(ctor); err != nil {
			return 0, err
		}
		_, err := w.Write(arraybuf.Bytes())
		return TypeCodeArray32, err
	default:
		if _, err := w.Write([]byte{byte(TypeCodeArray8), byte(2 + n), byte(len(v)), ctor}); err != nil {
			return 0, err
		}
		_, err := w.Write(arraybuf.Bytes())
		return TypeCodeArray8, err
	}
}

func (v List) Encode(w Writer) (TypeCode, error) {
	if len(v) == 0 {
		return TypeCodeList0, w.WriteByte(byte(TypeCodeList0))
	}

	listbuf := bufPool.Get().(*bytes.Buffer)
	defer bufPool.Put(listbuf)
	listbuf.Reset()

	for _, e := range v {
		if _, err := e.Encode(listbuf); err != nil {
			return 0, err
		}
	}
	return writeCompound(w, TypeCodeList8, TypeCodeList32, "list", listbuf.Bytes(), len(v))
}

func (v Map) Encode(w Writer) (TypeCode, error) {
	mapbuf := bufPool.Get().(*bytes.Buffer)
	defer bufPool.Put(mapbuf)
	mapbuf.Reset()

	for _, e := range v {
		if _, err := e.Key.Encode(mapbuf); err != nil {
			return 0, err
		}
		if _, err := e.Value.Encode(mapbuf); err != nil {
			return 0, err
		}
	}
	// the wire count is elements, not pairs
	return writeCompound(w, TypeCodeMap8, TypeCodeMap32, "map", mapbuf.Bytes(), 2*len(v))
}

// writeCompound frames an already-encoded compound body. The size field
// counts every byte after itself, so it covers the count field too.
func writeCompound(w Writer, code8, code32 TypeCode, kind string, body []byte, count int) (TypeCode, error) {
	n := len(body)
	switch {
	case uint64(n) > list32Max:
		return 0, errorDecodef("Encoded %s size cannot be longer than %d bytes", kind, uint64(list32Max))
	case n > list8Max || count > math.MaxUint8:
		var buf [9]byte
		buf[0] = byte(code32)
		binary.BigEndian.PutUint32(buf[1:5], uint32(4+n))
		binary.BigEndian.PutUint32(buf[5:9], uint32(count))
		if _, err := w.Write(buf[:]); err != nil {
			return 0, err
		}
		_, err := w.Write(body)
		return code32, err
	default:
		if _, err := w.Write([]byte{byte(code8), byte(1 + n), byte(count)}); err != nil {
			return 0, err
		}
		_, err := w.Write(body)
		return code8, err
	}
}

func (v Described) Encode(w Writer) (TypeCode, error) {
	if err := w.WriteByte(byte(TypeCodeDescribed)); err != nil {
		return 0, err
	}
	if _, err := v.Descriptor.Encode(w); err != nil {
		return 0, err
	}
	if _, err := v.Body.Encode(w); err != nil {
		return 0, err
	}
	return TypeCodeDescribed, nil
}

// Marshal writes i to w as a self-describing AMQP value.
//
// Encoder implementations (every Value variant among them) write themselves.
// Go primitive types map to their AMQP counterparts; nil pointers, nil
// slices and nil maps encode as null so that optional described-list slots
// can be expressed with ordinary Go zero values.
func Marshal(w Writer, i interface{}) (TypeCode, error) {
	switch t := i.(type) {
	case nil:
		return Null{}.Encode(w)
	case Map:
		if t == nil {
			return Null{}.Encode(w)
		}
		return t.Encode(w)
	case *ErrorCondition:
		if t == nil {
			return Null{}.Encode(w)
		}
		return t.Encode(w)
	case Encoder:
		return t.Encode(w)
	case bool:
		return Bool(t).Encode(w)
	case uint8:
		return Ubyte(t).Encode(w)
	case uint16:
		return Ushort(t).Encode(w)
	case uint32:
		return Uint(t).Encode(w)
	case uint64:
		return Ulong(t).Encode(w)
	case *uint16:
		if t == nil {
			return Null{}.Encode(w)
		}
		return Ushort(*t).Encode(w)
	case *uint32:
		if t == nil {
			return Null{}.Encode(w)
		}
		return Uint(*t).Encode(w)
	case string:
		return String(t).Encode(w)
	case *string:
		if t == nil {
			return Null{}.Encode(w)
		}
		return String(*t).Encode(w)
	case []byte:
		if t == nil {
			return Null{}.Encode(w)
		}
		return Binary(t).Encode(w)
	case []string:
		if t == nil {
			return Null{}.Encode(w)
		}
		values := make(Array, len(t))
		for i, s := range t {
			values[i] = String(s)
		}
		return values.Encode(w)
	case []Symbol:
		if t == nil {
			return Null{}.Encode(w)
		}
		values := make(Array, len(t))
		for i, s := range t {
			values[i] = s
		}
		return values.Encode(w)
	case map[string]Value:
		if t == nil {
			return Null{}.Encode(w)
		}
		m := make(Map, 0, len(t))
		for k, v := range t {
			m = m.Put(String(k), v)
		}
		return m.Encode(w)
	default:
		return 0, errorErrorf("marshal not implemented for %T", i)
	}
}
