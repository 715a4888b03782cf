package amqp

import (
	"encoding/binary"
	"io"
	"unicode/utf8"
)

var errInvalidLength = errorDecode("length field is larger than frame")

// DecodeValue reads one self-describing value from r, leaving the cursor
// immediately after the consumed bytes.
func DecodeValue(r Reader) (Value, error) {
	ctor, err := readByte(r)
	if err != nil {
		return nil, err
	}
	return decodeValueWithCtor(r, ctor)
}

// decodeValueWithCtor decodes a value whose constructor byte has already
// been consumed. Array decoding reuses it to apply one constructor to every
// element.
func decodeValueWithCtor(r Reader, ctor byte) (Value, error) {
	code, err := decodeType(ctor)
	if err != nil {
		return nil, err
	}

	switch code {
	case TypeCodeDescribed:
		descriptor, err := DecodeValue(r)
		if err != nil {
			return nil, err
		}
		body, err := DecodeValue(r)
		if err != nil {
			return nil, err
		}
		return Described{Descriptor: descriptor, Body: body}, nil

	case TypeCodeNull:
		return Null{}, nil

	case TypeCodeBool:
		b, err := readByte(r)
		if err != nil {
			return nil, err
		}
		return Bool(b != 0), nil
	case TypeCodeBoolTrue:
		return Bool(true), nil
	case TypeCodeBoolFalse:
		return Bool(false), nil

	case TypeCodeUbyte:
		b, err := readByte(r)
		return Ubyte(b), err
	case TypeCodeUshort:
		n, err := readUint16(r)
		return Ushort(n), err
	case TypeCodeUint:
		n, err := readUint32(r)
		return Uint(n), err
	case TypeCodeSmallUint:
		b, err := readByte(r)
		return Uint(b), err
	case TypeCodeUint0:
		return Uint(0), nil
	case TypeCodeUlong:
		n, err := readUint64(r)
		return Ulong(n), err
	case TypeCodeSmallUlong:
		b, err := readByte(r)
		return Ulong(b), err
	case TypeCodeUlong0:
		return Ulong(0), nil

	case TypeCodeByte:
		b, err := readByte(r)
		return Byte(int8(b)), err
	case TypeCodeShort:
		n, err := readUint16(r)
		return Short(int16(n)), err
	case TypeCodeInt:
		n, err := readUint32(r)
		return Int(int32(n)), err
	case TypeCodeSmallInt:
		b, err := readByte(r)
		return Int(int8(b)), err
	case TypeCodeLong:
		n, err := readUint64(r)
		return Long(int64(n)), err
	case TypeCodeSmallLong:
		b, err := readByte(r)
		return Long(int8(b)), err

	case TypeCodeStr8, TypeCodeStr32:
		buf, err := readVariable(r, code == TypeCodeStr32)
		if err != nil {
			return nil, err
		}
		if !utf8.Valid(buf) {
			return nil, errorDecode("not a valid UTF-8 string")
		}
		return String(buf), nil
	case TypeCodeSym8, TypeCodeSym32:
		buf, err := readVariable(r, code == TypeCodeSym32)
		if err != nil {
			return nil, err
		}
		return Symbol(buf), nil
	case TypeCodeBin8, TypeCodeBin32:
		buf, err := readVariable(r, code == TypeCodeBin32)
		if err != nil {
			return nil, err
		}
		return Binary(buf), nil

	case TypeCodeList0:
		return List{}, nil
	case TypeCodeList8, TypeCodeList32:
		// the size field is only needed for forward skipping
		_, count, err := readCompoundHeader(r, code == TypeCodeList32)
		if err != nil {
			return nil, err
		}
		if count > r.Len() {
			return nil, errInvalidLength
		}
		data := make(List, 0, count)
		for i := 0; i < count; i++ {
			v, err := DecodeValue(r)
			if err != nil {
				return nil, err
			}
			data = append(data, v)
		}
		return data, nil

	case TypeCodeArray8, TypeCodeArray32:
		_, count, err := readCompoundHeader(r, code == TypeCodeArray32)
		if err != nil {
			return nil, err
		}
		elemCtor, err := readByte(r)
		if err != nil {
			return nil, err
		}
		var data Array
		for i := 0; i < count; i++ {
			v, err := decodeValueWithCtor(r, elemCtor)
			if err != nil {
				return nil, err
			}
			data = append(data, v)
		}
		return data, nil

	case TypeCodeMap8, TypeCodeMap32:
		_, rawCount, err := readCompoundHeader(r, code == TypeCodeMap32)
		if err != nil {
			return nil, err
		}
		if rawCount > r.Len() {
			return nil, errInvalidLength
		}
		entries := make([]MapEntry, 0, rawCount/2)
		for i := 0; i < rawCount/2; i++ {
			key, err := DecodeValue(r)
			if err != nil {
				return nil, err
			}
			value, err := DecodeValue(r)
			if err != nil {
				return nil, err
			}
			entries = append(entries, MapEntry{Key: key, Value: value})
		}
		// duplicate keys overwrite; ordering is restored by construction
		return NewMap(entries...), nil
	}

	return nil, errorDecodef("Unknown type code: 0x%X", ctor)
}

// readCompoundHeader consumes the size and count fields of a list, map or
// array constructor.
func readCompoundHeader(r Reader, wide bool) (size int, count int, err error) {
	if wide {
		s, err := readUint32(r)
		if err != nil {
			return 0, 0, err
		}
		c, err := readUint32(r)
		if err != nil {
			return 0, 0, err
		}
		return int(s), int(c), nil
	}
	s, err := readByte(r)
	if err != nil {
		return 0, 0, err
	}
	c, err := readByte(r)
	if err != nil {
		return 0, 0, err
	}
	return int(s), int(c), nil
}

// readVariable consumes a length-prefixed payload.
func readVariable(r Reader, wide bool) ([]byte, error) {
	var length int
	if wide {
		n, err := readUint32(r)
		if err != nil {
			return nil, err
		}
		length = int(n)
	} else {
		b, err := readByte(r)
		if err != nil {
			return nil, err
		}
		length = int(b)
	}
	if length > r.Len() {
		return nil, errInvalidLength
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, decodeRead(err)
	}
	return buf, nil
}

func readByte(r Reader) (byte, error) {
	b, err := r.ReadByte()
	if err != nil {
		return 0, decodeRead(err)
	}
	return b, nil
}

func readUint16(r Reader) (uint16, error) {
	var buf [2]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, decodeRead(err)
	}
	return binary.BigEndian.Uint16(buf[:]), nil
}

func readUint32(r Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, decodeRead(err)
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}

func readUint64(r Reader) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, decodeRead(err)
	}
	return binary.BigEndian.Uint64(buf[:]), nil
}

// decodeRead turns a short read into a decode error. Anything else is a
// genuine reader failure and passes through untouched.
func decodeRead(err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return errorDecode("Unexpected end of input")
	}
	return err
}
