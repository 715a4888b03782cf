package amqp

// convertValue assigns a decoded value to the Go variable pointed to by
// target. Doubly-indirect pointers, byte, string and symbol slices and maps
// are optional targets: a null value leaves them nil. A *Value target takes
// null as Null{}. Every other target, *List included, rejects null with a
// decode error, which is what gives FrameReader its required/optional slot
// semantics.
func convertValue(v Value, target interface{}) error {
	switch t := target.(type) {
	case *Value:
		*t = v

	case *bool:
		b, ok := v.(Bool)
		if !ok {
			return conversionError(v, "bool")
		}
		*t = bool(b)

	case *uint8:
		n, ok := v.(Ubyte)
		if !ok {
			return conversionError(v, "uint8")
		}
		*t = uint8(n)

	case *uint16:
		n, ok := v.(Ushort)
		if !ok {
			return conversionError(v, "uint16")
		}
		*t = uint16(n)

	case *uint32:
		n, ok := v.(Uint)
		if !ok {
			return conversionError(v, "uint32")
		}
		*t = uint32(n)

	case *uint64:
		n, ok := v.(Ulong)
		if !ok {
			return conversionError(v, "uint64")
		}
		*t = uint64(n)

	case *string:
		s, ok := v.(String)
		if !ok {
			return conversionError(v, "string")
		}
		*t = string(s)

	case *Symbol:
		s, ok := v.(Symbol)
		if !ok {
			return conversionError(v, "Symbol")
		}
		*t = s

	case **uint16:
		if isNull(v) {
			*t = nil
			return nil
		}
		n, ok := v.(Ushort)
		if !ok {
			return conversionError(v, "uint16")
		}
		u := uint16(n)
		*t = &u

	case **uint32:
		if isNull(v) {
			*t = nil
			return nil
		}
		n, ok := v.(Uint)
		if !ok {
			return conversionError(v, "uint32")
		}
		u := uint32(n)
		*t = &u

	case **string:
		if isNull(v) {
			*t = nil
			return nil
		}
		s, ok := v.(String)
		if !ok {
			return conversionError(v, "string")
		}
		str := string(s)
		*t = &str

	case *[]byte:
		if isNull(v) {
			*t = nil
			return nil
		}
		b, ok := v.(Binary)
		if !ok {
			return conversionError(v, "[]byte")
		}
		*t = b

	case *[]Symbol:
		if isNull(v) {
			*t = nil
			return nil
		}
		// a multiple-valued slot may carry a single symbol without the
		// array wrapping
		if s, ok := v.(Symbol); ok {
			*t = []Symbol{s}
			return nil
		}
		arr, ok := v.(Array)
		if !ok {
			return conversionError(v, "[]Symbol")
		}
		out := make([]Symbol, 0, len(arr))
		for _, e := range arr {
			s, ok := e.(Symbol)
			if !ok {
				return errorDecode("Error decoding some elements")
			}
			out = append(out, s)
		}
		*t = out

	case *[]string:
		if isNull(v) {
			*t = nil
			return nil
		}
		arr, ok := v.(Array)
		if !ok {
			return conversionError(v, "[]string")
		}
		out := make([]string, 0, len(arr))
		for _, e := range arr {
			s, ok := e.(String)
			if !ok {
				return errorDecode("Error decoding some elements")
			}
			out = append(out, string(s))
		}
		*t = out

	case *Map:
		if isNull(v) {
			*t = nil
			return nil
		}
		m, ok := v.(Map)
		if !ok {
			return conversionError(v, "Map")
		}
		*t = m

	case *map[string]Value:
		if isNull(v) {
			*t = nil
			return nil
		}
		m, ok := v.(Map)
		if !ok {
			return conversionError(v, "map")
		}
		out := make(map[string]Value, len(m))
		for _, e := range m {
			k, err := stringOrSymbol(e.Key)
			if err != nil {
				return err
			}
			out[k] = e.Value
		}
		*t = out

	case *List:
		l, ok := v.(List)
		if !ok {
			return conversionError(v, "List")
		}
		*t = l

	case *ErrorCondition:
		return t.fromValue(v)

	case **ErrorCondition:
		if isNull(v) {
			*t = nil
			return nil
		}
		var e ErrorCondition
		if err := e.fromValue(v); err != nil {
			return err
		}
		*t = &e

	default:
		return errorErrorf("convert not implemented for %T", target)
	}
	return nil
}

func isNull(v Value) bool {
	_, ok := v.(Null)
	return ok
}

// conversionError distinguishes a null in a required slot from a genuine
// type mismatch.
func conversionError(v Value, want string) error {
	if isNull(v) {
		return errorDecode("Decoded null value for required argument")
	}
	return errorDecodef("Error converting value to %s", want)
}
