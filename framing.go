package amqp

import (
	"bytes"
	"encoding/binary"
	"io"
)

// Frame types.
const (
	FrameTypeAMQP uint8 = 0x00
	FrameTypeSASL uint8 = 0x01
)

// frameHeaderSize is the fixed frame header: size (4), data offset (1),
// frame type (1), channel (2).
const frameHeaderSize = 8

// Performative descriptors.
var (
	descOpen  = Ulong(0x10)
	descBegin = Ulong(0x11)
	descClose = Ulong(0x18)
)

// Frame is one unit of AMQP traffic: a channel plus an optional body. A nil
// body is a heartbeat.
type Frame struct {
	FrameType uint8
	Channel   uint16
	Body      Value
}

// WriteFrame wraps body in a frame header and writes it. A nil body writes
// an empty (heartbeat) frame.
func WriteFrame(w Writer, frameType uint8, channel uint16, body Encoder) error {
	buf := bufPool.Get().(*bytes.Buffer)
	defer bufPool.Put(buf)
	buf.Reset()

	if body != nil {
		if _, err := body.Encode(buf); err != nil {
			return err
		}
	}

	var header [frameHeaderSize]byte
	binary.BigEndian.PutUint32(header[0:4], uint32(frameHeaderSize+buf.Len()))
	header[4] = 2 // data offset in 4-byte words; no extended header
	header[5] = frameType
	binary.BigEndian.PutUint16(header[6:8], channel)

	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// ReadFrame reads one frame from r and decodes its body.
func ReadFrame(r Reader) (*Frame, error) {
	var header [frameHeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, decodeRead(err)
	}

	size := binary.BigEndian.Uint32(header[0:4])
	doff := uint32(header[4])
	if size < frameHeaderSize || doff < 2 || 4*doff > size {
		return nil, errorDecodef("Invalid frame header: size %d, data offset %d", size, doff)
	}
	if int(size-frameHeaderSize) > r.Len() {
		return nil, errInvalidLength
	}

	// skip any extended header
	if skip := int(4*doff) - frameHeaderSize; skip > 0 {
		if _, err := io.ReadFull(r, make([]byte, skip)); err != nil {
			return nil, decodeRead(err)
		}
	}

	f := &Frame{
		FrameType: header[5],
		Channel:   binary.BigEndian.Uint16(header[6:8]),
	}

	bodyLen := int(size - 4*doff)
	if bodyLen == 0 {
		return f, nil // heartbeat
	}
	body := make([]byte, bodyLen)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, decodeRead(err)
	}
	v, err := DecodeValue(bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	f.Body = v
	return f, nil
}

// Performative is an AMQP frame body: a described list with a well-known
// descriptor.
type Performative interface {
	Encoder
	performative()
	fromList(body Value) error
}

// DecodePerformative maps a decoded described value onto its performative
// type by descriptor.
func DecodePerformative(v Value) (Performative, error) {
	d, ok := v.(Described)
	if !ok {
		return nil, errorDecode("Error decoding frame arguments")
	}

	var p Performative
	switch {
	case Equal(d.Descriptor, descOpen):
		p = &Open{}
	case Equal(d.Descriptor, descBegin):
		p = &Begin{}
	case Equal(d.Descriptor, descClose):
		p = &Close{}
	case Equal(d.Descriptor, descSaslMechanisms):
		p = &SaslMechanisms{}
	case Equal(d.Descriptor, descSaslInit):
		p = &SaslInit{}
	case Equal(d.Descriptor, descSaslChallenge):
		p = &SaslChallenge{}
	case Equal(d.Descriptor, descSaslResponse):
		p = &SaslResponse{}
	case Equal(d.Descriptor, descSaslOutcome):
		p = &SaslOutcome{}
	default:
		return nil, errorDecodef("Unexpected descriptor: %v", d.Descriptor)
	}
	if err := p.fromList(d.Body); err != nil {
		return nil, err
	}
	return p, nil
}

// Open negotiates connection parameters (descriptor 0x10).
type Open struct {
	ContainerID         string
	Hostname            *string
	MaxFrameSize        *uint32
	ChannelMax          *uint16
	IdleTimeout         *uint32
	OutgoingLocales     []Symbol
	IncomingLocales     []Symbol
	OfferedCapabilities []Symbol
	DesiredCapabilities []Symbol
	Properties          Map
}

func (*Open) performative() {}

func (o *Open) Encode(w Writer) (TypeCode, error) {
	enc := NewFrameEncoder(descOpen)
	args := []interface{}{
		o.ContainerID,
		o.Hostname,
		o.MaxFrameSize,
		o.ChannelMax,
		o.IdleTimeout,
		o.OutgoingLocales,
		o.IncomingLocales,
		o.OfferedCapabilities,
		o.DesiredCapabilities,
		o.Properties,
	}
	for _, arg := range args {
		if err := enc.EncodeArg(arg); err != nil {
			return 0, err
		}
	}
	return enc.Encode(w)
}

func (o *Open) fromList(body Value) error {
	fr, err := NewFrameReader(descOpen, body)
	if err != nil {
		return err
	}
	if err := fr.DecodeRequired(&o.ContainerID); err != nil {
		return errorWrapf(err, "decoding open container-id")
	}
	fields := []struct {
		name   string
		target interface{}
	}{
		{"hostname", &o.Hostname},
		{"max-frame-size", &o.MaxFrameSize},
		{"channel-max", &o.ChannelMax},
		{"idle-time-out", &o.IdleTimeout},
		{"outgoing-locales", &o.OutgoingLocales},
		{"incoming-locales", &o.IncomingLocales},
		{"offered-capabilities", &o.OfferedCapabilities},
		{"desired-capabilities", &o.DesiredCapabilities},
		{"properties", &o.Properties},
	}
	for _, f := range fields {
		if err := fr.DecodeOptional(f.target); err != nil {
			return errorWrapf(err, "decoding open %s", f.name)
		}
	}
	return nil
}

// Begin opens a session on a channel (descriptor 0x11).
type Begin struct {
	RemoteChannel       *uint16
	NextOutgoingID      uint32
	IncomingWindow      uint32
	OutgoingWindow      uint32
	HandleMax           *uint32
	OfferedCapabilities []Symbol
	DesiredCapabilities []Symbol
	Properties          Map
}

func (*Begin) performative() {}

func (b *Begin) Encode(w Writer) (TypeCode, error) {
	enc := NewFrameEncoder(descBegin)
	args := []interface{}{
		b.RemoteChannel,
		b.NextOutgoingID,
		b.IncomingWindow,
		b.OutgoingWindow,
		b.HandleMax,
		b.OfferedCapabilities,
		b.DesiredCapabilities,
		b.Properties,
	}
	for _, arg := range args {
		if err := enc.EncodeArg(arg); err != nil {
			return 0, err
		}
	}
	return enc.Encode(w)
}

func (b *Begin) fromList(body Value) error {
	fr, err := NewFrameReader(descBegin, body)
	if err != nil {
		return err
	}
	if err := fr.DecodeOptional(&b.RemoteChannel); err != nil {
		return errorWrapf(err, "decoding begin remote-channel")
	}
	if err := fr.DecodeRequired(&b.NextOutgoingID); err != nil {
		return errorWrapf(err, "decoding begin next-outgoing-id")
	}
	if err := fr.DecodeRequired(&b.IncomingWindow); err != nil {
		return errorWrapf(err, "decoding begin incoming-window")
	}
	if err := fr.DecodeRequired(&b.OutgoingWindow); err != nil {
		return errorWrapf(err, "decoding begin outgoing-window")
	}
	if err := fr.DecodeOptional(&b.HandleMax); err != nil {
		return errorWrapf(err, "decoding begin handle-max")
	}
	if err := fr.DecodeOptional(&b.OfferedCapabilities); err != nil {
		return errorWrapf(err, "decoding begin offered-capabilities")
	}
	if err := fr.DecodeOptional(&b.DesiredCapabilities); err != nil {
		return errorWrapf(err, "decoding begin desired-capabilities")
	}
	if err := fr.DecodeOptional(&b.Properties); err != nil {
		return errorWrapf(err, "decoding begin properties")
	}
	return nil
}

// Close ends the connection, optionally carrying the error that caused it
// (descriptor 0x18).
type Close struct {
	Error *ErrorCondition
}

func (*Close) performative() {}

func (c *Close) Encode(w Writer) (TypeCode, error) {
	enc := NewFrameEncoder(descClose)
	if err := enc.EncodeArg(c.Error); err != nil {
		return 0, err
	}
	return enc.Encode(w)
}

func (c *Close) fromList(body Value) error {
	fr, err := NewFrameReader(descClose, body)
	if err != nil {
		return err
	}
	if err := fr.DecodeOptional(&c.Error); err != nil {
		return errorWrapf(err, "decoding close error")
	}
	return nil
}
