package amqp

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uint16ptr(v uint16) *uint16 { return &v }
func uint32ptr(v uint32) *uint32 { return &v }
func strptr(v string) *string { return &v }

func roundTripFrame(t *testing.T, frameType uint8, channel uint16, p Performative) Performative {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, frameType, channel, p))

	f, err := ReadFrame(&buf)
	require.NoError(t, err)
	assert.Equal(t, frameType, f.FrameType)
	assert.Equal(t, channel, f.Channel)
	require.NotNil(t, f.Body)

	decoded, err := DecodePerformative(f.Body)
	require.NoError(t, err)
	return decoded
}

func TestOpenRoundTrip(t *testing.T) {
	open := &Open{
		ContainerID:         "container-1",
		Hostname:            strptr("broker.example.com"),
		MaxFrameSize:        uint32ptr(65536),
		ChannelMax:          uint16ptr(255),
		IdleTimeout:         uint32ptr(30000),
		OfferedCapabilities: []Symbol{"ANONYMOUS-RELAY"},
		Properties: NewMap(
			MapEntry{Key: Symbol("product"), Value: String("dove")},
		),
	}
	decoded := roundTripFrame(t, FrameTypeAMQP, 0, open)
	assert.Equal(t, open, decoded)
}

func TestOpenMinimal(t *testing.T) {
	decoded := roundTripFrame(t, FrameTypeAMQP, 0, &Open{ContainerID: "c"})
	open, ok := decoded.(*Open)
	require.True(t, ok)
	assert.Equal(t, "c", open.ContainerID)
	assert.Nil(t, open.Hostname)
	assert.Nil(t, open.MaxFrameSize)
	assert.Nil(t, open.Properties)
}

func TestBeginRoundTrip(t *testing.T) {
	begin := &Begin{
		RemoteChannel:  uint16ptr(5),
		NextOutgoingID: 1,
		IncomingWindow: 100,
		OutgoingWindow: 100,
		HandleMax:      uint32ptr(1024),
	}
	decoded := roundTripFrame(t, FrameTypeAMQP, 3, begin)
	assert.Equal(t, begin, decoded)
}

func TestCloseRoundTrip(t *testing.T) {
	closed := &Close{
		Error: &ErrorCondition{
			Condition:   "amqp:internal-error",
			Description: "session torn down",
		},
	}
	decoded := roundTripFrame(t, FrameTypeAMQP, 0, closed)
	assert.Equal(t, closed, decoded)

	decoded = roundTripFrame(t, FrameTypeAMQP, 0, &Close{})
	assert.Equal(t, &Close{}, decoded)
}

func TestHeartbeat(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, FrameTypeAMQP, 0, nil))
	assert.Equal(t, []byte{0, 0, 0, 8, 2, 0, 0, 0}, buf.Bytes())

	f, err := ReadFrame(&buf)
	require.NoError(t, err)
	assert.Nil(t, f.Body)
}

func TestSaslHandshakeRoundTrip(t *testing.T) {
	mechs := roundTripFrame(t, FrameTypeSASL, 0, &SaslMechanisms{
		Mechanisms: []Symbol{"PLAIN", "ANONYMOUS"},
	})
	assert.Equal(t, &SaslMechanisms{Mechanisms: []Symbol{"PLAIN", "ANONYMOUS"}}, mechs)

	init := roundTripFrame(t, FrameTypeSASL, 0, &SaslInit{
		Mechanism:       "PLAIN",
		InitialResponse: []byte{0, 'u', 0, 'p'},
		Hostname:        strptr("broker"),
	})
	assert.Equal(t, Symbol("PLAIN"), init.(*SaslInit).Mechanism)

	outcome := roundTripFrame(t, FrameTypeSASL, 0, &SaslOutcome{Code: SaslCodeOK})
	assert.Equal(t, SaslCodeOK, outcome.(*SaslOutcome).Code)
}

func TestSaslMechanismsSingleSymbol(t *testing.T) {
	// a multiple-valued field may arrive as a bare symbol
	var s SaslMechanisms
	err := s.fromList(List{Symbol("PLAIN")})
	require.NoError(t, err)
	assert.Equal(t, []Symbol{"PLAIN"}, s.Mechanisms)
}

func TestDecodePerformativeUnknownDescriptor(t *testing.T) {
	_, err := DecodePerformative(Described{Descriptor: Ulong(0x99), Body: List{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unexpected descriptor")

	_, err = DecodePerformative(String("not described"))
	require.Error(t, err)
}

func TestReadFrameErrors(t *testing.T) {
	// size larger than the available bytes
	_, err := ReadFrame(bytes.NewBuffer([]byte{0, 0, 0, 20, 2, 0, 0, 0}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "length field is larger than frame")

	// data offset below the minimum
	_, err = ReadFrame(bytes.NewBuffer([]byte{0, 0, 0, 8, 1, 0, 0, 0}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid frame header")

	// truncated header
	_, err = ReadFrame(bytes.NewBuffer([]byte{0, 0}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unexpected end of input")
}

func TestExtendedHeaderSkipped(t *testing.T) {
	// doff 3: one 4-byte extended header word before the body
	var body bytes.Buffer
	_, err := Uint(7).Encode(&body)
	require.NoError(t, err)

	raw := []byte{0, 0, 0, byte(12 + body.Len()), 3, 0, 0, 5}
	raw = append(raw, 0xDE, 0xAD, 0xBE, 0xEF)
	raw = append(raw, body.Bytes()...)

	f, err := ReadFrame(bytes.NewBuffer(raw))
	require.NoError(t, err)
	assert.Equal(t, uint16(5), f.Channel)
	assert.Equal(t, Uint(7), f.Body)
}
