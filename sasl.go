package amqp

// SASL performative descriptors.
var (
	descSaslMechanisms = Ulong(0x40)
	descSaslInit       = Ulong(0x41)
	descSaslChallenge  = Ulong(0x42)
	descSaslResponse   = Ulong(0x43)
	descSaslOutcome    = Ulong(0x44)
)

// SASL outcome codes.
const (
	SaslCodeOK      uint8 = 0
	SaslCodeAuth    uint8 = 1
	SaslCodeSys     uint8 = 2
	SaslCodeSysPerm uint8 = 3
	SaslCodeSysTemp uint8 = 4
)

// SaslMechanisms advertises the server's supported mechanisms (descriptor
// 0x40).
type SaslMechanisms struct {
	Mechanisms []Symbol
}

func (*SaslMechanisms) performative() {}

func (s *SaslMechanisms) Encode(w Writer) (TypeCode, error) {
	enc := NewFrameEncoder(descSaslMechanisms)
	if err := enc.EncodeArg(s.Mechanisms); err != nil {
		return 0, err
	}
	return enc.Encode(w)
}

func (s *SaslMechanisms) fromList(body Value) error {
	fr, err := NewFrameReader(descSaslMechanisms, body)
	if err != nil {
		return err
	}
	if err := fr.DecodeRequired(&s.Mechanisms); err != nil {
		return errorWrapf(err, "decoding sasl-mechanisms")
	}
	return nil
}

// SaslInit selects a mechanism and carries the initial response (descriptor
// 0x41).
type SaslInit struct {
	Mechanism       Symbol
	InitialResponse []byte
	Hostname        *string
}

func (*SaslInit) performative() {}

func (s *SaslInit) Encode(w Writer) (TypeCode, error) {
	enc := NewFrameEncoder(descSaslInit)
	args := []interface{}{s.Mechanism, s.InitialResponse, s.Hostname}
	for _, arg := range args {
		if err := enc.EncodeArg(arg); err != nil {
			return 0, err
		}
	}
	return enc.Encode(w)
}

func (s *SaslInit) fromList(body Value) error {
	fr, err := NewFrameReader(descSaslInit, body)
	if err != nil {
		return err
	}
	if err := fr.DecodeRequired(&s.Mechanism); err != nil {
		return errorWrapf(err, "decoding sasl-init mechanism")
	}
	if err := fr.DecodeOptional(&s.InitialResponse); err != nil {
		return errorWrapf(err, "decoding sasl-init initial-response")
	}
	if err := fr.DecodeOptional(&s.Hostname); err != nil {
		return errorWrapf(err, "decoding sasl-init hostname")
	}
	return nil
}

// SaslChallenge carries server challenge data (descriptor 0x42).
type SaslChallenge struct {
	Challenge []byte
}

func (*SaslChallenge) performative() {}

func (s *SaslChallenge) Encode(w Writer) (TypeCode, error) {
	enc := NewFrameEncoder(descSaslChallenge)
	if err := enc.EncodeArg(s.Challenge); err != nil {
		return 0, err
	}
	return enc.Encode(w)
}

func (s *SaslChallenge) fromList(body Value) error {
	fr, err := NewFrameReader(descSaslChallenge, body)
	if err != nil {
		return err
	}
	if err := fr.DecodeRequired(&s.Challenge); err != nil {
		return errorWrapf(err, "decoding sasl-challenge")
	}
	return nil
}

// SaslResponse carries client response data (descriptor 0x43).
type SaslResponse struct {
	Response []byte
}

func (*SaslResponse) performative() {}

func (s *SaslResponse) Encode(w Writer) (TypeCode, error) {
	enc := NewFrameEncoder(descSaslResponse)
	if err := enc.EncodeArg(s.Response); err != nil {
		return 0, err
	}
	return enc.Encode(w)
}

func (s *SaslResponse) fromList(body Value) error {
	fr, err := NewFrameReader(descSaslResponse, body)
	if err != nil {
		return err
	}
	if err := fr.DecodeRequired(&s.Response); err != nil {
		return errorWrapf(err, "decoding sasl-response")
	}
	return nil
}

// SaslOutcome reports the result of the handshake (descriptor 0x44).
type SaslOutcome struct {
	Code           uint8
	AdditionalData []byte
}

func (*SaslOutcome) performative() {}

func (s *SaslOutcome) Encode(w Writer) (TypeCode, error) {
	enc := NewFrameEncoder(descSaslOutcome)
	if err := enc.EncodeArg(s.Code); err != nil {
		return 0, err
	}
	if err := enc.EncodeArg(s.AdditionalData); err != nil {
		return 0, err
	}
	return enc.Encode(w)
}

func (s *SaslOutcome) fromList(body Value) error {
	fr, err := NewFrameReader(descSaslOutcome, body)
	if err != nil {
		return err
	}
	if err := fr.DecodeRequired(&s.Code); err != nil {
		return errorWrapf(err, "decoding sasl-outcome code")
	}
	if err := fr.DecodeOptional(&s.AdditionalData); err != nil {
		return errorWrapf(err, "decoding sasl-outcome additional-data")
	}
	return nil
}
