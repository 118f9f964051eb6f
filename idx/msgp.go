package idx

import "github.com/tinylib/msgp/msgp"

// MarshalMsg appends s to b as a two element MessagePack array: label, then pixels.
func (s *Sample) MarshalMsg(b []byte) ([]byte, error) {
	b = msgp.AppendArrayHeader(b, 2)
	b = msgp.AppendUint8(b, s.Label)
	b = msgp.AppendBytes(b, s.Pixels)
	return b, nil
}

// UnmarshalMsg reads a sample written by [Sample.MarshalMsg] and returns the remaining bytes.
func (s *Sample) UnmarshalMsg(b []byte) ([]byte, error) {
	n, b, err := msgp.ReadArrayHeaderBytes(b)
	if err != nil {
		return b, err
	}
	if n != 2 {
		return b, msgp.ArrayError{Wanted: 2, Got: n}
	}

	if s.Label, b, err = msgp.ReadUint8Bytes(b); err != nil {
		return b, err
	}
	if s.Pixels, b, err = msgp.ReadBytesBytes(b, nil); err != nil {
		return b, err
	}

	return b, nil
}

// Msgsize returns an upper bound of the encoded size of s.
func (s *Sample) Msgsize() int {
	return msgp.ArrayHeaderSize + msgp.Uint8Size + msgp.BytesPrefixSize + len(s.Pixels)
}
