package frame

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	Marker    byte = 0xAA
	Size           = 20
	HeaderLen      = 5
	ChunkLen       = Size - HeaderLen
	MaxFrames      = 255
	// MaxPayload is the largest payload whose frame count fits in one byte.
	MaxPayload = MaxFrames * ChunkLen
)

var (
	ErrMalformedFrame  = errors.New("frame: malformed frame")
	ErrPayloadTooLarge = errors.New("frame: payload too large")
	ErrEmptyPayload    = errors.New("frame: empty payload")
)

// Header is the fixed 5-byte wire header.
//
//	[1 byte]  marker 0xAA
//	[1 byte]  total frames
//	[1 byte]  frame index, 1-based
//	[2 bytes] total payload length (big-endian uint16)
type Header struct {
	TotalFrames   uint8
	Index         uint8
	PayloadLength uint16
}

// Frame is one fixed-size wire unit. Chunk holds only payload bytes; the
// zero padding of a final short frame is added by MarshalBinary.
type Frame struct {
	Header
	Chunk []byte
}

// MarshalBinary renders f as exactly Size bytes.
func (f Frame) MarshalBinary() ([]byte, error) {
	if len(f.Chunk) > ChunkLen {
		return nil, fmt.Errorf("%w: chunk length %d", ErrMalformedFrame, len(f.Chunk))
	}
	buf := make([]byte, Size)
	EncodeHeader(buf, f.Header)
	copy(buf[HeaderLen:], f.Chunk)
	return buf, nil
}

func EncodeHeader(buf []byte, h Header) {
	buf[0] = Marker
	buf[1] = h.TotalFrames
	buf[2] = h.Index
	binary.BigEndian.PutUint16(buf[3:5], h.PayloadLength)
}

func DecodeHeader(b []byte) (Header, error) {
	if len(b) < HeaderLen {
		return Header{}, fmt.Errorf("%w: short header %d", ErrMalformedFrame, len(b))
	}
	if b[0] != Marker {
		return Header{}, fmt.Errorf("%w: marker 0x%02X", ErrMalformedFrame, b[0])
	}
	return Header{
		TotalFrames:   b[1],
		Index:         b[2],
		PayloadLength: binary.BigEndian.Uint16(b[3:5]),
	}, nil
}

// Validate checks a received block and decodes it. The returned chunk is a
// full ChunkLen copy, padding included; reassembly truncates to
// PayloadLength.
func Validate(block []byte) (Frame, error) {
	if len(block) != Size {
		return Frame{}, fmt.Errorf("%w: length %d", ErrMalformedFrame, len(block))
	}
	h, err := DecodeHeader(block)
	if err != nil {
		return Frame{}, err
	}
	if err := h.check(); err != nil {
		return Frame{}, err
	}
	chunk := make([]byte, ChunkLen)
	copy(chunk, block[HeaderLen:])
	return Frame{Header: h, Chunk: chunk}, nil
}

func (h Header) check() error {
	if h.TotalFrames == 0 {
		return fmt.Errorf("%w: zero total frames", ErrMalformedFrame)
	}
	if h.Index == 0 || h.Index > h.TotalFrames {
		return fmt.Errorf("%w: index %d outside 1..%d", ErrMalformedFrame, h.Index, h.TotalFrames)
	}
	lo := (int(h.TotalFrames) - 1) * ChunkLen
	hi := int(h.TotalFrames) * ChunkLen
	if n := int(h.PayloadLength); n <= lo || n > hi {
		return fmt.Errorf("%w: payload length %d does not fit %d frames", ErrMalformedFrame, n, h.TotalFrames)
	}
	return nil
}
