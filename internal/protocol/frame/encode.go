package frame

import "fmt"

// FrameCount returns ceil(n / ChunkLen).
func FrameCount(n int) int {
	return (n + ChunkLen - 1) / ChunkLen
}

// Encode splits payload into its ordered frame sequence. Chunks alias
// payload; callers that mutate payload afterwards should marshal first.
func Encode(payload []byte) ([]Frame, error) {
	if len(payload) == 0 {
		return nil, ErrEmptyPayload
	}
	if len(payload) > MaxPayload {
		return nil, fmt.Errorf("%w: %d bytes needs %d frames", ErrPayloadTooLarge, len(payload), FrameCount(len(payload)))
	}

	total := FrameCount(len(payload))
	frames := make([]Frame, 0, total)
	for i := 0; i < total; i++ {
		start := i * ChunkLen
		end := min(start+ChunkLen, len(payload))
		frames = append(frames, Frame{
			Header: Header{
				TotalFrames:   uint8(total),
				Index:         uint8(i + 1),
				PayloadLength: uint16(len(payload)),
			},
			Chunk: payload[start:end],
		})
	}
	return frames, nil
}

// EncodeBytes is Encode followed by MarshalBinary on every frame.
func EncodeBytes(payload []byte) ([][]byte, error) {
	frames, err := Encode(payload)
	if err != nil {
		return nil, err
	}
	out := make([][]byte, 0, len(frames))
	for _, f := range frames {
		b, err := f.MarshalBinary()
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}
