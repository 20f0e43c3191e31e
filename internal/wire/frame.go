package wire

import (
	"encoding/binary"
	"fmt"
	"io"
)

// MaxFrameBytes is the hard ceiling on a TCP frame (opcode + payload), per
// spec. ReadFrame enforces it unconditionally; callers may enforce a
// stricter configured limit on top.
const MaxFrameBytes = 65535

// ReadFrame reads one TCP frame: a 4-byte big-endian length covering the
// 2-byte opcode plus payload, followed by that many bytes. It returns the
// opcode and the payload (without the length header or opcode bytes).
func ReadFrame(r io.Reader) (Opcode, []byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return 0, nil, fmt.Errorf("read frame length: %w", err)
	}
	length := binary.BigEndian.Uint32(lenBuf[:])
	if length < 2 || length > MaxFrameBytes {
		return 0, nil, fmt.Errorf("invalid frame length %d", length)
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return 0, nil, fmt.Errorf("read frame body (%d bytes): %w", length, err)
	}

	op := Opcode(binary.BigEndian.Uint16(body[:2]))
	return op, body[2:], nil
}

// WriteFrame writes one TCP frame for opcode/payload to w.
func WriteFrame(w io.Writer, op Opcode, payload []byte) error {
	length := 2 + len(payload)
	if length > MaxFrameBytes {
		return fmt.Errorf("frame too large: %d bytes", length)
	}

	buf := make([]byte, 4+length)
	binary.BigEndian.PutUint32(buf[0:4], uint32(length))
	binary.BigEndian.PutUint16(buf[4:6], uint16(op))
	copy(buf[6:], payload)

	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// Encode builds the wire bytes for a frame without writing them anywhere —
// used by the broadcast layer to stage a packet into a per-socket buffer
// ahead of the tick-end flush.
func Encode(op Opcode, payload []byte) []byte {
	length := 2 + len(payload)
	buf := make([]byte, 4+length)
	binary.BigEndian.PutUint32(buf[0:4], uint32(length))
	binary.BigEndian.PutUint16(buf[4:6], uint16(op))
	copy(buf[6:], payload)
	return buf
}
