package wire

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
)

// UDP datagram layout:
//   [session-token:8][sequence:4][opcode:2][payload:N][HMAC-SHA256:32]
// MinDatagramBytes/MaxDatagramBytes bound N; packets outside the range are
// silently dropped by the caller (wire only validates shape, not policy).
const (
	tokenLen   = 8
	seqLen     = 4
	opcodeLen  = 2
	macLen     = 32
	headerLen  = tokenLen + seqLen + opcodeLen // 14
	MinDatagramBytes = headerLen + macLen      // 46, zero-length payload
	MaxDatagramBytes = 512
)

// SessionToken identifies a UDP session for the HMAC-secret lookup.
type SessionToken [tokenLen]byte

// Datagram is a decoded, HMAC-verified UDP packet.
type Datagram struct {
	Token   SessionToken
	Seq     uint32
	Opcode  Opcode
	Payload []byte
}

// Seal builds the wire bytes for a datagram, computing the trailing HMAC
// over everything preceding it.
func Seal(token SessionToken, seq uint32, op Opcode, payload []byte, secret []byte) ([]byte, error) {
	total := headerLen + len(payload) + macLen
	if total < MinDatagramBytes || total > MaxDatagramBytes {
		return nil, fmt.Errorf("datagram size %d outside [%d,%d]", total, MinDatagramBytes, MaxDatagramBytes)
	}

	buf := make([]byte, total)
	copy(buf[0:8], token[:])
	binary.BigEndian.PutUint32(buf[8:12], seq)
	binary.BigEndian.PutUint16(buf[12:14], uint16(op))
	copy(buf[14:14+len(payload)], payload)

	mac := hmac.New(sha256.New, secret)
	mac.Write(buf[:headerLen+len(payload)])
	sum := mac.Sum(nil)
	copy(buf[headerLen+len(payload):], sum)
	return buf, nil
}

// Open validates size, verifies the HMAC with constant-time comparison, and
// decodes a datagram. It does not apply the sequence gate or rate limits —
// those are policy decisions made by the caller (internal/netio).
func Open(raw []byte, secret []byte) (Datagram, error) {
	if len(raw) < MinDatagramBytes || len(raw) > MaxDatagramBytes {
		return Datagram{}, fmt.Errorf("datagram size %d outside [%d,%d]", len(raw), MinDatagramBytes, MaxDatagramBytes)
	}

	bodyEnd := len(raw) - macLen
	signed := raw[:bodyEnd]
	gotMAC := raw[bodyEnd:]

	mac := hmac.New(sha256.New, secret)
	mac.Write(signed)
	wantMAC := mac.Sum(nil)
	if !hmac.Equal(gotMAC, wantMAC) {
		return Datagram{}, fmt.Errorf("hmac verification failed")
	}

	var d Datagram
	copy(d.Token[:], raw[0:8])
	d.Seq = binary.BigEndian.Uint32(raw[8:12])
	d.Opcode = Opcode(binary.BigEndian.Uint16(raw[12:14]))
	payload := make([]byte, bodyEnd-headerLen)
	copy(payload, raw[14:bodyEnd])
	d.Payload = payload
	return d, nil
}

// PeekToken extracts the session token without verifying the HMAC, so the
// caller can look up the per-session secret before calling Open.
func PeekToken(raw []byte) (SessionToken, bool) {
	var t SessionToken
	if len(raw) < MinDatagramBytes {
		return t, false
	}
	copy(t[:], raw[0:8])
	return t, true
}
