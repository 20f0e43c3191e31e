package anticheat

import (
	"github.com/shardwell/worldcore/internal/errs"
	"github.com/shardwell/worldcore/internal/session"
	"github.com/shardwell/worldcore/internal/wire"
)

const opHeartbeat = uint16(0x0601) // wire.OpHeartbeat, a neutral opcode for UDP-layer rejections

// VerifyDatagram implements the forgery/replay checks of spec.md §4.1 and
// §4.11 as a single gate: look up the session by its unverified token,
// verify the HMAC under that session's secret, then enforce the strictly-
// increasing UDP sequence (testable property 2). Returns the decoded,
// trusted datagram and the owning session on success.
func VerifyDatagram(raw []byte, registry *session.Registry) (wire.Datagram, *session.Session, *errs.Error) {
	token, ok := wire.PeekToken(raw)
	if !ok {
		return wire.Datagram{}, nil, errs.New(errs.Protocol, errs.CodeMalformedPayload, opHeartbeat)
	}

	sess, ok := registry.Lookup(token)
	if !ok {
		return wire.Datagram{}, nil, errs.New(errs.Protocol, errs.CodeUnknownSession, opHeartbeat)
	}

	dgram, err := wire.Open(raw, sess.HMACSecret[:])
	if err != nil {
		return wire.Datagram{}, nil, errs.Wrap(errs.Protocol, errs.CodeBadHMAC, opHeartbeat, err)
	}

	if !sess.AcceptUDPSequence(dgram.Seq) {
		return wire.Datagram{}, nil, errs.New(errs.Protocol, errs.CodeInvalidSequence, opHeartbeat)
	}

	return dgram, sess, nil
}
