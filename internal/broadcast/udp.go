package broadcast

import (
	"net"

	"github.com/shardwell/worldcore/internal/wire"
)

// UDPSender fires small, latency-sensitive packets (position corrections,
// position broadcasts) directly at a client address, bypassing the
// staging/flush pipeline entirely — they are fire-and-forget by design
// (spec.md §4.9).
type UDPSender struct {
	conn *net.UDPConn
}

func NewUDPSender(conn *net.UDPConn) *UDPSender {
	return &UDPSender{conn: conn}
}

// Send seals one datagram (e.g. an authoritative position correction)
// and sends it directly to addr.
func (s *UDPSender) Send(addr *net.UDPAddr, token wire.SessionToken, seq uint32, op wire.Opcode, payload, secret []byte) error {
	sealed, err := wire.Seal(token, seq, op, payload, secret)
	if err != nil {
		return err
	}
	_, err = s.conn.WriteToUDP(sealed, addr)
	return err
}
