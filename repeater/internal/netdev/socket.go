package netdev

import (
	"fmt"

	"github.com/c2h5oh/datasize"
	"golang.org/x/sys/unix"
)

// PacketSocket transmits raw Ethernet frames through an AF_PACKET socket.
//
// The socket is bound to no protocol, so it never receives.
type PacketSocket struct {
	fd int
}

// NewPacketSocket opens a new send-only packet socket.
func NewPacketSocket(sendBuffer datasize.ByteSize) (*PacketSocket, error) {
	fd, err := unix.Socket(unix.AF_PACKET, unix.SOCK_RAW|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open packet socket: %w", err)
	}

	if sendBuffer > 0 {
		if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_SNDBUF, int(sendBuffer.Bytes())); err != nil {
			_ = unix.Close(fd)
			return nil, fmt.Errorf("failed to set send buffer to %s: %w", sendBuffer.HR(), err)
		}
	}

	return &PacketSocket{fd: fd}, nil
}

// Transmit sends the frame out of the interface as is.
func (m *PacketSocket) Transmit(ifindex int, data []byte) error {
	if len(data) < 14 {
		return fmt.Errorf("frame too short: %d bytes", len(data))
	}

	addr := &unix.SockaddrLinklayer{
		Ifindex: ifindex,
		Halen:   6,
	}
	copy(addr.Addr[:], data[:6])

	return unix.Sendto(m.fd, data, 0, addr)
}

// Close closes the socket.
func (m *PacketSocket) Close() error {
	return unix.Close(m.fd)
}
