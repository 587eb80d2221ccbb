package xnet

import (
	"fmt"
	"net"
)

// MAC is an EUI-48 hardware address.
//
// Unlike net.HardwareAddr it is comparable and can be used as a map key
// without allocations.
type MAC [6]byte

// BroadcastMAC is ff:ff:ff:ff:ff:ff.
var BroadcastMAC = MAC{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

// ParseMAC parses an EUI-48 address in any format accepted by
// net.ParseMAC.
func ParseMAC(s string) (MAC, error) {
	hw, err := net.ParseMAC(s)
	if err != nil {
		return MAC{}, err
	}
	return MACFromSlice(hw)
}

// MustParseMAC is like ParseMAC, but panics on error.
func MustParseMAC(s string) MAC {
	mac, err := ParseMAC(s)
	if err != nil {
		panic(err)
	}
	return mac
}

// MACFromSlice converts a 6-byte slice into MAC.
func MACFromSlice(b []byte) (MAC, error) {
	var mac MAC
	if len(b) != len(mac) {
		return MAC{}, fmt.Errorf("unsupported MAC address %q: must be EUI-48", net.HardwareAddr(b))
	}
	copy(mac[:], b)
	return mac, nil
}

// IsMulticast reports whether the group bit is set.
//
// Broadcast is a multicast address too.
func (m MAC) IsMulticast() bool {
	return m[0]&0x01 != 0
}

// IsZero reports whether the address is 00:00:00:00:00:00.
func (m MAC) IsZero() bool {
	return m == MAC{}
}

// HardwareAddr returns the address as a freshly allocated slice.
func (m MAC) HardwareAddr() net.HardwareAddr {
	hw := make(net.HardwareAddr, len(m))
	copy(hw, m[:])
	return hw
}

func (m MAC) String() string {
	return net.HardwareAddr(m[:]).String()
}

// UnmarshalText implements encoding.TextUnmarshaler, so that MAC addresses
// can be used directly in YAML configs.
func (m *MAC) UnmarshalText(text []byte) error {
	mac, err := ParseMAC(string(text))
	if err != nil {
		return err
	}
	*m = mac
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (m MAC) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}
