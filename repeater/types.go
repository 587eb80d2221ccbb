package repeater

import (
	"fmt"

	"github.com/yanet-platform/mlrepeater/common/go/xnet"
	"github.com/yanet-platform/mlrepeater/common/go/xpacket"
	"github.com/yanet-platform/mlrepeater/repeater/internal/registry"
)

// RadioID identifies a physical radio (band).
type RadioID = registry.RadioID

// RadioKind is a set of radio flags.
type RadioKind = registry.Kind

const (
	RadioFastLane   = registry.KindFastLane
	RadioNoBackhaul = registry.KindNoBackhaul
)

// Role is the role of a network interface attached to the bridge.
type Role uint8

const (
	// RoleNone marks non-wireless bridge ports and the bridge itself.
	RoleNone Role = iota
	// RoleAP is a downlink access point interface.
	RoleAP
	// RoleStation is an uplink station interface connected to the RootAP.
	RoleStation
	// RoleEthernet is a wired bridge port.
	RoleEthernet
)

var roleNames = [...]string{
	RoleNone:     "none",
	RoleAP:       "ap",
	RoleStation:  "station",
	RoleEthernet: "ethernet",
}

func (m Role) String() string {
	if int(m) < len(roleNames) {
		return roleNames[m]
	}
	return fmt.Sprintf("Role(%d)", m)
}

// IsWireless reports whether the role belongs to a radio interface.
func (m Role) IsWireless() bool {
	return m == RoleAP || m == RoleStation
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Role) UnmarshalText(text []byte) error {
	for idx, name := range roleNames {
		if name == string(text) {
			*m = Role(idx)
			return nil
		}
	}
	return fmt.Errorf("unknown interface role %q", text)
}

// MarshalText implements encoding.TextMarshaler.
func (m Role) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// Verdict is the fate of a frame decided by one of the engines.
type Verdict uint8

const (
	// Allow returns the frame to the caller for default bridging.
	Allow Verdict = iota
	// Drop discards the frame.
	Drop
	// Consumed means the frame was transmitted directly on another
	// interface and the caller must not touch it anymore.
	Consumed
)

func (m Verdict) String() string {
	switch m {
	case Allow:
		return "allow"
	case Drop:
		return "drop"
	case Consumed:
		return "consumed"
	default:
		return fmt.Sprintf("Verdict(%d)", m)
	}
}

// Frame is a read-only view of an Ethernet frame being classified.
type Frame struct {
	Src       xnet.MAC
	Dst       xnet.MAC
	VLAN      uint16
	Multicast bool
	EAPOL     bool
	// Data is the raw frame, used only for direct forwarding.
	Data []byte
}

// NewFrame builds a frame view from a decoded Ethernet header.
func NewFrame(hdr xpacket.EtherHeader, data []byte) Frame {
	return Frame{
		Src:       hdr.Src,
		Dst:       hdr.Dst,
		VLAN:      hdr.VLAN,
		Multicast: hdr.IsMulticast(),
		EAPOL:     hdr.IsEAPOL(),
		Data:      data,
	}
}

// EntryKind describes how a bridge table entry was created.
type EntryKind uint8

const (
	// EntryLearned is a dynamic entry, subject to aging.
	EntryLearned EntryKind = iota
	// EntryLocal is an address owned by a bridge port itself.
	EntryLocal
)

func (m EntryKind) String() string {
	if m == EntryLocal {
		return "local"
	}
	return "learned"
}

// BridgeEntry is a read-only view of a bridge forwarding database entry.
type BridgeEntry struct {
	// Owner is the interface the address was learned on, nil for
	// non-wireless ports.
	Owner NetDevice
	// Role is the role of the owner, RoleNone when Owner is nil.
	Role Role
	// Local is set for addresses owned by the bridge port itself.
	Local bool
}

func (m BridgeEntry) wireless() bool {
	return m.Owner != nil && m.Role.IsWireless()
}

func (m BridgeEntry) localStation() bool {
	return m.Local && m.Role == RoleStation
}
