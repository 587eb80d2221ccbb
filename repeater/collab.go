package repeater

import (
	"github.com/yanet-platform/mlrepeater/common/go/xnet"
)

// NetDevice is a handle of a network interface attached to the bridge.
type NetDevice interface {
	// Name returns the unique interface name.
	Name() string
	// HardwareAddr returns the interface's own MAC address.
	HardwareAddr() xnet.MAC
	// Radio returns the radio hosting the interface, empty for
	// non-wireless interfaces.
	Radio() RadioID
	// Role returns the interface role.
	Role() Role
	// Hold takes a reference on the interface, so it cannot be torn down
	// until Release. Returns false if the interface is going away.
	Hold() bool
	// Release drops the reference taken by Hold.
	Release()
	// Transmit hands the frame to the interface's own send path.
	Transmit(data []byte) error
}

// BridgeTable is the bridge forwarding database.
type BridgeTable interface {
	// HasEntry looks up the address in the forwarding database of the
	// bridge the interface is attached to.
	HasEntry(dev NetDevice, mac xnet.MAC, vlan uint16) (BridgeEntry, bool)
	// FindAPOrSTAOnRadio returns any interface with the given role hosted
	// on the same radio as dev.
	FindAPOrSTAOnRadio(dev NetDevice, role Role) (NetDevice, bool)
	// AddOrRefresh learns the address on the interface or refreshes the
	// existing entry.
	AddOrRefresh(dev NetDevice, mac xnet.MAC, vlan uint16, kind EntryKind)
	// Delete removes the address learned on the interface.
	Delete(dev NetDevice, mac xnet.MAC, vlan uint16)
}

func sameDevice(a, b NetDevice) bool {
	if a == nil || b == nil {
		return false
	}
	return a.Name() == b.Name()
}

// transmitHeld transmits the frame while holding a reference on the
// device.
func transmitHeld(dev NetDevice, data []byte) (held bool, err error) {
	if !dev.Hold() {
		return false, nil
	}
	defer dev.Release()

	return true, dev.Transmit(data)
}
