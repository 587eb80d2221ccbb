package static

import (
	"sync"

	"github.com/yanet-platform/mlrepeater/common/go/xnet"
	"github.com/yanet-platform/mlrepeater/repeater"
)

// Key is a forwarding database key.
type Key struct {
	MAC  xnet.MAC
	VLAN uint16
}

// Entry is a forwarding database entry.
type Entry struct {
	// Owner is nil for addresses behind non-wireless ports.
	Owner *Device
	Local bool
}

// Bridge is an in-memory forwarding database over a fixed set of devices.
type Bridge struct {
	mu      sync.RWMutex
	devices []*Device
	entries map[Key]Entry
	lookups int
}

// NewBridge creates a new in-memory bridge with the given ports.
func NewBridge(devices ...*Device) *Bridge {
	return &Bridge{
		devices: devices,
		entries: map[Key]Entry{},
	}
}

// AddDevice attaches one more port.
func (m *Bridge) AddDevice(dev *Device) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.devices = append(m.devices, dev)
}

// Device returns the port with the given name.
func (m *Bridge) Device(name string) (*Device, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.device(name)
}

func (m *Bridge) device(name string) (*Device, bool) {
	for _, dev := range m.devices {
		if dev.Name() == name {
			return dev, true
		}
	}
	return nil, false
}

// Learn adds an entry. A nil owner means a non-wireless port.
func (m *Bridge) Learn(mac xnet.MAC, vlan uint16, owner *Device, local bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[Key{MAC: mac, VLAN: vlan}] = Entry{Owner: owner, Local: local}
}

// Entry returns the raw entry for the address.
func (m *Bridge) Entry(mac xnet.MAC, vlan uint16) (Entry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.entries[Key{MAC: mac, VLAN: vlan}]
	return entry, ok
}

// Lookups returns the number of HasEntry calls served.
func (m *Bridge) Lookups() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.lookups
}

func (m *Bridge) HasEntry(dev repeater.NetDevice, mac xnet.MAC, vlan uint16) (repeater.BridgeEntry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lookups++
	entry, ok := m.entries[Key{MAC: mac, VLAN: vlan}]
	if !ok {
		return repeater.BridgeEntry{}, false
	}
	if entry.Owner == nil {
		return repeater.BridgeEntry{Role: repeater.RoleNone, Local: entry.Local}, true
	}

	return repeater.BridgeEntry{
		Owner: entry.Owner,
		Role:  entry.Owner.Role(),
		Local: entry.Local,
	}, true
}

func (m *Bridge) FindAPOrSTAOnRadio(dev repeater.NetDevice, role repeater.Role) (repeater.NetDevice, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, candidate := range m.devices {
		if candidate.Radio() == dev.Radio() && candidate.Role() == role {
			return candidate, true
		}
	}
	return nil, false
}

func (m *Bridge) AddOrRefresh(dev repeater.NetDevice, mac xnet.MAC, vlan uint16, kind repeater.EntryKind) {
	m.mu.Lock()
	defer m.mu.Unlock()

	owner, ok := m.device(dev.Name())
	if !ok {
		return
	}
	m.entries[Key{MAC: mac, VLAN: vlan}] = Entry{
		Owner: owner,
		Local: kind == repeater.EntryLocal,
	}
}

func (m *Bridge) Delete(dev repeater.NetDevice, mac xnet.MAC, vlan uint16) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := Key{MAC: mac, VLAN: vlan}
	entry, ok := m.entries[key]
	if !ok || entry.Owner == nil || entry.Owner.Name() != dev.Name() {
		return
	}
	delete(m.entries, key)
}
