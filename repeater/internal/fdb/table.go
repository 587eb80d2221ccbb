package fdb

import (
	"github.com/vishvananda/netlink"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/yanet-platform/mlrepeater/common/go/xnet"
	"github.com/yanet-platform/mlrepeater/repeater"
	"github.com/yanet-platform/mlrepeater/repeater/internal/discovery"
	"github.com/yanet-platform/mlrepeater/repeater/internal/netdev"
)

// Key is a forwarding database key.
type Key struct {
	MAC  xnet.MAC
	VLAN uint16
}

// Entry is a forwarding database entry.
type Entry struct {
	// LinkIndex is the bridge port the address is learned on.
	LinkIndex int
	// Local is set for addresses owned by the port itself.
	Local bool
}

// Cache is a snapshot of the bridge forwarding database.
type Cache = discovery.Cache[Key, Entry]

// Ports resolves bridge ports.
type Ports interface {
	ByName(name string) (*netdev.Device, bool)
	ByIndex(index int) (*netdev.Device, bool)
	Find(radio repeater.RadioID, role repeater.Role) (*netdev.Device, bool)
}

type opKind uint8

const (
	opSet opKind = iota
	opDel
)

type op struct {
	kind  opKind
	neigh netlink.Neigh
}

// Table is the bridge forwarding database as seen by the forwarding
// engines.
//
// Lookups are served from an in-memory snapshot. Writes update the
// snapshot immediately and are applied to the kernel asynchronously by
// the Monitor.
type Table struct {
	cache *Cache
	ports Ports
	ops   chan op
	log   *zap.SugaredLogger
}

// NewTable creates a new empty table.
func NewTable(ports Ports, options ...Option) *Table {
	opts := newOptions()
	for _, o := range options {
		o(opts)
	}

	return &Table{
		cache: discovery.NewEmptyCache[Key, Entry](),
		ports: ports,
		ops:   make(chan op, opts.QueueSize),
		log:   opts.Log,
	}
}

// Cache returns the underlying snapshot cache.
func (m *Table) Cache() *Cache {
	return m.cache
}

func (m *Table) HasEntry(dev repeater.NetDevice, mac xnet.MAC, vlan uint16) (repeater.BridgeEntry, bool) {
	entry, ok := m.cache.Lookup(Key{MAC: mac, VLAN: vlan})
	if !ok {
		return repeater.BridgeEntry{}, false
	}

	owner, ok := m.ports.ByIndex(entry.LinkIndex)
	if !ok {
		// The bridge itself or a port not bound to any role.
		return repeater.BridgeEntry{Role: repeater.RoleNone, Local: entry.Local}, true
	}

	return repeater.BridgeEntry{
		Owner: owner,
		Role:  owner.Role(),
		Local: entry.Local,
	}, true
}

func (m *Table) FindAPOrSTAOnRadio(dev repeater.NetDevice, role repeater.Role) (repeater.NetDevice, bool) {
	found, ok := m.ports.Find(dev.Radio(), role)
	if !ok {
		return nil, false
	}
	return found, true
}

// AddOrRefresh learns the address on the port.
//
// An unchanged entry is left alone, both in the snapshot and in the kernel.
// A kernel entry aged out meanwhile disappears from the snapshot on the next
// resync and is written again by the next refresh.
func (m *Table) AddOrRefresh(dev repeater.NetDevice, mac xnet.MAC, vlan uint16, kind repeater.EntryKind) {
	port, ok := m.ports.ByName(dev.Name())
	if !ok {
		return
	}

	key := Key{MAC: mac, VLAN: vlan}
	entry := Entry{LinkIndex: port.Index(), Local: kind == repeater.EntryLocal}
	if prev, ok := m.cache.Lookup(key); ok && prev == entry {
		return
	}
	m.cache.Store(key, entry)

	state := netlink.NUD_REACHABLE
	if entry.Local {
		state = netlink.NUD_PERMANENT | netlink.NUD_NOARP
	}
	m.enqueue(op{kind: opSet, neigh: newNeigh(port.Index(), mac, vlan, state)})
}

// Delete forgets the address if it is learned on the port.
func (m *Table) Delete(dev repeater.NetDevice, mac xnet.MAC, vlan uint16) {
	port, ok := m.ports.ByName(dev.Name())
	if !ok {
		return
	}

	key := Key{MAC: mac, VLAN: vlan}
	m.cache.Update(func(cache map[Key]Entry) {
		if entry, ok := cache[key]; ok && entry.LinkIndex == port.Index() {
			delete(cache, key)
		}
	})

	m.enqueue(op{kind: opDel, neigh: newNeigh(port.Index(), mac, vlan, 0)})
}

// Apply updates the snapshot from a single netlink notification.
func (m *Table) Apply(update netlink.NeighUpdate) {
	key, entry, ok := parseNeigh(&update.Neigh)
	if !ok {
		return
	}

	m.cache.Update(func(cache map[Key]Entry) {
		switch update.Type {
		case unix.RTM_NEWNEIGH:
			cache[key] = entry
		case unix.RTM_DELNEIGH:
			if prev, ok := cache[key]; ok && prev.LinkIndex == entry.LinkIndex {
				delete(cache, key)
			}
		}
	})
}

// enqueue never blocks the forwarding path. The kernel re-learns dropped
// updates from traffic anyway.
func (m *Table) enqueue(o op) {
	select {
	case m.ops <- o:
	default:
		m.log.Debugw("dropped forwarding database update, queue is full",
			zap.Stringer("mac", o.neigh.HardwareAddr),
			zap.Int("link_index", o.neigh.LinkIndex),
		)
	}
}

func newNeigh(linkIndex int, mac xnet.MAC, vlan uint16, state int) netlink.Neigh {
	return netlink.Neigh{
		LinkIndex:    linkIndex,
		Family:       unix.AF_BRIDGE,
		State:        state,
		Flags:        netlink.NTF_MASTER,
		HardwareAddr: mac.HardwareAddr(),
		Vlan:         int(vlan),
	}
}

// parseNeigh converts a bridge neighbour to a forwarding database entry.
func parseNeigh(neigh *netlink.Neigh) (Key, Entry, bool) {
	if neigh.Family != unix.AF_BRIDGE {
		return Key{}, Entry{}, false
	}

	mac, err := xnet.MACFromSlice(neigh.HardwareAddr)
	if err != nil || mac.IsMulticast() || mac.IsZero() {
		return Key{}, Entry{}, false
	}
	if neigh.Vlan < 0 || neigh.Vlan > 4095 {
		return Key{}, Entry{}, false
	}

	key := Key{MAC: mac, VLAN: uint16(neigh.Vlan)}
	entry := Entry{
		LinkIndex: neigh.LinkIndex,
		Local:     neigh.State&netlink.NUD_PERMANENT != 0,
	}
	return key, entry, true
}

// buildEntries builds a forwarding database snapshot of the bridge.
//
// A zero bridgeIndex accepts entries of any bridge.
func buildEntries(neighs []netlink.Neigh, bridgeIndex int) map[Key]Entry {
	entries := map[Key]Entry{}
	for idx := range neighs {
		neigh := &neighs[idx]
		if bridgeIndex != 0 && neigh.MasterIndex != bridgeIndex && neigh.LinkIndex != bridgeIndex {
			continue
		}

		key, entry, ok := parseNeigh(neigh)
		if !ok {
			continue
		}
		entries[key] = entry
	}
	return entries
}
