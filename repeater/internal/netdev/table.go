package netdev

import (
	"net"
	"sync"

	"github.com/vishvananda/netlink"
	"go.uber.org/zap"

	"github.com/yanet-platform/mlrepeater/common/go/xnet"
	"github.com/yanet-platform/mlrepeater/repeater"
	"github.com/yanet-platform/mlrepeater/repeater/internal/discovery"
)

// StationEvent reports a station interface changing its operational state.
type StationEvent struct {
	Device *Device
	Up     bool
}

// Table is the set of bridge ports known to the repeater.
//
// Devices keep their identity across resyncs as long as the kernel link
// keeps its index and address, so references taken by the forwarding
// engines survive unrelated link updates.
type Table struct {
	matcher *Matcher
	tx      Transmitter

	// mu serializes Sync.
	mu      sync.Mutex
	byName  *discovery.Cache[string, *Device]
	byIndex *discovery.Cache[int, *Device]
	byRadio *discovery.Cache[radioRole, *Device]
	log     *zap.SugaredLogger
}

type radioRole struct {
	radio repeater.RadioID
	role  repeater.Role
}

// NewTable creates a new empty table.
func NewTable(matcher *Matcher, tx Transmitter, options ...Option) *Table {
	opts := newOptions()
	for _, o := range options {
		o(opts)
	}

	return &Table{
		matcher: matcher,
		tx:      tx,
		byName:  discovery.NewEmptyCache[string, *Device](),
		byIndex: discovery.NewEmptyCache[int, *Device](),
		byRadio: discovery.NewEmptyCache[radioRole, *Device](),
		log:     opts.Log,
	}
}

// ByName returns the device with the given interface name.
func (m *Table) ByName(name string) (*Device, bool) {
	return m.byName.Lookup(name)
}

// ByIndex returns the device with the given interface index.
func (m *Table) ByIndex(index int) (*Device, bool) {
	return m.byIndex.Lookup(index)
}

// Find returns a device with the role hosted on the radio. The first such
// link of the last sync wins.
func (m *Table) Find(radio repeater.RadioID, role repeater.Role) (*Device, bool) {
	return m.byRadio.Lookup(radioRole{radio: radio, role: role})
}

// Sync replaces the table with the given links and returns station state
// transitions.
func (m *Table) Sync(links []netlink.Link) []StationEvent {
	m.mu.Lock()
	defer m.mu.Unlock()

	prev := m.byName.Entries()
	next, removed := buildDevices(links, m.matcher, prev, m.tx)

	byIndex := make(map[int]*Device, len(next))
	byRadio := map[radioRole]*Device{}
	for _, link := range links {
		dev, ok := next[link.Attrs().Name]
		if !ok {
			continue
		}
		byIndex[dev.Index()] = dev

		key := radioRole{radio: dev.Radio(), role: dev.Role()}
		if _, ok := byRadio[key]; !ok {
			byRadio[key] = dev
		}
	}
	m.byName.Swap(next)
	m.byIndex.Swap(byIndex)
	m.byRadio.Swap(byRadio)

	// Teardown goes first, so a replaced link is unmapped before its
	// successor is mapped.
	events := []StationEvent{}
	for _, dev := range removed {
		dev.close()
		if dev.Role() == repeater.RoleStation && dev.up.Swap(false) {
			events = append(events, StationEvent{Device: dev, Up: false})
		}
	}
	for _, link := range links {
		attrs := link.Attrs()
		dev, ok := next[attrs.Name]
		if !ok || dev.Role() != repeater.RoleStation {
			continue
		}
		up := linkUp(attrs)
		if dev.up.Swap(up) != up {
			events = append(events, StationEvent{Device: dev, Up: up})
		}
	}

	m.log.Debugw("synced bridge ports",
		zap.Int("size", len(next)),
		zap.Int("removed", len(removed)),
		zap.Int("station_events", len(events)),
	)
	return events
}

// buildDevices maps links to devices, reusing devices from prev whose link
// did not change. Devices from prev that are not in the result are returned
// as removed.
func buildDevices(links []netlink.Link, matcher *Matcher, prev map[string]*Device, tx Transmitter) (map[string]*Device, []*Device) {
	next := map[string]*Device{}
	for _, link := range links {
		attrs := link.Attrs()
		binding, ok := matcher.Match(attrs.Name)
		if !ok {
			continue
		}

		mac, err := xnet.MACFromSlice(attrs.HardwareAddr)
		if err != nil {
			continue
		}

		if dev, ok := prev[attrs.Name]; ok && dev.sameLink(attrs.Index, mac, binding) {
			next[attrs.Name] = dev
			continue
		}
		next[attrs.Name] = newDevice(attrs.Name, attrs.Index, mac, binding, tx)
	}

	removed := []*Device{}
	for name, dev := range prev {
		if next[name] != dev {
			removed = append(removed, dev)
		}
	}
	return next, removed
}

func linkUp(attrs *netlink.LinkAttrs) bool {
	switch attrs.OperState {
	case netlink.OperUp:
		return true
	case netlink.OperUnknown:
		return attrs.Flags&net.FlagUp != 0
	default:
		return false
	}
}
