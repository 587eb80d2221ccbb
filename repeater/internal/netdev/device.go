package netdev

import (
	"fmt"
	"sync/atomic"

	"github.com/yanet-platform/mlrepeater/common/go/xnet"
	"github.com/yanet-platform/mlrepeater/repeater"
)

// Transmitter sends raw Ethernet frames out of an interface.
type Transmitter interface {
	Transmit(ifindex int, data []byte) error
}

// Device is a bridge port discovered via netlink.
type Device struct {
	name  string
	index int
	mac   xnet.MAC
	radio repeater.RadioID
	role  repeater.Role
	tx    Transmitter

	up      atomic.Bool
	refs    atomic.Int64
	closing atomic.Bool
}

func newDevice(name string, index int, mac xnet.MAC, binding Binding, tx Transmitter) *Device {
	return &Device{
		name:  name,
		index: index,
		mac:   mac,
		radio: binding.Radio,
		role:  binding.Role,
		tx:    tx,
	}
}

func (m *Device) Name() string {
	return m.name
}

// Index returns the kernel interface index.
func (m *Device) Index() int {
	return m.index
}

func (m *Device) HardwareAddr() xnet.MAC {
	return m.mac
}

func (m *Device) Radio() repeater.RadioID {
	return m.radio
}

func (m *Device) Role() repeater.Role {
	return m.role
}

// Up reports whether the interface is operationally up.
func (m *Device) Up() bool {
	return m.up.Load()
}

func (m *Device) Hold() bool {
	if m.closing.Load() {
		return false
	}
	m.refs.Add(1)
	// Lost the race with close.
	if m.closing.Load() {
		m.refs.Add(-1)
		return false
	}
	return true
}

func (m *Device) Release() {
	m.refs.Add(-1)
}

// Refs returns the number of outstanding references.
func (m *Device) Refs() int64 {
	return m.refs.Load()
}

func (m *Device) Transmit(data []byte) error {
	if err := m.tx.Transmit(m.index, data); err != nil {
		return fmt.Errorf("failed to transmit on %q: %w", m.name, err)
	}
	return nil
}

// close makes further Hold calls fail. Outstanding references stay valid.
func (m *Device) close() {
	m.closing.Store(true)
}

func (m *Device) sameLink(index int, mac xnet.MAC, binding Binding) bool {
	return m.index == index && m.mac == mac && m.radio == binding.Radio && m.role == binding.Role
}
