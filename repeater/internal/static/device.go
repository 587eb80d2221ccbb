package static

import (
	"slices"
	"sync"

	"github.com/yanet-platform/mlrepeater/common/go/xnet"
	"github.com/yanet-platform/mlrepeater/repeater"
)

// Device is an in-memory network interface that records transmitted
// frames.
type Device struct {
	name  string
	mac   xnet.MAC
	radio repeater.RadioID
	role  repeater.Role

	mu    sync.Mutex
	refs  int
	down  bool
	txErr error
	sent  [][]byte
}

// NewDevice creates a new in-memory interface.
func NewDevice(name string, radio repeater.RadioID, role repeater.Role, mac xnet.MAC) *Device {
	return &Device{
		name:  name,
		mac:   mac,
		radio: radio,
		role:  role,
	}
}

func (m *Device) Name() string {
	return m.name
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

func (m *Device) Hold() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.down {
		return false
	}
	m.refs++
	return true
}

func (m *Device) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.refs--
}

func (m *Device) Transmit(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.txErr != nil {
		return m.txErr
	}
	m.sent = append(m.sent, slices.Clone(data))
	return nil
}

// SetDown makes further Hold calls fail.
func (m *Device) SetDown(down bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.down = down
}

// SetTransmitError makes further Transmit calls fail with err.
func (m *Device) SetTransmitError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.txErr = err
}

// Refs returns the number of outstanding references.
func (m *Device) Refs() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.refs
}

// Sent returns frames transmitted so far.
func (m *Device) Sent() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()

	return slices.Clone(m.sent)
}
