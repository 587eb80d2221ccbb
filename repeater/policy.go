package repeater

import (
	"sync"
)

// Policy is the set of process-wide forwarding flags.
type Policy struct {
	// Enabled turns the forwarding engines on.
	Enabled bool `yaml:"enabled"`
	// AlwaysPrimary drops all non-EAPOL traffic of secondary radios.
	AlwaysPrimary bool `yaml:"always_primary"`
	// DropSecondaryMulticast drops multicast on secondary radios.
	DropSecondaryMulticast bool `yaml:"drop_secondary_multicast"`
	// ForceClientMulticast is reported to the data path, which converts
	// client multicast to unicast. The engines do not act on it.
	ForceClientMulticast bool `yaml:"force_client_multicast"`
}

// State is a snapshot of the forwarding state.
type State struct {
	Policy
	// LoopDetected is set once the repeater has seen its own station
	// traffic returning through another radio.
	LoopDetected bool
	// StationCount is the number of station interfaces that are up.
	StationCount uint32
}

// NeedsProcessing reports whether the engines must inspect frames at all.
func (m State) NeedsProcessing() bool {
	return m.Enabled && m.StationCount >= 2
}

// dropForAlwaysPrimary reports whether the frame must be dropped because
// only the primary radio is allowed to carry traffic.
//
// EAPOL is never dropped, so that key exchange survives role transitions.
func (m State) dropForAlwaysPrimary(isPrimary bool, frame *Frame) bool {
	return m.AlwaysPrimary && !isPrimary && !frame.EAPOL
}

type forwardingState struct {
	mu    sync.RWMutex
	state State
}

func (m *forwardingState) load() State {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.state
}

func (m *forwardingState) update(fn func(s *State)) State {
	m.mu.Lock()
	defer m.mu.Unlock()

	fn(&m.state)
	return m.state
}

// markLoopDetected sets the sticky loop flag. Returns true on the
// false->true transition.
func (m *forwardingState) markLoopDetected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state.LoopDetected {
		return false
	}
	m.state.LoopDetected = true
	return true
}
