package registry

import (
	"iter"
	"slices"
	"strings"
	"sync"
)

// RadioID identifies a physical radio (band).
type RadioID string

// Kind is a set of radio flags that exempt the radio from parts of the
// forwarding policy.
type Kind uint8

const (
	// KindFastLane radios are exempt from band matching and share primary
	// status with other fast-lane radios.
	KindFastLane Kind = 1 << iota
	// KindNoBackhaul radios do not take part in inter-radio backhaul
	// restrictions.
	KindNoBackhaul
)

// Has reports whether all flags of f are set.
func (m Kind) Has(f Kind) bool {
	return m&f == f
}

func (m Kind) with(f Kind, on bool) Kind {
	if on {
		return m | f
	}
	return m &^ f
}

func (m Kind) String() string {
	if m == 0 {
		return "regular"
	}

	flags := make([]string, 0, 2)
	if m.Has(KindFastLane) {
		flags = append(flags, "fast-lane")
	}
	if m.Has(KindNoBackhaul) {
		flags = append(flags, "no-backhaul")
	}
	return strings.Join(flags, "|")
}

// Radio is a registry node.
//
// S is the handle type of the station (uplink) interface hosted on the
// radio.
type Radio[S any] struct {
	ID   RadioID
	Kind Kind
	// Station is valid only when HasStation is set.
	Station    S
	HasStation bool
}

// Registry keeps track of known radios and the primary radio selection.
//
// The number of radios is expected to be tiny, so radios are kept in a
// slice and looked up linearly.
type Registry[S any] struct {
	mu         sync.Mutex
	radios     []Radio[S]
	primary    RadioID
	hasPrimary bool
}

// New creates a new empty radio registry.
func New[S any]() *Registry[S] {
	return &Registry[S]{
		radios: make([]Radio[S], 0, 8),
	}
}

func (m *Registry[S]) index(id RadioID) int {
	return slices.IndexFunc(m.radios, func(r Radio[S]) bool {
		return r.ID == id
	})
}

// Find returns a copy of the radio node with the given ID.
func (m *Registry[S]) Find(id RadioID) (Radio[S], bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.index(id)
	if idx < 0 {
		return Radio[S]{}, false
	}
	return m.radios[idx], true
}

// Add registers a new radio with no flags and no station interface.
//
// Returns false if the radio is already registered.
func (m *Registry[S]) Add(id RadioID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.index(id) >= 0 {
		return false
	}
	m.radios = append(m.radios, Radio[S]{ID: id})
	return true
}

// Remove unregisters the radio.
//
// The primary selection is left untouched even if it points to the removed
// radio.
func (m *Registry[S]) Remove(id RadioID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.index(id)
	if idx < 0 {
		return false
	}
	m.radios = slices.Delete(m.radios, idx, idx+1)
	return true
}

func (m *Registry[S]) update(id RadioID, fn func(r *Radio[S]) bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.index(id)
	if idx < 0 {
		return false
	}
	return fn(&m.radios[idx])
}

// SetFastLane sets or clears the fast-lane flag.
func (m *Registry[S]) SetFastLane(id RadioID, on bool) bool {
	return m.update(id, func(r *Radio[S]) bool {
		r.Kind = r.Kind.with(KindFastLane, on)
		return true
	})
}

// SetNoBackhaul sets or clears the no-backhaul flag.
func (m *Registry[S]) SetNoBackhaul(id RadioID, on bool) bool {
	return m.update(id, func(r *Radio[S]) bool {
		r.Kind = r.Kind.with(KindNoBackhaul, on)
		return true
	})
}

// SetStation maps the station interface to the radio.
//
// An existing mapping is never overwritten, it must be cleared first.
func (m *Registry[S]) SetStation(id RadioID, station S) bool {
	return m.update(id, func(r *Radio[S]) bool {
		if r.HasStation {
			return false
		}
		r.Station = station
		r.HasStation = true
		return true
	})
}

// ClearStation removes the station interface mapping. Clearing an empty
// mapping succeeds.
func (m *Registry[S]) ClearStation(id RadioID) bool {
	return m.update(id, func(r *Radio[S]) bool {
		var zero S
		r.Station = zero
		r.HasStation = false
		return true
	})
}

// Station returns the station interface mapped to the radio.
func (m *Registry[S]) Station(id RadioID) (S, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var zero S
	idx := m.index(id)
	if idx < 0 || !m.radios[idx].HasStation {
		return zero, false
	}
	return m.radios[idx].Station, true
}

// Kind returns radio flags, zero for unknown radios.
func (m *Registry[S]) Kind(id RadioID) Kind {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.index(id)
	if idx < 0 {
		return 0
	}
	return m.radios[idx].Kind
}

// SetPrimary selects the primary radio. The radio is not required to be
// registered.
func (m *Registry[S]) SetPrimary(id RadioID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.primary = id
	m.hasPrimary = true
}

// Primary returns the primary radio.
func (m *Registry[S]) Primary() (RadioID, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.primary, m.hasPrimary
}

// IsPrimary reports whether the radio acts as primary.
//
// A fast-lane radio is primary when any other fast-lane radio is the
// selected primary.
func (m *Registry[S]) IsPrimary(id RadioID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.hasPrimary {
		return false
	}
	if id == m.primary {
		return true
	}

	idx := m.index(id)
	if idx < 0 || !m.radios[idx].Kind.Has(KindFastLane) {
		return false
	}

	primaryIdx := m.index(m.primary)
	return primaryIdx >= 0 && m.radios[primaryIdx].Kind.Has(KindFastLane)
}

// Len returns the number of registered radios.
func (m *Registry[S]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.radios)
}

// Radios returns an iterator over a snapshot of registered radios.
func (m *Registry[S]) Radios() iter.Seq[Radio[S]] {
	m.mu.Lock()
	radios := slices.Clone(m.radios)
	m.mu.Unlock()

	return slices.Values(radios)
}
