package repeater

import (
	"errors"
	"fmt"
	"iter"

	"go.uber.org/zap"

	"github.com/yanet-platform/mlrepeater/repeater/internal/registry"
)

var (
	// ErrRadioExists is returned when adding an already registered radio.
	ErrRadioExists = errors.New("radio already exists")
	// ErrRadioNotFound is returned for operations on unknown radios.
	ErrRadioNotFound = errors.New("radio not found")
	// ErrStationMapped is returned when the radio already has a station
	// interface.
	ErrStationMapped = errors.New("station interface already mapped")
)

type options struct {
	Log *zap.SugaredLogger
}

func newOptions() *options {
	return &options{
		Log: zap.NewNop().Sugar(),
	}
}

// Option is a function that configures the repeater context.
type Option func(*options)

// WithLog sets the logger for the repeater context.
func WithLog(log *zap.SugaredLogger) Option {
	return func(o *options) {
		o.Log = log
	}
}

// RadioInfo describes a registered radio.
type RadioInfo struct {
	ID      RadioID
	Kind    RadioKind
	Primary bool
	// Station is the name of the mapped station interface, if any.
	Station string
}

// Context is the forwarding and loop-prevention decision engine of a
// multi-radio repeater.
//
// All methods are safe for concurrent use. Frame classification never
// blocks and never holds an internal lock across bridge table or transmit
// calls.
type Context struct {
	radios   *registry.Registry[NetDevice]
	bridge   BridgeTable
	state    forwardingState
	counters counterSet
	log      *zap.SugaredLogger
}

// New creates a new repeater context on top of the given bridge table.
//
// Processing is disabled until Init is called.
func New(bridge BridgeTable, options ...Option) *Context {
	opts := newOptions()
	for _, o := range options {
		o(opts)
	}

	return &Context{
		radios: registry.New[NetDevice](),
		bridge: bridge,
		log:    opts.Log,
	}
}

// Init enables frame processing.
func (m *Context) Init() {
	m.state.update(func(s *State) {
		s.Enabled = true
	})
	m.log.Infow("enabled repeater processing")
}

// Deinit disables frame processing and forgets a detected loop.
func (m *Context) Deinit() {
	m.state.update(func(s *State) {
		s.Enabled = false
		s.LoopDetected = false
	})
	m.log.Infow("disabled repeater processing")
}

// AddRadio registers a new radio.
func (m *Context) AddRadio(id RadioID) error {
	if !m.radios.Add(id) {
		return fmt.Errorf("failed to add radio %q: %w", id, ErrRadioExists)
	}

	m.log.Infow("added radio", zap.String("radio", string(id)))
	return nil
}

// RemoveRadio unregisters a radio.
func (m *Context) RemoveRadio(id RadioID) error {
	if !m.radios.Remove(id) {
		return fmt.Errorf("failed to remove radio %q: %w", id, ErrRadioNotFound)
	}

	m.log.Infow("removed radio", zap.String("radio", string(id)))
	return nil
}

// SetFastLane marks the radio as fast-lane.
func (m *Context) SetFastLane(id RadioID, on bool) error {
	if !m.radios.SetFastLane(id, on) {
		return fmt.Errorf("failed to set fast-lane on radio %q: %w", id, ErrRadioNotFound)
	}

	m.log.Infow("updated radio", zap.String("radio", string(id)), zap.Bool("fast_lane", on))
	return nil
}

// SetNoBackhaul marks the radio as not taking part in backhaul.
func (m *Context) SetNoBackhaul(id RadioID, on bool) error {
	if !m.radios.SetNoBackhaul(id, on) {
		return fmt.Errorf("failed to set no-backhaul on radio %q: %w", id, ErrRadioNotFound)
	}

	m.log.Infow("updated radio", zap.String("radio", string(id)), zap.Bool("no_backhaul", on))
	return nil
}

// AddStationVAP maps the station interface to the radio.
func (m *Context) AddStationVAP(id RadioID, dev NetDevice) error {
	if !m.radios.SetStation(id, dev) {
		if _, ok := m.radios.Find(id); !ok {
			return fmt.Errorf("failed to map station %q: %w", dev.Name(), ErrRadioNotFound)
		}
		return fmt.Errorf("failed to map station %q to radio %q: %w", dev.Name(), id, ErrStationMapped)
	}

	m.log.Infow("mapped station interface",
		zap.String("radio", string(id)),
		zap.String("dev", dev.Name()),
	)
	return nil
}

// RemoveStationVAP clears the station interface mapping of the radio.
func (m *Context) RemoveStationVAP(id RadioID) error {
	if !m.radios.ClearStation(id) {
		return fmt.Errorf("failed to unmap station of radio %q: %w", id, ErrRadioNotFound)
	}

	m.log.Infow("unmapped station interface", zap.String("radio", string(id)))
	return nil
}

// SetPrimaryRadio selects the primary radio.
func (m *Context) SetPrimaryRadio(id RadioID) {
	m.radios.SetPrimary(id)
	m.log.Infow("selected primary radio", zap.String("radio", string(id)))
}

// PrimaryRadio returns the selected primary radio.
func (m *Context) PrimaryRadio() (RadioID, bool) {
	return m.radios.Primary()
}

// IsPrimary reports whether the radio acts as primary, taking the
// fast-lane group into account.
func (m *Context) IsPrimary(id RadioID) bool {
	return m.radios.IsPrimary(id)
}

// SetAlwaysPrimary toggles the always-primary policy.
func (m *Context) SetAlwaysPrimary(on bool) {
	m.state.update(func(s *State) {
		s.AlwaysPrimary = on
	})
	m.log.Infow("updated policy", zap.Bool("always_primary", on))
}

// SetDropSecondaryMulticast toggles multicast suppression on secondary
// radios.
func (m *Context) SetDropSecondaryMulticast(on bool) {
	m.state.update(func(s *State) {
		s.DropSecondaryMulticast = on
	})
	m.log.Infow("updated policy", zap.Bool("drop_secondary_multicast", on))
}

// SetForceClientMulticast toggles client multicast-to-unicast conversion.
func (m *Context) SetForceClientMulticast(on bool) {
	m.state.update(func(s *State) {
		s.ForceClientMulticast = on
	})
	m.log.Infow("updated policy", zap.Bool("force_client_multicast", on))
}

// AppendStationCount accounts a station interface going up (increment) or
// down.
//
// More than one station forces drop-secondary-multicast on. One station or
// less clears the detected loop.
func (m *Context) AppendStationCount(increment bool) {
	wasLooped := false
	state := m.state.update(func(s *State) {
		wasLooped = s.LoopDetected
		if increment {
			s.StationCount++
			if s.StationCount > 1 {
				s.DropSecondaryMulticast = true
			}
			return
		}

		if s.StationCount > 0 {
			s.StationCount--
		}
		if s.StationCount <= 1 {
			s.LoopDetected = false
		}
	})

	m.log.Infow("updated station count",
		zap.Uint32("station_count", state.StationCount),
		zap.Bool("drop_secondary_multicast", state.DropSecondaryMulticast),
	)
	if wasLooped && !state.LoopDetected {
		m.log.Infow("cleared loop detection")
	}
}

// NeedsProcessing reports whether the engines inspect frames.
func (m *Context) NeedsProcessing() bool {
	return m.state.load().NeedsProcessing()
}

// State returns a snapshot of the forwarding state.
func (m *Context) State() State {
	return m.state.load()
}

// Stats returns a snapshot of all counters.
func (m *Context) Stats() Stats {
	return m.counters.snapshot()
}

// Counter returns the current value of a single counter.
func (m *Context) Counter(c Counter) uint64 {
	return m.counters.load(c)
}

// ResetStats zeroes all counters.
func (m *Context) ResetStats() {
	m.counters.reset()
}

// Radios returns an iterator over registered radios.
func (m *Context) Radios() iter.Seq[RadioInfo] {
	return func(yield func(RadioInfo) bool) {
		for radio := range m.radios.Radios() {
			info := RadioInfo{
				ID:      radio.ID,
				Kind:    radio.Kind,
				Primary: m.radios.IsPrimary(radio.ID),
			}
			if radio.HasStation {
				info.Station = radio.Station.Name()
			}
			if !yield(info) {
				return
			}
		}
	}
}

func (m *Context) onLoopDetected(dev NetDevice, entry BridgeEntry, frame *Frame) {
	if !m.state.markLoopDetected() {
		return
	}
	m.counters.inc(CounterLoopDetected)

	m.log.Warnw("detected bridging loop",
		zap.String("dev", dev.Name()),
		zap.String("radio", string(dev.Radio())),
		zap.String("owner", entry.Owner.Name()),
		zap.String("owner_radio", string(entry.Owner.Radio())),
		zap.Stringer("src", frame.Src),
	)
}

// forward transmits the frame directly on the target interface.
func (m *Context) forward(target NetDevice, frame *Frame, counter Counter) Verdict {
	held, err := transmitHeld(target, frame.Data)
	if !held {
		m.counters.inc(CounterForwardNoRef)
		return Drop
	}
	if err != nil {
		m.counters.inc(CounterForwardTxError)
		m.log.Debugw("failed to forward frame", zap.String("dev", target.Name()), zap.Error(err))
	}

	m.counters.inc(counter)
	return Consumed
}

func (m *Context) drop(counter Counter) Verdict {
	m.counters.inc(counter)
	return Drop
}
