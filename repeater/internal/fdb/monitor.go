package fdb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/vishvananda/netlink"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"
)

var errSubscriptionClosed = errors.New("neighbour subscription closed")

// neighWriter applies forwarding database changes to the kernel.
type neighWriter interface {
	NeighSet(neigh *netlink.Neigh) error
	NeighDel(neigh *netlink.Neigh) error
}

type netlinkWriter struct{}

func (netlinkWriter) NeighSet(neigh *netlink.Neigh) error {
	return netlink.NeighSet(neigh)
}

func (netlinkWriter) NeighDel(neigh *netlink.Neigh) error {
	return netlink.NeighDel(neigh)
}

// Monitor keeps the table in sync with the kernel bridge forwarding
// database and writes engine-initiated changes back.
type Monitor struct {
	table          *Table
	bridgeIndex    int
	writer         neighWriter
	updateInterval time.Duration
	log            *zap.SugaredLogger
}

// NewMonitor creates a new forwarding database monitor for the named
// bridge.
//
// The table is populated synchronously.
func NewMonitor(table *Table, bridge string, options ...Option) (*Monitor, error) {
	opts := newOptions()
	for _, o := range options {
		o(opts)
	}

	link, err := netlink.LinkByName(bridge)
	if err != nil {
		return nil, fmt.Errorf("failed to find bridge %q: %w", bridge, err)
	}

	m := &Monitor{
		table:          table,
		bridgeIndex:    link.Attrs().Index,
		writer:         netlinkWriter{},
		updateInterval: opts.UpdateInterval,
		log:            opts.Log.With(zap.String("bridge", bridge)),
	}

	if err := m.update(); err != nil {
		return nil, err
	}
	return m, nil
}

// Run runs the monitor until the specified context is canceled.
func (m *Monitor) Run(ctx context.Context) error {
	m.log.Debugf("starting forwarding database monitor")
	defer m.log.Debugf("stopped forwarding database monitor")

	wg, ctx := errgroup.WithContext(ctx)
	wg.Go(func() error {
		return m.runSubscriptionLoop(ctx)
	})
	wg.Go(func() error {
		return m.runPeriodicUpdate(ctx)
	})
	wg.Go(func() error {
		return m.runWriter(ctx)
	})

	return wg.Wait()
}

func (m *Monitor) runSubscriptionLoop(ctx context.Context) error {
	b := backoff.ExponentialBackOff{
		InitialInterval:     backoff.DefaultInitialInterval,
		RandomizationFactor: backoff.DefaultRandomizationFactor,
		Multiplier:          backoff.DefaultMultiplier,
		MaxInterval:         30 * time.Second,
	}
	b.Reset()

	for {
		err := m.runSubscription(ctx, b.Reset)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		m.log.Warnw("neighbour subscription failed, resubscribing", zap.Error(err))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(b.NextBackOff()):
		}
	}
}

func (m *Monitor) runSubscription(ctx context.Context, onSubscribed func()) error {
	done := make(chan struct{})
	defer close(done)

	txRx := make(chan netlink.NeighUpdate, 256)
	opts := netlink.NeighSubscribeOptions{
		ErrorCallback: func(err error) {
			m.log.Warnw("neighbour subscription error", zap.Error(err))
		},
	}
	if err := netlink.NeighSubscribeWithOptions(txRx, done, opts); err != nil {
		return fmt.Errorf("failed to subscribe to neighbour updates: %w", err)
	}
	onSubscribed()

	// Events may have been missed while resubscribing.
	if err := m.update(); err != nil {
		m.log.Warnw("failed to update forwarding database", zap.Error(err))
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-txRx:
			if !ok {
				return errSubscriptionClosed
			}
			m.processNeighUpdate(update)
		}
	}
}

func (m *Monitor) processNeighUpdate(update netlink.NeighUpdate) {
	if update.Family != unix.AF_BRIDGE {
		return
	}
	if update.MasterIndex != m.bridgeIndex && update.LinkIndex != m.bridgeIndex {
		return
	}

	m.log.Debugw("processing forwarding database update",
		zap.Uint16("type", update.Type),
		zap.Int("link_index", update.LinkIndex),
		zap.Stringer("mac", update.HardwareAddr),
		zap.Int("vlan", update.Vlan),
	)
	m.table.Apply(update)
}

func (m *Monitor) runPeriodicUpdate(ctx context.Context) error {
	timer := time.NewTicker(m.updateInterval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			if err := m.update(); err != nil {
				m.log.Warnw("failed to update forwarding database", zap.Error(err))
			}
		}
	}
}

func (m *Monitor) runWriter(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case o := <-m.table.ops:
			if err := m.write(o); err != nil {
				m.log.Debugw("failed to write forwarding database entry", zap.Error(err))
			}
		}
	}
}

func (m *Monitor) write(o op) error {
	switch o.kind {
	case opSet:
		if err := m.writer.NeighSet(&o.neigh); err != nil {
			return fmt.Errorf("failed to set %s on link %d: %w", o.neigh.HardwareAddr, o.neigh.LinkIndex, err)
		}
	case opDel:
		if err := m.writer.NeighDel(&o.neigh); err != nil {
			return fmt.Errorf("failed to delete %s on link %d: %w", o.neigh.HardwareAddr, o.neigh.LinkIndex, err)
		}
	}
	return nil
}

func (m *Monitor) update() error {
	neighs, err := netlink.NeighList(0, unix.AF_BRIDGE)
	if err != nil {
		return fmt.Errorf("failed to list forwarding database: %w", err)
	}

	entries := buildEntries(neighs, m.bridgeIndex)

	// Swap the entire table atomically.
	m.table.cache.Swap(entries)

	m.log.Infow("updated forwarding database", zap.Int("size", len(entries)))
	return nil
}
