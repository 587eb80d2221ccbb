package netdev

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/vishvananda/netlink"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var errSubscriptionClosed = errors.New("link subscription closed")

// Monitor keeps the table in sync with kernel links.
type Monitor struct {
	table          *Table
	onStation      func(ev StationEvent)
	updateInterval time.Duration
	log            *zap.SugaredLogger

	// mu keeps station events ordered across concurrent updates.
	mu sync.Mutex
}

// NewMonitor creates a new link monitor.
//
// The table is populated synchronously, reporting initial station states
// through the station handler.
func NewMonitor(table *Table, options ...Option) (*Monitor, error) {
	opts := newOptions()
	for _, o := range options {
		o(opts)
	}

	m := &Monitor{
		table:          table,
		onStation:      opts.OnStation,
		updateInterval: opts.UpdateInterval,
		log:            opts.Log,
	}

	if err := m.update(); err != nil {
		return nil, err
	}
	return m, nil
}

// Run runs the link monitor until the specified context is canceled.
func (m *Monitor) Run(ctx context.Context) error {
	m.log.Debugf("starting links monitor")
	defer m.log.Debugf("stopped links monitor")

	wg, ctx := errgroup.WithContext(ctx)
	wg.Go(func() error {
		return m.runSubscriptionLoop(ctx)
	})
	wg.Go(func() error {
		return m.runPeriodicUpdate(ctx)
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
		m.log.Warnw("link subscription failed, resubscribing", zap.Error(err))

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

	txRx := make(chan netlink.LinkUpdate, 16)
	opts := netlink.LinkSubscribeOptions{
		ErrorCallback: func(err error) {
			m.log.Warnw("link subscription error", zap.Error(err))
		},
	}
	if err := netlink.LinkSubscribeWithOptions(txRx, done, opts); err != nil {
		return fmt.Errorf("failed to subscribe to links updates: %w", err)
	}
	onSubscribed()

	// Events may have been missed while resubscribing.
	if err := m.update(); err != nil {
		m.log.Warnw("failed to update links", zap.Error(err))
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-txRx:
			if !ok {
				return errSubscriptionClosed
			}
			m.log.Debugw("processing link update",
				zap.String("dev", update.Attrs().Name),
				zap.Stringer("oper_state", update.Attrs().OperState),
			)
			if err := m.update(); err != nil {
				m.log.Warnw("failed to process link update", zap.Error(err))
			}
		}
	}
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
				m.log.Warnw("failed to update links", zap.Error(err))
			}
		}
	}
}

func (m *Monitor) update() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	links, err := netlink.LinkList()
	if err != nil {
		return fmt.Errorf("failed to list links: %w", err)
	}

	for _, ev := range m.table.Sync(links) {
		m.log.Infow("station interface changed state",
			zap.String("dev", ev.Device.Name()),
			zap.String("radio", string(ev.Device.Radio())),
			zap.Bool("up", ev.Up),
		)
		m.onStation(ev)
	}
	return nil
}
