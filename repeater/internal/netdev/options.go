package netdev

import (
	"time"

	"go.uber.org/zap"
)

// Option is a function that configures the bridge port table and monitor.
type Option func(*options)

// WithLog configures a logger.
func WithLog(log *zap.SugaredLogger) Option {
	return func(o *options) {
		o.Log = log
	}
}

// WithStationHandler configures a callback for station state transitions.
func WithStationHandler(fn func(ev StationEvent)) Option {
	return func(o *options) {
		o.OnStation = fn
	}
}

// WithUpdateInterval configures the force-resync interval.
func WithUpdateInterval(interval time.Duration) Option {
	return func(o *options) {
		o.UpdateInterval = interval
	}
}

type options struct {
	Log            *zap.SugaredLogger
	OnStation      func(ev StationEvent)
	UpdateInterval time.Duration
}

func newOptions() *options {
	return &options{
		Log:            zap.NewNop().Sugar(),
		OnStation:      func(StationEvent) {},
		UpdateInterval: 5 * time.Minute,
	}
}
