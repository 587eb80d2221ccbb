package fdb

import (
	"time"

	"go.uber.org/zap"
)

// Option is a function that configures the forwarding database.
type Option func(*options)

// WithLog configures a logger.
func WithLog(log *zap.SugaredLogger) Option {
	return func(o *options) {
		o.Log = log
	}
}

// WithUpdateInterval configures the force-resync interval.
func WithUpdateInterval(interval time.Duration) Option {
	return func(o *options) {
		o.UpdateInterval = interval
	}
}

// WithQueueSize configures the number of pending kernel writes.
func WithQueueSize(size int) Option {
	return func(o *options) {
		o.QueueSize = size
	}
}

type options struct {
	Log            *zap.SugaredLogger
	UpdateInterval time.Duration
	QueueSize      int
}

func newOptions() *options {
	return &options{
		Log:            zap.NewNop().Sugar(),
		UpdateInterval: 5 * time.Minute,
		QueueSize:      1024,
	}
}
