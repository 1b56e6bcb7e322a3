package fscache

import (
	"time"

	"github.com/go-logr/logr"
)

// config holds the settings assembled via functional options.
type config struct {
	now      func() time.Time
	logger   logr.Logger
	observers []Observer
}

// Option configures a Store.
type Option func(*config)

// WithClock replaces time.Now as the source of the current instant. It is
// used when computing expiries and when checking liveness.
func WithClock(now func() time.Time) Option {
	return func(c *config) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger sets the logger used for I/O failures and self-heal details.
// The default discards everything.
func WithLogger(l logr.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// WithObserver registers an Observer notified of every store event. It may
// be given more than once; observers are called in registration order.
func WithObserver(o Observer) Option {
	return func(c *config) {
		if o != nil {
			c.observers = append(c.observers, o)
		}
	}
}
