package sessions

import (
	"log/slog"
	"time"
)

// Option configures the expiring and persistent stores.
type Option func(*options)

type options struct {
	now    func() time.Time
	logger *slog.Logger
}

func defaultOptions() options {
	return options{
		now:    time.Now,
		logger: slog.Default(),
	}
}

// WithClock replaces time.Now. Tests use it to move across the expiry boundary.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
