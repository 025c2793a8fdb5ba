package batchz

import "go.uber.org/zap"

type options struct {
	clock   Clock
	logger  *zap.Logger
	metrics *Metrics
	name    string
}

// Option configures an operator created by BufferTimeOrCount or BufferCount.
type Option func(*options)

func defaultOptions(name string) options {
	return options{
		clock:  RealClock,
		logger: zap.NewNop(),
		name:   name,
	}
}

func applyOptions(name string, opts []Option) options {
	o := defaultOptions(name)
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithClock sets the clock used for time windows.
// Use a clockz fake clock for deterministic tests.
func WithClock(clock Clock) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithLogger sets the logger. Operators log drains at debug level and
// delivery failures at warn level. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics records operator activity on m.
func WithMetrics(m *Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithName sets the operator name used in logs, metrics and errors.
func WithName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}
