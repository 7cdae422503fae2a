package setq

// Option configures a Collection at construction time.
type Option func(*Collection)

// WithLogger attaches a logger to the collection. Evaluation logs at Debug
// level (resolved sets, intersections, temp-key cleanup). The default
// discards all output.
//
// If nil is passed, the noop logger is used.
func WithLogger(l *Logger) Option {
	return func(c *Collection) {
		if l == nil {
			l = NoopLogger()
		}
		c.logger = l
	}
}

// WithMetrics attaches a metrics collector. Terminal operations record
// their duration and outcome; evaluation records how many temporary keys
// it created and cleaned up. The default collector discards everything.
//
// If nil is passed, the noop collector is used.
func WithMetrics(mc MetricsCollector) Option {
	return func(c *Collection) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		c.metrics = mc
	}
}
