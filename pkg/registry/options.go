package registry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const (
	defaultPollInterval       = time.Second
	defaultMaxInlineRows      = 1000
	defaultTTL                = 24 * time.Hour
	defaultMaxQueryTimeout    = time.Hour
	defaultStatusCheckTimeout = 30 * time.Second
)

type config struct {
	defaults           Options
	ttl                time.Duration
	maxQueryTimeout    time.Duration
	statusCheckTimeout time.Duration
	logger             *zap.Logger
	registerer         prometheus.Registerer
}

func defaultConfig() *config {
	return &config{
		defaults: Options{
			PollInterval:  defaultPollInterval,
			MaxInlineRows: defaultMaxInlineRows,
		},
		ttl:                defaultTTL,
		maxQueryTimeout:    defaultMaxQueryTimeout,
		statusCheckTimeout: defaultStatusCheckTimeout,
		logger:             zap.NewNop(),
		registerer:         prometheus.NewRegistry(),
	}
}

// Option is a functional option for configuring the registry.
type Option func(*config)

// WithDefaultPollInterval sets the poll interval applied when a query does
// not specify one.
func WithDefaultPollInterval(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.defaults.PollInterval = d
		}
	}
}

// WithDefaultMaxInlineRows sets the inline row cap applied when a query does
// not specify one.
func WithDefaultMaxInlineRows(n int) Option {
	return func(c *config) {
		if n >= 0 {
			c.defaults.MaxInlineRows = n
		}
	}
}

// WithTTL sets how long terminal records are retained before PruneExpired
// removes them.
func WithTTL(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.ttl = d
		}
	}
}

// WithMaxQueryTimeout caps the per-query timeout a caller may request.
func WithMaxQueryTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.maxQueryTimeout = d
		}
	}
}

// WithStatusCheckTimeout bounds a single status-check driver call. A call
// that hits this deadline counts as still-running and the poller keeps going.
func WithStatusCheckTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.statusCheckTimeout = d
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetricsRegisterer sets where registry metrics are registered. Defaults
// to a private registry so embedding applications opt in explicitly.
func WithMetricsRegisterer(reg prometheus.Registerer) Option {
	return func(c *config) {
		if reg != nil {
			c.registerer = reg
		}
	}
}
