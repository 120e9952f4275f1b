package executor

const (
	defaultWorkers   = 8
	defaultQueueSize = 64
)

type config struct {
	workers   int
	queueSize int
}

func defaultConfig() *config {
	return &config{
		workers:   defaultWorkers,
		queueSize: defaultQueueSize,
	}
}

// Option is a functional option for configuring the executor.
type Option func(*config)

// WithWorkers sets the number of worker goroutines.
func WithWorkers(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithQueueSize sets the pending-task queue capacity. A full queue applies
// back-pressure on Submit.
func WithQueueSize(n int) Option {
	return func(c *config) {
		if n >= 0 {
			c.queueSize = n
		}
	}
}
