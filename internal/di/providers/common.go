package providers

import "time"

const (
	// shutdownTimeout is the maximum time to wait for graceful shutdown of services.
	shutdownTimeout = 30 * time.Second

	// limiterIdleTTL is how long a client IP's login bucket is kept unused.
	limiterIdleTTL = 15 * time.Minute
)
