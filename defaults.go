package gorawrcache

// Middleware execution order. Lower values run first, regardless of the
// order options are passed to NewServer.
const (
	priorityRecovery  = 100
	priorityRequestID = 200
	priorityTracing   = 300
	priorityMetrics   = 400
	priorityAccessLog = 500
	priorityRateLimit = 600
	priorityUser      = 1000
)

// DefaultOptions returns the recommended set of options for production use:
// panic recovery, request IDs, access logging and metrics.
func DefaultOptions() []Option {
	return []Option{
		WithRecovery(),
		WithRequestID(),
		WithAccessLog(),
		WithMetrics(),
	}
}
