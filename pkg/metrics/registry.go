// Package metrics owns the process-wide Prometheus registry.
//
// Metrics are opt-in: until InitRegistry is called, IsEnabled reports
// false and the constructors in pkg/metrics/prometheus return nil, which
// the instrumented components treat as a no-op sink.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	mu       sync.RWMutex
	registry *prometheus.Registry
)

// InitRegistry creates the process registry. Calling it again replaces
// the registry and orphans every previously created collector, so
// collectors must be rebuilt afterwards.
func InitRegistry() {
	mu.Lock()
	defer mu.Unlock()
	registry = prometheus.NewRegistry()
}

// GetRegistry returns the process registry, or nil when metrics are
// disabled.
func GetRegistry() *prometheus.Registry {
	mu.RLock()
	defer mu.RUnlock()
	return registry
}

// IsEnabled reports whether InitRegistry has been called.
func IsEnabled() bool {
	return GetRegistry() != nil
}
