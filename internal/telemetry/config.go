package telemetry

// Config controls OTLP trace export.
type Config struct {
	Enabled bool

	// ServiceName and ServiceVersion identify the daemon in the trace
	// backend (service.name / service.version resource attributes).
	ServiceName    string
	ServiceVersion string

	// Endpoint is the OTLP gRPC collector address, host:port without scheme.
	Endpoint string

	// Insecure disables TLS on the collector connection.
	Insecure bool

	// SampleRate is the head sampling ratio in [0.0, 1.0].
	SampleRate float64
}

// ProfilingConfig controls Pyroscope continuous profiling.
type ProfilingConfig struct {
	Enabled bool

	ServiceName    string
	ServiceVersion string

	// Endpoint is the Pyroscope server URL, scheme included.
	Endpoint string

	// ProfileTypes selects what to collect; see profileTypes for the
	// accepted names. Mutex and block profiling also enable the matching
	// runtime sampling.
	ProfileTypes []string
}

// DefaultConfig returns the tracing defaults: disabled, local collector,
// sample everything.
func DefaultConfig() Config {
	return Config{
		Enabled:        false,
		ServiceName:    "mutt",
		ServiceVersion: "dev",
		Endpoint:       "localhost:4317",
		Insecure:       true,
		SampleRate:     1.0,
	}
}
