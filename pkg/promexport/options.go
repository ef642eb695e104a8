package promexport

import "github.com/prometheus/client_golang/prometheus"

// Option applies a configuration option to the Exporter.
type Option func(*Exporter)

// WithNamespace sets the namespace for all metrics.
func WithNamespace(namespace string) Option {
	return func(e *Exporter) {
		if namespace != "" {
			e.namespace = namespace
		}
	}
}

// WithSubsystem sets the subsystem for all metrics.
func WithSubsystem(subsystem string) Option {
	return func(e *Exporter) {
		if subsystem != "" {
			e.subsystem = subsystem
		}
	}
}

// WithRegistry sets the registry the gauges are registered on and gathered from.
func WithRegistry(registry *prometheus.Registry) Option {
	return func(e *Exporter) {
		if registry != nil {
			e.registry = registry
		}
	}
}
