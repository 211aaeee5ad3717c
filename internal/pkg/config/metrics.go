package config

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ConfigMetrics provides parameterized Prometheus metrics for configuration
// management, shared by every component that loads env-var configuration.
//
// Metrics generated (parameterized by component name):
//   - {component}_config_load_timestamp: Unix timestamp of last configuration load
//   - {component}_config_validation_errors_total: Total validation errors by field
//   - {component}_config_fallbacks_total: Total fallback operations by field
//   - {component}_config_fallback_active: 1 if a fallback is active for the field
type ConfigMetrics struct {
	loadTimestamp    prometheus.Gauge
	validationErrors *prometheus.CounterVec
	fallbacks        *prometheus.CounterVec
	fallbackActive   *prometheus.GaugeVec
}

// NewConfigMetrics creates and registers a ConfigMetrics set for a component.
// Component names must be unique per process or registration panics.
func NewConfigMetrics(componentName string) *ConfigMetrics {
	return &ConfigMetrics{
		loadTimestamp: promauto.NewGauge(prometheus.GaugeOpts{
			Name: fmt.Sprintf("%s_config_load_timestamp", componentName),
			Help: "Unix timestamp of the last configuration load",
		}),
		validationErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_config_validation_errors_total", componentName),
			Help: "Total number of configuration validation errors",
		}, []string{"field"}),
		fallbacks: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_config_fallbacks_total", componentName),
			Help: "Total number of configuration fallback operations",
		}, []string{"field", "fallback_type"}),
		fallbackActive: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: fmt.Sprintf("%s_config_fallback_active", componentName),
			Help: "Whether a configuration fallback is currently active (1) or not (0)",
		}, []string{"field"}),
	}
}

// RecordLoadTimestamp marks the time of the latest configuration load.
func (m *ConfigMetrics) RecordLoadTimestamp() {
	m.loadTimestamp.Set(float64(time.Now().Unix()))
}

// RecordValidationError counts a validation failure for a field.
func (m *ConfigMetrics) RecordValidationError(field string) {
	m.validationErrors.WithLabelValues(field).Inc()
}

// RecordFallback counts a fallback applied for a field.
func (m *ConfigMetrics) RecordFallback(field, fallbackType string) {
	m.fallbacks.WithLabelValues(field, fallbackType).Inc()
}

// SetFallbackActive flags whether a field is currently running on its default.
func (m *ConfigMetrics) SetFallbackActive(field string, active bool) {
	v := 0.0
	if active {
		v = 1.0
	}
	m.fallbackActive.WithLabelValues(field).Set(v)
}
