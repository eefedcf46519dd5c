// Package monitoring exposes Prometheus metrics for the component runtime:
// HTTP surface metrics, registry fetch outcomes, and per-component load
// outcomes. Metrics are optional everywhere they are consumed; a nil
// collector disables recording.
package monitoring
