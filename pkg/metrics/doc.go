// Package metrics exposes per-transfer Prometheus metrics.
//
// imgship is a short-lived CLI, so metrics are not scraped over HTTP.
// Instead the registry is written to a node_exporter textfile after each
// session (see WriteTextfile), which lets a lab host alert when a board stops
// accepting images.
//
// A nil *Metrics is a valid no-op.
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
package metrics
