// Package logging provides structured logging using uber/zap.
//
// Two modes are supported:
//   - Production: JSON output for machine parsing
//   - Development: colored console output for human readability
//
// The runtime also uses the logger as its failure sink: every contained
// per-component failure is reported here and nowhere else.
package logging
